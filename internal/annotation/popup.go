package annotation

import (
	"github.com/lsnmst/idjwi-alert-system/internal/mapview"
)

// PopupKeeper keeps a note's detail popup open across pan and zoom.
// Reassociation is by note identity, never by marker instance: every refresh
// rebuilds the layer, so the marker object a popup was open on no longer
// exists afterwards.
type PopupKeeper struct {
	m mapview.Map

	// wasOpen maps note id -> popup was open when the viewport transition
	// began. Looked up and cleared on the rebuild that follows the settle.
	wasOpen map[string]bool
}

// NewPopupKeeper creates a keeper for the map's note layer.
func NewPopupKeeper(m mapview.Map) *PopupKeeper {
	return &PopupKeeper{
		m:       m,
		wasOpen: make(map[string]bool),
	}
}

// CaptureBeforeMove snapshots which notes have an open popup. Wired to the
// viewport move-start event; must run on the dispatch loop.
func (k *PopupKeeper) CaptureBeforeMove() {
	for _, marker := range k.m.NoteLayer().Markers() {
		spec := marker.Spec()
		if spec.NoteID == "" {
			continue
		}
		if marker.PopupOpen() {
			k.wasOpen[spec.NoteID] = true
		}
	}
}

// RestoreAfterRefresh reopens popups for notes that survived the rebuild.
// A note that is no longer rendered (unvalidated, filtered, removed) is
// skipped without error. The snapshot is cleared either way.
func (k *PopupKeeper) RestoreAfterRefresh(layer mapview.MarkerLayer) {
	for noteID := range k.wasOpen {
		if marker, ok := layer.Find(noteID); ok {
			marker.OpenPopup()
		}
	}
	clear(k.wasOpen)
}
