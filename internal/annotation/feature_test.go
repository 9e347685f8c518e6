package annotation

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lsnmst/idjwi-alert-system/internal/geo"
	"github.com/lsnmst/idjwi-alert-system/internal/mapview"
	"github.com/lsnmst/idjwi-alert-system/internal/notes"
	"github.com/lsnmst/idjwi-alert-system/internal/session"
)

type featureFixture struct {
	m        *mapview.Headless
	control  *mapview.HeadlessControl
	store    *fakeStore
	disp     *queueDispatcher
	notifier *recordingNotifier
	feature  *Feature
}

func newFeatureFixture(t *testing.T, zoom float64, rows []notes.Note) *featureFixture {
	t.Helper()
	f := &featureFixture{
		m:        mapview.NewHeadless(zoom),
		control:  &mapview.HeadlessControl{},
		store:    &fakeStore{rows: rows},
		disp:     newQueueDispatcher(),
		notifier: &recordingNotifier{},
	}
	f.feature = New(context.Background(), Deps{
		Map:           f.m,
		Control:       f.control,
		Store:         f.store,
		Sessions:      session.Static{},
		Notifier:      f.notifier,
		Dispatcher:    f.disp,
		ZoomThreshold: 12,
	})
	return f
}

// TestAddNoteEndToEnd walks the whole happy path: arm placement, click,
// reposition by drag, fill in the form, submit, and observe the store write
// plus the follow-up refresh.
func TestAddNoteEndToEnd(t *testing.T) {
	f := newFeatureFixture(t, 15, nil)

	f.feature.Start()
	f.disp.runNext(t) // initial refresh

	f.feature.Placement.Toggle()
	assert.Equal(t, controlLabelPlacing, f.control.Label())

	f.m.FireClick(geo.Point{Lat: 1.0, Lon: 2.0})
	require.True(t, f.feature.Form.Visible(), "choosing a point opens the form")

	markers := f.m.TransientMarkers()
	require.Len(t, markers, 1)
	markers[0].Drag(geo.Point{Lat: 1.5, Lon: 2.5})

	f.feature.Form.Submit(Fields{
		Title:    "Camp",
		Category: notes.CategorySettlement,
	})
	f.disp.runNext(t) // insert completion

	payloads := f.store.insertedPayloads()
	require.Len(t, payloads, 1)
	assert.Equal(t, "Camp", payloads[0].Title)
	assert.Equal(t, []float64{2.5, 1.5}, payloads[0].Geom.Coordinates,
		"dragged position wins, serialized lon-first")

	assert.False(t, f.feature.Form.Visible())
	assert.Equal(t, ModeIdle, f.feature.Placement.Mode())
	assert.Empty(t, f.m.TransientMarkers())
	assert.Equal(t, controlLabelIdle, f.control.Label())

	f.disp.runNext(t) // refresh after save
	assert.Equal(t, 2, f.store.listCount())
}

// TestViewportSettleRefreshes covers the pan flow: move-start snapshots open
// popups, move-end re-fetches and rebuilds, and the popup follows the note.
func TestViewportSettleRefreshes(t *testing.T) {
	f := newFeatureFixture(t, 15, []notes.Note{
		validNote("a", 1, 2, true),
	})

	f.feature.Start()
	f.disp.runNext(t)
	require.Len(t, f.m.NoteLayer().Markers(), 1)

	marker, ok := f.m.NoteLayer().Find("a")
	require.True(t, ok)
	marker.OpenPopup()

	f.m.FireMoveStart()
	f.m.FireMoveEnd()
	f.disp.runNext(t)

	reborn, ok := f.m.NoteLayer().Find("a")
	require.True(t, ok)
	assert.True(t, reborn.PopupOpen())
	assert.Equal(t, 2, f.store.listCount())
}

// TestZoomOutHidesNotes: zooming to the threshold and settling leaves the
// note layer empty; zooming back in restores it.
func TestZoomOutHidesNotes(t *testing.T) {
	f := newFeatureFixture(t, 15, []notes.Note{
		validNote("a", 1, 2, true),
	})

	f.feature.Start()
	f.disp.runNext(t)
	require.Len(t, f.m.NoteLayer().Markers(), 1)

	f.m.SetZoom(12)
	f.m.FireMoveStart()
	f.m.FireMoveEnd()
	f.disp.runNext(t)
	assert.Empty(t, f.m.NoteLayer().Markers())

	f.m.SetZoom(13)
	f.m.FireMoveStart()
	f.m.FireMoveEnd()
	f.disp.runNext(t)
	assert.Len(t, f.m.NoteLayer().Markers(), 1)
}

// TestUnvalidatedNotesHiddenByDefault: a freshly submitted note is not
// rendered until moderation flips it, matching the post-save message.
func TestUnvalidatedNotesHiddenByDefault(t *testing.T) {
	f := newFeatureFixture(t, 15, []notes.Note{
		validNote("pending", 1, 2, false),
	})

	f.feature.Start()
	f.disp.runNext(t)
	assert.Empty(t, f.m.NoteLayer().Markers())

	f.feature.Pipeline.Refresh(RefreshOptions{IncludeUnvalidated: true})
	f.disp.runNext(t)

	marker, ok := f.m.NoteLayer().Find("pending")
	require.True(t, ok)
	assert.True(t, marker.Spec().Popup.Pending)
}
