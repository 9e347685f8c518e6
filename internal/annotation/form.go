package annotation

import (
	"context"
	"strings"

	"github.com/lsnmst/idjwi-alert-system/internal/notes"
	"github.com/lsnmst/idjwi-alert-system/internal/notify"
	"github.com/lsnmst/idjwi-alert-system/internal/observability/metrics"
	"github.com/lsnmst/idjwi-alert-system/internal/session"
)

// NoteInserter is the slice of the store client the form consumes.
type NoteInserter interface {
	InsertNote(ctx context.Context, payload notes.InsertPayload) error
}

// User-facing messages matching the web frontend.
const (
	msgClickMapFirst = "Cliquez sur la carte pour placer la note."
	msgTitleRequired = "Veuillez saisir un titre."
	msgSaveFailed    = "Erreur lors de la sauvegarde."
	msgSaved         = "Note enregistrée ! Elle sera visible après validation."
)

// Fields is the entry form's captured state at submit time.
type Fields struct {
	Title       string
	Description string
	Category    notes.Category
}

// EntryForm owns modal visibility and submission. A dismissed form always
// resets placement so no orphaned transient marker survives; a failed
// submission leaves the form open with the pending point intact for retry.
// All methods must be called on the dispatch loop.
type EntryForm struct {
	ctx       context.Context
	placement *PlacementController
	store     NoteInserter
	sessions  session.Provider
	notifier  notify.Notifier
	pipeline  *Pipeline
	disp      Dispatcher
	metrics   *metrics.AnnotationMetrics

	visible    bool
	submitting bool
}

// NewEntryForm creates the form controller. sessions, notifier and metrics
// may be nil.
func NewEntryForm(ctx context.Context, placement *PlacementController, store NoteInserter, sessions session.Provider, notifier notify.Notifier, pipeline *Pipeline, disp Dispatcher, am *metrics.AnnotationMetrics) *EntryForm {
	return &EntryForm{
		ctx:       ctx,
		placement: placement,
		store:     store,
		sessions:  sessions,
		notifier:  notifier,
		pipeline:  pipeline,
		disp:      disp,
		metrics:   am,
	}
}

// Visible reports whether the modal is shown.
func (f *EntryForm) Visible() bool {
	return f.visible
}

// Open shows the modal.
func (f *EntryForm) Open() {
	f.visible = true
}

// Close hides the modal and resets placement, so cancel and backdrop
// dismissal never leave an orphaned transient marker.
func (f *EntryForm) Close() {
	f.visible = false
	f.placement.Reset()
}

// Submit validates preconditions, builds the insert payload and delegates to
// the store. Identity resolution is best-effort and never blocks submission
// on auth problems.
func (f *EntryForm) Submit(fields Fields) {
	point, ok := f.placement.PendingPoint()
	if !ok {
		f.metrics.RecordInsert("rejected")
		notify.Warn(f.notifier, msgClickMapFirst)
		return
	}

	title := strings.TrimSpace(fields.Title)
	if title == "" {
		f.metrics.RecordInsert("rejected")
		notify.Warn(f.notifier, msgTitleRequired)
		return
	}

	if f.submitting {
		// One request at a time; the button stays disabled in the web UI
		return
	}
	f.submitting = true

	identity := session.Identity{}
	if f.sessions != nil {
		identity = f.sessions.Identity(f.ctx)
	}

	draft := notes.Draft{
		Point:         point,
		Title:         title,
		Description:   fields.Description,
		Category:      fields.Category,
		CreatedBy:     identity.UserID,
		CreatedByName: identity.DisplayName,
	}
	payload := draft.Payload()

	go func() {
		err := f.store.InsertNote(f.ctx, payload)
		f.disp.Dispatch(func() {
			f.finishSubmit(err)
		})
	}()
}

// finishSubmit runs on the dispatch loop.
func (f *EntryForm) finishSubmit(err error) {
	f.submitting = false

	if err != nil {
		// Keep the form open with the same pending point and field values
		// so the user can retry without re-placing the marker.
		f.metrics.RecordInsert("error")
		logger.Error("Note insert failed", "error", err)
		notify.Error(f.notifier, msgSaveFailed)
		return
	}

	f.metrics.RecordInsert("success")
	notify.Info(f.notifier, msgSaved)
	f.Close()
	if f.pipeline != nil {
		f.pipeline.Refresh(RefreshOptions{})
	}
}
