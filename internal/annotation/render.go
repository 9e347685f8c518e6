package annotation

import (
	"context"

	"github.com/lsnmst/idjwi-alert-system/internal/mapview"
	"github.com/lsnmst/idjwi-alert-system/internal/notes"
	"github.com/lsnmst/idjwi-alert-system/internal/observability/metrics"
)

// NoteLister is the slice of the store client the pipeline consumes.
type NoteLister interface {
	ListNotes(ctx context.Context) ([]notes.Note, error)
}

// RefreshOptions controls a single refresh.
type RefreshOptions struct {
	// IncludeUnvalidated renders notes still awaiting moderation, used for
	// self-review after submission. Default fetches render validated notes
	// only.
	IncludeUnvalidated bool
}

// French short date for the popup, matching the web frontend's
// toLocaleDateString("fr-FR").
const popupDateLayout = "02/01/2006"

// Pipeline fetches current notes and reconciles the note marker layer.
// Each refresh is a full clear-and-rebuild: with unchanged data and zoom,
// repeated refreshes produce an identical marker set.
type Pipeline struct {
	ctx     context.Context
	m       mapview.Map
	store   NoteLister
	disp    Dispatcher
	popups  *PopupKeeper
	metrics *metrics.AnnotationMetrics

	// zoomThreshold is the zoom level at/below which no note markers are
	// rendered regardless of data.
	zoomThreshold float64

	// Refresh sequencing: overlapping refreshes are not cancelled, but a
	// response older than the last applied one is discarded, so the visible
	// result is always the newest request's (last-request-wins).
	issued  uint64 // incremented on Refresh, on the loop
	applied uint64 // last sequence applied, on the loop
}

// NewPipeline creates a render pipeline. popups and m(etrics) may be nil.
func NewPipeline(ctx context.Context, m mapview.Map, store NoteLister, disp Dispatcher, popups *PopupKeeper, am *metrics.AnnotationMetrics, zoomThreshold float64) *Pipeline {
	return &Pipeline{
		ctx:           ctx,
		m:             m,
		store:         store,
		disp:          disp,
		popups:        popups,
		metrics:       am,
		zoomThreshold: zoomThreshold,
	}
}

// Refresh fetches notes in the background and rebuilds the marker layer on
// the dispatch loop when the response arrives. Must be called on the loop.
// Rapid consecutive calls are each handled; stale responses are dropped.
func (p *Pipeline) Refresh(opts RefreshOptions) {
	p.issued++
	seq := p.issued

	go func() {
		rows, err := p.store.ListNotes(p.ctx)
		p.disp.Dispatch(func() {
			p.apply(seq, rows, err, opts)
		})
	}()
}

// apply runs on the dispatch loop.
func (p *Pipeline) apply(seq uint64, rows []notes.Note, err error, opts RefreshOptions) {
	if seq <= p.applied {
		p.metrics.RecordStaleRefresh()
		logger.Debug("Discarding stale refresh response", "seq", seq, "applied", p.applied)
		return
	}
	p.applied = seq

	if err != nil {
		// Keep the previously rendered marker set untouched; the next
		// viewport-settle trigger retries.
		p.metrics.RecordRefresh("error", 0)
		logger.Error("Note fetch failed, keeping previous render", "error", err)
		return
	}

	layer := p.m.NoteLayer()
	layer.Clear()

	zoom := p.m.Zoom()
	rendered := 0
	for i := range rows {
		point, ok := rows[i].Location()
		if !ok {
			p.metrics.RecordNoteSkipped("geometry")
			logger.Debug("Skipping note with malformed geometry", "note_id", rows[i].ID)
			continue
		}
		if zoom <= p.zoomThreshold {
			p.metrics.RecordNoteSkipped("zoom")
			continue
		}
		if !rows[i].Validated && !opts.IncludeUnvalidated {
			p.metrics.RecordNoteSkipped("unvalidated")
			continue
		}

		layer.Add(mapview.MarkerSpec{
			NoteID: rows[i].ID,
			Point:  point,
			Glyph:  rows[i].Category.Glyph(),
			Popup: mapview.Popup{
				Glyph:     rows[i].Category.Glyph(),
				Title:     rows[i].Title,
				Body:      rows[i].Description,
				DateLabel: rows[i].CreatedAt.Format(popupDateLayout),
				Pending:   !rows[i].Validated,
			},
		})
		rendered++
	}

	p.metrics.RecordRefresh("success", rendered)
	logger.Debug("Note layer rebuilt",
		"seq", seq,
		"total", len(rows),
		"rendered", rendered,
		"zoom", zoom,
		"include_unvalidated", opts.IncludeUnvalidated)

	if p.popups != nil {
		p.popups.RestoreAfterRefresh(layer)
	}
}
