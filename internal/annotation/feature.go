package annotation

import (
	"context"

	"github.com/lsnmst/idjwi-alert-system/internal/mapview"
	"github.com/lsnmst/idjwi-alert-system/internal/notify"
	"github.com/lsnmst/idjwi-alert-system/internal/observability/metrics"
	"github.com/lsnmst/idjwi-alert-system/internal/session"
)

// Store is the full remote store surface the feature consumes.
type Store interface {
	NoteLister
	NoteInserter
}

// Deps are the injected collaborators for the annotation feature. The page
// owns their lifecycle: they are initialized once before the feature starts
// and never torn down by it.
type Deps struct {
	Map        mapview.Map
	Control    mapview.ModeControl // may be nil
	Store      Store
	Sessions   session.Provider // may be nil, submissions become anonymous
	Notifier   notify.Notifier  // may be nil
	Dispatcher Dispatcher
	Metrics    *metrics.AnnotationMetrics // may be nil

	// ZoomThreshold is the zoom level at/below which notes are hidden.
	ZoomThreshold float64
}

// Feature wires the annotation components onto a map and keeps them
// reachable for the hosting UI.
type Feature struct {
	Placement *PlacementController
	Form      *EntryForm
	Pipeline  *Pipeline
	Popups    *PopupKeeper
}

// New builds and wires the annotation feature: map clicks feed the placement
// machine, a chosen point opens the form, viewport transitions snapshot and
// restore popups, and every viewport settle re-triggers the pipeline.
func New(ctx context.Context, deps Deps) *Feature {
	popups := NewPopupKeeper(deps.Map)
	pipeline := NewPipeline(ctx, deps.Map, deps.Store, deps.Dispatcher, popups, deps.Metrics, deps.ZoomThreshold)
	placement := NewPlacementController(deps.Map, deps.Control)
	form := NewEntryForm(ctx, placement, deps.Store, deps.Sessions, deps.Notifier, pipeline, deps.Dispatcher, deps.Metrics)

	placement.SetOnPlaced(form.Open)

	deps.Map.OnClick(placement.HandleMapClick)
	deps.Map.OnMoveStart(popups.CaptureBeforeMove)
	deps.Map.OnMoveEnd(func() {
		pipeline.Refresh(RefreshOptions{})
	})

	return &Feature{
		Placement: placement,
		Form:      form,
		Pipeline:  pipeline,
		Popups:    popups,
	}
}

// Start triggers the initial render. Must be called on the dispatch loop.
func (f *Feature) Start() {
	f.Pipeline.Refresh(RefreshOptions{})
}
