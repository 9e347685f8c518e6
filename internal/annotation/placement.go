package annotation

import (
	"github.com/lsnmst/idjwi-alert-system/internal/geo"
	"github.com/lsnmst/idjwi-alert-system/internal/mapview"
)

// Mode is the placement state.
type Mode string

const (
	// ModeIdle means map clicks are ignored by the placement flow.
	ModeIdle Mode = "idle"
	// ModePlacing means the next map click places (or repositions) the
	// transient note marker.
	ModePlacing Mode = "placing"
)

// Control affordance strings matching the web frontend.
const (
	controlLabelIdle    = "+ Ajouter une note"
	controlLabelPlacing = "Cliquez sur la carte..."
	controlAccentIdle   = "#fff"
	controlAccentArmed  = "red"
)

// Transient marker style for the uncommitted placement square.
var transientStyle = mapview.MarkerStyle{
	Color:       "#ff6600",
	FillColor:   "#ff6600",
	FillOpacity: 0.6,
	Weight:      2,
}

// PlacementController owns the adding-mode state machine and the transient
// marker. Side effects are purely visual; it performs no network calls.
// All methods must be called on the dispatch loop.
type PlacementController struct {
	m       mapview.Map
	control mapview.ModeControl

	mode    Mode
	pending *geo.Point
	marker  mapview.TransientMarker

	// onPlaced fires after a click lands while placing; wiring points it at
	// EntryForm.Open.
	onPlaced func()
}

// NewPlacementController creates the controller in idle state.
func NewPlacementController(m mapview.Map, control mapview.ModeControl) *PlacementController {
	pc := &PlacementController{
		m:       m,
		control: control,
		mode:    ModeIdle,
	}
	pc.showIdleAffordance()
	return pc
}

// SetOnPlaced registers the callback fired when a point has been chosen.
func (pc *PlacementController) SetOnPlaced(fn func()) {
	pc.onPlaced = fn
}

// Mode returns the current placement mode.
func (pc *PlacementController) Mode() Mode {
	return pc.mode
}

// PendingPoint returns the current placement point. It tracks the transient
// marker's live position, not the original click.
func (pc *PlacementController) PendingPoint() (geo.Point, bool) {
	if pc.pending == nil {
		return geo.Point{}, false
	}
	return *pc.pending, true
}

// Toggle arms placing mode from idle, or disarms it, discarding any
// transient marker without submitting.
func (pc *PlacementController) Toggle() {
	if pc.mode == ModePlacing {
		pc.Reset()
		return
	}

	pc.mode = ModePlacing
	pc.m.SetCursor(mapview.CursorCrosshair)
	if pc.control != nil {
		pc.control.SetLabel(controlLabelPlacing)
		pc.control.SetAccent(controlAccentArmed)
	}
	logger.Debug("Placement mode armed")
}

// HandleMapClick places the transient marker at the clicked point. A second
// click replaces the marker (click-again repositioning); dragging the marker
// updates the pending point continuously. The mode stays placing until an
// explicit cancel or a successful submit.
func (pc *PlacementController) HandleMapClick(p geo.Point) {
	if pc.mode != ModePlacing {
		return
	}

	if pc.marker != nil {
		pc.marker.Remove()
		pc.marker = nil
	}

	point := p
	pc.pending = &point
	pc.marker = pc.m.AddTransientMarker(p, transientStyle)
	pc.marker.OnDrag(func(dragged geo.Point) {
		moved := dragged
		pc.pending = &moved
	})

	logger.Debug("Transient marker placed", "lat", p.Lat, "lon", p.Lon)

	if pc.onPlaced != nil {
		pc.onPlaced()
	}
}

// Reset returns the controller to idle: removes the transient marker, clears
// the pending point, restores the control affordance and the cursor. Called
// on cancel, on backdrop dismiss of the form, and on successful submission.
func (pc *PlacementController) Reset() {
	if pc.marker != nil {
		pc.marker.Remove()
		pc.marker = nil
	}
	pc.pending = nil
	pc.mode = ModeIdle
	pc.showIdleAffordance()
	logger.Debug("Placement reset")
}

func (pc *PlacementController) showIdleAffordance() {
	pc.m.SetCursor(mapview.CursorDefault)
	if pc.control != nil {
		pc.control.SetLabel(controlLabelIdle)
		pc.control.SetAccent(controlAccentIdle)
	}
}
