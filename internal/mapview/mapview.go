// Package mapview defines the narrow contract between the annotation core
// and the hosting map/viewport provider, plus a headless in-memory
// implementation for tests and non-UI runs.
//
// The real provider is the web map frontend; the core never assumes more
// than what these interfaces expose.
package mapview

import (
	"github.com/lsnmst/idjwi-alert-system/internal/geo"
)

// Cursor is the pointer style requested over the map surface.
type Cursor string

const (
	CursorDefault   Cursor = ""
	CursorCrosshair Cursor = "crosshair"
)

// MarkerStyle carries visual hints for a marker. The provider may ignore
// fields it cannot express.
type MarkerStyle struct {
	Color       string
	FillColor   string
	FillOpacity float64
	Weight      int
	Radius      int // circle markers only
}

// Popup is the structured content of a marker popup.
type Popup struct {
	Glyph     string
	Title     string
	Body      string
	DateLabel string
	Pending   bool // shows the "pending validation" indicator
}

// MarkerSpec describes a marker to render. NoteID carries note identity
// across full layer rebuilds; it is empty for markers not backed by a note.
type MarkerSpec struct {
	NoteID string
	Point  geo.Point
	Glyph  string
	Style  MarkerStyle
	Popup  Popup
}

// Marker is a rendered marker handle.
type Marker interface {
	Spec() MarkerSpec
	OpenPopup()
	ClosePopup()
	PopupOpen() bool
}

// MarkerLayer groups markers that are cleared and rebuilt together.
type MarkerLayer interface {
	Add(MarkerSpec) Marker
	Clear()
	// Find locates a marker by note identity after a rebuild.
	Find(noteID string) (Marker, bool)
	Markers() []Marker
}

// TransientMarker is the draggable, uncommitted marker shown during
// placement. Dragging reports the marker's current position.
type TransientMarker interface {
	Position() geo.Point
	OnDrag(func(geo.Point))
	Remove()
}

// Map is the viewport provider contract.
type Map interface {
	Zoom() float64
	SetCursor(Cursor)
	OnClick(func(geo.Point))
	// OnMoveStart fires when a viewport transition (pan/zoom) begins.
	OnMoveStart(func())
	// OnMoveEnd fires when the viewport settles.
	OnMoveEnd(func())
	AddTransientMarker(geo.Point, MarkerStyle) TransientMarker
	NoteLayer() MarkerLayer
	AlertLayer() MarkerLayer
}

// ModeControl is the placement toggle affordance (the floating button in the
// web UI). The controller drives its label and accent color.
type ModeControl interface {
	SetLabel(string)
	SetAccent(color string)
}
