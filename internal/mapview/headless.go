package mapview

import (
	"slices"
	"sync"

	"github.com/lsnmst/idjwi-alert-system/internal/geo"
)

// Headless is an in-memory Map implementation. It backs the annotation core
// in tests and in runs with no UI attached; event delivery is explicit via
// the Fire* methods, all on the caller's goroutine.
type Headless struct {
	mu        sync.Mutex
	zoom      float64
	cursor    Cursor
	clicks    []func(geo.Point)
	moveStart []func()
	moveEnd   []func()
	notes     *HeadlessLayer
	alerts    *HeadlessLayer
	transient []*HeadlessTransient
}

// NewHeadless builds a headless map at the given zoom level.
func NewHeadless(zoom float64) *Headless {
	return &Headless{
		zoom:   zoom,
		notes:  &HeadlessLayer{},
		alerts: &HeadlessLayer{},
	}
}

func (h *Headless) Zoom() float64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.zoom
}

// SetZoom changes the current zoom level without firing viewport events.
func (h *Headless) SetZoom(zoom float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.zoom = zoom
}

func (h *Headless) SetCursor(c Cursor) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.cursor = c
}

// Cursor returns the currently requested cursor.
func (h *Headless) Cursor() Cursor {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.cursor
}

func (h *Headless) OnClick(fn func(geo.Point)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clicks = append(h.clicks, fn)
}

func (h *Headless) OnMoveStart(fn func()) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.moveStart = append(h.moveStart, fn)
}

func (h *Headless) OnMoveEnd(fn func()) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.moveEnd = append(h.moveEnd, fn)
}

// FireClick delivers a map click to all subscribers.
func (h *Headless) FireClick(p geo.Point) {
	h.mu.Lock()
	handlers := slices.Clone(h.clicks)
	h.mu.Unlock()
	for _, fn := range handlers {
		fn(p)
	}
}

// FireMoveStart signals the beginning of a viewport transition.
func (h *Headless) FireMoveStart() {
	h.mu.Lock()
	handlers := slices.Clone(h.moveStart)
	h.mu.Unlock()
	for _, fn := range handlers {
		fn()
	}
}

// FireMoveEnd signals a settled viewport.
func (h *Headless) FireMoveEnd() {
	h.mu.Lock()
	handlers := slices.Clone(h.moveEnd)
	h.mu.Unlock()
	for _, fn := range handlers {
		fn()
	}
}

func (h *Headless) AddTransientMarker(p geo.Point, style MarkerStyle) TransientMarker {
	tm := &HeadlessTransient{owner: h, pos: p, style: style}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.transient = append(h.transient, tm)
	return tm
}

// TransientMarkers returns the transient markers currently on the map.
func (h *Headless) TransientMarkers() []*HeadlessTransient {
	h.mu.Lock()
	defer h.mu.Unlock()
	live := make([]*HeadlessTransient, 0, len(h.transient))
	for _, tm := range h.transient {
		if !tm.removed {
			live = append(live, tm)
		}
	}
	return live
}

func (h *Headless) NoteLayer() MarkerLayer  { return h.notes }
func (h *Headless) AlertLayer() MarkerLayer { return h.alerts }

// HeadlessLayer is an in-memory MarkerLayer.
type HeadlessLayer struct {
	mu      sync.Mutex
	markers []*HeadlessMarker
}

func (l *HeadlessLayer) Add(spec MarkerSpec) Marker {
	m := &HeadlessMarker{spec: spec}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.markers = append(l.markers, m)
	return m
}

func (l *HeadlessLayer) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.markers = nil
}

func (l *HeadlessLayer) Find(noteID string) (Marker, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, m := range l.markers {
		if m.spec.NoteID == noteID && noteID != "" {
			return m, true
		}
	}
	return nil, false
}

func (l *HeadlessLayer) Markers() []Marker {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Marker, len(l.markers))
	for i, m := range l.markers {
		out[i] = m
	}
	return out
}

// HeadlessMarker is an in-memory Marker.
type HeadlessMarker struct {
	mu        sync.Mutex
	spec      MarkerSpec
	popupOpen bool
}

func (m *HeadlessMarker) Spec() MarkerSpec {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.spec
}

func (m *HeadlessMarker) OpenPopup() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.popupOpen = true
}

func (m *HeadlessMarker) ClosePopup() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.popupOpen = false
}

func (m *HeadlessMarker) PopupOpen() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.popupOpen
}

// HeadlessTransient is an in-memory TransientMarker.
type HeadlessTransient struct {
	mu      sync.Mutex
	owner   *Headless
	pos     geo.Point
	style   MarkerStyle
	onDrag  []func(geo.Point)
	removed bool
}

func (tm *HeadlessTransient) Position() geo.Point {
	tm.mu.Lock()
	defer tm.mu.Unlock()
	return tm.pos
}

func (tm *HeadlessTransient) OnDrag(fn func(geo.Point)) {
	tm.mu.Lock()
	defer tm.mu.Unlock()
	tm.onDrag = append(tm.onDrag, fn)
}

// Drag moves the marker and notifies drag subscribers, simulating a user
// dragging the placement marker.
func (tm *HeadlessTransient) Drag(p geo.Point) {
	tm.mu.Lock()
	tm.pos = p
	handlers := slices.Clone(tm.onDrag)
	tm.mu.Unlock()
	for _, fn := range handlers {
		fn(p)
	}
}

// Style returns the style the marker was created with.
func (tm *HeadlessTransient) Style() MarkerStyle {
	tm.mu.Lock()
	defer tm.mu.Unlock()
	return tm.style
}

// Removed reports whether the marker has been taken off the map.
func (tm *HeadlessTransient) Removed() bool {
	tm.mu.Lock()
	defer tm.mu.Unlock()
	return tm.removed
}

func (tm *HeadlessTransient) Remove() {
	tm.mu.Lock()
	defer tm.mu.Unlock()
	tm.removed = true
}

// HeadlessControl is an in-memory ModeControl recording the last label and
// accent set by the placement controller.
type HeadlessControl struct {
	mu     sync.Mutex
	label  string
	accent string
}

func (c *HeadlessControl) SetLabel(label string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.label = label
}

func (c *HeadlessControl) SetAccent(color string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.accent = color
}

// Label returns the last label set.
func (c *HeadlessControl) Label() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.label
}

// Accent returns the last accent color set.
func (c *HeadlessControl) Accent() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.accent
}
