// Package geo converts between map interaction coordinates and geographic
// points, and parses the geometry encodings used by the remote store.
package geo

import (
	"encoding/json"
	"math"
	"regexp"
	"strconv"
)

// Point is a geographic coordinate pair.
type Point struct {
	Lat float64
	Lon float64
}

// Valid reports whether both coordinates are finite numbers.
func (p Point) Valid() bool {
	return !math.IsNaN(p.Lat) && !math.IsInf(p.Lat, 0) &&
		!math.IsNaN(p.Lon) && !math.IsInf(p.Lon, 0)
}

// Geometry is a GeoJSON-style point geometry as stored by the remote store.
// Coordinates are in (lon, lat) order.
type Geometry struct {
	Type        string    `json:"type"`
	Coordinates []float64 `json:"coordinates"`
}

// NewPointGeometry builds the geometry for an insert payload. The store
// expects (lon, lat) coordinate order.
func NewPointGeometry(p Point) Geometry {
	return Geometry{
		Type:        "Point",
		Coordinates: []float64{p.Lon, p.Lat},
	}
}

// Point extracts the geographic point from a geometry. It reports false for
// a nil geometry, a missing or short coordinate array, or non-finite values.
// Malformed geometry is expected input, not an error condition.
func (g *Geometry) Point() (Point, bool) {
	if g == nil || len(g.Coordinates) != 2 {
		return Point{}, false
	}
	p := Point{Lon: g.Coordinates[0], Lat: g.Coordinates[1]}
	if !p.Valid() {
		return Point{}, false
	}
	return p, true
}

// UnmarshalJSON accepts both a GeoJSON object and JSON null. Any other shape
// leaves the geometry empty so Point() reports it as malformed rather than
// failing the whole row decode.
func (g *Geometry) UnmarshalJSON(data []byte) error {
	type plain Geometry
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		// Tolerate unexpected shapes (string, number, array); the row is
		// kept and skipped later by the geometry filter.
		*g = Geometry{}
		return nil
	}
	*g = Geometry(p)
	return nil
}

// wktPointRe matches the WKT encoding used by the alerts table,
// e.g. "POINT(29.05 -2.15)" in (lon, lat) order.
var wktPointRe = regexp.MustCompile(`POINT\(([-\d.]+) ([-\d.]+)\)`)

// ParseWKTPoint extracts a point from a WKT POINT string. It reports false
// when the string does not contain a well-formed point.
func ParseWKTPoint(s string) (Point, bool) {
	matches := wktPointRe.FindStringSubmatch(s)
	if matches == nil {
		return Point{}, false
	}
	lon, err := strconv.ParseFloat(matches[1], 64)
	if err != nil {
		return Point{}, false
	}
	lat, err := strconv.ParseFloat(matches[2], 64)
	if err != nil {
		return Point{}, false
	}
	p := Point{Lat: lat, Lon: lon}
	if !p.Valid() {
		return Point{}, false
	}
	return p, true
}
