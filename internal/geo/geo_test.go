package geo

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPointGeometryCoordinateOrder(t *testing.T) {
	t.Parallel()

	g := NewPointGeometry(Point{Lat: 1.5, Lon: 2.5})

	assert.Equal(t, "Point", g.Type)
	// Store order is (lon, lat)
	assert.Equal(t, []float64{2.5, 1.5}, g.Coordinates)
}

func TestGeometryPointRoundTrip(t *testing.T) {
	t.Parallel()

	g := NewPointGeometry(Point{Lat: -2.15, Lon: 29.05})
	p, ok := g.Point()

	require.True(t, ok)
	assert.InDelta(t, -2.15, p.Lat, 1e-9)
	assert.InDelta(t, 29.05, p.Lon, 1e-9)
}

func TestGeometryPointMalformed(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		geom *Geometry
	}{
		{"nil geometry", nil},
		{"no coordinates", &Geometry{Type: "Point"}},
		{"single coordinate", &Geometry{Type: "Point", Coordinates: []float64{29.05}}},
		{"three coordinates", &Geometry{Type: "Point", Coordinates: []float64{29.05, -2.15, 0}}},
		{"nan coordinate", &Geometry{Type: "Point", Coordinates: []float64{math.NaN(), -2.15}}},
		{"inf coordinate", &Geometry{Type: "Point", Coordinates: []float64{29.05, math.Inf(1)}}},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, ok := tt.geom.Point()
			assert.False(t, ok)
		})
	}
}

func TestGeometryUnmarshalTolerant(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		valid bool
	}{
		{"well formed", `{"type":"Point","coordinates":[29.05,-2.15]}`, true},
		{"null", `null`, false},
		{"string geom", `"POINT(29.05 -2.15)"`, false},
		{"coordinates wrong type", `{"type":"Point","coordinates":"oops"}`, false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			var g Geometry
			require.NoError(t, json.Unmarshal([]byte(tt.input), &g))
			_, ok := g.Point()
			assert.Equal(t, tt.valid, ok)
		})
	}
}

func TestParseWKTPoint(t *testing.T) {
	t.Parallel()

	p, ok := ParseWKTPoint("POINT(29.0521 -2.1487)")
	require.True(t, ok)
	assert.InDelta(t, 29.0521, p.Lon, 1e-9)
	assert.InDelta(t, -2.1487, p.Lat, 1e-9)

	for _, malformed := range []string{"", "POINT()", "POLYGON((0 0,1 1))", "POINT(29.05)", "29.05 -2.15"} {
		_, ok := ParseWKTPoint(malformed)
		assert.False(t, ok, "expected %q to be rejected", malformed)
	}
}
