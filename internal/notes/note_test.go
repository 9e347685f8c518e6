package notes

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lsnmst/idjwi-alert-system/internal/geo"
)

func TestCategoryGlyphFallback(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "⛏️", CategoryMine.Glyph())
	assert.Equal(t, "🏠", CategorySettlement.Glyph())
	// Unknown and empty categories use the fallback glyph but keep their value
	unknown := Category("unknown-value")
	assert.Equal(t, "📝", unknown.Glyph())
	assert.Equal(t, "📝", Category("").Glyph())
	assert.False(t, unknown.Known())
	assert.Equal(t, Category("unknown-value"), unknown)
}

func TestNoteLocationSkipsMalformedGeometry(t *testing.T) {
	t.Parallel()

	valid := Note{Geom: &geo.Geometry{Type: "Point", Coordinates: []float64{29.05, -2.15}}}
	_, ok := valid.Location()
	assert.True(t, ok)

	for name, n := range map[string]Note{
		"nil geom":   {},
		"short geom": {Geom: &geo.Geometry{Type: "Point", Coordinates: []float64{29.05}}},
	} {
		_, ok := n.Location()
		assert.False(t, ok, name)
	}
}

func TestDraftPayloadTrimsAndOrders(t *testing.T) {
	t.Parallel()

	d := Draft{
		Point:         geo.Point{Lat: 1.5, Lon: 2.5},
		Title:         "  Camp  ",
		Description:   " cleared area\n",
		Category:      CategorySettlement,
		CreatedBy:     "user-123",
		CreatedByName: "user@example.org",
	}

	p := d.Payload()
	assert.Equal(t, "Camp", p.Title)
	assert.Equal(t, "cleared area", p.Description)
	assert.Equal(t, CategorySettlement, p.Category)
	require.NotNil(t, p.CreatedBy)
	assert.Equal(t, "user-123", *p.CreatedBy)
	// (lon, lat) order on the wire
	assert.Equal(t, []float64{2.5, 1.5}, p.Geom.Coordinates)
}

func TestDraftPayloadAnonymous(t *testing.T) {
	t.Parallel()

	d := Draft{Point: geo.Point{Lat: 1, Lon: 2}, Title: "t", CreatedByName: "anonymous"}
	raw, err := json.Marshal(d.Payload())
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Nil(t, decoded["created_by"])
	assert.Equal(t, "anonymous", decoded["created_by_name"])
}
