// Package notes defines the community note domain model shared by the store
// client and the rendering pipeline.
package notes

import (
	"strings"
	"time"

	"github.com/lsnmst/idjwi-alert-system/internal/geo"
)

// Category classifies what a note reports. The set is closed for display
// purposes, but the stored value is whatever the user selected, so unknown
// values survive round trips untouched.
type Category string

const (
	CategoryMine        Category = "mine"
	CategoryCharcoal    Category = "charcoal"
	CategoryAgriculture Category = "agriculture"
	CategorySettlement  Category = "settlement"
	CategoryOther       Category = "other"
)

// Categories lists the selectable categories in form order.
func Categories() []Category {
	return []Category{
		CategoryMine,
		CategoryCharcoal,
		CategoryAgriculture,
		CategorySettlement,
		CategoryOther,
	}
}

var glyphs = map[Category]string{
	CategoryMine:        "⛏️",
	CategoryCharcoal:    "🔥",
	CategoryAgriculture: "🌾",
	CategorySettlement:  "🏠",
	CategoryOther:       "📝",
}

// Glyph returns the marker glyph for the category. Unrecognized or missing
// categories fall back to the "other" glyph; the stored value is not changed.
func (c Category) Glyph() string {
	if g, ok := glyphs[c]; ok {
		return g
	}
	return glyphs[CategoryOther]
}

// Known reports whether the category is part of the closed display set.
func (c Category) Known() bool {
	_, ok := glyphs[c]
	return ok
}

// Note is a user-submitted point annotation as returned by the remote store.
// ID, Validated and CreatedAt are store-assigned; Validated is flipped only
// by the out-of-band moderation process.
type Note struct {
	ID            string        `json:"id"`
	Geom          *geo.Geometry `json:"geom"`
	Title         string        `json:"title"`
	Description   string        `json:"description"`
	Category      Category      `json:"category"`
	Validated     bool          `json:"validated"`
	CreatedAt     time.Time     `json:"created_at"`
	CreatedByName string        `json:"created_by_name"`
}

// Location extracts the note's point, reporting false for malformed
// geometry. Callers skip such notes silently.
func (n *Note) Location() (geo.Point, bool) {
	return n.Geom.Point()
}

// Draft is the client-side shape of a note before submission. The store
// assigns id, validated and created_at, so the insert payload never carries
// them.
type Draft struct {
	Point         geo.Point
	Title         string
	Description   string
	Category      Category
	CreatedBy     string
	CreatedByName string
}

// InsertPayload is the wire shape sent to the store on insert. CreatedBy is
// a pointer so an anonymous submission serializes as null rather than "".
type InsertPayload struct {
	Geom          geo.Geometry `json:"geom"`
	Title         string       `json:"title"`
	Description   string       `json:"description"`
	Category      Category     `json:"category"`
	CreatedBy     *string      `json:"created_by"`
	CreatedByName string       `json:"created_by_name"`
}

// Payload converts the draft into the store insert shape, trimming free-text
// fields.
func (d *Draft) Payload() InsertPayload {
	var createdBy *string
	if d.CreatedBy != "" {
		id := d.CreatedBy
		createdBy = &id
	}
	return InsertPayload{
		Geom:          geo.NewPointGeometry(d.Point),
		Title:         strings.TrimSpace(d.Title),
		Description:   strings.TrimSpace(d.Description),
		Category:      d.Category,
		CreatedBy:     createdBy,
		CreatedByName: d.CreatedByName,
	}
}
