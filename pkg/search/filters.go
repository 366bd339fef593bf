// Package search holds the shared representation of property search filters:
// the normalized filter state a client keeps, its query-string encoding for
// shareable URLs, and the lenient parameter parsing the API applies.
package search

import (
	"math"
	"strings"

	"github.com/angelmondragon/rentals-backend/pkg/types"
)

// Any is the sentinel a client sends for "no restriction".
const Any = "any"

type ViewMode string

const (
	ViewGrid ViewMode = "grid"
	ViewList ViewMode = "list"
)

// Range is an optional [min, max] pair. A nil slot is unbounded.
type Range [2]*float64

func (r Range) IsEmpty() bool {
	return r[0] == nil && r[1] == nil
}

// Filters is the client-side filter state. String filters use Any (or "") for
// absent; Clean collapses both to "".
type Filters struct {
	Location      string
	PriceRange    Range
	Beds          string
	Baths         string
	PropertyType  string
	SquareFeet    Range
	Amenities     []string
	AvailableFrom string
	Coordinates   *types.Coordinates
	ViewMode      ViewMode
}

// Defaults is the state a fresh search page starts from.
func Defaults() Filters {
	return Filters{
		Location:      "Los Angeles",
		Beds:          Any,
		Baths:         Any,
		PropertyType:  Any,
		AvailableFrom: Any,
		Coordinates:   &types.Coordinates{Longitude: -118.25, Latitude: 34.05},
		ViewMode:      ViewGrid,
	}
}

// Normalize trims values, dedupes amenities in first-seen order, orders
// inverted ranges and drops out-of-range coordinates.
func (f Filters) Normalize() Filters {
	out := f
	out.Location = strings.TrimSpace(f.Location)
	out.Beds = normalizeSentinel(f.Beds)
	out.Baths = normalizeSentinel(f.Baths)
	out.PropertyType = normalizeSentinel(f.PropertyType)
	out.AvailableFrom = normalizeSentinel(f.AvailableFrom)
	out.PriceRange = orderRange(f.PriceRange)
	out.SquareFeet = orderRange(f.SquareFeet)
	out.Amenities = dedupe(f.Amenities)
	out.Coordinates = nil
	if f.Coordinates != nil && f.Coordinates.InRange() {
		c := *f.Coordinates
		out.Coordinates = &c
	}
	switch ViewMode(strings.ToLower(strings.TrimSpace(string(f.ViewMode)))) {
	case ViewGrid:
		out.ViewMode = ViewGrid
	case ViewList:
		out.ViewMode = ViewList
	default:
		out.ViewMode = ""
	}
	return out
}

// Clean drops every absent value: "any", empty strings and empty sets all
// become zero values.
func (f Filters) Clean() Filters {
	out := f.Normalize()
	for _, s := range []*string{&out.Beds, &out.Baths, &out.PropertyType, &out.AvailableFrom} {
		if *s == Any {
			*s = ""
		}
	}
	return out
}

// Apply overlays every present value of other onto f, the way a restored URL
// is merged over the current state.
func (f Filters) Apply(other Filters) Filters {
	out := f
	o := other.Clean()
	if o.Location != "" {
		out.Location = o.Location
	}
	if !o.PriceRange.IsEmpty() {
		out.PriceRange = o.PriceRange
	}
	if !o.SquareFeet.IsEmpty() {
		out.SquareFeet = o.SquareFeet
	}
	if o.Beds != "" {
		out.Beds = o.Beds
	}
	if o.Baths != "" {
		out.Baths = o.Baths
	}
	if o.PropertyType != "" {
		out.PropertyType = o.PropertyType
	}
	if o.AvailableFrom != "" {
		out.AvailableFrom = o.AvailableFrom
	}
	if len(o.Amenities) > 0 {
		out.Amenities = o.Amenities
	}
	if o.Coordinates != nil {
		out.Coordinates = o.Coordinates
	}
	if o.ViewMode != "" {
		out.ViewMode = o.ViewMode
	}
	return out
}

func normalizeSentinel(v string) string {
	v = strings.TrimSpace(v)
	if strings.EqualFold(v, Any) {
		return Any
	}
	return v
}

func orderRange(r Range) Range {
	out := Range{copyFloat(r[0]), copyFloat(r[1])}
	if out[0] != nil && out[1] != nil && *out[0] > *out[1] {
		out[0], out[1] = out[1], out[0]
	}
	return out
}

func copyFloat(v *float64) *float64 {
	if v == nil || math.IsNaN(*v) || math.IsInf(*v, 0) {
		return nil
	}
	c := *v
	return &c
}

func dedupe(values []string) []string {
	var out []string
	seen := make(map[string]struct{}, len(values))
	for _, raw := range values {
		for _, v := range strings.Split(raw, ",") {
			v = strings.TrimSpace(v)
			if v == "" || strings.EqualFold(v, Any) {
				continue
			}
			if _, ok := seen[v]; ok {
				continue
			}
			seen[v] = struct{}{}
			out = append(out, v)
		}
	}
	return out
}
