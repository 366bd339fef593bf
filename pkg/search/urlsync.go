package search

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/angelmondragon/rentals-backend/pkg/types"
)

// Query-string keys of the shareable search URL.
const (
	KeyLocation      = "location"
	KeyPriceRange    = "priceRange"
	KeyBeds          = "beds"
	KeyBaths         = "baths"
	KeyPropertyType  = "propertyType"
	KeySquareFeet    = "squareFeet"
	KeyAmenities     = "amenities"
	KeyAvailableFrom = "availableFrom"
	KeyCoordinates   = "coordinates"
	KeyViewMode      = "viewMode"
)

// Values encodes the cleaned state. Ranges are "min,max" with an empty slot
// for an open bound, coordinates are "lon,lat", amenities are comma-joined.
func (f Filters) Values() url.Values {
	c := f.Clean()
	v := url.Values{}
	setIf(v, KeyLocation, c.Location)
	if !c.PriceRange.IsEmpty() {
		v.Set(KeyPriceRange, formatRange(c.PriceRange))
	}
	setIf(v, KeyBeds, c.Beds)
	setIf(v, KeyBaths, c.Baths)
	setIf(v, KeyPropertyType, c.PropertyType)
	if !c.SquareFeet.IsEmpty() {
		v.Set(KeySquareFeet, formatRange(c.SquareFeet))
	}
	if len(c.Amenities) > 0 {
		v.Set(KeyAmenities, strings.Join(c.Amenities, ","))
	}
	setIf(v, KeyAvailableFrom, c.AvailableFrom)
	if c.Coordinates != nil {
		v.Set(KeyCoordinates, formatFloat(c.Coordinates.Longitude)+","+formatFloat(c.Coordinates.Latitude))
	}
	setIf(v, KeyViewMode, string(c.ViewMode))
	return v
}

// FromValues restores cleaned filters from a query string. Unknown keys are
// ignored, "any" means absent and malformed numbers become open bounds.
func FromValues(v url.Values) Filters {
	f := Filters{
		Location:      v.Get(KeyLocation),
		PriceRange:    parseRange(v.Get(KeyPriceRange)),
		Beds:          v.Get(KeyBeds),
		Baths:         v.Get(KeyBaths),
		PropertyType:  v.Get(KeyPropertyType),
		SquareFeet:    parseRange(v.Get(KeySquareFeet)),
		Amenities:     splitList(v.Get(KeyAmenities)),
		AvailableFrom: v.Get(KeyAvailableFrom),
		Coordinates:   parseLonLat(v.Get(KeyCoordinates)),
		ViewMode:      ViewMode(v.Get(KeyViewMode)),
	}
	return f.Clean()
}

// APIParams renders the state as the property search API expects it.
func (f Filters) APIParams() url.Values {
	c := f.Clean()
	v := url.Values{}
	setIf(v, KeyLocation, c.Location)
	setFloat(v, ParamPriceMin, c.PriceRange[0])
	setFloat(v, ParamPriceMax, c.PriceRange[1])
	setIf(v, ParamBeds, c.Beds)
	setIf(v, ParamBaths, c.Baths)
	setIf(v, ParamPropertyType, c.PropertyType)
	setFloat(v, ParamSquareFeetMin, c.SquareFeet[0])
	setFloat(v, ParamSquareFeetMax, c.SquareFeet[1])
	if len(c.Amenities) > 0 {
		v.Set(ParamAmenities, strings.Join(c.Amenities, ","))
	}
	setIf(v, ParamAvailableFrom, c.AvailableFrom)
	if c.Coordinates != nil {
		v.Set(ParamLatitude, formatFloat(c.Coordinates.Latitude))
		v.Set(ParamLongitude, formatFloat(c.Coordinates.Longitude))
	}
	return v
}

// WithFavoriteIDs restricts an API query to the given property ids.
func WithFavoriteIDs(v url.Values, ids []int64) url.Values {
	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		parts = append(parts, strconv.FormatInt(id, 10))
	}
	v.Set(ParamFavoriteIDs, strings.Join(parts, ","))
	return v
}

func setIf(v url.Values, key, value string) {
	if value != "" {
		v.Set(key, value)
	}
}

func setFloat(v url.Values, key string, value *float64) {
	if value != nil {
		v.Set(key, formatFloat(*value))
	}
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func formatRange(r Range) string {
	parts := [2]string{}
	for i, slot := range r {
		if slot != nil {
			parts[i] = formatFloat(*slot)
		}
	}
	return parts[0] + "," + parts[1]
}

func parseRange(raw string) Range {
	var r Range
	if raw == "" {
		return r
	}
	parts := strings.SplitN(raw, ",", 2)
	for i, part := range parts {
		r[i] = parseFloat(part)
	}
	return r
}

func parseLonLat(raw string) *types.Coordinates {
	parts := strings.Split(raw, ",")
	if len(parts) != 2 {
		return nil
	}
	lon, lat := parseFloat(parts[0]), parseFloat(parts[1])
	if lon == nil || lat == nil {
		return nil
	}
	c := types.Coordinates{Longitude: *lon, Latitude: *lat}
	if !c.InRange() {
		return nil
	}
	return &c
}

func splitList(raw string) []string {
	if raw == "" {
		return nil
	}
	return strings.Split(raw, ",")
}
