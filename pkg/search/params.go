package search

import (
	"math"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/angelmondragon/rentals-backend/pkg/enums"
	"github.com/angelmondragon/rentals-backend/pkg/types"
)

// API query parameter names.
const (
	ParamFavoriteIDs   = "favoriteIds"
	ParamPriceMin      = "priceMin"
	ParamPriceMax      = "priceMax"
	ParamBeds          = "beds"
	ParamBaths         = "baths"
	ParamPropertyType  = "propertyType"
	ParamSquareFeetMin = "squareFeetMin"
	ParamSquareFeetMax = "squareFeetMax"
	ParamAmenities     = "amenities"
	ParamAvailableFrom = "availableFrom"
	ParamLatitude      = "latitude"
	ParamLongitude     = "longitude"
)

// Params is the parsed, typed form of a property search request. Every field
// is optional; nil means the filter is absent.
type Params struct {
	// FavoriteIDs is non-nil whenever the favoriteIds key was sent, even if
	// no entry parsed. An empty non-nil slice matches nothing.
	FavoriteIDs   []int64
	PriceMin      *float64
	PriceMax      *float64
	BedsMin       *int
	BathsMin      *float64
	SquareFeetMin *float64
	SquareFeetMax *float64
	PropertyType  *enums.PropertyType
	Amenities     []string
	AvailableFrom *time.Time
	Near          *types.Coordinates

	// Ignored lists the parameters that were present but malformed.
	Ignored []string
}

var dateLayouts = []string{time.RFC3339, "2006-01-02"}

// ParseParams never fails: malformed values are recorded in Ignored and
// otherwise treated as absent.
func ParseParams(q url.Values) Params {
	var p Params

	if q.Has(ParamFavoriteIDs) {
		p.FavoriteIDs = []int64{}
		for _, raw := range strings.Split(q.Get(ParamFavoriteIDs), ",") {
			raw = strings.TrimSpace(raw)
			if raw == "" {
				continue
			}
			id, err := strconv.ParseInt(raw, 10, 64)
			if err != nil || id <= 0 {
				p.ignore(ParamFavoriteIDs)
				continue
			}
			p.FavoriteIDs = append(p.FavoriteIDs, id)
		}
	}

	p.PriceMin = p.float(q, ParamPriceMin)
	p.PriceMax = p.float(q, ParamPriceMax)
	p.SquareFeetMin = p.float(q, ParamSquareFeetMin)
	p.SquareFeetMax = p.float(q, ParamSquareFeetMax)
	p.BathsMin = p.float(q, ParamBaths)

	if raw, ok := present(q, ParamBeds); ok {
		if beds, err := strconv.Atoi(raw); err == nil {
			p.BedsMin = &beds
		} else {
			p.ignore(ParamBeds)
		}
	}

	if raw, ok := present(q, ParamPropertyType); ok {
		if pt, err := enums.ParsePropertyType(raw); err == nil {
			p.PropertyType = &pt
		} else {
			p.ignore(ParamPropertyType)
		}
	}

	if raw, ok := present(q, ParamAmenities); ok {
		p.Amenities = dedupe([]string{raw})
	}

	if raw, ok := present(q, ParamAvailableFrom); ok {
		if at, ok := parseDate(raw); ok {
			p.AvailableFrom = &at
		} else {
			p.ignore(ParamAvailableFrom)
		}
	}

	lat := p.float(q, ParamLatitude)
	lon := p.float(q, ParamLongitude)
	if lat != nil && lon != nil {
		c := types.Coordinates{Longitude: *lon, Latitude: *lat}
		if c.InRange() {
			p.Near = &c
		} else {
			p.ignore(ParamLatitude, ParamLongitude)
		}
	}

	return p
}

// CacheKey is a canonical, order-independent encoding of the parsed filters.
func (p Params) CacheKey() string {
	v := url.Values{}
	if p.FavoriteIDs != nil {
		ids := append([]int64(nil), p.FavoriteIDs...)
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
		WithFavoriteIDs(v, ids)
	}
	setFloat(v, ParamPriceMin, p.PriceMin)
	setFloat(v, ParamPriceMax, p.PriceMax)
	if p.BedsMin != nil {
		v.Set(ParamBeds, strconv.Itoa(*p.BedsMin))
	}
	setFloat(v, ParamBaths, p.BathsMin)
	setFloat(v, ParamSquareFeetMin, p.SquareFeetMin)
	setFloat(v, ParamSquareFeetMax, p.SquareFeetMax)
	if p.PropertyType != nil {
		v.Set(ParamPropertyType, string(*p.PropertyType))
	}
	if len(p.Amenities) > 0 {
		amenities := append([]string(nil), p.Amenities...)
		sort.Strings(amenities)
		v.Set(ParamAmenities, strings.Join(amenities, ","))
	}
	if p.AvailableFrom != nil {
		v.Set(ParamAvailableFrom, p.AvailableFrom.UTC().Format(time.RFC3339))
	}
	if p.Near != nil {
		v.Set(ParamLatitude, formatFloat(p.Near.Latitude))
		v.Set(ParamLongitude, formatFloat(p.Near.Longitude))
	}
	return v.Encode()
}

func (p *Params) ignore(keys ...string) {
	p.Ignored = append(p.Ignored, keys...)
}

func (p *Params) float(q url.Values, key string) *float64 {
	raw, ok := present(q, key)
	if !ok {
		return nil
	}
	f := parseFloat(raw)
	if f == nil {
		p.ignore(key)
	}
	return f
}

// present returns the trimmed value unless it is missing, empty or "any".
func present(q url.Values, key string) (string, bool) {
	raw := strings.TrimSpace(q.Get(key))
	if raw == "" || strings.EqualFold(raw, Any) {
		return "", false
	}
	return raw, true
}

func parseFloat(raw string) *float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return &f
}

func parseDate(raw string) (time.Time, bool) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
