package geo

import (
	"context"
	"errors"

	"github.com/angelmondragon/rentals-backend/pkg/geocode"
	"github.com/angelmondragon/rentals-backend/pkg/logger"
	"github.com/angelmondragon/rentals-backend/pkg/types"
)

// Resolution statuses reported back to API clients.
const (
	StatusResolved = "resolved"
	StatusFallback = "fallback"

	ReasonNoResults   = "no_results"
	ReasonUnavailable = "geocoder_unavailable"
)

// Geocoder looks up the first candidate for an address.
type Geocoder interface {
	Geocode(ctx context.Context, addr geocode.Address) (types.Coordinates, error)
}

// Resolution is the outcome of resolving an address for a new listing.
type Resolution struct {
	Coordinates types.Coordinates `json:"-"`
	Status      string            `json:"status"`
	Reason      string            `json:"reason,omitempty"`
}

func (r Resolution) Degraded() bool {
	return r.Status == StatusFallback
}

// Resolver turns an address into coordinates and never fails: when the
// geocoder is unavailable or has nothing, the origin is used and the
// resolution is marked as a fallback.
type Resolver struct {
	geocoder Geocoder
	logg     *logger.Logger
}

func NewResolver(geocoder Geocoder, logg *logger.Logger) *Resolver {
	return &Resolver{geocoder: geocoder, logg: logg}
}

func (r *Resolver) Resolve(ctx context.Context, addr geocode.Address) Resolution {
	if r == nil || r.geocoder == nil {
		return r.fallback(ctx, addr, ReasonUnavailable, errors.New("no geocoder configured"))
	}

	coords, err := r.geocoder.Geocode(ctx, addr)
	switch {
	case errors.Is(err, geocode.ErrNoResults):
		return r.fallback(ctx, addr, ReasonNoResults, err)
	case err != nil:
		return r.fallback(ctx, addr, ReasonUnavailable, err)
	}
	return Resolution{Coordinates: coords, Status: StatusResolved}
}

func (r *Resolver) fallback(ctx context.Context, addr geocode.Address, reason string, cause error) Resolution {
	if r != nil && r.logg != nil {
		logCtx := r.logg.WithFields(ctx, map[string]any{
			"street":      addr.Street,
			"city":        addr.City,
			"country":     addr.Country,
			"postal_code": addr.PostalCode,
			"reason":      reason,
			"cause":       cause.Error(),
		})
		r.logg.Warn(logCtx, "geocode.fallback_to_origin")
	}
	return Resolution{Status: StatusFallback, Reason: reason}
}
