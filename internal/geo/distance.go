package geo

import (
	"github.com/paulmach/orb"
	orbgeo "github.com/paulmach/orb/geo"

	"github.com/angelmondragon/rentals-backend/pkg/types"
)

const (
	// SearchRadiusKm is the fixed radius of a coordinate search.
	SearchRadiusKm = 1000.0
	// KmPerDegree approximates one degree of arc.
	KmPerDegree = 111.0
	// MeanEarthRadiusKm is the IUGG mean radius. orb measures on the
	// equatorial radius, so its results are rescaled.
	MeanEarthRadiusKm = 6371.0088
)

// DistanceKm is the haversine distance between a and b on the mean Earth
// radius.
func DistanceKm(a, b types.Coordinates) float64 {
	return orbgeo.DistanceHaversine(a.Point(), b.Point()) / orb.EarthRadius * MeanEarthRadiusKm
}
