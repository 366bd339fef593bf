package properties

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/rentals-backend/internal/geo"
	"github.com/angelmondragon/rentals-backend/pkg/db/models"
	"github.com/angelmondragon/rentals-backend/pkg/enums"
	"github.com/angelmondragon/rentals-backend/pkg/types"
)

// LocationDTO is a listing's address with its point already decoded.
type LocationDTO struct {
	ID          int64             `json:"id"`
	Address     string            `json:"address"`
	City        string            `json:"city"`
	State       string            `json:"state"`
	Country     string            `json:"country"`
	PostalCode  string            `json:"postalCode"`
	Coordinates types.Coordinates `json:"coordinates"`
}

type PropertyDTO struct {
	ID                int64              `json:"id"`
	Name              string             `json:"name"`
	Description       string             `json:"description"`
	PricePerMonth     decimal.Decimal    `json:"pricePerMonth"`
	SecurityDeposit   decimal.Decimal    `json:"securityDeposit"`
	ApplicationFee    decimal.Decimal    `json:"applicationFee"`
	PhotoURLs         []string           `json:"photoUrls"`
	Amenities         []string           `json:"amenities"`
	Highlights        []string           `json:"highlights"`
	IsPetsAllowed     bool               `json:"isPetsAllowed"`
	IsParkingIncluded bool               `json:"isParkingIncluded"`
	Beds              int                `json:"beds"`
	Baths             float64            `json:"baths"`
	SquareFeet        int                `json:"squareFeet"`
	PropertyType      enums.PropertyType `json:"propertyType"`
	PostedDate        time.Time          `json:"postedDate"`
	AverageRating     float64            `json:"averageRating"`
	NumberOfReviews   int                `json:"numberOfReviews"`
	LocationID        int64              `json:"locationId"`
	ManagerCognitoID  string             `json:"managerCognitoId"`
	Location          LocationDTO        `json:"location"`
	// DistanceKm is set on coordinate searches.
	DistanceKm *float64 `json:"distanceKm,omitempty"`
}

// CreateMeta accompanies a created listing.
type CreateMeta struct {
	Geocoding geo.Resolution `json:"geocoding"`
}

type propertyRow struct {
	models.Property
	LocationAddress    string `gorm:"column:location_address"`
	LocationCity       string `gorm:"column:location_city"`
	LocationState      string `gorm:"column:location_state"`
	LocationCountry    string `gorm:"column:location_country"`
	LocationPostalCode string `gorm:"column:location_postal_code"`
	LocationWKT        string `gorm:"column:location_wkt"`
}

func (r propertyRow) toDTO() (PropertyDTO, error) {
	coords, err := geo.TextToPoint(r.LocationWKT)
	if err != nil {
		return PropertyDTO{}, err
	}
	return PropertyDTO{
		ID:                r.ID,
		Name:              r.Name,
		Description:       r.Description,
		PricePerMonth:     r.PricePerMonth,
		SecurityDeposit:   r.SecurityDeposit,
		ApplicationFee:    r.ApplicationFee,
		PhotoURLs:         orEmpty(r.PhotoURLs),
		Amenities:         orEmpty(r.Amenities),
		Highlights:        orEmpty(r.Highlights),
		IsPetsAllowed:     r.IsPetsAllowed,
		IsParkingIncluded: r.IsParkingIncluded,
		Beds:              r.Beds,
		Baths:             r.Baths,
		SquareFeet:        r.SquareFeet,
		PropertyType:      r.PropertyType,
		PostedDate:        r.PostedDate,
		AverageRating:     r.AverageRating,
		NumberOfReviews:   r.NumberOfReviews,
		LocationID:        r.LocationID,
		ManagerCognitoID:  r.ManagerCognitoID,
		Location: LocationDTO{
			ID:          r.LocationID,
			Address:     r.LocationAddress,
			City:        r.LocationCity,
			State:       r.LocationState,
			Country:     r.LocationCountry,
			PostalCode:  r.LocationPostalCode,
			Coordinates: coords,
		},
	}, nil
}
