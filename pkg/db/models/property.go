package models

import (
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/rentals-backend/pkg/enums"
)

// Property is a rentable listing owned by a manager.
type Property struct {
	ID                int64              `gorm:"column:id;primaryKey;autoIncrement"`
	Name              string             `gorm:"column:name;not null"`
	Description       string             `gorm:"column:description;not null"`
	PricePerMonth     decimal.Decimal    `gorm:"column:price_per_month;type:numeric(12,2);not null"`
	SecurityDeposit   decimal.Decimal    `gorm:"column:security_deposit;type:numeric(12,2);not null"`
	ApplicationFee    decimal.Decimal    `gorm:"column:application_fee;type:numeric(12,2);not null"`
	PhotoURLs         pq.StringArray     `gorm:"column:photo_urls;type:text[]"`
	Amenities         pq.StringArray     `gorm:"column:amenities;type:text[]"`
	Highlights        pq.StringArray     `gorm:"column:highlights;type:text[]"`
	IsPetsAllowed     bool               `gorm:"column:is_pets_allowed;not null;default:false"`
	IsParkingIncluded bool               `gorm:"column:is_parking_included;not null;default:false"`
	Beds              int                `gorm:"column:beds;not null"`
	Baths             float64            `gorm:"column:baths;not null"`
	SquareFeet        int                `gorm:"column:square_feet;not null"`
	PropertyType      enums.PropertyType `gorm:"column:property_type;type:property_type;not null"`
	PostedDate        time.Time          `gorm:"column:posted_date;autoCreateTime"`
	AverageRating     float64            `gorm:"column:average_rating;default:0"`
	NumberOfReviews   int                `gorm:"column:number_of_reviews;default:0"`
	LocationID        int64              `gorm:"column:location_id;not null;uniqueIndex"`
	ManagerCognitoID  string             `gorm:"column:manager_cognito_id;not null;index"`
}
