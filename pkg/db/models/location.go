package models

import "github.com/angelmondragon/rentals-backend/pkg/types"

// Location is the postal address of a property. The coordinates column is a
// geography(Point,4326); it is written and read only through the spatial
// adapter, so gorm never maps it directly.
type Location struct {
	ID          int64             `gorm:"column:id;primaryKey;autoIncrement"`
	Address     string            `gorm:"column:address;not null"`
	City        string            `gorm:"column:city;not null"`
	State       string            `gorm:"column:state;not null"`
	Country     string            `gorm:"column:country;not null"`
	PostalCode  string            `gorm:"column:postal_code;not null"`
	Coordinates types.Coordinates `gorm:"-"`
}
