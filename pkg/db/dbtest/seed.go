package dbtest

import (
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/rentals-backend/pkg/db/models"
	"github.com/angelmondragon/rentals-backend/pkg/enums"
	"github.com/angelmondragon/rentals-backend/pkg/types"
)

func SeedManager(t *testing.T, conn *gorm.DB, cognitoID string) models.Manager {
	t.Helper()
	m := models.Manager{CognitoID: cognitoID, Name: "Manager " + cognitoID, Email: cognitoID + "@example.com", PhoneNumber: "555-0100"}
	if err := conn.Create(&m).Error; err != nil {
		t.Fatalf("seed manager: %v", err)
	}
	return m
}

func SeedTenant(t *testing.T, conn *gorm.DB, cognitoID string) models.Tenant {
	t.Helper()
	tn := models.Tenant{CognitoID: cognitoID, Name: "Tenant " + cognitoID, Email: cognitoID + "@example.com", PhoneNumber: "555-0200"}
	if err := conn.Create(&tn).Error; err != nil {
		t.Fatalf("seed tenant: %v", err)
	}
	return tn
}

// PropertySeed overrides the defaults of SeedProperty.
type PropertySeed struct {
	Name      string
	Price     float64
	Beds      int
	Baths     float64
	Amenities []string
	At        types.Coordinates
}

// SeedProperty inserts a location and a property owned by managerCognitoID.
// The location point is stored as WKT, which is what the sqlite spatial
// functions expect.
func SeedProperty(t *testing.T, conn *gorm.DB, managerCognitoID string, seed PropertySeed) models.Property {
	t.Helper()

	if seed.Name == "" {
		seed.Name = "Sunny flat"
	}
	if seed.Price == 0 {
		seed.Price = 1500
	}
	if seed.Beds == 0 {
		seed.Beds = 2
	}
	if seed.Baths == 0 {
		seed.Baths = 1
	}

	var locationID int64
	err := conn.Raw(
		`INSERT INTO locations (address, city, state, country, postal_code, coordinates)
		 VALUES (?, ?, ?, ?, ?, ?) RETURNING id`,
		"1 Main St", "Los Angeles", "CA", "United States", "90012", seed.At.WKT(),
	).Scan(&locationID).Error
	if err != nil {
		t.Fatalf("seed location: %v", err)
	}

	amenities := seed.Amenities
	if amenities == nil {
		amenities = []string{}
	}
	p := models.Property{
		Name:             seed.Name,
		Description:      "A place to live",
		PricePerMonth:    decimal.NewFromFloat(seed.Price),
		SecurityDeposit:  decimal.NewFromFloat(seed.Price),
		ApplicationFee:   decimal.NewFromInt(50),
		PhotoURLs:        pq.StringArray{},
		Amenities:        pq.StringArray(amenities),
		Highlights:       pq.StringArray{},
		Beds:             seed.Beds,
		Baths:            seed.Baths,
		SquareFeet:       900,
		PropertyType:     enums.PropertyTypeApartment,
		PostedDate:       time.Now().UTC(),
		LocationID:       locationID,
		ManagerCognitoID: managerCognitoID,
	}
	if err := conn.Create(&p).Error; err != nil {
		t.Fatalf("seed property: %v", err)
	}
	return p
}

func SeedLease(t *testing.T, conn *gorm.DB, propertyID int64, tenantCognitoID string, start time.Time) models.Lease {
	t.Helper()
	l := models.Lease{
		StartDate:       start,
		EndDate:         start.AddDate(1, 0, 0),
		Rent:            decimal.NewFromInt(1500),
		Deposit:         decimal.NewFromInt(1500),
		PropertyID:      propertyID,
		TenantCognitoID: tenantCognitoID,
	}
	if err := conn.Create(&l).Error; err != nil {
		t.Fatalf("seed lease: %v", err)
	}
	return l
}

func SeedPayment(t *testing.T, conn *gorm.DB, leaseID int64, due time.Time, status enums.PaymentStatus) models.Payment {
	t.Helper()
	p := models.Payment{
		AmountDue:     decimal.NewFromInt(1500),
		AmountPaid:    decimal.Zero,
		DueDate:       due,
		PaymentStatus: status,
		LeaseID:       leaseID,
	}
	if err := conn.Create(&p).Error; err != nil {
		t.Fatalf("seed payment: %v", err)
	}
	return p
}
