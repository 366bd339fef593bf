package properties

import (
	"context"
	"net/url"
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/rentals-backend/internal/geo"
	"github.com/angelmondragon/rentals-backend/pkg/db"
	"github.com/angelmondragon/rentals-backend/pkg/db/dbtest"
	"github.com/angelmondragon/rentals-backend/pkg/db/models"
	"github.com/angelmondragon/rentals-backend/pkg/enums"
	"github.com/angelmondragon/rentals-backend/pkg/outbox"
	"github.com/angelmondragon/rentals-backend/pkg/search"
	"github.com/angelmondragon/rentals-backend/pkg/types"
)

const searchManager = "mgr-postgis-search"

// postgisSearch opens a transaction that is rolled back after the test, so
// rows already in the database only ever add to the result set.
func postgisSearch(t *testing.T) (*gorm.DB, Service) {
	t.Helper()
	conn := dbtest.Postgres(t)
	tx := conn.Begin()
	require.NoError(t, tx.Error)
	t.Cleanup(func() { tx.Rollback() })

	dbtest.SeedManager(t, tx, searchManager)
	svc, err := NewService(ServiceParams{
		Repo:     NewRepository(tx),
		Tx:       db.Wrap(tx),
		Spatial:  geo.NewPostGIS(tx),
		Resolver: &stubResolver{},
		Uploader: &stubUploader{},
		Outbox:   outbox.NewWriter(outbox.NewRepository(tx), nil),
	})
	require.NoError(t, err)
	return tx, svc
}

func seedListing(t *testing.T, tx *gorm.DB, at types.Coordinates, amenities ...string) models.Property {
	t.Helper()
	ctx := context.Background()

	loc := &models.Location{
		Address:     "10 Test Ave",
		City:        "Testville",
		State:       "NY",
		Country:     "United States",
		PostalCode:  "10001",
		Coordinates: at,
	}
	require.NoError(t, geo.NewPostGIS(tx).InsertLocation(ctx, tx, loc))

	if amenities == nil {
		amenities = []string{}
	}
	p := models.Property{
		Name:             "Listing near " + at.WKT(),
		Description:      "Seeded for search",
		PricePerMonth:    decimal.NewFromInt(1800),
		SecurityDeposit:  decimal.NewFromInt(1800),
		ApplicationFee:   decimal.NewFromInt(40),
		PhotoURLs:        pq.StringArray{},
		Amenities:        pq.StringArray(amenities),
		Highlights:       pq.StringArray{},
		Beds:             1,
		Baths:            1,
		SquareFeet:       600,
		PropertyType:     enums.PropertyTypeApartment,
		LocationID:       loc.ID,
		ManagerCognitoID: searchManager,
	}
	require.NoError(t, tx.Create(&p).Error)
	return p
}

func searchIDs(t *testing.T, svc Service, query url.Values) map[int64]PropertyDTO {
	t.Helper()
	results, err := svc.Search(context.Background(), search.ParseParams(query))
	require.NoError(t, err)
	byID := make(map[int64]PropertyDTO, len(results))
	for _, r := range results {
		byID[r.ID] = r
	}
	return byID
}

func TestPostgresSearchByRadius(t *testing.T) {
	tx, svc := postgisSearch(t)
	near := seedListing(t, tx, types.Coordinates{Longitude: -73.99, Latitude: 40.73})
	far := seedListing(t, tx, types.Coordinates{Longitude: -118.25, Latitude: 34.05})

	got := searchIDs(t, svc, url.Values{"latitude": {"40.7"}, "longitude": {"-74.0"}})

	require.Contains(t, got, near.ID)
	assert.NotContains(t, got, far.ID)
	hit := got[near.ID]
	assert.InDelta(t, -73.99, hit.Location.Coordinates.Longitude, 1e-9)
	assert.InDelta(t, 40.73, hit.Location.Coordinates.Latitude, 1e-9)
	require.NotNil(t, hit.DistanceKm)
	assert.InDelta(t, 3.44, *hit.DistanceKm, 0.05)
}

func TestPostgresSearchRequiresEveryAmenity(t *testing.T) {
	tx, svc := postgisSearch(t)
	both := seedListing(t, tx, losAngeles, "WiFi", "Pool", "Gym")
	wifiOnly := seedListing(t, tx, losAngeles, "WiFi")

	got := searchIDs(t, svc, url.Values{"amenities": {"WiFi,Pool"}})

	assert.Contains(t, got, both.ID)
	assert.NotContains(t, got, wifiOnly.ID)
}

func TestPostgresSearchByAvailableFrom(t *testing.T) {
	tx, svc := postgisSearch(t)
	dbtest.SeedTenant(t, tx, "ten-postgis-search")
	early := seedListing(t, tx, losAngeles)
	late := seedListing(t, tx, losAngeles)
	unleased := seedListing(t, tx, losAngeles)
	dbtest.SeedLease(t, tx, early.ID, "ten-postgis-search", time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	dbtest.SeedLease(t, tx, late.ID, "ten-postgis-search", time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC))

	got := searchIDs(t, svc, url.Values{"availableFrom": {"2025-03-01"}})

	assert.Contains(t, got, early.ID)
	assert.NotContains(t, got, late.ID)
	assert.NotContains(t, got, unleased.ID)
}
