package properties

import (
	"context"
	"errors"
	"net/url"
	"strconv"
	"testing"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/rentals-backend/internal/geo"
	"github.com/angelmondragon/rentals-backend/internal/photos"
	"github.com/angelmondragon/rentals-backend/pkg/db"
	"github.com/angelmondragon/rentals-backend/pkg/db/dbtest"
	"github.com/angelmondragon/rentals-backend/pkg/db/models"
	"github.com/angelmondragon/rentals-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/rentals-backend/pkg/errors"
	"github.com/angelmondragon/rentals-backend/pkg/geocode"
	"github.com/angelmondragon/rentals-backend/pkg/outbox"
	"github.com/angelmondragon/rentals-backend/pkg/redis"
	"github.com/angelmondragon/rentals-backend/pkg/search"
	"github.com/angelmondragon/rentals-backend/pkg/types"
)

var losAngeles = types.Coordinates{Longitude: -118.25, Latitude: 34.05}

type stubResolver struct {
	resolution geo.Resolution
	calls      int
}

func (r *stubResolver) Resolve(context.Context, geocode.Address) geo.Resolution {
	r.calls++
	return r.resolution
}

type stubUploader struct {
	urls []string
	err  error
}

func (u *stubUploader) Upload(context.Context, []photos.File) ([]string, error) {
	return u.urls, u.err
}

type fixture struct {
	conn     *gorm.DB
	svc      Service
	resolver *stubResolver
	uploader *stubUploader
	cache    *redis.TagCache
}

func newFixture(t *testing.T, withCache bool) *fixture {
	t.Helper()
	conn := dbtest.SQLite(t)
	dbtest.SeedManager(t, conn, "mgr-1")

	f := &fixture{
		conn:     conn,
		resolver: &stubResolver{resolution: geo.Resolution{Coordinates: losAngeles, Status: geo.StatusResolved}},
		uploader: &stubUploader{urls: []string{"https://cdn.example.com/properties/1-a.png"}},
	}
	if withCache {
		mr := miniredis.RunT(t)
		raw := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
		t.Cleanup(func() { _ = raw.Close() })
		f.cache = redis.NewTagCache(redis.NewFromClient(raw), CacheScope)
	}

	svc, err := NewService(ServiceParams{
		Repo:     NewRepository(conn),
		Tx:       db.Wrap(conn),
		Spatial:  geo.NewPostGIS(conn),
		Resolver: f.resolver,
		Uploader: f.uploader,
		Outbox:   outbox.NewWriter(outbox.NewRepository(conn), nil),
		Cache:    f.cache,
	})
	require.NoError(t, err)
	f.svc = svc
	return f
}

func validInput() CreateInput {
	return CreateInput{
		Name:          "Loft downtown",
		Description:   "Open plan",
		PricePerMonth: decimal.NewFromInt(2100),
		Amenities:     []string{"WiFi", "Pool"},
		Beds:          2,
		Baths:         1.5,
		SquareFeet:    850,
		PropertyType:  enums.PropertyTypeApartment,
		Address:       "200 Spring St",
		City:          "Los Angeles",
		State:         "CA",
		Country:       "United States",
		PostalCode:    "90012",
	}
}

func TestCreateStoresLocationAndEmitsEvent(t *testing.T) {
	f := newFixture(t, false)

	created, meta, err := f.svc.Create(context.Background(), "mgr-1", validInput(), nil)
	require.NoError(t, err)

	assert.Equal(t, "Loft downtown", created.Name)
	assert.Equal(t, losAngeles, created.Location.Coordinates)
	assert.Equal(t, "200 Spring St", created.Location.Address)
	assert.Equal(t, []string{"https://cdn.example.com/properties/1-a.png"}, created.PhotoURLs)
	assert.Equal(t, []string{"WiFi", "Pool"}, created.Amenities)
	assert.Equal(t, "mgr-1", created.ManagerCognitoID)
	assert.Equal(t, geo.StatusResolved, meta.Geocoding.Status)

	var events []models.OutboxEvent
	require.NoError(t, f.conn.Find(&events).Error)
	require.Len(t, events, 1)
	assert.Equal(t, enums.EventPropertyCreated, events[0].EventType)
}

func TestCreateFallsBackToOriginWhenGeocodingFails(t *testing.T) {
	f := newFixture(t, false)
	f.resolver.resolution = geo.Resolution{Status: geo.StatusFallback, Reason: geo.ReasonUnavailable}

	created, meta, err := f.svc.Create(context.Background(), "mgr-1", validInput(), nil)
	require.NoError(t, err)

	assert.True(t, created.Location.Coordinates.IsOrigin())
	assert.True(t, meta.Geocoding.Degraded())
	assert.Equal(t, geo.ReasonUnavailable, meta.Geocoding.Reason)
}

func TestCreateRejectsInvalidInputBeforeSideEffects(t *testing.T) {
	f := newFixture(t, false)
	in := validInput()
	in.Name = " "
	in.Amenities = []string{"Moat"}

	_, _, err := f.svc.Create(context.Background(), "mgr-1", in, nil)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	assert.Zero(t, f.resolver.calls)
}

func TestCreateSurfacesUploadFailure(t *testing.T) {
	f := newFixture(t, false)
	f.uploader.err = pkgerrors.Wrap(pkgerrors.CodeDependency, errors.New("bucket down"), "photo upload failed")

	_, _, err := f.svc.Create(context.Background(), "mgr-1", validInput(), nil)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeDependency))

	var count int64
	require.NoError(t, f.conn.Model(&models.Property{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestGetMissingPropertyIsNotFound(t *testing.T) {
	f := newFixture(t, false)

	_, err := f.svc.Get(context.Background(), 404)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestSearchFiltersByPriceAndBeds(t *testing.T) {
	f := newFixture(t, false)
	cheap := dbtest.SeedProperty(t, f.conn, "mgr-1", dbtest.PropertySeed{Name: "cheap", Price: 1200, Beds: 1, At: losAngeles})
	mid := dbtest.SeedProperty(t, f.conn, "mgr-1", dbtest.PropertySeed{Name: "mid", Price: 1800, Beds: 2, At: losAngeles})
	dbtest.SeedProperty(t, f.conn, "mgr-1", dbtest.PropertySeed{Name: "pricey", Price: 2500, Beds: 3, At: losAngeles})

	results, err := f.svc.Search(context.Background(), search.ParseParams(url.Values{
		"priceMin": {"1000"}, "priceMax": {"2000"},
	}))
	require.NoError(t, err)
	assert.ElementsMatch(t, []int64{cheap.ID, mid.ID}, ids(results))

	results, err = f.svc.Search(context.Background(), search.ParseParams(url.Values{"beds": {"2"}}))
	require.NoError(t, err)
	assert.Len(t, results, 2)
	assert.NotContains(t, ids(results), cheap.ID)

	all, err := f.svc.Search(context.Background(), search.ParseParams(url.Values{"beds": {"any"}}))
	require.NoError(t, err)
	assert.Len(t, all, 3)
	assert.Equal(t, losAngeles, all[0].Location.Coordinates)
}

func TestSearchFavoriteIDs(t *testing.T) {
	f := newFixture(t, false)
	a := dbtest.SeedProperty(t, f.conn, "mgr-1", dbtest.PropertySeed{At: losAngeles})
	dbtest.SeedProperty(t, f.conn, "mgr-1", dbtest.PropertySeed{At: losAngeles})

	results, err := f.svc.Search(context.Background(), search.ParseParams(url.Values{"favoriteIds": {"999," + strconv.FormatInt(a.ID, 10)}}))
	require.NoError(t, err)
	assert.Equal(t, []int64{a.ID}, ids(results))

	results, err = f.svc.Search(context.Background(), search.ParseParams(url.Values{"favoriteIds": {""}}))
	require.NoError(t, err)
	assert.NotNil(t, results)
	assert.Empty(t, results)
}

func TestSearchIsCachedUntilCreateInvalidates(t *testing.T) {
	f := newFixture(t, true)
	dbtest.SeedProperty(t, f.conn, "mgr-1", dbtest.PropertySeed{At: losAngeles})
	params := search.ParseParams(url.Values{})

	first, err := f.svc.Search(context.Background(), params)
	require.NoError(t, err)
	require.Len(t, first, 1)

	// rows written behind the service's back stay invisible while cached
	dbtest.SeedProperty(t, f.conn, "mgr-1", dbtest.PropertySeed{At: losAngeles})
	cached, err := f.svc.Search(context.Background(), params)
	require.NoError(t, err)
	assert.Len(t, cached, 1)

	_, _, err = f.svc.Create(context.Background(), "mgr-1", validInput(), nil)
	require.NoError(t, err)

	fresh, err := f.svc.Search(context.Background(), params)
	require.NoError(t, err)
	assert.Len(t, fresh, 3)
}

func TestListByManager(t *testing.T) {
	f := newFixture(t, false)
	dbtest.SeedManager(t, f.conn, "mgr-2")
	mine := dbtest.SeedProperty(t, f.conn, "mgr-1", dbtest.PropertySeed{At: losAngeles})
	dbtest.SeedProperty(t, f.conn, "mgr-2", dbtest.PropertySeed{At: losAngeles})

	list, err := f.svc.ListByManager(context.Background(), "mgr-1")
	require.NoError(t, err)
	assert.Equal(t, []int64{mine.ID}, ids(list))
}

func TestNewServiceRequiresDependencies(t *testing.T) {
	_, err := NewService(ServiceParams{})
	assert.Error(t, err)
}

func ids(list []PropertyDTO) []int64 {
	out := make([]int64, 0, len(list))
	for _, p := range list {
		out = append(out, p.ID)
	}
	return out
}
