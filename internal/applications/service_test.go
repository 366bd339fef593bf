package applications

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/rentals-backend/internal/leases"
	"github.com/angelmondragon/rentals-backend/internal/properties"
	"github.com/angelmondragon/rentals-backend/internal/tenants"
	"github.com/angelmondragon/rentals-backend/pkg/auth"
	"github.com/angelmondragon/rentals-backend/pkg/db"
	"github.com/angelmondragon/rentals-backend/pkg/db/dbtest"
	"github.com/angelmondragon/rentals-backend/pkg/db/models"
	"github.com/angelmondragon/rentals-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/rentals-backend/pkg/errors"
	"github.com/angelmondragon/rentals-backend/pkg/outbox"
	"github.com/angelmondragon/rentals-backend/pkg/redis"
	"github.com/angelmondragon/rentals-backend/pkg/types"
)

var (
	now          = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	manager      = auth.Identity{Subject: "mgr-1", Role: enums.RoleManager}
	otherManager = auth.Identity{Subject: "mgr-2", Role: enums.RoleManager}
	tenant       = auth.Identity{Subject: "ten-1", Role: enums.RoleTenant}
	otherTenant  = auth.Identity{Subject: "ten-2", Role: enums.RoleTenant}
)

type fixture struct {
	svc      Service
	conn     *gorm.DB
	cache    *redis.TagCache
	property models.Property
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	conn := dbtest.SQLite(t)
	mr := miniredis.RunT(t)
	raw := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = raw.Close() })
	cache := redis.NewTagCache(redis.NewFromClient(raw), properties.CacheScope)

	svc, err := NewService(ServiceParams{
		Repo:       NewRepository(conn),
		Leases:     leases.NewRepository(conn),
		Tenants:    tenants.NewRepository(conn),
		Properties: properties.NewRepository(conn),
		Tx:         db.Wrap(conn),
		Outbox:     outbox.NewWriter(outbox.NewRepository(conn), nil),
		Cache:      cache,
		Now:        func() time.Time { return now },
	})
	require.NoError(t, err)

	dbtest.SeedManager(t, conn, "mgr-1")
	dbtest.SeedManager(t, conn, "mgr-2")
	dbtest.SeedTenant(t, conn, "ten-1")
	dbtest.SeedTenant(t, conn, "ten-2")
	property := dbtest.SeedProperty(t, conn, "mgr-1", dbtest.PropertySeed{
		Price: 1800,
		At:    types.Coordinates{Longitude: -118.25, Latitude: 34.05},
	})
	return fixture{svc: svc, conn: conn, cache: cache, property: property}
}

func (f fixture) apply(t *testing.T, who auth.Identity) *ApplicationDTO {
	t.Helper()
	app, err := f.svc.Create(context.Background(), who, CreateInput{
		PropertyID:  f.property.ID,
		Name:        "Riley",
		Email:       "riley@example.com",
		PhoneNumber: "555-0300",
		Message:     "  I have a cat  ",
	})
	require.NoError(t, err)
	return app
}

func eventTypes(t *testing.T, conn *gorm.DB) []enums.OutboxEventType {
	t.Helper()
	var rows []models.OutboxEvent
	require.NoError(t, conn.Order("created_at ASC").Find(&rows).Error)
	out := make([]enums.OutboxEventType, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.EventType)
	}
	return out
}

func TestCreateApplication(t *testing.T) {
	f := newFixture(t)

	app := f.apply(t, tenant)
	assert.Equal(t, enums.ApplicationStatusPending, app.Status)
	assert.Equal(t, now, app.ApplicationDate.UTC())
	require.NotNil(t, app.Message)
	assert.Equal(t, "I have a cat", *app.Message)
	require.NotNil(t, app.Property)
	assert.Equal(t, -118.25, app.Property.Location.Coordinates.Longitude)
	require.NotNil(t, app.Tenant)
	assert.Equal(t, "ten-1", app.Tenant.CognitoID)
	assert.Nil(t, app.Lease)
	assert.Equal(t, []enums.OutboxEventType{enums.EventApplicationSubmitted}, eventTypes(t, f.conn))
}

func TestCreateApplicationRejections(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, manager, CreateInput{PropertyID: f.property.ID, Name: "x", Email: "x@example.com", PhoneNumber: "1"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))

	_, err = f.svc.Create(ctx, tenant, CreateInput{PropertyID: f.property.ID, Email: "not-an-email"})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	details, ok := pkgerrors.As(err).Details().(map[string]string)
	require.True(t, ok)
	assert.Equal(t, "is required", details["name"])
	assert.Equal(t, "must be a valid email", details["email"])
	assert.Equal(t, "is required", details["phoneNumber"])

	_, err = f.svc.Create(ctx, tenant, CreateInput{PropertyID: f.property.ID + 50, Name: "x", Email: "x@example.com", PhoneNumber: "1"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	assert.Empty(t, eventTypes(t, f.conn))
}

func TestApproveCreatesLeaseAndResidence(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	app := f.apply(t, tenant)
	require.NoError(t, f.cache.Set(ctx, "search-key", []byte("cached"), time.Minute, properties.CacheTag))

	decided, err := f.svc.UpdateStatus(ctx, manager, app.ID, enums.ApplicationStatusApproved)
	require.NoError(t, err)
	assert.Equal(t, enums.ApplicationStatusApproved, decided.Status)
	require.NotNil(t, decided.LeaseID)
	require.NotNil(t, decided.Lease)
	assert.True(t, decided.Lease.Rent.Equal(decimal.NewFromInt(1800)))
	assert.True(t, decided.Lease.Deposit.Equal(decimal.NewFromInt(1800)))
	assert.Equal(t, now, decided.Lease.StartDate.UTC())
	assert.Equal(t, now.AddDate(1, 0, 0), decided.Lease.EndDate.UTC())
	assert.Equal(t, now.AddDate(0, 1, 0), decided.Lease.NextPaymentDate.UTC())

	var residences []models.TenantResidence
	require.NoError(t, f.conn.Find(&residences).Error)
	require.Len(t, residences, 1)
	assert.Equal(t, f.property.ID, residences[0].PropertyID)

	assert.ElementsMatch(t, []enums.OutboxEventType{
		enums.EventApplicationSubmitted,
		enums.EventApplicationStatusChanged,
		enums.EventLeaseCreated,
	}, eventTypes(t, f.conn))

	_, err = f.cache.Get(ctx, "search-key")
	assert.ErrorIs(t, err, redis.ErrCacheMiss)
}

func TestDecidedApplicationCannotMoveAgain(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	app := f.apply(t, tenant)

	_, err := f.svc.UpdateStatus(ctx, manager, app.ID, enums.ApplicationStatusApproved)
	require.NoError(t, err)

	for _, next := range []enums.ApplicationStatus{
		enums.ApplicationStatusApproved,
		enums.ApplicationStatusDenied,
		enums.ApplicationStatusPending,
	} {
		_, err = f.svc.UpdateStatus(ctx, manager, app.ID, next)
		require.Error(t, err, next)
		assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict), next)
	}

	var count int64
	require.NoError(t, f.conn.Model(&models.Lease{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestDenyLeavesNoLease(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	app := f.apply(t, tenant)

	decided, err := f.svc.UpdateStatus(ctx, manager, app.ID, enums.ApplicationStatusDenied)
	require.NoError(t, err)
	assert.Equal(t, enums.ApplicationStatusDenied, decided.Status)
	assert.Nil(t, decided.LeaseID)
	assert.Nil(t, decided.Lease)

	var count int64
	require.NoError(t, f.conn.Model(&models.Lease{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestUpdateStatusRequiresOwningManager(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	app := f.apply(t, tenant)

	_, err := f.svc.UpdateStatus(ctx, otherManager, app.ID, enums.ApplicationStatusApproved)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))

	_, err = f.svc.UpdateStatus(ctx, tenant, app.ID, enums.ApplicationStatusApproved)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))

	_, err = f.svc.UpdateStatus(ctx, manager, app.ID+100, enums.ApplicationStatusApproved)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	_, err = f.svc.UpdateStatus(ctx, manager, app.ID, enums.ApplicationStatus("Withdrawn"))
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestListByRole(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	mine := f.apply(t, tenant)
	f.apply(t, otherTenant)

	own, err := f.svc.List(ctx, tenant, ListQuery{})
	require.NoError(t, err)
	require.Len(t, own, 1)
	assert.Equal(t, mine.ID, own[0].ID)

	managed, err := f.svc.List(ctx, manager, ListQuery{UserType: "manager", UserID: "mgr-1"})
	require.NoError(t, err)
	assert.Len(t, managed, 2)

	none, err := f.svc.List(ctx, otherManager, ListQuery{})
	require.NoError(t, err)
	assert.Empty(t, none)

	_, err = f.svc.List(ctx, tenant, ListQuery{UserType: "tenant", UserID: "ten-2"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))

	_, err = f.svc.List(ctx, tenant, ListQuery{UserType: "landlord"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}
