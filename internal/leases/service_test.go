package leases

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/rentals-backend/internal/properties"
	"github.com/angelmondragon/rentals-backend/pkg/auth"
	"github.com/angelmondragon/rentals-backend/pkg/db/dbtest"
	"github.com/angelmondragon/rentals-backend/pkg/db/models"
	"github.com/angelmondragon/rentals-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/rentals-backend/pkg/errors"
	"github.com/angelmondragon/rentals-backend/pkg/types"
)

var (
	manager      = auth.Identity{Subject: "mgr-1", Role: enums.RoleManager}
	otherManager = auth.Identity{Subject: "mgr-2", Role: enums.RoleManager}
	tenant       = auth.Identity{Subject: "ten-1", Role: enums.RoleTenant}
	otherTenant  = auth.Identity{Subject: "ten-2", Role: enums.RoleTenant}
)

type fixture struct {
	svc    Service
	conn   *gorm.DB
	mine   models.Property
	theirs models.Property
	lease  models.Lease
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	conn := dbtest.SQLite(t)
	svc, err := NewService(NewRepository(conn), properties.NewRepository(conn))
	require.NoError(t, err)

	dbtest.SeedManager(t, conn, "mgr-1")
	dbtest.SeedManager(t, conn, "mgr-2")
	dbtest.SeedTenant(t, conn, "ten-1")
	dbtest.SeedTenant(t, conn, "ten-2")
	mine := dbtest.SeedProperty(t, conn, "mgr-1", dbtest.PropertySeed{At: types.Coordinates{Longitude: -118.24, Latitude: 34.05}})
	theirs := dbtest.SeedProperty(t, conn, "mgr-2", dbtest.PropertySeed{})

	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	lease := dbtest.SeedLease(t, conn, mine.ID, "ten-1", start)
	dbtest.SeedLease(t, conn, mine.ID, "ten-2", start)
	dbtest.SeedLease(t, conn, theirs.ID, "ten-2", start)

	return fixture{svc: svc, conn: conn, mine: mine, theirs: theirs, lease: lease}
}

func TestListScopesByRole(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	managed, err := f.svc.List(ctx, manager)
	require.NoError(t, err)
	require.Len(t, managed, 2)
	for _, l := range managed {
		assert.Equal(t, f.mine.ID, l.PropertyID)
		require.NotNil(t, l.Property)
		assert.Equal(t, -118.24, l.Property.Location.Coordinates.Longitude)
		require.NotNil(t, l.Tenant)
	}

	own, err := f.svc.List(ctx, tenant)
	require.NoError(t, err)
	require.Len(t, own, 1)
	assert.Equal(t, f.lease.ID, own[0].ID)
	assert.Equal(t, "ten-1", own[0].Tenant.CognitoID)
}

func TestListByProperty(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	all, err := f.svc.ListByProperty(ctx, manager, f.mine.ID)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	own, err := f.svc.ListByProperty(ctx, tenant, f.mine.ID)
	require.NoError(t, err)
	require.Len(t, own, 1)
	assert.Equal(t, "ten-1", own[0].TenantCognitoID)

	_, err = f.svc.ListByProperty(ctx, otherManager, f.mine.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))

	_, err = f.svc.ListByProperty(ctx, manager, f.theirs.ID+100)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestPaymentsRequiresParty(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	due := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	later := dbtest.SeedPayment(t, f.conn, f.lease.ID, due.AddDate(0, 1, 0), enums.PaymentStatusPending)
	first := dbtest.SeedPayment(t, f.conn, f.lease.ID, due, enums.PaymentStatusPaid)

	got, err := f.svc.Payments(ctx, tenant, f.lease.ID)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, first.ID, got[0].ID)
	assert.Equal(t, later.ID, got[1].ID)

	_, err = f.svc.Payments(ctx, manager, f.lease.ID)
	require.NoError(t, err)

	_, err = f.svc.Payments(ctx, otherTenant, f.lease.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))

	_, err = f.svc.Payments(ctx, otherManager, f.lease.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))

	_, err = f.svc.Payments(ctx, tenant, f.lease.ID+100)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestPaymentsEmptyList(t *testing.T) {
	f := newFixture(t)

	got, err := f.svc.Payments(context.Background(), tenant, f.lease.ID)
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestNextPaymentDate(t *testing.T) {
	start := time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)

	cases := []struct {
		name string
		now  time.Time
		want time.Time
	}{
		{"before start", time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC), start},
		{"on start", start, time.Date(2026, 2, 15, 0, 0, 0, 0, time.UTC)},
		{"mid term", time.Date(2026, 5, 20, 0, 0, 0, 0, time.UTC), time.Date(2026, 6, 15, 0, 0, 0, 0, time.UTC)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, NextPaymentDate(start, tc.now))
		})
	}
}
