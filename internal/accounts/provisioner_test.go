package accounts

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/rentals-backend/internal/managers"
	"github.com/angelmondragon/rentals-backend/internal/properties"
	"github.com/angelmondragon/rentals-backend/internal/tenants"
	"github.com/angelmondragon/rentals-backend/pkg/auth"
	"github.com/angelmondragon/rentals-backend/pkg/db/dbtest"
	"github.com/angelmondragon/rentals-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/rentals-backend/pkg/errors"
)

func newProvisioner(t *testing.T) *Provisioner {
	t.Helper()
	conn := dbtest.SQLite(t)
	props := properties.NewRepository(conn)
	m, err := managers.NewService(managers.NewRepository(conn), props, nil)
	require.NoError(t, err)
	tn, err := tenants.NewService(tenants.NewRepository(conn), props, nil)
	require.NoError(t, err)
	p, err := NewProvisioner(m, tn)
	require.NoError(t, err)
	return p
}

func TestEnsureDispatchesByRole(t *testing.T) {
	p := newProvisioner(t)
	ctx := context.Background()

	acct, err := p.Ensure(ctx, auth.Identity{Subject: "mgr-1", Role: enums.RoleManager, Name: "Morgan"})
	require.NoError(t, err)
	assert.Equal(t, enums.RoleManager, acct.Role)
	assert.True(t, acct.Created)
	m, ok := acct.User.(*managers.ManagerDTO)
	require.True(t, ok)
	assert.Equal(t, "Morgan", m.Name)

	acct, err = p.Ensure(ctx, auth.Identity{Subject: "ten-1", Role: enums.RoleTenant})
	require.NoError(t, err)
	_, ok = acct.User.(*tenants.TenantDTO)
	assert.True(t, ok)

	again, err := p.Ensure(ctx, auth.Identity{Subject: "ten-1", Role: enums.RoleTenant})
	require.NoError(t, err)
	assert.False(t, again.Created)
}

func TestEnsureRejectsUnknownRole(t *testing.T) {
	p := newProvisioner(t)

	_, err := p.Ensure(context.Background(), auth.Identity{Subject: "x"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))

	_, err = p.Ensure(context.Background(), auth.Identity{Role: enums.RoleTenant})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized))
}
