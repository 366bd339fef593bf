// Package accounts resolves the caller's domain record from their identity
// token, creating it on first sight.
package accounts

import (
	"context"
	"fmt"

	"github.com/angelmondragon/rentals-backend/internal/managers"
	"github.com/angelmondragon/rentals-backend/internal/tenants"
	"github.com/angelmondragon/rentals-backend/pkg/auth"
	"github.com/angelmondragon/rentals-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/rentals-backend/pkg/errors"
)

type managerEnsurer interface {
	EnsureExists(ctx context.Context, id auth.Identity) (*managers.ManagerDTO, bool, error)
}

type tenantEnsurer interface {
	EnsureExists(ctx context.Context, id auth.Identity) (*tenants.TenantDTO, bool, error)
}

// Account is the body of GET /me.
type Account struct {
	Role enums.Role `json:"role"`
	User any        `json:"user"`
	// Created is true on the request that provisioned the record.
	Created bool `json:"-"`
}

type Provisioner struct {
	managers managerEnsurer
	tenants  tenantEnsurer
}

func NewProvisioner(m managerEnsurer, t tenantEnsurer) (*Provisioner, error) {
	if m == nil {
		return nil, fmt.Errorf("manager service is required")
	}
	if t == nil {
		return nil, fmt.Errorf("tenant service is required")
	}
	return &Provisioner{managers: m, tenants: t}, nil
}

// Ensure returns the record matching the identity's role. Identities without
// a known role cannot be provisioned.
func (p *Provisioner) Ensure(ctx context.Context, id auth.Identity) (*Account, error) {
	if id.Subject == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "token has no subject")
	}
	switch id.Role {
	case enums.RoleManager:
		m, created, err := p.managers.EnsureExists(ctx, id)
		if err != nil {
			return nil, err
		}
		return &Account{Role: id.Role, User: m, Created: created}, nil
	case enums.RoleTenant:
		t, created, err := p.tenants.EnsureExists(ctx, id)
		if err != nil {
			return nil, err
		}
		return &Account{Role: id.Role, User: t, Created: created}, nil
	default:
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "token carries no recognised role")
	}
}
