package leases

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/angelmondragon/rentals-backend/internal/properties"
	"github.com/angelmondragon/rentals-backend/pkg/auth"
	"github.com/angelmondragon/rentals-backend/pkg/db/models"
	"github.com/angelmondragon/rentals-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/rentals-backend/pkg/errors"
)

// PropertyReader is the slice of the properties repository leases need.
type PropertyReader interface {
	List(ctx context.Context, preds []properties.Predicate) ([]properties.PropertyDTO, error)
	OwnerOf(ctx context.Context, id int64) (string, error)
}

type Service interface {
	List(ctx context.Context, actor auth.Identity) ([]LeaseDTO, error)
	ListByProperty(ctx context.Context, actor auth.Identity, propertyID int64) ([]LeaseDTO, error)
	Payments(ctx context.Context, actor auth.Identity, leaseID int64) ([]PaymentDTO, error)
}

type service struct {
	repo       *Repository
	properties PropertyReader
}

func NewService(repo *Repository, props PropertyReader) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("lease repository is required")
	}
	if props == nil {
		return nil, fmt.Errorf("property reader is required")
	}
	return &service{repo: repo, properties: props}, nil
}

// List returns the leases visible to the actor: a manager's leases across
// their properties, or a tenant's own.
func (s *service) List(ctx context.Context, actor auth.Identity) ([]LeaseDTO, error) {
	var (
		rows []models.Lease
		err  error
	)
	switch actor.Role {
	case enums.RoleManager:
		rows, err = s.repo.ListByManager(ctx, actor.Subject)
	case enums.RoleTenant:
		rows, err = s.repo.ListByTenant(ctx, actor.Subject)
	default:
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "role not permitted")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list leases")
	}
	return s.attachProperties(ctx, rows)
}

// ListByProperty returns every lease on the property for its manager, and
// only the caller's own leases for a tenant.
func (s *service) ListByProperty(ctx context.Context, actor auth.Identity, propertyID int64) ([]LeaseDTO, error) {
	owner, err := s.properties.OwnerOf(ctx, propertyID)
	if properties.IsNotFound(err) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "property not found")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load property")
	}

	tenantFilter := ""
	switch actor.Role {
	case enums.RoleManager:
		if owner != actor.Subject {
			return nil, pkgerrors.New(pkgerrors.CodeForbidden, "property is managed by another account")
		}
	case enums.RoleTenant:
		tenantFilter = actor.Subject
	default:
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "role not permitted")
	}

	rows, err := s.repo.ListByProperty(ctx, propertyID, tenantFilter)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list property leases")
	}
	return s.attachProperties(ctx, rows)
}

func (s *service) Payments(ctx context.Context, actor auth.Identity, leaseID int64) ([]PaymentDTO, error) {
	lease, err := s.repo.FindByID(ctx, leaseID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "lease not found")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load lease")
	}
	if err := s.ensureParty(ctx, actor, lease); err != nil {
		return nil, err
	}

	rows, err := s.repo.Payments(ctx, leaseID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list payments")
	}
	out := make([]PaymentDTO, 0, len(rows))
	for _, p := range rows {
		out = append(out, toPaymentDTO(p))
	}
	return out, nil
}

func (s *service) ensureParty(ctx context.Context, actor auth.Identity, lease *models.Lease) error {
	switch actor.Role {
	case enums.RoleTenant:
		if lease.TenantCognitoID == actor.Subject {
			return nil
		}
	case enums.RoleManager:
		owner, err := s.properties.OwnerOf(ctx, lease.PropertyID)
		if err != nil && !properties.IsNotFound(err) {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load property")
		}
		if owner == actor.Subject {
			return nil
		}
	}
	return pkgerrors.New(pkgerrors.CodeForbidden, "not a party to this lease")
}

func (s *service) attachProperties(ctx context.Context, rows []models.Lease) ([]LeaseDTO, error) {
	out := make([]LeaseDTO, 0, len(rows))
	if len(rows) == 0 {
		return out, nil
	}

	ids := make([]int64, 0, len(rows))
	seen := make(map[int64]struct{}, len(rows))
	for _, l := range rows {
		if _, ok := seen[l.PropertyID]; ok {
			continue
		}
		seen[l.PropertyID] = struct{}{}
		ids = append(ids, l.PropertyID)
	}
	props, err := s.properties.List(ctx, []properties.Predicate{properties.IDIn(ids)})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load lease properties")
	}
	byID := make(map[int64]*properties.PropertyDTO, len(props))
	for i := range props {
		byID[props[i].ID] = &props[i]
	}

	for _, l := range rows {
		out = append(out, toLeaseDTO(l, byID[l.PropertyID]))
	}
	return out, nil
}
