package favorites

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/angelmondragon/rentals-backend/internal/tenants"
	"github.com/angelmondragon/rentals-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/rentals-backend/pkg/errors"
)

type tenantStore interface {
	FindByCognitoID(ctx context.Context, cognitoID string) (*models.Tenant, error)
}

type tenantReader interface {
	Get(ctx context.Context, cognitoID string) (*tenants.TenantDTO, error)
}

type propertyChecker interface {
	Exists(ctx context.Context, id int64) (bool, error)
}

// ServiceParams groups dependencies for the favorites service.
type ServiceParams struct {
	Repo       *Repository
	TenantRepo tenantStore
	Tenants    tenantReader
	Properties propertyChecker
}

// Service toggles saved properties. Both operations return the tenant with
// the resulting favorite ids. Search results are not cached per tenant, so
// nothing is invalidated here.
type Service interface {
	Add(ctx context.Context, tenantCognitoID string, propertyID int64) (*tenants.TenantDTO, error)
	Remove(ctx context.Context, tenantCognitoID string, propertyID int64) (*tenants.TenantDTO, error)
}

type service struct {
	repo       *Repository
	tenantRepo tenantStore
	tenants    tenantReader
	properties propertyChecker
}

func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "favorites repo is required")
	}
	if params.TenantRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "tenant repo is required")
	}
	if params.Tenants == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "tenant service is required")
	}
	if params.Properties == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "property repo is required")
	}
	return &service{
		repo:       params.Repo,
		tenantRepo: params.TenantRepo,
		tenants:    params.Tenants,
		properties: params.Properties,
	}, nil
}

func (s *service) Add(ctx context.Context, tenantCognitoID string, propertyID int64) (*tenants.TenantDTO, error) {
	tenant, err := s.tenant(ctx, tenantCognitoID)
	if err != nil {
		return nil, err
	}
	if propertyID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "property id is required")
	}
	exists, err := s.properties.Exists(ctx, propertyID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check property")
	}
	if !exists {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "property not found")
	}
	if err := s.repo.Add(ctx, tenant.ID, propertyID); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "add favorite")
	}
	return s.tenants.Get(ctx, tenantCognitoID)
}

func (s *service) Remove(ctx context.Context, tenantCognitoID string, propertyID int64) (*tenants.TenantDTO, error) {
	tenant, err := s.tenant(ctx, tenantCognitoID)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Remove(ctx, tenant.ID, propertyID); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "remove favorite")
	}
	return s.tenants.Get(ctx, tenantCognitoID)
}

func (s *service) tenant(ctx context.Context, cognitoID string) (*models.Tenant, error) {
	tenant, err := s.tenantRepo.FindByCognitoID(ctx, cognitoID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "tenant not found")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load tenant")
	}
	return tenant, nil
}
