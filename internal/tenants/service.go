package tenants

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/angelmondragon/rentals-backend/internal/properties"
	"github.com/angelmondragon/rentals-backend/pkg/auth"
	"github.com/angelmondragon/rentals-backend/pkg/db"
	"github.com/angelmondragon/rentals-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/rentals-backend/pkg/errors"
	"github.com/angelmondragon/rentals-backend/pkg/logger"
)

type Service interface {
	Get(ctx context.Context, cognitoID string) (*TenantDTO, error)
	Create(ctx context.Context, cognitoID string, contact Contact) (*TenantDTO, error)
	Update(ctx context.Context, cognitoID string, contact Contact) (*TenantDTO, error)
	CurrentResidences(ctx context.Context, cognitoID string) ([]properties.PropertyDTO, error)
	EnsureExists(ctx context.Context, id auth.Identity) (*TenantDTO, bool, error)
}

type residenceLister interface {
	ListResidences(ctx context.Context, tenantCognitoID string) ([]properties.PropertyDTO, error)
}

type service struct {
	repo       *Repository
	residences residenceLister
	logg       *logger.Logger
}

func NewService(repo *Repository, residences residenceLister, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("tenant repository is required")
	}
	if residences == nil {
		return nil, fmt.Errorf("residence lister is required")
	}
	return &service{repo: repo, residences: residences, logg: logg}, nil
}

func (s *service) Get(ctx context.Context, cognitoID string) (*TenantDTO, error) {
	t, err := s.repo.FindByCognitoID(ctx, cognitoID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "tenant not found")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load tenant")
	}
	return s.withFavorites(ctx, t)
}

func (s *service) Create(ctx context.Context, cognitoID string, contact Contact) (*TenantDTO, error) {
	if strings.TrimSpace(cognitoID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cognitoId is required")
	}
	t := &models.Tenant{
		CognitoID:   cognitoID,
		Name:        strings.TrimSpace(contact.Name),
		Email:       strings.TrimSpace(contact.Email),
		PhoneNumber: strings.TrimSpace(contact.PhoneNumber),
	}
	if err := s.repo.Create(ctx, t); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "tenant already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create tenant")
	}
	return toDTO(t, nil), nil
}

func (s *service) Update(ctx context.Context, cognitoID string, contact Contact) (*TenantDTO, error) {
	contact.Name = strings.TrimSpace(contact.Name)
	contact.Email = strings.TrimSpace(contact.Email)
	contact.PhoneNumber = strings.TrimSpace(contact.PhoneNumber)

	t, err := s.repo.UpdateContact(ctx, cognitoID, contact)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "tenant not found")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update tenant")
	}
	return s.withFavorites(ctx, t)
}

func (s *service) CurrentResidences(ctx context.Context, cognitoID string) ([]properties.PropertyDTO, error) {
	list, err := s.residences.ListResidences(ctx, cognitoID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list residences")
	}
	return list, nil
}

func (s *service) EnsureExists(ctx context.Context, id auth.Identity) (*TenantDTO, bool, error) {
	t, created, err := db.FindOrCreate(
		func() (*models.Tenant, error) { return s.repo.FindByCognitoID(ctx, id.Subject) },
		func() (*models.Tenant, error) {
			t := &models.Tenant{
				CognitoID:   id.Subject,
				Name:        id.Name,
				Email:       id.Email,
				PhoneNumber: id.PhoneNumber,
			}
			return t, s.repo.Create(ctx, t)
		},
		UniqueCognitoIDConstraint,
	)
	if err != nil {
		return nil, false, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "provision tenant")
	}
	if created {
		if s.logg != nil {
			s.logg.Info(s.logg.WithUserID(ctx, id.Subject), "tenant provisioned")
		}
		return toDTO(t, nil), true, nil
	}
	dto, err := s.withFavorites(ctx, t)
	return dto, false, err
}

func (s *service) withFavorites(ctx context.Context, t *models.Tenant) (*TenantDTO, error) {
	favorites, err := s.repo.FavoriteIDs(ctx, t.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load favorites")
	}
	return toDTO(t, favorites), nil
}
