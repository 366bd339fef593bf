package managers

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
	Get(ctx context.Context, cognitoID string) (*ManagerDTO, error)
	Create(ctx context.Context, cognitoID string, contact Contact) (*ManagerDTO, error)
	Update(ctx context.Context, cognitoID string, contact Contact) (*ManagerDTO, error)
	ListProperties(ctx context.Context, cognitoID string) ([]properties.PropertyDTO, error)
	EnsureExists(ctx context.Context, id auth.Identity) (*ManagerDTO, bool, error)
}

type propertyLister interface {
	ListByManager(ctx context.Context, managerCognitoID string) ([]properties.PropertyDTO, error)
}

type service struct {
	repo       *Repository
	properties propertyLister
	logg       *logger.Logger
}

func NewService(repo *Repository, props propertyLister, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("manager repository is required")
	}
	if props == nil {
		return nil, fmt.Errorf("property lister is required")
	}
	return &service{repo: repo, properties: props, logg: logg}, nil
}

func (s *service) Get(ctx context.Context, cognitoID string) (*ManagerDTO, error) {
	m, err := s.repo.FindByCognitoID(ctx, cognitoID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "manager not found")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load manager")
	}
	return toDTO(m), nil
}

func (s *service) Create(ctx context.Context, cognitoID string, contact Contact) (*ManagerDTO, error) {
	if strings.TrimSpace(cognitoID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cognitoId is required")
	}
	m := &models.Manager{
		CognitoID:   cognitoID,
		Name:        strings.TrimSpace(contact.Name),
		Email:       strings.TrimSpace(contact.Email),
		PhoneNumber: strings.TrimSpace(contact.PhoneNumber),
	}
	if err := s.repo.Create(ctx, m); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "manager already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create manager")
	}
	return toDTO(m), nil
}

func (s *service) Update(ctx context.Context, cognitoID string, contact Contact) (*ManagerDTO, error) {
	contact.Name = strings.TrimSpace(contact.Name)
	contact.Email = strings.TrimSpace(contact.Email)
	contact.PhoneNumber = strings.TrimSpace(contact.PhoneNumber)

	m, err := s.repo.UpdateContact(ctx, cognitoID, contact)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "manager not found")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update manager")
	}
	return toDTO(m), nil
}

func (s *service) ListProperties(ctx context.Context, cognitoID string) ([]properties.PropertyDTO, error) {
	return s.properties.ListByManager(ctx, cognitoID)
}

// EnsureExists returns the manager for id, provisioning it from the token
// claims on first sight. The bool reports whether a row was inserted.
func (s *service) EnsureExists(ctx context.Context, id auth.Identity) (*ManagerDTO, bool, error) {
	m, created, err := db.FindOrCreate(
		func() (*models.Manager, error) { return s.repo.FindByCognitoID(ctx, id.Subject) },
		func() (*models.Manager, error) {
			m := &models.Manager{
				CognitoID:   id.Subject,
				Name:        id.Name,
				Email:       id.Email,
				PhoneNumber: id.PhoneNumber,
			}
			return m, s.repo.Create(ctx, m)
		},
		UniqueCognitoIDConstraint,
	)
	if err != nil {
		return nil, false, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "provision manager")
	}
	if created && s.logg != nil {
		s.logg.Info(s.logg.WithUserID(ctx, id.Subject), "manager provisioned")
	}
	return toDTO(m), created, nil
}
