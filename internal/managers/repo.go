package managers

import (
	"context"

	"gorm.io/gorm"

	"github.com/angelmondragon/rentals-backend/pkg/db/models"
)

// UniqueCognitoIDConstraint guards one manager per identity.
const UniqueCognitoIDConstraint = "managers_cognito_id_key"

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// FindByCognitoID returns gorm.ErrRecordNotFound when no manager matches.
func (r *Repository) FindByCognitoID(ctx context.Context, cognitoID string) (*models.Manager, error) {
	var m models.Manager
	if err := r.db.WithContext(ctx).Where("cognito_id = ?", cognitoID).First(&m).Error; err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *Repository) Create(ctx context.Context, m *models.Manager) error {
	return r.db.WithContext(ctx).Create(m).Error
}

// UpdateContact overwrites the contact fields and returns the stored row.
func (r *Repository) UpdateContact(ctx context.Context, cognitoID string, contact Contact) (*models.Manager, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Manager{}).
		Where("cognito_id = ?", cognitoID).
		Updates(map[string]any{
			"name":         contact.Name,
			"email":        contact.Email,
			"phone_number": contact.PhoneNumber,
		})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return r.FindByCognitoID(ctx, cognitoID)
}
