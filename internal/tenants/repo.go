package tenants

import (
	"context"

	"gorm.io/gorm"

	"github.com/angelmondragon/rentals-backend/pkg/db/models"
)

// UniqueCognitoIDConstraint guards one tenant per identity.
const UniqueCognitoIDConstraint = "tenants_cognito_id_key"

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// FindByCognitoID returns gorm.ErrRecordNotFound when no tenant matches.
func (r *Repository) FindByCognitoID(ctx context.Context, cognitoID string) (*models.Tenant, error) {
	var t models.Tenant
	if err := r.db.WithContext(ctx).Where("cognito_id = ?", cognitoID).First(&t).Error; err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *Repository) Create(ctx context.Context, t *models.Tenant) error {
	return r.db.WithContext(ctx).Create(t).Error
}

func (r *Repository) UpdateContact(ctx context.Context, cognitoID string, contact Contact) (*models.Tenant, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Tenant{}).
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

// FavoriteIDs lists the saved property ids of a tenant in ascending order.
func (r *Repository) FavoriteIDs(ctx context.Context, tenantID int64) ([]int64, error) {
	ids := []int64{}
	err := r.db.WithContext(ctx).
		Model(&models.TenantFavorite{}).
		Where("tenant_id = ?", tenantID).
		Order("property_id ASC").
		Pluck("property_id", &ids).Error
	return ids, err
}

// AddResidence records that the tenant lives in the property. Repeats are
// ignored.
func (r *Repository) AddResidence(ctx context.Context, tenantID, propertyID int64) error {
	return r.db.WithContext(ctx).
		Exec(`INSERT INTO tenant_residences (tenant_id, property_id) VALUES (?, ?) ON CONFLICT (tenant_id, property_id) DO NOTHING`, tenantID, propertyID).
		Error
}
