package favorites

import (
	"context"

	"gorm.io/gorm"

	"github.com/angelmondragon/rentals-backend/pkg/db/models"
)

// Repository persists tenant favorites.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Add inserts the tenant-property pair and ignores duplicates.
func (r *Repository) Add(ctx context.Context, tenantID, propertyID int64) error {
	if tenantID == 0 || propertyID == 0 {
		return gorm.ErrInvalidValue
	}
	return r.db.WithContext(ctx).
		Exec(`INSERT INTO tenant_favorites (tenant_id, property_id) VALUES (?, ?) ON CONFLICT (tenant_id, property_id) DO NOTHING`, tenantID, propertyID).
		Error
}

// Remove deletes the pair if it exists.
func (r *Repository) Remove(ctx context.Context, tenantID, propertyID int64) error {
	return r.db.WithContext(ctx).
		Where("tenant_id = ? AND property_id = ?", tenantID, propertyID).
		Delete(&models.TenantFavorite{}).
		Error
}
