package applications

import (
	"context"

	"gorm.io/gorm"

	"github.com/angelmondragon/rentals-backend/pkg/db/models"
	"github.com/angelmondragon/rentals-backend/pkg/enums"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx binds the repository to an open transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

func (r *Repository) Create(ctx context.Context, app *models.Application) error {
	return r.db.WithContext(ctx).Create(app).Error
}

// FindByID returns gorm.ErrRecordNotFound when the application does not exist.
func (r *Repository) FindByID(ctx context.Context, id int64) (*models.Application, error) {
	var app models.Application
	if err := r.db.WithContext(ctx).Preload("Tenant").Preload("Lease").First(&app, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &app, nil
}

func (r *Repository) base(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Model(&models.Application{}).
		Select("applications.*").
		Preload("Tenant").
		Preload("Lease").
		Order("applications.application_date DESC").
		Order("applications.id DESC")
}

func (r *Repository) ListByTenant(ctx context.Context, tenantCognitoID string) ([]models.Application, error) {
	var out []models.Application
	err := r.base(ctx).Where("applications.tenant_cognito_id = ?", tenantCognitoID).Find(&out).Error
	return out, err
}

// ListByManager returns applications for every property the manager owns.
func (r *Repository) ListByManager(ctx context.Context, managerCognitoID string) ([]models.Application, error) {
	var out []models.Application
	err := r.base(ctx).
		Joins("JOIN properties p ON p.id = applications.property_id").
		Where("p.manager_cognito_id = ?", managerCognitoID).
		Find(&out).Error
	return out, err
}

// Transition moves an application out of from. It reports false when the
// row was no longer in from, so concurrent decisions cannot both win.
func (r *Repository) Transition(ctx context.Context, id int64, from, to enums.ApplicationStatus, leaseID *int64) (bool, error) {
	updates := map[string]any{"status": to}
	if leaseID != nil {
		updates["lease_id"] = *leaseID
	}
	res := r.db.WithContext(ctx).
		Model(&models.Application{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
