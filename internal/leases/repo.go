package leases

import (
	"context"

	"gorm.io/gorm"

	"github.com/angelmondragon/rentals-backend/pkg/db/models"
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

func (r *Repository) base(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Model(&models.Lease{}).
		Select("leases.*").
		Preload("Tenant").
		Order("leases.start_date DESC").
		Order("leases.id DESC")
}

// ListByManager returns leases on every property the manager owns.
func (r *Repository) ListByManager(ctx context.Context, managerCognitoID string) ([]models.Lease, error) {
	var out []models.Lease
	err := r.base(ctx).
		Joins("JOIN properties p ON p.id = leases.property_id").
		Where("p.manager_cognito_id = ?", managerCognitoID).
		Find(&out).Error
	return out, err
}

func (r *Repository) ListByTenant(ctx context.Context, tenantCognitoID string) ([]models.Lease, error) {
	var out []models.Lease
	err := r.base(ctx).Where("leases.tenant_cognito_id = ?", tenantCognitoID).Find(&out).Error
	return out, err
}

// ListByProperty optionally narrows to one tenant when tenantCognitoID is set.
func (r *Repository) ListByProperty(ctx context.Context, propertyID int64, tenantCognitoID string) ([]models.Lease, error) {
	q := r.base(ctx).Where("leases.property_id = ?", propertyID)
	if tenantCognitoID != "" {
		q = q.Where("leases.tenant_cognito_id = ?", tenantCognitoID)
	}
	var out []models.Lease
	err := q.Find(&out).Error
	return out, err
}

// FindByID returns gorm.ErrRecordNotFound when the lease does not exist.
func (r *Repository) FindByID(ctx context.Context, id int64) (*models.Lease, error) {
	var l models.Lease
	if err := r.db.WithContext(ctx).Preload("Tenant").First(&l, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &l, nil
}

func (r *Repository) FindByIDs(ctx context.Context, ids []int64) (map[int64]models.Lease, error) {
	out := make(map[int64]models.Lease, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []models.Lease
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, l := range rows {
		out[l.ID] = l
	}
	return out, nil
}

func (r *Repository) Create(ctx context.Context, l *models.Lease) error {
	return r.db.WithContext(ctx).Create(l).Error
}

// Payments lists a lease's payments by due date.
func (r *Repository) Payments(ctx context.Context, leaseID int64) ([]models.Payment, error) {
	out := []models.Payment{}
	err := r.db.WithContext(ctx).
		Where("lease_id = ?", leaseID).
		Order("due_date ASC").
		Order("id ASC").
		Find(&out).Error
	return out, err
}
