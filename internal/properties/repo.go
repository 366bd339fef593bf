package properties

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/angelmondragon/rentals-backend/internal/geo"
	"github.com/angelmondragon/rentals-backend/pkg/db/models"
)

var selectColumns = []string{
	"p.*",
	"l.address AS location_address",
	"l.city AS location_city",
	"l.state AS location_state",
	"l.country AS location_country",
	"l.postal_code AS location_postal_code",
	geo.AsText("l.coordinates") + " AS location_wkt",
}

// Repository reads listings joined to their location and writes new ones.
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

// List runs the property/location join filtered by preds, newest first.
func (r *Repository) List(ctx context.Context, preds []Predicate) ([]PropertyDTO, error) {
	query := r.db.WithContext(ctx).
		Table("properties p").
		Select(strings.Join(selectColumns, ", ")).
		Joins("JOIN locations l ON l.id = p.location_id")

	if where, args := Render(preds); where != "" {
		query = query.Where(where, args...)
	}

	var rows []propertyRow
	if err := query.Order("p.posted_date DESC").Order("p.id DESC").Scan(&rows).Error; err != nil {
		return nil, err
	}

	out := make([]PropertyDTO, 0, len(rows))
	for _, row := range rows {
		dto, err := row.toDTO()
		if err != nil {
			return nil, err
		}
		out = append(out, dto)
	}
	return out, nil
}

// FindByID returns gorm.ErrRecordNotFound when the listing does not exist.
func (r *Repository) FindByID(ctx context.Context, id int64) (*PropertyDTO, error) {
	list, err := r.List(ctx, []Predicate{IDIs(id)})
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return &list[0], nil
}

func (r *Repository) ListByManager(ctx context.Context, managerCognitoID string) ([]PropertyDTO, error) {
	return r.List(ctx, []Predicate{ManagedBy(managerCognitoID)})
}

// ListResidences returns the properties a tenant currently lives in.
func (r *Repository) ListResidences(ctx context.Context, tenantCognitoID string) ([]PropertyDTO, error) {
	return r.List(ctx, []Predicate{ResidenceOf(tenantCognitoID)})
}

// Get loads the bare property row.
func (r *Repository) Get(ctx context.Context, id int64) (*models.Property, error) {
	var property models.Property
	if err := r.db.WithContext(ctx).First(&property, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &property, nil
}

func (r *Repository) Create(ctx context.Context, property *models.Property) error {
	return r.db.WithContext(ctx).Create(property).Error
}

func (r *Repository) Exists(ctx context.Context, id int64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Property{}).
		Where("id = ?", id).
		Count(&count).Error
	return count > 0, err
}

// OwnerOf returns the managing cognito id of a property.
func (r *Repository) OwnerOf(ctx context.Context, id int64) (string, error) {
	var owners []string
	err := r.db.WithContext(ctx).
		Model(&models.Property{}).
		Where("id = ?", id).
		Pluck("manager_cognito_id", &owners).Error
	if err != nil {
		return "", err
	}
	if len(owners) == 0 {
		return "", gorm.ErrRecordNotFound
	}
	return owners[0], nil
}

// IsNotFound reports a missing row from any repository lookup.
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
