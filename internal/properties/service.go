package properties

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/rentals-backend/internal/geo"
	"github.com/angelmondragon/rentals-backend/internal/photos"
	"github.com/angelmondragon/rentals-backend/pkg/db"
	"github.com/angelmondragon/rentals-backend/pkg/db/models"
	"github.com/angelmondragon/rentals-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/rentals-backend/pkg/errors"
	"github.com/angelmondragon/rentals-backend/pkg/geocode"
	"github.com/angelmondragon/rentals-backend/pkg/logger"
	"github.com/angelmondragon/rentals-backend/pkg/metrics"
	"github.com/angelmondragon/rentals-backend/pkg/outbox"
	"github.com/angelmondragon/rentals-backend/pkg/outbox/payloads"
	"github.com/angelmondragon/rentals-backend/pkg/redis"
	"github.com/angelmondragon/rentals-backend/pkg/search"
)

// CacheTag groups every cached search result. Anything that changes which
// properties a search returns invalidates it.
const CacheTag = "properties"

// CacheScope namespaces the search cache keys.
const CacheScope = "property-search"

type Service interface {
	Search(ctx context.Context, params search.Params) ([]PropertyDTO, error)
	Get(ctx context.Context, id int64) (*PropertyDTO, error)
	ListByManager(ctx context.Context, managerCognitoID string) ([]PropertyDTO, error)
	ListResidences(ctx context.Context, tenantCognitoID string) ([]PropertyDTO, error)
	Create(ctx context.Context, managerCognitoID string, input CreateInput, files []photos.File) (*PropertyDTO, *CreateMeta, error)
}

// CreateInput is a validated new listing.
type CreateInput struct {
	Name              string
	Description       string
	PricePerMonth     decimal.Decimal
	SecurityDeposit   decimal.Decimal
	ApplicationFee    decimal.Decimal
	Amenities         []string
	Highlights        []string
	IsPetsAllowed     bool
	IsParkingIncluded bool
	Beds              int
	Baths             float64
	SquareFeet        int
	PropertyType      enums.PropertyType
	Address           string
	City              string
	State             string
	Country           string
	PostalCode        string
}

func (in CreateInput) address() geocode.Address {
	return geocode.Address{
		Street:     in.Address,
		City:       in.City,
		State:      in.State,
		Country:    in.Country,
		PostalCode: in.PostalCode,
	}
}

type addressResolver interface {
	Resolve(ctx context.Context, addr geocode.Address) geo.Resolution
}

type photoUploader interface {
	Upload(ctx context.Context, files []photos.File) ([]string, error)
}

// ServiceParams bundles the dependencies of the property service. Cache and
// CacheMetrics are optional.
type ServiceParams struct {
	Repo         *Repository
	Tx           db.TxRunner
	Spatial      geo.Store
	Resolver     addressResolver
	Uploader     photoUploader
	Outbox       outbox.Emitter
	Cache        *redis.TagCache
	CacheMetrics *metrics.OutcomeCounter
	CacheTTL     time.Duration
	Logger       *logger.Logger
}

type service struct {
	repo         *Repository
	tx           db.TxRunner
	spatial      geo.Store
	resolver     addressResolver
	uploader     photoUploader
	outbox       outbox.Emitter
	cache        *redis.TagCache
	cacheMetrics *metrics.OutcomeCounter
	cacheTTL     time.Duration
	logg         *logger.Logger
}

func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("property repository is required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner is required")
	}
	if params.Spatial == nil {
		return nil, fmt.Errorf("spatial store is required")
	}
	if params.Resolver == nil {
		return nil, fmt.Errorf("address resolver is required")
	}
	if params.Uploader == nil {
		return nil, fmt.Errorf("photo uploader is required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox emitter is required")
	}
	return &service{
		repo:         params.Repo,
		tx:           params.Tx,
		spatial:      params.Spatial,
		resolver:     params.Resolver,
		uploader:     params.Uploader,
		outbox:       params.Outbox,
		cache:        params.Cache,
		cacheMetrics: params.CacheMetrics,
		cacheTTL:     params.CacheTTL,
		logg:         params.Logger,
	}, nil
}

// Search runs the composed filter query. Results are cached per canonical
// parameter set when a cache is configured; cache trouble never fails a
// search.
func (s *service) Search(ctx context.Context, params search.Params) ([]PropertyDTO, error) {
	key := params.CacheKey()
	if cached, ok := s.cachedSearch(ctx, key); ok {
		return cached, nil
	}

	results, err := s.repo.List(ctx, BuildPredicates(params))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "search properties")
	}
	if params.Near != nil {
		for i := range results {
			d := geo.DistanceKm(*params.Near, results[i].Location.Coordinates)
			results[i].DistanceKm = &d
		}
	}

	s.storeSearch(ctx, key, results)
	return results, nil
}

func (s *service) cachedSearch(ctx context.Context, key string) ([]PropertyDTO, bool) {
	if s.cache == nil {
		return nil, false
	}
	raw, err := s.cache.Get(ctx, key)
	switch {
	case errors.Is(err, redis.ErrCacheMiss):
		s.cacheMetrics.Inc(metrics.CacheMiss)
		return nil, false
	case err != nil:
		s.cacheMetrics.Inc(metrics.CacheError)
		s.warn(ctx, "search cache read failed", err)
		return nil, false
	}

	var results []PropertyDTO
	if err := json.Unmarshal(raw, &results); err != nil {
		s.cacheMetrics.Inc(metrics.CacheError)
		s.warn(ctx, "search cache entry unreadable", err)
		return nil, false
	}
	s.cacheMetrics.Inc(metrics.CacheHit)
	return results, true
}

func (s *service) storeSearch(ctx context.Context, key string, results []PropertyDTO) {
	if s.cache == nil {
		return
	}
	raw, err := json.Marshal(results)
	if err == nil {
		err = s.cache.Set(ctx, key, raw, s.cacheTTL, CacheTag)
	}
	if err != nil {
		s.cacheMetrics.Inc(metrics.CacheError)
		s.warn(ctx, "search cache write failed", err)
	}
}

func (s *service) Get(ctx context.Context, id int64) (*PropertyDTO, error) {
	property, err := s.repo.FindByID(ctx, id)
	if IsNotFound(err) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "property not found")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load property")
	}
	return property, nil
}

func (s *service) ListByManager(ctx context.Context, managerCognitoID string) ([]PropertyDTO, error) {
	list, err := s.repo.ListByManager(ctx, managerCognitoID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list manager properties")
	}
	return list, nil
}

func (s *service) ListResidences(ctx context.Context, tenantCognitoID string) ([]PropertyDTO, error) {
	list, err := s.repo.ListResidences(ctx, tenantCognitoID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list residences")
	}
	return list, nil
}

// Create uploads the photos, resolves the address and writes the location,
// the property and its outbox event in one transaction. A geocoder failure
// does not fail the request; the listing lands at the origin and the
// returned meta says so.
func (s *service) Create(ctx context.Context, managerCognitoID string, input CreateInput, files []photos.File) (*PropertyDTO, *CreateMeta, error) {
	if err := validateCreate(input); err != nil {
		return nil, nil, err
	}

	urls, err := s.uploader.Upload(ctx, files)
	if err != nil {
		return nil, nil, err
	}

	resolution := s.resolver.Resolve(ctx, input.address())

	var createdID int64
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		loc := &models.Location{
			Address:     input.Address,
			City:        input.City,
			State:       input.State,
			Country:     input.Country,
			PostalCode:  input.PostalCode,
			Coordinates: resolution.Coordinates,
		}
		if err := s.spatial.InsertLocation(ctx, tx, loc); err != nil {
			return err
		}

		property := &models.Property{
			Name:              input.Name,
			Description:       input.Description,
			PricePerMonth:     input.PricePerMonth,
			SecurityDeposit:   input.SecurityDeposit,
			ApplicationFee:    input.ApplicationFee,
			PhotoURLs:         orEmpty(urls),
			Amenities:         orEmpty(input.Amenities),
			Highlights:        orEmpty(input.Highlights),
			IsPetsAllowed:     input.IsPetsAllowed,
			IsParkingIncluded: input.IsParkingIncluded,
			Beds:              input.Beds,
			Baths:             input.Baths,
			SquareFeet:        input.SquareFeet,
			PropertyType:      input.PropertyType,
			LocationID:        loc.ID,
			ManagerCognitoID:  managerCognitoID,
		}
		if err := s.repo.WithTx(tx).Create(ctx, property); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "insert property")
		}
		createdID = property.ID

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventPropertyCreated,
			AggregateType: enums.AggregateProperty,
			AggregateID:   strconv.FormatInt(property.ID, 10),
			Actor:         &outbox.ActorRef{SubjectID: managerCognitoID, Role: string(enums.RoleManager)},
			Data: payloads.PropertyCreatedEvent{
				PropertyID:       property.ID,
				ManagerCognitoID: managerCognitoID,
				PropertyType:     property.PropertyType,
				City:             loc.City,
				Country:          loc.Country,
				GeocodeStatus:    resolution.Status,
			},
		})
	})
	if err != nil {
		if pkgerrors.As(err) != nil {
			return nil, nil, err
		}
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create property")
	}

	s.invalidate(ctx)

	created, err := s.Get(ctx, createdID)
	if err != nil {
		return nil, nil, err
	}
	return created, &CreateMeta{Geocoding: resolution}, nil
}

func (s *service) invalidate(ctx context.Context) {
	if err := s.cache.Invalidate(ctx, CacheTag); err != nil {
		s.warn(ctx, "search cache invalidation failed", err)
	}
}

func (s *service) warn(ctx context.Context, msg string, err error) {
	if s.logg == nil {
		return
	}
	s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), msg)
}

func validateCreate(in CreateInput) error {
	var problems []string
	if strings.TrimSpace(in.Name) == "" {
		problems = append(problems, "name is required")
	}
	if in.PricePerMonth.IsNegative() || in.SecurityDeposit.IsNegative() || in.ApplicationFee.IsNegative() {
		problems = append(problems, "amounts must not be negative")
	}
	if in.Beds < 0 || in.Baths < 0 || in.SquareFeet < 0 {
		problems = append(problems, "beds, baths and squareFeet must not be negative")
	}
	if !in.PropertyType.IsValid() {
		problems = append(problems, fmt.Sprintf("propertyType %q is not supported", in.PropertyType))
	}
	for _, a := range in.Amenities {
		if _, err := enums.ParseAmenity(a); err != nil {
			problems = append(problems, err.Error())
		}
	}
	for _, h := range in.Highlights {
		if _, err := enums.ParseHighlight(h); err != nil {
			problems = append(problems, err.Error())
		}
	}
	required := []struct{ field, value string }{
		{"address", in.Address},
		{"city", in.City},
		{"country", in.Country},
		{"postalCode", in.PostalCode},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			problems = append(problems, r.field+" is required")
		}
	}
	if len(problems) == 0 {
		return nil
	}
	return pkgerrors.New(pkgerrors.CodeValidation, "invalid property").
		WithDetails(map[string]any{"problems": problems})
}

func orEmpty(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
