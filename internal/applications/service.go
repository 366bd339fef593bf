package applications

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strconv"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/angelmondragon/rentals-backend/internal/leases"
	"github.com/angelmondragon/rentals-backend/internal/properties"
	"github.com/angelmondragon/rentals-backend/internal/tenants"
	"github.com/angelmondragon/rentals-backend/pkg/auth"
	"github.com/angelmondragon/rentals-backend/pkg/db"
	"github.com/angelmondragon/rentals-backend/pkg/db/models"
	"github.com/angelmondragon/rentals-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/rentals-backend/pkg/errors"
	"github.com/angelmondragon/rentals-backend/pkg/logger"
	"github.com/angelmondragon/rentals-backend/pkg/outbox"
	"github.com/angelmondragon/rentals-backend/pkg/outbox/payloads"
	"github.com/angelmondragon/rentals-backend/pkg/redis"
)

// leaseTerm is the length of a lease created by approval.
const leaseTerm = 1

type Service interface {
	List(ctx context.Context, actor auth.Identity, q ListQuery) ([]ApplicationDTO, error)
	Create(ctx context.Context, actor auth.Identity, input CreateInput) (*ApplicationDTO, error)
	UpdateStatus(ctx context.Context, actor auth.Identity, id int64, status enums.ApplicationStatus) (*ApplicationDTO, error)
}

// ServiceParams groups dependencies for the application service. Cache and
// Logger are optional.
type ServiceParams struct {
	Repo       *Repository
	Leases     *leases.Repository
	Tenants    *tenants.Repository
	Properties *properties.Repository
	Tx         db.TxRunner
	Outbox     outbox.Emitter
	Cache      *redis.TagCache
	Logger     *logger.Logger
	Now        func() time.Time
}

type service struct {
	repo       *Repository
	leases     *leases.Repository
	tenants    *tenants.Repository
	properties *properties.Repository
	tx         db.TxRunner
	outbox     outbox.Emitter
	cache      *redis.TagCache
	logg       *logger.Logger
	now        func() time.Time
}

func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("application repository is required")
	}
	if params.Leases == nil {
		return nil, fmt.Errorf("lease repository is required")
	}
	if params.Tenants == nil {
		return nil, fmt.Errorf("tenant repository is required")
	}
	if params.Properties == nil {
		return nil, fmt.Errorf("property repository is required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner is required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox emitter is required")
	}
	now := params.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &service{
		repo:       params.Repo,
		leases:     params.Leases,
		tenants:    params.Tenants,
		properties: params.Properties,
		tx:         params.Tx,
		outbox:     params.Outbox,
		cache:      params.Cache,
		logg:       params.Logger,
		now:        now,
	}, nil
}

func (s *service) List(ctx context.Context, actor auth.Identity, q ListQuery) ([]ApplicationDTO, error) {
	role := actor.Role
	if raw := strings.TrimSpace(q.UserType); raw != "" {
		parsed, err := enums.ParseRole(strings.ToLower(raw))
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid userType")
		}
		role = parsed
	}
	userID := strings.TrimSpace(q.UserID)
	if userID == "" {
		userID = actor.Subject
	}
	if role != actor.Role || userID != actor.Subject {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "applications of another account are not visible")
	}

	var (
		rows []models.Application
		err  error
	)
	switch role {
	case enums.RoleManager:
		rows, err = s.repo.ListByManager(ctx, userID)
	case enums.RoleTenant:
		rows, err = s.repo.ListByTenant(ctx, userID)
	default:
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "role not permitted")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list applications")
	}
	return s.withProperties(ctx, rows)
}

func (s *service) Create(ctx context.Context, actor auth.Identity, input CreateInput) (*ApplicationDTO, error) {
	if actor.Role != enums.RoleTenant {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only tenants can apply")
	}
	input, err := validateCreate(input)
	if err != nil {
		return nil, err
	}

	owner, err := s.properties.OwnerOf(ctx, input.PropertyID)
	if properties.IsNotFound(err) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "property not found")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load property")
	}
	if _, err := s.tenants.FindByCognitoID(ctx, actor.Subject); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "tenant not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load tenant")
	}

	app := &models.Application{
		ApplicationDate: s.now(),
		Status:          enums.ApplicationStatusPending,
		PropertyID:      input.PropertyID,
		TenantCognitoID: actor.Subject,
		Name:            input.Name,
		Email:           input.Email,
		PhoneNumber:     input.PhoneNumber,
	}
	if input.Message != "" {
		app.Message = &input.Message
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).Create(ctx, app); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "insert application")
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventApplicationSubmitted,
			AggregateType: enums.AggregateApplication,
			AggregateID:   strconv.FormatInt(app.ID, 10),
			Actor:         actorRef(actor),
			Data: payloads.ApplicationSubmittedEvent{
				ApplicationID:    app.ID,
				PropertyID:       app.PropertyID,
				TenantCognitoID:  app.TenantCognitoID,
				ManagerCognitoID: owner,
			},
		})
	})
	if err != nil {
		return nil, pkgerrors.FromStore(err, "create application")
	}
	return s.load(ctx, app.ID)
}

// UpdateStatus decides a pending application. Approval creates the lease,
// links it and records the residence in the same transaction as the status
// change.
func (s *service) UpdateStatus(ctx context.Context, actor auth.Identity, id int64, status enums.ApplicationStatus) (*ApplicationDTO, error) {
	if actor.Role != enums.RoleManager {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only managers can decide applications")
	}
	if !status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("status %q is not supported", status))
	}

	app, err := s.repo.FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "application not found")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load application")
	}
	owner, err := s.properties.OwnerOf(ctx, app.PropertyID)
	if err != nil && !properties.IsNotFound(err) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load property")
	}
	if owner != actor.Subject {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "property is managed by another account")
	}
	if !allowedTransition(app.Status, status) {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "application cannot move from "+string(app.Status)+" to "+string(status)).
			WithDetails(map[string]any{"from": app.Status, "to": status})
	}

	from := app.Status
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		var lease *models.Lease
		if status == enums.ApplicationStatusApproved {
			created, err := s.createLease(ctx, tx, app)
			if err != nil {
				return err
			}
			lease = created
		}

		var leaseID *int64
		if lease != nil {
			leaseID = &lease.ID
		}
		moved, err := s.repo.WithTx(tx).Transition(ctx, app.ID, from, status, leaseID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update application status")
		}
		if !moved {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "application was decided concurrently")
		}

		if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventApplicationStatusChanged,
			AggregateType: enums.AggregateApplication,
			AggregateID:   strconv.FormatInt(app.ID, 10),
			Actor:         actorRef(actor),
			Data: payloads.ApplicationStatusChangedEvent{
				ApplicationID:   app.ID,
				PropertyID:      app.PropertyID,
				TenantCognitoID: app.TenantCognitoID,
				From:            from,
				To:              status,
				LeaseID:         leaseID,
			},
		}); err != nil {
			return err
		}
		if lease == nil {
			return nil
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventLeaseCreated,
			AggregateType: enums.AggregateLease,
			AggregateID:   strconv.FormatInt(lease.ID, 10),
			Actor:         actorRef(actor),
			Data: payloads.LeaseCreatedEvent{
				LeaseID:         lease.ID,
				PropertyID:      lease.PropertyID,
				TenantCognitoID: lease.TenantCognitoID,
				StartDate:       lease.StartDate,
				EndDate:         lease.EndDate,
				Rent:            lease.Rent,
				Deposit:         lease.Deposit,
			},
		})
	})
	if err != nil {
		return nil, pkgerrors.FromStore(err, "update application status")
	}

	if status == enums.ApplicationStatusApproved {
		if err := s.cache.Invalidate(ctx, properties.CacheTag); err != nil && s.logg != nil {
			s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "search cache invalidation failed")
		}
	}
	if s.logg != nil {
		logCtx := s.logg.WithFields(ctx, map[string]any{
			"application_id": app.ID,
			"from":           from,
			"to":             status,
		})
		s.logg.Info(logCtx, "application decided")
	}
	return s.load(ctx, app.ID)
}

func (s *service) createLease(ctx context.Context, tx *gorm.DB, app *models.Application) (*models.Lease, error) {
	property, err := s.properties.WithTx(tx).Get(ctx, app.PropertyID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load property")
	}
	tenant, err := s.tenants.WithTx(tx).FindByCognitoID(ctx, app.TenantCognitoID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load tenant")
	}

	start := s.now()
	lease := &models.Lease{
		StartDate:       start,
		EndDate:         start.AddDate(leaseTerm, 0, 0),
		Rent:            property.PricePerMonth,
		Deposit:         property.SecurityDeposit,
		PropertyID:      property.ID,
		TenantCognitoID: app.TenantCognitoID,
	}
	if err := s.leases.WithTx(tx).Create(ctx, lease); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "insert lease")
	}
	if err := s.tenants.WithTx(tx).AddResidence(ctx, tenant.ID, property.ID); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "record residence")
	}
	return lease, nil
}

func (s *service) load(ctx context.Context, id int64) (*ApplicationDTO, error) {
	app, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reload application")
	}
	out, err := s.withProperties(ctx, []models.Application{*app})
	if err != nil {
		return nil, err
	}
	return &out[0], nil
}

func (s *service) withProperties(ctx context.Context, rows []models.Application) ([]ApplicationDTO, error) {
	out := make([]ApplicationDTO, 0, len(rows))
	if len(rows) == 0 {
		return out, nil
	}
	ids := make([]int64, 0, len(rows))
	for _, app := range rows {
		ids = append(ids, app.PropertyID)
	}
	list, err := s.properties.List(ctx, []properties.Predicate{properties.IDIn(ids)})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load application properties")
	}
	byID := make(map[int64]*properties.PropertyDTO, len(list))
	for i := range list {
		byID[list[i].ID] = &list[i]
	}

	now := s.now()
	for _, app := range rows {
		out = append(out, toDTO(app, byID[app.PropertyID], now))
	}
	return out, nil
}

// allowedTransition admits only decisions on a pending application.
func allowedTransition(from, to enums.ApplicationStatus) bool {
	if from != enums.ApplicationStatusPending {
		return false
	}
	return to == enums.ApplicationStatusApproved || to == enums.ApplicationStatusDenied
}

func validateCreate(in CreateInput) (CreateInput, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	in.PhoneNumber = strings.TrimSpace(in.PhoneNumber)
	in.Message = strings.TrimSpace(in.Message)

	details := map[string]string{}
	if in.PropertyID <= 0 {
		details["propertyId"] = "is required"
	}
	if in.Name == "" {
		details["name"] = "is required"
	}
	if in.Email == "" {
		details["email"] = "is required"
	} else if _, err := mail.ParseAddress(in.Email); err != nil {
		details["email"] = "must be a valid email"
	}
	if in.PhoneNumber == "" {
		details["phoneNumber"] = "is required"
	}
	if len(details) > 0 {
		return in, pkgerrors.New(pkgerrors.CodeValidation, "validation failed").WithDetails(details)
	}
	return in, nil
}

func actorRef(actor auth.Identity) *outbox.ActorRef {
	return &outbox.ActorRef{SubjectID: actor.Subject, Role: string(actor.Role)}
}
