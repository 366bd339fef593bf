package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/rentals-backend/api/controllers"
	"github.com/angelmondragon/rentals-backend/api/middleware"
	"github.com/angelmondragon/rentals-backend/internal/applications"
	"github.com/angelmondragon/rentals-backend/internal/favorites"
	"github.com/angelmondragon/rentals-backend/internal/leases"
	"github.com/angelmondragon/rentals-backend/internal/managers"
	"github.com/angelmondragon/rentals-backend/internal/properties"
	"github.com/angelmondragon/rentals-backend/internal/tenants"
	"github.com/angelmondragon/rentals-backend/pkg/config"
	"github.com/angelmondragon/rentals-backend/pkg/enums"
	"github.com/angelmondragon/rentals-backend/pkg/logger"
	"github.com/angelmondragon/rentals-backend/pkg/metrics"
)

// Deps is everything the HTTP surface needs. Nil entries in Ready are
// reported as disabled.
type Deps struct {
	Config       *config.Config
	Logger       *logger.Logger
	Ready        map[string]controllers.Pinger
	Metrics      *metrics.HTTPMetrics
	Gatherer     http.Handler
	Tokens       middleware.TokenParser
	Accounts     middleware.AccountEnsurer
	Properties   properties.Service
	Managers     managers.Service
	Tenants      tenants.Service
	Favorites    favorites.Service
	Leases       leases.Service
	Applications applications.Service

	// Replay enables Idempotency-Key handling on POST /applications. Nil
	// turns it off.
	Replay middleware.ReplayStore
}

func NewRouter(d Deps) http.Handler {
	cfg, logg := d.Config, d.Logger
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Metrics(d.Metrics),
		middleware.CORS(cfg.App.AllowedOrigins),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, d.Ready))
	})
	if d.Gatherer != nil {
		r.Handle("/metrics", d.Gatherer)
	} else {
		r.Handle("/metrics", promhttp.Handler())
	}

	r.Get("/properties", controllers.PropertySearch(d.Properties, logg))
	r.Get("/properties/{id}", controllers.PropertyGet(d.Properties, logg))

	r.Group(func(r chi.Router) {
		r.Use(middleware.Auth(d.Tokens, logg))

		r.Get("/me", controllers.Me(d.Accounts, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRoles(logg, enums.RoleManager), middleware.Provision(d.Accounts, logg))
			r.Post("/properties", controllers.PropertyCreate(d.Properties, cfg.GCS, logg))
		})
		r.With(middleware.RequireRoles(logg, enums.RoleManager, enums.RoleTenant)).
			Get("/properties/{id}/leases", controllers.PropertyLeases(d.Leases, logg))

		r.Route("/managers", func(r chi.Router) {
			r.Use(middleware.RequireRoles(logg, enums.RoleManager))
			r.Post("/", controllers.ManagerCreate(d.Managers, logg))
			r.Route("/{cognitoId}", func(r chi.Router) {
				r.Use(middleware.RequireSubject("cognitoId", logg), middleware.Provision(d.Accounts, logg))
				r.Get("/", controllers.ManagerGet(d.Managers, logg))
				r.Put("/", controllers.ManagerUpdate(d.Managers, logg))
				r.Get("/properties", controllers.ManagerProperties(d.Managers, logg))
			})
		})

		r.Route("/tenants", func(r chi.Router) {
			r.Use(middleware.RequireRoles(logg, enums.RoleTenant))
			r.Post("/", controllers.TenantCreate(d.Tenants, logg))
			r.Route("/{cognitoId}", func(r chi.Router) {
				r.Use(middleware.RequireSubject("cognitoId", logg), middleware.Provision(d.Accounts, logg))
				r.Get("/", controllers.TenantGet(d.Tenants, logg))
				r.Put("/", controllers.TenantUpdate(d.Tenants, logg))
				r.Get("/current-residences", controllers.TenantResidences(d.Tenants, logg))
				r.Post("/favorites/{propertyId}", controllers.FavoriteAdd(d.Favorites, logg))
				r.Delete("/favorites/{propertyId}", controllers.FavoriteRemove(d.Favorites, logg))
			})
		})

		r.Route("/leases", func(r chi.Router) {
			r.Use(middleware.RequireRoles(logg, enums.RoleManager, enums.RoleTenant))
			r.Get("/", controllers.LeaseList(d.Leases, logg))
			r.Get("/{id}/payments", controllers.LeasePayments(d.Leases, logg))
		})

		r.Route("/applications", func(r chi.Router) {
			r.Use(middleware.RequireRoles(logg, enums.RoleManager, enums.RoleTenant), middleware.Provision(d.Accounts, logg))
			r.Get("/", controllers.ApplicationList(d.Applications, logg))
			r.With(middleware.Idempotent(d.Replay, cfg.Redis.ReplayTTL, logg)).
				Post("/", controllers.ApplicationCreate(d.Applications, logg))
			r.Put("/{id}", controllers.ApplicationUpdateStatus(d.Applications, logg))
		})
	})

	return r
}
