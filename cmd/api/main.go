package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"
	"go.uber.org/multierr"

	"github.com/angelmondragon/rentals-backend/api/controllers"
	"github.com/angelmondragon/rentals-backend/api/middleware"
	"github.com/angelmondragon/rentals-backend/api/routes"
	"github.com/angelmondragon/rentals-backend/internal/accounts"
	"github.com/angelmondragon/rentals-backend/internal/applications"
	"github.com/angelmondragon/rentals-backend/internal/favorites"
	"github.com/angelmondragon/rentals-backend/internal/geo"
	"github.com/angelmondragon/rentals-backend/internal/leases"
	"github.com/angelmondragon/rentals-backend/internal/managers"
	"github.com/angelmondragon/rentals-backend/internal/photos"
	"github.com/angelmondragon/rentals-backend/internal/properties"
	"github.com/angelmondragon/rentals-backend/internal/tenants"
	"github.com/angelmondragon/rentals-backend/pkg/auth"
	"github.com/angelmondragon/rentals-backend/pkg/config"
	"github.com/angelmondragon/rentals-backend/pkg/db"
	"github.com/angelmondragon/rentals-backend/pkg/geocode"
	"github.com/angelmondragon/rentals-backend/pkg/instance"
	"github.com/angelmondragon/rentals-backend/pkg/logger"
	"github.com/angelmondragon/rentals-backend/pkg/metrics"
	"github.com/angelmondragon/rentals-backend/pkg/migrate"
	"github.com/angelmondragon/rentals-backend/pkg/outbox"
	"github.com/angelmondragon/rentals-backend/pkg/redis"
	"github.com/angelmondragon/rentals-backend/pkg/storage/gcs"
)

func fatal(logg *logger.Logger, msg string, err error) {
	logg.Error(context.Background(), msg, err)
	os.Exit(1)
}

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		fatal(logg, "failed to load config", err)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
		Fields:      map[string]any{"env": cfg.App.Env, "instance": instance.GetID()},
	})

	// Money fields go out as JSON numbers.
	decimal.MarshalJSONWithoutQuotes = true

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		fatal(logg, "failed to bootstrap database", err)
	}
	closers := []func() error{dbClient.Close}

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		fatal(logg, "failed to run dev migrations", err)
	}

	ready := map[string]controllers.Pinger{"db": dbClient, "redis": nil}

	var (
		searchCache *redis.TagCache
		replay      middleware.ReplayStore
	)
	if cfg.Redis.Enabled() {
		redisClient, err := redis.New(ctx, cfg.Redis, logg)
		if err != nil {
			fatal(logg, "failed to bootstrap redis", err)
		}
		closers = append(closers, redisClient.Close)
		ready["redis"] = redisClient
		searchCache = redis.NewTagCache(redisClient, properties.CacheScope)
		replay = redisClient
	} else {
		logg.Warn(ctx, "redis disabled, property search is not cached")
	}

	gcsClient, err := gcs.NewClient(ctx, cfg.GCS, cfg.GCP, logg)
	if err != nil {
		fatal(logg, "failed to bootstrap gcs", err)
	}
	closers = append(closers, gcsClient.Close)
	ready["gcs"] = gcsClient

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	geocoder := geocode.NewClient(
		geocode.WithBaseURL(cfg.Geocoding.BaseURL),
		geocode.WithUserAgent(cfg.Geocoding.UserAgent),
		geocode.WithEmail(cfg.Geocoding.Email),
		geocode.WithTimeout(cfg.Geocoding.Timeout),
		geocode.WithCache(cfg.Geocoding.CacheTTL, cfg.Geocoding.CacheCapacity),
		geocode.WithMetrics(metrics.NewGeocodeMetrics(reg)),
	)
	go geocoder.Start()
	closers = append(closers, func() error { geocoder.Stop(); return nil })

	conn := dbClient.DB()
	propertyRepo := properties.NewRepository(conn)
	tenantRepo := tenants.NewRepository(conn)
	leaseRepo := leases.NewRepository(conn)
	emitter := outbox.NewWriter(outbox.NewRepository(conn), logg)

	propertySvc, err := properties.NewService(properties.ServiceParams{
		Repo:         propertyRepo,
		Tx:           dbClient,
		Spatial:      geo.NewPostGIS(conn),
		Resolver:     geo.NewResolver(geocoder, logg),
		Uploader:     photos.NewUploader(gcsClient, cfg.GCS, logg),
		Outbox:       emitter,
		Cache:        searchCache,
		CacheMetrics: metrics.NewSearchCacheMetrics(reg),
		CacheTTL:     cfg.Redis.SearchCacheTTL,
		Logger:       logg,
	})
	if err != nil {
		fatal(logg, "failed to create property service", err)
	}
	managerSvc, err := managers.NewService(managers.NewRepository(conn), propertyRepo, logg)
	if err != nil {
		fatal(logg, "failed to create manager service", err)
	}
	tenantSvc, err := tenants.NewService(tenantRepo, propertyRepo, logg)
	if err != nil {
		fatal(logg, "failed to create tenant service", err)
	}
	favoriteSvc, err := favorites.NewService(favorites.ServiceParams{
		Repo:       favorites.NewRepository(conn),
		TenantRepo: tenantRepo,
		Tenants:    tenantSvc,
		Properties: propertyRepo,
	})
	if err != nil {
		fatal(logg, "failed to create favorites service", err)
	}
	leaseSvc, err := leases.NewService(leaseRepo, propertyRepo)
	if err != nil {
		fatal(logg, "failed to create lease service", err)
	}
	applicationSvc, err := applications.NewService(applications.ServiceParams{
		Repo:       applications.NewRepository(conn),
		Leases:     leaseRepo,
		Tenants:    tenantRepo,
		Properties: propertyRepo,
		Tx:         dbClient,
		Outbox:     emitter,
		Cache:      searchCache,
		Logger:     logg,
	})
	if err != nil {
		fatal(logg, "failed to create application service", err)
	}
	provisioner, err := accounts.NewProvisioner(managerSvc, tenantSvc)
	if err != nil {
		fatal(logg, "failed to create account provisioner", err)
	}

	if !cfg.Auth.VerifySignatures() {
		logg.Warn(ctx, "RENTALS_JWT_SECRET unset, bearer tokens are decoded without signature verification")
	}

	addr := ":" + cfg.App.Port
	ctx = logg.WithField(ctx, "addr", addr)

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.Deps{
			Config:       cfg,
			Logger:       logg,
			Ready:        ready,
			Metrics:      metrics.NewHTTPMetrics(reg),
			Gatherer:     promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
			Tokens:       auth.NewVerifier(cfg.Auth),
			Accounts:     provisioner,
			Replay:       replay,
			Properties:   propertySvc,
			Managers:     managerSvc,
			Tenants:      tenantSvc,
			Favorites:    favoriteSvc,
			Leases:       leaseSvc,
			Applications: applicationSvc,
		}),
	}

	serveErr := make(chan error, 1)
	go func() {
		logg.Info(ctx, "starting api server")
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			fatal(logg, "api server stopped unexpectedly", err)
		}
	case <-ctx.Done():
	}

	logg.Info(ctx, "api server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer cancel()

	errs := server.Shutdown(shutdownCtx)
	for i := len(closers) - 1; i >= 0; i-- {
		errs = multierr.Append(errs, closers[i]())
	}
	if errs != nil {
		logg.Error(ctx, "shutdown finished with errors", errs)
		os.Exit(1)
	}
}
