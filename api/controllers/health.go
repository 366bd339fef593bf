package controllers

import (
	"context"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/angelmondragon/rentals-backend/api/responses"
	"github.com/angelmondragon/rentals-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/rentals-backend/pkg/errors"
	"github.com/angelmondragon/rentals-backend/pkg/logger"
)

const readinessTimeout = 2 * time.Second

// Pinger is a dependency the readiness probe checks.
type Pinger interface {
	Ping(ctx context.Context) error
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Rentals-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady pings every configured dependency concurrently. A nil pinger
// is reported as disabled and does not fail readiness.
func HealthReady(cfg *config.Config, logg *logger.Logger, deps map[string]Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Rentals-Env", cfg.App.Env)

		ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
		defer cancel()

		results := make(map[string]string, len(deps))
		errs := make(map[string]error, len(deps))
		names := make([]string, 0, len(deps))
		for name := range deps {
			names = append(names, name)
		}
		outcome := make([]error, len(names))

		var g errgroup.Group
		for i, name := range names {
			p := deps[name]
			if p == nil {
				continue
			}
			g.Go(func() error {
				outcome[i] = p.Ping(ctx)
				return nil
			})
		}
		_ = g.Wait()

		for i, name := range names {
			switch {
			case deps[name] == nil:
				results[name] = "disabled"
			case outcome[i] != nil:
				results[name] = "down"
				errs[name] = outcome[i]
			default:
				results[name] = "up"
			}
		}

		if len(errs) > 0 {
			if logg != nil {
				fields := map[string]any{}
				for name, err := range errs {
					fields["dep_"+name] = err.Error()
				}
				logg.Warn(logg.WithFields(r.Context(), fields), "readiness check failed")
			}
			responses.WriteError(r.Context(), nil, w,
				pkgerrors.New(pkgerrors.CodeDependency, "dependencies unavailable").WithDetails(results))
			return
		}
		responses.WriteSuccess(w, map[string]any{"status": "ready", "dependencies": results})
	}
}
