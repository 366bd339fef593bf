package middleware

import (
	"context"
	"net/http"

	"github.com/angelmondragon/rentals-backend/api/responses"
	"github.com/angelmondragon/rentals-backend/internal/accounts"
	"github.com/angelmondragon/rentals-backend/pkg/auth"
	pkgerrors "github.com/angelmondragon/rentals-backend/pkg/errors"
	"github.com/angelmondragon/rentals-backend/pkg/logger"
)

type AccountEnsurer interface {
	Ensure(ctx context.Context, id auth.Identity) (*accounts.Account, error)
}

// Provision makes sure the caller has a manager or tenant record before the
// handler runs, creating one from the token claims on first sight.
func Provision(ensurer AccountEnsurer, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := IdentityFromContext(r.Context())
			if !ok {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}
			if _, err := ensurer.Ensure(r.Context(), id); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
