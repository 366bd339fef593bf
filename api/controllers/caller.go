package controllers

import (
	"net/http"

	"github.com/angelmondragon/rentals-backend/api/middleware"
	"github.com/angelmondragon/rentals-backend/api/responses"
	"github.com/angelmondragon/rentals-backend/pkg/auth"
	pkgerrors "github.com/angelmondragon/rentals-backend/pkg/errors"
	"github.com/angelmondragon/rentals-backend/pkg/logger"
)

// caller returns the authenticated identity, writing a 401 when the route
// was mounted without Auth.
func caller(w http.ResponseWriter, r *http.Request, logg *logger.Logger) (auth.Identity, bool) {
	id, ok := middleware.IdentityFromContext(r.Context())
	if !ok || id.Subject == "" {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
		return auth.Identity{}, false
	}
	return id, true
}
