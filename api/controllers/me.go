package controllers

import (
	"net/http"

	"github.com/angelmondragon/rentals-backend/api/middleware"
	"github.com/angelmondragon/rentals-backend/api/responses"
	"github.com/angelmondragon/rentals-backend/pkg/logger"
)

// Me returns the caller's manager or tenant record, provisioning it from the
// token on first call.
func Me(ensurer middleware.AccountEnsurer, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := caller(w, r, logg)
		if !ok {
			return
		}
		account, err := ensurer.Ensure(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, account)
	}
}
