package controllers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/rentals-backend/api/responses"
	"github.com/angelmondragon/rentals-backend/api/validators"
	"github.com/angelmondragon/rentals-backend/internal/favorites"
	"github.com/angelmondragon/rentals-backend/internal/tenants"
	"github.com/angelmondragon/rentals-backend/pkg/logger"
)

func FavoriteAdd(svc favorites.Service, logg *logger.Logger) http.HandlerFunc {
	return favoriteToggle(svc.Add, logg)
}

func FavoriteRemove(svc favorites.Service, logg *logger.Logger) http.HandlerFunc {
	return favoriteToggle(svc.Remove, logg)
}

func favoriteToggle(op func(context.Context, string, int64) (*tenants.TenantDTO, error), logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		propertyID, err := validators.ParsePathID(r, "propertyId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		t, err := op(r.Context(), chi.URLParam(r, cognitoIDParam), propertyID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, t)
	}
}
