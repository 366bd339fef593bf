package controllers

import (
	"net/http"

	"github.com/angelmondragon/rentals-backend/api/responses"
	"github.com/angelmondragon/rentals-backend/api/validators"
	"github.com/angelmondragon/rentals-backend/internal/applications"
	"github.com/angelmondragon/rentals-backend/pkg/enums"
	"github.com/angelmondragon/rentals-backend/pkg/logger"
)

type createApplicationRequest struct {
	PropertyID  int64  `json:"propertyId" validate:"required,gt=0"`
	Name        string `json:"name" validate:"required,notblank,max=200"`
	Email       string `json:"email" validate:"required,email"`
	PhoneNumber string `json:"phoneNumber" validate:"required,max=50"`
	Message     string `json:"message" validate:"max=2000"`
	// Accepted for compatibility; the caller's token decides the tenant.
	TenantCognitoID string `json:"tenantCognitoId"`
	ApplicationDate string `json:"applicationDate"`
	Status          string `json:"status"`
}

type updateApplicationRequest struct {
	Status string `json:"status" validate:"required,oneof=Pending Approved Denied"`
}

func ApplicationList(svc applications.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := caller(w, r, logg)
		if !ok {
			return
		}
		q := r.URL.Query()
		list, err := svc.List(r.Context(), actor, applications.ListQuery{
			UserType: q.Get("userType"),
			UserID:   q.Get("userId"),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

func ApplicationCreate(svc applications.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := caller(w, r, logg)
		if !ok {
			return
		}
		var body createApplicationRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		app, err := svc.Create(r.Context(), actor, applications.CreateInput{
			PropertyID:  body.PropertyID,
			Name:        body.Name,
			Email:       body.Email,
			PhoneNumber: body.PhoneNumber,
			Message:     body.Message,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, app)
	}
}

func ApplicationUpdateStatus(svc applications.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := caller(w, r, logg)
		if !ok {
			return
		}
		id, err := validators.ParsePathID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body updateApplicationRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		app, err := svc.UpdateStatus(r.Context(), actor, id, enums.ApplicationStatus(body.Status))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, app)
	}
}
