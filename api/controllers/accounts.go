package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/rentals-backend/api/responses"
	"github.com/angelmondragon/rentals-backend/api/validators"
	"github.com/angelmondragon/rentals-backend/internal/managers"
	"github.com/angelmondragon/rentals-backend/internal/tenants"
	pkgerrors "github.com/angelmondragon/rentals-backend/pkg/errors"
	"github.com/angelmondragon/rentals-backend/pkg/logger"
)

const cognitoIDParam = "cognitoId"

type createAccountRequest struct {
	CognitoID   string `json:"cognitoId"`
	Name        string `json:"name" validate:"required,notblank,max=200"`
	Email       string `json:"email" validate:"required,email"`
	PhoneNumber string `json:"phoneNumber" validate:"max=50"`
}

type updateAccountRequest struct {
	Name        string `json:"name" validate:"required,notblank,max=200"`
	Email       string `json:"email" validate:"required,email"`
	PhoneNumber string `json:"phoneNumber" validate:"max=50"`
}

// decodeCreate reads a create body and resolves the cognito id, which
// defaults to the caller and may not name anyone else.
func decodeCreate(w http.ResponseWriter, r *http.Request, logg *logger.Logger) (string, createAccountRequest, bool) {
	id, ok := caller(w, r, logg)
	if !ok {
		return "", createAccountRequest{}, false
	}
	var body createAccountRequest
	if err := validators.DecodeJSONBody(r, &body); err != nil {
		responses.WriteError(r.Context(), logg, w, err)
		return "", body, false
	}
	cognitoID := validators.SanitizeString(body.CognitoID, 0)
	if cognitoID == "" {
		cognitoID = id.Subject
	}
	if cognitoID != id.Subject {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "cognitoId must match the caller"))
		return "", body, false
	}
	return cognitoID, body, true
}

func ManagerCreate(svc managers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cognitoID, body, ok := decodeCreate(w, r, logg)
		if !ok {
			return
		}
		m, err := svc.Create(r.Context(), cognitoID, managers.Contact{Name: body.Name, Email: body.Email, PhoneNumber: body.PhoneNumber})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, m)
	}
}

func ManagerGet(svc managers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		m, err := svc.Get(r.Context(), chi.URLParam(r, cognitoIDParam))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, m)
	}
}

func ManagerUpdate(svc managers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body updateAccountRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		m, err := svc.Update(r.Context(), chi.URLParam(r, cognitoIDParam), managers.Contact{Name: body.Name, Email: body.Email, PhoneNumber: body.PhoneNumber})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, m)
	}
}

func ManagerProperties(svc managers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := svc.ListProperties(r.Context(), chi.URLParam(r, cognitoIDParam))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

func TenantCreate(svc tenants.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cognitoID, body, ok := decodeCreate(w, r, logg)
		if !ok {
			return
		}
		t, err := svc.Create(r.Context(), cognitoID, tenants.Contact{Name: body.Name, Email: body.Email, PhoneNumber: body.PhoneNumber})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, t)
	}
}

func TenantGet(svc tenants.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		t, err := svc.Get(r.Context(), chi.URLParam(r, cognitoIDParam))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, t)
	}
}

func TenantUpdate(svc tenants.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body updateAccountRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		t, err := svc.Update(r.Context(), chi.URLParam(r, cognitoIDParam), tenants.Contact{Name: body.Name, Email: body.Email, PhoneNumber: body.PhoneNumber})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, t)
	}
}

func TenantResidences(svc tenants.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := svc.CurrentResidences(r.Context(), chi.URLParam(r, cognitoIDParam))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}
