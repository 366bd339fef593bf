package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/rentals-backend/api/responses"
	"github.com/angelmondragon/rentals-backend/api/validators"
	"github.com/angelmondragon/rentals-backend/internal/leases"
	"github.com/angelmondragon/rentals-backend/internal/photos"
	"github.com/angelmondragon/rentals-backend/internal/properties"
	"github.com/angelmondragon/rentals-backend/pkg/config"
	"github.com/angelmondragon/rentals-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/rentals-backend/pkg/errors"
	"github.com/angelmondragon/rentals-backend/pkg/logger"
	"github.com/angelmondragon/rentals-backend/pkg/search"
)

const (
	photosField        = "photos"
	multipartMemory    = 8 << 20
	multipartFormSlack = 1 << 20
)

// createPropertyForm mirrors the multipart text fields of a new listing.
type createPropertyForm struct {
	Name              string `json:"name" validate:"required,notblank,max=200"`
	Description       string `json:"description" validate:"max=5000"`
	PricePerMonth     string `json:"pricePerMonth" validate:"required,numeric"`
	SecurityDeposit   string `json:"securityDeposit" validate:"omitempty,numeric"`
	ApplicationFee    string `json:"applicationFee" validate:"omitempty,numeric"`
	Amenities         string `json:"amenities"`
	Highlights        string `json:"highlights"`
	IsPetsAllowed     string `json:"isPetsAllowed" validate:"omitempty,oneof=true false"`
	IsParkingIncluded string `json:"isParkingIncluded" validate:"omitempty,oneof=true false"`
	Beds              string `json:"beds" validate:"required,number"`
	Baths             string `json:"baths" validate:"required,numeric"`
	SquareFeet        string `json:"squareFeet" validate:"required,number"`
	PropertyType      string `json:"propertyType" validate:"required"`
	Address           string `json:"address" validate:"required"`
	City              string `json:"city" validate:"required"`
	State             string `json:"state"`
	Country           string `json:"country" validate:"required"`
	PostalCode        string `json:"postalCode" validate:"required"`
	ManagerCognitoID  string `json:"managerCognitoId"`
}

func readPropertyForm(r *http.Request) createPropertyForm {
	v := func(key string) string { return validators.SanitizeString(r.FormValue(key), 0) }
	return createPropertyForm{
		Name:              v("name"),
		Description:       v("description"),
		PricePerMonth:     v("pricePerMonth"),
		SecurityDeposit:   v("securityDeposit"),
		ApplicationFee:    v("applicationFee"),
		Amenities:         v("amenities"),
		Highlights:        v("highlights"),
		IsPetsAllowed:     v("isPetsAllowed"),
		IsParkingIncluded: v("isParkingIncluded"),
		Beds:              v("beds"),
		Baths:             v("baths"),
		SquareFeet:        v("squareFeet"),
		PropertyType:      v("propertyType"),
		Address:           v("address"),
		City:              v("city"),
		State:             v("state"),
		Country:           v("country"),
		PostalCode:        v("postalCode"),
		ManagerCognitoID:  v("managerCognitoId"),
	}
}

// input converts a validated form. Numeric fields were checked by their
// validate tags, so parse errors here are unexpected.
func (f createPropertyForm) input() (properties.CreateInput, error) {
	amount := func(raw string) (decimal.Decimal, error) {
		if raw == "" {
			return decimal.Zero, nil
		}
		return decimal.NewFromString(raw)
	}
	price, err := amount(f.PricePerMonth)
	if err != nil {
		return properties.CreateInput{}, err
	}
	deposit, err := amount(f.SecurityDeposit)
	if err != nil {
		return properties.CreateInput{}, err
	}
	fee, err := amount(f.ApplicationFee)
	if err != nil {
		return properties.CreateInput{}, err
	}
	beds, err := strconv.Atoi(f.Beds)
	if err != nil {
		return properties.CreateInput{}, err
	}
	baths, err := strconv.ParseFloat(f.Baths, 64)
	if err != nil {
		return properties.CreateInput{}, err
	}
	sqft, err := strconv.Atoi(f.SquareFeet)
	if err != nil {
		return properties.CreateInput{}, err
	}
	return properties.CreateInput{
		Name:              f.Name,
		Description:       f.Description,
		PricePerMonth:     price,
		SecurityDeposit:   deposit,
		ApplicationFee:    fee,
		Amenities:         validators.SplitList(f.Amenities),
		Highlights:        validators.SplitList(f.Highlights),
		IsPetsAllowed:     f.IsPetsAllowed == "true",
		IsParkingIncluded: f.IsParkingIncluded == "true",
		Beds:              beds,
		Baths:             baths,
		SquareFeet:        sqft,
		PropertyType:      enums.PropertyType(f.PropertyType),
		Address:           f.Address,
		City:              f.City,
		State:             f.State,
		Country:           f.Country,
		PostalCode:        f.PostalCode,
	}, nil
}

// PropertySearch lists properties matching the query filters.
func PropertySearch(svc properties.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := svc.Search(r.Context(), search.ParseParams(r.URL.Query()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

func PropertyGet(svc properties.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParsePathID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		property, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, property)
	}
}

// PropertyCreate accepts a multipart form with listing fields and up to the
// configured number of files under "photos".
func PropertyCreate(svc properties.Service, limits config.GCSConfig, logg *logger.Logger) http.HandlerFunc {
	maxBody := int64(limits.MaxPhotos)*int64(limits.MaxPhotoMB)<<20 + multipartFormSlack
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		id, ok := caller(w, r, logg)
		if !ok {
			return
		}

		r.Body = http.MaxBytesReader(w, r.Body, maxBody)
		if err := r.ParseMultipartForm(multipartMemory); err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "request body too large").
					WithDetails(map[string]any{"maxBytes": maxBody}))
				return
			}
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "expected multipart form data"))
			return
		}
		defer func() {
			_ = r.MultipartForm.RemoveAll()
		}()

		form := readPropertyForm(r)
		if err := validators.ValidateStruct(&form); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		if form.ManagerCognitoID != "" && form.ManagerCognitoID != id.Subject {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "managerCognitoId must match the caller"))
			return
		}
		input, err := form.input()
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid numeric field"))
			return
		}

		files := photos.FromMultipart(r.MultipartForm.File[photosField])
		created, meta, err := svc.Create(ctx, id.Subject, input, files)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessMeta(w, http.StatusCreated, created, meta)
	}
}

// PropertyLeases lists the leases on a property visible to the caller.
func PropertyLeases(svc leases.Service, logg *logger.Logger) http.HandlerFunc {
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
		list, err := svc.ListByProperty(r.Context(), actor, id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}
