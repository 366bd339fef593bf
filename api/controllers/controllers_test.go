package controllers

import (
	"bytes"
	"context"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/rentals-backend/api/middleware"
	"github.com/angelmondragon/rentals-backend/internal/applications"
	"github.com/angelmondragon/rentals-backend/internal/managers"
	"github.com/angelmondragon/rentals-backend/internal/photos"
	"github.com/angelmondragon/rentals-backend/internal/properties"
	"github.com/angelmondragon/rentals-backend/pkg/auth"
	"github.com/angelmondragon/rentals-backend/pkg/config"
	"github.com/angelmondragon/rentals-backend/pkg/enums"
	"github.com/angelmondragon/rentals-backend/pkg/search"
)

var gcsLimits = config.GCSConfig{MaxPhotoMB: 1, MaxPhotos: 2}

type recordingProperties struct {
	properties.Service
	manager string
	input   properties.CreateInput
	files   []photos.File
}

func (p *recordingProperties) Create(_ context.Context, manager string, input properties.CreateInput, files []photos.File) (*properties.PropertyDTO, *properties.CreateMeta, error) {
	p.manager, p.input, p.files = manager, input, files
	return &properties.PropertyDTO{ID: 11, Name: input.Name}, &properties.CreateMeta{}, nil
}

func (p *recordingProperties) Search(context.Context, search.Params) ([]properties.PropertyDTO, error) {
	return []properties.PropertyDTO{}, nil
}

func withIdentity(req *http.Request, subject string, role enums.Role) *http.Request {
	return req.WithContext(middleware.WithIdentity(req.Context(), auth.Identity{Subject: subject, Role: role}))
}

func propertyForm(t *testing.T, fields map[string]string, photo bool) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if photo {
		part, err := mw.CreateFormFile("photos", "front.jpg")
		require.NoError(t, err)
		_, err = part.Write([]byte{0xff, 0xd8, 0xff, 0xe0})
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return body, mw.FormDataContentType()
}

func validFields() map[string]string {
	return map[string]string{
		"name":            "Sunny Loft",
		"pricePerMonth":   "2450.50",
		"securityDeposit": "500",
		"beds":            "2",
		"baths":           "1.5",
		"squareFeet":      "900",
		"propertyType":    "Apartment",
		"amenities":       "Gym, Pool",
		"isPetsAllowed":   "true",
		"address":         "1 Main St",
		"city":            "Austin",
		"country":         "United States",
		"postalCode":      "73301",
	}
}

func TestPropertyCreateParsesMultipart(t *testing.T) {
	svc := &recordingProperties{}
	body, contentType := propertyForm(t, validFields(), true)
	req := withIdentity(httptest.NewRequest(http.MethodPost, "/properties", body), "mgr-1", enums.RoleManager)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	PropertyCreate(svc, gcsLimits, nil)(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "mgr-1", svc.manager)
	assert.True(t, decimal.RequireFromString("2450.50").Equal(svc.input.PricePerMonth))
	assert.Equal(t, []string{"Gym", "Pool"}, svc.input.Amenities)
	assert.Equal(t, 2, svc.input.Beds)
	assert.InDelta(t, 1.5, svc.input.Baths, 0.001)
	assert.True(t, svc.input.IsPetsAllowed)
	assert.False(t, svc.input.IsParkingIncluded)
	require.Len(t, svc.files, 1)
	assert.Equal(t, "front.jpg", svc.files[0].Name)
	assert.Contains(t, rec.Body.String(), `"meta"`)
}

func TestPropertyCreateRejections(t *testing.T) {
	cases := map[string]struct {
		mutate func(map[string]string)
		status int
	}{
		"missing name":    {func(f map[string]string) { delete(f, "name") }, http.StatusBadRequest},
		"bad price":       {func(f map[string]string) { f["pricePerMonth"] = "cheap" }, http.StatusBadRequest},
		"bad flag":        {func(f map[string]string) { f["isPetsAllowed"] = "maybe" }, http.StatusBadRequest},
		"foreign manager": {func(f map[string]string) { f["managerCognitoId"] = "mgr-2" }, http.StatusForbidden},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			svc := &recordingProperties{}
			fields := validFields()
			tc.mutate(fields)
			body, contentType := propertyForm(t, fields, false)
			req := withIdentity(httptest.NewRequest(http.MethodPost, "/properties", body), "mgr-1", enums.RoleManager)
			req.Header.Set("Content-Type", contentType)
			rec := httptest.NewRecorder()

			PropertyCreate(svc, gcsLimits, nil)(rec, req)

			assert.Equal(t, tc.status, rec.Code, rec.Body.String())
			assert.Empty(t, svc.manager)
		})
	}
}

func TestPropertyCreateRequiresMultipart(t *testing.T) {
	req := withIdentity(httptest.NewRequest(http.MethodPost, "/properties", strings.NewReader(`{}`)), "mgr-1", enums.RoleManager)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	PropertyCreate(&recordingProperties{}, gcsLimits, nil)(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

type recordingManagers struct {
	managers.Service
	cognitoID string
	contact   managers.Contact
}

func (m *recordingManagers) Create(_ context.Context, cognitoID string, contact managers.Contact) (*managers.ManagerDTO, error) {
	m.cognitoID, m.contact = cognitoID, contact
	return &managers.ManagerDTO{CognitoID: cognitoID, Name: contact.Name}, nil
}

func TestManagerCreateDefaultsToCaller(t *testing.T) {
	svc := &recordingManagers{}
	req := withIdentity(httptest.NewRequest(http.MethodPost, "/managers",
		strings.NewReader(`{"name":"Morgan","email":"m@example.com"}`)), "mgr-1", enums.RoleManager)
	rec := httptest.NewRecorder()

	ManagerCreate(svc, nil)(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "mgr-1", svc.cognitoID)
	assert.Equal(t, "Morgan", svc.contact.Name)
}

func TestManagerCreateRejectsOtherSubject(t *testing.T) {
	svc := &recordingManagers{}
	req := withIdentity(httptest.NewRequest(http.MethodPost, "/managers",
		strings.NewReader(`{"cognitoId":"mgr-2","name":"Morgan","email":"m@example.com"}`)), "mgr-1", enums.RoleManager)
	rec := httptest.NewRecorder()

	ManagerCreate(svc, nil)(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Empty(t, svc.cognitoID)
}

type recordingApplications struct {
	applications.Service
	id     int64
	status enums.ApplicationStatus
}

func (a *recordingApplications) UpdateStatus(_ context.Context, _ auth.Identity, id int64, status enums.ApplicationStatus) (*applications.ApplicationDTO, error) {
	a.id, a.status = id, status
	return &applications.ApplicationDTO{ID: id, Status: status}, nil
}

func TestApplicationUpdateStatus(t *testing.T) {
	svc := &recordingApplications{}
	r := chi.NewRouter()
	r.Put("/applications/{id}", ApplicationUpdateStatus(svc, nil))

	put := func(body string) *httptest.ResponseRecorder {
		req := withIdentity(httptest.NewRequest(http.MethodPut, "/applications/5", strings.NewReader(body)), "mgr-1", enums.RoleManager)
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusBadRequest, put(`{"status":"Maybe"}`).Code)
	assert.Equal(t, http.StatusBadRequest, put(`{}`).Code)
	assert.Zero(t, svc.id)

	rec := put(`{"status":"Approved"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.EqualValues(t, 5, svc.id)
	assert.Equal(t, enums.ApplicationStatusApproved, svc.status)
}

type pingFunc func(context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestHealthReady(t *testing.T) {
	cfg := &config.Config{App: config.AppConfig{Env: "test"}}
	up := pingFunc(func(context.Context) error { return nil })
	down := pingFunc(func(context.Context) error { return errors.New("connection refused") })

	rec := httptest.NewRecorder()
	HealthReady(cfg, nil, map[string]Pinger{"db": up, "redis": nil})(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"redis":"disabled"`)
	assert.Equal(t, "test", rec.Header().Get("X-Rentals-Env"))

	rec = httptest.NewRecorder()
	HealthReady(cfg, nil, map[string]Pinger{"db": up, "gcs": down})(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), `"gcs":"down"`)
}

func TestCallerRequiresIdentity(t *testing.T) {
	rec := httptest.NewRecorder()
	LeaseList(nil, nil)(rec, httptest.NewRequest(http.MethodGet, "/leases", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
