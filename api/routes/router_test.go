package routes

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/rentals-backend/api/controllers"
	"github.com/angelmondragon/rentals-backend/internal/accounts"
	"github.com/angelmondragon/rentals-backend/internal/applications"
	"github.com/angelmondragon/rentals-backend/internal/favorites"
	"github.com/angelmondragon/rentals-backend/internal/leases"
	"github.com/angelmondragon/rentals-backend/internal/managers"
	"github.com/angelmondragon/rentals-backend/internal/photos"
	"github.com/angelmondragon/rentals-backend/internal/properties"
	"github.com/angelmondragon/rentals-backend/internal/tenants"
	"github.com/angelmondragon/rentals-backend/pkg/auth"
	"github.com/angelmondragon/rentals-backend/pkg/config"
	"github.com/angelmondragon/rentals-backend/pkg/db/dbtest"
	"github.com/angelmondragon/rentals-backend/pkg/enums"
	"github.com/angelmondragon/rentals-backend/pkg/logger"
	"github.com/angelmondragon/rentals-backend/pkg/metrics"
	"github.com/angelmondragon/rentals-backend/pkg/search"
)

var testAuth = config.AuthConfig{JWTSecret: "router-secret", Issuer: "rentals-test", RoleClaim: "custom:role"}

type stubProperties struct{}

func (stubProperties) Search(context.Context, search.Params) ([]properties.PropertyDTO, error) {
	return []properties.PropertyDTO{{ID: 7, Name: "Loft"}}, nil
}

func (stubProperties) Get(_ context.Context, id int64) (*properties.PropertyDTO, error) {
	return &properties.PropertyDTO{ID: id, Name: "Loft"}, nil
}

func (stubProperties) ListByManager(context.Context, string) ([]properties.PropertyDTO, error) {
	return nil, nil
}

func (stubProperties) ListResidences(context.Context, string) ([]properties.PropertyDTO, error) {
	return nil, nil
}

func (stubProperties) Create(context.Context, string, properties.CreateInput, []photos.File) (*properties.PropertyDTO, *properties.CreateMeta, error) {
	return nil, nil, fmt.Errorf("not implemented")
}

type stubApplications struct{}

func (stubApplications) List(context.Context, auth.Identity, applications.ListQuery) ([]applications.ApplicationDTO, error) {
	return []applications.ApplicationDTO{}, nil
}

func (stubApplications) Create(context.Context, auth.Identity, applications.CreateInput) (*applications.ApplicationDTO, error) {
	return nil, fmt.Errorf("not implemented")
}

func (stubApplications) UpdateStatus(context.Context, auth.Identity, int64, enums.ApplicationStatus) (*applications.ApplicationDTO, error) {
	return nil, fmt.Errorf("not implemented")
}

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error { return nil }

func newTestRouter(t *testing.T) (http.Handler, int64) {
	t.Helper()
	conn := dbtest.SQLite(t)
	logg := logger.New(logger.Options{ServiceName: "router-test", Output: io.Discard})
	propRepo := properties.NewRepository(conn)
	tenantRepo := tenants.NewRepository(conn)

	managerSvc, err := managers.NewService(managers.NewRepository(conn), propRepo, logg)
	require.NoError(t, err)
	tenantSvc, err := tenants.NewService(tenantRepo, propRepo, logg)
	require.NoError(t, err)
	favoriteSvc, err := favorites.NewService(favorites.ServiceParams{
		Repo:       favorites.NewRepository(conn),
		TenantRepo: tenantRepo,
		Tenants:    tenantSvc,
		Properties: propRepo,
	})
	require.NoError(t, err)
	leaseSvc, err := leases.NewService(leases.NewRepository(conn), propRepo)
	require.NoError(t, err)
	provisioner, err := accounts.NewProvisioner(managerSvc, tenantSvc)
	require.NoError(t, err)

	dbtest.SeedManager(t, conn, "mgr-seed")
	listing := dbtest.SeedProperty(t, conn, "mgr-seed", dbtest.PropertySeed{})

	reg := prometheus.NewRegistry()
	cfg := &config.Config{
		App:  config.AppConfig{Env: "test", AllowedOrigins: []string{"*"}},
		Auth: testAuth,
	}
	router := NewRouter(Deps{
		Config:       cfg,
		Logger:       logg,
		Ready:        map[string]controllers.Pinger{"db": stubPinger{}, "redis": nil},
		Metrics:      metrics.NewHTTPMetrics(reg),
		Gatherer:     promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		Tokens:       auth.NewVerifier(testAuth),
		Accounts:     provisioner,
		Properties:   stubProperties{},
		Managers:     managerSvc,
		Tenants:      tenantSvc,
		Favorites:    favoriteSvc,
		Leases:       leaseSvc,
		Applications: stubApplications{},
	})
	return router, listing.ID
}

func bearer(t *testing.T, subject string, role enums.Role) string {
	t.Helper()
	token, err := auth.Mint(testAuth, time.Now(), time.Hour, auth.Identity{Subject: subject, Role: role, Email: subject + "@example.com"})
	require.NoError(t, err)
	return "Bearer " + token
}

func do(h http.Handler, method, path, authz string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if authz != "" {
		req.Header.Set("Authorization", authz)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder, dest any) {
	t.Helper()
	var env struct {
		Data json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	require.NoError(t, json.Unmarshal(env.Data, dest))
}

func TestPublicRoutes(t *testing.T) {
	router, _ := newTestRouter(t)

	assert.Equal(t, http.StatusOK, do(router, http.MethodGet, "/health/live", "").Code)
	assert.Equal(t, http.StatusOK, do(router, http.MethodGet, "/health/ready", "").Code)

	rec := do(router, http.MethodGet, "/properties?priceMin=100", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list []properties.PropertyDTO
	decodeData(t, rec, &list)
	require.Len(t, list, 1)
	assert.EqualValues(t, 7, list[0].ID)

	assert.Equal(t, http.StatusOK, do(router, http.MethodGet, "/properties/3", "").Code)
	assert.Equal(t, http.StatusBadRequest, do(router, http.MethodGet, "/properties/abc", "").Code)
	assert.Equal(t, http.StatusOK, do(router, http.MethodGet, "/metrics", "").Code)
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	router, _ := newTestRouter(t)

	for _, path := range []string{"/me", "/managers/mgr-1", "/tenants/ten-1", "/leases", "/applications"} {
		assert.Equal(t, http.StatusUnauthorized, do(router, http.MethodGet, path, "").Code, path)
	}
	assert.Equal(t, http.StatusUnauthorized, do(router, http.MethodGet, "/me", "Bearer not-a-jwt").Code)
}

func TestManagerRouteProvisionsCaller(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := do(router, http.MethodGet, "/managers/mgr-1", bearer(t, "mgr-1", enums.RoleManager))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var got managers.ManagerDTO
	decodeData(t, rec, &got)
	assert.Equal(t, "mgr-1", got.CognitoID)
	assert.Equal(t, "mgr-1@example.com", got.Email)

	rec = do(router, http.MethodGet, "/managers/mgr-1/properties", bearer(t, "mgr-1", enums.RoleManager))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRoleAndSubjectGates(t *testing.T) {
	router, _ := newTestRouter(t)

	assert.Equal(t, http.StatusForbidden, do(router, http.MethodGet, "/managers/mgr-2", bearer(t, "mgr-1", enums.RoleManager)).Code)
	assert.Equal(t, http.StatusForbidden, do(router, http.MethodGet, "/tenants/mgr-1", bearer(t, "mgr-1", enums.RoleManager)).Code)
	assert.Equal(t, http.StatusForbidden, do(router, http.MethodPost, "/properties", bearer(t, "ten-1", enums.RoleTenant)).Code)
}

func TestTenantFavoritesThroughRouter(t *testing.T) {
	router, listingID := newTestRouter(t)
	token := bearer(t, "ten-1", enums.RoleTenant)
	path := fmt.Sprintf("/tenants/ten-1/favorites/%d", listingID)

	rec := do(router, http.MethodPost, path, token)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var got tenants.TenantDTO
	decodeData(t, rec, &got)
	assert.Equal(t, []int64{listingID}, got.FavoriteIDs)

	rec = do(router, http.MethodDelete, path, token)
	require.Equal(t, http.StatusOK, rec.Code)
	decodeData(t, rec, &got)
	assert.Empty(t, got.FavoriteIDs)

	assert.Equal(t, http.StatusNotFound, do(router, http.MethodPost, "/tenants/ten-1/favorites/99999", token).Code)
}

func TestMeReturnsRoleAndProfile(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := do(router, http.MethodGet, "/me", bearer(t, "ten-9", enums.RoleTenant))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var got struct {
		Role string            `json:"role"`
		User tenants.TenantDTO `json:"user"`
	}
	decodeData(t, rec, &got)
	assert.Equal(t, "tenant", got.Role)
	assert.Equal(t, "ten-9", got.User.CognitoID)
}

func TestLeasesAndApplicationsReachable(t *testing.T) {
	router, _ := newTestRouter(t)
	token := bearer(t, "ten-1", enums.RoleTenant)

	rec := do(router, http.MethodGet, "/leases", token)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{"data":[]}`, rec.Body.String())

	assert.Equal(t, http.StatusOK, do(router, http.MethodGet, "/applications", token).Code)
	assert.Equal(t, http.StatusNotFound, do(router, http.MethodGet, "/leases/42/payments", token).Code)
}
