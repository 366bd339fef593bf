package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/rentals-backend/internal/accounts"
	"github.com/angelmondragon/rentals-backend/pkg/auth"
	"github.com/angelmondragon/rentals-backend/pkg/config"
	"github.com/angelmondragon/rentals-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/rentals-backend/pkg/errors"
)

var testAuthConfig = config.AuthConfig{JWTSecret: "secret", Issuer: "issuer", RoleClaim: "custom:role"}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func mintTestToken(t *testing.T, id auth.Identity) string {
	t.Helper()
	token, err := auth.Mint(testAuthConfig, time.Now(), time.Hour, id)
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}

func serve(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	resp := httptest.NewRecorder()
	h.ServeHTTP(resp, req)
	return resp
}

func TestAuthRejectsMissingToken(t *testing.T) {
	handler := Auth(auth.NewVerifier(testAuthConfig), nil)(okHandler())

	for _, header := range []string{"", "Bearer ", "Bearer    "} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		if resp := serve(handler, req); resp.Code != http.StatusUnauthorized {
			t.Fatalf("header %q: expected 401 got %d", header, resp.Code)
		}
	}
}

func TestAuthRejectsInvalidToken(t *testing.T) {
	handler := Auth(auth.NewVerifier(testAuthConfig), nil)(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer invalid")
	if resp := serve(handler, req); resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestAuthAllowsValidToken(t *testing.T) {
	token := mintTestToken(t, auth.Identity{Subject: "ten-1", Role: enums.RoleTenant, Email: "t@example.com"})

	var captured auth.Identity
	handler := Auth(auth.NewVerifier(testAuthConfig), nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured, _ = IdentityFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	if resp := serve(handler, req); resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if captured.Subject != "ten-1" || captured.Role != enums.RoleTenant || captured.Email != "t@example.com" {
		t.Fatalf("unexpected identity %+v", captured)
	}
}

func TestRequireRoles(t *testing.T) {
	handler := RequireRoles(nil, enums.RoleManager)(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if resp := serve(handler, req); resp.Code != http.StatusUnauthorized {
		t.Fatalf("no identity: expected 401 got %d", resp.Code)
	}

	req = req.WithContext(WithIdentity(context.Background(), auth.Identity{Subject: "ten-1", Role: enums.RoleTenant}))
	if resp := serve(handler, req); resp.Code != http.StatusForbidden {
		t.Fatalf("tenant: expected 403 got %d", resp.Code)
	}

	req = req.WithContext(WithIdentity(context.Background(), auth.Identity{Subject: "mgr-1", Role: enums.RoleManager}))
	if resp := serve(handler, req); resp.Code != http.StatusOK {
		t.Fatalf("manager: expected 200 got %d", resp.Code)
	}
}

func TestRequireSubject(t *testing.T) {
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			ctx := WithIdentity(req.Context(), auth.Identity{Subject: "mgr-1", Role: enums.RoleManager})
			next.ServeHTTP(w, req.WithContext(ctx))
		})
	})
	r.With(RequireSubject("cognitoId", nil)).Get("/managers/{cognitoId}", okHandler().ServeHTTP)

	if resp := serve(r, httptest.NewRequest(http.MethodGet, "/managers/mgr-1", nil)); resp.Code != http.StatusOK {
		t.Fatalf("self: expected 200 got %d", resp.Code)
	}
	if resp := serve(r, httptest.NewRequest(http.MethodGet, "/managers/mgr-2", nil)); resp.Code != http.StatusForbidden {
		t.Fatalf("other: expected 403 got %d", resp.Code)
	}
}

type stubEnsurer struct {
	calls int
	err   error
}

func (s *stubEnsurer) Ensure(_ context.Context, id auth.Identity) (*accounts.Account, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return &accounts.Account{Role: id.Role}, nil
}

func TestProvision(t *testing.T) {
	ok := &stubEnsurer{}
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(WithIdentity(req.Context(), auth.Identity{Subject: "ten-1", Role: enums.RoleTenant}))

	if resp := serve(Provision(ok, nil)(okHandler()), req); resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if ok.calls != 1 {
		t.Fatalf("expected one ensure call, got %d", ok.calls)
	}

	failing := &stubEnsurer{err: pkgerrors.New(pkgerrors.CodeForbidden, "token carries no recognised role")}
	if resp := serve(Provision(failing, nil)(okHandler()), req); resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 got %d", resp.Code)
	}
}
