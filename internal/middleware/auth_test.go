package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/toolshare/marketplace-api/internal/model"
)

const testSecret = "middleware-test-secret"

func signToken(t *testing.T, accountID string, role model.Role) string {
	t.Helper()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   accountID,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		Role: role,
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return token
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuthPopulatesContext(t *testing.T) {
	var gotID string
	var gotRole model.Role
	handler := Auth(testSecret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotID = GetAccountID(r.Context())
		gotRole = GetRole(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, "acct-1", model.RoleOwner))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	if gotID != "acct-1" || gotRole != model.RoleOwner {
		t.Fatalf("unexpected claims: id=%q role=%q", gotID, gotRole)
	}
}

func TestAuthRejectsBadTokens(t *testing.T) {
	handler := Auth(testSecret)(okHandler())

	cases := map[string]string{
		"missing header": "",
		"not bearer":     "Basic abc",
		"garbage token":  "Bearer not.a.token",
	}
	for name, header := range cases {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("%s: expected 401 got %d", name, rec.Code)
		}
	}
}

func TestAuthRejectsWrongSecret(t *testing.T) {
	handler := Auth("other-secret")(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, "acct-1", model.RoleRenter))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", rec.Code)
	}
}

func TestRequireRole(t *testing.T) {
	handler := RequireRole(model.RoleOwner)(okHandler())

	serve := func(role model.Role) int {
		req := httptest.NewRequest(http.MethodDelete, "/", nil)
		ctx := context.WithValue(req.Context(), RoleKey, role)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req.WithContext(ctx))
		return rec.Code
	}

	if code := serve(model.RoleOwner); code != http.StatusOK {
		t.Fatalf("expected listed role to pass, got %d", code)
	}
	if code := serve(model.RoleAdmin); code != http.StatusOK {
		t.Fatalf("expected admin to pass, got %d", code)
	}
	if code := serve(model.RoleRenter); code != http.StatusForbidden {
		t.Fatalf("expected 403 for unlisted role, got %d", code)
	}
}

func TestRequireRoleAdminOnly(t *testing.T) {
	handler := RequireRole(model.RoleAdmin)(okHandler())

	req := httptest.NewRequest(http.MethodDelete, "/", nil)
	ctx := context.WithValue(req.Context(), RoleKey, model.RoleOwner)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req.WithContext(ctx))
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for non-admin, got %d", rec.Code)
	}
}
