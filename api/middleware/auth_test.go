package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	pkgauth "github.com/mateovilla/clickshop-backend/pkg/auth"
	"github.com/mateovilla/clickshop-backend/pkg/config"
	"github.com/mateovilla/clickshop-backend/pkg/db/models"
	"github.com/mateovilla/clickshop-backend/pkg/enums"
	"gorm.io/gorm"
)

func testMiddlewareJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:            "unit-test-secret-with-enough-entropy",
		Issuer:            "clickshop",
		ExpirationMinutes: 30,
	}
}

func mintToken(t *testing.T, cfg config.JWTConfig, userID uuid.UUID, role enums.Role) string {
	t.Helper()
	email := "middleware@example.com"
	token, err := pkgauth.MintAccessToken(cfg, time.Now(), pkgauth.AccessTokenPayload{
		UserID: userID,
		Email:  &email,
		Role:   role,
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}

func TestAuthRejectsMissingHeader(t *testing.T) {
	handler := Auth(testMiddlewareJWTConfig(), nil, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not run")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/users/me", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestAuthRejectsMalformedToken(t *testing.T) {
	handler := Auth(testMiddlewareJWTConfig(), nil, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not run")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/users/me", nil)
	req.Header.Set("Authorization", "Bearer not-a-jwt")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestAuthRejectsWrongSignature(t *testing.T) {
	otherCfg := testMiddlewareJWTConfig()
	otherCfg.Secret = "a-completely-different-signing-secret"
	token := mintToken(t, otherCfg, uuid.New(), enums.RoleCustomer)

	handler := Auth(testMiddlewareJWTConfig(), nil, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not run")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/users/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestAuthSeedsIdentity(t *testing.T) {
	cfg := testMiddlewareJWTConfig()
	userID := uuid.New()
	token := mintToken(t, cfg, userID, enums.RoleAdmin)

	var gotUserID, gotRole string
	var authenticated bool
	handler := Auth(cfg, nil, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUserID = UserIDFromContext(r.Context())
		gotRole = RoleFromContext(r.Context())
		authenticated = IsAuthenticated(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/users/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if gotUserID != userID.String() {
		t.Fatalf("expected user %s in context, got %q", userID, gotUserID)
	}
	if gotRole != string(enums.RoleAdmin) {
		t.Fatalf("expected role admin, got %q", gotRole)
	}
	if !authenticated {
		t.Fatal("expected authenticated context")
	}
}

func TestOptionalAuthPassesAnonymous(t *testing.T) {
	handler := OptionalAuth(testMiddlewareJWTConfig(), nil, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if IsAuthenticated(r.Context()) {
			t.Fatal("expected anonymous context")
		}
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/products", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestOptionalAuthSeedsIdentityWhenPresent(t *testing.T) {
	cfg := testMiddlewareJWTConfig()
	userID := uuid.New()
	token := mintToken(t, cfg, userID, enums.RoleCustomer)

	handler := OptionalAuth(cfg, nil, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if UserIDFromContext(r.Context()) != userID.String() {
			t.Fatalf("expected user %s, got %q", userID, UserIDFromContext(r.Context()))
		}
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/products", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestRequireRole(t *testing.T) {
	handler := RequireRole(nil, string(enums.RoleAdmin), string(enums.RoleEmployee))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	adminReq := httptest.NewRequest(http.MethodGet, "/api/v1/admin/users", nil)
	adminReq = adminReq.WithContext(WithRole(WithUserID(adminReq.Context(), uuid.NewString()), string(enums.RoleAdmin)))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, adminReq)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected admin allowed, got %d", rec.Code)
	}

	customerReq := httptest.NewRequest(http.MethodGet, "/api/v1/admin/users", nil)
	customerReq = customerReq.WithContext(WithRole(WithUserID(customerReq.Context(), uuid.NewString()), string(enums.RoleCustomer)))
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, customerReq)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected customer forbidden, got %d", rec.Code)
	}
}

type stubVerificationChecker struct {
	users map[uuid.UUID]*models.User
}

func (s *stubVerificationChecker) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user, ok := s.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return user, nil
}

func TestRequireEmailVerified(t *testing.T) {
	verifiedID := uuid.New()
	unverifiedID := uuid.New()
	checker := &stubVerificationChecker{users: map[uuid.UUID]*models.User{
		verifiedID:   {ID: verifiedID, EmailVerified: true},
		unverifiedID: {ID: unverifiedID},
	}}

	handler := RequireEmailVerified(checker, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	cases := []struct {
		name   string
		userID string
		want   int
	}{
		{name: "verified user passes", userID: verifiedID.String(), want: http.StatusOK},
		{name: "unverified user blocked", userID: unverifiedID.String(), want: http.StatusForbidden},
		{name: "unknown user rejected", userID: uuid.NewString(), want: http.StatusUnauthorized},
		{name: "missing identity rejected", userID: "", want: http.StatusUnauthorized},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/orders", nil)
			if tc.userID != "" {
				req = req.WithContext(WithUserID(req.Context(), tc.userID))
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			if rec.Code != tc.want {
				t.Fatalf("expected %d, got %d", tc.want, rec.Code)
			}
		})
	}
}
