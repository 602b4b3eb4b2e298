package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/mateovilla/clickshop-backend/api/responses"
	pkgauth "github.com/mateovilla/clickshop-backend/pkg/auth"
	"github.com/mateovilla/clickshop-backend/pkg/config"
	pkgerrors "github.com/mateovilla/clickshop-backend/pkg/errors"
	"github.com/mateovilla/clickshop-backend/pkg/logger"
	"github.com/mateovilla/clickshop-backend/pkg/metrics"
)

// Auth validates a bearer token and seeds the request context with the
// claims. Validity is signature plus expiry only; there is no server-side
// session list to consult.
func Auth(cfg config.JWTConfig, m *metrics.AuthMetrics, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, err := claimsFromRequest(cfg, r)
			if err != nil {
				m.ObserveTokenVerification("failure")
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			m.ObserveTokenVerification("success")
			next.ServeHTTP(w, r.WithContext(seedIdentity(r.Context(), logg, claims)))
		})
	}
}

// OptionalAuth seeds the identity when a valid bearer token is present and
// otherwise lets the request through anonymously. It never fails a request.
func OptionalAuth(cfg config.JWTConfig, m *metrics.AuthMetrics, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, err := claimsFromRequest(cfg, r)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}
			m.ObserveTokenVerification("success")
			next.ServeHTTP(w, r.WithContext(seedIdentity(r.Context(), logg, claims)))
		})
	}
}

func claimsFromRequest(cfg config.JWTConfig, r *http.Request) (*pkgauth.AccessTokenClaims, error) {
	raw := strings.TrimSpace(r.Header.Get("Authorization"))
	if raw == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials")
	}

	token := raw
	if strings.HasPrefix(strings.ToLower(token), "bearer ") {
		token = strings.TrimSpace(token[7:])
	}
	if token == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials")
	}

	claims, err := pkgauth.ParseAccessToken(cfg, token)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token")
	}
	return claims, nil
}

func seedIdentity(ctx context.Context, logg *logger.Logger, claims *pkgauth.AccessTokenClaims) context.Context {
	ctx = WithUserID(ctx, claims.UserID.String())
	ctx = WithRole(ctx, claims.Role.String())
	if claims.EmployeeType != nil {
		ctx = WithEmployeeType(ctx, claims.EmployeeType.String())
	}

	if logg != nil {
		fields := map[string]any{
			"user_id": claims.UserID.String(),
			"role":    claims.Role.String(),
		}
		if claims.EmployeeType != nil {
			fields["employee_type"] = claims.EmployeeType.String()
		}
		ctx = logg.WithFields(ctx, fields)
	}
	return ctx
}
