package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/mateovilla/clickshop-backend/api/responses"
	"github.com/mateovilla/clickshop-backend/pkg/db/models"
	pkgerrors "github.com/mateovilla/clickshop-backend/pkg/errors"
	"github.com/mateovilla/clickshop-backend/pkg/logger"
	"gorm.io/gorm"
)

type verificationChecker interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// RequireEmailVerified blocks requests from users who have not confirmed
// their address. The flag is read from storage on each request because claims
// are a snapshot from token issuance and may predate verification.
func RequireEmailVerified(users verificationChecker, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, err := uuid.Parse(UserIDFromContext(r.Context()))
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			user, err := users.FindByID(r.Context(), userID)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
					return
				}
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load user"))
				return
			}
			if !user.EmailVerified {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "email verification required"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
