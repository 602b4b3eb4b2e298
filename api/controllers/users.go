package controllers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/mateovilla/clickshop-backend/api/middleware"
	"github.com/mateovilla/clickshop-backend/api/responses"
	"github.com/mateovilla/clickshop-backend/internal/auth"
	pkgerrors "github.com/mateovilla/clickshop-backend/pkg/errors"
	"github.com/mateovilla/clickshop-backend/pkg/logger"
)

// UsersMe returns the profile for the authenticated user.
func UsersMe(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "auth service unavailable"))
			return
		}

		userID, err := uuid.Parse(middleware.UserIDFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
			return
		}

		user, err := svc.Me(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, user)
	}
}
