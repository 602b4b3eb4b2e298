package auth

import (
	"context"

	"github.com/mateovilla/clickshop-backend/pkg/enums"
	pkgerrors "github.com/mateovilla/clickshop-backend/pkg/errors"
)

// GoogleLogin exchanges the authorization code, resolves the external profile
// to a user, and establishes a session.
func (s *service) GoogleLogin(ctx context.Context, req GoogleLoginRequest) (*AuthResponse, error) {
	if s.google == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "google sign-in is not enabled")
	}
	if req.Code == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "authorization code is required")
	}

	profile, err := s.google.Exchange(ctx, req.Code)
	if err != nil {
		s.metrics.ObserveLogin(enums.ProviderGoogle.String(), "exchange_failure")
		return nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "authorization code rejected")
	}

	user, err := s.resolver.ResolveOAuth(ctx, profile)
	if err != nil {
		s.metrics.ObserveLogin(enums.ProviderGoogle.String(), "failure")
		return nil, err
	}

	resp, err := s.sessionResponse(user)
	if err != nil {
		return nil, err
	}
	s.metrics.ObserveLogin(enums.ProviderGoogle.String(), "success")
	return resp, nil
}
