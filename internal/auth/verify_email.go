package auth

import (
	"context"
	"errors"

	"github.com/mateovilla/clickshop-backend/internal/users"
	"github.com/mateovilla/clickshop-backend/pkg/enums"
	pkgerrors "github.com/mateovilla/clickshop-backend/pkg/errors"
	"github.com/mateovilla/clickshop-backend/pkg/sanitize"
	"gorm.io/gorm"
)

// VerifyEmail redeems an email-verification token and flips the user's
// verified flag. Redeeming an already-verified address is harmless but still
// consumes the token.
func (s *service) VerifyEmail(ctx context.Context, req VerifyEmailRequest) (*users.UserDTO, error) {
	email := sanitize.Email(req.Email)
	rawToken := sanitize.Token(req.Token)
	if email == "" || rawToken == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid or expired token")
	}

	userRepo := users.NewRepository(s.conn)
	user, err := userRepo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid or expired token")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup user")
	}

	if _, err := s.tokens.Redeem(ctx, user.ID, enums.TokenPurposeEmailVerification, rawToken); err != nil {
		return nil, err
	}

	if !user.EmailVerified {
		now := s.now()
		if err := userRepo.MarkEmailVerified(ctx, user.ID, now); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mark email verified")
		}
		user.EmailVerified = true
		user.VerifiedAt = &now
	}
	return users.FromModel(user), nil
}
