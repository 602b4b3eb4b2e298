package auth

import (
	"context"
	"errors"

	"github.com/mateovilla/clickshop-backend/internal/accounts"
	"github.com/mateovilla/clickshop-backend/internal/users"
	"github.com/mateovilla/clickshop-backend/pkg/db/models"
	"github.com/mateovilla/clickshop-backend/pkg/enums"
	pkgerrors "github.com/mateovilla/clickshop-backend/pkg/errors"
	"github.com/mateovilla/clickshop-backend/pkg/sanitize"
	"github.com/mateovilla/clickshop-backend/pkg/security"
	"gorm.io/gorm"
)

// ForgotPassword issues a reset token and mails the reset link. An unknown
// address reports success without doing anything, so the endpoint cannot be
// used to probe for registered emails. A failed reset email does fail the
// call: the user is actively waiting for that mail.
func (s *service) ForgotPassword(ctx context.Context, req ForgotPasswordRequest) error {
	email := sanitize.Email(req.Email)
	if email == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "a valid email is required")
	}

	user, err := users.NewRepository(s.conn).FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup user")
	}

	raw, _, err := s.tokens.Issue(ctx, user.ID, enums.TokenPurposePasswordReset)
	if err != nil {
		return err
	}
	if err := s.notifier.SendPasswordResetEmail(ctx, email, raw, user.Name); err != nil {
		return err
	}
	return nil
}

// ResetPassword redeems the reset token and replaces the password digest on
// the email-provider account, creating that account when the user signed up
// through a provider only. The changed-password notice is best-effort.
func (s *service) ResetPassword(ctx context.Context, req ResetPasswordRequest) error {
	email := sanitize.Email(req.Email)
	rawToken := sanitize.Token(req.Token)
	if email == "" || rawToken == "" {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid or expired token")
	}

	userRepo := users.NewRepository(s.conn)
	user, err := userRepo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid or expired token")
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup user")
	}

	if _, err := s.tokens.Redeem(ctx, user.ID, enums.TokenPurposePasswordReset, rawToken); err != nil {
		return err
	}

	if result := security.CheckPasswordStrength(req.NewPassword); !result.IsStrong {
		return pkgerrors.New(pkgerrors.CodeValidation, "password does not meet requirements").
			WithDetails(result.Errors)
	}
	passwordHash, err := security.HashPassword(req.NewPassword, s.passwordCfg)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	accountRepo := accounts.NewRepository(s.conn)
	account, err := accountRepo.FindByUserAndProvider(ctx, user.ID, enums.ProviderEmail)
	switch {
	case err == nil:
		if err := accountRepo.UpdatePasswordHash(ctx, account.ID, passwordHash); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "store password")
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		// Provider-only user setting a password for the first time.
		if _, err := accountRepo.Create(ctx, &models.Account{
			UserID:            user.ID,
			Provider:          enums.ProviderEmail,
			ProviderAccountID: email,
			PasswordHash:      &passwordHash,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create credential account")
		}
	default:
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup credentials")
	}

	if err := s.notifier.SendPasswordChangedEmail(ctx, email, user.Name); err != nil {
		s.log.Error(ctx, "send password changed email", err)
	}
	return nil
}
