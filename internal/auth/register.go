package auth

import (
	"context"
	"errors"

	"github.com/mateovilla/clickshop-backend/internal/accounts"
	"github.com/mateovilla/clickshop-backend/internal/identity"
	"github.com/mateovilla/clickshop-backend/internal/users"
	"github.com/mateovilla/clickshop-backend/pkg/db/models"
	"github.com/mateovilla/clickshop-backend/pkg/enums"
	pkgerrors "github.com/mateovilla/clickshop-backend/pkg/errors"
	"github.com/mateovilla/clickshop-backend/pkg/sanitize"
	"github.com/mateovilla/clickshop-backend/pkg/security"
	"gorm.io/gorm"
)

// Register creates a customer with a local email/password credential and
// starts email verification. The created session is usable immediately; the
// verified flag stays false until the token comes back.
func (s *service) Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error) {
	email := sanitize.Email(req.Email)
	if email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "a valid email is required")
	}
	name := sanitize.Name(req.Name)
	if name == "" {
		name = identity.DisplayName("", email)
	}

	if result := security.CheckPasswordStrength(req.Password); !result.IsStrong {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "password does not meet requirements").
			WithDetails(result.Errors)
	}
	passwordHash, err := security.HashPassword(req.Password, s.passwordCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	var created *models.User
	err = s.conn.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		userRepo := users.NewRepository(tx)
		accountRepo := accounts.NewRepository(tx)

		if _, err := userRepo.FindByEmail(ctx, email); err == nil {
			return pkgerrors.New(pkgerrors.CodeConflict, "email already registered")
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check user email")
		}

		user, err := userRepo.Create(ctx, users.CreateUserDTO{
			Email: &email,
			Name:  name,
			Role:  enums.RoleCustomer,
			Phone: req.Phone,
		})
		if err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) || pkgerrors.IsUniqueViolation(err) {
				return pkgerrors.New(pkgerrors.CodeConflict, "email already registered")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create user")
		}

		if _, err := accountRepo.Create(ctx, &models.Account{
			UserID:            user.ID,
			Provider:          enums.ProviderEmail,
			ProviderAccountID: email,
			PasswordHash:      &passwordHash,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create credential account")
		}

		created = user
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Verification is recoverable after signup, so a failed email publish
	// does not undo the registration.
	raw, _, err := s.tokens.Issue(ctx, created.ID, enums.TokenPurposeEmailVerification)
	if err != nil {
		s.log.Error(ctx, "issue verification token", err)
	} else if err := s.notifier.SendVerificationEmail(ctx, email, raw, created.Name); err != nil {
		s.log.Error(ctx, "send verification email", err)
	}

	return s.sessionResponse(created)
}
