// Package identity turns external OAuth profiles and local credentials into
// canonical user records, owning the link/merge rules between providers.
package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mateovilla/clickshop-backend/internal/accounts"
	"github.com/mateovilla/clickshop-backend/internal/users"
	"github.com/mateovilla/clickshop-backend/pkg/db/models"
	"github.com/mateovilla/clickshop-backend/pkg/enums"
	pkgerrors "github.com/mateovilla/clickshop-backend/pkg/errors"
	"github.com/mateovilla/clickshop-backend/pkg/oauth"
	"github.com/mateovilla/clickshop-backend/pkg/sanitize"
	"github.com/mateovilla/clickshop-backend/pkg/security"
	"gorm.io/gorm"
)

const invalidCredentialsMessage = "invalid credentials"

// ErrMissingEmail is returned when an external profile carries no usable
// email and no existing account link exists for it.
var ErrMissingEmail = pkgerrors.New(pkgerrors.CodeValidation, "provider profile is missing an email")

// Resolver maps provider identities onto users. An existing account link
// always wins; otherwise resolution falls back to the profile email and,
// failing that, creates a fresh customer.
type Resolver struct {
	conn *gorm.DB
}

// ResolverParams bundles the dependencies required to build a resolver.
type ResolverParams struct {
	Conn *gorm.DB
}

// NewResolver constructs an identity resolver with the provided dependencies.
func NewResolver(params ResolverParams) (*Resolver, error) {
	if params.Conn == nil {
		return nil, fmt.Errorf("database connection is required")
	}
	return &Resolver{conn: params.Conn}, nil
}

// ResolveOAuth resolves an external profile to a user, linking or creating as
// needed. Two concurrent first-time logins for the same identity race on the
// unique keys; the loser retries once and takes the link path against the
// winner's rows.
func (r *Resolver) ResolveOAuth(ctx context.Context, profile *oauth.Profile) (*models.User, error) {
	if profile == nil || profile.ProviderAccountID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "provider profile is incomplete")
	}
	if !profile.Provider.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown provider")
	}

	user, err := r.resolveOnce(ctx, profile)
	if err != nil && isDuplicateKey(err) {
		// Lost the creation race; the winner's user and account rows now
		// exist, so a second pass resolves via the link path.
		user, err = r.resolveOnce(ctx, profile)
	}
	return user, err
}

func (r *Resolver) resolveOnce(ctx context.Context, profile *oauth.Profile) (*models.User, error) {
	var resolved *models.User
	err := r.conn.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		userRepo := users.NewRepository(tx)
		accountRepo := accounts.NewRepository(tx)

		// Step 1: an existing (provider, provider_account_id) link wins,
		// regardless of what email the provider reports today.
		account, err := accountRepo.FindByProviderAccount(ctx, profile.Provider, profile.ProviderAccountID)
		if err == nil {
			if err := accountRepo.UpdateProviderTokens(ctx, account.ID,
				optionalString(profile.AccessToken),
				optionalString(profile.RefreshToken),
				optionalString(profile.IDToken)); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "refresh provider tokens")
			}
			resolved, err = userRepo.FindByID(ctx, account.UserID)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load linked user")
			}
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup account link")
		}

		// Step 2: no link yet, so the profile must identify itself by email.
		email := sanitize.Email(profile.Email)
		if email == "" {
			return ErrMissingEmail
		}

		// Step 3: link to the user owning that email, or create one.
		owner, err := userRepo.FindByEmail(ctx, email)
		if err == nil {
			resolved, err = r.linkAccount(ctx, userRepo, accountRepo, owner, profile)
			return err
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup user by email")
		}

		created, err := userRepo.Create(ctx, users.CreateUserDTO{
			Email:         &email,
			Name:          DisplayName(profile.Name, email),
			Image:         optionalString(profile.Picture),
			EmailVerified: true,
			Role:          enums.RoleCustomer,
		})
		if err != nil {
			return err
		}
		if _, err := accountRepo.Create(ctx, newLinkedAccount(created, profile)); err != nil {
			return err
		}
		resolved = created
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resolved, nil
}

// linkAccount attaches the external identity to an existing user. The
// provider vouches for the email, so the user's address becomes verified, and
// the provider avatar fills an empty image slot.
func (r *Resolver) linkAccount(ctx context.Context, userRepo *users.Repository, accountRepo *accounts.Repository, owner *models.User, profile *oauth.Profile) (*models.User, error) {
	if _, err := accountRepo.Create(ctx, newLinkedAccount(owner, profile)); err != nil {
		return nil, err
	}
	if !owner.EmailVerified {
		now := time.Now().UTC()
		if err := userRepo.MarkEmailVerified(ctx, owner.ID, now); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mark email verified")
		}
		owner.EmailVerified = true
		owner.VerifiedAt = &now
	}
	if owner.Image == nil && profile.Picture != "" {
		if err := userRepo.UpdateImage(ctx, owner.ID, profile.Picture); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "store avatar")
		}
		picture := profile.Picture
		owner.Image = &picture
	}
	return owner, nil
}

// AuthenticateLocal verifies an email/password pair against the email-provider
// account. Every failure mode collapses to the same unauthorized error so the
// response never reveals whether the address is registered.
func (r *Resolver) AuthenticateLocal(ctx context.Context, email, password string) (*models.User, error) {
	cleaned := sanitize.Email(email)
	if cleaned == "" || password == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}

	conn := r.conn.WithContext(ctx)
	userRepo := users.NewRepository(conn)
	accountRepo := accounts.NewRepository(conn)

	user, err := userRepo.FindByEmail(ctx, cleaned)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup user")
	}

	account, err := accountRepo.FindByUserAndProvider(ctx, user.ID, enums.ProviderEmail)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup credentials")
	}
	if account.PasswordHash == nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}

	valid, err := security.VerifyPassword(password, *account.PasswordHash)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
	}
	if !valid {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}
	if user.Profile != nil && !user.Profile.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}
	return user, nil
}

// DisplayName picks a presentable name: the profile name, then the email
// local part, then a generic fallback.
func DisplayName(profileName, email string) string {
	if name := sanitize.Name(profileName); name != "" {
		return name
	}
	if at := strings.Index(email, "@"); at > 0 {
		if local := sanitize.Name(email[:at]); local != "" {
			return local
		}
	}
	return "Customer"
}

func newLinkedAccount(user *models.User, profile *oauth.Profile) *models.Account {
	return &models.Account{
		UserID:            user.ID,
		Provider:          profile.Provider,
		ProviderAccountID: profile.ProviderAccountID,
		AccessToken:       optionalString(profile.AccessToken),
		RefreshToken:      optionalString(profile.RefreshToken),
		IDToken:           optionalString(profile.IDToken),
	}
}

func isDuplicateKey(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey) || pkgerrors.IsUniqueViolation(err)
}

func optionalString(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}
