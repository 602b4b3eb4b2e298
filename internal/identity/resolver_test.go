package identity

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/mateovilla/clickshop-backend/internal/accounts"
	"github.com/mateovilla/clickshop-backend/internal/users"
	"github.com/mateovilla/clickshop-backend/pkg/config"
	"github.com/mateovilla/clickshop-backend/pkg/db/models"
	"github.com/mateovilla/clickshop-backend/pkg/enums"
	pkgerrors "github.com/mateovilla/clickshop-backend/pkg/errors"
	"github.com/mateovilla/clickshop-backend/pkg/oauth"
	"github.com/mateovilla/clickshop-backend/pkg/security"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupIdentityTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)

	statements := []string{`
CREATE TABLE IF NOT EXISTS users (
  id TEXT PRIMARY KEY,
  email TEXT UNIQUE,
  name TEXT NOT NULL,
  image TEXT,
  email_verified INTEGER NOT NULL DEFAULT 0,
  verified_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`, `
CREATE TABLE IF NOT EXISTS user_profiles (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL UNIQUE,
  role TEXT NOT NULL DEFAULT 'customer',
  employee_type TEXT,
  is_active INTEGER NOT NULL DEFAULT 1,
  phone TEXT,
  address_line1 TEXT,
  address_line2 TEXT,
  city TEXT,
  region TEXT,
  postal_code TEXT,
  country TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`, `
CREATE TABLE IF NOT EXISTS accounts (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  provider TEXT NOT NULL,
  provider_account_id TEXT NOT NULL,
  password_hash TEXT,
  access_token TEXT,
  refresh_token TEXT,
  id_token TEXT,
  created_at DATETIME,
  updated_at DATETIME,
  UNIQUE (provider, provider_account_id)
);`}
	for _, stmt := range statements {
		require.NoError(t, db.Exec(stmt).Error)
	}
	return db
}

func newTestResolver(t *testing.T, db *gorm.DB) *Resolver {
	t.Helper()

	resolver, err := NewResolver(ResolverParams{Conn: db})
	require.NoError(t, err)
	return resolver
}

func emailAccount(userID uuid.UUID, email, hash string) *models.Account {
	return &models.Account{
		UserID:            userID,
		Provider:          enums.ProviderEmail,
		ProviderAccountID: email,
		PasswordHash:      &hash,
	}
}

func googleProfile(sub, email, name string) *oauth.Profile {
	return &oauth.Profile{
		Provider:          enums.ProviderGoogle,
		ProviderAccountID: sub,
		Email:             email,
		EmailVerified:     true,
		Name:              name,
		Picture:           "https://img.example.com/" + sub + ".png",
		AccessToken:       "ya29." + sub,
	}
}

func TestResolveOAuthCreatesCustomer(t *testing.T) {
	db := setupIdentityTestDB(t)
	resolver := newTestResolver(t, db)
	ctx := context.Background()

	sub := uuid.NewString()
	email := "new_" + uuid.NewString() + "@example.com"
	user, err := resolver.ResolveOAuth(ctx, googleProfile(sub, email, "New Person"))
	require.NoError(t, err)

	require.NotNil(t, user.Email)
	assert.Equal(t, email, *user.Email)
	assert.Equal(t, "New Person", user.Name)
	assert.True(t, user.EmailVerified)
	require.NotNil(t, user.Profile)
	assert.Equal(t, enums.RoleCustomer, user.Profile.Role)

	account, err := accounts.NewRepository(db).FindByProviderAccount(ctx, enums.ProviderGoogle, sub)
	require.NoError(t, err)
	assert.Equal(t, user.ID, account.UserID)
	require.NotNil(t, account.AccessToken)
}

func TestResolveOAuthExistingLinkWins(t *testing.T) {
	db := setupIdentityTestDB(t)
	resolver := newTestResolver(t, db)
	ctx := context.Background()

	sub := uuid.NewString()
	original := "orig_" + uuid.NewString() + "@example.com"
	first, err := resolver.ResolveOAuth(ctx, googleProfile(sub, original, "Linked Person"))
	require.NoError(t, err)

	// Same provider identity, different reported email: the link wins and no
	// second user appears.
	changedEmail := "changed_" + uuid.NewString() + "@example.com"
	second, err := resolver.ResolveOAuth(ctx, googleProfile(sub, changedEmail, "Linked Person"))
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	require.NotNil(t, second.Email)
	assert.Equal(t, original, *second.Email)

	_, err = users.NewRepository(db).FindByEmail(ctx, changedEmail)
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestResolveOAuthMissingEmail(t *testing.T) {
	db := setupIdentityTestDB(t)
	resolver := newTestResolver(t, db)

	profile := googleProfile(uuid.NewString(), "", "No Email")
	_, err := resolver.ResolveOAuth(context.Background(), profile)
	require.ErrorIs(t, err, ErrMissingEmail)
}

func TestResolveOAuthLinksByEmail(t *testing.T) {
	db := setupIdentityTestDB(t)
	resolver := newTestResolver(t, db)
	ctx := context.Background()

	email := "local_" + uuid.NewString() + "@example.com"
	existing, err := users.NewRepository(db).Create(ctx, users.CreateUserDTO{
		Email: &email,
		Name:  "Local First",
	})
	require.NoError(t, err)
	assert.False(t, existing.EmailVerified)
	assert.Nil(t, existing.Image)

	sub := uuid.NewString()
	resolved, err := resolver.ResolveOAuth(ctx, googleProfile(sub, email, "Local First"))
	require.NoError(t, err)
	assert.Equal(t, existing.ID, resolved.ID)
	assert.True(t, resolved.EmailVerified)
	require.NotNil(t, resolved.Image)

	account, err := accounts.NewRepository(db).FindByProviderAccount(ctx, enums.ProviderGoogle, sub)
	require.NoError(t, err)
	assert.Equal(t, existing.ID, account.UserID)
}

func TestResolveOAuthIdempotent(t *testing.T) {
	db := setupIdentityTestDB(t)
	resolver := newTestResolver(t, db)
	ctx := context.Background()

	profile := googleProfile(uuid.NewString(), "idem_"+uuid.NewString()+"@example.com", "Same Person")
	first, err := resolver.ResolveOAuth(ctx, profile)
	require.NoError(t, err)
	second, err := resolver.ResolveOAuth(ctx, profile)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
}

func TestAuthenticateLocal(t *testing.T) {
	db := setupIdentityTestDB(t)
	resolver := newTestResolver(t, db)
	ctx := context.Background()

	email := "login_" + uuid.NewString() + "@example.com"
	user, err := users.NewRepository(db).Create(ctx, users.CreateUserDTO{
		Email: &email,
		Name:  "Login Person",
	})
	require.NoError(t, err)

	hash, err := security.HashPassword("Sup3r$ecret", config.PasswordConfig{})
	require.NoError(t, err)
	_, err = accounts.NewRepository(db).Create(ctx, emailAccount(user.ID, email, hash))
	require.NoError(t, err)

	authed, err := resolver.AuthenticateLocal(ctx, " "+email+" ", "Sup3r$ecret")
	require.NoError(t, err)
	assert.Equal(t, user.ID, authed.ID)
}

func TestAuthenticateLocalEnumerationResistance(t *testing.T) {
	db := setupIdentityTestDB(t)
	resolver := newTestResolver(t, db)
	ctx := context.Background()

	email := "enum_" + uuid.NewString() + "@example.com"
	user, err := users.NewRepository(db).Create(ctx, users.CreateUserDTO{
		Email: &email,
		Name:  "Enum Person",
	})
	require.NoError(t, err)

	hash, err := security.HashPassword("Sup3r$ecret", config.PasswordConfig{})
	require.NoError(t, err)
	_, err = accounts.NewRepository(db).Create(ctx, emailAccount(user.ID, email, hash))
	require.NoError(t, err)

	_, wrongPass := resolver.AuthenticateLocal(ctx, email, "not-the-password")
	_, noUser := resolver.AuthenticateLocal(ctx, "missing_"+uuid.NewString()+"@example.com", "whatever")

	require.Error(t, wrongPass)
	require.Error(t, noUser)
	assert.Equal(t, wrongPass.Error(), noUser.Error())
	assert.Equal(t, pkgerrors.CodeUnauthorized, pkgerrors.As(wrongPass).Code())
	assert.Equal(t, pkgerrors.CodeUnauthorized, pkgerrors.As(noUser).Code())
}

func TestDisplayNameFallbacks(t *testing.T) {
	assert.Equal(t, "Jane Doe", DisplayName("Jane Doe", "jane@example.com"))
	assert.Equal(t, "jane", DisplayName("", "jane@example.com"))
	assert.Equal(t, "Customer", DisplayName("", ""))
	assert.Equal(t, "Customer", DisplayName("   ", "@example.com"))
}
