package accounts

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/mateovilla/clickshop-backend/pkg/db/models"
	"github.com/mateovilla/clickshop-backend/pkg/enums"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupAccountsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)

	accounts := `
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
);`
	require.NoError(t, db.Exec(accounts).Error)
	return db
}

func newEmailAccount(userID uuid.UUID, email, hash string) *models.Account {
	return &models.Account{
		UserID:            userID,
		Provider:          enums.ProviderEmail,
		ProviderAccountID: email,
		PasswordHash:      &hash,
	}
}

func TestRepositoryCreateAndLookup(t *testing.T) {
	db := setupAccountsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	userID := uuid.New()
	email := "ada_" + uuid.NewString() + "@example.com"
	created, err := repo.Create(ctx, newEmailAccount(userID, email, "digest"))
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, created.ID)

	byProvider, err := repo.FindByProviderAccount(ctx, enums.ProviderEmail, email)
	require.NoError(t, err)
	assert.Equal(t, created.ID, byProvider.ID)
	assert.Equal(t, userID, byProvider.UserID)

	byUser, err := repo.FindByUserAndProvider(ctx, userID, enums.ProviderEmail)
	require.NoError(t, err)
	assert.Equal(t, created.ID, byUser.ID)

	_, err = repo.FindByUserAndProvider(ctx, userID, enums.ProviderGoogle)
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestRepositoryDuplicateProviderAccount(t *testing.T) {
	db := setupAccountsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	email := "dup_" + uuid.NewString() + "@example.com"
	_, err := repo.Create(ctx, newEmailAccount(uuid.New(), email, "digest"))
	require.NoError(t, err)

	_, err = repo.Create(ctx, newEmailAccount(uuid.New(), email, "digest"))
	require.ErrorIs(t, err, gorm.ErrDuplicatedKey)
}

func TestRepositoryListByUser(t *testing.T) {
	db := setupAccountsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	userID := uuid.New()
	_, err := repo.Create(ctx, newEmailAccount(userID, "list_"+uuid.NewString()+"@example.com", "digest"))
	require.NoError(t, err)

	sub := uuid.NewString()
	_, err = repo.Create(ctx, &models.Account{
		UserID:            userID,
		Provider:          enums.ProviderGoogle,
		ProviderAccountID: sub,
	})
	require.NoError(t, err)

	list, err := repo.ListByUser(ctx, userID)
	require.NoError(t, err)
	require.Len(t, list, 2)
}

func TestRepositoryUpdateProviderTokens(t *testing.T) {
	db := setupAccountsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	sub := uuid.NewString()
	created, err := repo.Create(ctx, &models.Account{
		UserID:            uuid.New(),
		Provider:          enums.ProviderGoogle,
		ProviderAccountID: sub,
	})
	require.NoError(t, err)

	access := "ya29.fresh"
	refresh := "1//refresh"
	require.NoError(t, repo.UpdateProviderTokens(ctx, created.ID, &access, &refresh, nil))

	fetched, err := repo.FindByProviderAccount(ctx, enums.ProviderGoogle, sub)
	require.NoError(t, err)
	require.NotNil(t, fetched.AccessToken)
	assert.Equal(t, access, *fetched.AccessToken)
	require.NotNil(t, fetched.RefreshToken)
	assert.Equal(t, refresh, *fetched.RefreshToken)
	assert.Nil(t, fetched.IDToken)
}

func TestRepositoryUpdatePasswordHash(t *testing.T) {
	db := setupAccountsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	email := "rehash_" + uuid.NewString() + "@example.com"
	created, err := repo.Create(ctx, newEmailAccount(uuid.New(), email, "old-digest"))
	require.NoError(t, err)

	require.NoError(t, repo.UpdatePasswordHash(ctx, created.ID, "new-digest"))

	fetched, err := repo.FindByProviderAccount(ctx, enums.ProviderEmail, email)
	require.NoError(t, err)
	require.NotNil(t, fetched.PasswordHash)
	assert.Equal(t, "new-digest", *fetched.PasswordHash)
}
