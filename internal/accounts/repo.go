package accounts

import (
	"context"

	"github.com/google/uuid"
	"github.com/mateovilla/clickshop-backend/pkg/db/models"
	"github.com/mateovilla/clickshop-backend/pkg/enums"
	"gorm.io/gorm"
)

// Repository exposes credential-account persistence operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs an accounts repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new account row and returns the persisted model.
func (r *Repository) Create(ctx context.Context, account *models.Account) (*models.Account, error) {
	if account.ID == uuid.Nil {
		account.ID = uuid.New()
	}
	if err := r.db.WithContext(ctx).Create(account).Error; err != nil {
		return nil, err
	}
	return account, nil
}

// FindByProviderAccount looks up the account linked to an external identity.
func (r *Repository) FindByProviderAccount(ctx context.Context, provider enums.Provider, providerAccountID string) (*models.Account, error) {
	var account models.Account
	if err := r.db.WithContext(ctx).
		Where("provider = ? AND provider_account_id = ?", provider, providerAccountID).
		First(&account).Error; err != nil {
		return nil, err
	}
	return &account, nil
}

// FindByUserAndProvider loads the user's account for one provider.
func (r *Repository) FindByUserAndProvider(ctx context.Context, userID uuid.UUID, provider enums.Provider) (*models.Account, error) {
	var account models.Account
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND provider = ?", userID, provider).
		First(&account).Error; err != nil {
		return nil, err
	}
	return &account, nil
}

// ListByUser returns every account linked to the user.
func (r *Repository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Account, error) {
	var list []models.Account
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

// UpdateProviderTokens refreshes the stored OAuth tokens on an account.
func (r *Repository) UpdateProviderTokens(ctx context.Context, id uuid.UUID, accessToken, refreshToken, idToken *string) error {
	return r.db.WithContext(ctx).
		Model(&models.Account{}).
		Where("id = ?", id).
		UpdateColumns(map[string]any{
			"access_token":  accessToken,
			"refresh_token": refreshToken,
			"id_token":      idToken,
		}).Error
}

// UpdatePasswordHash replaces the stored password digest on an account.
func (r *Repository) UpdatePasswordHash(ctx context.Context, id uuid.UUID, hash string) error {
	return r.db.WithContext(ctx).
		Model(&models.Account{}).
		Where("id = ?", id).
		UpdateColumn("password_hash", hash).Error
}
