package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/mateovilla/clickshop-backend/pkg/enums"
)

// Account links one credential source to a user. The (provider,
// provider_account_id) pair is globally unique. Password digests live in their
// own column; the provider token fields hold only real provider tokens.
type Account struct {
	ID                uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	UserID            uuid.UUID      `gorm:"type:uuid;not null;index"`
	Provider          enums.Provider `gorm:"type:text;not null;uniqueIndex:idx_accounts_provider_account"`
	ProviderAccountID string         `gorm:"column:provider_account_id;not null;uniqueIndex:idx_accounts_provider_account"`
	PasswordHash      *string        `gorm:"column:password_hash"`
	AccessToken       *string        `gorm:"column:access_token"`
	RefreshToken      *string        `gorm:"column:refresh_token"`
	IDToken           *string        `gorm:"column:id_token"`
	CreatedAt         time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}
