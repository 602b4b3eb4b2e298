package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/mateovilla/clickshop-backend/pkg/enums"
)

// VerificationToken stores the hash of a single-use token issued for email
// verification or password reset. The raw token value is never persisted.
// ConsumedAt flips exactly once; Attempts and LockedUntil implement the
// failed-redemption lockout.
type VerificationToken struct {
	ID          uuid.UUID          `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	UserID      uuid.UUID          `gorm:"type:uuid;not null;uniqueIndex:idx_verification_tokens_user_purpose"`
	Purpose     enums.TokenPurpose `gorm:"type:text;not null;uniqueIndex:idx_verification_tokens_user_purpose"`
	TokenHash   string             `gorm:"column:token_hash;not null"`
	ExpiresAt   time.Time          `gorm:"column:expires_at;not null"`
	ConsumedAt  *time.Time         `gorm:"column:consumed_at"`
	Attempts    int                `gorm:"column:attempts;not null;default:0"`
	LockedUntil *time.Time         `gorm:"column:locked_until"`
	CreatedAt   time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}
