package models

import (
	"time"

	"github.com/google/uuid"
)

// User is the canonical identity record. Email is nullable until a provider
// supplies one. A user owns its profile and accounts and is never deleted
// implicitly when an account is unlinked.
type User struct {
	ID            uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Email         *string    `gorm:"type:text;uniqueIndex"`
	Name          string     `gorm:"column:name;not null"`
	Image         *string    `gorm:"column:image"`
	EmailVerified bool       `gorm:"column:email_verified;not null;default:false"`
	VerifiedAt    *time.Time `gorm:"column:verified_at"`
	CreatedAt     time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time  `gorm:"column:updated_at;autoUpdateTime"`

	Profile  *UserProfile `gorm:"foreignKey:UserID"`
	Accounts []Account    `gorm:"foreignKey:UserID"`
}
