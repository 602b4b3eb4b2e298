package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/mateovilla/clickshop-backend/pkg/enums"
)

// UserProfile holds the role and contact details for a user. Exactly one
// profile exists per user; role is never absent.
type UserProfile struct {
	ID           uuid.UUID           `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	UserID       uuid.UUID           `gorm:"type:uuid;not null;uniqueIndex"`
	Role         enums.Role          `gorm:"type:text;not null;default:'customer'"`
	EmployeeType *enums.EmployeeType `gorm:"column:employee_type"`
	IsActive     bool                `gorm:"column:is_active;not null;default:true"`
	Phone        *string             `gorm:"column:phone"`
	AddressLine1 *string             `gorm:"column:address_line1"`
	AddressLine2 *string             `gorm:"column:address_line2"`
	City         *string             `gorm:"column:city"`
	Region       *string             `gorm:"column:region"`
	PostalCode   *string             `gorm:"column:postal_code"`
	Country      *string             `gorm:"column:country"`
	CreatedAt    time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
