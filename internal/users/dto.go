package users

import (
	"time"

	"github.com/google/uuid"

	"github.com/mateovilla/clickshop-backend/pkg/db/models"
	"github.com/mateovilla/clickshop-backend/pkg/enums"
)

// UserDTO is the transport shape that omits credentials and provider tokens.
type UserDTO struct {
	ID            uuid.UUID           `json:"id"`
	Email         *string             `json:"email,omitempty"`
	Name          string              `json:"name"`
	Image         *string             `json:"image,omitempty"`
	EmailVerified bool                `json:"email_verified"`
	Role          enums.Role          `json:"role"`
	EmployeeType  *enums.EmployeeType `json:"employee_type,omitempty"`
	CreatedAt     time.Time           `json:"created_at"`
	UpdatedAt     time.Time           `json:"updated_at"`
}

// CreateUserDTO holds the data required by the repo to persist a new user.
type CreateUserDTO struct {
	Email         *string
	Name          string
	Image         *string
	EmailVerified bool
	Role          enums.Role
	EmployeeType  *enums.EmployeeType
	Phone         *string
}

func FromModel(u *models.User) *UserDTO {
	if u == nil {
		return nil
	}

	dto := &UserDTO{
		ID:            u.ID,
		Email:         u.Email,
		Name:          u.Name,
		Image:         u.Image,
		EmailVerified: u.EmailVerified,
		Role:          enums.RoleCustomer,
		CreatedAt:     u.CreatedAt,
		UpdatedAt:     u.UpdatedAt,
	}
	if u.Profile != nil {
		dto.Role = u.Profile.Role
		dto.EmployeeType = u.Profile.EmployeeType
	}
	return dto
}

func (c CreateUserDTO) ToModel() *models.User {
	role := c.Role
	if !role.IsValid() {
		role = enums.RoleCustomer
	}

	var verifiedAt *time.Time
	if c.EmailVerified {
		now := time.Now().UTC()
		verifiedAt = &now
	}

	return &models.User{
		Email:         c.Email,
		Name:          c.Name,
		Image:         c.Image,
		EmailVerified: c.EmailVerified,
		VerifiedAt:    verifiedAt,
		Profile: &models.UserProfile{
			Role:         role,
			EmployeeType: c.EmployeeType,
			IsActive:     true,
			Phone:        c.Phone,
		},
	}
}
