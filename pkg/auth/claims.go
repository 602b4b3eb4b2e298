package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/mateovilla/clickshop-backend/pkg/enums"
)

// AccessTokenPayload captures the data available when minting a session JWT.
type AccessTokenPayload struct {
	UserID       uuid.UUID
	Email        *string
	Role         enums.Role
	EmployeeType *enums.EmployeeType
}

// AccessTokenClaims is the typed JWT issued to clients. Claims are a snapshot
// taken at issuance; the token is never stored server-side.
type AccessTokenClaims struct {
	UserID       uuid.UUID           `json:"user_id"`
	Email        *string             `json:"email,omitempty"`
	Role         enums.Role          `json:"role"`
	EmployeeType *enums.EmployeeType `json:"employee_type,omitempty"`
	jwt.RegisteredClaims
}
