package auth

import (
	"github.com/mateovilla/clickshop-backend/internal/users"
)

// RegisterRequest contains the payload for local email/password signup.
type RegisterRequest struct {
	Name     string  `json:"name" validate:"required"`
	Email    string  `json:"email" validate:"required,email"`
	Password string  `json:"password" validate:"required"`
	Phone    *string `json:"phone,omitempty"`
}

// LoginRequest contains local login credentials.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// GoogleLoginRequest carries the authorization code from the OAuth redirect.
type GoogleLoginRequest struct {
	Code string `json:"code" validate:"required"`
}

// ForgotPasswordRequest starts the reset flow for an email address.
type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// ResetPasswordRequest redeems a reset token and sets a new password.
type ResetPasswordRequest struct {
	Email       string `json:"email" validate:"required,email"`
	Token       string `json:"token" validate:"required"`
	NewPassword string `json:"new_password" validate:"required"`
}

// VerifyEmailRequest redeems an email-verification token.
type VerifyEmailRequest struct {
	Email string `json:"email" validate:"required,email"`
	Token string `json:"token" validate:"required"`
}

// AuthResponse is returned by every flow that establishes a session.
type AuthResponse struct {
	AccessToken string         `json:"access_token"`
	User        *users.UserDTO `json:"user"`
}
