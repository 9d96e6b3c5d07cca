package auth

import (
	"github.com/storyreelhq/storyreel-backend/internal/users"
)

// LoginRequest carries the credentials submitted to the login endpoint.
// Identifier is a username or a phone number.
type LoginRequest struct {
	Identifier string `json:"identifier" validate:"required"`
	Password   string `json:"password" validate:"required"`
}

// LoginResponse is returned after a successful credential check.
type LoginResponse struct {
	AccessToken string         `json:"access_token"`
	TokenType   string         `json:"token_type"`
	ExpiresIn   int64          `json:"expires_in"`
	User        *users.UserDTO `json:"user"`
}

// RegisterRequest contains the payload required to open a new account.
type RegisterRequest struct {
	Username string `json:"username" validate:"required,min=3,max=64"`
	Password string `json:"password" validate:"required,min=8"`
	// Phone presence is an account policy, not a payload-shape concern; the
	// service enforces it and reports PHONE_REQUIRED instead of a generic
	// validation failure.
	PhoneNumber string  `json:"phone_number"`
	Email       *string `json:"email,omitempty" validate:"omitempty,email"`
	FullName    *string `json:"full_name,omitempty"`
	Address     *string `json:"address,omitempty"`
}

// RegisterResponse echoes the freshly created account.
type RegisterResponse struct {
	User *users.UserDTO `json:"user"`
}

// ChangePasswordRequest carries the old and replacement passwords.
type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=8"`
}

// CloseAccountMode selects how an account is closed.
type CloseAccountMode string

const (
	CloseModeDeactivate CloseAccountMode = "deactivate"
	CloseModeDelete     CloseAccountMode = "delete"
)
