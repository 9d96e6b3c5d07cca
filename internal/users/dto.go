package users

import (
	"time"

	"github.com/google/uuid"

	"github.com/storyreelhq/storyreel-backend/pkg/db/models"
	"github.com/storyreelhq/storyreel-backend/pkg/enums"
)

// UserDTO is the transport shape that omits the password hash.
type UserDTO struct {
	ID          uuid.UUID      `json:"id"`
	Username    string         `json:"username"`
	PhoneNumber *string        `json:"phone_number,omitempty"`
	Email       *string        `json:"email,omitempty"`
	FullName    *string        `json:"full_name,omitempty"`
	Address     *string        `json:"address,omitempty"`
	Role        enums.UserRole `json:"role"`
	IsActive    bool           `json:"is_active"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// CreateUserDTO holds the data required by the repo to persist a new user.
type CreateUserDTO struct {
	Username     string
	PasswordHash string
	PhoneNumber  *string
	Email        *string
	FullName     *string
	Address      *string
	Role         enums.UserRole
	IsActive     *bool
}

func FromModel(u *models.User) *UserDTO {
	if u == nil {
		return nil
	}

	return &UserDTO{
		ID:          u.ID,
		Username:    u.Username,
		PhoneNumber: u.PhoneNumber,
		Email:       u.Email,
		FullName:    u.FullName,
		Address:     u.Address,
		Role:        u.Role,
		IsActive:    u.IsActive,
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
	}
}

func (c CreateUserDTO) ToModel() *models.User {
	isActive := true
	if c.IsActive != nil {
		isActive = *c.IsActive
	}

	role := c.Role
	if role == "" {
		role = enums.UserRoleUser
	}

	return &models.User{
		ID:           uuid.New(),
		Username:     c.Username,
		PasswordHash: c.PasswordHash,
		PhoneNumber:  c.PhoneNumber,
		Email:        c.Email,
		FullName:     c.FullName,
		Address:      c.Address,
		Role:         role,
		IsActive:     isActive,
	}
}
