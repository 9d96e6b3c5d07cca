package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/storyreelhq/storyreel-backend/pkg/enums"
)

// User represents a row of the users table, the canonical identity entity.
// PasswordHash always holds an Argon2id digest; plaintext never reaches
// persistence.
type User struct {
	ID           uuid.UUID      `gorm:"type:uuid;primaryKey"`
	Username     string         `gorm:"column:username;not null;uniqueIndex:users_username_key"`
	PasswordHash string         `gorm:"column:password_hash;not null"`
	PhoneNumber  *string        `gorm:"column:phone_number;uniqueIndex:users_phone_number_key"`
	Email        *string        `gorm:"column:email"`
	FullName     *string        `gorm:"column:full_name"`
	Address      *string        `gorm:"column:address"`
	Role         enums.UserRole `gorm:"column:role;not null;default:user"`
	IsActive     bool           `gorm:"column:is_active;not null;default:true"`
	CreatedAt    time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}
