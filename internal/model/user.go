package model

import (
	"fmt"
	"time"
)

// User is a marketplace member.
type User struct {
	ID           string     `json:"id" db:"id"`
	Username     string     `json:"username" db:"username"`
	Email        string     `json:"email" db:"email"`
	PasswordHash string     `json:"-" db:"password_hash"`
	FirstName    string     `json:"first_name" db:"first_name"`
	LastName     string     `json:"last_name" db:"last_name"`
	Location     string     `json:"location" db:"location"`
	Bio          string     `json:"bio" db:"bio"`
	Role         string     `json:"role" db:"role"`
	Points       int        `json:"points" db:"points"`
	IsActive     bool       `json:"is_active" db:"is_active"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at" db:"updated_at"`
	DeletedAt    *time.Time `json:"deleted_at,omitempty" db:"deleted_at"`
}

// UserSummary is the public view of a user embedded in item responses.
type UserSummary struct {
	ID        string `json:"id" db:"id"`
	Username  string `json:"username" db:"username"`
	FirstName string `json:"first_name" db:"first_name"`
	LastName  string `json:"last_name" db:"last_name"`
	Location  string `json:"location" db:"location"`
}

// Roles.
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

var roleLevels = map[string]int{
	RoleAdmin: 2,
	RoleUser:  1,
}

// RoleAtLeast checks if role meets or exceeds the minimum required role.
// Unknown roles never satisfy and are never satisfied.
func RoleAtLeast(role, minimum string) bool {
	have, ok := roleLevels[role]
	if !ok {
		return false
	}
	need, ok := roleLevels[minimum]
	if !ok {
		return false
	}
	return have >= need
}

// MinPasswordLength is the shortest accepted password.
const MinPasswordLength = 8

// ValidatePassword checks password strength requirements.
func ValidatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return fmt.Errorf("password must be at least %d characters", MinPasswordLength)
	}
	return nil
}

// RegisterInput is the body of a registration request.
type RegisterInput struct {
	Username  string `json:"username" validate:"required,min=3,max=30,username"`
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=8"`
	FirstName string `json:"first_name" validate:"required,max=50"`
	LastName  string `json:"last_name" validate:"required,max=50"`
	Location  string `json:"location" validate:"max=100"`
}

// ProfileInput is a partial profile update. Nil fields are left unchanged.
type ProfileInput struct {
	Username  *string `json:"username" validate:"omitempty,min=3,max=30,username"`
	FirstName *string `json:"first_name" validate:"omitempty,min=1,max=50"`
	LastName  *string `json:"last_name" validate:"omitempty,min=1,max=50"`
	Location  *string `json:"location" validate:"omitempty,max=100"`
	Bio       *string `json:"bio" validate:"omitempty,max=500"`
}
