package model

import (
	"strings"
	"time"
)

// Role is the access level of a user account.
type Role string

const (
	RoleAdmin  Role = "ADMIN"
	RoleParent Role = "PARENT"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleParent
}

// User is an association member account (an administrator or a parent).
type User struct {
	ID           string    `json:"id" yaml:"id"`
	Email        string    `json:"email" yaml:"email"`
	FirstName    string    `json:"firstName" yaml:"firstName"`
	LastName     string    `json:"lastName" yaml:"lastName"`
	Phone        *string   `json:"phone,omitempty" yaml:"phone"`
	Address      *string   `json:"address,omitempty" yaml:"address"`
	Role         Role      `json:"role" yaml:"role"`
	IsActive     bool      `json:"isActive" yaml:"isActive"`
	PasswordHash string    `json:"-" yaml:"-"`
	CreatedAt    time.Time `json:"createdAt" yaml:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt" yaml:"updatedAt"`
}

// FullName joins first and last name.
func (u User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// NormalizeEmail is the canonical form used for uniqueness checks and login.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
