// Package model defines domain entities for the application.
package model

import (
	"strings"
	"time"
)

// Role constants for user authorization.
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// ValidRoles contains all valid role values.
var ValidRoles = []string{RoleAdmin, RoleUser}

// User represents an allowlisted account. A record existing here is what
// permits its email to sign in at all; Role decides admin access.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      *string   `json:"name"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// IsAdmin returns true if the user holds the admin role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// Session is the per-request resolved identity. Role is re-read from the
// user store on every request rather than cached in the cookie, so role
// changes apply on the next request.
type Session struct {
	UserID string  `json:"-"`
	Email  string  `json:"email"`
	Name   *string `json:"name"`
	Role   string  `json:"role"`
}

// IsAdmin returns true if the session carries the admin role.
func (s *Session) IsAdmin() bool {
	return s.Role == RoleAdmin
}

// NormalizeEmail lowercases and trims an email address. Every path that
// stores or compares an email goes through this, so " Alice@Example.com ",
// "alice@example.com" and "ALICE@EXAMPLE.COM" are the same identity.
// Idempotent: applying it twice equals applying it once.
func NormalizeEmail(email string) string {
	return strings.TrimSpace(strings.ToLower(email))
}
