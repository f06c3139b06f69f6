package domain

import (
	"fmt"
	"time"
)

// Role is a privilege tier. The set of roles is closed: only RoleUser and
// RoleAdmin are valid, and admin holds every capability a user holds.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAdmin:
		return true
	}
	return false
}

func (r Role) String() string { return string(r) }

// ParseRole converts s into a Role, rejecting anything outside the enumeration.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidRole, s)
	}
	return r, nil
}

// MinPasswordLength is the shortest password accepted at registration.
const MinPasswordLength = 6

// User models an account in the credential store.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Identity is the authenticated actor of a single request. It is built from
// the live user record and never persisted.
type Identity struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Role  Role   `json:"role"`
}

// IsAdmin reports whether the identity holds the admin role.
func (i Identity) IsAdmin() bool { return i.Role == RoleAdmin }

// IdentityOf projects a user record to the request identity.
func IdentityOf(u *User) Identity {
	return Identity{ID: u.ID, Email: u.Email, Role: u.Role}
}

// UserQuery carries the admin user-listing parameters.
type UserQuery struct {
	Email string // case-insensitive substring
	Role  Role   // optional exact match
	Page  int
	Limit int
}
