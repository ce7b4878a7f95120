package model

import (
	"time"

	"github.com/google/uuid"
)

// Role is the authorization role carried by every authenticated actor.
type Role string

const (
	RoleCitizen Role = "citizen"
	RoleStaff   Role = "staff"
	RoleAdmin   Role = "admin"
)

func (r Role) Valid() bool {
	switch r {
	case RoleCitizen, RoleStaff, RoleAdmin:
		return true
	}
	return false
}

// IsStaff reports whether the role carries staff-level privileges.
func (r Role) IsStaff() bool {
	return r == RoleStaff || r == RoleAdmin
}

// Actor identifies the authenticated party performing an operation.
// The transport layer builds it from the bearer token; the core only
// ever sees this struct.
type Actor struct {
	ID   uuid.UUID
	Role Role
	// CitizenID is set for citizen actors and links them to their
	// citizen record. Ownership checks compare against it.
	CitizenID uuid.UUID
}

// User is an authentication account. A citizen account is linked to a
// Citizen record; staff accounts to a Staff record.
type User struct {
	Base
	Email               string     `json:"email" db:"email"`
	PasswordHash        string     `json:"-" db:"password_hash"`
	FirstName           string     `json:"first_name" db:"first_name"`
	LastName            string     `json:"last_name" db:"last_name"`
	Phone               *string    `json:"phone" db:"phone"`
	Role                Role       `json:"role" db:"role"`
	CitizenID           *uuid.UUID `json:"citizen_id,omitempty" db:"citizen_id"`
	IsActive            bool       `json:"is_active" db:"is_active"`
	LastLoginAt         *time.Time `json:"last_login_at" db:"last_login_at"`
	FailedLoginAttempts int        `json:"-" db:"failed_login_attempts"`
	LockedUntil         *time.Time `json:"-" db:"locked_until"`
}
