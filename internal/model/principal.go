package model

import (
	"time"

	"golang.org/x/crypto/bcrypt"
)

// Roles understood by the platform.
const (
	RoleStudent    = "STUDENT"
	RoleInstructor = "INSTRUCTOR"
	RoleAdmin      = "ADMIN"
)

// Principal represents an account as stored in the `users` table.
// Accounts are never deleted; IsBanned soft-bans them instead.
//
// Fields:
//
//	ID            – primary key identifier.
//	Email         – unique, lower-cased email address.
//	PasswordHash  – bcrypt hash; never leaves the service.
//	Role          – STUDENT, INSTRUCTOR or ADMIN.
//	EmailVerified – set once the registration OTP is confirmed.
//	LastLogin     – time of the last successful login (nullable).
type Principal struct {
	ID            uint64     // users.id
	Email         string     // users.email
	PasswordHash  string     // users.password_hash
	Role          string     // users.role
	DisplayName   string     // users.display_name
	Phone         string     // users.phone
	EmailVerified bool       // users.email_verified
	IsBanned      bool       // users.is_banned
	LastLogin     *time.Time // users.last_login_at
	CreatedAt     time.Time  // users.created_at
	UpdatedAt     time.Time  // users.updated_at
}

// CheckPassword compares plain against the stored bcrypt hash.
func (p Principal) CheckPassword(plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(p.PasswordHash), []byte(plain)) == nil
}
