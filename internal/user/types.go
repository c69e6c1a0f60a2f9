package user

import (
	"errors"
	"time"

	"github.com/unrealfeathers/home-server/internal/auth"
)

// User represents a registered account.
type User struct {
	ID           int64      `json:"id"`
	Username     string     `json:"username"`
	PasswordHash string     `json:"-"` // never serialised
	Email        string     `json:"email,omitempty"`
	Phone        string     `json:"phone,omitempty"`
	Role         auth.Role  `json:"role"`
	LastLogin    *time.Time `json:"last_login,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// AuthUser returns the minimal view used for token issuance.
func (u *User) AuthUser() *auth.User {
	return &auth.User{Username: u.Username, Role: u.Role}
}

// IsAdmin reports whether the account holds the admin role.
func (u *User) IsAdmin() bool {
	return u.Role == auth.RoleAdmin
}

// ProfileUpdate holds the self-service profile fields a user may change.
// Role is deliberately absent: accounts cannot elevate themselves.
// Nil fields are left untouched.
type ProfileUpdate struct {
	Username *string `json:"username,omitempty"`
	Email    *string `json:"email,omitempty"`
	Phone    *string `json:"phone,omitempty"`
}

// AdminUpdate holds the fields an administrator may change on any account.
// Nil fields are left untouched.
type AdminUpdate struct {
	Username *string    `json:"username,omitempty"`
	Email    *string    `json:"email,omitempty"`
	Phone    *string    `json:"phone,omitempty"`
	Role     *auth.Role `json:"role,omitempty"`
}

// Filter narrows List queries. Zero values mean "no filter".
type Filter struct {
	Username string
	Role     auth.Role
}

// Sentinel errors for user operations.
var (
	ErrNotFound       = errors.New("user not found")
	ErrUsernameExists = errors.New("username already exists")
	ErrInvalidRole    = errors.New("invalid role")
)
