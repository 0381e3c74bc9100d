// Package identity resolves acting users for the change workflow. The core
// never authenticates; transports validate credentials and hand the service
// an already-resolved actor id. This package owns the user records those
// ids point at, the requester-resolution chain for drafts, and the
// bootstrap administrator created on an empty system.
package identity

import (
	"time"

	id "changeflow/pkg/domain"
)

// Role gates privileged workflow operations (starting or completing someone
// else's change, restoring deleted records).
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// User is an account known to the change-control process.
type User struct {
	ID           id.UserID `json:"id"`
	Username     string    `json:"username"`
	DisplayName  string    `json:"display_name"`
	Email        string    `json:"email,omitempty"`
	PasswordHash []byte    `json:"-"`
	Role         Role      `json:"role"`
	Active       bool      `json:"active"`
	CreatedAt    time.Time `json:"created_at"`
}

// IsPrivileged reports whether the user may perform admin-gated operations.
func (u User) IsPrivileged() bool {
	return u.Role == RoleAdmin
}
