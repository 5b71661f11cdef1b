package auth

import (
	"time"

	"portfolio-admin/core/rbac"
)

type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type contextKey string

// SessionContextKey holds the *SessionClaims for the current request.
const SessionContextKey contextKey = "session"

// UserDTO is the identity view returned to clients. It deliberately has no
// place for the password digest or lockout counters.
type UserDTO struct {
	ID                string            `json:"id"`
	Username          string            `json:"username"`
	Email             string            `json:"email"`
	DisplayName       string            `json:"display_name"`
	Role              rbac.Role         `json:"role"`
	Status            string            `json:"status"`
	MustResetPassword bool              `json:"must_reset_password"`
	LastLoginAt       *time.Time        `json:"last_login_at,omitempty"`
	Permissions       []rbac.Permission `json:"permissions,omitempty"`
}
