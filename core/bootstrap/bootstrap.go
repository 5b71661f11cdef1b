// Package bootstrap prepares a fresh database for first use.
package bootstrap

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/gofrs/uuid/v5"

	"portfolio-admin/core/auth"
	"portfolio-admin/core/rbac"
	"portfolio-admin/core/store"
	"portfolio-admin/core/utils"
)

const (
	defaultAdminUsername = "admin"
	defaultAdminPassword = "ChangeMe123"
)

// EnsureDefaultAdmin seeds a SUPER_ADMIN account when the users table is
// empty. The seeded account is forced through a password reset on first
// login. The initial password can be overridden with
// PORTFOLIO_ADMIN_PASSWORD; otherwise a fixed bootstrap value is used and
// logged as a warning.
func EnsureDefaultAdmin(ctx context.Context, users store.UsersStore, pepper string, logger *utils.Logger) error {
	count, err := users.Count(ctx)
	if err != nil {
		return fmt.Errorf("count users: %w", err)
	}
	if count > 0 {
		return nil
	}

	password := os.Getenv("PORTFOLIO_ADMIN_PASSWORD")
	fromEnv := password != ""
	if !fromEnv {
		password = defaultAdminPassword
	}
	digest, err := auth.HashPassword(password, pepper)
	if err != nil {
		return fmt.Errorf("hash bootstrap password: %w", err)
	}

	id, err := uuid.NewV4()
	if err != nil {
		return fmt.Errorf("generate user id: %w", err)
	}
	now := time.Now().UTC()
	admin := &store.User{
		ID:                id.String(),
		Username:          defaultAdminUsername,
		Email:             "admin@localhost",
		DisplayName:       "Administrator",
		PasswordDigest:    digest,
		Role:              rbac.RoleSuperAdmin,
		Status:            store.StatusActive,
		MustResetPassword: true,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := users.Create(ctx, admin); err != nil {
		return fmt.Errorf("create bootstrap admin: %w", err)
	}

	if fromEnv {
		logger.Printf("bootstrap: created SUPER_ADMIN %q with password from environment", defaultAdminUsername)
	} else {
		logger.Printf("bootstrap: created SUPER_ADMIN %q with default password %q, change it on first login", defaultAdminUsername, defaultAdminPassword)
	}
	return nil
}
