package auth

import (
	"context"
	"time"

	"portfolio-admin/core/store"
	"portfolio-admin/core/utils"
)

// Verifier orchestrates credential checks: lookup, lock state, account
// status, password verification, and the attempt-counter bookkeeping.
type Verifier struct {
	users  store.UsersStore
	audits store.AuditStore
	pepper string
	logger *utils.Logger
	now    func() time.Time
}

func NewVerifier(users store.UsersStore, audits store.AuditStore, pepper string, logger *utils.Logger) *Verifier {
	return &Verifier{users: users, audits: audits, pepper: pepper, logger: logger, now: time.Now}
}

// Authenticate returns the identity on success, an *AuthError on a rejected
// attempt, or an infrastructure error. The unknown-user and wrong-password
// outcomes share one error shape; only the audit trail records which it was.
func (v *Verifier) Authenticate(ctx context.Context, username, password string) (*store.User, error) {
	user, err := v.users.FindByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	now := v.now().UTC()
	if user == nil {
		v.audit(ctx, username, "auth.login_failed", "user unknown")
		return nil, &AuthError{Kind: KindInvalidCredentials}
	}

	// Lock state wins over everything, including a correct password.
	if IsCurrentlyLocked(user.LockedUntil, now) {
		v.audit(ctx, username, "auth.login_blocked", "locked")
		return nil, &AuthError{Kind: KindAccountLocked, RetryAfter: user.LockedUntil.Sub(now)}
	}

	if user.Status != store.StatusActive {
		v.audit(ctx, username, "auth.login_blocked", "status="+string(user.Status))
		return nil, &AuthError{Kind: KindAccountInactive}
	}

	if !VerifyPassword(password, v.pepper, user.PasswordDigest) {
		attempts, lockedUntil, err := v.users.RecordFailure(ctx, user.ID, LockExpiry(now), MaxFailedAttempts)
		if err != nil {
			return nil, err
		}
		if ShouldLock(attempts) {
			v.audit(ctx, username, "auth.lockout", "attempts exhausted")
			retry := LockoutDuration
			if lockedUntil != nil {
				retry = lockedUntil.Sub(now)
			}
			return nil, &AuthError{Kind: KindAccountLocked, RetryAfter: retry}
		}
		v.audit(ctx, username, "auth.login_failed", "invalid password")
		return nil, &AuthError{Kind: KindInvalidCredentials, AttemptsLeft: MaxFailedAttempts - attempts}
	}

	if err := v.users.ResetOnSuccess(ctx, user.ID, now); err != nil {
		return nil, err
	}
	user.FailedLoginAttempts = 0
	user.LockedUntil = nil
	user.LastLoginAt = &now
	v.audit(ctx, username, "auth.login_success", "")
	return user, nil
}

// audit is fire-and-forget: sink failures are logged and swallowed.
func (v *Verifier) audit(ctx context.Context, username, action, details string) {
	if v.audits == nil {
		return
	}
	if err := v.audits.Record(ctx, username, action, "user", "", details); err != nil && v.logger != nil {
		v.logger.Errorf("audit record failed: %v", err)
	}
}
