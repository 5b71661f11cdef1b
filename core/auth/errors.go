package auth

import (
	"fmt"
	"math"
	"time"
)

type FailureKind int

const (
	// KindInvalidCredentials covers both unknown usernames and wrong
	// passwords; callers cannot tell them apart.
	KindInvalidCredentials FailureKind = iota
	KindAccountLocked
	KindAccountInactive
)

// AuthError is the typed result of a failed authentication attempt. Its
// Message is safe to show to the user as-is.
type AuthError struct {
	Kind         FailureKind
	AttemptsLeft int
	RetryAfter   time.Duration
}

func (e *AuthError) Error() string {
	switch e.Kind {
	case KindAccountLocked:
		return "account locked"
	case KindAccountInactive:
		return "account inactive"
	default:
		return "invalid credentials"
	}
}

func (e *AuthError) Message() string {
	switch e.Kind {
	case KindAccountLocked:
		return fmt.Sprintf("Account locked. Try again in %d minutes.", minutesCeil(e.RetryAfter))
	case KindAccountInactive:
		return "Account disabled. Contact the administrator."
	default:
		if e.AttemptsLeft > 0 {
			return fmt.Sprintf("Invalid credentials. %d attempts remaining.", e.AttemptsLeft)
		}
		return "Invalid credentials."
	}
}

func minutesCeil(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int(math.Ceil(d.Minutes()))
}
