package auth

import "time"

const (
	// MaxFailedAttempts is the post-increment count at which an account locks.
	MaxFailedAttempts = 5
	// LockoutDuration is how long a locked account stays locked.
	LockoutDuration = 15 * time.Minute
)

func ShouldLock(failedAttempts int) bool {
	return failedAttempts >= MaxFailedAttempts
}

func LockExpiry(now time.Time) time.Time {
	return now.Add(LockoutDuration)
}

// IsCurrentlyLocked treats a lock that expires exactly at the check instant
// as already expired.
func IsCurrentlyLocked(lockedUntil *time.Time, now time.Time) bool {
	return lockedUntil != nil && lockedUntil.After(now)
}
