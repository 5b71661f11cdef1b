package auth

import (
	"testing"
	"time"
)

func TestShouldLock(t *testing.T) {
	if ShouldLock(4) {
		t.Fatal("4 attempts must not lock")
	}
	if !ShouldLock(5) {
		t.Fatal("5 attempts must lock")
	}
	if !ShouldLock(6) {
		t.Fatal("6 attempts must lock")
	}
}

func TestLockExpiry(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	if got := LockExpiry(now); got != now.Add(15*time.Minute) {
		t.Fatalf("expiry = %v", got)
	}
}

func TestIsCurrentlyLocked(t *testing.T) {
	now := time.Now().UTC()
	if IsCurrentlyLocked(nil, now) {
		t.Fatal("nil lock must be unlocked")
	}
	past := now.Add(-time.Second)
	if IsCurrentlyLocked(&past, now) {
		t.Fatal("past lock must be unlocked")
	}
	exact := now
	if IsCurrentlyLocked(&exact, now) {
		t.Fatal("lock expiring exactly now must count as unlocked")
	}
	future := now.Add(time.Second)
	if !IsCurrentlyLocked(&future, now) {
		t.Fatal("future lock must be locked")
	}
}
