package ratelimit

import (
	"sync"
	"time"
)

const (
	bucketTTL       = 30 * time.Minute
	cleanupInterval = time.Minute
	maxBuckets      = 10000
)

// Decision reports whether an attempt may proceed and, when it may not,
// how long the caller should wait.
type Decision struct {
	Allowed    bool
	RetryAfter time.Duration
}

// Limiter is a per-process token-bucket limiter. Buckets refill fully once
// the window elapses; state is lost on restart, which is acceptable for
// best-effort login throttling.
type Limiter struct {
	mu          sync.Mutex
	buckets     map[string]*bucket
	capacity    int
	window      time.Duration
	lastCleanup time.Time
	now         func() time.Time
}

type bucket struct {
	tokens   int
	windowAt time.Time
	lastSeen time.Time
}

func NewLimiter(capacity int, window time.Duration) *Limiter {
	return &Limiter{
		buckets:  make(map[string]*bucket),
		capacity: capacity,
		window:   window,
		now:      time.Now,
	}
}

func (l *Limiter) Consume(key string) Decision {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	if now.Sub(l.lastCleanup) >= cleanupInterval {
		l.cleanup(now)
		l.lastCleanup = now
	}
	b, ok := l.buckets[key]
	if !ok {
		l.buckets[key] = &bucket{tokens: l.capacity - 1, windowAt: now, lastSeen: now}
		return Decision{Allowed: true}
	}
	b.lastSeen = now
	if elapsed := now.Sub(b.windowAt); elapsed >= l.window {
		b.tokens = l.capacity
		b.windowAt = now
	}
	if b.tokens <= 0 {
		return Decision{RetryAfter: b.windowAt.Add(l.window).Sub(now)}
	}
	b.tokens--
	return Decision{Allowed: true}
}

// Reset drops the bucket for key, forgiving prior attempts. Called after a
// successful login.
func (l *Limiter) Reset(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.buckets, key)
}

func (l *Limiter) cleanup(now time.Time) {
	for key, b := range l.buckets {
		if now.Sub(b.lastSeen) > bucketTTL {
			delete(l.buckets, key)
		}
	}
	for len(l.buckets) > maxBuckets {
		oldestKey := ""
		var oldest time.Time
		for key, b := range l.buckets {
			if oldestKey == "" || b.lastSeen.Before(oldest) {
				oldestKey = key
				oldest = b.lastSeen
			}
		}
		if oldestKey == "" {
			break
		}
		delete(l.buckets, oldestKey)
	}
}
