package auth

import (
	"context"
	"sync"
	"time"
)

// RateLimiter is a fixed-window in-memory rate limiter keyed by an
// arbitrary string (client IP or user ID). Suitable for a single
// process; cross-instance fairness is best-effort.
type RateLimiter struct {
	mu      sync.Mutex
	limit   int
	window  time.Duration
	buckets map[string]*window
}

type window struct {
	start time.Time
	count int
}

// NewRateLimiter creates a limiter allowing limit requests per window
func NewRateLimiter(limit int, windowSize time.Duration) *RateLimiter {
	return &RateLimiter{
		limit:   limit,
		window:  windowSize,
		buckets: make(map[string]*window),
	}
}

// NewIPRateLimiter creates a per-IP limiter with a one-minute window
func NewIPRateLimiter(perMinute int) *RateLimiter {
	return NewRateLimiter(perMinute, time.Minute)
}

// NewUserRateLimiter creates a per-user limiter with a one-minute window
func NewUserRateLimiter(perMinute int) *RateLimiter {
	return NewRateLimiter(perMinute, time.Minute)
}

// Allow reports whether the key may proceed, counting this attempt
func (l *RateLimiter) Allow(ctx context.Context, key string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	b, ok := l.buckets[key]
	if !ok || now.Sub(b.start) >= l.window {
		l.buckets[key] = &window{start: now, count: 1}
		l.evictStale(now)
		return true, nil
	}

	if b.count >= l.limit {
		return false, nil
	}
	b.count++
	return true, nil
}

// evictStale drops windows older than two window lengths. Called with
// the lock held.
func (l *RateLimiter) evictStale(now time.Time) {
	if len(l.buckets) < 10000 {
		return
	}
	for key, b := range l.buckets {
		if now.Sub(b.start) >= 2*l.window {
			delete(l.buckets, key)
		}
	}
}
