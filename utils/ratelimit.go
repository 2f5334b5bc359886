package utils

import (
	"sync"
	"time"
)

// RateLimiter allows a fixed number of uses per key within a window.
type RateLimiter struct {
	limits map[string]*userLimit
	mu     sync.Mutex
	limit  int
	window time.Duration
	now    func() time.Time
}

// userLimit is the current window of one user+command key.
type userLimit struct {
	windowStart time.Time
	count       int
}

// NewRateLimiter creates a limiter allowing limit uses per window.
func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		limits: make(map[string]*userLimit),
		limit:  limit,
		window: window,
		now:    time.Now,
	}
}

func key(userID, command string) string {
	return userID + ":" + command
}

// Allow checks if a user is allowed to execute a command
// Returns true if allowed, false if rate limited
func (rl *RateLimiter) Allow(userID, command string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	k := key(userID, command)
	now := rl.now()

	limit, exists := rl.limits[k]
	if !exists || now.Sub(limit.windowStart) >= rl.window {
		rl.limits[k] = &userLimit{windowStart: now, count: 1}
		return true
	}

	if limit.count >= rl.limit {
		return false
	}
	limit.count++
	return true
}

// RetryAfter returns how long until the key's window resets.
func (rl *RateLimiter) RetryAfter(userID, command string) time.Duration {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	limit, exists := rl.limits[key(userID, command)]
	if !exists {
		return 0
	}
	elapsed := rl.now().Sub(limit.windowStart)
	if elapsed >= rl.window {
		return 0
	}
	return rl.window - elapsed
}

// Prune forgets keys whose window has passed.
func (rl *RateLimiter) Prune() {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	now := rl.now()
	for k, limit := range rl.limits {
		if now.Sub(limit.windowStart) >= rl.window {
			delete(rl.limits, k)
		}
	}
}
