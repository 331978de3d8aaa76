package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	defaultMaxAttempts = 5
	defaultLockWindow  = 15 * time.Minute
)

// LoginLimiter throttles failed login attempts per login, backed by a Redis
// counter with a sliding lock window.
// Key format: login_attempts:<login>
type LoginLimiter struct {
	client      *redis.Client
	maxAttempts int
	window      time.Duration
}

// NewLoginLimiter creates a LoginLimiter. Non-positive arguments fall back
// to the defaults (5 attempts per 15 minutes).
func NewLoginLimiter(client *redis.Client, maxAttempts int, window time.Duration) *LoginLimiter {
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxAttempts
	}
	if window <= 0 {
		window = defaultLockWindow
	}
	return &LoginLimiter{client: client, maxAttempts: maxAttempts, window: window}
}

// IsLocked reports whether the login has exhausted its attempt budget.
func (l *LoginLimiter) IsLocked(ctx context.Context, login string) (bool, error) {
	n, err := l.client.Get(ctx, l.key(login)).Int()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("limiter check: %w", err)
	}
	return n >= l.maxAttempts, nil
}

// RecordFailure increments the failure counter and refreshes the window.
func (l *LoginLimiter) RecordFailure(ctx context.Context, login string) error {
	key := l.key(login)
	pipe := l.client.TxPipeline()
	pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, l.window)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("limiter record: %w", err)
	}
	return nil
}

// Reset clears the failure counter after a successful login.
func (l *LoginLimiter) Reset(ctx context.Context, login string) error {
	return l.client.Del(ctx, l.key(login)).Err()
}

func (l *LoginLimiter) key(login string) string {
	return "login_attempts:" + login
}
