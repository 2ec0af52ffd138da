package services

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// SignInLimiter is a fixed-window counter of sign-in attempts per email.
// A nil client disables it.
type SignInLimiter struct {
	rdb    *redis.Client
	max    int64
	window time.Duration
}

func NewSignInLimiter(rdb *redis.Client, maxAttempts int, window time.Duration) *SignInLimiter {
	return &SignInLimiter{rdb: rdb, max: int64(maxAttempts), window: window}
}

func signInKey(email string) string {
	return fmt.Sprintf("rate_limit:signin:%s", normalizeEmail(email))
}

// Allow counts one attempt. When the window is exhausted it returns false
// and the time left. On a Redis error the attempt is allowed and the error
// returned for logging.
func (l *SignInLimiter) Allow(ctx context.Context, email string) (bool, time.Duration, error) {
	if l == nil || l.rdb == nil {
		return true, 0, nil
	}

	key := signInKey(email)
	n, err := l.rdb.Incr(ctx, key).Result()
	if err != nil {
		return true, 0, fmt.Errorf("failed to count sign-in attempt: %w", err)
	}
	if n == 1 {
		if err := l.rdb.Expire(ctx, key, l.window).Err(); err != nil {
			return true, 0, fmt.Errorf("failed to set sign-in window: %w", err)
		}
	}

	if n <= l.max {
		return true, 0, nil
	}

	ttl, err := l.rdb.TTL(ctx, key).Result()
	if err != nil || ttl < 0 {
		ttl = l.window
	}
	return false, ttl, nil
}

// Reset clears the counter after a successful sign-in.
func (l *SignInLimiter) Reset(ctx context.Context, email string) error {
	if l == nil || l.rdb == nil {
		return nil
	}
	return l.rdb.Del(ctx, signInKey(email)).Err()
}
