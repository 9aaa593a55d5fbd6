package authflow

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

var (
	errResetRateLimited      = errors.New("reset rate limited")
	errResetRedisUnavailable = errors.New("reset redis unavailable")
)

// resetLimiter caps reset-confirmation attempts per client IP. The token
// itself is unguessable, so this only blunts blind probing. A nil limiter
// allows everything.
type resetLimiter struct {
	redis  *redis.Client
	config Config
}

func newResetLimiter(redisClient *redis.Client, cfg Config) *resetLimiter {
	return &resetLimiter{
		redis:  redisClient,
		config: cfg,
	}
}

func (l *resetLimiter) Enforce(ctx context.Context, ip string) error {
	if l == nil || ip == "" {
		return nil
	}

	key := l.config.Limiter.KeyPrefix + ":reset:" + ip

	count, err := l.redis.Incr(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("%w: %v", errResetRedisUnavailable, err)
	}

	if count == 1 {
		if err := l.redis.Expire(ctx, key, l.config.Reset.TokenTTL).Err(); err != nil {
			return fmt.Errorf("%w: %v", errResetRedisUnavailable, err)
		}
	}

	if count > int64(l.config.Reset.MaxAttempts) {
		return errResetRateLimited
	}

	return nil
}
