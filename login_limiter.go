package authflow

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

var (
	errLoginRateLimited      = errors.New("login rate limited")
	errLoginRedisUnavailable = errors.New("login redis unavailable")
)

// loginLimiter throttles login attempts per normalized email with a Redis
// fixed window. A nil limiter allows everything.
type loginLimiter struct {
	redis  *redis.Client
	config LimiterConfig
}

func newLoginLimiter(redisClient *redis.Client, cfg LimiterConfig) *loginLimiter {
	return &loginLimiter{
		redis:  redisClient,
		config: cfg,
	}
}

func (l *loginLimiter) Enforce(ctx context.Context, email string) error {
	if l == nil {
		return nil
	}

	key := l.config.KeyPrefix + ":login:" + email

	count, err := l.redis.Incr(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("%w: %v", errLoginRedisUnavailable, err)
	}

	if count == 1 {
		if err := l.redis.Expire(ctx, key, l.config.LoginCooldown).Err(); err != nil {
			return fmt.Errorf("%w: %v", errLoginRedisUnavailable, err)
		}
	}

	if count > int64(l.config.MaxLoginAttempts) {
		return errLoginRateLimited
	}

	return nil
}

// Reset drops the window after a successful login so a correct password is
// never punished for earlier typos.
func (l *loginLimiter) Reset(ctx context.Context, email string) {
	if l == nil {
		return
	}
	l.redis.Del(ctx, l.config.KeyPrefix+":login:"+email)
}
