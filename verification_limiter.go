package authflow

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

var (
	errVerificationRateLimited      = errors.New("verification rate limited")
	errVerificationRedisUnavailable = errors.New("verification redis unavailable")
)

// verificationLimiter caps code-confirmation attempts per account. The code
// space is four digits, so the window has to be tight. A nil limiter allows
// everything.
type verificationLimiter struct {
	redis  *redis.Client
	config Config
}

func newVerificationLimiter(redisClient *redis.Client, cfg Config) *verificationLimiter {
	return &verificationLimiter{
		redis:  redisClient,
		config: cfg,
	}
}

func (l *verificationLimiter) Enforce(ctx context.Context, accountID string) error {
	if l == nil {
		return nil
	}

	key := l.config.Limiter.KeyPrefix + ":verify:" + accountID

	count, err := l.redis.Incr(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("%w: %v", errVerificationRedisUnavailable, err)
	}

	if count == 1 {
		if err := l.redis.Expire(ctx, key, l.config.Verification.CodeTTL).Err(); err != nil {
			return fmt.Errorf("%w: %v", errVerificationRedisUnavailable, err)
		}
	}

	if count > int64(l.config.Verification.MaxAttempts) {
		return errVerificationRateLimited
	}

	return nil
}

// Clear removes the attempt window once a code is consumed or reissued.
func (l *verificationLimiter) Clear(ctx context.Context, accountID string) {
	if l == nil {
		return
	}
	l.redis.Del(ctx, l.config.Limiter.KeyPrefix+":verify:"+accountID)
}
