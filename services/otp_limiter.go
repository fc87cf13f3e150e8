package services

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/AmyVerse/ayursutra-web-sub001/xerrors"
)

const otpRateNamespace = "otp_rate"

// RedisOTPLimiter enforces a cooldown between sends and a cap per window. Going over the cap
// blocks the identifier for one more window.
type RedisOTPLimiter struct {
	rdb         redis.UniversalClient
	window      time.Duration
	maxInWindow int
	cooldown    time.Duration
}

func NewRedisOTPLimiter(rdb redis.UniversalClient, window time.Duration, max int, cooldown time.Duration) *RedisOTPLimiter {
	return &RedisOTPLimiter{rdb: rdb, window: window, maxInWindow: max, cooldown: cooldown}
}

func otpRateKey(kind, identifier string) string {
	return fmt.Sprintf("%s:%s:%s", otpRateNamespace, kind, identifier)
}

func (l *RedisOTPLimiter) Allow(ctx context.Context, identifier string) error {
	blockKey := otpRateKey("block", identifier)
	lastKey := otpRateKey("last", identifier)
	countKey := otpRateKey("count", identifier)

	ttl, err := l.rdb.TTL(ctx, blockKey).Result()
	if err != nil {
		return err
	}
	if ttl > 0 {
		return xerrors.New(xerrors.KindTooManyRequests,
			fmt.Sprintf("Too many OTP requests, try again in %d seconds", int(ttl.Seconds())))
	}

	ttl, err = l.rdb.TTL(ctx, lastKey).Result()
	if err != nil {
		return err
	}
	if ttl > 0 {
		return xerrors.New(xerrors.KindTooManyRequests,
			fmt.Sprintf("Please wait %d seconds before requesting another OTP", int(ttl.Seconds())))
	}

	count, err := l.rdb.Incr(ctx, countKey).Result()
	if err != nil {
		return err
	}
	if count == 1 {
		if err := l.rdb.Expire(ctx, countKey, l.window).Err(); err != nil {
			return err
		}
	}
	if int(count) > l.maxInWindow {
		if err := l.rdb.Set(ctx, blockKey, "1", l.window).Err(); err != nil {
			return err
		}
		return xerrors.New(xerrors.KindTooManyRequests,
			fmt.Sprintf("Too many OTP requests, try again in %d seconds", int(l.window.Seconds())))
	}

	return l.rdb.Set(ctx, lastKey, "1", l.cooldown).Err()
}

// Release drops the cooldown set by Allow. The window count is kept.
func (l *RedisOTPLimiter) Release(ctx context.Context, identifier string) error {
	return l.rdb.Del(ctx, otpRateKey("last", identifier)).Err()
}
