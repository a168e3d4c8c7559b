// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/taibuivan/vidtube/internal/platform/constants"
	"github.com/taibuivan/vidtube/internal/users/identity"
)

// LoginLimiter throttles repeated login attempts for one identifier.
type LoginLimiter interface {
	// Reserve counts one attempt and returns a [*ThrottledError] once the
	// budget for the current window is spent.
	Reserve(ctx context.Context, identifier string) error
	// Reset forgets past attempts after a successful login.
	Reset(ctx context.Context, identifier string) error
}

// reserveScript increments the counter and starts the window in one step.
// A key found without a TTL gets one, so a half-applied write never locks
// an identifier forever.
var reserveScript = redis.NewScript(`
local count = redis.call('INCR', KEYS[1])
if count == 1 then
	redis.call('PEXPIRE', KEYS[1], ARGV[1])
end
local ttl = redis.call('PTTL', KEYS[1])
if ttl < 0 then
	redis.call('PEXPIRE', KEYS[1], ARGV[1])
	ttl = tonumber(ARGV[1])
end
return {count, ttl}
`)

// RedisLoginLimiter keeps fixed-window attempt counters in Redis so the
// lockout is shared by every API replica.
type RedisLoginLimiter struct {
	client      redis.UniversalClient
	maxAttempts int64
	window      time.Duration
}

// NewRedisLoginLimiter builds a limiter allowing maxAttempts attempts per window.
func NewRedisLoginLimiter(client redis.UniversalClient, maxAttempts int, window time.Duration) *RedisLoginLimiter {
	return &RedisLoginLimiter{
		client:      client,
		maxAttempts: int64(maxAttempts),
		window:      window,
	}
}

/*
Reserve claims one attempt before the secret is checked.

Concurrent callers each get a distinct count, so at most maxAttempts of them
reach the password check in one window. The counter is only cleared by
[RedisLoginLimiter.Reset].
*/
func (limiter *RedisLoginLimiter) Reserve(ctx context.Context, identifier string) error {
	result, err := reserveScript.Run(ctx, limiter.client,
		[]string{loginFailureKey(identifier)},
		limiter.window.Milliseconds(),
	).Int64Slice()
	if err != nil {
		return fmt.Errorf("auth_limiter_reserve_failed: %w", err)
	}
	if len(result) != 2 {
		return fmt.Errorf("auth_limiter_reserve_failed: unexpected reply %v", result)
	}

	count, ttl := result[0], time.Duration(result[1])*time.Millisecond
	if count <= limiter.maxAttempts {
		return nil
	}
	return &ThrottledError{RetryAfter: max(ttl, time.Second)}
}

func (limiter *RedisLoginLimiter) Reset(ctx context.Context, identifier string) error {
	if err := limiter.client.Del(ctx, loginFailureKey(identifier)).Err(); err != nil {
		return fmt.Errorf("auth_limiter_reset_failed: %w", err)
	}
	return nil
}

func loginFailureKey(identifier string) string {
	return constants.RedisPrefixLoginFailure + identity.Normalize(identifier)
}
