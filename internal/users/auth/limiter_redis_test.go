// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/taibuivan/vidtube/internal/users/auth"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return server, client
}

/*
TestRedisLoginLimiter verifies the fixed-window lockout.
*/
func TestRedisLoginLimiter(t *testing.T) {
	server, client := newTestRedis(t)
	limiter := auth.NewRedisLoginLimiter(client, 3, time.Minute)
	ctx := context.Background()

	// 1. Within the budget; identifier case does not matter
	for _, identifier := range []string{"Alice", "alice", "ALICE"} {
		require.NoError(t, limiter.Reserve(ctx, identifier))
	}

	// 2. Budget exhausted
	err := limiter.Reserve(ctx, "alice")
	require.ErrorIs(t, err, auth.ErrLoginThrottled)

	var throttled *auth.ThrottledError
	require.True(t, errors.As(err, &throttled))
	assert.Greater(t, throttled.RetryAfter, time.Duration(0))
	assert.LessOrEqual(t, throttled.RetryAfter, time.Minute)

	// 3. Rejected attempts do not push the window out
	ttl := server.TTL("auth:login_fail:alice")
	assert.Greater(t, ttl, time.Duration(0))
	assert.LessOrEqual(t, ttl, time.Minute)

	// 4. Window expiry unlocks
	server.FastForward(time.Minute + time.Second)
	assert.NoError(t, limiter.Reserve(ctx, "alice"))
}

/*
TestRedisLoginLimiter_Reset verifies a success clears past attempts.
*/
func TestRedisLoginLimiter_Reset(t *testing.T) {
	_, client := newTestRedis(t)
	limiter := auth.NewRedisLoginLimiter(client, 1, time.Minute)
	ctx := context.Background()

	require.NoError(t, limiter.Reserve(ctx, "alice"))
	require.ErrorIs(t, limiter.Reserve(ctx, "alice"), auth.ErrLoginThrottled)

	require.NoError(t, limiter.Reset(ctx, "alice"))
	assert.NoError(t, limiter.Reserve(ctx, "alice"))
}

/*
TestRedisLoginLimiter_HealsMissingTTL verifies that a counter left without an
expiry still gets one instead of locking the identifier forever.
*/
func TestRedisLoginLimiter_HealsMissingTTL(t *testing.T) {
	server, client := newTestRedis(t)
	limiter := auth.NewRedisLoginLimiter(client, 1, time.Minute)
	ctx := context.Background()

	// 1. A counter with no TTL, as left by an interrupted write
	require.NoError(t, server.Set("auth:login_fail:alice", "5"))

	// 2. Still throttled, but now bounded by the window
	require.ErrorIs(t, limiter.Reserve(ctx, "alice"), auth.ErrLoginThrottled)
	assert.Greater(t, server.TTL("auth:login_fail:alice"), time.Duration(0))

	server.FastForward(time.Minute + time.Second)
	assert.NoError(t, limiter.Reserve(ctx, "alice"))
}

/*
TestService_LoginThrottling verifies the service consults and feeds the limiter.
*/
func TestService_LoginThrottling(t *testing.T) {
	_, client := newTestRedis(t)
	f := newFixture(t, auth.Options{Limiter: auth.NewRedisLoginLimiter(client, 2, time.Minute)})
	ctx := context.Background()

	for range 2 {
		_, err := f.service.Login(ctx, auth.LoginInput{Identifier: "alice", Secret: "wrong"})
		require.ErrorIs(t, err, auth.ErrInvalidCredentials)
	}

	// Even the right secret is refused while locked out.
	_, err := f.service.Login(ctx, auth.LoginInput{Identifier: "alice", Secret: "pw1"})
	assert.ErrorIs(t, err, auth.ErrLoginThrottled)
}

/*
TestService_LoginThrottling_Parallel verifies that concurrent wrong guesses
cannot all slip past the lockout.
*/
func TestService_LoginThrottling_Parallel(t *testing.T) {
	_, client := newTestRedis(t)
	const maxAttempts, contenders = 3, 30
	f := newFixture(t, auth.Options{Limiter: auth.NewRedisLoginLimiter(client, maxAttempts, time.Minute)})

	var rejected, throttled atomic.Int32
	var group errgroup.Group
	start := make(chan struct{})
	for range contenders {
		group.Go(func() error {
			<-start
			_, err := f.service.Login(context.Background(), auth.LoginInput{Identifier: "alice", Secret: "wrong"})
			switch {
			case errors.Is(err, auth.ErrInvalidCredentials):
				rejected.Add(1)
			case errors.Is(err, auth.ErrLoginThrottled):
				throttled.Add(1)
			default:
				return err
			}
			return nil
		})
	}
	close(start)

	require.NoError(t, group.Wait())
	assert.Equal(t, int32(maxAttempts), rejected.Load(), "password checks performed")
	assert.Equal(t, int32(contenders-maxAttempts), throttled.Load())
}

/*
TestService_LimiterOutageFailsOpen verifies a Redis outage does not block logins.
*/
func TestService_LimiterOutageFailsOpen(t *testing.T) {
	server, client := newTestRedis(t)
	f := newFixture(t, auth.Options{Limiter: auth.NewRedisLoginLimiter(client, 2, time.Minute)})
	server.Close()

	_, err := f.service.Login(context.Background(), auth.LoginInput{Identifier: "alice", Secret: "pw1"})
	assert.NoError(t, err)
}
