// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec_test

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/vidtube/internal/platform/sec"
)

func testTokenConfig() sec.TokenConfig {
	return sec.TokenConfig{
		AccessSecret:  []byte("access-secret-for-tests"),
		AccessTTL:     15 * time.Minute,
		RefreshSecret: []byte("refresh-secret-for-tests"),
		RefreshTTL:    240 * time.Hour,
		Issuer:        "vidtube.test",
	}
}

func newCodec(t *testing.T, options ...sec.CodecOption) *sec.TokenCodec {
	t.Helper()
	codec, err := sec.NewTokenCodec(testTokenConfig(), options...)
	require.NoError(t, err)
	return codec
}

/*
TestNewTokenCodec_RejectsBadConfig covers the configuration guard rails.
*/
func TestNewTokenCodec_RejectsBadConfig(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*sec.TokenConfig)
	}{
		{"empty_access_secret", func(c *sec.TokenConfig) { c.AccessSecret = nil }},
		{"empty_refresh_secret", func(c *sec.TokenConfig) { c.RefreshSecret = nil }},
		{"shared_secret", func(c *sec.TokenConfig) { c.RefreshSecret = c.AccessSecret }},
		{"zero_access_ttl", func(c *sec.TokenConfig) { c.AccessTTL = 0 }},
		{"negative_refresh_ttl", func(c *sec.TokenConfig) { c.RefreshTTL = -time.Second }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := testTokenConfig()
			tt.mutate(&config)

			_, err := sec.NewTokenCodec(config)
			assert.Error(t, err)
		})
	}
}

/*
TestTokenCodec_RoundTrip verifies that a minted token verifies back to its subject.
*/
func TestTokenCodec_RoundTrip(t *testing.T) {
	codec := newCodec(t)

	for _, purpose := range []sec.Purpose{sec.PurposeAccess, sec.PurposeRefresh} {
		t.Run(string(purpose), func(t *testing.T) {
			token, expiresAt, err := codec.Mint("user-123", purpose)
			require.NoError(t, err)

			verified, err := codec.Verify(token, purpose)
			require.NoError(t, err)

			assert.Equal(t, "user-123", verified.SubjectID)
			assert.Equal(t, expiresAt, verified.ExpiresAt)
			assert.WithinDuration(t, time.Now().Add(codec.TTL(purpose)), expiresAt, 2*time.Second)
		})
	}
}

/*
TestTokenCodec_UniqueTokens verifies that two mints never produce the same string.
*/
func TestTokenCodec_UniqueTokens(t *testing.T) {
	fixed := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	codec := newCodec(t, sec.WithClock(func() time.Time { return fixed }))

	first, _, err := codec.Mint("user-123", sec.PurposeRefresh)
	require.NoError(t, err)
	second, _, err := codec.Mint("user-123", sec.PurposeRefresh)
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

/*
TestTokenCodec_Expired verifies expiry using an injected clock.
*/
func TestTokenCodec_Expired(t *testing.T) {
	now := time.Now()
	clock := func() time.Time { return now }
	codec := newCodec(t, sec.WithClock(func() time.Time { return clock() }))

	token, _, err := codec.MintWithTTL("user-123", sec.PurposeAccess, time.Minute)
	require.NoError(t, err)

	// 1. Still valid before the TTL elapses
	_, err = codec.Verify(token, sec.PurposeAccess)
	require.NoError(t, err)

	// 2. Expired after the TTL elapses
	clock = func() time.Time { return now.Add(2 * time.Minute) }
	_, err = codec.Verify(token, sec.PurposeAccess)
	assert.ErrorIs(t, err, sec.ErrTokenExpired)

	var tokenErr *sec.TokenError
	assert.True(t, errors.As(err, &tokenErr))
}

/*
TestTokenCodec_PurposeSeparation verifies that tokens are not interchangeable.
*/
func TestTokenCodec_PurposeSeparation(t *testing.T) {
	codec := newCodec(t)

	access, _, err := codec.Mint("user-123", sec.PurposeAccess)
	require.NoError(t, err)
	refresh, _, err := codec.Mint("user-123", sec.PurposeRefresh)
	require.NoError(t, err)

	// Different secrets: cross-use fails at the signature.
	_, err = codec.Verify(access, sec.PurposeRefresh)
	assert.ErrorIs(t, err, sec.ErrTokenBadSignature)

	_, err = codec.Verify(refresh, sec.PurposeAccess)
	assert.ErrorIs(t, err, sec.ErrTokenBadSignature)
}

/*
TestTokenCodec_WrongPurposeClaim verifies the purpose tag check for a token
signed with the right secret but tagged for another use.
*/
func TestTokenCodec_WrongPurposeClaim(t *testing.T) {
	config := testTokenConfig()
	codec := newCodec(t)

	claims := sec.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-123",
			Issuer:    config.Issuer,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
		},
		Purpose: sec.PurposeRefresh,
	}
	forged, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(config.AccessSecret)
	require.NoError(t, err)

	_, err = codec.Verify(forged, sec.PurposeAccess)
	assert.ErrorIs(t, err, sec.ErrTokenWrongPurpose)
}

/*
TestTokenCodec_Malformed covers structurally invalid input.
*/
func TestTokenCodec_Malformed(t *testing.T) {
	codec := newCodec(t)

	tests := []struct {
		name  string
		token string
		want  error
	}{
		{"empty", "", sec.ErrTokenMalformed},
		{"garbage", "not-a-jwt", sec.ErrTokenMalformed},
		{"two_segments", "abc.def", sec.ErrTokenMalformed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := codec.Verify(tt.token, sec.PurposeAccess)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

/*
TestTokenCodec_TamperedSignature verifies that a modified token is rejected.
*/
func TestTokenCodec_TamperedSignature(t *testing.T) {
	codec := newCodec(t)

	token, _, err := codec.Mint("user-123", sec.PurposeAccess)
	require.NoError(t, err)

	parts := strings.Split(token, ".")
	require.Len(t, parts, 3)

	// Re-sign the same payload with a foreign key.
	other, err := sec.NewTokenCodec(sec.TokenConfig{
		AccessSecret:  []byte("someone-else"),
		AccessTTL:     time.Minute,
		RefreshSecret: []byte("someone-else-refresh"),
		RefreshTTL:    time.Hour,
		Issuer:        "vidtube.test",
	})
	require.NoError(t, err)
	foreign, _, err := other.Mint("user-123", sec.PurposeAccess)
	require.NoError(t, err)

	_, err = codec.Verify(foreign, sec.PurposeAccess)
	assert.ErrorIs(t, err, sec.ErrTokenBadSignature)

	// Splice the foreign signature onto our header and payload.
	spliced := parts[0] + "." + parts[1] + "." + strings.Split(foreign, ".")[2]
	_, err = codec.Verify(spliced, sec.PurposeAccess)
	assert.ErrorIs(t, err, sec.ErrTokenBadSignature)
}

/*
TestTokenCodec_RejectsNoneAlgorithm verifies that unsigned tokens never pass.
*/
func TestTokenCodec_RejectsNoneAlgorithm(t *testing.T) {
	codec := newCodec(t)

	claims := sec.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-123",
			Issuer:    "vidtube.test",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
		},
		Purpose: sec.PurposeAccess,
	}
	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = codec.Verify(unsigned, sec.PurposeAccess)
	assert.Error(t, err)
	assert.NotErrorIs(t, err, sec.ErrTokenExpired)
}
