// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/taibuivan/vidtube/internal/platform/apperr"
	"github.com/taibuivan/vidtube/internal/users/identity"
)

// # Session Outcomes

// Negative outcomes of the session lifecycle. Callers classify with [errors.Is].
var (
	// ErrNotFound means no identity matched the login identifier.
	ErrNotFound = errors.New("auth: identity not found")

	// ErrInvalidCredentials means the identity exists but the secret is wrong.
	ErrInvalidCredentials = errors.New("auth: invalid credentials")

	// ErrUnauthorized means no token was presented.
	ErrUnauthorized = errors.New("auth: no token presented")

	// ErrInvalidToken covers malformed, forged and expired tokens, and tokens
	// whose subject no longer exists.
	ErrInvalidToken = errors.New("auth: invalid token")

	// ErrTokenReuseDetected means a structurally valid refresh token no longer
	// matches the stored value: it was rotated away, logged out, or stolen.
	ErrTokenReuseDetected = errors.New("auth: refresh token reuse detected")

	// ErrLoginThrottled means too many failed logins for the identifier.
	ErrLoginThrottled = errors.New("auth: login throttled")
)

// ThrottledError carries how long the caller must wait before retrying.
type ThrottledError struct {
	RetryAfter time.Duration
}

func (e *ThrottledError) Error() string {
	return fmt.Sprintf("auth: login throttled, retry after %s", e.RetryAfter)
}

// Is reports ErrLoginThrottled as a match.
func (e *ThrottledError) Is(target error) bool { return target == ErrLoginThrottled }

// # Store Failures

var (
	// ErrRefreshTokenMismatch is returned by RotateRefreshToken when the stored
	// value differs from the expected one.
	ErrRefreshTokenMismatch = errors.New("auth: stored refresh token does not match")

	// ErrStore classifies every adapter-level I/O failure.
	ErrStore = errors.New("auth: store unavailable")
)

// StoreError wraps an I/O failure from a store adapter.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string { return fmt.Sprintf("auth_store_%s_failed: %v", e.Op, e.Err) }

// Unwrap exposes the driver error.
func (e *StoreError) Unwrap() error { return e.Err }

// Is reports ErrStore as a match.
func (e *StoreError) Is(target error) bool { return target == ErrStore }

func storeError(op string, err error) error {
	return &StoreError{Op: op, Err: err}
}

// # HTTP Mapping

/*
ToAppError translates a service error into its client-facing form.

NotFound and InvalidCredentials collapse into one response, as do InvalidToken
and TokenReuseDetected, so clients cannot probe for accounts or stale tokens.
*/
func ToAppError(err error) error {
	if err == nil {
		return nil
	}

	if appError := apperr.As(err); appError != nil {
		return appError
	}

	var throttled *ThrottledError
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrInvalidCredentials):
		return apperr.InvalidCredentials().WithCause(err)
	case errors.Is(err, ErrInvalidToken), errors.Is(err, ErrTokenReuseDetected):
		return apperr.InvalidToken("Invalid or expired token").WithCause(err)
	case errors.Is(err, ErrUnauthorized):
		return apperr.Unauthorized("Authentication required").WithCause(err)
	case errors.As(err, &throttled):
		return apperr.RateLimited(int(math.Ceil(throttled.RetryAfter.Seconds()))).WithCause(err)
	case errors.Is(err, identity.ErrConflict):
		return apperr.Conflict("Username or email is already registered").WithCause(err)
	case errors.Is(err, ErrStore):
		return apperr.ServiceUnavailable(err)
	default:
		return apperr.Internal(err)
	}
}
