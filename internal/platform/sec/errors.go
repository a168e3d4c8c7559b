// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec

import "errors"

// # Token Errors

// Token verification failure kinds. Match them with [errors.Is].
var (
	ErrTokenMalformed    = errors.New("token malformed")
	ErrTokenBadSignature = errors.New("token signature invalid")
	ErrTokenExpired      = errors.New("token expired")
	ErrTokenWrongPurpose = errors.New("token purpose mismatch")
)

// TokenError is returned by [TokenCodec.Verify].
//
// Kind is one of the ErrToken* sentinels; Cause keeps the parser error for logs.
type TokenError struct {
	Kind  error
	Cause error
}

func (e *TokenError) Error() string {
	if e.Cause == nil {
		return e.Kind.Error()
	}
	return e.Kind.Error() + ": " + e.Cause.Error()
}

// Is matches the failure kind.
func (e *TokenError) Is(target error) bool { return target == e.Kind }

// Unwrap exposes the parser error.
func (e *TokenError) Unwrap() error { return e.Cause }

func tokenError(kind, cause error) *TokenError {
	return &TokenError{Kind: kind, Cause: cause}
}
