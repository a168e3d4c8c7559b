// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package sec provides cryptographic primitives and token management.
//
// # Architecture
//
// This package isolates security-sensitive code (Hashing, JWT Signing) from
// the domain logic. Nothing in here performs I/O: the [TokenCodec] and the
// [PasswordHasher] are pure functions over their inputs and configuration.
package sec

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/taibuivan/vidtube/pkg/uuid"
)

// # Token Purposes

// Purpose tags what a token may be used for.
type Purpose string

const (
	// PurposeAccess authorizes individual requests.
	PurposeAccess Purpose = "access"

	// PurposeRefresh may only be exchanged for a new access/refresh pair.
	PurposeRefresh Purpose = "refresh"
)

// Claims is the payload embedded inside every token.
type Claims struct {
	jwt.RegisteredClaims

	// Purpose is abbreviated to keep the payload small.
	Purpose Purpose `json:"pur"`
}

// Verified is the result of a successful [TokenCodec.Verify].
type Verified struct {
	SubjectID string
	ExpiresAt time.Time
}

// # Codec

// TokenConfig holds the per-purpose signing material.
//
// Access and refresh secrets must differ so a leaked access secret cannot
// forge refresh tokens.
type TokenConfig struct {
	AccessSecret  []byte
	AccessTTL     time.Duration
	RefreshSecret []byte
	RefreshTTL    time.Duration
	Issuer        string
}

// TokenCodec mints and verifies HS256 JWTs.
type TokenCodec struct {
	config TokenConfig
	now    func() time.Time
}

// CodecOption customises a [TokenCodec].
type CodecOption func(*TokenCodec)

// WithClock overrides the time source (tests only).
func WithClock(now func() time.Time) CodecOption {
	return func(codec *TokenCodec) { codec.now = now }
}

// NewTokenCodec validates the configuration and returns a codec.
func NewTokenCodec(config TokenConfig, options ...CodecOption) (*TokenCodec, error) {
	if len(config.AccessSecret) == 0 || len(config.RefreshSecret) == 0 {
		return nil, errors.New("sec: token secrets must not be empty")
	}
	if string(config.AccessSecret) == string(config.RefreshSecret) {
		return nil, errors.New("sec: access and refresh secrets must differ")
	}
	if config.AccessTTL <= 0 || config.RefreshTTL <= 0 {
		return nil, errors.New("sec: token TTLs must be positive")
	}

	codec := &TokenCodec{config: config, now: time.Now}
	for _, option := range options {
		option(codec)
	}
	return codec, nil
}

// TTL returns the configured lifetime for purpose.
func (codec *TokenCodec) TTL(purpose Purpose) time.Duration {
	if purpose == PurposeRefresh {
		return codec.config.RefreshTTL
	}
	return codec.config.AccessTTL
}

// Mint creates a token for subjectID using the purpose's configured TTL.
func (codec *TokenCodec) Mint(subjectID string, purpose Purpose) (string, time.Time, error) {
	return codec.MintWithTTL(subjectID, purpose, codec.TTL(purpose))
}

// MintWithTTL creates a token for subjectID that expires after ttl.
//
// Every token carries a fresh jti so two tokens minted in the same second for
// the same subject are never byte-equal.
func (codec *TokenCodec) MintWithTTL(subjectID string, purpose Purpose, ttl time.Duration) (string, time.Time, error) {
	secret, err := codec.secret(purpose)
	if err != nil {
		return "", time.Time{}, err
	}
	if subjectID == "" {
		return "", time.Time{}, errors.New("sec: subject must not be empty")
	}
	if ttl <= 0 {
		return "", time.Time{}, errors.New("sec: ttl must be positive")
	}

	issuedAt := codec.now()
	expiresAt := issuedAt.Add(ttl)

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New(),
			Subject:   subjectID,
			Issuer:    codec.config.Issuer,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		Purpose: purpose,
	}

	signedToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sec: failed to sign token: %w", err)
	}

	// NumericDate truncates to seconds; report what the client will see.
	return signedToken, claims.ExpiresAt.Time, nil
}

// Verify checks signature, expiry and purpose of tokenString.
//
// Failures are always a [*TokenError] whose kind is one of
// [ErrTokenMalformed], [ErrTokenBadSignature], [ErrTokenExpired] or
// [ErrTokenWrongPurpose].
func (codec *TokenCodec) Verify(tokenString string, purpose Purpose) (Verified, error) {
	secret, err := codec.secret(purpose)
	if err != nil {
		return Verified{}, tokenError(ErrTokenWrongPurpose, err)
	}

	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(codec.now),
	}
	if codec.config.Issuer != "" {
		options = append(options, jwt.WithIssuer(codec.config.Issuer))
	}

	claims := &Claims{}
	token, err := jwt.NewParser(options...).ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
		return secret, nil
	})
	if err != nil {
		return Verified{}, classify(err)
	}
	if !token.Valid {
		return Verified{}, tokenError(ErrTokenMalformed, nil)
	}

	if claims.Subject == "" {
		return Verified{}, tokenError(ErrTokenMalformed, errors.New("missing subject"))
	}
	if claims.Purpose != purpose {
		return Verified{}, tokenError(ErrTokenWrongPurpose, fmt.Errorf("got %q, want %q", claims.Purpose, purpose))
	}

	return Verified{SubjectID: claims.Subject, ExpiresAt: claims.ExpiresAt.Time}, nil
}

func (codec *TokenCodec) secret(purpose Purpose) ([]byte, error) {
	switch purpose {
	case PurposeAccess:
		return codec.config.AccessSecret, nil
	case PurposeRefresh:
		return codec.config.RefreshSecret, nil
	default:
		return nil, fmt.Errorf("sec: unknown token purpose %q", purpose)
	}
}

// classify maps jwt parser errors onto the TokenError taxonomy.
// Signature is checked before claims, so a forged expired token is BadSignature.
func classify(err error) *TokenError {
	switch {
	case errors.Is(err, jwt.ErrTokenMalformed):
		return tokenError(ErrTokenMalformed, err)
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return tokenError(ErrTokenBadSignature, err)
	case errors.Is(err, jwt.ErrTokenExpired):
		return tokenError(ErrTokenExpired, err)
	default:
		return tokenError(ErrTokenMalformed, err)
	}
}
