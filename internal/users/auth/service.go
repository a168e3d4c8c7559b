// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package auth implements the session and credential lifecycle.

It turns a (username-or-email, secret) pair into an access/refresh token
pair, rotates refresh tokens with reuse detection, and ends sessions on
logout or credential change.

Architecture:

  - Service: Orchestrates Login, Refresh, Logout and ChangeSecret.
  - Store: One refresh-token slot per identity, rotated by compare-and-set
    (PostgreSQL or in-memory).
  - LoginLimiter: Optional Redis counters for login attempts.
  - Handler: chi routes, cookies and JSON envelopes.

A refresh token is honoured only when it verifies cryptographically AND is
byte-equal to the value stored on the identity.
*/
package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/taibuivan/vidtube/internal/platform/apperr"
	"github.com/taibuivan/vidtube/internal/platform/constants"
	"github.com/taibuivan/vidtube/internal/platform/ctxutil"
	"github.com/taibuivan/vidtube/internal/platform/metrics"
	"github.com/taibuivan/vidtube/internal/platform/sec"
	"github.com/taibuivan/vidtube/internal/platform/validate"
	"github.com/taibuivan/vidtube/internal/users/identity"
	"github.com/taibuivan/vidtube/pkg/uuid"
)

// # Contracts & Types

// TokenIssuer mints and verifies purpose-tagged tokens. [*sec.TokenCodec] satisfies it.
type TokenIssuer interface {
	Mint(subjectID string, purpose sec.Purpose) (string, time.Time, error)
	Verify(token string, purpose sec.Purpose) (sec.Verified, error)
}

// CredentialVerifier hashes and checks secrets. [*sec.PasswordHasher] satisfies it.
type CredentialVerifier interface {
	Hash(secret string) (string, error)
	Verify(candidate, storedHash string) bool
	BurnCycles(candidate string)
}

// Recorder observes login and refresh outcomes. [*metrics.Auth] satisfies it.
type Recorder interface {
	Login(outcome string)
	Refresh(outcome string)
}

type noopRecorder struct{}

func (noopRecorder) Login(string)   {}
func (noopRecorder) Refresh(string) {}

// Options carries the optional collaborators and policies of a [Service].
type Options struct {
	// Limiter throttles failed logins. Nil disables throttling.
	Limiter LoginLimiter

	// RevokeOnReuse clears the session when a stale refresh token is presented.
	RevokeOnReuse bool

	// Metrics counts outcomes. Nil disables counting.
	Metrics Recorder
}

// TokenPair is the result of a successful login or refresh.
type TokenPair struct {
	AccessToken      string
	AccessExpiresAt  time.Time
	RefreshToken     string
	RefreshExpiresAt time.Time
}

// Session is what Login hands back: the public identity and its tokens.
type Session struct {
	User   identity.Public
	Tokens TokenPair
}

// Service implements the session lifecycle use cases.
type Service struct {
	store   Store
	tokens  TokenIssuer
	hasher  CredentialVerifier
	options Options
}

// NewService constructs a [Service] with its dependencies.
func NewService(store Store, tokens TokenIssuer, hasher CredentialVerifier, options Options) *Service {
	if options.Metrics == nil {
		options.Metrics = noopRecorder{}
	}
	return &Service{
		store:   store,
		tokens:  tokens,
		hasher:  hasher,
		options: options,
	}
}

// # Authentication Flow

// LoginInput defines credentials for an authentication attempt.
type LoginInput struct {
	Identifier string // Username or email
	Secret     string
}

/*
Login validates credentials and opens a session.

Description: Unknown identifiers and wrong secrets take the same time and
surface identically at the HTTP layer. A successful login overwrites any
previous session.

Returns:
  - *Session: Public identity plus token pair
  - err: ErrNotFound, ErrInvalidCredentials, ErrLoginThrottled or a StoreError
*/
func (service *Service) Login(ctx context.Context, input LoginInput) (*Session, error) {
	session, err := service.login(ctx, input)
	service.options.Metrics.Login(loginOutcome(err))
	return session, err
}

func (service *Service) login(ctx context.Context, input LoginInput) (*Session, error) {
	logger := ctxutil.GetLogger(ctx)

	// 1. Presence checks before touching the store
	validator := &validate.Validator{}
	validator.Required(FieldIdentifier, input.Identifier).
		MaxLen(FieldIdentifier, input.Identifier, MaxIdentifierLength).
		Required(FieldSecret, input.Secret).
		Custom(FieldSecret, len(input.Secret) > MaxSecretLength, fmt.Sprintf("Maximum %d bytes", MaxSecretLength))
	if err := validator.Err(); err != nil {
		return nil, err
	}

	// 2. Claim an attempt before any secret is checked. Limiter outages fail open.
	if err := service.reserveAttempt(ctx, input.Identifier); err != nil {
		return nil, err
	}

	// 3. Resolve identity
	user, err := service.store.FindByCredential(ctx, input.Identifier)
	if err != nil {
		if errors.Is(err, identity.ErrNotFound) {
			service.hasher.BurnCycles(input.Secret)
			return nil, ErrNotFound
		}
		return nil, err
	}

	// 4. Verify secret
	if !service.hasher.Verify(input.Secret, user.PasswordHash) {
		logger.InfoContext(ctx, "auth_login_rejected", slog.String("user_id", user.ID))
		return nil, ErrInvalidCredentials
	}

	// 5. Mint and persist
	pair, err := service.mintPair(user.ID)
	if err != nil {
		return nil, err
	}
	if err := service.store.PersistRefreshToken(ctx, user.ID, pair.RefreshToken); err != nil {
		return nil, err
	}

	service.resetLimiter(ctx, input.Identifier)
	logger.InfoContext(ctx, "auth_login_succeeded", slog.String("user_id", user.ID))

	return &Session{User: user.Public(), Tokens: pair}, nil
}

// # Session Management

/*
Refresh rotates a refresh token into a new access/refresh pair.

Description: The presented token must verify and match the stored slot. On
success the slot is swapped by compare-and-set, so of several concurrent
refreshes with the same token exactly one wins.

Returns:
  - *TokenPair: The new pair
  - err: ErrUnauthorized, ErrInvalidToken, ErrTokenReuseDetected or a StoreError
*/
func (service *Service) Refresh(ctx context.Context, presented string) (*TokenPair, error) {
	pair, err := service.refresh(ctx, presented)
	service.options.Metrics.Refresh(refreshOutcome(err))
	return pair, err
}

func (service *Service) refresh(ctx context.Context, presented string) (*TokenPair, error) {

	// 1. Presence
	if presented == "" {
		return nil, ErrUnauthorized
	}
	if len(presented) > constants.MaxTokenLength {
		return nil, ErrInvalidToken
	}

	// 2. Cryptographic check
	verified, err := service.tokens.Verify(presented, sec.PurposeRefresh)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	// 3. Subject must still exist
	user, err := service.store.FindByID(ctx, verified.SubjectID)
	if err != nil {
		if errors.Is(err, identity.ErrNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}

	// 4. Stored-value check
	if user.RefreshToken == "" || subtle.ConstantTimeCompare([]byte(presented), []byte(user.RefreshToken)) != 1 {
		return nil, service.reuseDetected(ctx, user.ID)
	}

	// 5. Rotate
	pair, err := service.mintPair(user.ID)
	if err != nil {
		return nil, err
	}

	err = service.store.RotateRefreshToken(ctx, user.ID, presented, pair.RefreshToken)
	switch {
	case err == nil:
	case errors.Is(err, ErrRefreshTokenMismatch):
		// Lost the race against a concurrent refresh or logout.
		return nil, service.reuseDetected(ctx, user.ID)
	case errors.Is(err, identity.ErrNotFound):
		return nil, ErrInvalidToken
	default:
		return nil, err
	}

	ctxutil.GetLogger(ctx).InfoContext(ctx, "auth_refresh_rotated", slog.String("user_id", user.ID))
	return &pair, nil
}

/*
Logout clears the stored refresh token.

Access tokens already issued stay valid until they expire.
*/
func (service *Service) Logout(ctx context.Context, identityID string) error {
	if identityID == "" {
		return ErrUnauthorized
	}

	if err := service.store.ClearRefreshToken(ctx, identityID); err != nil {
		// Nothing left to clear.
		if errors.Is(err, identity.ErrNotFound) {
			return nil
		}
		return err
	}

	ctxutil.GetLogger(ctx).InfoContext(ctx, "auth_logout", slog.String("user_id", identityID))
	return nil
}

// # Credential Management

// ChangeSecretInput holds a password change request.
type ChangeSecretInput struct {
	IdentityID string
	OldSecret  string
	NewSecret  string
}

/*
ChangeSecret verifies the old secret, stores a hash of the new one and ends
the current session in the same write.
*/
func (service *Service) ChangeSecret(ctx context.Context, input ChangeSecretInput) error {
	if input.IdentityID == "" {
		return ErrUnauthorized
	}

	validator := &validate.Validator{}
	validator.Required(FieldOldSecret, input.OldSecret).
		Required(FieldNewSecret, input.NewSecret)
	validateSecret(validator, FieldNewSecret, input.NewSecret)
	validator.Custom(FieldNewSecret, input.NewSecret != "" && input.NewSecret == input.OldSecret, "Must differ from the current password")
	if err := validator.Err(); err != nil {
		return err
	}

	user, err := service.store.FindByID(ctx, input.IdentityID)
	if err != nil {
		if errors.Is(err, identity.ErrNotFound) {
			return ErrInvalidToken
		}
		return err
	}

	if !service.hasher.Verify(input.OldSecret, user.PasswordHash) {
		return ErrInvalidCredentials
	}

	hashedSecret, err := service.hasher.Hash(input.NewSecret)
	if err != nil {
		return fmt.Errorf("auth_service_change_secret_hash_failed: %w", err)
	}

	if err := service.store.UpdatePasswordHash(ctx, user.ID, hashedSecret); err != nil {
		if errors.Is(err, identity.ErrNotFound) {
			return ErrInvalidToken
		}
		return err
	}

	ctxutil.GetLogger(ctx).InfoContext(ctx, "auth_secret_changed", slog.String("user_id", user.ID))
	return nil
}

// # Registration Flow

// RegisterInput holds the data required to enroll a new identity.
type RegisterInput struct {
	Username    string
	Email       string
	Password    string
	DisplayName string
}

/*
Register validates, hashes and persists a new identity. No session is opened.

Returns:
  - *identity.Public: Created identity
  - err: Validation, identity.ErrConflict or a StoreError
*/
func (service *Service) Register(ctx context.Context, input RegisterInput) (*identity.Public, error) {
	username := identity.Normalize(input.Username)
	email := identity.Normalize(input.Email)

	validator := &validate.Validator{}
	validator.Required(FieldUsername, username).
		MinLen(FieldUsername, username, MinUsernameLength).
		MaxLen(FieldUsername, username, MaxUsernameLength).
		Handle(FieldUsername, username).
		Required(FieldEmail, email).
		Email(FieldEmail, email).
		MaxLen(FieldDisplayName, input.DisplayName, MaxDisplayNameLength)
	validateSecret(validator, FieldPassword, input.Password)
	if err := validator.Err(); err != nil {
		return nil, err
	}

	hashedPassword, err := service.hasher.Hash(input.Password)
	if err != nil {
		return nil, fmt.Errorf("auth_service_hash_failed: %w", err)
	}

	displayName := input.DisplayName
	if displayName == "" {
		displayName = username
	}

	user := &identity.Identity{
		ID:           uuid.New(),
		Username:     username,
		Email:        email,
		DisplayName:  displayName,
		PasswordHash: hashedPassword,
	}

	if err := service.store.Create(ctx, user); err != nil {
		return nil, err
	}

	ctxutil.GetLogger(ctx).InfoContext(ctx, "auth_identity_registered", slog.String("user_id", user.ID))

	public := user.Public()
	return &public, nil
}

/*
CurrentIdentity returns the public view of the identity with the given ID.
*/
func (service *Service) CurrentIdentity(ctx context.Context, identityID string) (*identity.Public, error) {
	user, err := service.store.FindByID(ctx, identityID)
	if err != nil {
		if errors.Is(err, identity.ErrNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}

	public := user.Public()
	return &public, nil
}

// # Helpers

func (service *Service) mintPair(subjectID string) (TokenPair, error) {
	accessToken, accessExpiresAt, err := service.tokens.Mint(subjectID, sec.PurposeAccess)
	if err != nil {
		return TokenPair{}, fmt.Errorf("auth_service_access_token_failed: %w", err)
	}

	refreshToken, refreshExpiresAt, err := service.tokens.Mint(subjectID, sec.PurposeRefresh)
	if err != nil {
		return TokenPair{}, fmt.Errorf("auth_service_refresh_token_failed: %w", err)
	}

	return TokenPair{
		AccessToken:      accessToken,
		AccessExpiresAt:  accessExpiresAt,
		RefreshToken:     refreshToken,
		RefreshExpiresAt: refreshExpiresAt,
	}, nil
}

// reuseDetected logs a possible token theft and applies the revocation policy.
func (service *Service) reuseDetected(ctx context.Context, identityID string) error {
	logger := ctxutil.GetLogger(ctx)
	logger.WarnContext(ctx, "auth_refresh_reuse_detected",
		slog.String("user_id", identityID),
		slog.Bool("revoke", service.options.RevokeOnReuse),
	)

	if service.options.RevokeOnReuse {
		if err := service.store.ClearRefreshToken(ctx, identityID); err != nil && !errors.Is(err, identity.ErrNotFound) {
			logger.ErrorContext(ctx, "auth_refresh_revoke_failed", slog.String("user_id", identityID), slog.Any("error", err))
		}
	}

	return ErrTokenReuseDetected
}

func (service *Service) reserveAttempt(ctx context.Context, identifier string) error {
	if service.options.Limiter == nil {
		return nil
	}

	err := service.options.Limiter.Reserve(ctx, identifier)
	if err == nil || errors.Is(err, ErrLoginThrottled) {
		return err
	}

	ctxutil.GetLogger(ctx).WarnContext(ctx, "auth_limiter_unavailable", slog.Any("error", err))
	return nil
}

func (service *Service) resetLimiter(ctx context.Context, identifier string) {
	if service.options.Limiter == nil {
		return
	}
	if err := service.options.Limiter.Reset(ctx, identifier); err != nil {
		ctxutil.GetLogger(ctx).WarnContext(ctx, "auth_limiter_unavailable", slog.Any("error", err))
	}
}

func loginOutcome(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeSuccess
	case errors.Is(err, ErrLoginThrottled):
		return metrics.OutcomeThrottled
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrInvalidCredentials):
		return metrics.OutcomeInvalidCredentials
	case isValidation(err):
		return metrics.OutcomeValidation
	default:
		return metrics.OutcomeError
	}
}

func refreshOutcome(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeSuccess
	case errors.Is(err, ErrTokenReuseDetected):
		return metrics.OutcomeReuseDetected
	case errors.Is(err, ErrInvalidToken), errors.Is(err, ErrUnauthorized):
		return metrics.OutcomeInvalidToken
	default:
		return metrics.OutcomeError
	}
}

func isValidation(err error) bool {
	appError := apperr.As(err)
	return appError != nil && appError.Code == apperr.CodeValidation
}

func validateSecret(validator *validate.Validator, field, secret string) {
	validator.Required(field, secret).
		MinLen(field, secret, MinSecretLength).
		Custom(field, len(secret) > MaxSecretLength, fmt.Sprintf("Maximum %d bytes", MaxSecretLength))
}
