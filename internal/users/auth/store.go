// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"

	"github.com/taibuivan/vidtube/internal/users/identity"
)

// # Identity Data Access

// IdentityRepository defines the identity lookups and credential writes.
//
// Lookups return [identity.ErrNotFound] when no row matches. Any other
// failure is a [*StoreError].
type IdentityRepository interface {

	/*
		FindByCredential returns the identity whose username OR email equals
		the lowercased identifier.
	*/
	FindByCredential(context context.Context, usernameOrEmail string) (*identity.Identity, error)

	/*
		FindByID returns the identity with the given ID.
	*/
	FindByID(context context.Context, id string) (*identity.Identity, error)

	/*
		Create persists a brand-new identity.

		Returns:
		  - error: identity.ErrConflict when the username or email is taken
	*/
	Create(context context.Context, user *identity.Identity) error

	/*
		UpdatePasswordHash replaces the password hash and clears the refresh
		token slot in the same write, so a credential change ends the session.
	*/
	UpdatePasswordHash(context context.Context, id, passwordHash string) error
}

// # Session Data Access

// SessionStore defines the single refresh-token slot held on each identity.
type SessionStore interface {

	/*
		PersistRefreshToken overwrites the slot unconditionally (login).
	*/
	PersistRefreshToken(context context.Context, id, token string) error

	/*
		RotateRefreshToken writes next only if the slot currently holds
		expected. An empty slot never matches.

		Returns:
		  - error: ErrRefreshTokenMismatch when the slot holds something else
	*/
	RotateRefreshToken(context context.Context, id, expected, next string) error

	/*
		ClearRefreshToken empties the slot (logout).
	*/
	ClearRefreshToken(context context.Context, id string) error
}

// Store is everything the session manager needs from persistence.
type Store interface {
	IdentityRepository
	SessionStore
}
