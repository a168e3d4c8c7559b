// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/taibuivan/vidtube/internal/platform/dberr"
	"github.com/taibuivan/vidtube/internal/users/identity"
	"github.com/taibuivan/vidtube/pkg/uuid"
)

// Querier is the subset of [pgxpool.Pool] (and [pgx.Tx]) the store uses.
type Querier interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, arguments ...any) pgx.Row
}

// PostgresStore implements [Store] on the users.account table.
type PostgresStore struct {
	db Querier
}

// NewPostgresStore creates a PostgreSQL-backed [Store].
func NewPostgresStore(db Querier) *PostgresStore {
	return &PostgresStore{db: db}
}

const identityColumns = `
	id, username, email, displayname, passwordhash,
	avatarurl, coverimageurl, refreshtoken, createdat, updatedat`

/*
FindByCredential matches the lowercased identifier against username or email.

Both columns are stored lowercased (CHECK constraints), so plain equality
uses the unique indexes.
*/
func (repository *PostgresStore) FindByCredential(context context.Context, usernameOrEmail string) (*identity.Identity, error) {
	const query = `SELECT` + identityColumns + `
		FROM users.account
		WHERE username = $1 OR email = $1
		LIMIT 1`

	return repository.scanOne(context, "find_by_credential", query, identity.Normalize(usernameOrEmail))
}

// FindByID skips the round trip for ids that cannot be a uuid column value.
func (repository *PostgresStore) FindByID(context context.Context, id string) (*identity.Identity, error) {
	if !uuid.Valid(id) {
		return nil, identity.ErrNotFound
	}

	const query = `SELECT` + identityColumns + `
		FROM users.account
		WHERE id = $1`

	return repository.scanOne(context, "find_by_id", query, id)
}

/*
Create inserts a new identity. Username and email are normalised on the way in.
*/
func (repository *PostgresStore) Create(context context.Context, user *identity.Identity) error {
	const query = `
		INSERT INTO users.account (
			id, username, email, displayname, passwordhash, avatarurl, coverimageurl
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING createdat, updatedat`

	user.Username = identity.Normalize(user.Username)
	user.Email = identity.Normalize(user.Email)

	err := repository.db.QueryRow(context, query,
		user.ID,
		user.Username,
		user.Email,
		user.DisplayName,
		user.PasswordHash,
		user.AvatarURL,
		user.CoverImageURL,
	).Scan(&user.CreatedAt, &user.UpdatedAt)

	return classify("create", err)
}

func (repository *PostgresStore) UpdatePasswordHash(context context.Context, id, passwordHash string) error {
	const query = `
		UPDATE users.account
		SET passwordhash = $2, refreshtoken = '', updatedat = now()
		WHERE id = $1`

	return repository.execOne(context, "update_password_hash", query, id, passwordHash)
}

func (repository *PostgresStore) PersistRefreshToken(context context.Context, id, token string) error {
	const query = `UPDATE users.account SET refreshtoken = $2 WHERE id = $1`

	return repository.execOne(context, "persist_refresh_token", query, id, token)
}

/*
RotateRefreshToken is a single conditional UPDATE; PostgreSQL's row lock
serialises concurrent rotations, and the loser re-evaluates the WHERE clause
against the winner's value and matches zero rows.
*/
func (repository *PostgresStore) RotateRefreshToken(context context.Context, id, expected, next string) error {
	const query = `
		UPDATE users.account
		SET refreshtoken = $3
		WHERE id = $1 AND refreshtoken = $2 AND refreshtoken <> ''`

	tag, err := repository.db.Exec(context, query, id, expected, next)
	if err != nil {
		return classify("rotate_refresh_token", err)
	}
	if tag.RowsAffected() == 1 {
		return nil
	}

	// Zero rows: tell a missing identity apart from a stale token.
	const exists = `SELECT EXISTS (SELECT 1 FROM users.account WHERE id = $1)`
	var found bool
	if err := repository.db.QueryRow(context, exists, id).Scan(&found); err != nil {
		return classify("rotate_refresh_token", err)
	}
	if !found {
		return identity.ErrNotFound
	}
	return ErrRefreshTokenMismatch
}

func (repository *PostgresStore) ClearRefreshToken(context context.Context, id string) error {
	const query = `UPDATE users.account SET refreshtoken = '' WHERE id = $1`

	return repository.execOne(context, "clear_refresh_token", query, id)
}

// # Helpers

func (repository *PostgresStore) scanOne(context context.Context, op, query string, argument string) (*identity.Identity, error) {
	user := &identity.Identity{}
	err := repository.db.QueryRow(context, query, argument).Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.DisplayName,
		&user.PasswordHash,
		&user.AvatarURL,
		&user.CoverImageURL,
		&user.RefreshToken,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, classify(op, err)
	}
	return user, nil
}

func (repository *PostgresStore) execOne(context context.Context, op, query string, arguments ...any) error {
	tag, err := repository.db.Exec(context, query, arguments...)
	if err != nil {
		return classify(op, err)
	}
	if tag.RowsAffected() == 0 {
		return identity.ErrNotFound
	}
	return nil
}

// classify keeps the identity sentinels and wraps everything else as a StoreError.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	mapped := dberr.Classify(err)
	if errors.Is(mapped, identity.ErrConflict) {
		if constraint := dberr.ConstraintName(err); constraint != "" {
			return fmt.Errorf("%w: %s", identity.ErrConflict, constraint)
		}
		return mapped
	}
	if errors.Is(mapped, identity.ErrNotFound) {
		return mapped
	}
	return storeError(op, err)
}
