// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package dberr provides a bridge between low-level PostgreSQL errors and
// the identity store's error vocabulary.
package dberr

import (
	"errors"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/taibuivan/vidtube/internal/users/identity"
)

// Classify maps a driver error onto the identity sentinels.
//
//   - no rows and malformed UUID input become [identity.ErrNotFound]
//   - unique violations become [identity.ErrConflict]
//   - anything else is returned unchanged for the caller to wrap
func Classify(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return identity.ErrNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgerrcode.UniqueViolation:
			return identity.ErrConflict
		case pgerrcode.InvalidTextRepresentation:
			// An id that is not a UUID cannot name any row.
			return identity.ErrNotFound
		}
	}

	return err
}

// ConstraintName returns the violated constraint, or "" if err is not a
// PostgreSQL constraint error.
func ConstraintName(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.ConstraintName
	}
	return ""
}
