// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package identity defines the user record that anchors credential verification
and session state.

It is a leaf package: the session manager, the authorization guard and the
request context helpers all share these types without importing each other.

# Rules

  - Username and Email are unique and always stored lowercased.
  - PasswordHash and RefreshToken never leave the process; use [Identity.Public].
  - RefreshToken holds at most one live value per identity (empty = no session).
*/
package identity

import (
	"errors"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// # Store Sentinels

var (
	// ErrNotFound is returned by stores when no identity matches the lookup.
	ErrNotFound = errors.New("identity: not found")

	// ErrConflict is returned by stores when username or email is already taken.
	ErrConflict = errors.New("identity: username or email already exists")
)

// # Domain Entities

// Identity is the stored user record.
type Identity struct {
	ID            string
	Username      string
	Email         string
	DisplayName   string
	PasswordHash  string
	AvatarURL     string
	CoverImageURL string

	// RefreshToken is the authoritative copy of the only live refresh token.
	RefreshToken string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Public is the outward view of an [Identity] with secret and session fields stripped.
type Public struct {
	ID            string    `json:"id"`
	Username      string    `json:"username"`
	Email         string    `json:"email"`
	DisplayName   string    `json:"display_name"`
	AvatarURL     string    `json:"avatar_url,omitempty"`
	CoverImageURL string    `json:"cover_image_url,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Public returns the identity without PasswordHash and RefreshToken.
func (identity *Identity) Public() Public {
	return Public{
		ID:            identity.ID,
		Username:      identity.Username,
		Email:         identity.Email,
		DisplayName:   identity.DisplayName,
		AvatarURL:     identity.AvatarURL,
		CoverImageURL: identity.CoverImageURL,
		CreatedAt:     identity.CreatedAt,
		UpdatedAt:     identity.UpdatedAt,
	}
}

// Clone returns a detached copy so callers cannot mutate store-owned records.
func (identity *Identity) Clone() *Identity {
	clone := *identity
	return &clone
}

// # Normalisation

// Normalize trims and lowercases a username, email or login identifier.
//
// Every comparison and every write of Username/Email must go through this
// function so that "Alice@Example.com" and "alice@example.com" are the same key.
func Normalize(value string) string {
	// A Caser is stateful and must not be shared between goroutines.
	return cases.Lower(language.Und).String(strings.TrimSpace(value))
}
