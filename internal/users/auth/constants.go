// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

// # Input Constraints

const (
	// MinSecretLength is the minimum accepted password length.
	MinSecretLength = 8

	// MaxSecretLength matches the bcrypt input limit in bytes.
	MaxSecretLength = 72

	// MinUsernameLength and MaxUsernameLength bound registration handles.
	MinUsernameLength = 3
	MaxUsernameLength = 32

	// MaxIdentifierLength bounds the login identifier (username or email).
	MaxIdentifierLength = 254

	// MaxDisplayNameLength bounds the display name.
	MaxDisplayNameLength = 64
)

// # Field Identifiers

// Field names shared by validation errors and JSON payloads.
const (
	FieldIdentifier   = "identifier"
	FieldSecret       = "secret"
	FieldUsername     = "username"
	FieldEmail        = "email"
	FieldPassword     = "password"
	FieldDisplayName  = "display_name"
	FieldOldSecret    = "old_secret"
	FieldNewSecret    = "new_secret"
	FieldRefreshToken = "refresh_token"
)
