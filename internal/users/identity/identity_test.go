// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package identity_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/vidtube/internal/users/identity"
)

/*
TestNormalize verifies that identifiers are trimmed and lowercased.
*/
func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"already_normal", "alice", "alice"},
		{"mixed_case", "Alice", "alice"},
		{"email", "  Alice@Example.COM ", "alice@example.com"},
		{"empty", "   ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, identity.Normalize(tt.input))
		})
	}
}

/*
TestIdentity_Public verifies that the public view never carries secrets.
*/
func TestIdentity_Public(t *testing.T) {
	record := &identity.Identity{
		ID:           "0190a000-0000-7000-8000-000000000001",
		Username:     "alice",
		Email:        "alice@example.com",
		DisplayName:  "Alice",
		PasswordHash: "$2a$10$secret",
		RefreshToken: "refresh-secret",
	}

	// 1. Fields are carried over
	public := record.Public()
	assert.Equal(t, record.ID, public.ID)
	assert.Equal(t, "alice", public.Username)

	// 2. Serialised form contains neither secret
	payload, err := json.Marshal(public)
	require.NoError(t, err)
	assert.NotContains(t, string(payload), "secret")
}

/*
TestIdentity_Clone verifies that clones are detached from the original.
*/
func TestIdentity_Clone(t *testing.T) {
	record := &identity.Identity{ID: "id-1", RefreshToken: "t1"}

	clone := record.Clone()
	clone.RefreshToken = "t2"

	assert.Equal(t, "t1", record.RefreshToken)
}
