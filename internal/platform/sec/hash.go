// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec

import (
	"errors"
	"fmt"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

// ErrPasswordTooLong is returned when a secret exceeds bcrypt's 72-byte input limit.
var ErrPasswordTooLong = bcrypt.ErrPasswordTooLong

// DefaultPasswordCost is the bcrypt work factor used in production.
const DefaultPasswordCost = bcrypt.DefaultCost

// # Credential Verifier

// PasswordHasher hashes and verifies secrets with bcrypt.
//
// It is safe for concurrent use.
type PasswordHasher struct {
	cost int

	dummyOnce sync.Once
	dummyHash []byte
}

// NewPasswordHasher creates a hasher with the given bcrypt cost.
// Out-of-range costs fall back to [DefaultPasswordCost].
func NewPasswordHasher(cost int) *PasswordHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultPasswordCost
	}
	return &PasswordHasher{cost: cost}
}

// Cost returns the bcrypt work factor in use.
func (hasher *PasswordHasher) Cost() int {
	return hasher.cost
}

// Hash hashes a plain-text secret.
func (hasher *PasswordHasher) Hash(plainTextPassword string) (string, error) {
	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(plainTextPassword), hasher.cost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", ErrPasswordTooLong
		}
		return "", fmt.Errorf("sec: failed to hash password: %w", err)
	}
	return string(hashedBytes), nil
}

// Verify reports whether candidate matches storedHash.
//
// A mismatch, an empty hash or a corrupt hash all yield false; Verify never
// returns an error for an expected negative outcome.
func (hasher *PasswordHasher) Verify(candidate, storedHash string) bool {
	if storedHash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(storedHash), []byte(candidate)) == nil
}

// BurnCycles runs one comparison against a throwaway hash of the same cost.
//
// Login calls it when no identity matched so that "unknown user" and
// "wrong password" take comparable time.
func (hasher *PasswordHasher) BurnCycles(candidate string) {
	hasher.dummyOnce.Do(func() {
		hasher.dummyHash, _ = bcrypt.GenerateFromPassword([]byte("vidtube-dummy-secret"), hasher.cost)
	})
	_ = bcrypt.CompareHashAndPassword(hasher.dummyHash, []byte(candidate))
}
