// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"crypto/subtle"
	"sync"
	"time"

	"github.com/taibuivan/vidtube/internal/users/identity"
)

// MemoryStore is a process-local [Store] for tests and single-node demos.
//
// One mutex guards every record, so RotateRefreshToken's compare and write
// happen as a single step.
type MemoryStore struct {
	mu         sync.RWMutex
	byID       map[string]*identity.Identity
	byUsername map[string]string
	byEmail    map[string]string
	now        func() time.Time
}

// NewMemoryStore returns an empty [MemoryStore].
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byID:       make(map[string]*identity.Identity),
		byUsername: make(map[string]string),
		byEmail:    make(map[string]string),
		now:        time.Now,
	}
}

func (store *MemoryStore) FindByCredential(_ context.Context, usernameOrEmail string) (*identity.Identity, error) {
	key := identity.Normalize(usernameOrEmail)

	store.mu.RLock()
	defer store.mu.RUnlock()

	id, ok := store.byUsername[key]
	if !ok {
		id, ok = store.byEmail[key]
	}
	if !ok {
		return nil, identity.ErrNotFound
	}
	return store.byID[id].Clone(), nil
}

func (store *MemoryStore) FindByID(_ context.Context, id string) (*identity.Identity, error) {
	store.mu.RLock()
	defer store.mu.RUnlock()

	user, ok := store.byID[id]
	if !ok {
		return nil, identity.ErrNotFound
	}
	return user.Clone(), nil
}

func (store *MemoryStore) Create(_ context.Context, user *identity.Identity) error {
	record := user.Clone()
	record.Username = identity.Normalize(record.Username)
	record.Email = identity.Normalize(record.Email)

	store.mu.Lock()
	defer store.mu.Unlock()

	if _, taken := store.byID[record.ID]; taken {
		return identity.ErrConflict
	}
	if _, taken := store.byUsername[record.Username]; taken {
		return identity.ErrConflict
	}
	if _, taken := store.byEmail[record.Email]; taken {
		return identity.ErrConflict
	}

	now := store.now()
	if record.CreatedAt.IsZero() {
		record.CreatedAt = now
	}
	record.UpdatedAt = now

	store.byID[record.ID] = record
	store.byUsername[record.Username] = record.ID
	store.byEmail[record.Email] = record.ID

	user.CreatedAt, user.UpdatedAt = record.CreatedAt, record.UpdatedAt
	return nil
}

func (store *MemoryStore) UpdatePasswordHash(_ context.Context, id, passwordHash string) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	user, ok := store.byID[id]
	if !ok {
		return identity.ErrNotFound
	}
	user.PasswordHash = passwordHash
	user.RefreshToken = ""
	user.UpdatedAt = store.now()
	return nil
}

func (store *MemoryStore) PersistRefreshToken(_ context.Context, id, token string) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	user, ok := store.byID[id]
	if !ok {
		return identity.ErrNotFound
	}
	user.RefreshToken = token
	return nil
}

func (store *MemoryStore) RotateRefreshToken(_ context.Context, id, expected, next string) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	user, ok := store.byID[id]
	if !ok {
		return identity.ErrNotFound
	}
	if user.RefreshToken == "" || subtle.ConstantTimeCompare([]byte(user.RefreshToken), []byte(expected)) != 1 {
		return ErrRefreshTokenMismatch
	}
	user.RefreshToken = next
	return nil
}

func (store *MemoryStore) ClearRefreshToken(_ context.Context, id string) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	user, ok := store.byID[id]
	if !ok {
		return identity.ErrNotFound
	}
	user.RefreshToken = ""
	return nil
}
