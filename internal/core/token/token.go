// Package token holds the session credential shared by the request pipeline
// and the session store.
//
// The Holder is created once at application start, handed to the request
// pipeline and to the session store, mutated on login, logout and on a
// non-login 401, and dropped when the process ends. It never caches: every
// read goes to the backing Store so that a token cleared by one component is
// immediately invisible to the others.
package token

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// StorageKey is the fixed key the access token is persisted under.
const StorageKey = "access_token"

// ErrNotFound is returned by Store.Load when the key has no value.
var ErrNotFound = errors.New("token: key not found")

// Store is a persistent string key/value storage.
type Store interface {
	Load(ctx context.Context, key string) (string, error)
	Save(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// Holder is the injectable session context.
type Holder struct {
	store Store
}

// NewHolder creates a Holder over store.
func NewHolder(store Store) *Holder {
	return &Holder{store: store}
}

// Token returns the stored access token or "" when absent.
func (h *Holder) Token(ctx context.Context) (string, error) {
	tok, err := h.store.Load(ctx, StorageKey)
	if errors.Is(err, ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("load token: %w", err)
	}
	return tok, nil
}

// Set persists tok.
func (h *Holder) Set(ctx context.Context, tok string) error {
	if err := h.store.Save(ctx, StorageKey, tok); err != nil {
		return fmt.Errorf("save token: %w", err)
	}
	return nil
}

// Clear removes the stored token. Clearing an absent token is not an error.
func (h *Holder) Clear(ctx context.Context) error {
	if err := h.store.Delete(ctx, StorageKey); err != nil && !errors.Is(err, ErrNotFound) {
		return fmt.Errorf("delete token: %w", err)
	}
	return nil
}

// MemoryStore is a process-local Store.
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string]string)}
}

// Load implements Store.
func (m *MemoryStore) Load(_ context.Context, key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	if !ok {
		return "", ErrNotFound
	}
	return v, nil
}

// Save implements Store.
func (m *MemoryStore) Save(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

// Delete implements Store.
func (m *MemoryStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
	return nil
}

// Info is what the client can learn from an access token without the
// signing key.
type Info struct {
	Subject   string
	ExpiresAt time.Time // zero when the token carries no exp claim
}

// Expired reports whether the token's exp claim lies before now.
func (i Info) Expired(now time.Time) bool {
	return !i.ExpiresAt.IsZero() && now.After(i.ExpiresAt)
}

// Inspect decodes the registered claims of a JWT without verifying its
// signature. Opaque (non-JWT) tokens yield an error.
func Inspect(tok string) (Info, error) {
	claims := &jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tok, claims); err != nil {
		return Info{}, fmt.Errorf("parse token: %w", err)
	}
	info := Info{Subject: claims.Subject}
	if claims.ExpiresAt != nil {
		info.ExpiresAt = claims.ExpiresAt.Time
	}
	return info, nil
}
