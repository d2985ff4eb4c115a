package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/buscacontatos/buscacontatos/internal/auth"
	"github.com/buscacontatos/buscacontatos/internal/model"
	"github.com/buscacontatos/buscacontatos/internal/store"
)

// Common errors for API key repository operations.
var (
	ErrAPIKeyNotFound = errors.New("API key not found")
)

// OwnedAPIKey pairs a key with the user that owns it.
type OwnedAPIKey struct {
	Owner string
	Key   model.APIKey
}

// ListAPIKeys returns the keys of owner in creation order.
func (r *Repository) ListAPIKeys(ctx context.Context, owner string) ([]model.APIKey, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return nonNil(ownedCollection[model.APIKey](ctx, r.store, store.KeyAPIKeys)[owner]), nil
}

// CreateAPIKey generates a new key for owner and stores its hash.
// The plaintext is returned once and never stored.
func (r *Repository) CreateAPIKey(ctx context.Context, owner, label string) (*model.APIKey, string, error) {
	generated, err := auth.GenerateAPIKey(r.keyEnv)
	if err != nil {
		return nil, "", fmt.Errorf("failed to generate API key: %w", err)
	}

	key := model.APIKey{
		ID:        ulid.Make().String(),
		Label:     label,
		KeyPrefix: generated.Prefix,
		KeyHash:   generated.Hash,
		CreatedAt: r.now(),
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	all := ownedCollection[model.APIKey](ctx, r.store, store.KeyAPIKeys)
	all[owner] = append(nonNil(all[owner]), key)
	if err := store.Set(ctx, r.store, store.KeyAPIKeys, all); err != nil {
		return nil, "", fmt.Errorf("failed to create API key: %w", err)
	}
	return &key, generated.Plaintext, nil
}

// DeleteAPIKey removes the key with id from owner's list.
// It reports false when owner has no such key.
func (r *Repository) DeleteAPIKey(ctx context.Context, owner, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	all := ownedCollection[model.APIKey](ctx, r.store, store.KeyAPIKeys)
	keys := all[owner]
	for i := range keys {
		if keys[i].ID != id {
			continue
		}
		all[owner] = append(keys[:i], keys[i+1:]...)
		if err := store.Set(ctx, r.store, store.KeyAPIKeys, all); err != nil {
			return false, fmt.Errorf("failed to delete API key: %w", err)
		}
		return true, nil
	}
	return false, nil
}

// FindAPIKeysByPrefix returns every key, across owners, with the given visible prefix.
// Used during authentication to find candidates for hash verification.
func (r *Repository) FindAPIKeysByPrefix(ctx context.Context, prefix string) ([]OwnedAPIKey, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	matches := []OwnedAPIKey{}
	for owner, keys := range ownedCollection[model.APIKey](ctx, r.store, store.KeyAPIKeys) {
		for _, k := range keys {
			if k.KeyPrefix == prefix {
				matches = append(matches, OwnedAPIKey{Owner: owner, Key: k})
			}
		}
	}
	return matches, nil
}

// TouchAPIKey records the last time a key authenticated a request.
func (r *Repository) TouchAPIKey(ctx context.Context, owner, id string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	all := ownedCollection[model.APIKey](ctx, r.store, store.KeyAPIKeys)
	keys := all[owner]
	for i := range keys {
		if keys[i].ID == id {
			keys[i].LastUsedAt = &at
			if err := store.Set(ctx, r.store, store.KeyAPIKeys, all); err != nil {
				return fmt.Errorf("failed to update API key last used: %w", err)
			}
			return nil
		}
	}
	return ErrAPIKeyNotFound
}
