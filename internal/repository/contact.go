package repository

import (
	"context"
	"fmt"

	"github.com/buscacontatos/buscacontatos/internal/model"
	"github.com/buscacontatos/buscacontatos/internal/store"
)

// ListContacts returns the contacts of owner in insertion order.
func (r *Repository) ListContacts(ctx context.Context, owner string) ([]model.Contact, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return nonNil(ownedCollection[model.Contact](ctx, r.store, store.KeyContacts)[owner]), nil
}

// SaveContacts appends the candidates whose place id the owner has not saved
// yet, keeping only the first occurrence of a place id within the batch.
// It returns the full updated list and the contacts actually added.
func (r *Repository) SaveContacts(ctx context.Context, owner string, candidates []model.Contact) ([]model.Contact, []model.Contact, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	all := ownedCollection[model.Contact](ctx, r.store, store.KeyContacts)
	current := nonNil(all[owner])

	seen := make(map[string]struct{}, len(current)+len(candidates))
	for _, c := range current {
		seen[c.PlaceID] = struct{}{}
	}

	added := []model.Contact{}
	for _, c := range candidates {
		if _, ok := seen[c.PlaceID]; ok {
			continue
		}
		seen[c.PlaceID] = struct{}{}
		added = append(added, c)
	}

	if len(added) == 0 {
		return current, added, nil
	}

	updated := append(current, added...)
	all[owner] = updated
	if err := store.Set(ctx, r.store, store.KeyContacts, all); err != nil {
		return nil, nil, fmt.Errorf("failed to save contacts: %w", err)
	}
	return updated, added, nil
}

// RemoveContact deletes the contact with placeID from owner's list.
// Removing an absent contact is a no-op. It returns the updated list and
// whether anything was removed.
func (r *Repository) RemoveContact(ctx context.Context, owner, placeID string) ([]model.Contact, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	all := ownedCollection[model.Contact](ctx, r.store, store.KeyContacts)
	current := nonNil(all[owner])

	kept := make([]model.Contact, 0, len(current))
	for _, c := range current {
		if c.PlaceID != placeID {
			kept = append(kept, c)
		}
	}
	if len(kept) == len(current) {
		return current, false, nil
	}

	all[owner] = kept
	if err := store.Set(ctx, r.store, store.KeyContacts, all); err != nil {
		return nil, false, fmt.Errorf("failed to remove contact: %w", err)
	}
	return kept, true, nil
}
