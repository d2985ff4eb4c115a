package repository

import (
	"context"
	"fmt"

	"github.com/oklog/ulid/v2"

	"github.com/buscacontatos/buscacontatos/internal/auth"
	"github.com/buscacontatos/buscacontatos/internal/model"
	"github.com/buscacontatos/buscacontatos/internal/store"
)

// ListWebhooks returns the webhooks of owner in creation order.
func (r *Repository) ListWebhooks(ctx context.Context, owner string) ([]model.Webhook, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return nonNil(ownedCollection[model.Webhook](ctx, r.store, store.KeyWebhooks)[owner]), nil
}

// CreateWebhook registers targetURL for owner with a fresh signing secret.
// The URL must already be validated. The plaintext secret is returned once.
func (r *Repository) CreateWebhook(ctx context.Context, owner, targetURL string) (*model.Webhook, string, error) {
	secret, err := auth.GenerateWebhookSecret()
	if err != nil {
		return nil, "", err
	}

	hook := model.Webhook{
		ID:         ulid.Make().String(),
		URL:        targetURL,
		SecretHash: auth.FingerprintSecret(secret),
		CreatedAt:  r.now(),
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	all := ownedCollection[model.Webhook](ctx, r.store, store.KeyWebhooks)
	all[owner] = append(nonNil(all[owner]), hook)
	if err := store.Set(ctx, r.store, store.KeyWebhooks, all); err != nil {
		return nil, "", fmt.Errorf("failed to create webhook: %w", err)
	}
	return &hook, secret, nil
}

// DeleteWebhook removes the webhook with id from owner's list.
// It reports false when owner has no such webhook.
func (r *Repository) DeleteWebhook(ctx context.Context, owner, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	all := ownedCollection[model.Webhook](ctx, r.store, store.KeyWebhooks)
	hooks := all[owner]
	for i := range hooks {
		if hooks[i].ID != id {
			continue
		}
		all[owner] = append(hooks[:i], hooks[i+1:]...)
		if err := store.Set(ctx, r.store, store.KeyWebhooks, all); err != nil {
			return false, fmt.Errorf("failed to delete webhook: %w", err)
		}
		return true, nil
	}
	return false, nil
}
