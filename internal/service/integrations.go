package service

import (
	"context"
	"errors"
	"strings"

	"github.com/buscacontatos/buscacontatos/internal/model"
	"github.com/buscacontatos/buscacontatos/internal/webhook"
)

const maxLabelLength = 100

// ListAPIKeys returns the keys of owner.
func (f *Facade) ListAPIKeys(ctx context.Context, ownerID string) ([]model.APIKey, error) {
	return f.repo.ListAPIKeys(ctx, ownerID)
}

// CreateAPIKey issues a key for owner. The plaintext is returned once.
func (f *Facade) CreateAPIKey(ctx context.Context, ownerID, label string) (*model.APIKey, string, error) {
	label = strings.TrimSpace(label)
	if err := f.validate.Var(label, "required"); err != nil {
		return nil, "", validationError("label is required")
	}
	if len(label) > maxLabelLength {
		return nil, "", validationError("label is too long")
	}

	key, plaintext, err := f.repo.CreateAPIKey(ctx, ownerID, label)
	if err != nil {
		return nil, "", err
	}
	f.logger.InfoContext(ctx, "API key created", "owner_id", ownerID, "key_id", key.ID, "key_prefix", key.KeyPrefix)
	return key, plaintext, nil
}

// DeleteAPIKey revokes a key. It reports false when owner has no such key.
func (f *Facade) DeleteAPIKey(ctx context.Context, ownerID, keyID string) (bool, error) {
	deleted, err := f.repo.DeleteAPIKey(ctx, ownerID, keyID)
	if err != nil || !deleted {
		return deleted, err
	}
	f.auth.forgetAPIKey(ctx, keyID)
	f.logger.InfoContext(ctx, "API key deleted", "owner_id", ownerID, "key_id", keyID)
	return true, nil
}

// ListWebhooks returns the webhooks of owner.
func (f *Facade) ListWebhooks(ctx context.Context, ownerID string) ([]model.Webhook, error) {
	return f.repo.ListWebhooks(ctx, ownerID)
}

// CreateWebhook registers a webhook. The signing secret is returned once.
func (f *Facade) CreateWebhook(ctx context.Context, ownerID, targetURL string) (*model.Webhook, string, error) {
	targetURL = strings.TrimSpace(targetURL)
	if err := webhook.ValidateURL(targetURL); err != nil {
		if errors.Is(err, webhook.ErrInvalidURL) {
			return nil, "", validationError(err.Error())
		}
		return nil, "", err
	}

	hook, secret, err := f.repo.CreateWebhook(ctx, ownerID, targetURL)
	if err != nil {
		return nil, "", err
	}
	f.logger.InfoContext(ctx, "webhook created", "owner_id", ownerID, "webhook_id", hook.ID, "host", webhook.ExtractHost(hook.URL))
	return hook, secret, nil
}

// DeleteWebhook removes a webhook. It reports false when owner has no such webhook.
func (f *Facade) DeleteWebhook(ctx context.Context, ownerID, webhookID string) (bool, error) {
	return f.repo.DeleteWebhook(ctx, ownerID, webhookID)
}
