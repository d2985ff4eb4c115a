package repository

import (
	"context"
	"fmt"

	"github.com/oklog/ulid/v2"

	"github.com/buscacontatos/buscacontatos/internal/model"
	"github.com/buscacontatos/buscacontatos/internal/store"
)

// AppendAuditLog puts entry at the front of the global log.
// Missing ID and Timestamp are filled in.
func (r *Repository) AppendAuditLog(ctx context.Context, entry model.AuditLogEntry) error {
	if entry.ID == "" {
		entry.ID = ulid.Make().String()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = r.now()
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	entries := nonNil(store.Get(ctx, r.store, store.KeyAuditLog, []model.AuditLogEntry{}))
	entries = append([]model.AuditLogEntry{entry}, entries...)
	if err := store.Set(ctx, r.store, store.KeyAuditLog, entries); err != nil {
		return fmt.Errorf("failed to append audit log: %w", err)
	}
	return nil
}

// ListAuditLog returns every entry, newest first.
func (r *Repository) ListAuditLog(ctx context.Context) ([]model.AuditLogEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return nonNil(store.Get(ctx, r.store, store.KeyAuditLog, []model.AuditLogEntry{})), nil
}
