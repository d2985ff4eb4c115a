package service

import (
	"context"
	"fmt"
	"io"

	"github.com/buscacontatos/buscacontatos/internal/export"
	"github.com/buscacontatos/buscacontatos/internal/model"
	"github.com/buscacontatos/buscacontatos/internal/search"
)

// ListContacts returns the contacts of owner in the order they were saved.
func (f *Facade) ListContacts(ctx context.Context, ownerID string) ([]model.Contact, error) {
	return f.repo.ListContacts(ctx, ownerID)
}

// SaveContacts stores the candidates owner does not have yet and returns the
// full list. Candidates without a consent timestamp are stamped with the
// current time. Webhooks of owner are notified of each added contact.
func (f *Facade) SaveContacts(ctx context.Context, ownerID string, candidates []model.Contact) ([]model.Contact, error) {
	now := f.now()
	stamped := make([]model.Contact, 0, len(candidates))
	for i, c := range candidates {
		if err := f.validate.Struct(c.Place); err != nil {
			return nil, validationError(fmt.Sprintf("contact %d: %v", i, err))
		}
		if c.ConsentTimestamp.IsZero() {
			c.ConsentTimestamp = now
		}
		stamped = append(stamped, c)
	}

	updated, added, err := f.repo.SaveContacts(ctx, ownerID, stamped)
	if err != nil {
		return nil, err
	}
	if len(added) == 0 {
		return updated, nil
	}

	f.metrics.IncContactsSaved(len(added))
	f.logger.InfoContext(ctx, "contacts saved", "owner_id", ownerID, "added", len(added), "total", len(updated))
	f.notifyContactsCreated(ctx, ownerID, added)
	return updated, nil
}

func (f *Facade) notifyContactsCreated(ctx context.Context, ownerID string, added []model.Contact) {
	if f.notifier == nil {
		return
	}
	hooks, err := f.repo.ListWebhooks(ctx, ownerID)
	if err != nil {
		f.logger.WarnContext(ctx, "failed to load webhooks", "owner_id", ownerID, "error", err)
		return
	}
	f.notifier.PublishContactsCreated(ctx, hooks, added)
}

// RemoveContact deletes the contact with placeID. An unknown id leaves the
// list unchanged.
func (f *Facade) RemoveContact(ctx context.Context, ownerID, placeID string) ([]model.Contact, error) {
	updated, removed, err := f.repo.RemoveContact(ctx, ownerID, placeID)
	if err != nil {
		return nil, err
	}
	if removed {
		f.metrics.IncContactsRemoved()
	}
	return updated, nil
}

// ExportContactsCSV writes the contacts of owner as CSV.
func (f *Facade) ExportContactsCSV(ctx context.Context, ownerID string, w io.Writer) error {
	contacts, err := f.repo.ListContacts(ctx, ownerID)
	if err != nil {
		return err
	}
	return export.WriteContactsCSV(w, contacts)
}

// Search asks the search collaborator for candidate places.
func (f *Facade) Search(ctx context.Context, q model.SearchQuery) ([]model.Place, error) {
	if f.searcher == nil {
		return nil, fmt.Errorf("%w: search is not configured", search.ErrUpstream)
	}
	return f.searcher.Search(ctx, q)
}
