package handler

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/buscacontatos/buscacontatos/internal/auth"
	"github.com/buscacontatos/buscacontatos/internal/export"
	"github.com/buscacontatos/buscacontatos/internal/model"
)

// ContactService manages the saved contacts of a user.
type ContactService interface {
	ListContacts(ctx context.Context, ownerID string) ([]model.Contact, error)
	SaveContacts(ctx context.Context, ownerID string, candidates []model.Contact) ([]model.Contact, error)
	RemoveContact(ctx context.Context, ownerID, placeID string) ([]model.Contact, error)
	ExportContactsCSV(ctx context.Context, ownerID string, w io.Writer) error
	Search(ctx context.Context, q model.SearchQuery) ([]model.Place, error)
}

// ContactHandler handles contact and search endpoints.
type ContactHandler struct {
	svc    ContactService
	logger *slog.Logger
}

// NewContactHandler creates a new ContactHandler.
func NewContactHandler(svc ContactService, logger *slog.Logger) *ContactHandler {
	return &ContactHandler{svc: svc, logger: logger}
}

// SaveContactsRequest is the body of POST /api/contacts.
type SaveContactsRequest struct {
	Contacts []model.Contact `json:"contacts"`
}

// List handles GET /api/contacts.
func (h *ContactHandler) List(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	contacts, err := h.svc.ListContacts(r.Context(), user.ID)
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, contacts)
}

// Save handles POST /api/contacts.
func (h *ContactHandler) Save(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req SaveContactsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	contacts, err := h.svc.SaveContacts(r.Context(), user.ID, req.Contacts)
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, contacts)
}

// Remove handles DELETE /api/contacts/{placeID}.
func (h *ContactHandler) Remove(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	contacts, err := h.svc.RemoveContact(r.Context(), user.ID, chi.URLParam(r, "placeID"))
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, contacts)
}

// Export handles GET /api/contacts/export.csv.
func (h *ContactHandler) Export(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	// Buffered so a failure can still be reported as JSON.
	var buf bytes.Buffer
	if err := h.svc.ExportContactsCSV(r.Context(), user.ID, &buf); err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+export.Filename+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

// Search handles POST /api/search.
func (h *ContactHandler) Search(w http.ResponseWriter, r *http.Request) {
	if _, ok := currentUser(w, r); !ok {
		return
	}
	var q model.SearchQuery
	if err := decodeJSON(r, &q); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	places, err := h.svc.Search(r.Context(), q)
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, places)
}

// ListForAPIKey handles GET /v1/contatos for API key callers.
func (h *ContactHandler) ListForAPIKey(w http.ResponseWriter, r *http.Request) {
	authCtx := auth.AuthFromContext(r.Context())
	if authCtx == nil {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid or missing API key")
		return
	}
	contacts, err := h.svc.ListContacts(r.Context(), authCtx.UserID)
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, contacts)
}
