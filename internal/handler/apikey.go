package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/buscacontatos/buscacontatos/internal/model"
)

// APIKeyService manages the API keys of a user.
type APIKeyService interface {
	ListAPIKeys(ctx context.Context, ownerID string) ([]model.APIKey, error)
	CreateAPIKey(ctx context.Context, ownerID, label string) (*model.APIKey, string, error)
	DeleteAPIKey(ctx context.Context, ownerID, keyID string) (bool, error)
}

// APIKeyHandler handles API key management endpoints.
type APIKeyHandler struct {
	svc    APIKeyService
	logger *slog.Logger
}

// NewAPIKeyHandler creates a new APIKeyHandler.
func NewAPIKeyHandler(svc APIKeyService, logger *slog.Logger) *APIKeyHandler {
	return &APIKeyHandler{svc: svc, logger: logger}
}

// List handles GET /api/api-keys. Hashes are never returned.
func (h *APIKeyHandler) List(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	keys, err := h.svc.ListAPIKeys(r.Context(), user.ID)
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	response := make([]model.APIKeyResponse, 0, len(keys))
	for i := range keys {
		response = append(response, keys[i].ToResponse())
	}
	writeJSON(w, http.StatusOK, response)
}

// Create handles POST /api/api-keys. The plaintext key is in this response only.
func (h *APIKeyHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req model.APIKeyCreateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	key, plaintext, err := h.svc.CreateAPIKey(r.Context(), user.ID, req.Label)
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	h.logger.Info("api_key_created",
		"key_id", key.ID,
		"key_prefix", key.KeyPrefix,
		"user_id", user.ID,
	)
	writeJSON(w, http.StatusCreated, model.APIKeyCreateResponse{
		APIKeyResponse: key.ToResponse(),
		Key:            plaintext,
	})
}

// Delete handles DELETE /api/api-keys/{id}.
func (h *APIKeyHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	keyID := chi.URLParam(r, "id")

	deleted, err := h.svc.DeleteAPIKey(r.Context(), user.ID, keyID)
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}
	if !deleted {
		writeError(w, http.StatusNotFound, "API_KEY_NOT_FOUND", "API key not found")
		return
	}

	h.logger.Info("api_key_deleted", "key_id", keyID, "user_id", user.ID)
	w.WriteHeader(http.StatusNoContent)
}
