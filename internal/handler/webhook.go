package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/buscacontatos/buscacontatos/internal/model"
)

// WebhookService manages the webhooks of a user.
type WebhookService interface {
	ListWebhooks(ctx context.Context, ownerID string) ([]model.Webhook, error)
	CreateWebhook(ctx context.Context, ownerID, targetURL string) (*model.Webhook, string, error)
	DeleteWebhook(ctx context.Context, ownerID, webhookID string) (bool, error)
}

// WebhookHandler handles webhook management endpoints.
type WebhookHandler struct {
	svc    WebhookService
	logger *slog.Logger
}

// NewWebhookHandler creates a new WebhookHandler.
func NewWebhookHandler(svc WebhookService, logger *slog.Logger) *WebhookHandler {
	return &WebhookHandler{svc: svc, logger: logger}
}

// List handles GET /api/webhooks.
func (h *WebhookHandler) List(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	hooks, err := h.svc.ListWebhooks(r.Context(), user.ID)
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	response := make([]model.WebhookResponse, 0, len(hooks))
	for i := range hooks {
		response = append(response, hooks[i].ToResponse())
	}
	writeJSON(w, http.StatusOK, response)
}

// Create handles POST /api/webhooks. The signing secret is in this response only.
func (h *WebhookHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req model.WebhookCreateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	hook, secret, err := h.svc.CreateWebhook(r.Context(), user.ID, req.URL)
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	h.logger.Info("webhook_created", "webhook_id", hook.ID, "user_id", user.ID)
	writeJSON(w, http.StatusCreated, model.WebhookCreateResponse{
		WebhookResponse: hook.ToResponse(),
		Secret:          secret,
	})
}

// Delete handles DELETE /api/webhooks/{id}.
func (h *WebhookHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	hookID := chi.URLParam(r, "id")

	deleted, err := h.svc.DeleteWebhook(r.Context(), user.ID, hookID)
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}
	if !deleted {
		writeError(w, http.StatusNotFound, "WEBHOOK_NOT_FOUND", "Webhook not found")
		return
	}

	h.logger.Info("webhook_deleted", "webhook_id", hookID, "user_id", user.ID)
	w.WriteHeader(http.StatusNoContent)
}
