package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/buscacontatos/buscacontatos/internal/model"
)

// AdminService exposes the administrator operations.
type AdminService interface {
	AdminListUsers(ctx context.Context, actorID string) ([]model.User, error)
	AdminAuditLog(ctx context.Context, actorID string) ([]model.AuditLogEntry, error)
	AdminUpdateUser(ctx context.Context, actorID, targetID string, update model.UserUpdate) (bool, error)
	AdminDeleteUser(ctx context.Context, actorID, targetID string) (bool, error)
}

// AdminHandler provides the administrator endpoints. The role check happens
// in the service so every caller is guarded the same way.
type AdminHandler struct {
	svc    AdminService
	logger *slog.Logger
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(svc AdminService, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{svc: svc, logger: logger}
}

// ListUsers handles GET /api/admin/users.
func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentUser(w, r)
	if !ok {
		return
	}
	users, err := h.svc.AdminListUsers(r.Context(), actor.ID)
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

// AuditLogs handles GET /api/admin/audit-logs, newest first.
func (h *AdminHandler) AuditLogs(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentUser(w, r)
	if !ok {
		return
	}
	entries, err := h.svc.AdminAuditLog(r.Context(), actor.ID)
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// UpdateUser handles PATCH /api/admin/users/{id}.
func (h *AdminHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentUser(w, r)
	if !ok {
		return
	}
	var update model.UserUpdate
	if err := decodeJSON(r, &update); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	applied, err := h.svc.AdminUpdateUser(r.Context(), actor.ID, chi.URLParam(r, "id"), update)
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}
	if !applied {
		writeAdminFailure(w)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DeleteUser handles DELETE /api/admin/users/{id}.
func (h *AdminHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentUser(w, r)
	if !ok {
		return
	}
	deleted, err := h.svc.AdminDeleteUser(r.Context(), actor.ID, chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}
	if !deleted {
		writeAdminFailure(w)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// writeAdminFailure covers a missing target and a refused self-change alike.
func writeAdminFailure(w http.ResponseWriter) {
	writeError(w, http.StatusNotFound, "ADMIN_ACTION_FAILED", "User not found or change not allowed")
}
