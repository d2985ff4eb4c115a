package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/buscacontatos/buscacontatos/internal/model"
)

// Authenticator signs dashboard users in and out.
type Authenticator interface {
	Login(ctx context.Context, email, password string) (*model.User, error)
	LoginWithExternalIdentity(ctx context.Context, token string) (*model.User, error)
	Logout(ctx context.Context) error
}

// SessionHandler handles the dashboard session endpoints.
type SessionHandler struct {
	auth   Authenticator
	logger *slog.Logger
}

// NewSessionHandler creates a new SessionHandler.
func NewSessionHandler(authn Authenticator, logger *slog.Logger) *SessionHandler {
	return &SessionHandler{auth: authn, logger: logger}
}

// LoginRequest is the body of POST /api/session/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// IdentityLoginRequest is the body of POST /api/session/google.
type IdentityLoginRequest struct {
	Credential string `json:"credential"`
}

// Login handles POST /api/session/login.
func (h *SessionHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}
	email := strings.TrimSpace(req.Email)
	if email == "" {
		writeError(w, http.StatusBadRequest, "VALIDATION_FAILED", "email is required")
		return
	}

	user, err := h.auth.Login(r.Context(), email, req.Password)
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// LoginWithIdentity handles POST /api/session/google.
func (h *SessionHandler) LoginWithIdentity(w http.ResponseWriter, r *http.Request) {
	var req IdentityLoginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	user, err := h.auth.LoginWithExternalIdentity(r.Context(), req.Credential)
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// Logout handles POST /api/session/logout.
func (h *SessionHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.auth.Logout(r.Context()); err != nil {
		handleServiceError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Me handles GET /api/session/me.
func (h *SessionHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, user)
}
