// Package handler provides HTTP request handlers.
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/buscacontatos/buscacontatos/internal/auth"
	"github.com/buscacontatos/buscacontatos/internal/model"
	"github.com/buscacontatos/buscacontatos/internal/search"
	"github.com/buscacontatos/buscacontatos/internal/service"
)

// Handler serves the endpoints shared by every route group.
type Handler struct {
	version string
}

// New creates a new Handler instance.
func New(version string) *Handler {
	return &Handler{version: version}
}

// Info describes the running service.
// GET /
func (h *Handler) Info(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"service": "buscacontatos",
		"version": h.version,
	})
}

// NotFound handles 404 responses.
func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusNotFound, "NOT_FOUND", "Resource not found")
}

// MethodNotAllowed handles 405 responses.
func (h *Handler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed")
}

// ErrorResponse is the body of every error response.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail names an error with a stable code and a human message.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{Error: ErrorDetail{Code: code, Message: message}})
}

// decodeJSON reads the request body into dst, rejecting unknown fields.
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

// currentUser returns the signed-in user attached by the session middleware.
func currentUser(w http.ResponseWriter, r *http.Request) (*model.User, bool) {
	user := auth.UserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "UNAUTHENTICATED", "Sign in required")
		return nil, false
	}
	return user, true
}

// handleServiceError maps service errors to HTTP responses.
func handleServiceError(w http.ResponseWriter, logger *slog.Logger, err error) {
	var notApproved *service.AccountNotApprovedError
	switch {
	case errors.As(err, &notApproved):
		writeError(w, http.StatusForbidden, "ACCOUNT_NOT_APPROVED", notApproved.Error())
	case errors.Is(err, service.ErrValidation):
		writeError(w, http.StatusBadRequest, "VALIDATION_FAILED", err.Error())
	case errors.Is(err, search.ErrInvalidQuery):
		writeError(w, http.StatusBadRequest, "INVALID_QUERY", err.Error())
	case errors.Is(err, service.ErrNotFound):
		writeError(w, http.StatusNotFound, "NOT_FOUND", "Resource not found")
	case errors.Is(err, service.ErrForbidden):
		writeError(w, http.StatusForbidden, "FORBIDDEN", "Administrator role required")
	case errors.Is(err, service.ErrInvalidToken):
		writeError(w, http.StatusUnauthorized, "INVALID_TOKEN", "Identity token could not be verified")
	case errors.Is(err, service.ErrUnauthenticated):
		writeError(w, http.StatusUnauthorized, "UNAUTHENTICATED", "Sign in required")
	case errors.Is(err, search.ErrTimeout):
		writeError(w, http.StatusGatewayTimeout, "SEARCH_TIMEOUT", "Search took too long, try again")
	case errors.Is(err, search.ErrMalformedResponse):
		writeError(w, http.StatusBadGateway, "SEARCH_MALFORMED", "Search returned an unreadable answer")
	case errors.Is(err, search.ErrInvalidCredentials):
		logger.Error("search credentials rejected", "error", err)
		writeError(w, http.StatusBadGateway, "SEARCH_UNAVAILABLE", "Search is not available")
	case errors.Is(err, search.ErrUpstream):
		logger.Error("search upstream error", "error", err)
		writeError(w, http.StatusBadGateway, "SEARCH_UNAVAILABLE", "Search is not available")
	default:
		logger.Error("internal_error", "error", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An internal error occurred")
	}
}
