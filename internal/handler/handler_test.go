package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/buscacontatos/buscacontatos/internal/auth"
	"github.com/buscacontatos/buscacontatos/internal/model"
	"github.com/buscacontatos/buscacontatos/internal/search"
	"github.com/buscacontatos/buscacontatos/internal/service"
	"github.com/buscacontatos/buscacontatos/internal/testutil"
)

func withUser(r *http.Request, u *model.User) *http.Request {
	return r.WithContext(auth.ContextWithUser(r.Context(), u))
}

func withURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorDetail {
	t.Helper()
	var body ErrorResponse
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode error body: %v", err)
	}
	return body.Error
}

func TestHandler_Info(t *testing.T) {
	t.Parallel()

	h := New("1.2.3")
	rec := httptest.NewRecorder()
	h.Info(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("expected Content-Type application/json, got %s", ct)
	}

	var response map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if response["version"] != "1.2.3" {
		t.Errorf("unexpected version: %s", response["version"])
	}
}

func TestHandler_NotFoundAndMethodNotAllowed(t *testing.T) {
	t.Parallel()

	h := New("dev")

	rec := httptest.NewRecorder()
	h.NotFound(rec, httptest.NewRequest(http.MethodGet, "/nonexistent", nil))
	if rec.Code != http.StatusNotFound || decodeError(t, rec).Code != "NOT_FOUND" {
		t.Errorf("NotFound: status %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.MethodNotAllowed(rec, httptest.NewRequest(http.MethodPost, "/", nil))
	if rec.Code != http.StatusMethodNotAllowed || decodeError(t, rec).Code != "METHOD_NOT_ALLOWED" {
		t.Errorf("MethodNotAllowed: status %d", rec.Code)
	}
}

func TestHandleServiceError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		err      error
		wantCode int
		wantTag  string
	}{
		{"not approved", &service.AccountNotApprovedError{Status: model.StatusPending}, http.StatusForbidden, "ACCOUNT_NOT_APPROVED"},
		{"validation", fmt.Errorf("%w: label is required", service.ErrValidation), http.StatusBadRequest, "VALIDATION_FAILED"},
		{"invalid query", fmt.Errorf("%w: segment", search.ErrInvalidQuery), http.StatusBadRequest, "INVALID_QUERY"},
		{"not found", fmt.Errorf("%w: no user", service.ErrNotFound), http.StatusNotFound, "NOT_FOUND"},
		{"forbidden", service.ErrForbidden, http.StatusForbidden, "FORBIDDEN"},
		{"invalid token", fmt.Errorf("%w: empty", service.ErrInvalidToken), http.StatusUnauthorized, "INVALID_TOKEN"},
		{"unauthenticated", service.ErrUnauthenticated, http.StatusUnauthorized, "UNAUTHENTICATED"},
		{"search timeout", search.ErrTimeout, http.StatusGatewayTimeout, "SEARCH_TIMEOUT"},
		{"search malformed", search.ErrMalformedResponse, http.StatusBadGateway, "SEARCH_MALFORMED"},
		{"search credentials", search.ErrInvalidCredentials, http.StatusBadGateway, "SEARCH_UNAVAILABLE"},
		{"search upstream", search.ErrUpstream, http.StatusBadGateway, "SEARCH_UNAVAILABLE"},
		{"unknown", errors.New("disk full"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rec := httptest.NewRecorder()
			handleServiceError(rec, testutil.DiscardLogger(), tt.err)

			if rec.Code != tt.wantCode {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantCode)
			}
			detail := decodeError(t, rec)
			if detail.Code != tt.wantTag {
				t.Errorf("code = %q, want %q", detail.Code, tt.wantTag)
			}
			if tt.wantCode == http.StatusInternalServerError && strings.Contains(detail.Message, "disk full") {
				t.Error("internal error leaked to client")
			}
		})
	}
}

func TestHandleServiceError_NotApprovedMessage(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	handleServiceError(rec, testutil.DiscardLogger(), &service.AccountNotApprovedError{Status: model.StatusBlocked})

	if msg := decodeError(t, rec).Message; !strings.Contains(msg, "BLOCKED") {
		t.Errorf("message = %q, want status named", msg)
	}
}

func TestDecodeJSON_RejectsUnknownFields(t *testing.T) {
	t.Parallel()

	var req LoginRequest
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"email":"a@b.c","extra":1}`))
	if err := decodeJSON(r, &req); err == nil {
		t.Error("decodeJSON() expected error for unknown field")
	}
}

// readAll drains a recorder body for string assertions.
func readAll(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	b, err := io.ReadAll(rec.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return string(b)
}
