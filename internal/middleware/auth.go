package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/buscacontatos/buscacontatos/internal/auth"
	"github.com/buscacontatos/buscacontatos/internal/model"
)

// DefaultMinAuthDuration is the minimum time spent on API key auth so
// failures and successes take the same time.
const DefaultMinAuthDuration = 200 * time.Millisecond

// KeyAuthenticator resolves a plaintext API key to its caller.
type KeyAuthenticator interface {
	AuthenticateAPIKey(ctx context.Context, plaintext string) (*model.AuthContext, error)
}

// SessionResolver returns the signed-in user, or nil when there is none.
type SessionResolver interface {
	CurrentUser(ctx context.Context) (*model.User, error)
}

// APIKeyAuthConfig holds configuration for the API key middleware.
type APIKeyAuthConfig struct {
	Logger        *slog.Logger
	Authenticator KeyAuthenticator
	// MinDuration pads every attempt; zero disables padding.
	MinDuration time.Duration
}

// APIKeyAuth returns a middleware that authenticates programmatic requests
// with an API key from the Authorization or X-API-Key header.
func APIKeyAuth(cfg APIKeyAuthConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			startTime := time.Now()
			defer func() {
				if elapsed := time.Since(startTime); elapsed < cfg.MinDuration {
					time.Sleep(cfg.MinDuration - elapsed)
				}
			}()

			key := extractAPIKey(r)
			if key == "" {
				logAuthFailure(cfg.Logger, r, "missing_key")
				writeAuthError(w)
				return
			}
			if !strings.HasPrefix(key, auth.TokenMarker) {
				logAuthFailure(cfg.Logger, r, "invalid_format")
				writeAuthError(w)
				return
			}

			authCtx, err := cfg.Authenticator.AuthenticateAPIKey(r.Context(), key)
			if err != nil {
				logAuthFailure(cfg.Logger, r, "invalid_key")
				writeAuthError(w)
				return
			}

			cfg.Logger.Info("authentication successful",
				slog.String("key_id", authCtx.KeyID),
				slog.String("key_prefix", authCtx.KeyPrefix),
				slog.String("user_id", authCtx.UserID),
				slog.String("endpoint", r.Method+" "+r.URL.Path),
				slog.String("request_id", GetRequestID(r.Context())),
			)

			noteCaller(r.Context(), authCtx.UserID, authCtx.KeyID)
			next.ServeHTTP(w, r.WithContext(auth.ContextWithAuth(r.Context(), authCtx)))
		})
	}
}

// Session returns a middleware that attaches the signed-in user, if any, to
// the request context.
func Session(logger *slog.Logger, resolver SessionResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, err := resolver.CurrentUser(r.Context())
			if err != nil {
				logger.Error("failed to resolve session",
					slog.String("error", err.Error()),
					slog.String("request_id", GetRequestID(r.Context())),
				)
				writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to resolve session")
				return
			}
			if user == nil {
				next.ServeHTTP(w, r)
				return
			}

			noteCaller(r.Context(), user.ID, "")
			next.ServeHTTP(w, r.WithContext(auth.ContextWithUser(r.Context(), user)))
		})
	}
}

// RequireUser rejects requests without a signed-in user. Apply after Session.
func RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if auth.UserFromContext(r.Context()) == nil {
			writeError(w, http.StatusUnauthorized, "UNAUTHENTICATED", "Sign in required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// extractAPIKey supports "Authorization: Bearer <key>" and "X-API-Key: <key>".
func extractAPIKey(r *http.Request) string {
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	return strings.TrimSpace(r.Header.Get("X-API-Key"))
}

func logAuthFailure(logger *slog.Logger, r *http.Request, reason string) {
	logger.Warn("authentication failed",
		slog.String("reason", reason),
		slog.String("ip", r.RemoteAddr),
		slog.String("endpoint", r.Method+" "+r.URL.Path),
		slog.String("request_id", GetRequestID(r.Context())),
	)
}

// writeAuthError uses the same message for all failures to prevent enumeration.
func writeAuthError(w http.ResponseWriter) {
	writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid or missing API key")
}
