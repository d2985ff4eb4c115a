package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

// responseWriter wraps http.ResponseWriter to capture status code and size.
type responseWriter struct {
	http.ResponseWriter
	status      int
	bytes       int
	wroteHeader bool
}

func wrapResponseWriter(w http.ResponseWriter) *responseWriter {
	return &responseWriter{ResponseWriter: w, status: http.StatusOK}
}

func (rw *responseWriter) WriteHeader(code int) {
	if rw.wroteHeader {
		return
	}
	rw.status = code
	rw.wroteHeader = true
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	if !rw.wroteHeader {
		rw.WriteHeader(http.StatusOK)
	}
	n, err := rw.ResponseWriter.Write(b)
	rw.bytes += n
	return n, err
}

// Logger returns a middleware that logs one line per request.
// Headers are never logged, so credentials in Authorization stay out of the logs.
func Logger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			wrapped := wrapResponseWriter(w)

			// Auth middleware further down the chain stores the caller in
			// this holder so it can be logged here.
			caller := &callerInfo{}
			next.ServeHTTP(wrapped, r.WithContext(withCallerInfo(r.Context(), caller)))

			attrs := []slog.Attr{
				slog.String("request_id", GetRequestID(r.Context())),
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status_code", wrapped.status),
				slog.Int("bytes", wrapped.bytes),
				slog.Float64("duration_ms", float64(time.Since(start).Microseconds())/1000),
				slog.String("remote_addr", r.RemoteAddr),
				slog.String("user_agent", r.UserAgent()),
			}
			if caller.userID != "" {
				attrs = append(attrs, slog.String("user_id", caller.userID))
			}
			if caller.keyID != "" {
				attrs = append(attrs, slog.String("key_id", caller.keyID))
			}

			level := slog.LevelInfo
			if wrapped.status >= 500 {
				level = slog.LevelError
			} else if wrapped.status >= 400 {
				level = slog.LevelWarn
			}

			logger.LogAttrs(r.Context(), level, "http request", attrs...)
		})
	}
}

type callerInfo struct {
	userID string
	keyID  string
}

const callerInfoKey contextKey = "caller_info"

func withCallerInfo(ctx context.Context, info *callerInfo) context.Context {
	return context.WithValue(ctx, callerInfoKey, info)
}

// noteCaller records the authenticated caller for the request log line.
func noteCaller(ctx context.Context, userID, keyID string) {
	if info, ok := ctx.Value(callerInfoKey).(*callerInfo); ok {
		info.userID = userID
		info.keyID = keyID
	}
}
