package testutil

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/buscacontatos/buscacontatos/internal/model"
)

// RequireEnv returns an environment variable or skips the test if missing.
func RequireEnv(t testing.TB, key string) string {
	t.Helper()
	value := os.Getenv(key)
	if value == "" {
		t.Skipf("%s not set", key)
	}
	return value
}

// DiscardLogger returns a logger that drops every record.
func DiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

const advisoryLockID int64 = 420420

// AcquireDBLock grabs a global advisory lock to serialize DB tests.
func AcquireDBLock(ctx context.Context, pool *pgxpool.Pool) (func() error, error) {
	conn, err := pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}

	if _, err := conn.Exec(ctx, "SELECT pg_advisory_lock($1)", advisoryLockID); err != nil {
		conn.Release()
		return nil, fmt.Errorf("acquire advisory lock: %w", err)
	}

	unlock := func() error {
		defer conn.Release()
		if _, err := conn.Exec(ctx, "SELECT pg_advisory_unlock($1)", advisoryLockID); err != nil {
			return fmt.Errorf("release advisory lock: %w", err)
		}
		return nil
	}

	return unlock, nil
}

// ResetCollections deletes every collection row whose key starts with prefix.
func ResetCollections(ctx context.Context, pool *pgxpool.Pool, prefix string) error {
	if _, err := pool.Exec(ctx, "DELETE FROM collections WHERE key LIKE $1", prefix+"%"); err != nil {
		return fmt.Errorf("reset collections: %w", err)
	}
	return nil
}

// FlushPrefix deletes every Redis key starting with prefix.
func FlushPrefix(ctx context.Context, client *redis.Client, prefix string) error {
	iter := client.Scan(ctx, 0, prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		if err := client.Del(ctx, iter.Val()).Err(); err != nil {
			return fmt.Errorf("delete %s: %w", iter.Val(), err)
		}
	}
	return iter.Err()
}

// ============================================================================
// Test Data Factories
// ============================================================================

// NewTestUser creates an approved user with sensible defaults.
func NewTestUser(t testing.TB, email string) *model.User {
	t.Helper()
	now := time.Now().UTC()
	return &model.User{
		ID:            fmt.Sprintf("user-%d", now.UnixNano()),
		Name:          "Test User",
		Email:         email,
		Role:          model.RoleUser,
		Status:        model.StatusApproved,
		CreatedAt:     now,
		EmailVerified: true,
	}
}

// NewTestAdmin creates an approved admin.
func NewTestAdmin(t testing.TB, email string) *model.User {
	t.Helper()
	u := NewTestUser(t, email)
	u.Role = model.RoleAdmin
	u.Name = "Test Admin"
	return u
}

// NewTestPlace creates a valid place with the given id.
func NewTestPlace(t testing.TB, placeID string) model.Place {
	t.Helper()
	return model.Place{
		PlaceID:              placeID,
		Name:                 "Padaria " + placeID,
		FormattedAddress:     "Rua das Flores, 100 - Centro, Curitiba - PR",
		Rating:               4.5,
		UserRatingsTotal:     120,
		BusinessStatus:       "OPERATIONAL",
		Website:              "https://example.com/" + placeID,
		FormattedPhoneNumber: "(41) 3333-4444",
	}
}

// NewTestContact wraps a test place with a consent timestamp.
func NewTestContact(t testing.TB, placeID string) model.Contact {
	t.Helper()
	return model.Contact{
		Place:            NewTestPlace(t, placeID),
		ConsentTimestamp: time.Now().UTC().Truncate(time.Second),
	}
}

// UniqueID generates a unique ID for tests.
func UniqueID(prefix string) string {
	return fmt.Sprintf("%s-%d", prefix, time.Now().UnixNano())
}
