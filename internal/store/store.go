// Package store provides the durable key-value layer holding whole collections.
//
// Every collection lives under one key and is always written in full: callers
// read the collection, modify it and write it back. There is no row-level
// update and no concurrency token, so two writers racing on the same key keep
// whichever write lands last.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/buscacontatos/buscacontatos/internal/metrics"
)

// Collection keys.
const (
	KeyUsers    = "users"
	KeyContacts = "contacts"
	KeyAPIKeys  = "api_keys"
	KeyWebhooks = "webhooks"
	KeyAuditLog = "audit_log"
	KeySession  = "session"
)

// DefaultKeyPrefix namespaces collection keys inside a shared backend.
const DefaultKeyPrefix = "buscacontatos:"

var (
	// ErrNotFound is returned by backends when a key holds no value.
	ErrNotFound = errors.New("collection not found")
	// ErrCorrupt marks a stored blob that cannot be decoded.
	// It is logged and recovered by Get, never returned to callers.
	ErrCorrupt = errors.New("stored collection is corrupt")
)

// Backend is a raw byte store keyed by collection name.
type Backend interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, data []byte) error
	Ping(ctx context.Context) error
	Close() error
}

// Store encodes collections as JSON on top of a Backend.
type Store struct {
	backend Backend
	prefix  string
	logger  *slog.Logger
	metrics metrics.Recorder
}

// New wraps a backend. An empty prefix disables namespacing.
func New(backend Backend, prefix string, logger *slog.Logger, recorder metrics.Recorder) *Store {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		backend: backend,
		prefix:  prefix,
		logger:  logger.With("component", "store"),
		metrics: recorder,
	}
}

// Ping checks backend connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.backend.Ping(ctx)
}

// Close releases the backend.
func (s *Store) Close() error {
	return s.backend.Close()
}

// Get returns the collection stored under key, or def when the key is absent,
// unreadable or holds data that does not decode into T.
func Get[T any](ctx context.Context, s *Store, key string, def T) T {
	data, err := s.backend.Load(ctx, s.prefix+key)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			s.logger.Warn("collection read failed, using default",
				slog.String("collection", key),
				slog.String("error", err.Error()),
			)
		}
		return def
	}

	var value T
	if err := json.Unmarshal(data, &value); err != nil {
		s.logger.Warn("collection read failed, using default",
			slog.String("collection", key),
			slog.String("error", fmt.Errorf("%w: %v", ErrCorrupt, err).Error()),
		)
		s.metrics.IncStoreCorruption(key)
		return def
	}
	return value
}

// Set overwrites the whole collection under key.
func Set[T any](ctx context.Context, s *Store, key string, value T) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode collection %s: %w", key, err)
	}
	if err := s.backend.Save(ctx, s.prefix+key, data); err != nil {
		return fmt.Errorf("save collection %s: %w", key, err)
	}
	return nil
}
