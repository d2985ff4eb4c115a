// Package repository provides typed accessors over the collection store.
//
// Each method reads a whole collection, changes it in memory and writes it
// back. A process-local mutex serializes those read-modify-write cycles so
// concurrent HTTP requests in one process cannot clobber each other; writers
// in other processes sharing the same backend still race, last write wins.
package repository

import (
	"context"
	"sync"
	"time"

	"github.com/buscacontatos/buscacontatos/internal/auth"
	"github.com/buscacontatos/buscacontatos/internal/store"
)

// Repository provides collection access methods.
type Repository struct {
	mu     sync.Mutex
	store  *store.Store
	keyEnv string
	now    func() time.Time
}

// Option configures a Repository.
type Option func(*Repository)

// WithKeyEnv selects the environment tag of generated API keys (live or test).
func WithKeyEnv(env string) Option {
	return func(r *Repository) {
		r.keyEnv = env
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(r *Repository) {
		r.now = now
	}
}

// New creates a Repository over s.
func New(s *store.Store, opts ...Option) *Repository {
	r := &Repository{
		store:  s,
		keyEnv: auth.EnvLive,
		now:    func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Ping checks the underlying store.
func (r *Repository) Ping(ctx context.Context) error {
	return r.store.Ping(ctx)
}

// ownedCollection reads a mapping ownerId -> records, never nil.
func ownedCollection[T any](ctx context.Context, s *store.Store, key string) map[string][]T {
	m := store.Get(ctx, s, key, map[string][]T{})
	if m == nil {
		m = map[string][]T{}
	}
	return m
}

// nonNil returns items, or an empty slice when items is nil.
func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
