// Package session holds the process-wide pointer to the signed-in user.
//
// A Context starts empty, is established by a successful login and is
// cleared by logout. The pointer is persisted in the store so it survives a
// restart, the way a browser profile keeps its sign-in.
package session

import (
	"context"
	"fmt"
	"sync"

	"github.com/buscacontatos/buscacontatos/internal/store"
)

// Context tracks at most one active user id.
type Context struct {
	mu    sync.Mutex
	store *store.Store
}

// New creates a session context backed by s.
func New(s *store.Store) *Context {
	return &Context{store: s}
}

// Current returns the active user id, if any.
func (c *Context) Current(ctx context.Context) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := store.Get(ctx, c.store, store.KeySession, "")
	return id, id != ""
}

// Establish makes id the active user, replacing any previous one.
func (c *Context) Establish(ctx context.Context, id string) error {
	if id == "" {
		return fmt.Errorf("session user id is required")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := store.Set(ctx, c.store, store.KeySession, id); err != nil {
		return fmt.Errorf("establish session: %w", err)
	}
	return nil
}

// Clear removes the active user.
func (c *Context) Clear(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := store.Set(ctx, c.store, store.KeySession, ""); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}
