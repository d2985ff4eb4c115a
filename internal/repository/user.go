package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/oklog/ulid/v2"

	"github.com/buscacontatos/buscacontatos/internal/model"
	"github.com/buscacontatos/buscacontatos/internal/store"
)

// Common errors for user repository operations.
var (
	ErrUserNotFound = errors.New("user not found")
	ErrEmailExists  = errors.New("email already exists")
)

func (r *Repository) loadUsers(ctx context.Context) []model.User {
	return nonNil(store.Get(ctx, r.store, store.KeyUsers, []model.User{}))
}

func (r *Repository) saveUsers(ctx context.Context, users []model.User) error {
	if err := store.Set(ctx, r.store, store.KeyUsers, users); err != nil {
		return fmt.Errorf("failed to save users: %w", err)
	}
	return nil
}

func findUser(users []model.User, id string) int {
	for i := range users {
		if users[i].ID == id {
			return i
		}
	}
	return -1
}

// ListUsers returns every user in creation order.
func (r *Repository) ListUsers(ctx context.Context) ([]model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.loadUsers(ctx), nil
}

// CountUsers returns the number of stored users.
func (r *Repository) CountUsers(ctx context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.loadUsers(ctx)), nil
}

// GetUserByID retrieves a user by id.
func (r *Repository) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	users := r.loadUsers(ctx)
	i := findUser(users, id)
	if i < 0 {
		return nil, ErrUserNotFound
	}
	u := users[i]
	return &u, nil
}

// GetUserByEmail retrieves a user by email, ignoring letter case.
func (r *Repository) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	email = strings.TrimSpace(email)
	for _, u := range r.loadUsers(ctx) {
		if strings.EqualFold(u.Email, email) {
			return &u, nil
		}
	}
	return nil, ErrUserNotFound
}

// CreateUser appends a user. An empty ID is filled with a new ULID and a zero
// CreatedAt with the current time.
func (r *Repository) CreateUser(ctx context.Context, user *model.User) error {
	if !user.Role.IsValid() || !user.Status.IsValid() {
		return fmt.Errorf("failed to create user: invalid role %q or status %q", user.Role, user.Status)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	users := r.loadUsers(ctx)
	for _, u := range users {
		if strings.EqualFold(u.Email, user.Email) {
			return ErrEmailExists
		}
	}

	if user.ID == "" {
		user.ID = ulid.Make().String()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = r.now()
	}

	return r.saveUsers(ctx, append(users, *user))
}

// UpdateUser applies fn to the stored user with id and persists the result when
// fn reports a change. It returns the user as stored afterwards.
func (r *Repository) UpdateUser(ctx context.Context, id string, fn func(u *model.User) bool) (*model.User, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	users := r.loadUsers(ctx)
	i := findUser(users, id)
	if i < 0 {
		return nil, false, ErrUserNotFound
	}

	updated := users[i]
	if !fn(&updated) {
		return &updated, false, nil
	}
	if !updated.Role.IsValid() || !updated.Status.IsValid() {
		return nil, false, fmt.Errorf("failed to update user: invalid role %q or status %q", updated.Role, updated.Status)
	}

	users[i] = updated
	if err := r.saveUsers(ctx, users); err != nil {
		return nil, false, err
	}
	return &updated, true, nil
}

// DeleteUser removes a user and every contact, API key and webhook it owns.
// The audit log is left untouched.
func (r *Repository) DeleteUser(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	users := r.loadUsers(ctx)
	i := findUser(users, id)
	if i < 0 {
		return ErrUserNotFound
	}

	if err := deleteOwner[model.Contact](ctx, r.store, store.KeyContacts, id); err != nil {
		return err
	}
	if err := deleteOwner[model.APIKey](ctx, r.store, store.KeyAPIKeys, id); err != nil {
		return err
	}
	if err := deleteOwner[model.Webhook](ctx, r.store, store.KeyWebhooks, id); err != nil {
		return err
	}

	return r.saveUsers(ctx, append(users[:i], users[i+1:]...))
}

func deleteOwner[T any](ctx context.Context, s *store.Store, key, owner string) error {
	m := ownedCollection[T](ctx, s, key)
	if _, ok := m[owner]; !ok {
		return nil
	}
	delete(m, owner)
	if err := store.Set(ctx, s, key, m); err != nil {
		return fmt.Errorf("failed to delete %s of user: %w", key, err)
	}
	return nil
}
