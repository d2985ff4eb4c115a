package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/buscacontatos/buscacontatos/internal/model"
	"github.com/buscacontatos/buscacontatos/internal/repository"
)

// DemoUsers are seeded into an empty user collection.
var DemoUsers = []model.User{
	{ID: "user-1", Name: "Admin User", Email: "admin@test.com", Role: model.RoleAdmin, Status: model.StatusApproved, EmailVerified: true},
	{ID: "user-2", Name: "Regular User", Email: "user@test.com", Role: model.RoleUser, Status: model.StatusApproved, EmailVerified: true},
	{ID: "user-3", Name: "Pending User", Email: "pending@test.com", Role: model.RoleUser, Status: model.StatusPending, EmailVerified: true},
}

// Bootstrap seeds users when the user collection is empty. It reports how many
// users were created.
func (f *Facade) Bootstrap(ctx context.Context, users []model.User) (int, error) {
	count, err := f.repo.CountUsers(ctx)
	if err != nil {
		return 0, err
	}
	if count > 0 {
		return 0, nil
	}

	created := 0
	for _, u := range users {
		if err := f.repo.CreateUser(ctx, &u); err != nil {
			if errors.Is(err, repository.ErrEmailExists) {
				continue
			}
			return created, fmt.Errorf("seed user %s: %w", u.Email, err)
		}
		created++
	}
	f.logger.InfoContext(ctx, "seeded users", "count", created)
	return created, nil
}
