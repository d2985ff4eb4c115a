package service

import "github.com/buscacontatos/buscacontatos/internal/model"

// RequireAdmin returns user when it holds the admin role and ErrForbidden otherwise.
func RequireAdmin(user *model.User) (*model.User, error) {
	if user == nil || !user.IsAdmin() {
		return nil, ErrForbidden
	}
	return user, nil
}
