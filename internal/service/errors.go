// Package service composes repositories, the session and collaborators into
// the operations the dashboard calls.
package service

import (
	"errors"
	"fmt"

	"github.com/buscacontatos/buscacontatos/internal/auth"
	"github.com/buscacontatos/buscacontatos/internal/model"
)

// Service errors.
var (
	ErrNotFound           = errors.New("not found")
	ErrForbidden          = errors.New("forbidden")
	ErrAccountNotApproved = errors.New("account not approved")
	ErrValidation         = errors.New("validation failed")
	ErrUnauthenticated    = errors.New("not signed in")
	ErrInvalidToken       = auth.ErrInvalidToken
)

// AccountNotApprovedError carries the status that blocked a sign-in.
type AccountNotApprovedError struct {
	Status model.UserStatus
}

func (e *AccountNotApprovedError) Error() string {
	switch e.Status {
	case model.StatusBlocked:
		return fmt.Sprintf("account is blocked (status %s)", e.Status)
	case model.StatusPending:
		return fmt.Sprintf("account is awaiting approval (status %s)", e.Status)
	default:
		return fmt.Sprintf("account is not approved (status %s)", e.Status)
	}
}

// Is lets errors.Is match ErrAccountNotApproved.
func (e *AccountNotApprovedError) Is(target error) bool {
	return target == ErrAccountNotApproved
}

func validationError(msg string) error {
	return fmt.Errorf("%w: %s", ErrValidation, msg)
}
