package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/buscacontatos/buscacontatos/internal/model"
	"github.com/buscacontatos/buscacontatos/internal/repository"
)

func (f *Facade) resolveAdmin(ctx context.Context, actorID string) (*model.User, error) {
	actor, err := f.repo.GetUserByID(ctx, actorID)
	if err != nil && !errors.Is(err, repository.ErrUserNotFound) {
		return nil, err
	}
	return RequireAdmin(actor)
}

// AdminListUsers returns every user.
func (f *Facade) AdminListUsers(ctx context.Context, actorID string) ([]model.User, error) {
	if _, err := f.resolveAdmin(ctx, actorID); err != nil {
		return nil, err
	}
	return f.repo.ListUsers(ctx)
}

// AdminAuditLog returns the audit log newest first.
func (f *Facade) AdminAuditLog(ctx context.Context, actorID string) ([]model.AuditLogEntry, error) {
	if _, err := f.resolveAdmin(ctx, actorID); err != nil {
		return nil, err
	}
	return f.audit.List(ctx)
}

// AdminUpdateUser changes the status and/or role of a user. It returns false
// when the target does not exist or when an admin tries to demote or
// unapprove themself. Each field that actually changes gets one audit entry.
func (f *Facade) AdminUpdateUser(ctx context.Context, actorID, targetID string, update model.UserUpdate) (bool, error) {
	actor, err := f.resolveAdmin(ctx, actorID)
	if err != nil {
		return false, err
	}
	if update.IsEmpty() {
		return false, validationError("status or role is required")
	}
	if update.Status != nil && !update.Status.IsValid() {
		return false, validationError(fmt.Sprintf("invalid status %q", *update.Status))
	}
	if update.Role != nil && !update.Role.IsValid() {
		return false, validationError(fmt.Sprintf("invalid role %q", *update.Role))
	}
	if actor.ID == targetID && demotesSelf(actor, update) {
		f.logger.WarnContext(ctx, "admin self-demotion refused", "actor_id", actor.ID)
		return false, nil
	}

	var before model.User
	updated, changed, err := f.repo.UpdateUser(ctx, targetID, func(u *model.User) bool {
		before = *u
		if update.Status != nil {
			u.Status = *update.Status
		}
		if update.Role != nil {
			u.Role = *update.Role
		}
		return u.Status != before.Status || u.Role != before.Role
	})
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return false, nil
		}
		return false, err
	}
	if !changed {
		return true, nil
	}

	if updated.Status != before.Status {
		f.metrics.IncAdminAction("status")
		f.audit.Record(ctx, AuditRecord{
			Actor:    actor,
			Action:   fmt.Sprintf("User status updated to %s", updated.Status),
			TargetID: targetID,
			Target:   updated,
			Details:  fmt.Sprintf("Status of %s changed to %s.", updated.Email, updated.Status),
		})
		if !updated.IsApproved() {
			f.forgetUserKeys(ctx, targetID)
		}
	}
	if updated.Role != before.Role {
		f.metrics.IncAdminAction("role")
		f.audit.Record(ctx, AuditRecord{
			Actor:    actor,
			Action:   fmt.Sprintf("User role updated to %s", updated.Role),
			TargetID: targetID,
			Target:   updated,
			Details:  fmt.Sprintf("Role of %s changed to %s.", updated.Email, updated.Role),
		})
	}

	f.logger.InfoContext(ctx, "user updated",
		"actor_id", actor.ID,
		"target_id", targetID,
		"status", updated.Status,
		"role", updated.Role,
	)
	return true, nil
}

func demotesSelf(actor *model.User, update model.UserUpdate) bool {
	if update.Role != nil && *update.Role != model.RoleAdmin {
		return true
	}
	return update.Status != nil && *update.Status != actor.Status
}

// AdminDeleteUser removes a user and everything it owns. It returns false when
// the target does not exist or is the acting admin.
func (f *Facade) AdminDeleteUser(ctx context.Context, actorID, targetID string) (bool, error) {
	actor, err := f.resolveAdmin(ctx, actorID)
	if err != nil {
		return false, err
	}
	if actor.ID == targetID {
		f.logger.WarnContext(ctx, "admin self-deletion refused", "actor_id", actor.ID)
		return false, nil
	}

	target, err := f.repo.GetUserByID(ctx, targetID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return false, nil
		}
		return false, err
	}

	keys, err := f.repo.ListAPIKeys(ctx, targetID)
	if err != nil {
		return false, err
	}

	if err := f.repo.DeleteUser(ctx, targetID); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return false, nil
		}
		return false, err
	}
	for _, k := range keys {
		f.auth.forgetAPIKey(ctx, k.ID)
	}

	f.metrics.IncAdminAction("delete")
	f.audit.Record(ctx, AuditRecord{
		Actor:    actor,
		Action:   AuditActionDelete,
		TargetID: targetID,
		Target:   target,
		Details:  fmt.Sprintf("User %s was permanently deleted.", target.Email),
	})
	f.logger.InfoContext(ctx, "user deleted", "actor_id", actor.ID, "target_id", targetID)
	return true, nil
}

func (f *Facade) forgetUserKeys(ctx context.Context, userID string) {
	keys, err := f.repo.ListAPIKeys(ctx, userID)
	if err != nil {
		f.logger.WarnContext(ctx, "failed to list API keys for eviction", "user_id", userID, "error", err)
		return
	}
	for _, k := range keys {
		f.auth.forgetAPIKey(ctx, k.ID)
	}
}
