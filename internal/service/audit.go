package service

import (
	"context"
	"log/slog"

	"github.com/buscacontatos/buscacontatos/internal/model"
	"github.com/buscacontatos/buscacontatos/internal/repository"
)

// systemTargetName labels audit targets that no longer resolve to a user.
const systemTargetName = "System"

// Audit actions.
const (
	AuditActionDelete = "User deleted"
)

// AuditRecord describes one administrative action.
type AuditRecord struct {
	Actor    *model.User
	Action   string
	TargetID string
	// Target is the target as it looked when the action happened; nil when it
	// no longer exists.
	Target  *model.User
	Details string
}

// AuditLogger writes entries to the global audit log.
// Recording is best-effort: failures are logged and never returned.
type AuditLogger struct {
	repo   *repository.Repository
	logger *slog.Logger
}

// NewAuditLogger creates a new AuditLogger.
func NewAuditLogger(repo *repository.Repository, logger *slog.Logger) *AuditLogger {
	return &AuditLogger{
		repo:   repo,
		logger: logger.With("component", "audit"),
	}
}

// Record prepends one entry to the log.
func (l *AuditLogger) Record(ctx context.Context, rec AuditRecord) {
	if rec.Actor == nil {
		l.logger.WarnContext(ctx, "audit entry skipped: unknown actor", "action", rec.Action)
		return
	}

	target := model.Ref{ID: rec.TargetID, Name: systemTargetName}
	if rec.Target != nil {
		target = rec.Target.Ref()
	}

	entry := model.AuditLogEntry{
		Actor:   rec.Actor.Ref(),
		Action:  rec.Action,
		Target:  target,
		Details: rec.Details,
	}
	if err := l.repo.AppendAuditLog(ctx, entry); err != nil {
		l.logger.ErrorContext(ctx, "failed to write audit entry",
			"action", rec.Action,
			"actor_id", rec.Actor.ID,
			"target_id", rec.TargetID,
			"error", err,
		)
	}
}

// List returns the log newest first.
func (l *AuditLogger) List(ctx context.Context) ([]model.AuditLogEntry, error) {
	return l.repo.ListAuditLog(ctx)
}
