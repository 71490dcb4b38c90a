package job

import (
	"context"
	"log/slog"

	"retailpos-backend/internal/repository"
)

// AuditWriter records job-driven state changes. Writes are best effort: a
// failed audit insert is logged, never counted against the entity.
type AuditWriter interface {
	Write(ctx context.Context, tenantID int64, action, entityType string, entityID int64, changes map[string]any)
}

// RepoAuditWriter backs AuditWriter with the append-only audit_logs table.
type RepoAuditWriter struct {
	Repo   repository.AuditLogRepository
	Logger *slog.Logger
}

func (w RepoAuditWriter) Write(ctx context.Context, tenantID int64, action, entityType string, entityID int64, changes map[string]any) {
	_, err := w.Repo.Create(ctx, tenantID, repository.CreateAuditInput{
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Changes:    changes,
		Actor:      "automation",
	})
	if err != nil {
		w.Logger.Warn("audit write failed", "tenant", tenantID, "action", action, "err", err)
	}
}
