package repository

import (
	"context"

	"retailpos-backend/internal/db"
	"retailpos-backend/internal/domain"
)

// AuditLogRepository writes the append-only audit trail. Rows are never
// updated or deleted.
type AuditLogRepository struct {
	DB *db.Postgres
}

type CreateAuditInput struct {
	Action     string
	EntityType string
	EntityID   int64
	Changes    map[string]any
	Actor      string
}

func (r AuditLogRepository) Create(ctx context.Context, tenantID int64, in CreateAuditInput) (int64, error) {
	var id int64
	err := r.DB.Pool.QueryRow(ctx, `
		INSERT INTO audit_logs (tenant_id, action, entity_type, entity_id, changes, actor, created_at)
		VALUES ($1,$2,$3,$4,$5,$6, now())
		RETURNING id
	`, tenantID, in.Action, in.EntityType, in.EntityID, in.Changes, in.Actor).Scan(&id)
	return id, err
}

func (r AuditLogRepository) List(ctx context.Context, tenantID int64, limit int) ([]domain.AuditLogEntry, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.DB.Pool.Query(ctx, `
		SELECT id, action, entity_type, entity_id, changes, actor, created_at
		FROM audit_logs
		WHERE tenant_id=$1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`, tenantID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.AuditLogEntry
	for rows.Next() {
		var e domain.AuditLogEntry
		if err := rows.Scan(&e.ID, &e.Action, &e.EntityType, &e.EntityID, &e.Changes, &e.Actor, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.TenantID = tenantID
		out = append(out, e)
	}
	return out, rows.Err()
}
