package repository

import (
	"context"

	"retailpos-backend/internal/db"
	"retailpos-backend/internal/domain"

	"github.com/google/uuid"
)

type SyncRepository struct {
	DB *db.Postgres
}

// ListDirty returns branch records awaiting reconciliation, grouped stably by
// entity then branch so the sync job's winner pick is reproducible.
func (r SyncRepository) ListDirty(ctx context.Context, tenantID int64) ([]domain.SyncRecord, error) {
	rows, err := r.DB.Pool.Query(ctx, `
		SELECT id, entity_type, entity_id, branch_id, checksum, updated_at
		FROM sync_records
		WHERE tenant_id=$1 AND dirty
		ORDER BY entity_type ASC, entity_id ASC, branch_id ASC
	`, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []domain.SyncRecord
	for rows.Next() {
		var s domain.SyncRecord
		if err := rows.Scan(&s.ID, &s.EntityType, &s.EntityID, &s.BranchID, &s.Checksum, &s.UpdatedAt); err != nil {
			return nil, err
		}
		s.TenantID = tenantID
		s.Dirty = true
		items = append(items, s)
	}
	return items, rows.Err()
}

// Resolve marks every branch record of the entity clean and propagates the
// winning branch's checksum to the losers.
func (r SyncRepository) Resolve(ctx context.Context, tenantID int64, entityType string, entityID, winnerBranch int64) error {
	tx, err := r.DB.Pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var winnerChecksum string
	err = tx.QueryRow(ctx, `
		SELECT checksum FROM sync_records
		WHERE tenant_id=$1 AND entity_type=$2 AND entity_id=$3 AND branch_id=$4
	`, tenantID, entityType, entityID, winnerBranch).Scan(&winnerChecksum)
	if err != nil {
		return err
	}

	if _, err := tx.Exec(ctx, `
		UPDATE sync_records
		SET checksum=$4, dirty=FALSE, updated_at=now()
		WHERE tenant_id=$1 AND entity_type=$2 AND entity_id=$3
	`, tenantID, entityType, entityID, winnerChecksum); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// CreateConflict records an unresolved divergence for manual review. One open
// conflict per entity; a second detection of the same divergence is a no-op.
func (r SyncRepository) CreateConflict(ctx context.Context, tenantID int64, entityType string, entityID int64, branchIDs []int64) (bool, error) {
	tag, err := r.DB.Pool.Exec(ctx, `
		INSERT INTO sync_conflicts (id, tenant_id, entity_type, entity_id, branch_ids, detected_at, resolved)
		SELECT $1, $2, $3, $4, $5, now(), FALSE
		WHERE NOT EXISTS (
			SELECT 1 FROM sync_conflicts
			WHERE tenant_id=$2 AND entity_type=$3 AND entity_id=$4 AND NOT resolved
		)
	`, uuid.NewString(), tenantID, entityType, entityID, branchIDs)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
