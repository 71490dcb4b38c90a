package repository

import (
	"context"

	"retailpos-backend/internal/db"
)

type TenantRepository struct {
	DB *db.Postgres
}

// ListActiveIDs returns every active tenant, the fan-out set for jobs called
// without an explicit tenant.
func (r TenantRepository) ListActiveIDs(ctx context.Context) ([]int64, error) {
	rows, err := r.DB.Pool.Query(ctx, `
		SELECT id FROM tenants
		WHERE active AND deleted_at IS NULL
		ORDER BY id ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r TenantRepository) Exists(ctx context.Context, tenantID int64) (bool, error) {
	var exists bool
	err := r.DB.Pool.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM tenants WHERE id=$1 AND active AND deleted_at IS NULL)
	`, tenantID).Scan(&exists)
	return exists, err
}
