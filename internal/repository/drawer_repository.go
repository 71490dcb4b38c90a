package repository

import (
	"context"
	"time"

	"retailpos-backend/internal/db"
	"retailpos-backend/internal/domain"
)

type DrawerRepository struct {
	DB *db.Postgres
}

// ListStaleOpen returns cash drawer sessions still open past the cut-off.
func (r DrawerRepository) ListStaleOpen(ctx context.Context, tenantID int64, before time.Time) ([]domain.CashDrawerSession, error) {
	rows, err := r.DB.Pool.Query(ctx, `
		SELECT id, operator_name, opened_at, opening_float
		FROM cash_drawer_sessions
		WHERE tenant_id=$1 AND status='open' AND opened_at < $2
		ORDER BY opened_at ASC
	`, tenantID, before)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []domain.CashDrawerSession
	for rows.Next() {
		var s domain.CashDrawerSession
		if err := rows.Scan(&s.ID, &s.OperatorName, &s.OpenedAt, &s.OpeningFloat.Amount); err != nil {
			return nil, err
		}
		s.TenantID = tenantID
		s.Status = domain.DrawerOpen
		items = append(items, s)
	}
	return items, rows.Err()
}

// AutoClose closes a stale session; the status predicate makes it idempotent.
func (r DrawerRepository) AutoClose(ctx context.Context, tenantID, sessionID int64, at time.Time) (bool, error) {
	tag, err := r.DB.Pool.Exec(ctx, `
		UPDATE cash_drawer_sessions
		SET status='closed', closed_at=$1, auto_closed=TRUE
		WHERE id=$2 AND tenant_id=$3 AND status='open'
	`, at, sessionID, tenantID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
