package repository

import (
	"context"
	"time"

	"retailpos-backend/internal/db"
	"retailpos-backend/internal/domain"
)

type CartRepository struct {
	DB *db.Postgres
}

// ListAbandoned returns saved carts idle past the cut-off, unreminded, and
// not followed by a completed transaction.
func (r CartRepository) ListAbandoned(ctx context.Context, tenantID int64, idleSince time.Time) ([]domain.SavedCart, error) {
	rows, err := r.DB.Pool.Query(ctx, `
		SELECT id, customer_id, contact, total, item_count, updated_at, created_at
		FROM saved_carts
		WHERE tenant_id=$1
		  AND updated_at < $2
		  AND NOT reminder_sent
		  AND completed_tx_id IS NULL
		ORDER BY updated_at ASC
	`, tenantID, idleSince)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []domain.SavedCart
	for rows.Next() {
		var c domain.SavedCart
		if err := rows.Scan(&c.ID, &c.CustomerID, &c.Contact, &c.Total.Amount, &c.ItemCount, &c.UpdatedAt, &c.CreatedAt); err != nil {
			return nil, err
		}
		c.TenantID = tenantID
		items = append(items, c)
	}
	return items, rows.Err()
}

// MarkReminded flips the once-only guard flag.
func (r CartRepository) MarkReminded(ctx context.Context, tenantID, cartID int64) (bool, error) {
	tag, err := r.DB.Pool.Exec(ctx, `
		UPDATE saved_carts SET reminder_sent=TRUE
		WHERE id=$1 AND tenant_id=$2 AND NOT reminder_sent
	`, cartID, tenantID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
