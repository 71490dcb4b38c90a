package repository

import (
	"context"

	"retailpos-backend/internal/db"
	"retailpos-backend/internal/domain"
)

type PurchaseOrderRepository struct {
	DB *db.Postgres
}

// InTransit sums quantities of suggested/ordered purchase orders per product.
// Replenishment subtracts these from projected need so it never double-orders.
func (r PurchaseOrderRepository) InTransit(ctx context.Context, tenantID int64) (map[int64]int, error) {
	rows, err := r.DB.Pool.Query(ctx, `
		SELECT product_id, COALESCE(SUM(quantity),0)
		FROM purchase_orders
		WHERE tenant_id=$1 AND status IN ('suggested','ordered')
		GROUP BY product_id
	`, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	totals := make(map[int64]int)
	for rows.Next() {
		var productID int64
		var qty int
		if err := rows.Scan(&productID, &qty); err != nil {
			return nil, err
		}
		totals[productID] = qty
	}
	return totals, rows.Err()
}

// CreateSuggestion inserts a suggested purchase order unless an open one for
// the product already exists. Returns false when the guard row was already
// there, which is what makes re-runs of the replenishment job no-ops.
func (r PurchaseOrderRepository) CreateSuggestion(ctx context.Context, tenantID int64, po domain.PurchaseOrder) (bool, error) {
	tag, err := r.DB.Pool.Exec(ctx, `
		INSERT INTO purchase_orders (tenant_id, product_id, quantity, status, note, created_at, updated_at)
		SELECT $1, $2, $3, 'suggested', $4, now(), now()
		WHERE NOT EXISTS (
			SELECT 1 FROM purchase_orders
			WHERE tenant_id=$1 AND product_id=$2 AND status IN ('suggested','ordered')
		)
	`, tenantID, po.ProductID, po.Quantity, po.Note)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// Receive marks an order received and books the incoming stock through the
// ledger in the same transaction.
func (r PurchaseOrderRepository) Receive(ctx context.Context, tenantID, orderID int64, ledger StockRepository, userID *int64) (*domain.StockMovement, error) {
	tx, err := r.DB.Pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	var productID int64
	var qty int
	err = tx.QueryRow(ctx, `
		UPDATE purchase_orders SET status='received', updated_at=now()
		WHERE id=$1 AND tenant_id=$2 AND status IN ('suggested','ordered')
		RETURNING product_id, quantity
	`, orderID, tenantID).Scan(&productID, &qty)
	if err != nil {
		return nil, ErrNotFound
	}

	mv, err := ledger.AdjustWithTx(ctx, tx, tenantID, AdjustStockInput{
		ProductID: productID,
		Delta:     qty,
		Type:      domain.MovementPurchase,
		UserID:    userID,
		Reason:    "purchase order received",
	})
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return mv, nil
}
