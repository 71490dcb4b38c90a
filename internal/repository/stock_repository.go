package repository

import (
	"context"
	"errors"
	"time"

	"retailpos-backend/internal/db"
	"retailpos-backend/internal/domain"

	"github.com/jackc/pgx/v5"
)

// StockRepository is the stock ledger. Every stock mutation funnels through
// Adjust: the product counter update and the movement insert commit as one
// transaction, with the product row locked for the read-modify-write.
type StockRepository struct {
	DB *db.Postgres
}

type AdjustStockInput struct {
	ProductID     int64
	Delta         int
	Type          domain.MovementType
	BranchID      *int64
	TransactionID *int64
	UserID        *int64
	Reason        string
	Notes         string
}

// Adjust applies a signed stock delta and appends the movement row. Returns
// ErrNotFound when the product does not exist in the tenant's scope, and
// ErrInsufficientStock when the delta would take stock negative and the
// tenant does not allow out-of-stock sales. On error nothing is committed.
// The FOR UPDATE read contends under concurrent sales; a serialization
// abort or deadlock retries once.
func (r StockRepository) Adjust(ctx context.Context, tenantID int64, in AdjustStockInput) (*domain.StockMovement, error) {
	return retrySerialization(func() (*domain.StockMovement, error) {
		return r.adjust(ctx, tenantID, in)
	})
}

func (r StockRepository) adjust(ctx context.Context, tenantID int64, in AdjustStockInput) (*domain.StockMovement, error) {
	tx, err := r.DB.Pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	mv, err := r.AdjustWithTx(ctx, tx, tenantID, in)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return mv, nil
}

// retrySerialization re-runs fn once when the first attempt aborts with a
// serialization failure or deadlock. Any other error returns as-is.
func retrySerialization(fn func() (*domain.StockMovement, error)) (*domain.StockMovement, error) {
	mv, err := fn()
	if err != nil && db.IsSerializationFailure(err) {
		return fn()
	}
	return mv, err
}

// AdjustWithTx is Adjust running inside a caller-owned transaction, so a sale
// can commit its transaction rows and the ledger movement atomically.
func (r StockRepository) AdjustWithTx(ctx context.Context, tx pgx.Tx, tenantID int64, in AdjustStockInput) (*domain.StockMovement, error) {
	var current int
	var trackInventory, allowOOS bool
	err := tx.QueryRow(ctx, `
		SELECT p.stock, p.track_inventory,
		       COALESCE(s.allow_out_of_stock_sales, FALSE)
		FROM products p
		LEFT JOIN tenant_settings s ON s.tenant_id = p.tenant_id
		WHERE p.id=$1 AND p.tenant_id=$2 AND p.deleted_at IS NULL
		FOR UPDATE OF p
	`, in.ProductID, tenantID).Scan(&current, &trackInventory, &allowOOS)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	newStock := current + in.Delta
	if newStock < 0 && !allowOOS {
		return nil, ErrInsufficientStock
	}

	if _, err := tx.Exec(ctx, `
		UPDATE products SET stock=$1, updated_at=now()
		WHERE id=$2 AND tenant_id=$3
	`, newStock, in.ProductID, tenantID); err != nil {
		return nil, err
	}

	if in.BranchID != nil {
		// Branch counters track their share of the total; the movement's
		// previous/new always refer to the product total.
		if _, err := tx.Exec(ctx, `
			INSERT INTO branch_stocks (tenant_id, product_id, branch_id, stock, updated_at)
			VALUES ($1,$2,$3,$4, now())
			ON CONFLICT (tenant_id, product_id, branch_id)
			DO UPDATE SET stock = branch_stocks.stock + $4, updated_at = now()
		`, tenantID, in.ProductID, *in.BranchID, in.Delta); err != nil {
			return nil, err
		}
	}

	mv := domain.StockMovement{
		TenantID:      tenantID,
		ProductID:     in.ProductID,
		BranchID:      in.BranchID,
		Type:          in.Type,
		Quantity:      in.Delta,
		PreviousStock: current,
		NewStock:      newStock,
		TransactionID: in.TransactionID,
		UserID:        in.UserID,
		Reason:        in.Reason,
		Notes:         in.Notes,
	}
	err = tx.QueryRow(ctx, `
		INSERT INTO stock_movements
			(tenant_id, product_id, branch_id, type, quantity, previous_stock, new_stock,
			 transaction_id, user_id, reason, notes, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11, now())
		RETURNING id, created_at
	`, tenantID, in.ProductID, in.BranchID, string(in.Type), in.Delta, current, newStock,
		in.TransactionID, in.UserID, in.Reason, in.Notes).Scan(&mv.ID, &mv.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &mv, nil
}

// LowStock returns products whose effective stock is at or below the
// threshold. Threshold precedence: explicit, tenant default, per-product
// reorder point. Branch-scoped when branchID is given.
func (r StockRepository) LowStock(ctx context.Context, tenantID int64, branchID *int64, threshold *int) ([]domain.Product, error) {
	var rows pgx.Rows
	var err error
	if branchID != nil {
		rows, err = r.DB.Pool.Query(ctx, `
			SELECT p.id, p.name, p.category_id, p.price, p.base_price, p.stock, bs.stock, p.reorder_point
			FROM products p
			JOIN branch_stocks bs ON bs.product_id = p.id AND bs.tenant_id = p.tenant_id
			LEFT JOIN tenant_settings s ON s.tenant_id = p.tenant_id
			WHERE p.tenant_id=$1 AND p.deleted_at IS NULL AND p.track_inventory
			  AND bs.branch_id=$2
			  AND bs.stock <= COALESCE($3, s.low_stock_threshold, p.reorder_point, 0)
			ORDER BY bs.stock ASC
		`, tenantID, *branchID, threshold)
	} else {
		rows, err = r.DB.Pool.Query(ctx, `
			SELECT p.id, p.name, p.category_id, p.price, p.base_price, p.stock, NULL::int, p.reorder_point
			FROM products p
			LEFT JOIN tenant_settings s ON s.tenant_id = p.tenant_id
			WHERE p.tenant_id=$1 AND p.deleted_at IS NULL AND p.track_inventory
			  AND p.stock <= COALESCE($2, s.low_stock_threshold, p.reorder_point, 0)
			ORDER BY p.stock ASC
		`, tenantID, threshold)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []domain.Product
	for rows.Next() {
		var p domain.Product
		var branchStock *int
		if err := rows.Scan(&p.ID, &p.Name, &p.CategoryID, &p.Price.Amount, &p.BasePrice.Amount, &p.Stock, &branchStock, &p.ReorderPoint); err != nil {
			return nil, err
		}
		p.TenantID = tenantID
		if branchID != nil && branchStock != nil {
			p.BranchStock = map[int64]int{*branchID: *branchStock}
		}
		items = append(items, p)
	}
	return items, rows.Err()
}

// Movements lists the ledger for a tenant, newest first, optionally scoped to
// one product and bounded by a time window.
func (r StockRepository) Movements(ctx context.Context, tenantID int64, productID *int64, since *time.Time, limit int) ([]domain.StockMovement, error) {
	if limit <= 0 || limit > 1000 {
		limit = 200
	}
	rows, err := r.DB.Pool.Query(ctx, `
		SELECT id, product_id, branch_id, type, quantity, previous_stock, new_stock,
		       transaction_id, user_id, reason, notes, created_at
		FROM stock_movements
		WHERE tenant_id=$1
		  AND ($2::bigint IS NULL OR product_id=$2)
		  AND ($3::timestamptz IS NULL OR created_at >= $3)
		ORDER BY created_at DESC, id DESC
		LIMIT $4
	`, tenantID, productID, since, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []domain.StockMovement
	for rows.Next() {
		var m domain.StockMovement
		var typ string
		if err := rows.Scan(&m.ID, &m.ProductID, &m.BranchID, &typ, &m.Quantity, &m.PreviousStock, &m.NewStock,
			&m.TransactionID, &m.UserID, &m.Reason, &m.Notes, &m.CreatedAt); err != nil {
			return nil, err
		}
		m.TenantID = tenantID
		m.Type = domain.MovementType(typ)
		items = append(items, m)
	}
	return items, rows.Err()
}
