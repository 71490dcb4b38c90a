package repository

import (
	"context"
	"errors"

	"retailpos-backend/internal/db"
	"retailpos-backend/internal/domain"

	"github.com/jackc/pgx/v5"
)

type ProductRepository struct {
	DB *db.Postgres
}

func (r ProductRepository) Get(ctx context.Context, tenantID, productID int64) (*domain.Product, error) {
	var p domain.Product
	err := r.DB.Pool.QueryRow(ctx, `
		SELECT id, name, category_id, price, base_price, currency, track_inventory, active,
		       stock, reorder_point, created_at, updated_at
		FROM products
		WHERE id=$1 AND tenant_id=$2 AND deleted_at IS NULL
	`, productID, tenantID).Scan(&p.ID, &p.Name, &p.CategoryID, &p.Price.Amount, &p.BasePrice.Amount,
		&p.Price.Currency, &p.TrackInventory, &p.Active, &p.Stock, &p.ReorderPoint, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	p.TenantID = tenantID
	p.BasePrice.Currency = p.Price.Currency
	return &p, nil
}

// ListActive returns sellable products for one tenant, used by the dynamic
// pricing job.
func (r ProductRepository) ListActive(ctx context.Context, tenantID int64) ([]domain.Product, error) {
	rows, err := r.DB.Pool.Query(ctx, `
		SELECT id, name, category_id, price, base_price, currency, track_inventory, active,
		       stock, reorder_point, created_at, updated_at
		FROM products
		WHERE tenant_id=$1 AND deleted_at IS NULL AND active
		ORDER BY id ASC
	`, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanProducts(rows, tenantID)
}

// ListTracked returns inventory-tracked products, used by replenishment.
func (r ProductRepository) ListTracked(ctx context.Context, tenantID int64) ([]domain.Product, error) {
	rows, err := r.DB.Pool.Query(ctx, `
		SELECT id, name, category_id, price, base_price, currency, track_inventory, active,
		       stock, reorder_point, created_at, updated_at
		FROM products
		WHERE tenant_id=$1 AND deleted_at IS NULL AND track_inventory
		ORDER BY id ASC
	`, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanProducts(rows, tenantID)
}

// UpdatePrice sets the effective price without touching base_price, so the
// pricing job can always recompute from the same baseline.
func (r ProductRepository) UpdatePrice(ctx context.Context, tenantID, productID int64, newPrice int64) error {
	tag, err := r.DB.Pool.Exec(ctx, `
		UPDATE products SET price=$1, updated_at=now()
		WHERE id=$2 AND tenant_id=$3 AND deleted_at IS NULL
	`, newPrice, productID, tenantID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanProducts(rows pgx.Rows, tenantID int64) ([]domain.Product, error) {
	var items []domain.Product
	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.CategoryID, &p.Price.Amount, &p.BasePrice.Amount,
			&p.Price.Currency, &p.TrackInventory, &p.Active, &p.Stock, &p.ReorderPoint, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		p.TenantID = tenantID
		p.BasePrice.Currency = p.Price.Currency
		items = append(items, p)
	}
	return items, rows.Err()
}
