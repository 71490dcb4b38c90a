package repository

import (
	"context"

	"retailpos-backend/internal/db"
	"retailpos-backend/internal/domain"
)

type TaxRepository struct {
	DB *db.Postgres
}

// ListActive returns the tenant's active tax rules ordered by priority
// descending, id ascending as the stable tie-break. The resolver takes the
// first applicable rule, so the ordering here is what makes resolution
// deterministic.
func (r TaxRepository) ListActive(ctx context.Context, tenantID int64) ([]domain.TaxRule, error) {
	rows, err := r.DB.Pool.Query(ctx, `
		SELECT id, rate, label, applies_to, category_ids, product_ids, priority, created_at, updated_at
		FROM tax_rules
		WHERE tenant_id=$1 AND is_active
		ORDER BY priority DESC, id ASC
	`, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []domain.TaxRule
	for rows.Next() {
		var t domain.TaxRule
		var scope string
		if err := rows.Scan(&t.ID, &t.Rate, &t.Label, &scope, &t.CategoryIDs, &t.ProductIDs, &t.Priority, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, err
		}
		t.TenantID = tenantID
		t.AppliesTo = domain.TaxScope(scope)
		t.IsActive = true
		items = append(items, t)
	}
	return items, rows.Err()
}
