package repository

import (
	"context"
	"errors"

	"retailpos-backend/internal/db"
	"retailpos-backend/internal/domain"

	"github.com/jackc/pgx/v5"
)

type DiscountRepository struct {
	DB *db.Postgres
}

// GetByCode matches a code case-insensitively within the tenant scope.
// Validity-window and limit checks belong to service.ValidateDiscount; this
// only filters inactive rules out.
func (r DiscountRepository) GetByCode(ctx context.Context, tenantID int64, code string) (*domain.DiscountRule, error) {
	var d domain.DiscountRule
	var typ string
	err := r.DB.Pool.QueryRow(ctx, `
		SELECT id, code, type, value, min_purchase_amount, max_discount_amount,
		       usage_limit, usage_count, valid_from, valid_until, is_active, created_at, updated_at
		FROM discount_rules
		WHERE tenant_id=$1 AND LOWER(code)=LOWER($2) AND is_active
	`, tenantID, code).Scan(&d.ID, &d.Code, &typ, &d.Value, &d.MinPurchaseAmount, &d.MaxDiscountAmount,
		&d.UsageLimit, &d.UsageCount, &d.ValidFrom, &d.ValidUntil, &d.IsActive, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInvalidCode
		}
		return nil, err
	}
	d.TenantID = tenantID
	d.Type = domain.DiscountType(typ)
	return &d, nil
}

// Redeem increments usage_count atomically. The limit check sits inside the
// UPDATE predicate, so two concurrent redemptions of a code with one use left
// cannot both succeed.
func (r DiscountRepository) Redeem(ctx context.Context, tenantID int64, code string) (int, error) {
	var count int
	err := r.DB.Pool.QueryRow(ctx, `
		UPDATE discount_rules
		SET usage_count = usage_count + 1, updated_at = now()
		WHERE tenant_id=$1 AND LOWER(code)=LOWER($2) AND is_active
		  AND (usage_limit IS NULL OR usage_count < usage_limit)
		RETURNING usage_count
	`, tenantID, code).Scan(&count)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Either the code is unknown or the limit is exhausted.
			if _, getErr := r.GetByCode(ctx, tenantID, code); getErr != nil {
				return 0, getErr
			}
			return 0, ErrLimitReached
		}
		return 0, err
	}
	return count, nil
}
