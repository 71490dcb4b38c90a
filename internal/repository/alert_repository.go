package repository

import (
	"context"
	"time"

	"retailpos-backend/internal/db"
	"retailpos-backend/internal/domain"

	"github.com/google/uuid"
)

type AlertRepository struct {
	DB *db.Postgres
}

// Create writes a security alert, at most one per actor per detection window.
// The unique index on (tenant_id, actor, period_start) is the guard; a
// duplicate insert reports false rather than an error.
func (r AlertRepository) Create(ctx context.Context, tenantID int64, a domain.SecurityAlert) (bool, error) {
	_, err := r.DB.Pool.Exec(ctx, `
		INSERT INTO security_alerts
			(id, tenant_id, actor, reason, refunds, voids, discounts, failed_logins, period_start, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9, now())
	`, uuid.NewString(), tenantID, a.Actor, a.Reason, a.Refunds, a.Voids, a.Discounts, a.FailedLogins, a.PeriodStart)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (r AlertRepository) List(ctx context.Context, tenantID int64, since time.Time, limit int) ([]domain.SecurityAlert, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.DB.Pool.Query(ctx, `
		SELECT id, actor, reason, refunds, voids, discounts, failed_logins, period_start, created_at
		FROM security_alerts
		WHERE tenant_id=$1 AND created_at >= $2
		ORDER BY created_at DESC
		LIMIT $3
	`, tenantID, since, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.SecurityAlert
	for rows.Next() {
		var a domain.SecurityAlert
		if err := rows.Scan(&a.ID, &a.Actor, &a.Reason, &a.Refunds, &a.Voids, &a.Discounts, &a.FailedLogins, &a.PeriodStart, &a.CreatedAt); err != nil {
			return nil, err
		}
		a.TenantID = tenantID
		out = append(out, a)
	}
	return out, rows.Err()
}
