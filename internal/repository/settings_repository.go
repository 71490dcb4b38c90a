package repository

import (
	"context"
	"errors"

	"retailpos-backend/internal/db"
	"retailpos-backend/internal/domain"

	"github.com/jackc/pgx/v5"
)

type SettingsRepository struct {
	DB *db.Postgres
}

// Get loads tenant settings with server-side defaults. A tenant without a
// settings row gets the defaults rather than an error; jobs never have to
// handle a missing document.
func (r SettingsRepository) Get(ctx context.Context, tenantID int64) (*domain.TenantSettings, error) {
	s := defaultSettings(tenantID)
	var policy string
	err := r.DB.Pool.QueryRow(ctx, `
		SELECT tax_enabled, tax_rate, tax_label, allow_out_of_stock_sales, low_stock_threshold,
		       notifications, conflict_policy, price_min_multiplier, price_max_multiplier,
		       currency_code, updated_at
		FROM tenant_settings
		WHERE tenant_id=$1
	`, tenantID).Scan(&s.TaxEnabled, &s.TaxRate, &s.TaxLabel, &s.AllowOutOfStockSales, &s.LowStockThreshold,
		&s.Notifications, &policy, &s.PriceMinMultiplier, &s.PriceMaxMultiplier, &s.CurrencyCode, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &s, nil
		}
		return nil, err
	}
	if p := domain.ConflictPolicy(policy); p == domain.ConflictManual {
		s.ConflictPolicy = p
	}
	if s.PriceMinMultiplier <= 0 || s.PriceMaxMultiplier < s.PriceMinMultiplier {
		s.PriceMinMultiplier, s.PriceMaxMultiplier = 0.5, 2.0
	}
	return &s, nil
}

func (r SettingsRepository) Save(ctx context.Context, s domain.TenantSettings) (*domain.TenantSettings, error) {
	err := r.DB.Pool.QueryRow(ctx, `
		INSERT INTO tenant_settings
			(tenant_id, tax_enabled, tax_rate, tax_label, allow_out_of_stock_sales, low_stock_threshold,
			 notifications, conflict_policy, price_min_multiplier, price_max_multiplier, currency_code, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11, now())
		ON CONFLICT (tenant_id) DO UPDATE SET
			tax_enabled=EXCLUDED.tax_enabled,
			tax_rate=EXCLUDED.tax_rate,
			tax_label=EXCLUDED.tax_label,
			allow_out_of_stock_sales=EXCLUDED.allow_out_of_stock_sales,
			low_stock_threshold=EXCLUDED.low_stock_threshold,
			notifications=EXCLUDED.notifications,
			conflict_policy=EXCLUDED.conflict_policy,
			price_min_multiplier=EXCLUDED.price_min_multiplier,
			price_max_multiplier=EXCLUDED.price_max_multiplier,
			currency_code=EXCLUDED.currency_code,
			updated_at=now()
		RETURNING updated_at
	`, s.TenantID, s.TaxEnabled, s.TaxRate, s.TaxLabel, s.AllowOutOfStockSales, s.LowStockThreshold,
		s.Notifications, string(s.ConflictPolicy), s.PriceMinMultiplier, s.PriceMaxMultiplier, s.CurrencyCode).Scan(&s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func defaultSettings(tenantID int64) domain.TenantSettings {
	return domain.TenantSettings{
		TenantID:           tenantID,
		TaxEnabled:         false,
		LowStockThreshold:  5,
		Notifications:      true,
		ConflictPolicy:     domain.ConflictLastWriteWins,
		PriceMinMultiplier: 0.5,
		PriceMaxMultiplier: 2.0,
		CurrencyCode:       "IDR",
	}
}
