package job

import (
	"context"
	"fmt"
	"math"
	"time"

	"retailpos-backend/internal/domain"
)

type ProductStore interface {
	ListActive(ctx context.Context, tenantID int64) ([]domain.Product, error)
	ListTracked(ctx context.Context, tenantID int64) ([]domain.Product, error)
	UpdatePrice(ctx context.Context, tenantID, productID int64, newPrice int64) error
}

type SalesReader interface {
	UnitsSold(ctx context.Context, tenantID int64, since time.Time) (map[int64]int, error)
}

type PricingParams struct {
	TenantID *int64

	EnableTimeBased   bool
	EnableDemandBased bool
	EnableStockBased  bool

	// Time-of-day window and multiplier, local hours [PeakStartHour, PeakEndHour).
	PeakStartHour  int
	PeakEndHour    int
	PeakMultiplier float64

	// Demand window and multipliers derived from recent sale velocity.
	DemandWindowDays     int
	HighDemandUnits      int
	HighDemandMultiplier float64
	SlowDemandMultiplier float64

	// Stock-ratio multipliers relative to the reorder point.
	ScarcityMultiplier  float64
	OverstockFactor     int
	OverstockMultiplier float64

	// Clamp band for the composed multiplier.
	MinMultiplier float64
	MaxMultiplier float64

	Now time.Time
}

// ApplyDefaults fills zero-valued knobs so a bare trigger call behaves.
func (p *PricingParams) ApplyDefaults(minBand, maxBand float64) {
	if p.PeakEndHour == 0 && p.PeakStartHour == 0 {
		p.PeakStartHour, p.PeakEndHour = 17, 21
	}
	if p.PeakMultiplier == 0 {
		p.PeakMultiplier = 1.1
	}
	if p.DemandWindowDays == 0 {
		p.DemandWindowDays = 7
	}
	if p.HighDemandUnits == 0 {
		p.HighDemandUnits = 20
	}
	if p.HighDemandMultiplier == 0 {
		p.HighDemandMultiplier = 1.15
	}
	if p.SlowDemandMultiplier == 0 {
		p.SlowDemandMultiplier = 0.95
	}
	if p.ScarcityMultiplier == 0 {
		p.ScarcityMultiplier = 1.2
	}
	if p.OverstockFactor == 0 {
		p.OverstockFactor = 4
	}
	if p.OverstockMultiplier == 0 {
		p.OverstockMultiplier = 0.9
	}
	if p.MinMultiplier == 0 {
		p.MinMultiplier = minBand
	}
	if p.MaxMultiplier == 0 {
		p.MaxMultiplier = maxBand
	}
}

// PricingJob recomputes effective prices from each product's base price. The
// three multipliers are independently gated, compose multiplicatively, and
// the product is clamped to the configured band. Recomputation from base
// price makes the job idempotent: equal inputs give equal prices and an
// unchanged price writes nothing.
type PricingJob struct {
	Runner   *Runner
	Products ProductStore
	Sales    SalesReader
	Audit    AuditWriter
}

func (j PricingJob) Run(ctx context.Context, p PricingParams) (domain.JobRunResult, error) {
	if !p.EnableTimeBased && !p.EnableDemandBased && !p.EnableStockBased {
		return domain.JobRunResult{}, fmt.Errorf("%w: at least one pricing strategy must be enabled", ErrBadParams)
	}
	if p.MinMultiplier <= 0 || p.MaxMultiplier < p.MinMultiplier {
		return domain.JobRunResult{}, fmt.Errorf("%w: invalid multiplier band", ErrBadParams)
	}
	now := p.Now
	if now.IsZero() {
		now = time.Now()
	}

	return j.Runner.Run(ctx, "dynamic-pricing", p.TenantID, func(ctx context.Context, tenantID int64) (TenantOutcome, error) {
		var out TenantOutcome
		products, err := j.Products.ListActive(ctx, tenantID)
		if err != nil {
			return out, fmt.Errorf("list products: %w", err)
		}

		var sold map[int64]int
		if p.EnableDemandBased {
			since := now.AddDate(0, 0, -p.DemandWindowDays)
			sold, err = j.Sales.UnitsSold(ctx, tenantID, since)
			if err != nil {
				return out, fmt.Errorf("read sale velocity: %w", err)
			}
		}

		for _, prod := range products {
			if prod.BasePrice.Amount <= 0 {
				continue
			}
			mult := ComposeMultiplier(p, now, prod, sold[prod.ID])
			newPrice := int64(math.Round(float64(prod.BasePrice.Amount) * mult))
			if newPrice == prod.Price.Amount {
				continue
			}
			if err := j.Products.UpdatePrice(ctx, tenantID, prod.ID, newPrice); err != nil {
				out.Failed++
				out.Errors = append(out.Errors, fmt.Sprintf("product %d: %v", prod.ID, err))
				continue
			}
			out.Processed++
			// Price changes are audited, never written to the stock ledger.
			j.Audit.Write(ctx, tenantID, "price_change", "product", prod.ID, map[string]any{
				"oldPrice":   prod.Price.Amount,
				"newPrice":   newPrice,
				"multiplier": mult,
			})
		}
		return out, nil
	})
}

// ComposeMultiplier combines the gated multipliers and clamps the product to
// the band. Exported for the pricing property tests.
func ComposeMultiplier(p PricingParams, now time.Time, prod domain.Product, unitsSold int) float64 {
	mult := 1.0
	if p.EnableTimeBased {
		hour := now.Hour()
		if hour >= p.PeakStartHour && hour < p.PeakEndHour {
			mult *= p.PeakMultiplier
		}
	}
	if p.EnableDemandBased {
		switch {
		case unitsSold >= p.HighDemandUnits:
			mult *= p.HighDemandMultiplier
		case unitsSold == 0:
			mult *= p.SlowDemandMultiplier
		}
	}
	if p.EnableStockBased && prod.TrackInventory && prod.ReorderPoint != nil && *prod.ReorderPoint > 0 {
		switch {
		case prod.Stock <= *prod.ReorderPoint:
			mult *= p.ScarcityMultiplier
		case prod.Stock >= p.OverstockFactor*(*prod.ReorderPoint):
			mult *= p.OverstockMultiplier
		}
	}
	if mult < p.MinMultiplier {
		mult = p.MinMultiplier
	}
	if mult > p.MaxMultiplier {
		mult = p.MaxMultiplier
	}
	return mult
}
