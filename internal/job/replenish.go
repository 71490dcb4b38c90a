package job

import (
	"context"
	"fmt"
	"math"
	"time"

	"retailpos-backend/internal/domain"
)

type PurchaseOrderStore interface {
	InTransit(ctx context.Context, tenantID int64) (map[int64]int, error)
	CreateSuggestion(ctx context.Context, tenantID int64, po domain.PurchaseOrder) (bool, error)
}

type ReplenishParams struct {
	TenantID       *int64
	AnalysisDays   int
	PredictionDays int
	AutoCreate     bool
	Now            time.Time
}

// ReplenishJob projects consumption from trailing sales and suggests purchase
// orders where projected need exceeds current stock plus in-transit orders.
// The open-suggestion guard in the store keeps re-runs from duplicating.
type ReplenishJob struct {
	Runner   *Runner
	Products ProductStore
	Sales    SalesReader
	Orders   PurchaseOrderStore
	Audit    AuditWriter
}

func (j ReplenishJob) Run(ctx context.Context, p ReplenishParams) (domain.JobRunResult, error) {
	if p.AnalysisDays <= 0 || p.PredictionDays <= 0 {
		return domain.JobRunResult{}, fmt.Errorf("%w: analysisDays and predictionDays must be positive", ErrBadParams)
	}
	now := p.Now
	if now.IsZero() {
		now = time.Now()
	}
	since := now.AddDate(0, 0, -p.AnalysisDays)

	return j.Runner.Run(ctx, "replenishment", p.TenantID, func(ctx context.Context, tenantID int64) (TenantOutcome, error) {
		var out TenantOutcome

		products, err := j.Products.ListTracked(ctx, tenantID)
		if err != nil {
			return out, fmt.Errorf("list tracked products: %w", err)
		}
		sold, err := j.Sales.UnitsSold(ctx, tenantID, since)
		if err != nil {
			return out, fmt.Errorf("read trailing sales: %w", err)
		}
		inTransit, err := j.Orders.InTransit(ctx, tenantID)
		if err != nil {
			return out, fmt.Errorf("read in-transit orders: %w", err)
		}

		for _, prod := range products {
			need := ProjectedNeed(sold[prod.ID], p.AnalysisDays, p.PredictionDays)
			available := prod.Stock + inTransit[prod.ID]
			if available >= need {
				continue
			}
			qty := need - available
			if !p.AutoCreate {
				// Suggestion only: surface via audit, leave ordering to a human.
				out.Processed++
				j.Audit.Write(ctx, tenantID, "replenish_suggested", "product", prod.ID, map[string]any{
					"quantity":  qty,
					"projected": need,
					"available": available,
				})
				continue
			}
			created, err := j.Orders.CreateSuggestion(ctx, tenantID, domain.PurchaseOrder{
				ProductID: prod.ID,
				Quantity:  qty,
				Status:    domain.PurchaseOrderSuggested,
				Note: fmt.Sprintf("sold %d in %dd, projected need %d over %dd, available %d",
					sold[prod.ID], p.AnalysisDays, need, p.PredictionDays, available),
			})
			if err != nil {
				out.Failed++
				out.Errors = append(out.Errors, fmt.Sprintf("product %d: %v", prod.ID, err))
				continue
			}
			if !created {
				continue // an open suggestion already covers this product
			}
			out.Processed++
			j.Audit.Write(ctx, tenantID, "replenish_suggested", "product", prod.ID, map[string]any{
				"quantity":  qty,
				"projected": need,
				"available": available,
			})
		}
		return out, nil
	})
}

// ProjectedNeed extrapolates the trailing consumption rate over the
// prediction horizon, rounded up.
func ProjectedNeed(unitsSold, analysisDays, predictionDays int) int {
	if unitsSold <= 0 {
		return 0
	}
	rate := float64(unitsSold) / float64(analysisDays)
	return int(math.Ceil(rate * float64(predictionDays)))
}
