package job

import (
	"context"
	"fmt"
	"time"

	"retailpos-backend/internal/domain"
	"retailpos-backend/internal/notify"
)

type CartStore interface {
	ListAbandoned(ctx context.Context, tenantID int64, idleSince time.Time) ([]domain.SavedCart, error)
	MarkReminded(ctx context.Context, tenantID, cartID int64) (bool, error)
}

type AbandonedCartParams struct {
	TenantID *int64
	HoursAgo int
	Now      time.Time
}

// AbandonedCartJob reminds owners of carts idle past the threshold, once per
// cart.
type AbandonedCartJob struct {
	Runner   *Runner
	Carts    CartStore
	Notifier notify.Notifier
}

func (j AbandonedCartJob) Run(ctx context.Context, p AbandonedCartParams) (domain.JobRunResult, error) {
	if p.HoursAgo <= 0 {
		return domain.JobRunResult{}, fmt.Errorf("%w: hoursAgo must be positive", ErrBadParams)
	}
	now := p.Now
	if now.IsZero() {
		now = time.Now()
	}
	cutoff := now.Add(-time.Duration(p.HoursAgo) * time.Hour)

	return j.Runner.Run(ctx, "abandoned-cart", p.TenantID, func(ctx context.Context, tenantID int64) (TenantOutcome, error) {
		var out TenantOutcome
		carts, err := j.Carts.ListAbandoned(ctx, tenantID, cutoff)
		if err != nil {
			return out, fmt.Errorf("list abandoned carts: %w", err)
		}
		for _, c := range carts {
			claimed, err := j.Carts.MarkReminded(ctx, tenantID, c.ID)
			if err != nil {
				out.Failed++
				out.Errors = append(out.Errors, fmt.Sprintf("cart %d: %v", c.ID, err))
				continue
			}
			if !claimed {
				continue
			}
			msg := notify.Message{
				TenantID: tenantID,
				Title:    "You left something behind",
				Body:     fmt.Sprintf("Your saved cart with %d item(s) is waiting.", c.ItemCount),
				Data:     map[string]string{"cartId": fmt.Sprint(c.ID)},
			}
			if err := sendWithRetry(ctx, j.Notifier, msg); err != nil {
				out.Failed++
				out.Errors = append(out.Errors, fmt.Sprintf("cart %d: send reminder: %v", c.ID, err))
				continue
			}
			out.Processed++
		}
		return out, nil
	})
}
