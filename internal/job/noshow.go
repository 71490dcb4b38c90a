package job

import (
	"context"
	"fmt"
	"time"

	"retailpos-backend/internal/domain"
)

type BookingStore interface {
	ListOverdue(ctx context.Context, tenantID int64, before time.Time) ([]domain.Booking, error)
	ListUpcoming(ctx context.Context, tenantID int64, from, to time.Time) ([]domain.Booking, error)
	MarkNoShow(ctx context.Context, tenantID, bookingID int64) (bool, error)
	MarkReminderSent(ctx context.Context, tenantID, bookingID int64) (bool, error)
}

type NoShowParams struct {
	TenantID     *int64
	GraceMinutes int
	Now          time.Time
}

// NoShowJob marks pending/confirmed bookings no_show once their start time
// plus the grace window has elapsed without a check-in. The status transition
// is the idempotence guard: a re-run over the same window finds nothing.
type NoShowJob struct {
	Runner   *Runner
	Bookings BookingStore
	Audit    AuditWriter
}

func (j NoShowJob) Run(ctx context.Context, p NoShowParams) (domain.JobRunResult, error) {
	if p.GraceMinutes <= 0 {
		return domain.JobRunResult{}, fmt.Errorf("%w: gracePeriodMinutes must be positive", ErrBadParams)
	}
	now := p.Now
	if now.IsZero() {
		now = time.Now()
	}
	cutoff := now.Add(-time.Duration(p.GraceMinutes) * time.Minute)

	return j.Runner.Run(ctx, "no-show", p.TenantID, func(ctx context.Context, tenantID int64) (TenantOutcome, error) {
		var out TenantOutcome
		overdue, err := j.Bookings.ListOverdue(ctx, tenantID, cutoff)
		if err != nil {
			return out, fmt.Errorf("list overdue bookings: %w", err)
		}
		for _, b := range overdue {
			changed, err := j.Bookings.MarkNoShow(ctx, tenantID, b.ID)
			if err != nil {
				out.Failed++
				out.Errors = append(out.Errors, fmt.Sprintf("booking %d: %v", b.ID, err))
				continue
			}
			if !changed {
				continue
			}
			out.Processed++
			j.Audit.Write(ctx, tenantID, "no_show", "booking", b.ID, map[string]any{
				"from":      string(b.Status),
				"to":        string(domain.BookingNoShow),
				"startTime": b.StartTime,
			})
		}
		return out, nil
	})
}
