package job

import (
	"context"
	"fmt"
	"strings"
	"time"

	"retailpos-backend/internal/domain"
	"retailpos-backend/internal/repository"
)

type ActivityReader interface {
	ActorCounts(ctx context.Context, tenantID int64, since time.Time) ([]repository.ActorActivity, error)
}

type AlertWriter interface {
	Create(ctx context.Context, tenantID int64, a domain.SecurityAlert) (bool, error)
}

type SuspiciousParams struct {
	TenantID    *int64
	WindowHours int

	RefundThreshold      int
	VoidThreshold        int
	DiscountThreshold    int
	FailedLoginThreshold int

	Now time.Time
}

// SuspiciousJob flags actors whose refund/void/discount/failed-login counts
// exceed the thresholds over the trailing window. It only writes alerts,
// never business data; one alert per actor per window start.
type SuspiciousJob struct {
	Runner   *Runner
	Activity ActivityReader
	Alerts   AlertWriter
}

func (j SuspiciousJob) Run(ctx context.Context, p SuspiciousParams) (domain.JobRunResult, error) {
	if p.WindowHours <= 0 {
		return domain.JobRunResult{}, fmt.Errorf("%w: windowHours must be positive", ErrBadParams)
	}
	if p.RefundThreshold <= 0 || p.VoidThreshold <= 0 || p.DiscountThreshold <= 0 || p.FailedLoginThreshold <= 0 {
		return domain.JobRunResult{}, fmt.Errorf("%w: thresholds must be positive", ErrBadParams)
	}
	now := p.Now
	if now.IsZero() {
		now = time.Now()
	}
	// Window start is truncated to the hour so re-runs inside the same hour
	// map to the same alert row.
	periodStart := now.Add(-time.Duration(p.WindowHours) * time.Hour).Truncate(time.Hour)

	return j.Runner.Run(ctx, "suspicious-activity", p.TenantID, func(ctx context.Context, tenantID int64) (TenantOutcome, error) {
		var out TenantOutcome
		actors, err := j.Activity.ActorCounts(ctx, tenantID, periodStart)
		if err != nil {
			return out, fmt.Errorf("read actor activity: %w", err)
		}
		for _, a := range actors {
			reasons := flagActor(a, p)
			if len(reasons) == 0 {
				continue
			}
			created, err := j.Alerts.Create(ctx, tenantID, domain.SecurityAlert{
				Actor:        a.Actor,
				Reason:       strings.Join(reasons, "; "),
				Refunds:      a.Refunds,
				Voids:        a.Voids,
				Discounts:    a.Discounts,
				FailedLogins: a.FailedLogins,
				PeriodStart:  periodStart,
			})
			if err != nil {
				out.Failed++
				out.Errors = append(out.Errors, fmt.Sprintf("actor %s: %v", a.Actor, err))
				continue
			}
			if created {
				out.Processed++
			}
		}
		return out, nil
	})
}

func flagActor(a repository.ActorActivity, p SuspiciousParams) []string {
	var reasons []string
	if a.Refunds >= p.RefundThreshold {
		reasons = append(reasons, fmt.Sprintf("%d refunds", a.Refunds))
	}
	if a.Voids >= p.VoidThreshold {
		reasons = append(reasons, fmt.Sprintf("%d voids", a.Voids))
	}
	if a.Discounts >= p.DiscountThreshold {
		reasons = append(reasons, fmt.Sprintf("%d discounts applied", a.Discounts))
	}
	if a.FailedLogins >= p.FailedLoginThreshold {
		reasons = append(reasons, fmt.Sprintf("%d failed logins", a.FailedLogins))
	}
	return reasons
}
