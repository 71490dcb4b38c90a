package job

import (
	"context"
	"fmt"
	"time"

	"retailpos-backend/internal/domain"
	"retailpos-backend/internal/notify"
)

type ReminderParams struct {
	TenantID    *int64
	HoursBefore int
	Now         time.Time
}

// ReminderJob sends a one-time reminder for bookings starting inside the
// one-hour window [now+hoursBefore, now+hoursBefore+1h). The guard flag is
// flipped before the send; a transient provider failure on one booking
// counts as failed and the loop moves on.
type ReminderJob struct {
	Runner   *Runner
	Bookings BookingStore
	Notifier notify.Notifier
}

func (j ReminderJob) Run(ctx context.Context, p ReminderParams) (domain.JobRunResult, error) {
	if p.HoursBefore <= 0 {
		return domain.JobRunResult{}, fmt.Errorf("%w: hoursBefore must be positive", ErrBadParams)
	}
	now := p.Now
	if now.IsZero() {
		now = time.Now()
	}
	from := now.Add(time.Duration(p.HoursBefore) * time.Hour)
	to := from.Add(time.Hour)

	return j.Runner.Run(ctx, "booking-reminders", p.TenantID, func(ctx context.Context, tenantID int64) (TenantOutcome, error) {
		var out TenantOutcome
		upcoming, err := j.Bookings.ListUpcoming(ctx, tenantID, from, to)
		if err != nil {
			return out, fmt.Errorf("list upcoming bookings: %w", err)
		}
		for _, b := range upcoming {
			claimed, err := j.Bookings.MarkReminderSent(ctx, tenantID, b.ID)
			if err != nil {
				out.Failed++
				out.Errors = append(out.Errors, fmt.Sprintf("booking %d: %v", b.ID, err))
				continue
			}
			if !claimed {
				continue // another run already reminded
			}
			msg := notify.Message{
				TenantID: tenantID,
				Title:    "Upcoming booking",
				Body:     fmt.Sprintf("Reminder: %s at %s", b.ServiceName, b.StartTime.Format("15:04")),
				Data:     map[string]string{"bookingId": fmt.Sprint(b.ID)},
			}
			if err := sendWithRetry(ctx, j.Notifier, msg); err != nil {
				out.Failed++
				out.Errors = append(out.Errors, fmt.Sprintf("booking %d: send reminder: %v", b.ID, err))
				continue
			}
			out.Processed++
		}
		return out, nil
	})
}

// sendWithRetry retries one collaborator failure inline, per the error
// contract for external sends.
func sendWithRetry(ctx context.Context, n notify.Notifier, msg notify.Message) error {
	if err := n.Send(ctx, msg); err != nil {
		return n.Send(ctx, msg)
	}
	return nil
}
