package job

import (
	"context"
	"fmt"
	"time"

	"retailpos-backend/internal/domain"
)

type AttendanceStore interface {
	ListForgotten(ctx context.Context, tenantID int64, before time.Time) ([]domain.Attendance, error)
	AutoClockOut(ctx context.Context, tenantID, attendanceID int64, at time.Time) (bool, error)
}

type DrawerStore interface {
	ListStaleOpen(ctx context.Context, tenantID int64, before time.Time) ([]domain.CashDrawerSession, error)
	AutoClose(ctx context.Context, tenantID, sessionID int64, at time.Time) (bool, error)
}

type ClockOutParams struct {
	TenantID     *int64
	GraceHours   int
	CloseDrawers bool
	Now          time.Time // zero means time.Now()
}

// ClockOutJob closes forgotten attendance sessions and, optionally, cash
// drawer sessions left open past the same grace period.
type ClockOutJob struct {
	Runner     *Runner
	Attendance AttendanceStore
	Drawers    DrawerStore
	Audit      AuditWriter
}

func (j ClockOutJob) Run(ctx context.Context, p ClockOutParams) (domain.JobRunResult, error) {
	if p.GraceHours <= 0 {
		return domain.JobRunResult{}, fmt.Errorf("%w: gracePeriodHours must be positive", ErrBadParams)
	}
	now := p.Now
	if now.IsZero() {
		now = time.Now()
	}
	cutoff := now.Add(-time.Duration(p.GraceHours) * time.Hour)

	return j.Runner.Run(ctx, "auto-clockout", p.TenantID, func(ctx context.Context, tenantID int64) (TenantOutcome, error) {
		var out TenantOutcome

		sessions, err := j.Attendance.ListForgotten(ctx, tenantID, cutoff)
		if err != nil {
			return out, fmt.Errorf("list forgotten sessions: %w", err)
		}
		for _, s := range sessions {
			updated, err := j.Attendance.AutoClockOut(ctx, tenantID, s.ID, now)
			if err != nil {
				out.Failed++
				out.Errors = append(out.Errors, fmt.Sprintf("attendance %d: %v", s.ID, err))
				continue
			}
			if !updated {
				continue // closed by a concurrent run
			}
			out.Processed++
			j.Audit.Write(ctx, tenantID, "auto_clock_out", "attendance", s.ID, map[string]any{
				"employee": s.EmployeeName,
				"clockIn":  s.ClockIn,
				"clockOut": now,
			})
		}

		if p.CloseDrawers && j.Drawers != nil {
			drawers, err := j.Drawers.ListStaleOpen(ctx, tenantID, cutoff)
			if err != nil {
				return out, fmt.Errorf("list stale drawers: %w", err)
			}
			for _, d := range drawers {
				closed, err := j.Drawers.AutoClose(ctx, tenantID, d.ID, now)
				if err != nil {
					out.Failed++
					out.Errors = append(out.Errors, fmt.Sprintf("drawer %d: %v", d.ID, err))
					continue
				}
				if !closed {
					continue
				}
				out.Processed++
				j.Audit.Write(ctx, tenantID, "auto_drawer_close", "cash_drawer_session", d.ID, map[string]any{
					"operator": d.OperatorName,
					"openedAt": d.OpenedAt,
				})
			}
		}
		return out, nil
	})
}
