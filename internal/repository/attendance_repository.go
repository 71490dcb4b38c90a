package repository

import (
	"context"
	"time"

	"retailpos-backend/internal/db"
	"retailpos-backend/internal/domain"
)

type AttendanceRepository struct {
	DB *db.Postgres
}

func (r AttendanceRepository) ClockIn(ctx context.Context, tenantID int64, name string, employeeID *int64) error {
	today := time.Now().Format("2006-01-02")
	_, err := r.DB.Pool.Exec(ctx, `
		INSERT INTO attendance (tenant_id, employee_id, employee_name, attendance_date, clock_in, created_at)
		VALUES ($1,$2,$3,$4, now(), now())
		ON CONFLICT (tenant_id, employee_name, attendance_date)
		DO UPDATE SET clock_in = EXCLUDED.clock_in
	`, tenantID, employeeID, name, today)
	return err
}

func (r AttendanceRepository) ClockOut(ctx context.Context, tenantID int64, name string, employeeID *int64) error {
	today := time.Now().Format("2006-01-02")
	_, err := r.DB.Pool.Exec(ctx, `
		INSERT INTO attendance (tenant_id, employee_id, employee_name, attendance_date, clock_out, created_at)
		VALUES ($1,$2,$3,$4, now(), now())
		ON CONFLICT (tenant_id, employee_name, attendance_date)
		DO UPDATE SET clock_out = EXCLUDED.clock_out
	`, tenantID, employeeID, name, today)
	return err
}

// ListForgotten returns open sessions whose clock-in predates the cut-off,
// the auto clock-out candidates.
func (r AttendanceRepository) ListForgotten(ctx context.Context, tenantID int64, before time.Time) ([]domain.Attendance, error) {
	rows, err := r.DB.Pool.Query(ctx, `
		SELECT id, employee_id, employee_name, attendance_date, clock_in, clock_out, auto_clock_out, created_at
		FROM attendance
		WHERE tenant_id=$1 AND clock_out IS NULL AND clock_in IS NOT NULL AND clock_in < $2
		ORDER BY clock_in ASC
	`, tenantID, before)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []domain.Attendance
	for rows.Next() {
		var a domain.Attendance
		if err := rows.Scan(&a.ID, &a.EmployeeID, &a.EmployeeName, &a.Date, &a.ClockIn, &a.ClockOut, &a.AutoClockOut, &a.CreatedAt); err != nil {
			return nil, err
		}
		a.TenantID = tenantID
		items = append(items, a)
	}
	return items, rows.Err()
}

// AutoClockOut closes one forgotten session and flags it. The clock_out IS
// NULL predicate keeps re-runs from touching rows a previous run closed.
func (r AttendanceRepository) AutoClockOut(ctx context.Context, tenantID, attendanceID int64, at time.Time) (bool, error) {
	tag, err := r.DB.Pool.Exec(ctx, `
		UPDATE attendance SET clock_out=$1, auto_clock_out=TRUE
		WHERE id=$2 AND tenant_id=$3 AND clock_out IS NULL
	`, at, attendanceID, tenantID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
