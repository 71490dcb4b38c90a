package repository

import (
	"context"
	"time"

	"retailpos-backend/internal/db"
	"retailpos-backend/internal/domain"

	"github.com/jackc/pgx/v5"
)

type BookingRepository struct {
	DB *db.Postgres
}

// ListOverdue returns pending/confirmed bookings whose start time passed
// before the cut-off, the no-show candidates.
func (r BookingRepository) ListOverdue(ctx context.Context, tenantID int64, before time.Time) ([]domain.Booking, error) {
	rows, err := r.DB.Pool.Query(ctx, `
		SELECT id, customer_id, customer_name, contact, service_name, start_time, status, reminder_sent, created_at, updated_at
		FROM bookings
		WHERE tenant_id=$1 AND status IN ('pending','confirmed') AND start_time < $2
		ORDER BY start_time ASC
	`, tenantID, before)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanBookings(rows, tenantID)
}

// ListUpcoming returns unreminded pending/confirmed bookings starting inside
// [from, to).
func (r BookingRepository) ListUpcoming(ctx context.Context, tenantID int64, from, to time.Time) ([]domain.Booking, error) {
	rows, err := r.DB.Pool.Query(ctx, `
		SELECT id, customer_id, customer_name, contact, service_name, start_time, status, reminder_sent, created_at, updated_at
		FROM bookings
		WHERE tenant_id=$1 AND status IN ('pending','confirmed')
		  AND start_time >= $2 AND start_time < $3
		  AND NOT reminder_sent
		ORDER BY start_time ASC
	`, tenantID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanBookings(rows, tenantID)
}

// MarkNoShow transitions pending/confirmed to no_show. The status predicate
// makes the transition idempotent: a second run reports false, not an error.
func (r BookingRepository) MarkNoShow(ctx context.Context, tenantID, bookingID int64) (bool, error) {
	tag, err := r.DB.Pool.Exec(ctx, `
		UPDATE bookings SET status='no_show', updated_at=now()
		WHERE id=$1 AND tenant_id=$2 AND status IN ('pending','confirmed')
	`, bookingID, tenantID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// MarkReminderSent flips the guard flag; false means another run got there
// first.
func (r BookingRepository) MarkReminderSent(ctx context.Context, tenantID, bookingID int64) (bool, error) {
	tag, err := r.DB.Pool.Exec(ctx, `
		UPDATE bookings SET reminder_sent=TRUE, updated_at=now()
		WHERE id=$1 AND tenant_id=$2 AND NOT reminder_sent
	`, bookingID, tenantID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func scanBookings(rows pgx.Rows, tenantID int64) ([]domain.Booking, error) {
	var items []domain.Booking
	for rows.Next() {
		var b domain.Booking
		var status string
		if err := rows.Scan(&b.ID, &b.CustomerID, &b.CustomerName, &b.Contact, &b.ServiceName,
			&b.StartTime, &status, &b.ReminderSent, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, err
		}
		b.TenantID = tenantID
		b.Status = domain.BookingStatus(status)
		items = append(items, b)
	}
	return items, rows.Err()
}
