package job

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"retailpos-backend/internal/domain"
)

type mockBookings struct {
	mu       sync.Mutex
	overdue  []domain.Booking
	upcoming []domain.Booking
	noShow   map[int64]bool
	reminded map[int64]bool
	markErr  error
}

func (m *mockBookings) ListOverdue(_ context.Context, _ int64, _ time.Time) ([]domain.Booking, error) {
	return m.overdue, nil
}

func (m *mockBookings) ListUpcoming(_ context.Context, _ int64, _, _ time.Time) ([]domain.Booking, error) {
	return m.upcoming, nil
}

func (m *mockBookings) MarkNoShow(_ context.Context, _, bookingID int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.markErr != nil {
		return false, m.markErr
	}
	if m.noShow == nil {
		m.noShow = make(map[int64]bool)
	}
	if m.noShow[bookingID] {
		return false, nil
	}
	m.noShow[bookingID] = true
	return true, nil
}

func (m *mockBookings) MarkReminderSent(_ context.Context, _, bookingID int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.reminded == nil {
		m.reminded = make(map[int64]bool)
	}
	if m.reminded[bookingID] {
		return false, nil
	}
	m.reminded[bookingID] = true
	return true, nil
}

func TestNoShowJob_MarksOverdue(t *testing.T) {
	bookings := &mockBookings{overdue: []domain.Booking{
		{ID: 1, Status: domain.BookingPending},
		{ID: 2, Status: domain.BookingConfirmed},
	}}
	audit := &memAudit{}
	j := NoShowJob{Runner: testRunner(1), Bookings: bookings, Audit: audit}

	res, err := j.Run(context.Background(), NoShowParams{TenantID: ptr(1), GraceMinutes: 15})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Processed != 2 {
		t.Errorf("expected 2 bookings marked, got %d", res.Processed)
	}
	if got := audit.actions(); len(got) != 2 || got[0] != "no_show" {
		t.Errorf("expected two no_show audit entries, got %v", got)
	}
}

func TestNoShowJob_RerunIsNoop(t *testing.T) {
	bookings := &mockBookings{overdue: []domain.Booking{{ID: 1, Status: domain.BookingPending}}}
	j := NoShowJob{Runner: testRunner(1), Bookings: bookings, Audit: &memAudit{}}
	p := NoShowParams{TenantID: ptr(1), GraceMinutes: 15}

	first, err := j.Run(context.Background(), p)
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	second, err := j.Run(context.Background(), p)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if first.Processed != 1 || second.Processed != 0 {
		t.Errorf("expected 1 then 0 processed, got %d then %d", first.Processed, second.Processed)
	}
}

func TestNoShowJob_InvalidGrace(t *testing.T) {
	j := NoShowJob{Runner: testRunner(1), Bookings: &mockBookings{}, Audit: &memAudit{}}
	_, err := j.Run(context.Background(), NoShowParams{GraceMinutes: 0})
	if !errors.Is(err, ErrBadParams) {
		t.Errorf("expected ErrBadParams, got %v", err)
	}
}

func TestNoShowJob_EntityFailureContinues(t *testing.T) {
	bookings := &mockBookings{
		overdue: []domain.Booking{{ID: 1}, {ID: 2}},
		markErr: errors.New("deadlock"),
	}
	j := NoShowJob{Runner: testRunner(1), Bookings: bookings, Audit: &memAudit{}}

	res, err := j.Run(context.Background(), NoShowParams{TenantID: ptr(1), GraceMinutes: 15})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Failed != 2 || res.Processed != 0 {
		t.Errorf("expected both bookings failed, got %+v", res)
	}
}
