package job

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"retailpos-backend/internal/domain"
	"retailpos-backend/internal/notify"
)

type mockNotifier struct {
	mu       sync.Mutex
	sent     []notify.Message
	failures int // fail this many sends before succeeding
}

func (m *mockNotifier) Send(_ context.Context, msg notify.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failures > 0 {
		m.failures--
		return errors.New("provider timeout")
	}
	m.sent = append(m.sent, msg)
	return nil
}

func TestReminderJob_SendsOnce(t *testing.T) {
	start := time.Now().Add(24 * time.Hour)
	bookings := &mockBookings{upcoming: []domain.Booking{
		{ID: 1, ServiceName: "Haircut", StartTime: start},
	}}
	n := &mockNotifier{}
	j := ReminderJob{Runner: testRunner(1), Bookings: bookings, Notifier: n}
	p := ReminderParams{TenantID: ptr(1), HoursBefore: 24}

	first, err := j.Run(context.Background(), p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, _ := j.Run(context.Background(), p)

	if first.Processed != 1 || second.Processed != 0 {
		t.Errorf("expected one reminder total, got %d then %d", first.Processed, second.Processed)
	}
	if len(n.sent) != 1 {
		t.Errorf("expected one send, got %d", len(n.sent))
	}
}

func TestReminderJob_RetriesOnce(t *testing.T) {
	bookings := &mockBookings{upcoming: []domain.Booking{
		{ID: 1, ServiceName: "Haircut", StartTime: time.Now().Add(24 * time.Hour)},
	}}
	n := &mockNotifier{failures: 1}
	j := ReminderJob{Runner: testRunner(1), Bookings: bookings, Notifier: n}

	res, err := j.Run(context.Background(), ReminderParams{TenantID: ptr(1), HoursBefore: 24})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Processed != 1 || res.Failed != 0 {
		t.Errorf("one transient failure should be retried away, got %+v", res)
	}
	if len(n.sent) != 1 {
		t.Errorf("expected the retry to deliver, got %d sends", len(n.sent))
	}
}

func TestReminderJob_PersistentSendFailure(t *testing.T) {
	bookings := &mockBookings{upcoming: []domain.Booking{
		{ID: 1, ServiceName: "Haircut", StartTime: time.Now().Add(24 * time.Hour)},
	}}
	n := &mockNotifier{failures: 10}
	j := ReminderJob{Runner: testRunner(1), Bookings: bookings, Notifier: n}

	res, err := j.Run(context.Background(), ReminderParams{TenantID: ptr(1), HoursBefore: 24})
	if err != nil {
		t.Fatalf("a send failure is entity-level, not run-level: %v", err)
	}
	if res.Failed != 1 || res.Processed != 0 {
		t.Errorf("expected one failed entity, got %+v", res)
	}
}

func TestReminderJob_InvalidHours(t *testing.T) {
	j := ReminderJob{Runner: testRunner(1), Bookings: &mockBookings{}, Notifier: &mockNotifier{}}
	_, err := j.Run(context.Background(), ReminderParams{HoursBefore: 0})
	if !errors.Is(err, ErrBadParams) {
		t.Errorf("expected ErrBadParams, got %v", err)
	}
}
