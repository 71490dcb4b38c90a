package job

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"retailpos-backend/internal/domain"
	"retailpos-backend/internal/repository"
)

type mockActivity struct {
	actors []repository.ActorActivity
}

func (m mockActivity) ActorCounts(_ context.Context, _ int64, _ time.Time) ([]repository.ActorActivity, error) {
	return m.actors, nil
}

type mockAlerts struct {
	mu      sync.Mutex
	seen    map[string]bool
	created []domain.SecurityAlert
}

func (m *mockAlerts) Create(_ context.Context, _ int64, a domain.SecurityAlert) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := fmt.Sprintf("%s:%d", a.Actor, a.PeriodStart.Unix())
	if m.seen == nil {
		m.seen = make(map[string]bool)
	}
	if m.seen[key] {
		return false, nil
	}
	m.seen[key] = true
	m.created = append(m.created, a)
	return true, nil
}

func suspiciousParams(tenant int64) SuspiciousParams {
	return SuspiciousParams{
		TenantID:             ptr(tenant),
		WindowHours:          24,
		RefundThreshold:      5,
		VoidThreshold:        5,
		DiscountThreshold:    20,
		FailedLoginThreshold: 10,
	}
}

func TestSuspiciousJob_FlagsOverThreshold(t *testing.T) {
	activity := mockActivity{actors: []repository.ActorActivity{
		{Actor: "kasir1", Refunds: 6, Voids: 1},
		{Actor: "kasir2", Refunds: 1, Voids: 1},
	}}
	alerts := &mockAlerts{}
	j := SuspiciousJob{Runner: testRunner(1), Activity: activity, Alerts: alerts}

	res, err := j.Run(context.Background(), suspiciousParams(1))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Processed != 1 || len(alerts.created) != 1 {
		t.Fatalf("expected one alert, got %+v", res)
	}
	alert := alerts.created[0]
	if alert.Actor != "kasir1" {
		t.Errorf("expected kasir1 flagged, got %q", alert.Actor)
	}
	if !strings.Contains(alert.Reason, "6 refunds") {
		t.Errorf("reason should cite the refund count: %q", alert.Reason)
	}
}

func TestSuspiciousJob_CombinesReasons(t *testing.T) {
	activity := mockActivity{actors: []repository.ActorActivity{
		{Actor: "kasir1", Refunds: 7, Voids: 5, FailedLogins: 12},
	}}
	alerts := &mockAlerts{}
	j := SuspiciousJob{Runner: testRunner(1), Activity: activity, Alerts: alerts}

	if _, err := j.Run(context.Background(), suspiciousParams(1)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	reason := alerts.created[0].Reason
	for _, want := range []string{"7 refunds", "5 voids", "12 failed logins"} {
		if !strings.Contains(reason, want) {
			t.Errorf("reason %q missing %q", reason, want)
		}
	}
}

func TestSuspiciousJob_RerunSameHourIsNoop(t *testing.T) {
	activity := mockActivity{actors: []repository.ActorActivity{
		{Actor: "kasir1", Refunds: 9},
	}}
	alerts := &mockAlerts{}
	j := SuspiciousJob{Runner: testRunner(1), Activity: activity, Alerts: alerts}

	p := suspiciousParams(1)
	p.Now = time.Date(2026, 3, 1, 10, 5, 0, 0, time.UTC)
	first, _ := j.Run(context.Background(), p)

	p.Now = time.Date(2026, 3, 1, 10, 40, 0, 0, time.UTC) // same hour bucket
	second, _ := j.Run(context.Background(), p)

	if first.Processed != 1 || second.Processed != 0 {
		t.Errorf("same-hour re-run must not duplicate alerts: %d then %d", first.Processed, second.Processed)
	}
}

func TestSuspiciousJob_ThresholdIsInclusive(t *testing.T) {
	activity := mockActivity{actors: []repository.ActorActivity{
		{Actor: "exact", Discounts: 20},
		{Actor: "under", Discounts: 19},
	}}
	alerts := &mockAlerts{}
	j := SuspiciousJob{Runner: testRunner(1), Activity: activity, Alerts: alerts}

	if _, err := j.Run(context.Background(), suspiciousParams(1)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(alerts.created) != 1 || alerts.created[0].Actor != "exact" {
		t.Errorf("expected only the actor at the threshold flagged, got %+v", alerts.created)
	}
}
