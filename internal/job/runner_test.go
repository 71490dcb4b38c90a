package job

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"
)

// Shared test doubles for the job package.

type mockTenants struct {
	ids []int64
}

func (m mockTenants) ListActiveIDs(_ context.Context) ([]int64, error) {
	return m.ids, nil
}

func (m mockTenants) Exists(_ context.Context, tenantID int64) (bool, error) {
	for _, id := range m.ids {
		if id == tenantID {
			return true, nil
		}
	}
	return false, nil
}

type mockLocker struct {
	mu       sync.Mutex
	held     map[string]bool
	denyAll  bool
	failAll  bool
	acquired []string
	released []string
}

func (m *mockLocker) Acquire(_ context.Context, key string, _ time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failAll {
		return false, errors.New("redis down")
	}
	if m.denyAll || m.held[key] {
		return false, nil
	}
	if m.held == nil {
		m.held = make(map[string]bool)
	}
	m.held[key] = true
	m.acquired = append(m.acquired, key)
	return true, nil
}

func (m *mockLocker) Release(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.held, key)
	m.released = append(m.released, key)
	return nil
}

type auditEntry struct {
	TenantID   int64
	Action     string
	EntityType string
	EntityID   int64
	Changes    map[string]any
}

type memAudit struct {
	mu      sync.Mutex
	entries []auditEntry
}

func (a *memAudit) Write(_ context.Context, tenantID int64, action, entityType string, entityID int64, changes map[string]any) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.entries = append(a.entries, auditEntry{tenantID, action, entityType, entityID, changes})
}

func (a *memAudit) actions() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]string, 0, len(a.entries))
	for _, e := range a.entries {
		out = append(out, e.Action)
	}
	return out
}

func testRunner(ids ...int64) *Runner {
	return &Runner{
		Tenants: mockTenants{ids: ids},
		Logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func ptr(v int64) *int64 { return &v }

func TestRunner_FanOutAggregates(t *testing.T) {
	r := testRunner(1, 2, 3)

	res, err := r.Run(context.Background(), "test-job", nil, func(_ context.Context, tenantID int64) (TenantOutcome, error) {
		return TenantOutcome{Processed: int(tenantID)}, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Processed != 6 {
		t.Errorf("expected 6 processed, got %d", res.Processed)
	}
	if !res.Success || res.Failed != 0 {
		t.Errorf("expected clean success, got %+v", res)
	}
	if !strings.Contains(res.Message, "3 tenant(s)") {
		t.Errorf("message should name the tenant count: %q", res.Message)
	}
}

func TestRunner_ExplicitTenantOnly(t *testing.T) {
	r := testRunner(1, 2, 3)

	var seen []int64
	_, err := r.Run(context.Background(), "test-job", ptr(2), func(_ context.Context, tenantID int64) (TenantOutcome, error) {
		seen = append(seen, tenantID)
		return TenantOutcome{}, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(seen) != 1 || seen[0] != 2 {
		t.Errorf("expected only tenant 2, got %v", seen)
	}
}

func TestRunner_UnknownTenant(t *testing.T) {
	r := testRunner(1)

	_, err := r.Run(context.Background(), "test-job", ptr(99), func(_ context.Context, _ int64) (TenantOutcome, error) {
		t.Fatal("job body must not run for an unknown tenant")
		return TenantOutcome{}, nil
	})
	if !errors.Is(err, ErrUnknownTenant) {
		t.Errorf("expected ErrUnknownTenant, got %v", err)
	}
}

func TestRunner_TenantFailureIsolated(t *testing.T) {
	r := testRunner(1, 2, 3)

	res, err := r.Run(context.Background(), "test-job", nil, func(_ context.Context, tenantID int64) (TenantOutcome, error) {
		if tenantID == 2 {
			return TenantOutcome{}, errors.New("connection reset")
		}
		return TenantOutcome{Processed: 1}, nil
	})
	if err != nil {
		t.Fatalf("an aggregate run must not error on a tenant failure: %v", err)
	}
	if res.Processed != 2 {
		t.Errorf("tenants 1 and 3 should still process, got %d", res.Processed)
	}
	if res.Failed != 1 {
		t.Errorf("expected 1 failure, got %d", res.Failed)
	}
	if len(res.Errors) != 1 || !strings.Contains(res.Errors[0], "tenant 2") {
		t.Errorf("error should name the tenant: %v", res.Errors)
	}
}

func TestRunner_PanicRecovered(t *testing.T) {
	r := testRunner(1, 2)

	res, err := r.Run(context.Background(), "test-job", nil, func(_ context.Context, tenantID int64) (TenantOutcome, error) {
		if tenantID == 1 {
			panic("nil map write")
		}
		return TenantOutcome{Processed: 1}, nil
	})
	if err != nil {
		t.Fatalf("a panic must not escape the runner: %v", err)
	}
	if res.Processed != 1 || res.Failed != 1 {
		t.Errorf("expected 1 processed, 1 failed, got %+v", res)
	}
}

func TestRunner_LockSkipsBusyTenant(t *testing.T) {
	locks := &mockLocker{held: map[string]bool{"joblock:test-job:1": true}}
	r := testRunner(1, 2)
	r.Locks = locks

	res, err := r.Run(context.Background(), "test-job", nil, func(_ context.Context, _ int64) (TenantOutcome, error) {
		return TenantOutcome{Processed: 1}, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Processed != 1 {
		t.Errorf("expected locked tenant skipped, got %d processed", res.Processed)
	}
	if len(locks.released) != 1 {
		t.Errorf("expected the acquired lock released once, got %v", locks.released)
	}
}

func TestRunner_LockErrorRunsUnlocked(t *testing.T) {
	r := testRunner(1)
	r.Locks = &mockLocker{failAll: true}

	res, err := r.Run(context.Background(), "test-job", nil, func(_ context.Context, _ int64) (TenantOutcome, error) {
		return TenantOutcome{Processed: 1}, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Processed != 1 {
		t.Errorf("a lock backend outage must not stop the job, got %d processed", res.Processed)
	}
}
