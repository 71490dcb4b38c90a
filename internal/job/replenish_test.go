package job

import (
	"context"
	"sync"
	"testing"

	"retailpos-backend/internal/domain"
)

type mockOrders struct {
	mu        sync.Mutex
	inTransit map[int64]int
	open      map[int64]bool
	created   []domain.PurchaseOrder
}

func (m *mockOrders) InTransit(_ context.Context, _ int64) (map[int64]int, error) {
	return m.inTransit, nil
}

func (m *mockOrders) CreateSuggestion(_ context.Context, _ int64, po domain.PurchaseOrder) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.open == nil {
		m.open = make(map[int64]bool)
	}
	if m.open[po.ProductID] {
		return false, nil
	}
	m.open[po.ProductID] = true
	m.created = append(m.created, po)
	return true, nil
}

func trackedProduct(id int64, stock int) domain.Product {
	return domain.Product{ID: id, TrackInventory: true, Stock: stock}
}

func TestProjectedNeed(t *testing.T) {
	cases := []struct {
		sold, analysis, prediction, want int
	}{
		{30, 30, 7, 7},   // one per day
		{10, 30, 7, 3},   // ceil(2.33)
		{0, 30, 7, 0},    // no sales, no need
		{1, 30, 7, 1},    // always rounds up
		{100, 10, 5, 50}, // fast mover
	}
	for _, c := range cases {
		if got := ProjectedNeed(c.sold, c.analysis, c.prediction); got != c.want {
			t.Errorf("ProjectedNeed(%d, %d, %d) = %d, want %d", c.sold, c.analysis, c.prediction, got, c.want)
		}
	}
}

func TestReplenishJob_SuggestsShortfall(t *testing.T) {
	products := &mockProducts{tracked: []domain.Product{trackedProduct(1, 2)}}
	orders := &mockOrders{}
	j := ReplenishJob{
		Runner:   testRunner(1),
		Products: products,
		Sales:    mockSales{sold: map[int64]int{1: 30}},
		Orders:   orders,
		Audit:    &memAudit{},
	}

	res, err := j.Run(context.Background(), ReplenishParams{
		TenantID: ptr(1), AnalysisDays: 30, PredictionDays: 7, AutoCreate: true,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Processed != 1 || len(orders.created) != 1 {
		t.Fatalf("expected one suggestion, got %+v", res)
	}
	// need 7, stock 2, nothing in transit
	if orders.created[0].Quantity != 5 {
		t.Errorf("expected quantity 5, got %d", orders.created[0].Quantity)
	}
	if orders.created[0].Status != domain.PurchaseOrderSuggested {
		t.Errorf("expected suggested status, got %q", orders.created[0].Status)
	}
}

func TestReplenishJob_InTransitCounts(t *testing.T) {
	products := &mockProducts{tracked: []domain.Product{trackedProduct(1, 2)}}
	orders := &mockOrders{inTransit: map[int64]int{1: 10}}
	j := ReplenishJob{
		Runner:   testRunner(1),
		Products: products,
		Sales:    mockSales{sold: map[int64]int{1: 30}},
		Orders:   orders,
		Audit:    &memAudit{},
	}

	res, err := j.Run(context.Background(), ReplenishParams{
		TenantID: ptr(1), AnalysisDays: 30, PredictionDays: 7, AutoCreate: true,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Processed != 0 || len(orders.created) != 0 {
		t.Errorf("in-transit stock covers the need, expected no suggestion, got %+v", res)
	}
}

func TestReplenishJob_OpenOrderGuard(t *testing.T) {
	products := &mockProducts{tracked: []domain.Product{trackedProduct(1, 0)}}
	orders := &mockOrders{}
	j := ReplenishJob{
		Runner:   testRunner(1),
		Products: products,
		Sales:    mockSales{sold: map[int64]int{1: 30}},
		Orders:   orders,
		Audit:    &memAudit{},
	}
	p := ReplenishParams{TenantID: ptr(1), AnalysisDays: 30, PredictionDays: 7, AutoCreate: true}

	first, _ := j.Run(context.Background(), p)
	second, _ := j.Run(context.Background(), p)
	if first.Processed != 1 || second.Processed != 0 {
		t.Errorf("re-run must not duplicate suggestions: %d then %d", first.Processed, second.Processed)
	}
	if len(orders.created) != 1 {
		t.Errorf("expected exactly one order, got %d", len(orders.created))
	}
}

func TestReplenishJob_SuggestOnlyMode(t *testing.T) {
	products := &mockProducts{tracked: []domain.Product{trackedProduct(1, 0)}}
	orders := &mockOrders{}
	audit := &memAudit{}
	j := ReplenishJob{
		Runner:   testRunner(1),
		Products: products,
		Sales:    mockSales{sold: map[int64]int{1: 30}},
		Orders:   orders,
		Audit:    audit,
	}

	res, err := j.Run(context.Background(), ReplenishParams{
		TenantID: ptr(1), AnalysisDays: 30, PredictionDays: 7, AutoCreate: false,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(orders.created) != 0 {
		t.Error("autoCreate=false must not create purchase orders")
	}
	if res.Processed != 1 || len(audit.actions()) != 1 {
		t.Errorf("expected one audited suggestion, got %+v", res)
	}
}
