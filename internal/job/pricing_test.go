package job

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"retailpos-backend/internal/domain"
)

type mockProducts struct {
	mu      sync.Mutex
	active  []domain.Product
	tracked []domain.Product
	prices  map[int64]int64
	writes  int
}

func (m *mockProducts) ListActive(_ context.Context, _ int64) ([]domain.Product, error) {
	return m.active, nil
}

func (m *mockProducts) ListTracked(_ context.Context, _ int64) ([]domain.Product, error) {
	return m.tracked, nil
}

func (m *mockProducts) UpdatePrice(_ context.Context, _, productID int64, newPrice int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.prices == nil {
		m.prices = make(map[int64]int64)
	}
	m.prices[productID] = newPrice
	m.writes++
	return nil
}

type mockSales struct {
	sold map[int64]int
}

func (m mockSales) UnitsSold(_ context.Context, _ int64, _ time.Time) (map[int64]int, error) {
	return m.sold, nil
}

func defaultPricingParams(tenant int64) PricingParams {
	p := PricingParams{TenantID: ptr(tenant), EnableTimeBased: true}
	p.ApplyDefaults(0.5, 2.0)
	return p
}

func product(id int64, base, price int64) domain.Product {
	return domain.Product{
		ID:        id,
		Active:    true,
		BasePrice: domain.Money{Amount: base, Currency: "IDR"},
		Price:     domain.Money{Amount: price, Currency: "IDR"},
	}
}

func TestPricingJob_RequiresStrategy(t *testing.T) {
	j := PricingJob{Runner: testRunner(1), Products: &mockProducts{}, Sales: mockSales{}, Audit: &memAudit{}}
	p := PricingParams{TenantID: ptr(1)}
	p.ApplyDefaults(0.5, 2.0)

	_, err := j.Run(context.Background(), p)
	if !errors.Is(err, ErrBadParams) {
		t.Errorf("expected ErrBadParams with no strategy enabled, got %v", err)
	}
}

func TestPricingJob_PeakRaisesFromBase(t *testing.T) {
	products := &mockProducts{active: []domain.Product{product(1, 10000, 10000)}}
	audit := &memAudit{}
	j := PricingJob{Runner: testRunner(1), Products: products, Sales: mockSales{}, Audit: audit}

	p := defaultPricingParams(1)
	p.Now = time.Date(2026, 3, 1, 18, 0, 0, 0, time.UTC) // inside 17-21 peak

	res, err := j.Run(context.Background(), p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Processed != 1 {
		t.Fatalf("expected one price change, got %d", res.Processed)
	}
	if got := products.prices[1]; got != 11000 {
		t.Errorf("expected 11000 at peak, got %d", got)
	}
	if actions := audit.actions(); len(actions) != 1 || actions[0] != "price_change" {
		t.Errorf("expected one price_change audit entry, got %v", actions)
	}
}

func TestPricingJob_Idempotent(t *testing.T) {
	// Already at the peak price; recomputation from base yields the same
	// number and must write nothing.
	products := &mockProducts{active: []domain.Product{product(1, 10000, 11000)}}
	j := PricingJob{Runner: testRunner(1), Products: products, Sales: mockSales{}, Audit: &memAudit{}}

	p := defaultPricingParams(1)
	p.Now = time.Date(2026, 3, 1, 18, 0, 0, 0, time.UTC)

	res, err := j.Run(context.Background(), p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Processed != 0 || products.writes != 0 {
		t.Errorf("expected no writes, got %d processed, %d writes", res.Processed, products.writes)
	}
}

func TestPricingJob_SkipsZeroBasePrice(t *testing.T) {
	products := &mockProducts{active: []domain.Product{product(1, 0, 5000)}}
	j := PricingJob{Runner: testRunner(1), Products: products, Sales: mockSales{}, Audit: &memAudit{}}

	p := defaultPricingParams(1)
	p.Now = time.Date(2026, 3, 1, 18, 0, 0, 0, time.UTC)

	res, _ := j.Run(context.Background(), p)
	if res.Processed != 0 || products.writes != 0 {
		t.Errorf("products without a base price must be skipped, got %+v", res)
	}
}

func TestComposeMultiplier_Band(t *testing.T) {
	p := PricingParams{
		EnableTimeBased:   true,
		EnableDemandBased: true,
		EnableStockBased:  true,
	}
	p.ApplyDefaults(0.5, 2.0)
	p.PeakMultiplier = 3.0
	p.HighDemandMultiplier = 3.0
	p.ScarcityMultiplier = 3.0

	rp := 10
	prod := domain.Product{TrackInventory: true, Stock: 5, ReorderPoint: &rp}
	now := time.Date(2026, 3, 1, 18, 0, 0, 0, time.UTC)

	mult := ComposeMultiplier(p, now, prod, 100)
	if mult != 2.0 {
		t.Errorf("composed multiplier must clamp to the band max, got %v", mult)
	}

	p.PeakMultiplier = 0.1
	p.HighDemandMultiplier = 0.1
	p.ScarcityMultiplier = 0.1
	mult = ComposeMultiplier(p, now, prod, 100)
	if mult != 0.5 {
		t.Errorf("composed multiplier must clamp to the band min, got %v", mult)
	}
}

func TestComposeMultiplier_DemandTiers(t *testing.T) {
	p := PricingParams{EnableDemandBased: true}
	p.ApplyDefaults(0.5, 2.0)
	prod := domain.Product{}
	now := time.Now()

	if got := ComposeMultiplier(p, now, prod, 25); got != p.HighDemandMultiplier {
		t.Errorf("high demand: expected %v, got %v", p.HighDemandMultiplier, got)
	}
	if got := ComposeMultiplier(p, now, prod, 0); got != p.SlowDemandMultiplier {
		t.Errorf("no sales: expected %v, got %v", p.SlowDemandMultiplier, got)
	}
	if got := ComposeMultiplier(p, now, prod, 5); got != 1.0 {
		t.Errorf("moderate demand: expected 1.0, got %v", got)
	}
}

func TestComposeMultiplier_StockRatio(t *testing.T) {
	p := PricingParams{EnableStockBased: true}
	p.ApplyDefaults(0.5, 2.0)
	rp := 10
	now := time.Now()

	scarce := domain.Product{TrackInventory: true, Stock: 8, ReorderPoint: &rp}
	if got := ComposeMultiplier(p, now, scarce, 0); got != p.ScarcityMultiplier {
		t.Errorf("scarce stock: expected %v, got %v", p.ScarcityMultiplier, got)
	}

	over := domain.Product{TrackInventory: true, Stock: 45, ReorderPoint: &rp}
	if got := ComposeMultiplier(p, now, over, 0); got != p.OverstockMultiplier {
		t.Errorf("overstock: expected %v, got %v", p.OverstockMultiplier, got)
	}

	untracked := domain.Product{TrackInventory: false, Stock: 1, ReorderPoint: &rp}
	if got := ComposeMultiplier(p, now, untracked, 0); got != 1.0 {
		t.Errorf("untracked product: expected 1.0, got %v", got)
	}
}
