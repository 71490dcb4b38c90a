package service

import (
	"errors"
	"testing"
	"time"

	"retailpos-backend/internal/domain"
	"retailpos-backend/internal/repository"
)

func i64(v int64) *int64 { return &v }
func iptr(v int) *int    { return &v }

func activeRule(code string) domain.DiscountRule {
	return domain.DiscountRule{
		Code:       code,
		Type:       domain.DiscountPercentage,
		Value:      10,
		IsActive:   true,
		ValidFrom:  time.Now().Add(-24 * time.Hour),
		ValidUntil: time.Now().Add(24 * time.Hour),
	}
}

func TestValidateDiscount_PercentageQuote(t *testing.T) {
	rule := activeRule("SAVE10")
	rule.MinPurchaseAmount = i64(10000)

	quote, err := ValidateDiscount(rule, 50000, time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if quote.DiscountAmount != 5000 {
		t.Errorf("expected discount 5000, got %d", quote.DiscountAmount)
	}
	if quote.FinalTotal != 45000 {
		t.Errorf("expected final 45000, got %d", quote.FinalTotal)
	}
}

func TestValidateDiscount_PercentageCapApplied(t *testing.T) {
	rule := activeRule("SAVE10")
	rule.MaxDiscountAmount = i64(3000)

	quote, err := ValidateDiscount(rule, 50000, time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if quote.DiscountAmount != 3000 {
		t.Errorf("expected capped discount 3000, got %d", quote.DiscountAmount)
	}
	if quote.FinalTotal != 47000 {
		t.Errorf("expected final 47000, got %d", quote.FinalTotal)
	}
}

func TestValidateDiscount_FixedNeverExceedsSubtotal(t *testing.T) {
	rule := activeRule("FLAT")
	rule.Type = domain.DiscountFixed
	rule.Value = 80000

	quote, err := ValidateDiscount(rule, 50000, time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if quote.DiscountAmount != 50000 {
		t.Errorf("expected discount clamped to 50000, got %d", quote.DiscountAmount)
	}
	if quote.FinalTotal != 0 {
		t.Errorf("expected final 0, got %d", quote.FinalTotal)
	}
}

func TestValidateDiscount_Windows(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	rule := activeRule("SOON")
	rule.ValidFrom = now.Add(time.Hour)
	rule.ValidUntil = now.Add(48 * time.Hour)
	if _, err := ValidateDiscount(rule, 10000, now); !errors.Is(err, repository.ErrNotYetValid) {
		t.Errorf("expected ErrNotYetValid, got %v", err)
	}

	rule = activeRule("GONE")
	rule.ValidFrom = now.Add(-48 * time.Hour)
	rule.ValidUntil = now.Add(-time.Hour)
	if _, err := ValidateDiscount(rule, 10000, now); !errors.Is(err, repository.ErrExpired) {
		t.Errorf("expected ErrExpired, got %v", err)
	}
}

func TestValidateDiscount_Inactive(t *testing.T) {
	rule := activeRule("OFF")
	rule.IsActive = false
	if _, err := ValidateDiscount(rule, 10000, time.Now()); !errors.Is(err, repository.ErrInvalidCode) {
		t.Errorf("expected ErrInvalidCode, got %v", err)
	}
}

func TestValidateDiscount_LimitReached(t *testing.T) {
	rule := activeRule("LIM")
	rule.UsageLimit = iptr(5)
	rule.UsageCount = 5
	if _, err := ValidateDiscount(rule, 10000, time.Now()); !errors.Is(err, repository.ErrLimitReached) {
		t.Errorf("expected ErrLimitReached, got %v", err)
	}
}

func TestValidateDiscount_BelowMinimum(t *testing.T) {
	rule := activeRule("MIN")
	rule.MinPurchaseAmount = i64(100000)
	if _, err := ValidateDiscount(rule, 10000, time.Now()); !errors.Is(err, repository.ErrBelowMinimum) {
		t.Errorf("expected ErrBelowMinimum, got %v", err)
	}
}

func TestValidateDiscount_IsPure(t *testing.T) {
	rule := activeRule("SAVE10")
	rule.UsageLimit = iptr(1)
	now := time.Now()

	// Validating the same cart repeatedly must not burn a use.
	for i := 0; i < 3; i++ {
		if _, err := ValidateDiscount(rule, 10000, now); err != nil {
			t.Fatalf("validation %d failed: %v", i, err)
		}
	}
	if rule.UsageCount != 0 {
		t.Errorf("usage count mutated to %d", rule.UsageCount)
	}
}

func TestResolveTax_PriorityOrder(t *testing.T) {
	// Rules arrive sorted by priority descending; the first applicable wins.
	rules := []domain.TaxRule{
		{Rate: 12, Label: "Luxury", AppliesTo: domain.TaxAppliesServices, Priority: 20},
		{Rate: 10, Label: "VAT", AppliesTo: domain.TaxAppliesAll, Priority: 10},
	}
	items := []TaxItem{{ProductID: 1, Amount: 10000}}

	res := ResolveTax(rules, domain.TenantSettings{}, 10000, items)
	if res.Label != "VAT" || res.Rate != 10 {
		t.Errorf("expected VAT at 10%%, got %q at %v", res.Label, res.Rate)
	}
	if res.TaxAmount != 1000 {
		t.Errorf("expected tax 1000, got %d", res.TaxAmount)
	}
}

func TestResolveTax_Deterministic(t *testing.T) {
	rules := []domain.TaxRule{
		{Rate: 11, Label: "PPN", AppliesTo: domain.TaxAppliesAll, Priority: 5},
	}
	items := []TaxItem{{ProductID: 7, Amount: 33333}}

	first := ResolveTax(rules, domain.TenantSettings{}, 33333, items)
	for i := 0; i < 10; i++ {
		if got := ResolveTax(rules, domain.TenantSettings{}, 33333, items); got != first {
			t.Fatalf("run %d differed: %+v vs %+v", i, got, first)
		}
	}
}

func TestResolveTax_ProductOverrideBeatsScope(t *testing.T) {
	rules := []domain.TaxRule{
		{Rate: 15, Label: "Special", AppliesTo: domain.TaxAppliesServices, ProductIDs: []int64{42}, Priority: 10},
	}
	items := []TaxItem{{ProductID: 42, Amount: 10000}}

	res := ResolveTax(rules, domain.TenantSettings{}, 10000, items)
	if res.Label != "Special" {
		t.Errorf("product override should match regardless of scope, got %q", res.Label)
	}
}

func TestResolveTax_CategoryMatch(t *testing.T) {
	cat := int64(3)
	rules := []domain.TaxRule{
		{Rate: 8, Label: "Food", CategoryIDs: []int64{3}, Priority: 10},
	}
	items := []TaxItem{{ProductID: 1, CategoryID: &cat, Amount: 5000}}

	res := ResolveTax(rules, domain.TenantSettings{}, 5000, items)
	if res.Label != "Food" {
		t.Errorf("expected category rule to match, got %q", res.Label)
	}
}

func TestResolveTax_FlatFallback(t *testing.T) {
	settings := domain.TenantSettings{TaxEnabled: true, TaxRate: 11, TaxLabel: "PPN"}
	res := ResolveTax(nil, settings, 20000, []TaxItem{{ProductID: 1, Amount: 20000}})
	if res.Label != "PPN" || res.TaxAmount != 2200 {
		t.Errorf("expected flat PPN 2200, got %q %d", res.Label, res.TaxAmount)
	}
}

func TestResolveTax_ZeroWhenDisabled(t *testing.T) {
	res := ResolveTax(nil, domain.TenantSettings{}, 20000, []TaxItem{{ProductID: 1, Amount: 20000}})
	if res.TaxAmount != 0 || res.Rate != 0 {
		t.Errorf("expected zero tax, got %+v", res)
	}
}

func TestResolveTax_ServiceScope(t *testing.T) {
	rules := []domain.TaxRule{
		{Rate: 5, Label: "Service", AppliesTo: domain.TaxAppliesServices, Priority: 1},
	}
	goodsOnly := []TaxItem{{ProductID: 1, Amount: 10000}}
	if res := ResolveTax(rules, domain.TenantSettings{}, 10000, goodsOnly); res.Label == "Service" {
		t.Error("service-scoped rule matched a goods-only cart")
	}
	withService := []TaxItem{{ProductID: 2, IsService: true, Amount: 10000}}
	if res := ResolveTax(rules, domain.TenantSettings{}, 10000, withService); res.Label != "Service" {
		t.Errorf("expected service rule to match, got %q", res.Label)
	}
}
