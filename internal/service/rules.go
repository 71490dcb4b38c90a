// Package service holds the pure business rules: tax resolution and discount
// validation. Nothing here touches the datastore; callers load rule sets and
// pass snapshots in.
package service

import (
	"math"
	"time"

	"retailpos-backend/internal/domain"
	"retailpos-backend/internal/repository"
)

// TaxItem is one cart line as the resolver sees it.
type TaxItem struct {
	ProductID  int64
	CategoryID *int64
	IsService  bool
	Amount     int64
}

type TaxResult struct {
	Rate      float64
	Label     string
	TaxAmount int64
}

// ResolveTax picks the first applicable rule from rules (already ordered by
// priority descending) and computes the tax on subtotalAfterDiscount. When no
// rule applies it falls back to the tenant's flat tax settings; tax is zero
// when that is disabled too. Deterministic for a given rule set and item list.
func ResolveTax(rules []domain.TaxRule, settings domain.TenantSettings, subtotalAfterDiscount int64, items []TaxItem) TaxResult {
	for _, rule := range rules {
		if ruleApplies(rule, items) {
			return TaxResult{
				Rate:      rule.Rate,
				Label:     rule.Label,
				TaxAmount: roundCents(float64(subtotalAfterDiscount) * rule.Rate / 100),
			}
		}
	}
	if settings.TaxEnabled && settings.TaxRate > 0 {
		return TaxResult{
			Rate:      settings.TaxRate,
			Label:     settings.TaxLabel,
			TaxAmount: roundCents(float64(subtotalAfterDiscount) * settings.TaxRate / 100),
		}
	}
	return TaxResult{}
}

func ruleApplies(rule domain.TaxRule, items []TaxItem) bool {
	// Explicit product/category lists override the coarse scope.
	if len(rule.ProductIDs) > 0 || len(rule.CategoryIDs) > 0 {
		for _, item := range items {
			if containsID(rule.ProductIDs, item.ProductID) {
				return true
			}
			if item.CategoryID != nil && containsID(rule.CategoryIDs, *item.CategoryID) {
				return true
			}
		}
		return false
	}
	switch rule.AppliesTo {
	case domain.TaxAppliesAll:
		return len(items) > 0
	case domain.TaxAppliesProducts:
		for _, item := range items {
			if !item.IsService {
				return true
			}
		}
	case domain.TaxAppliesServices:
		for _, item := range items {
			if item.IsService {
				return true
			}
		}
	case domain.TaxAppliesCategories:
		// A category-scoped rule without category IDs matches nothing.
	}
	return false
}

type DiscountQuote struct {
	Code           string
	DiscountAmount int64
	FinalTotal     int64
}

// ValidateDiscount checks a rule against a subtotal at a point in time and
// quotes the discounted total. Pure and side-effect-free: it never touches
// usage_count, so repeated validation of the same cart cannot burn a use.
// Redemption is DiscountRepository.Redeem, called once at sale finalization.
func ValidateDiscount(rule domain.DiscountRule, subtotal int64, now time.Time) (DiscountQuote, error) {
	if !rule.IsActive {
		return DiscountQuote{}, repository.ErrInvalidCode
	}
	if now.Before(rule.ValidFrom) {
		return DiscountQuote{}, repository.ErrNotYetValid
	}
	if now.After(rule.ValidUntil) {
		return DiscountQuote{}, repository.ErrExpired
	}
	if rule.UsageLimit != nil && rule.UsageCount >= *rule.UsageLimit {
		return DiscountQuote{}, repository.ErrLimitReached
	}
	if rule.MinPurchaseAmount != nil && subtotal < *rule.MinPurchaseAmount {
		return DiscountQuote{}, repository.ErrBelowMinimum
	}

	var discount int64
	switch rule.Type {
	case domain.DiscountPercentage:
		discount = roundCents(float64(subtotal) * rule.Value / 100)
		if rule.MaxDiscountAmount != nil && discount > *rule.MaxDiscountAmount {
			discount = *rule.MaxDiscountAmount
		}
	case domain.DiscountFixed:
		discount = int64(rule.Value)
		if discount > subtotal {
			discount = subtotal
		}
	default:
		return DiscountQuote{}, repository.ErrInvalidCode
	}

	final := subtotal - discount
	if final < 0 {
		final = 0
	}
	return DiscountQuote{Code: rule.Code, DiscountAmount: discount, FinalTotal: final}, nil
}

func containsID(ids []int64, id int64) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func roundCents(v float64) int64 {
	return int64(math.Round(v))
}
