package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"retailpos-backend/internal/repository"
	"retailpos-backend/internal/server/authctx"
	"retailpos-backend/internal/service"

	"github.com/go-chi/chi/v5"
)

// RuleHandler exposes the rule resolver: pure discount validation and tax
// preview, plus the explicit redeem step used at sale finalization.
type RuleHandler struct {
	Discounts repository.DiscountRepository
	Taxes     repository.TaxRepository
	Settings  repository.SettingsRepository
}

func (h RuleHandler) RegisterRoutes(r chi.Router) {
	r.Post("/discounts/validate", h.validateDiscount)
	r.Post("/discounts/redeem", h.redeemDiscount)
	r.Post("/tax/preview", h.previewTax)
}

func (h RuleHandler) validateDiscount(w http.ResponseWriter, r *http.Request) {
	user := authctx.FromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req struct {
		Code     string `json:"code"`
		Subtotal int64  `json:"subtotal"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if req.Code == "" {
		writeError(w, http.StatusBadRequest, "code is required")
		return
	}
	rule, err := h.Discounts.GetByCode(r.Context(), user.TenantID, req.Code)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	quote, err := service.ValidateDiscount(*rule, req.Subtotal, time.Now())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"code":           quote.Code,
		"discountAmount": quote.DiscountAmount,
		"finalTotal":     quote.FinalTotal,
	})
}

func (h RuleHandler) redeemDiscount(w http.ResponseWriter, r *http.Request) {
	user := authctx.FromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req struct {
		Code string `json:"code"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if req.Code == "" {
		writeError(w, http.StatusBadRequest, "code is required")
		return
	}
	count, err := h.Discounts.Redeem(r.Context(), user.TenantID, req.Code)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"usageCount": count})
}

func (h RuleHandler) previewTax(w http.ResponseWriter, r *http.Request) {
	user := authctx.FromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req struct {
		Subtotal int64 `json:"subtotal"`
		Items    []struct {
			ProductID  int64  `json:"productId"`
			CategoryID *int64 `json:"categoryId"`
			IsService  bool   `json:"isService"`
			Amount     int64  `json:"amount"`
		} `json:"items"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	rules, err := h.Taxes.ListActive(r.Context(), user.TenantID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	settings, err := h.Settings.Get(r.Context(), user.TenantID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	items := make([]service.TaxItem, 0, len(req.Items))
	for _, it := range req.Items {
		items = append(items, service.TaxItem{
			ProductID:  it.ProductID,
			CategoryID: it.CategoryID,
			IsService:  it.IsService,
			Amount:     it.Amount,
		})
	}
	res := service.ResolveTax(rules, *settings, req.Subtotal, items)
	writeJSON(w, http.StatusOK, map[string]any{
		"rate":      res.Rate,
		"label":     res.Label,
		"taxAmount": res.TaxAmount,
	})
}
