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

// TransactionHandler finalizes sales: validates the discount, resolves tax,
// writes the transaction plus ledger movements atomically, then redeems the
// discount exactly once.
type TransactionHandler struct {
	Transactions repository.TransactionRepository
	Ledger       repository.StockRepository
	Discounts    repository.DiscountRepository
	Taxes        repository.TaxRepository
	Settings     repository.SettingsRepository
}

func (h TransactionHandler) RegisterRoutes(r chi.Router) {
	r.Post("/transactions", h.create)
}

func (h TransactionHandler) create(w http.ResponseWriter, r *http.Request) {
	user := authctx.FromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req struct {
		DiscountCode string `json:"discountCode"`
		Items        []struct {
			ProductID  *int64 `json:"productId"`
			CategoryID *int64 `json:"categoryId"`
			Name       string `json:"name"`
			Price      int64  `json:"price"`
			Qty        int    `json:"qty"`
			IsService  bool   `json:"isService"`
		} `json:"items"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if len(req.Items) == 0 {
		writeError(w, http.StatusBadRequest, "items are required")
		return
	}

	var subtotal int64
	taxItems := make([]service.TaxItem, 0, len(req.Items))
	txItems := make([]repository.CreateTransactionItem, 0, len(req.Items))
	for _, it := range req.Items {
		if it.Qty <= 0 {
			writeError(w, http.StatusBadRequest, "item qty must be positive")
			return
		}
		line := it.Price * int64(it.Qty)
		subtotal += line
		var pid int64
		if it.ProductID != nil {
			pid = *it.ProductID
		}
		taxItems = append(taxItems, service.TaxItem{
			ProductID:  pid,
			CategoryID: it.CategoryID,
			IsService:  it.IsService,
			Amount:     line,
		})
		txItems = append(txItems, repository.CreateTransactionItem{
			ProductID: it.ProductID,
			Name:      it.Name,
			Price:     it.Price,
			Qty:       it.Qty,
		})
	}

	total := subtotal
	var discountCode *string
	if req.DiscountCode != "" {
		rule, err := h.Discounts.GetByCode(r.Context(), user.TenantID, req.DiscountCode)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		quote, err := service.ValidateDiscount(*rule, subtotal, time.Now())
		if err != nil {
			writeDomainError(w, err)
			return
		}
		total = quote.FinalTotal
		discountCode = &rule.Code
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
	tax := service.ResolveTax(rules, *settings, total, taxItems)
	total += tax.TaxAmount

	transaction, err := h.Transactions.Create(r.Context(), user.TenantID, repository.CreateTransactionInput{
		OperatorName: user.Email,
		Amount:       total,
		DiscountCode: discountCode,
		UserID:       &user.ID,
		Items:        txItems,
	}, h.Ledger)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	// Redeem only after the sale committed, so repeated validation calls
	// never burn a use.
	if discountCode != nil {
		if _, err := h.Discounts.Redeem(r.Context(), user.TenantID, *discountCode); err != nil {
			writeDomainError(w, err)
			return
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"id":        transaction.ID,
		"code":      transaction.Code,
		"subtotal":  subtotal,
		"taxAmount": tax.TaxAmount,
		"taxLabel":  tax.Label,
		"total":     total,
	})
}
