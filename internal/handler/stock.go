package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"retailpos-backend/internal/domain"
	"retailpos-backend/internal/repository"
	"retailpos-backend/internal/server/authctx"

	"github.com/go-chi/chi/v5"
	"github.com/xuri/excelize/v2"
)

type StockHandler struct {
	Ledger repository.StockRepository
	Audit  repository.AuditLogRepository
}

func (h StockHandler) RegisterRoutes(r chi.Router) {
	r.Post("/stock/adjust", h.adjust)
	r.Get("/stock/low", h.lowStock)
	r.Get("/stock/movements", h.movements)
	r.Get("/stock/movements/export", h.exportMovements)
}

func (h StockHandler) adjust(w http.ResponseWriter, r *http.Request) {
	user := authctx.FromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req struct {
		ProductID     int64  `json:"productId"`
		Quantity      int    `json:"quantity"`
		Type          string `json:"type"`
		BranchID      *int64 `json:"branchId"`
		TransactionID *int64 `json:"transactionId"`
		Reason        string `json:"reason"`
		Notes         string `json:"notes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if req.ProductID == 0 {
		writeError(w, http.StatusBadRequest, "productId is required")
		return
	}
	if req.Quantity == 0 {
		writeError(w, http.StatusBadRequest, "quantity must be non-zero")
		return
	}
	movementType := domain.MovementType(req.Type)
	if req.Type == "" {
		movementType = domain.MovementAdjustment
	}
	if !domain.ValidMovementType(movementType) {
		writeError(w, http.StatusBadRequest, "unknown movement type")
		return
	}

	mv, err := h.Ledger.Adjust(r.Context(), user.TenantID, repository.AdjustStockInput{
		ProductID:     req.ProductID,
		Delta:         req.Quantity,
		Type:          movementType,
		BranchID:      req.BranchID,
		TransactionID: req.TransactionID,
		UserID:        &user.ID,
		Reason:        req.Reason,
		Notes:         req.Notes,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	// The ledger owns the two writes; audit is the caller's job.
	_, _ = h.Audit.Create(r.Context(), user.TenantID, repository.CreateAuditInput{
		Action:     "stock_adjusted",
		EntityType: "product",
		EntityID:   req.ProductID,
		Changes: map[string]any{
			"type":     string(movementType),
			"quantity": req.Quantity,
			"previous": mv.PreviousStock,
			"new":      mv.NewStock,
		},
		Actor: user.Email,
	})

	writeJSON(w, http.StatusOK, map[string]any{
		"movementId":    mv.ID,
		"productId":     mv.ProductID,
		"previousStock": mv.PreviousStock,
		"newStock":      mv.NewStock,
		"quantity":      mv.Quantity,
	})
}

func (h StockHandler) lowStock(w http.ResponseWriter, r *http.Request) {
	user := authctx.FromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var branchID *int64
	if raw := r.URL.Query().Get("branchId"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid branchId")
			return
		}
		branchID = &id
	}
	var threshold *int
	if raw := r.URL.Query().Get("threshold"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid threshold")
			return
		}
		threshold = &n
	}
	items, err := h.Ledger.LowStock(r.Context(), user.TenantID, branchID, threshold)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	resp := make([]map[string]any, 0, len(items))
	for _, p := range items {
		entry := map[string]any{
			"id":           p.ID,
			"name":         p.Name,
			"stock":        p.Stock,
			"reorderPoint": p.ReorderPoint,
		}
		if branchID != nil {
			entry["branchStock"] = p.BranchStock[*branchID]
		}
		resp = append(resp, entry)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h StockHandler) movements(w http.ResponseWriter, r *http.Request) {
	user := authctx.FromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	productID, since, limit, err := movementFilters(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	items, err := h.Ledger.Movements(r.Context(), user.TenantID, productID, since, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	resp := make([]map[string]any, 0, len(items))
	for _, m := range items {
		resp = append(resp, map[string]any{
			"id":            m.ID,
			"productId":     m.ProductID,
			"branchId":      m.BranchID,
			"type":          string(m.Type),
			"quantity":      m.Quantity,
			"previousStock": m.PreviousStock,
			"newStock":      m.NewStock,
			"transactionId": m.TransactionID,
			"reason":        m.Reason,
			"createdAt":     m.CreatedAt,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h StockHandler) exportMovements(w http.ResponseWriter, r *http.Request) {
	user := authctx.FromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	productID, since, limit, err := movementFilters(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	items, err := h.Ledger.Movements(r.Context(), user.TenantID, productID, since, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	buf, err := movementsWorkbook(items)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="stock-movements.xlsx"`)
	_, _ = w.Write(buf.Bytes())
}

func movementFilters(r *http.Request) (*int64, *time.Time, int, error) {
	var productID *int64
	if raw := r.URL.Query().Get("productId"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, nil, 0, fmt.Errorf("invalid productId")
		}
		productID = &id
	}
	var since *time.Time
	if raw := r.URL.Query().Get("since"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return nil, nil, 0, fmt.Errorf("invalid since, want RFC3339")
		}
		since = &t
	}
	limit := 200
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	return productID, since, limit, nil
}

func movementsWorkbook(items []domain.StockMovement) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	sheet := "Movements"
	index, err := f.NewSheet(sheet)
	if err != nil {
		return nil, err
	}
	f.DeleteSheet("Sheet1")
	f.SetActiveSheet(index)

	header := []string{"ID", "Product", "Branch", "Type", "Quantity", "Previous", "New", "Transaction", "Reason", "Created At"}
	for c, v := range header {
		cell, _ := excelize.CoordinatesToCellName(c+1, 1)
		_ = f.SetCellValue(sheet, cell, v)
	}
	for i, m := range items {
		row := i + 2
		values := []any{
			m.ID,
			m.ProductID,
			derefInt64(m.BranchID),
			string(m.Type),
			m.Quantity,
			m.PreviousStock,
			m.NewStock,
			derefInt64(m.TransactionID),
			m.Reason,
			m.CreatedAt.Format(time.RFC3339),
		}
		for c, v := range values {
			cell, _ := excelize.CoordinatesToCellName(c+1, row)
			_ = f.SetCellValue(sheet, cell, v)
		}
	}
	return f.WriteToBuffer()
}

func derefInt64(v *int64) any {
	if v == nil {
		return ""
	}
	return *v
}
