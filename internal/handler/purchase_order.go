package handler

import (
	"net/http"
	"strconv"

	"retailpos-backend/internal/repository"
	"retailpos-backend/internal/server/authctx"

	"github.com/go-chi/chi/v5"
)

type PurchaseOrderHandler struct {
	Orders repository.PurchaseOrderRepository
	Ledger repository.StockRepository
	Audit  repository.AuditLogRepository
}

func (h PurchaseOrderHandler) RegisterRoutes(r chi.Router) {
	r.Post("/purchase-orders/{id}/receive", h.receive)
}

// receive books the incoming stock through the ledger and closes the order.
func (h PurchaseOrderHandler) receive(w http.ResponseWriter, r *http.Request) {
	user := authctx.FromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	orderID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	mv, err := h.Orders.Receive(r.Context(), user.TenantID, orderID, h.Ledger, &user.ID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	_, _ = h.Audit.Create(r.Context(), user.TenantID, repository.CreateAuditInput{
		Action:     "purchase_order_received",
		EntityType: "purchase_order",
		EntityID:   orderID,
		Changes:    map[string]any{"quantity": mv.Quantity, "newStock": mv.NewStock},
		Actor:      user.Email,
	})
	writeJSON(w, http.StatusOK, map[string]any{
		"movementId": mv.ID,
		"productId":  mv.ProductID,
		"newStock":   mv.NewStock,
	})
}
