package handler

import (
	"net/http"
	"strconv"
	"time"

	"retailpos-backend/internal/repository"
	"retailpos-backend/internal/server/authctx"

	"github.com/go-chi/chi/v5"
)

type AuditHandler struct {
	Audit  repository.AuditLogRepository
	Alerts repository.AlertRepository
}

func (h AuditHandler) RegisterRoutes(r chi.Router) {
	r.Get("/audit", h.list)
	r.Get("/alerts", h.alerts)
}

func (h AuditHandler) list(w http.ResponseWriter, r *http.Request) {
	user := authctx.FromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	entries, err := h.Audit.List(r.Context(), user.TenantID, limit)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func (h AuditHandler) alerts(w http.ResponseWriter, r *http.Request) {
	user := authctx.FromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	since := time.Now().AddDate(0, 0, -7)
	if raw := r.URL.Query().Get("since"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid since, expected RFC3339")
			return
		}
		since = parsed
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	alerts, err := h.Alerts.List(r.Context(), user.TenantID, since, limit)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, alerts)
}
