package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"retailpos-backend/internal/repository"
	"retailpos-backend/internal/server/authctx"

	"github.com/go-chi/chi/v5"
)

type AttendanceHandler struct {
	Repo repository.AttendanceRepository
}

func (h AttendanceHandler) RegisterRoutes(r chi.Router) {
	r.Post("/attendance/clockin", h.clockIn)
	r.Post("/attendance/clockout", h.clockOut)
}

func (h AttendanceHandler) clockIn(w http.ResponseWriter, r *http.Request) {
	h.punch(w, r, h.Repo.ClockIn)
}

func (h AttendanceHandler) clockOut(w http.ResponseWriter, r *http.Request) {
	h.punch(w, r, h.Repo.ClockOut)
}

func (h AttendanceHandler) punch(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, tenantID int64, name string, employeeID *int64) error) {
	user := authctx.FromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req struct {
		EmployeeID   *int64 `json:"employeeId"`
		EmployeeName string `json:"employeeName"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if req.EmployeeName == "" {
		writeError(w, http.StatusBadRequest, "employeeName is required")
		return
	}
	if err := fn(r.Context(), user.TenantID, req.EmployeeName, req.EmployeeID); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}
