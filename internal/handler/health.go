package handler

import (
	"context"
	"net/http"
	"time"

	"retailpos-backend/internal/db"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
)

type HealthHandler struct {
	DB    *db.Postgres
	Redis *redis.Client
}

func (h HealthHandler) RegisterRoutes(r chi.Router) {
	r.Get("/health", h.health)
}

func (h HealthHandler) health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	checks := map[string]string{"database": "ok"}
	status := http.StatusOK
	if err := h.DB.Health(ctx); err != nil {
		checks["database"] = err.Error()
		status = http.StatusServiceUnavailable
	}
	if h.Redis != nil {
		checks["redis"] = "ok"
		if err := h.Redis.Ping(ctx).Err(); err != nil {
			checks["redis"] = err.Error()
			status = http.StatusServiceUnavailable
		}
	}
	writeJSON(w, status, checks)
}
