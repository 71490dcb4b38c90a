package server

import (
	"net/http"
	"time"

	"retailpos-backend/internal/config"
	"retailpos-backend/internal/domain"
	"retailpos-backend/internal/handler"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"log/slog"
)

// NewRouter wires HTTP routes and middleware.
func NewRouter(cfg config.Config,
	logger *slog.Logger,
	health handler.HealthHandler,
	trigger handler.TriggerHandler,
	stocks handler.StockHandler,
	rules handler.RuleHandler,
	tx handler.TransactionHandler,
	attendance handler.AttendanceHandler,
	orders handler.PurchaseOrderHandler,
	audit handler.AuditHandler,
) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(NewLoggerMiddleware(logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token", cfg.SchedulerHeader},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(httprate.LimitByIP(200, 1*time.Minute))

	health.RegisterRoutes(r)
	r.Method("GET", "/metrics", promhttp.Handler())

	// Job triggers carry their own auth (scheduler header, shared secret or
	// admin JWT), so they stay outside the session middleware.
	trigger.RegisterRoutes(r)

	r.Group(func(pr chi.Router) {
		pr.Use(AuthMiddleware(cfg.JWTSecret))
		// staff-level (staff/manager/admin)
		pr.Group(func(sr chi.Router) {
			sr.Use(RequireRole(domain.RoleAdmin, domain.RoleManager, domain.RoleStaff))
			rules.RegisterRoutes(sr)
			tx.RegisterRoutes(sr)
			attendance.RegisterRoutes(sr)
		})
		// manager-level (manager/admin)
		pr.Group(func(mr chi.Router) {
			mr.Use(RequireRole(domain.RoleAdmin, domain.RoleManager))
			stocks.RegisterRoutes(mr)
			orders.RegisterRoutes(mr)
			audit.RegisterRoutes(mr)
		})
	})

	return r
}
