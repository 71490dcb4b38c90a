package main

import (
	"context"
	"encoding/base64"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"retailpos-backend/internal/config"
	"retailpos-backend/internal/db"
	"retailpos-backend/internal/handler"
	"retailpos-backend/internal/job"
	"retailpos-backend/internal/notify"
	"retailpos-backend/internal/repository"
	"retailpos-backend/internal/server"
	"retailpos-backend/internal/server/triggerauth"

	"google.golang.org/api/option"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load config", "err", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pg, err := db.New(ctx, cfg)
	if err != nil {
		logger.Error("failed to connect database", "err", err)
		os.Exit(1)
	}
	defer pg.Close()

	rdb, err := db.NewRedis(ctx, cfg)
	if err != nil {
		logger.Error("failed to connect redis", "err", err)
		os.Exit(1)
	}
	if rdb != nil {
		defer rdb.Close()
	}

	// Push notifier (optional)
	var notifier notify.Notifier = notify.LogNotifier{Logger: logger}
	if cfg.FirebaseProjectID != "" {
		fcm, err := notify.NewFCMNotifier(ctx, cfg.FirebaseProjectID, firebaseOptions(cfg)...)
		if err != nil {
			logger.Error("failed to init fcm", "err", err)
			os.Exit(1)
		}
		notifier = fcm
	}

	// repositories
	tenantRepo := repository.TenantRepository{DB: pg}
	settingsRepo := repository.SettingsRepository{DB: pg}
	productRepo := repository.ProductRepository{DB: pg}
	stockRepo := repository.StockRepository{DB: pg}
	discountRepo := repository.DiscountRepository{DB: pg}
	taxRepo := repository.TaxRepository{DB: pg}
	bookingRepo := repository.BookingRepository{DB: pg}
	attendanceRepo := repository.AttendanceRepository{DB: pg}
	drawerRepo := repository.DrawerRepository{DB: pg}
	txRepo := repository.TransactionRepository{DB: pg}
	cartRepo := repository.CartRepository{DB: pg}
	orderRepo := repository.PurchaseOrderRepository{DB: pg}
	syncRepo := repository.SyncRepository{DB: pg}
	auditRepo := repository.AuditLogRepository{DB: pg}
	alertRepo := repository.AlertRepository{DB: pg}

	// jobs
	var locker job.Locker
	if rdb != nil {
		locker = job.RedisLocker{Client: rdb}
	}
	runner := &job.Runner{
		Tenants: tenantRepo,
		Locks:   locker,
		LockTTL: cfg.Jobs.JobLockTTL,
		Logger:  logger,
	}
	audit := job.RepoAuditWriter{Repo: auditRepo, Logger: logger}

	triggerHandler := handler.TriggerHandler{
		Auth: triggerauth.Auth{
			Secret:          cfg.CronSecret,
			SecretHash:      cfg.CronSecretHash,
			SchedulerHeader: cfg.SchedulerHeader,
			JWTSecret:       cfg.JWTSecret,
		},
		Defaults:   cfg.Jobs,
		ClockOut:   job.ClockOutJob{Runner: runner, Attendance: attendanceRepo, Drawers: drawerRepo, Audit: audit},
		NoShow:     job.NoShowJob{Runner: runner, Bookings: bookingRepo, Audit: audit},
		Reminders:  job.ReminderJob{Runner: runner, Bookings: bookingRepo, Notifier: notifier},
		Carts:      job.AbandonedCartJob{Runner: runner, Carts: cartRepo, Notifier: notifier},
		Pricing:    job.PricingJob{Runner: runner, Products: productRepo, Sales: txRepo, Audit: audit},
		Replenish:  job.ReplenishJob{Runner: runner, Products: productRepo, Sales: txRepo, Orders: orderRepo, Audit: audit},
		Sync:       job.SyncJob{Runner: runner, Records: syncRepo, Settings: settingsRepo, Audit: audit},
		Suspicious: job.SuspiciousJob{Runner: runner, Activity: txRepo, Alerts: alertRepo},
	}

	// handlers
	healthHandler := handler.HealthHandler{DB: pg, Redis: rdb}
	stockHandler := handler.StockHandler{Ledger: stockRepo, Audit: auditRepo}
	ruleHandler := handler.RuleHandler{Discounts: discountRepo, Taxes: taxRepo, Settings: settingsRepo}
	transactionHandler := handler.TransactionHandler{
		Transactions: txRepo,
		Ledger:       stockRepo,
		Discounts:    discountRepo,
		Taxes:        taxRepo,
		Settings:     settingsRepo,
	}
	attendanceHandler := handler.AttendanceHandler{Repo: attendanceRepo}
	orderHandler := handler.PurchaseOrderHandler{Orders: orderRepo, Ledger: stockRepo, Audit: auditRepo}
	auditHandler := handler.AuditHandler{Audit: auditRepo, Alerts: alertRepo}

	router := server.NewRouter(cfg, logger, healthHandler, triggerHandler, stockHandler, ruleHandler, transactionHandler, attendanceHandler, orderHandler, auditHandler)

	if err := server.Start(ctx, cfg, router, logger); err != nil {
		logger.Error("server error", "err", err)
		os.Exit(1)
	}
}

func firebaseOptions(cfg config.Config) []option.ClientOption {
	if cfg.FirebaseCredFile == "" {
		return nil
	}

	cred := cfg.FirebaseCredFile
	// Allow inline JSON or base64-encoded JSON in env to avoid writing a file.
	if strings.HasPrefix(strings.TrimSpace(cred), "{") {
		return []option.ClientOption{option.WithCredentialsJSON([]byte(cred))}
	}
	if decoded, err := base64.StdEncoding.DecodeString(cred); err == nil && strings.HasPrefix(strings.TrimSpace(string(decoded)), "{") {
		return []option.ClientOption{option.WithCredentialsJSON(decoded)}
	}

	return []option.ClientOption{option.WithCredentialsFile(cred)}
}
