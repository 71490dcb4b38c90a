package config

import (
	"errors"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application runtime configuration.
type Config struct {
	Env             string
	HTTPPort        string
	DatabaseURL     string
	RedisURL        string
	DefaultCurrency string
	JWTSecret       string

	// Trigger gateway auth. CronSecret is compared in constant time;
	// CronSecretHash (bcrypt) takes precedence when both are set.
	CronSecret      string
	CronSecretHash  string
	SchedulerHeader string

	FirebaseProjectID string
	FirebaseCredFile  string

	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	Jobs JobDefaults
}

// JobDefaults are fallback thresholds applied when a trigger call omits the
// corresponding option. All of them can be overridden per invocation.
type JobDefaults struct {
	ClockOutGraceHours   int
	NoShowGraceMinutes   int
	ReminderHoursBefore  int
	CartHoursAgo         int
	AnalysisDays         int
	PredictionDays       int
	PriceMinMultiplier   float64
	PriceMaxMultiplier   float64
	SuspiciousWindowHrs  int
	RefundThreshold      int
	VoidThreshold        int
	DiscountThreshold    int
	FailedLoginThreshold int
	JobLockTTL           time.Duration
}

// Load reads environment variables and .env (if present).
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		Env:               getEnv("APP_ENV", "development"),
		HTTPPort:          getEnv("HTTP_PORT", "8080"),
		DatabaseURL:       os.Getenv("DATABASE_URL"),
		RedisURL:          getEnv("REDIS_URL", ""),
		DefaultCurrency:   getEnv("CURRENCY_CODE", "IDR"),
		JWTSecret:         os.Getenv("JWT_SECRET"),
		CronSecret:        os.Getenv("CRON_SECRET"),
		CronSecretHash:    os.Getenv("CRON_SECRET_HASH"),
		SchedulerHeader:   getEnv("SCHEDULER_HEADER", "X-Trusted-Scheduler"),
		FirebaseProjectID: os.Getenv("FIREBASE_PROJECT_ID"),
		FirebaseCredFile:  os.Getenv("FIREBASE_CREDENTIALS"),
		ReadTimeout:       getDuration("HTTP_READ_TIMEOUT", 15*time.Second),
		WriteTimeout:      getDuration("HTTP_WRITE_TIMEOUT", 15*time.Second),
		IdleTimeout:       getDuration("HTTP_IDLE_TIMEOUT", 60*time.Second),
		ShutdownTimeout:   getDuration("HTTP_SHUTDOWN_TIMEOUT", 10*time.Second),
		Jobs: JobDefaults{
			ClockOutGraceHours:   getInt("JOB_CLOCKOUT_GRACE_HOURS", 8),
			NoShowGraceMinutes:   getInt("JOB_NOSHOW_GRACE_MINUTES", 15),
			ReminderHoursBefore:  getInt("JOB_REMINDER_HOURS_BEFORE", 24),
			CartHoursAgo:         getInt("JOB_CART_HOURS_AGO", 24),
			AnalysisDays:         getInt("JOB_ANALYSIS_DAYS", 30),
			PredictionDays:       getInt("JOB_PREDICTION_DAYS", 7),
			PriceMinMultiplier:   getFloat("JOB_PRICE_MIN_MULTIPLIER", 0.5),
			PriceMaxMultiplier:   getFloat("JOB_PRICE_MAX_MULTIPLIER", 2.0),
			SuspiciousWindowHrs:  getInt("JOB_SUSPICIOUS_WINDOW_HOURS", 24),
			RefundThreshold:      getInt("JOB_REFUND_THRESHOLD", 5),
			VoidThreshold:        getInt("JOB_VOID_THRESHOLD", 5),
			DiscountThreshold:    getInt("JOB_DISCOUNT_THRESHOLD", 20),
			FailedLoginThreshold: getInt("JOB_FAILED_LOGIN_THRESHOLD", 10),
			JobLockTTL:           getDuration("JOB_LOCK_TTL", 10*time.Minute),
		},
	}

	if cfg.DatabaseURL == "" {
		return cfg, errors.New("DATABASE_URL is required")
	}
	if cfg.JWTSecret == "" {
		return cfg, errors.New("JWT_SECRET is required")
	}
	if cfg.Jobs.PriceMinMultiplier <= 0 || cfg.Jobs.PriceMaxMultiplier < cfg.Jobs.PriceMinMultiplier {
		return cfg, errors.New("invalid price multiplier band")
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	return val
}

func getInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return n
}

func getFloat(key string, fallback float64) float64 {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return fallback
	}
	return f
}

func getDuration(key string, fallback time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		// Support seconds as integer without suffix.
		if secs, convErr := strconv.Atoi(val); convErr == nil {
			return time.Duration(secs) * time.Second
		}
		return fallback
	}
	return d
}
