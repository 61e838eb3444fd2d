package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/habitify/reminders/internal/model"
)

type Config struct {
	// Application
	AppName string
	AppEnv  string
	AppURL  string
	Port    string

	// Database (optional driver switch via ENV, default: sqlite)
	DBDriver     string
	DBConnection string

	// Observability (optional)
	SentryDSN string
	LogLevel  string

	// Email
	EmailFrom    string
	ResendAPIKey string

	// ntfy topics (optional)
	NtfyBaseURL string
	NtfyTopic   string // Prefix of every per-user topic

	// Web Push (optional)
	VAPIDPublicKey  string
	VAPIDPrivateKey string
	VAPIDSubject    string // mailto: or https: contact sent to push services

	// Reminder runs
	ReminderWindow      int // Minutes; must match the trigger interval
	ReminderConcurrency int
	ReminderCallTimeout time.Duration
	ReminderRunBudget   time.Duration
	StreakThreshold     int // Alerts fire for streaks strictly above this
	StreakAlertChannels []model.Channel
	NotifyRatePerSecond float64
	NotifyRateBurst     int

	// Trigger endpoint
	TriggerSecret        string
	TriggerRatePerMinute int
	MetricsEnabled       bool

	// Run report archive (S3-compatible, optional)
	S3Region    string
	S3Bucket    string
	S3AccessKey string
	S3SecretKey string
	S3Endpoint  string // Optional: for non-AWS providers
	S3Prefix    string
}

// Load reads .env (if present) and the environment, exiting on invalid config.
func Load() *Config {
	// Load .env file if it exists
	err := godotenv.Load()
	if err != nil {
		slog.Info("no .env file found, using environment variables")
	}

	cfg, err := FromEnv()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	return cfg
}

// FromEnv builds a Config from the process environment.
func FromEnv() (*Config, error) {
	var missing []string

	cfg := &Config{
		// Application
		AppName: envString("APP_NAME", "Habitify"),
		AppEnv:  envRequired("APP_ENV", &missing), // Required: 'development' or 'production'
		AppURL:  strings.TrimRight(envRequired("APP_URL", &missing), "/"),
		Port:    envString("PORT", "8090"),

		// Database
		DBDriver:     envString("DB_DRIVER", "sqlite"),
		DBConnection: envString("DB_CONNECTION", "./data/habitify.db?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"),

		// Observability
		SentryDSN: envString("SENTRY_DSN", ""),
		LogLevel:  envString("LOG_LEVEL", ""), // Empty: debug in development, info in production

		// Email (RESEND_API_KEY optional; without it email reminders are reported as not configured)
		EmailFrom:    envString("EMAIL_FROM", "noreply@example.com"),
		ResendAPIKey: envString("RESEND_API_KEY", ""),

		NtfyBaseURL: envString("NTFY_BASE_URL", "https://ntfy.sh"),
		NtfyTopic:   envString("NTFY_TOPIC", ""),

		VAPIDPublicKey:  envString("VAPID_PUBLIC_KEY", ""),
		VAPIDPrivateKey: envString("VAPID_PRIVATE_KEY", ""),
		VAPIDSubject:    envString("VAPID_SUBJECT", ""),

		ReminderWindow:      envInt("REMINDER_WINDOW", 5),
		ReminderConcurrency: envInt("REMINDER_CONCURRENCY", 8),
		ReminderCallTimeout: envDuration("REMINDER_CALL_TIMEOUT", 10*time.Second),
		ReminderRunBudget:   envDuration("REMINDER_RUN_BUDGET", 2*time.Minute),
		StreakThreshold:     envInt("STREAK_THRESHOLD", 5),
		NotifyRatePerSecond: envFloat("NOTIFY_RATE_PER_SECOND", 20),
		NotifyRateBurst:     envInt("NOTIFY_RATE_BURST", 10),

		TriggerSecret:        envString("TRIGGER_SECRET", ""),
		TriggerRatePerMinute: envInt("TRIGGER_RATE_PER_MINUTE", 30),
		MetricsEnabled:       envBool("METRICS_ENABLED", true),

		// Storage (S3-compatible - optional run report archive)
		S3Region:    envString("S3_REGION", "us-east-1"),
		S3Bucket:    envString("S3_BUCKET", ""),
		S3AccessKey: envString("S3_ACCESS_KEY", ""),
		S3SecretKey: envString("S3_SECRET_KEY", ""),
		S3Endpoint:  envString("S3_ENDPOINT", ""),
		S3Prefix:    envString("S3_PREFIX", ""),
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("required env vars missing: %s", strings.Join(missing, ", "))
	}

	channels, err := parseChannels(envList("STREAK_ALERT_CHANNELS", []string{"push", "ntfy"}))
	if err != nil {
		return nil, fmt.Errorf("STREAK_ALERT_CHANNELS: %w", err)
	}
	cfg.StreakAlertChannels = channels

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	var errs []error

	if c.AppEnv != "development" && c.AppEnv != "production" {
		errs = append(errs, fmt.Errorf("APP_ENV must be development or production, got %q", c.AppEnv))
	}
	if c.LogLevel != "" {
		var level slog.Level
		if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
			errs = append(errs, fmt.Errorf("LOG_LEVEL: %w", err))
		}
	}
	if c.ReminderWindow < 1 || c.ReminderWindow > 60 {
		errs = append(errs, fmt.Errorf("REMINDER_WINDOW must be between 1 and 60 minutes, got %d", c.ReminderWindow))
	}
	if c.ReminderConcurrency < 1 {
		errs = append(errs, fmt.Errorf("REMINDER_CONCURRENCY must be positive, got %d", c.ReminderConcurrency))
	}

	// Production: the trigger endpoint must not be open
	if c.IsProduction() && c.TriggerSecret == "" {
		errs = append(errs, errors.New("production deployment requires TRIGGER_SECRET"))
	}

	return errors.Join(errs...)
}

func parseChannels(names []string) ([]model.Channel, error) {
	channels := make([]model.Channel, 0, len(names))
	for _, name := range names {
		ch, err := model.ParseChannel(name)
		if err != nil {
			return nil, err
		}
		channels = append(channels, ch)
	}
	return channels, nil
}

func envString(key, def string) string {
	value := os.Getenv(key)
	if value == "" {
		value = def
	}
	return value
}

func envBool(key string, def bool) bool {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		slog.Warn("config invalid bool, using default", "key", key, "value", v, "default", def)
		return def
	}
	return b
}

func envInt(key string, def int) int {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		slog.Warn("config invalid int, using default", "key", key, "value", v, "default", def)
		return def
	}
	return n
}

func envFloat(key string, def float64) float64 {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		slog.Warn("config invalid float, using default", "key", key, "value", v, "default", def)
		return def
	}
	return f
}

func envDuration(key string, def time.Duration) time.Duration {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		slog.Warn("config invalid duration, using default", "key", key, "value", v, "default", def)
		return def
	}
	return d
}

// envList splits a comma separated value, dropping empty items.
func envList(key string, def []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func envRequired(key string, missing *[]string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	*missing = append(*missing, key)
	return ""
}

func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}
