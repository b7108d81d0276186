package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultHTTPAddr          = ":8080"
	defaultDatabaseURL       = "file:hotelbooking.db?_pragma=foreign_keys(1)"
	defaultJWTSecret         = "change-me-jwt-secret"
	defaultJWTAccessTTL      = "24h"
	defaultJWTRefreshTTL     = "720h"
	defaultRoomLockTTL       = "10s"
	defaultKafkaTopic        = "hotel.events"
	defaultSMTPPort          = "587"
	defaultSMTPTimeout       = "10s"
	defaultNotifyQueueSize   = "256"
	defaultGatewayTimeout    = "10s"
	defaultGatewayFailure    = "0.05"
	defaultNoShowCron        = "0 15 0 * * *"
	defaultStalePaymentCron  = "0 */5 * * * *"
	defaultStalePaymentAfter = "30m"
	defaultShutdownTimeout   = "15s"
)

type Config struct {
	AppEnv   string
	HTTPAddr string
	LogLevel string

	DatabaseURL string
	AutoMigrate bool

	JWTSecret     string
	JWTAccessTTL  time.Duration
	JWTRefreshTTL time.Duration
	// RefreshTokenPepper is mixed into refresh token hashes.
	RefreshTokenPepper string

	// RedisAddr empty disables the cross-instance room lock.
	RedisAddr     string
	RedisPassword string
	RoomLockTTL   time.Duration

	// KafkaBrokers empty disables event streaming.
	KafkaBrokers []string
	KafkaTopic   string

	// SMTPHost empty disables guest emails.
	SMTPHost     string
	SMTPPort     string
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string
	SMTPTimeout  time.Duration

	// NotifyQueueSize bounds the events waiting for background delivery.
	NotifyQueueSize int

	GatewayFailureRate float64
	GatewayTimeout     time.Duration

	NoShowCron        string
	StalePaymentCron  string
	StalePaymentAfter time.Duration

	InternalToken      string
	InternalAllowedIPs []string

	CORSAllowedOrigins []string
	ShutdownTimeout    time.Duration
}

// Load reads .env when present and then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	return FromEnv()
}

func FromEnv() (*Config, error) {
	cfg := &Config{
		AppEnv:             strings.ToLower(strings.TrimSpace(getEnv("APP_ENV", "dev"))),
		HTTPAddr:           strings.TrimSpace(getEnv("HTTP_ADDR", defaultHTTPAddr)),
		LogLevel:           strings.TrimSpace(getEnv("LOG_LEVEL", "info")),
		DatabaseURL:        strings.TrimSpace(getEnv("DATABASE_URL", defaultDatabaseURL)),
		JWTSecret:          strings.TrimSpace(getEnv("JWT_SECRET", defaultJWTSecret)),
		RefreshTokenPepper: os.Getenv("REFRESH_TOKEN_PEPPER"),
		RedisAddr:          strings.TrimSpace(os.Getenv("REDIS_ADDR")),
		RedisPassword:      os.Getenv("REDIS_PASSWORD"),
		KafkaBrokers:       splitList(os.Getenv("KAFKA_BROKERS")),
		KafkaTopic:         strings.TrimSpace(getEnv("KAFKA_TOPIC", defaultKafkaTopic)),
		SMTPHost:           strings.TrimSpace(os.Getenv("SMTP_HOST")),
		SMTPPort:           strings.TrimSpace(getEnv("SMTP_PORT", defaultSMTPPort)),
		SMTPUsername:       os.Getenv("SMTP_USERNAME"),
		SMTPPassword:       os.Getenv("SMTP_PASSWORD"),
		SMTPFrom:           strings.TrimSpace(getEnv("SMTP_FROM", "reservations@hotel.local")),
		NoShowCron:         strings.TrimSpace(getEnv("NO_SHOW_CRON", defaultNoShowCron)),
		StalePaymentCron:   strings.TrimSpace(getEnv("STALE_PAYMENT_CRON", defaultStalePaymentCron)),
		InternalToken:      strings.TrimSpace(os.Getenv("INTERNAL_TOKEN")),
		InternalAllowedIPs: splitList(os.Getenv("INTERNAL_ALLOWED_IPS")),
		CORSAllowedOrigins: splitList(os.Getenv("CORS_ALLOWED_ORIGINS")),
		AutoMigrate:        parseBoolEnv("DB_AUTO_MIGRATE", "true"),
	}

	var err error
	if cfg.JWTAccessTTL, err = parseDurationEnv("JWT_ACCESS_TTL", defaultJWTAccessTTL); err != nil {
		return nil, err
	}
	if cfg.JWTRefreshTTL, err = parseDurationEnv("JWT_REFRESH_TTL", defaultJWTRefreshTTL); err != nil {
		return nil, err
	}
	if cfg.SMTPTimeout, err = parseDurationEnv("SMTP_TIMEOUT", defaultSMTPTimeout); err != nil {
		return nil, err
	}
	if cfg.NotifyQueueSize, err = parseIntEnv("NOTIFY_QUEUE_SIZE", defaultNotifyQueueSize); err != nil {
		return nil, err
	}
	if cfg.RoomLockTTL, err = parseDurationEnv("ROOM_LOCK_TTL", defaultRoomLockTTL); err != nil {
		return nil, err
	}
	if cfg.GatewayTimeout, err = parseDurationEnv("GATEWAY_TIMEOUT", defaultGatewayTimeout); err != nil {
		return nil, err
	}
	if cfg.StalePaymentAfter, err = parseDurationEnv("STALE_PAYMENT_AFTER", defaultStalePaymentAfter); err != nil {
		return nil, err
	}
	if cfg.ShutdownTimeout, err = parseDurationEnv("SHUTDOWN_TIMEOUT", defaultShutdownTimeout); err != nil {
		return nil, err
	}
	if cfg.GatewayFailureRate, err = parseFloatEnv("GATEWAY_FAILURE_RATE", defaultGatewayFailure); err != nil {
		return nil, err
	}

	if err := validateConfig(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) IsProduction() bool {
	return isProdLike(c.AppEnv)
}

func validateConfig(cfg *Config) error {
	if cfg.HTTPAddr == "" {
		return fmt.Errorf("HTTP_ADDR must not be empty")
	}
	if cfg.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL must not be empty")
	}
	if cfg.JWTAccessTTL <= 0 {
		return fmt.Errorf("JWT_ACCESS_TTL must be > 0")
	}
	if cfg.JWTRefreshTTL <= cfg.JWTAccessTTL {
		return fmt.Errorf("JWT_REFRESH_TTL must be longer than JWT_ACCESS_TTL")
	}
	if cfg.RoomLockTTL <= 0 {
		return fmt.Errorf("ROOM_LOCK_TTL must be > 0")
	}
	if cfg.SMTPTimeout <= 0 {
		return fmt.Errorf("SMTP_TIMEOUT must be > 0")
	}
	if cfg.NotifyQueueSize <= 0 {
		return fmt.Errorf("NOTIFY_QUEUE_SIZE must be > 0")
	}
	if cfg.GatewayTimeout <= 0 {
		return fmt.Errorf("GATEWAY_TIMEOUT must be > 0")
	}
	if cfg.StalePaymentAfter <= cfg.GatewayTimeout {
		// otherwise the sweep fails charges that are still at the gateway
		return fmt.Errorf("STALE_PAYMENT_AFTER must be longer than GATEWAY_TIMEOUT")
	}
	if cfg.GatewayFailureRate < 0 || cfg.GatewayFailureRate > 1 {
		return fmt.Errorf("GATEWAY_FAILURE_RATE must be between 0 and 1")
	}
	if len(cfg.KafkaBrokers) > 0 && cfg.KafkaTopic == "" {
		return fmt.Errorf("KAFKA_TOPIC must be set when KAFKA_BROKERS is")
	}

	if isProdLike(cfg.AppEnv) {
		if isEmptyOrDefault(cfg.JWTSecret, defaultJWTSecret) {
			return fmt.Errorf("in prod/release JWT_SECRET must be set and not default")
		}
		if len(cfg.JWTSecret) < 32 {
			return fmt.Errorf("in prod/release JWT_SECRET must be at least 32 characters")
		}
	}
	return nil
}

func isProdLike(env string) bool {
	env = strings.ToLower(strings.TrimSpace(env))
	return env == "prod" || env == "production" || env == "release"
}

func isEmptyOrDefault(v, def string) bool {
	trimmed := strings.TrimSpace(v)
	return trimmed == "" || trimmed == def
}

func parseDurationEnv(name, fallback string) (time.Duration, error) {
	value := strings.TrimSpace(getEnv(name, fallback))
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", name, value, err)
	}
	return d, nil
}

func parseFloatEnv(name, fallback string) (float64, error) {
	value := strings.TrimSpace(getEnv(name, fallback))
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", name, value, err)
	}
	return f, nil
}

func parseIntEnv(name, fallback string) (int, error) {
	value := strings.TrimSpace(getEnv(name, fallback))
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", name, value, err)
	}
	return n, nil
}

func parseBoolEnv(name, fallback string) bool {
	value := strings.ToLower(strings.TrimSpace(getEnv(name, fallback)))
	return value == "1" || value == "true" || value == "yes" || value == "on"
}

func getEnv(name, fallback string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return fallback
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
