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

// Event bus backends.
const (
	EventBusNoop      = "noop"
	EventBusInProcess = "inprocess"
	EventBusRabbitMQ  = "rabbitmq"
	EventBusKafka     = "kafka"
)

// Config holds application configuration.
type Config struct {
	// Application
	AppEnv       string
	LogLevel     string
	LogFormat    string
	LogAddSource bool
	UserID       string

	// Storage
	DatabaseURL      string
	DatabaseMaxConns int
	RedisURL         string

	// Messaging
	EventBus         string
	RabbitMQURL      string
	RabbitMQExchange string
	KafkaBrokers     []string
	KafkaTopic       string

	// Outbox
	OutboxPollInterval    time.Duration
	OutboxBatchSize       int
	OutboxMaxRetries      int
	OutboxRetentionDays   int
	OutboxCleanupInterval time.Duration

	// Order service
	OrderServiceURL       string
	OrderServiceTimeout   time.Duration
	OrderBreakerThreshold int
	OrderBreakerCooldown  time.Duration

	// Scanner
	ScanInterval    time.Duration
	ScanConcurrency int
	ScanLockTTL     time.Duration
	ScanOnStart     bool

	// Delivery fees in cents
	DeliveryFeeStandard int64
	DeliveryFeeExpress  int64
	DeliveryFeeSameDay  int64

	// Surfaces
	HealthAddr   string
	MCPAddr      string
	MCPAuthToken string
}

// Load reads configuration from the environment, after loading .env if present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		AppEnv:       getEnv("APP_ENV", "development"),
		LogLevel:     getEnv("LOG_LEVEL", "info"),
		LogFormat:    getEnv("LOG_FORMAT", "text"),
		LogAddSource: getBoolEnv("LOG_ADD_SOURCE", false),
		UserID:       getEnv("FLORA_USER_ID", "00000000-0000-0000-0000-000000000001"),

		DatabaseURL:      getEnv("DATABASE_URL", "sqlite://flora.db"),
		DatabaseMaxConns: getIntEnv("DATABASE_MAX_CONNS", 10),
		RedisURL:         getEnv("REDIS_URL", ""),

		EventBus:         getEnv("EVENT_BUS", EventBusInProcess),
		RabbitMQURL:      getEnv("RABBITMQ_URL", ""),
		RabbitMQExchange: getEnv("RABBITMQ_EXCHANGE", "flora.events"),
		KafkaBrokers:     getListEnv("KAFKA_BROKERS"),
		KafkaTopic:       getEnv("KAFKA_TOPIC", "flora.subscriptions"),

		OutboxPollInterval:    getDurationEnv("OUTBOX_POLL_INTERVAL", time.Second),
		OutboxBatchSize:       getIntEnv("OUTBOX_BATCH_SIZE", 100),
		OutboxMaxRetries:      getIntEnv("OUTBOX_MAX_RETRIES", 5),
		OutboxRetentionDays:   getIntEnv("OUTBOX_RETENTION_DAYS", 14),
		OutboxCleanupInterval: getDurationEnv("OUTBOX_CLEANUP_INTERVAL", 24*time.Hour),

		OrderServiceURL:       getEnv("ORDER_SERVICE_URL", ""),
		OrderServiceTimeout:   getDurationEnv("ORDER_SERVICE_TIMEOUT", 10*time.Second),
		OrderBreakerThreshold: getIntEnv("ORDER_BREAKER_THRESHOLD", 5),
		OrderBreakerCooldown:  getDurationEnv("ORDER_BREAKER_COOLDOWN", 30*time.Second),

		ScanInterval:    getDurationEnv("SCAN_INTERVAL", time.Hour),
		ScanConcurrency: getIntEnv("SCAN_CONCURRENCY", 4),
		ScanLockTTL:     getDurationEnv("SCAN_LOCK_TTL", 15*time.Minute),
		ScanOnStart:     getBoolEnv("SCAN_ON_START", true),

		DeliveryFeeStandard: getInt64Env("DELIVERY_FEE_STANDARD", 899),
		DeliveryFeeExpress:  getInt64Env("DELIVERY_FEE_EXPRESS", 1599),
		DeliveryFeeSameDay:  getInt64Env("DELIVERY_FEE_SAME_DAY", 2499),

		HealthAddr:   getEnv("HEALTH_ADDR", "0.0.0.0:8081"),
		MCPAddr:      getEnv("MCP_ADDR", "0.0.0.0:8082"),
		MCPAuthToken: getEnv("MCP_AUTH_TOKEN", ""),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects combinations that cannot start.
func (c *Config) Validate() error {
	var errs []error
	switch c.EventBus {
	case EventBusNoop, EventBusInProcess:
	case EventBusRabbitMQ:
		if c.RabbitMQURL == "" {
			errs = append(errs, errors.New("RABBITMQ_URL is required when EVENT_BUS=rabbitmq"))
		}
	case EventBusKafka:
		if len(c.KafkaBrokers) == 0 {
			errs = append(errs, errors.New("KAFKA_BROKERS is required when EVENT_BUS=kafka"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown EVENT_BUS %q", c.EventBus))
	}
	if c.ScanConcurrency < 1 {
		errs = append(errs, errors.New("SCAN_CONCURRENCY must be at least 1"))
	}
	if c.DeliveryFeeStandard < 0 || c.DeliveryFeeExpress < 0 || c.DeliveryFeeSameDay < 0 {
		errs = append(errs, errors.New("delivery fees must not be negative"))
	}
	return errors.Join(errs...)
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getInt64Env(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.ParseInt(value, 10, 64); err == nil {
			return i
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getListEnv(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
