package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// ErrMissingBaseURL is returned when API_BASE_URL is not set
var ErrMissingBaseURL = errors.New("API_BASE_URL is required but not set in environment variables")

// Config holds all application configuration
type Config struct {
	ServiceName string
	ServicePort int
	LogLevel    string
	API         APIConfig
	Heartbeat   HeartbeatConfig
	Database    DatabaseConfig
	RabbitMQ    RabbitMQConfig
	Anomaly     AnomalyConfig
}

// APIConfig holds the REST service settings
type APIConfig struct {
	BaseURL string
	// RequestTimeout of zero leaves timeouts to the transport
	RequestTimeout time.Duration
	UserAgent      string
}

// HeartbeatConfig holds health monitor settings
type HeartbeatConfig struct {
	UpStatus string
	// PollInterval of zero disables the recurring refresh
	PollInterval time.Duration
}

// DatabaseConfig holds the operation journal connection settings.
// An empty URL disables the journal.
type DatabaseConfig struct {
	URL string
}

// RabbitMQConfig holds RabbitMQ connection and queue settings.
// An empty URL disables event publishing and remote sync triggers.
type RabbitMQConfig struct {
	URL            string
	EventsExchange string
	SyncExchange   string
	// SyncQueue prefixes the exclusive queue each watch instance consumes
	SyncQueue      string
	SyncRoutingKey string
	DLQQueue       string
	PrefetchCount  int
	// PublishTimeout bounds each event publish
	PublishTimeout time.Duration
}

// AnomalyConfig holds water-quality spike detection settings
type AnomalyConfig struct {
	SpikeThreshold            float64
	MinDataPointsForDetection int
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		ServiceName: getEnv("SERVICE_NAME", "trackmyfish-client"),
		ServicePort: getEnvAsInt("SERVICE_PORT", 8081),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		API: APIConfig{
			BaseURL:        strings.TrimRight(strings.TrimSpace(getEnv("API_BASE_URL", "")), "/"),
			RequestTimeout: getEnvAsDuration("API_REQUEST_TIMEOUT", 0),
			UserAgent:      getEnv("API_USER_AGENT", "trackmyfish-client"),
		},
		Heartbeat: HeartbeatConfig{
			UpStatus:     getEnv("HEARTBEAT_UP_STATUS", "OPERATIONAL"),
			PollInterval: getEnvAsDuration("HEARTBEAT_POLL_INTERVAL", 0),
		},
		Database: DatabaseConfig{
			URL: getEnv("DATABASE_URL", ""),
		},
		RabbitMQ: RabbitMQConfig{
			URL:            getEnv("RABBITMQ_URL", ""),
			EventsExchange: getEnv("RABBITMQ_EVENTS_EXCHANGE", "trackmyfish.client.events.exchange"),
			SyncExchange:   getEnv("RABBITMQ_SYNC_EXCHANGE", "trackmyfish.sync.exchange"),
			SyncQueue:      getEnv("RABBITMQ_SYNC_QUEUE", "trackmyfish.client.sync.queue"),
			SyncRoutingKey: getEnv("RABBITMQ_SYNC_ROUTING_KEY", "resource.changed"),
			DLQQueue:       getEnv("RABBITMQ_DLQ_QUEUE", "trackmyfish.client.sync.dlq"),
			PrefetchCount:  getEnvAsInt("RABBITMQ_PREFETCH", 10),
			PublishTimeout: getEnvAsDuration("RABBITMQ_PUBLISH_TIMEOUT", 5*time.Second),
		},
		Anomaly: AnomalyConfig{
			SpikeThreshold:            getEnvAsFloat("ANOMALY_SPIKE_THRESHOLD", 3.0),
			MinDataPointsForDetection: getEnvAsInt("ANOMALY_MIN_DATA_POINTS", 3),
		},
	}

	// Validate required fields
	if cfg.API.BaseURL == "" {
		return nil, ErrMissingBaseURL
	}
	if !strings.HasPrefix(cfg.API.BaseURL, "http://") && !strings.HasPrefix(cfg.API.BaseURL, "https://") {
		return nil, fmt.Errorf("API_BASE_URL must start with http:// or https://, got %q", cfg.API.BaseURL)
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil || value < 0 {
		return defaultValue
	}
	return value
}
