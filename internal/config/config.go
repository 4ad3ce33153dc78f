// Package config provides configuration structures and validation for the rice supply
// chain services. Values come from an optional .env file under ./configs, the process
// environment and the defaults registered in load.go.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Store backends understood by the record store wiring.
const (
	StoreBackendMemory   = "memory"
	StoreBackendFile     = "file"
	StoreBackendMongo    = "mongo"
	StoreBackendPostgres = "postgres"
)

// EnvDevelopment enables error detail in API responses.
const EnvDevelopment = "development"

// Config holds the complete configuration for both binaries. Each field groups the
// settings of one subsystem and is validated once during startup.
type Config struct {
	Application ApplicationConfig
	Logging     LoggingConfig
	Server      ServerConfig
	RateLimit   RateLimitConfig
	Store       StoreConfig
	Kafka       KafkaConfig
	Postgres    PostgresConfig
	MongoDB     MongoDBConfig
	Outbox      OutboxConfig
	WorkerPool  WorkerPoolConfig
	Solana      SolanaConfig
	Metrics     MetricsConfig
	History     HistoryConfig
}

// ApplicationConfig contains general application configuration
type ApplicationConfig struct {
	Env  string
	Name string
}

// IsDevelopment reports whether internal error detail may be exposed to API callers.
func (a ApplicationConfig) IsDevelopment() bool {
	return strings.EqualFold(a.Env, EnvDevelopment)
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level string
}

// ServerConfig contains HTTP server configuration settings
type ServerConfig struct {
	Port            int           // Port to listen on
	ShutdownTimeout time.Duration // Grace period for server shutdown
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	BodyLimitBytes  int64    // Largest accepted request body
	AllowedOrigins  []string // CORS allow-list
}

// RateLimitConfig controls the optional per-client request limiter.
type RateLimitConfig struct {
	Enabled           bool
	RequestsPerSecond float64
	Burst             int
}

// StoreConfig selects where record snapshots are kept.
type StoreConfig struct {
	Backend string
	DataDir string // used by the file backend
}

// KafkaConfig contains Kafka configuration
type KafkaConfig struct {
	Enabled           bool
	Brokers           string
	RecordEventsTopic string
	NumPartitions     int
	ReplicationFactor int
	ConsumerGroup     string
	MinBytes          int
	MaxBytes          int
	MaxWait           time.Duration
	StartOffset       int64
	DLQTopic          string
}

// BrokerList splits the comma separated broker setting.
func (k KafkaConfig) BrokerList() []string {
	return splitList(k.Brokers)
}

// PostgresConfig contains PostgreSQL configuration
type PostgresConfig struct {
	URL             string
	MaxConns        int32
	MinConns        int32
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	MigrationsPath  string
}

// MongoDBConfig contains MongoDB configuration
type MongoDBConfig struct {
	URI             string
	Database        string
	Timeout         time.Duration
	MaxPoolSize     uint64
	MinPoolSize     uint64
	MaxConnIdleTime time.Duration
}

// OutboxConfig sizes the in-memory notification queue.
type OutboxConfig struct {
	QueueSize       int
	DeliveryTimeout time.Duration // Upper bound for a single notifier call
	MaxAttempts     int
	RetryBackoff    time.Duration
}

// WorkerPoolConfig contains worker pool configuration
type WorkerPoolConfig struct {
	Size int
}

// SolanaConfig configures the proof-of-interaction transfer sent for new records.
type SolanaConfig struct {
	Enabled              bool
	RPCURL               string
	WalletPrivateKey     string // keypair file path or base58 secret key
	ProofLamports        uint64
	Commitment           string
	BalanceCheckSchedule string // cron spec, empty disables the monitor
}

// MetricsConfig toggles the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool
	Path    string
}

// HistoryConfig enables the record history endpoints backed by the trace recorder's
// MongoDB collection.
type HistoryConfig struct {
	Enabled bool
}

// validate checks every value and reports all problems at once.
func (c *Config) validate() error {
	var validationErrors []string

	if c.Application.Name == "" {
		validationErrors = append(validationErrors, "APP_NAME is required")
	}

	// Server
	if c.Server.Port <= 0 {
		validationErrors = append(validationErrors, "SERVER_PORT must be greater than 0")
	}
	if c.Server.ShutdownTimeout <= 0 {
		validationErrors = append(validationErrors, "SERVER_SHUTDOWN_TIMEOUT must be greater than 0")
	}
	if c.Server.ReadTimeout <= 0 {
		validationErrors = append(validationErrors, "SERVER_READ_TIMEOUT must be greater than 0")
	}
	if c.Server.WriteTimeout <= 0 {
		validationErrors = append(validationErrors, "SERVER_WRITE_TIMEOUT must be greater than 0")
	}
	if c.Server.IdleTimeout <= 0 {
		validationErrors = append(validationErrors, "SERVER_IDLE_TIMEOUT must be greater than 0")
	}
	if c.Server.BodyLimitBytes <= 0 {
		validationErrors = append(validationErrors, "SERVER_BODY_LIMIT_BYTES must be greater than 0")
	}

	if c.RateLimit.Enabled {
		if c.RateLimit.RequestsPerSecond <= 0 {
			validationErrors = append(validationErrors, "RATE_LIMIT_REQUESTS_PER_SECOND must be greater than 0")
		}
		if c.RateLimit.Burst <= 0 {
			validationErrors = append(validationErrors, "RATE_LIMIT_BURST must be greater than 0")
		}
	}

	// Store
	switch c.Store.Backend {
	case StoreBackendMemory, StoreBackendMongo, StoreBackendPostgres:
	case StoreBackendFile:
		if c.Store.DataDir == "" {
			validationErrors = append(validationErrors, "STORE_DATA_DIR is required for the file backend")
		}
	default:
		validationErrors = append(validationErrors,
			fmt.Sprintf("STORE_BACKEND must be one of: %s, %s, %s, %s",
				StoreBackendMemory, StoreBackendFile, StoreBackendMongo, StoreBackendPostgres))
	}

	// Kafka
	if len(c.Kafka.BrokerList()) == 0 {
		validationErrors = append(validationErrors, "KAFKA_BROKERS is required")
	}
	if c.Kafka.RecordEventsTopic == "" {
		validationErrors = append(validationErrors, "KAFKA_RECORD_EVENTS_TOPIC is required")
	}
	if c.Kafka.ConsumerGroup == "" {
		validationErrors = append(validationErrors, "KAFKA_CONSUMER_GROUP is required")
	}
	if c.Kafka.MinBytes <= 0 {
		validationErrors = append(validationErrors, "KAFKA_CONSUMER_MIN_BYTES must be greater than 0")
	}
	if c.Kafka.MaxBytes <= 0 {
		validationErrors = append(validationErrors, "KAFKA_CONSUMER_MAX_BYTES must be greater than 0")
	}
	if c.Kafka.MaxWait <= 0 {
		validationErrors = append(validationErrors, "KAFKA_CONSUMER_MAX_WAIT must be greater than 0")
	}
	if c.Kafka.DLQTopic == "" {
		validationErrors = append(validationErrors, "KAFKA_DLQ_TOPIC is required")
	}

	// PostgreSQL
	if c.Postgres.URL == "" {
		validationErrors = append(validationErrors, "POSTGRES_URL is required")
	}
	if c.Postgres.MaxConns <= 0 {
		validationErrors = append(validationErrors, "POSTGRES_MAX_CONNS must be greater than 0")
	}
	if c.Postgres.MinConns <= 0 {
		validationErrors = append(validationErrors, "POSTGRES_MIN_CONNS must be greater than 0")
	}
	if c.Postgres.ConnMaxLifetime <= 0 {
		validationErrors = append(validationErrors, "POSTGRES_MAX_CONN_LIFETIME must be greater than 0")
	}
	if c.Postgres.ConnMaxIdleTime <= 0 {
		validationErrors = append(validationErrors, "POSTGRES_MAX_CONN_IDLE_TIME must be greater than 0")
	}

	// MongoDB
	if c.MongoDB.URI == "" {
		validationErrors = append(validationErrors, "MONGO_URI is required")
	}
	if c.MongoDB.Database == "" {
		validationErrors = append(validationErrors, "MONGO_DATABASE is required")
	}
	if c.MongoDB.Timeout <= 0 {
		validationErrors = append(validationErrors, "MONGO_TIMEOUT must be greater than 0")
	}
	if c.MongoDB.MaxPoolSize <= 0 {
		validationErrors = append(validationErrors, "MONGO_MAX_POOL_SIZE must be greater than 0")
	}

	// Outbox
	if c.Outbox.QueueSize <= 0 {
		validationErrors = append(validationErrors, "OUTBOX_QUEUE_SIZE must be greater than 0")
	}
	if c.Outbox.DeliveryTimeout <= 0 {
		validationErrors = append(validationErrors, "OUTBOX_DELIVERY_TIMEOUT must be greater than 0")
	}
	if c.Outbox.MaxAttempts <= 0 {
		validationErrors = append(validationErrors, "OUTBOX_MAX_ATTEMPTS must be greater than 0")
	}
	if c.Outbox.RetryBackoff < 0 {
		validationErrors = append(validationErrors, "OUTBOX_RETRY_BACKOFF must not be negative")
	}

	if c.WorkerPool.Size <= 0 {
		validationErrors = append(validationErrors, "WORKER_POOL_SIZE must be greater than 0")
	}

	// Solana
	if c.Solana.Enabled && c.Solana.RPCURL == "" {
		validationErrors = append(validationErrors, "SOLANA_RPC_URL is required when SOLANA_ENABLED is true")
	}
	if c.Solana.ProofLamports == 0 {
		validationErrors = append(validationErrors, "SOLANA_PROOF_LAMPORTS must be greater than 0")
	}

	if c.Metrics.Enabled && !strings.HasPrefix(c.Metrics.Path, "/") {
		validationErrors = append(validationErrors, "METRICS_PATH must start with /")
	}

	if len(validationErrors) > 0 {
		return errors.New(strings.Join(validationErrors, ", "))
	}

	return nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
