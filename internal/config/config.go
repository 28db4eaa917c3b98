package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	StorageDriverPostgres = "postgres"
	StorageDriverMemory   = "memory"
)

type Config struct {
	HTTPPort           int      `env:"HTTP_PORT"`
	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS"`
	LogLevel           string   `env:"LOG_LEVEL"`
	StorageDriver      string   `env:"STORAGE_DRIVER"`

	DBConfig struct {
		DBHost     string `env:"DB_HOST"`
		DBPort     int    `env:"DB_PORT"`
		DBUser     string `env:"DB_USER"`
		DBPassword string `env:"DB_PASSWORD"`
		DBName     string `env:"DB_NAME"`
		DBSSLMode  string `env:"DB_SSLMODE"`
	}
	DBConnectRetries    int           `env:"DB_CONNECT_RETRIES"`
	DBConnectRetryDelay time.Duration `env:"DB_CONNECT_RETRY_DELAY"`
	DBTxRetries         int           `env:"DB_TX_RETRIES"`
	MigrationsPath      string        `env:"MIGRATIONS_PATH"`

	KafkaEnabled            bool   `env:"KAFKA_ENABLED"`
	KafkaURL                string `env:"KAFKA_BROKER_URL"`
	KafkaOrderEventsTopic   string `env:"KAFKA_ORDER_EVENTS_TOPIC"`
	KafkaPaymentEventsTopic string `env:"KAFKA_PAYMENT_EVENTS_TOPIC"`
	KafkaPaymentResultTopic string `env:"KAFKA_PAYMENT_RESULTS_TOPIC"`
	KafkaConsumerGroup      string `env:"KAFKA_CONSUMER_GROUP"`

	OutboxPollInterval time.Duration `env:"OUTBOX_POLL_INTERVAL"`
	OutboxPollTimeout  time.Duration `env:"OUTBOX_POLL_TIMEOUT"`
	OutboxBatchSize    int           `env:"OUTBOX_BATCH_SIZE"`
	OutboxMaxAttempts  int           `env:"OUTBOX_MAX_ATTEMPTS"`

	// PaymentReservePending makes pending payments count against the
	// remaining balance when new payments are created.
	PaymentReservePending bool `env:"PAYMENT_RESERVE_PENDING"`
}

func LoadConfig() (*Config, error) {
	cfg := &Config{}
	var err error

	if cfg.HTTPPort, err = getEnvAsInt("HTTP_PORT", 8080); err != nil {
		return nil, err
	}
	cfg.CORSAllowedOrigins = getEnvAsList("CORS_ALLOWED_ORIGINS")
	cfg.LogLevel = getEnvOrDefault("LOG_LEVEL", "info")

	cfg.StorageDriver = strings.ToLower(getEnvOrDefault("STORAGE_DRIVER", StorageDriverPostgres))
	if cfg.StorageDriver != StorageDriverPostgres && cfg.StorageDriver != StorageDriverMemory {
		return nil, fmt.Errorf("invalid STORAGE_DRIVER %q: must be %s or %s", cfg.StorageDriver, StorageDriverPostgres, StorageDriverMemory)
	}

	cfg.DBConfig.DBHost = getEnvOrDefault("DB_HOST", "localhost")
	if cfg.DBConfig.DBPort, err = getEnvAsInt("DB_PORT", 5432); err != nil {
		return nil, err
	}
	cfg.DBConfig.DBUser = getEnvOrDefault("DB_USER", "postgres")
	cfg.DBConfig.DBPassword = getEnvOrDefault("DB_PASSWORD", "postgres")
	cfg.DBConfig.DBName = getEnvOrDefault("DB_NAME", "ordersystem")
	cfg.DBConfig.DBSSLMode = getEnvOrDefault("DB_SSLMODE", "disable")

	if cfg.DBConnectRetries, err = getEnvAsInt("DB_CONNECT_RETRIES", 10); err != nil {
		return nil, err
	}
	if cfg.DBConnectRetryDelay, err = getEnvAsDuration("DB_CONNECT_RETRY_DELAY", "5s"); err != nil {
		return nil, err
	}
	if cfg.DBTxRetries, err = getEnvAsInt("DB_TX_RETRIES", 3); err != nil {
		return nil, err
	}
	cfg.MigrationsPath = getEnvOrDefault("MIGRATIONS_PATH", "file://migrations")

	if cfg.KafkaEnabled, err = getEnvAsBool("KAFKA_ENABLED", false); err != nil {
		return nil, err
	}
	cfg.KafkaURL = getEnvOrDefault("KAFKA_BROKER_URL", "localhost:9092")
	cfg.KafkaOrderEventsTopic = getEnvOrDefault("KAFKA_ORDER_EVENTS_TOPIC", "order_events")
	cfg.KafkaPaymentEventsTopic = getEnvOrDefault("KAFKA_PAYMENT_EVENTS_TOPIC", "payment_events")
	cfg.KafkaPaymentResultTopic = getEnvOrDefault("KAFKA_PAYMENT_RESULTS_TOPIC", "payment_gateway_results")
	cfg.KafkaConsumerGroup = getEnvOrDefault("KAFKA_CONSUMER_GROUP", "ordersystem-group")

	if cfg.OutboxPollInterval, err = getEnvAsDuration("OUTBOX_POLL_INTERVAL", "1s"); err != nil {
		return nil, err
	}
	if cfg.OutboxPollTimeout, err = getEnvAsDuration("OUTBOX_POLL_TIMEOUT", "5s"); err != nil {
		return nil, err
	}
	if cfg.OutboxBatchSize, err = getEnvAsInt("OUTBOX_BATCH_SIZE", 50); err != nil {
		return nil, err
	}
	if cfg.OutboxMaxAttempts, err = getEnvAsInt("OUTBOX_MAX_ATTEMPTS", 5); err != nil {
		return nil, err
	}

	if cfg.PaymentReservePending, err = getEnvAsBool("PAYMENT_RESERVE_PENDING", false); err != nil {
		return nil, err
	}

	return cfg, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) (int, error) {
	value, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue, nil
	}
	parsed, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return parsed, nil
}

func getEnvAsBool(key string, defaultValue bool) (bool, error) {
	value, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue, nil
	}
	parsed, err := strconv.ParseBool(strings.TrimSpace(value))
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return parsed, nil
}

func getEnvAsDuration(key, defaultValue string) (time.Duration, error) {
	parsed, err := time.ParseDuration(getEnvOrDefault(key, defaultValue))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return parsed, nil
}

func getEnvAsList(key string) []string {
	value := getEnvOrDefault(key, "")
	if value == "" {
		return nil
	}
	var list []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			list = append(list, item)
		}
	}
	return list
}

func (c *Config) GetDBMigrationConnectionString() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.DBConfig.DBUser, c.DBConfig.DBPassword, c.DBConfig.DBHost, c.DBConfig.DBPort, c.DBConfig.DBName, c.DBConfig.DBSSLMode)
}

func (c *Config) GetKafkaBrokers() []string {
	return strings.Split(c.KafkaURL, ",")
}

func (c *Config) HTTPAddr() string {
	return fmt.Sprintf(":%d", c.HTTPPort)
}
