package config

import (
	"log/slog"
	"os"
	"strconv"
	"time"

	"tessera/internal/cache"
	"tessera/internal/database"
	"tessera/internal/external"
	"tessera/internal/messaging"
	"tessera/internal/search"

	"github.com/joho/godotenv"
)

type Config struct {
	Port           string
	GinMode        string
	LogLevel       string
	LogFormat      string
	RequestTimeout time.Duration

	// TokenSecret signs redemption tokens. All replicas must share it or
	// tokens minted by one instance fail validation on another.
	TokenSecret string

	HoldSweepInterval time.Duration

	Database      database.Config
	NATS          messaging.Config
	Valkey        cache.Config
	Elasticsearch search.Config
	Payment       external.PaymentConfig
}

// Load reads configuration from the environment, after loading .env if one
// is present in the working directory.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		slog.Debug("No .env file loaded", "error", err)
	}

	return &Config{
		Port:           getEnv("PORT", "8081"),
		GinMode:        getEnv("GIN_MODE", "debug"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		LogFormat:      getEnv("LOG_FORMAT", "json"),
		RequestTimeout: time.Duration(getEnvInt("REQUEST_TIMEOUT_SEC", 30)) * time.Second,

		TokenSecret: getEnv("TOKEN_SECRET", "dev-only-token-secret"),

		HoldSweepInterval: time.Duration(getEnvInt("HOLD_SWEEP_INTERVAL_SEC", 30)) * time.Second,

		Database: database.Config{
			Host:               getEnv("DB_HOST", "localhost"),
			Port:               getEnvInt("DB_PORT", 5432),
			User:               getEnv("DB_USER", "tessera"),
			Password:           getEnv("DB_PASSWORD", "tessera123"),
			DBName:             getEnv("DB_NAME", "tessera"),
			SSLMode:            getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:       getEnvInt("DB_MAX_OPEN_CONNS", 100),
			MaxIdleConns:       getEnvInt("DB_MAX_IDLE_CONNS", 25),
			ConnMaxLifetimeMin: getEnvInt("DB_CONN_MAX_LIFETIME_MIN", 5),
			ConnMaxIdleTimeMin: getEnvInt("DB_CONN_MAX_IDLE_TIME_MIN", 1),
		},

		NATS: messaging.Config{
			URL:       getEnv("NATS_URL", "nats://localhost:4222"),
			ClusterID: getEnv("NATS_CLUSTER_ID", "tessera"),
			ClientID:  getEnv("NATS_CLIENT_ID", "tessera-api"),
		},

		Valkey: cache.Config{
			Addr:         getEnv("VALKEY_ADDR", "localhost:6379"),
			Password:     getEnv("VALKEY_PASSWORD", ""),
			UsersHashKey: getEnv("VALKEY_USERS_HASH_KEY", "users:auth"),
		},

		Elasticsearch: search.Config{
			URL:        getEnv("ELASTICSEARCH_URL", ""),
			Index:      getEnv("ELASTICSEARCH_INDEX", "events"),
			Username:   getEnv("ELASTICSEARCH_USERNAME", ""),
			Password:   getEnv("ELASTICSEARCH_PASSWORD", ""),
			MaxRetries: getEnvInt("ELASTICSEARCH_MAX_RETRIES", 3),
		},

		Payment: external.PaymentConfig{
			Mode:       getEnv("PAYMENT_MODE", "mock"),
			BaseURL:    getEnv("PAYMENT_GATEWAY_URL", ""),
			MerchantID: getEnv("PAYMENT_MERCHANT_ID", ""),
			SecretKey:  getEnv("PAYMENT_SECRET_KEY", ""),
			Timeout:    time.Duration(getEnvInt("PAYMENT_TIMEOUT_SEC", 30)) * time.Second,
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
