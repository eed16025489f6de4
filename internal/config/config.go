package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
)

// Config holds application configuration
type Config struct {
	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string

	ServerPort     string
	AllowedOrigins string

	Salt            string
	SplitPercentage int
	ExperimentsFile string

	ModelDir         string
	DefaultLimit     int
	CatalogBatchSize int

	RedisURL        string
	RateLimit       string
	CacheTTLSeconds int

	ServerDebugMode bool
	EnableHSTS      bool
	OTELEnabled     bool
	OTELEndpoint    string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		PostgresHost:     getEnv("POSTGRES_HOST", ""),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresUser:     getEnv("POSTGRES_USER", ""),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", ""),
		PostgresDB:       getEnv("POSTGRES_DB", ""),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),
		ServerPort:       getEnv("SERVER_PORT", "8080"),
		AllowedOrigins:   getEnv("ALLOWED_ORIGINS", ""),
		Salt:             getEnv("SALT", "random_salt_value"),
		SplitPercentage:  getEnvInt("SPLIT_PERCENTAGE", 50),
		ExperimentsFile:  getEnv("EXPERIMENTS_CONFIG", ""),
		ModelDir:         getEnv("MODEL_DIR", "models"),
		DefaultLimit:     getEnvInt("DEFAULT_RECOMMENDATION_LIMIT", 5),
		CatalogBatchSize: getEnvInt("CATALOG_BATCH_SIZE", 100000),
		RedisURL:         getEnv("REDIS_URL", ""),
		RateLimit:        getEnv("RATE_LIMIT", "20-S"),
		CacheTTLSeconds:  getEnvInt("CACHE_TTL_SECONDS", 60),
		ServerDebugMode:  getEnvBool("SERVER_DEBUG_MODE", false),
		EnableHSTS:       getEnvBool("ENABLE_HSTS", false),
		OTELEnabled:      getEnvBool("OTEL_ENABLED", false),
		OTELEndpoint:     getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
	}

	if cfg.PostgresHost == "" {
		return nil, fmt.Errorf("POSTGRES_HOST is required")
	}
	if cfg.PostgresUser == "" {
		return nil, fmt.Errorf("POSTGRES_USER is required")
	}
	if cfg.PostgresPassword == "" {
		return nil, fmt.Errorf("POSTGRES_PASSWORD is required")
	}
	if cfg.PostgresDB == "" {
		return nil, fmt.Errorf("POSTGRES_DB is required")
	}

	if cfg.SplitPercentage < 0 || cfg.SplitPercentage > 100 {
		return nil, fmt.Errorf("SPLIT_PERCENTAGE must be in [0, 100], got %d", cfg.SplitPercentage)
	}
	if cfg.DefaultLimit < 1 {
		return nil, fmt.Errorf("DEFAULT_RECOMMENDATION_LIMIT must be positive, got %d", cfg.DefaultLimit)
	}
	if cfg.CatalogBatchSize < 1 {
		return nil, fmt.Errorf("CATALOG_BATCH_SIZE must be positive, got %d", cfg.CatalogBatchSize)
	}

	return cfg, nil
}

// DatabaseURL builds a postgres connection URL from the individual settings
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		url.QueryEscape(c.PostgresUser),
		url.QueryEscape(c.PostgresPassword),
		c.PostgresHost,
		c.PostgresPort,
		c.PostgresDB,
		c.PostgresSSLMode,
	)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1" || value == "yes"
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
