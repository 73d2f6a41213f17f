package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all application configurations
// All sensitive values are loaded from .env
type Config struct {
	// Server Configuration
	Environment string
	ServerPort  string

	// DB configuration
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// Redis configuration (cache and click buffer substrate)
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Cache and flush tuning
	CacheTTL      time.Duration // Redirect cache entry lifetime
	StoreTimeout  time.Duration // Per-lookup durable store deadline on cache miss
	FlushInterval time.Duration // How often buffered clicks are flushed
	FlushRetries  int           // Bounded retry count for a failed flush batch
	FlushBackoff  time.Duration // Base backoff, doubled per retry
	SweepInterval time.Duration // How often expired URLs are deactivated

	// Application settings
	BaseURL            string // Base URL for generating short links
	RateLimitPerMinute int    // Rate limit per IP address
	URLExpirationDays  int    // Default days before URLs expire (0 = never)
}

// LoadConfig loads configuration from environment variables
// Returns error if required environment variables are missing
func LoadConfig() (*Config, error) {
	cfg := &Config{
		// Server defaults
		Environment: getEnv("ENVIRONMENT", "development"),
		ServerPort:  getEnv("SERVER_PORT", "8081"),

		// Database configuration (required)
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", ""),
		DBName:     getEnv("DB_NAME", "urlshortener"),
		DBSSLMode:  getEnv("DB_SSL_MODE", "disable"),

		// Redis configuration
		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvAsInt("REDIS_DB", 0),

		// Cache and flush tuning
		CacheTTL:      secondsEnv("CACHE_TTL_SECONDS", 3600),
		StoreTimeout:  time.Duration(getEnvAsInt("STORE_TIMEOUT_MS", 2000)) * time.Millisecond,
		FlushInterval: secondsEnv("FLUSH_INTERVAL_SECONDS", 60),
		FlushRetries:  getEnvAsInt("FLUSH_MAX_RETRIES", 3),
		FlushBackoff:  secondsEnv("FLUSH_BACKOFF_SECONDS", 2),
		SweepInterval: secondsEnv("SWEEP_INTERVAL_SECONDS", 3600),

		// Application settings
		BaseURL:            getEnv("BASE_URL", "http://localhost:8081"),
		RateLimitPerMinute: getEnvAsInt("RATE_LIMIT_PER_MINUTE", 60),
		URLExpirationDays:  getEnvAsInt("URL_EXPIRATION_DAYS", 0),
	}

	// Validate required configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks if all required configuration is present and valid
func (c *Config) Validate() error {
	// Validate database password in production
	if c.Environment == "production" && c.DBPassword == "" {
		return fmt.Errorf("DB_PASSWORD is required in production")
	}

	if c.BaseURL == "" {
		return fmt.Errorf("BASE_URL is required")
	}

	if c.CacheTTL <= 0 {
		return fmt.Errorf("CACHE_TTL_SECONDS must be positive")
	}

	if c.FlushInterval <= 0 {
		return fmt.Errorf("FLUSH_INTERVAL_SECONDS must be positive")
	}

	if c.FlushRetries < 0 {
		return fmt.Errorf("FLUSH_MAX_RETRIES must not be negative")
	}

	if c.StoreTimeout <= 0 {
		return fmt.Errorf("STORE_TIMEOUT_MS must be positive")
	}

	return nil
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// Helper functions for reading environment variables

// getEnv reads an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt reads an environment variable as integer or returns default
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

// secondsEnv reads an environment variable as a duration in whole seconds
func secondsEnv(key string, defaultSeconds int) time.Duration {
	return time.Duration(getEnvAsInt(key, defaultSeconds)) * time.Second
}
