package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for our application
type Config struct {
	// Server configuration
	Port           string
	GinMode        string
	APIPrefix      string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	MaxHeaderBytes int

	// Database configuration
	Database DatabaseConfig

	// Redis configuration
	Redis RedisConfig

	// Payment gateway
	Payment PaymentConfig

	// Circuit breaker guarding the payment gateway
	CircuitBreaker CircuitBreakerConfig

	// Background cleanup
	Cleanup CleanupConfig

	// Kafka notifications
	Kafka KafkaConfig

	// Rate limiting
	RateLimit RateLimitConfig

	// Logging
	LogLevel string
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string
	Port     string
	Name     string
	User     string
	Password string
	SSLMode  string
	PoolSize int
	DSN      string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Addr     string

	// TTL values for the different key families
	SeatLockTTL   time.Duration
	SeatsCacheTTL time.Duration
	EventsTTL     time.Duration
	SearchTTL     time.Duration
	AuthTTL       time.Duration
}

// PaymentConfig holds payment gateway configuration
type PaymentConfig struct {
	TeamSlug   string
	Password   string
	BaseURL    string
	SuccessURL string
	FailURL    string
	WebhookURL string
	Timeout    time.Duration
}

// CircuitBreakerConfig holds circuit breaker configuration
type CircuitBreakerConfig struct {
	FailureThreshold int
	Timeout          time.Duration
}

// CleanupConfig holds background cleanup configuration
type CleanupConfig struct {
	Interval        time.Duration
	PaymentExpiry   time.Duration
	EmptyBookingAge time.Duration
	StaleBookingAge time.Duration
}

// KafkaConfig holds notification producer configuration
type KafkaConfig struct {
	Enabled bool
	Brokers []string
	Topic   string
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	Enabled        bool
	WindowDuration time.Duration
	PublicRequests int
	UserRequests   int
}

// Load loads configuration from environment variables
func Load() *Config {
	cfg := &Config{
		Port:           getEnv("PORT", "8080"),
		GinMode:        getEnv("GIN_MODE", "debug"),
		APIPrefix:      getEnv("API_PREFIX", "/api"),
		ReadTimeout:    getDurationEnv("READ_TIMEOUT", 15*time.Second),
		WriteTimeout:   getDurationEnv("WRITE_TIMEOUT", 15*time.Second),
		IdleTimeout:    getDurationEnv("IDLE_TIMEOUT", 60*time.Second),
		MaxHeaderBytes: getIntEnv("MAX_HEADER_BYTES", 1<<20), // 1 MB

		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			Name:     getEnv("DB_NAME", "billetter_db"),
			User:     getEnv("DB_USER", "billetter_user"),
			Password: getEnv("DB_PASSWORD", "billetter_password"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
			PoolSize: getIntEnv("DB_POOL_SIZE", 20),
		},

		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getIntEnv("REDIS_DB", 0),

			SeatLockTTL:   getDurationEnv("REDIS_SEAT_LOCK_TTL", 5*time.Minute),
			SeatsCacheTTL: getDurationEnv("REDIS_SEATS_CACHE_TTL", 24*time.Hour),
			EventsTTL:     getDurationEnv("REDIS_EVENTS_TTL", time.Hour),
			SearchTTL:     getDurationEnv("REDIS_SEARCH_TTL", time.Hour),
			AuthTTL:       getDurationEnv("REDIS_AUTH_TTL", 15*time.Minute),
		},

		Payment: PaymentConfig{
			TeamSlug:   getEnv("MERCHANT_ID", ""),
			Password:   getEnv("MERCHANT_PASSWORD", ""),
			BaseURL:    getEnv("PAYMENT_GATEWAY_URL", "https://gateway.hackload.com"),
			SuccessURL: getEnv("PAYMENT_SUCCESS_URL", "http://localhost:8080/api/payments/success"),
			FailURL:    getEnv("PAYMENT_FAIL_URL", "http://localhost:8080/api/payments/fail"),
			WebhookURL: getEnv("PAYMENT_WEBHOOK_URL", "http://localhost:8080/api/webhook/payment"),
			Timeout:    getDurationEnv("PAYMENT_TIMEOUT", 30*time.Second),
		},

		CircuitBreaker: CircuitBreakerConfig{
			FailureThreshold: getIntEnv("CIRCUIT_BREAKER_FAILURE_THRESHOLD", 5),
			Timeout:          getDurationEnvSeconds("CIRCUIT_BREAKER_TIMEOUT_SECONDS", 60*time.Second),
		},

		Cleanup: CleanupConfig{
			Interval:        getDurationEnv("CLEANUP_INTERVAL", 5*time.Minute),
			PaymentExpiry:   getDurationEnv("CLEANUP_PAYMENT_EXPIRY", 15*time.Minute),
			EmptyBookingAge: getDurationEnv("CLEANUP_EMPTY_BOOKING_AGE", 2*time.Hour),
			StaleBookingAge: getDurationEnv("CLEANUP_STALE_BOOKING_AGE", 30*time.Minute),
		},

		Kafka: KafkaConfig{
			Enabled: getBoolEnv("KAFKA_ENABLED", false),
			Brokers: getStringSliceEnv("KAFKA_BROKERS", []string{"localhost:9092"}),
			Topic:   getEnv("KAFKA_BOOKING_TOPIC", "billetter.bookings"),
		},

		RateLimit: RateLimitConfig{
			Enabled:        getBoolEnv("RATE_LIMIT_ENABLED", false),
			WindowDuration: getDurationEnv("RATE_LIMIT_WINDOW_DURATION", 60*time.Second),
			PublicRequests: getIntEnv("RATE_LIMIT_PUBLIC_REQUESTS", 100),
			UserRequests:   getIntEnv("RATE_LIMIT_USER_REQUESTS", 60),
		},

		LogLevel: getEnv("LOG_LEVEL", "debug"),
	}

	// Build composite values
	cfg.Database.DSN = buildDatabaseDSN(cfg.Database)
	cfg.Redis.Addr = cfg.Redis.Host + ":" + cfg.Redis.Port

	return cfg
}

// buildDatabaseDSN builds the database connection string
func buildDatabaseDSN(db DatabaseConfig) string {
	return "host=" + db.Host +
		" port=" + db.Port +
		" user=" + db.User +
		" password=" + db.Password +
		" dbname=" + db.Name +
		" sslmode=" + db.SSLMode
}

// getEnv gets an environment variable with a fallback value
func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

// getIntEnv gets an integer environment variable with a fallback value
func getIntEnv(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return fallback
}

// getDurationEnv gets a duration environment variable with a fallback value
func getDurationEnv(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return fallback
}

// getDurationEnvSeconds gets an environment variable as seconds (int) and converts to time.Duration
func getDurationEnvSeconds(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if seconds, err := strconv.Atoi(value); err == nil {
			return time.Duration(seconds) * time.Second
		}
	}
	return fallback
}

// getBoolEnv gets a boolean environment variable with a fallback value
func getBoolEnv(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return fallback
}

// getStringSliceEnv gets a comma-separated string environment variable as a slice
func getStringSliceEnv(key string, fallback []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		var result []string
		for _, part := range parts {
			if trimmed := strings.TrimSpace(part); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		if len(result) > 0 {
			return result
		}
	}
	return fallback
}

// IsProduction returns true if the application is running in production mode
func (c *Config) IsProduction() bool {
	return c.GinMode == "release"
}

// IsDevelopment returns true if the application is running in development mode
func (c *Config) IsDevelopment() bool {
	return c.GinMode == "debug"
}

// GetServerAddress returns the full server address
func (c *Config) GetServerAddress() string {
	return ":" + c.Port
}
