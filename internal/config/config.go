package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	Server ServerConfig

	// Helpdesk holds the remote ticketing API configuration
	Helpdesk HelpdeskConfig

	// Cache configuration for the conversation-thread cache
	Cache CacheConfig

	// Report configuration
	Report ReportConfig

	// Rate limiting configuration for the inbound HTTP surface
	RateLimit RateLimitConfig

	// Logging configuration
	Logging LoggingConfig

	// Application metadata
	App AppConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	// AllowedOrigins is the CORS and websocket origin allowlist.
	AllowedOrigins []string
}

// HelpdeskConfig holds the remote API origin, credential and quota tuning.
// The defaults match the remote plan's shared per-minute quota: at most
// MaxInFlight concurrent requests and MaxPerWindow request starts within
// any rolling Window.
type HelpdeskConfig struct {
	BaseURL        string
	APIKey         string
	MaxInFlight    int
	MaxPerWindow   int
	Window         time.Duration
	MaxRetries     int
	RetryBaseDelay time.Duration
	RequestTimeout time.Duration
}

// CacheConfig selects and configures the thread-cache backend.
type CacheConfig struct {
	// Backend is one of "memory", "postgres", "redis".
	Backend       string
	PostgresURL   string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	TTL           time.Duration

	// MigrationsPath is where the postgres backend's migration files live.
	MigrationsPath string
}

// ReportConfig holds aggregation and scheduling settings.
type ReportConfig struct {
	// UTCOffsetMinutes is the fixed display offset east of UTC used to
	// bucket events into calendar days.
	UTCOffsetMinutes int

	// CronSchedule, when set, runs a previous-day report on this cron
	// expression.
	CronSchedule string

	// RetainedRuns is how many finished reports are kept in memory.
	RetainedRuns int
}

// RateLimitConfig holds inbound rate limiting configuration
type RateLimitConfig struct {
	Enabled           bool
	RequestsPerSecond float64
	BurstSize         int
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, text
}

// AppConfig holds application metadata
type AppConfig struct {
	Name        string
	Version     string
	Environment string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists (for local development)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:            getEnvOrDefault("SERVER_PORT", ":8080"),
			ReadTimeout:     getDurationOrDefault("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:    getDurationOrDefault("SERVER_WRITE_TIMEOUT", 5*time.Minute),
			IdleTimeout:     getDurationOrDefault("SERVER_IDLE_TIMEOUT", 60*time.Second),
			ShutdownTimeout: getDurationOrDefault("SERVER_SHUTDOWN_TIMEOUT", 30*time.Second),
			AllowedOrigins:  getListOrDefault("SERVER_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
		},
		Helpdesk: HelpdeskConfig{
			BaseURL:        os.Getenv("HELPDESK_BASE_URL"),
			APIKey:         os.Getenv("HELPDESK_API_KEY"),
			MaxInFlight:    getIntOrDefault("HELPDESK_MAX_IN_FLIGHT", 5),
			MaxPerWindow:   getIntOrDefault("HELPDESK_MAX_PER_WINDOW", 10),
			Window:         getDurationOrDefault("HELPDESK_WINDOW", time.Second),
			MaxRetries:     getIntOrDefault("HELPDESK_MAX_RETRIES", 2),
			RetryBaseDelay: getDurationOrDefault("HELPDESK_RETRY_BASE_DELAY", 500*time.Millisecond),
			RequestTimeout: getDurationOrDefault("HELPDESK_REQUEST_TIMEOUT", 30*time.Second),
		},
		Cache: CacheConfig{
			Backend:        getEnvOrDefault("CACHE_BACKEND", "memory"),
			PostgresURL:    os.Getenv("CACHE_POSTGRES_URL"),
			RedisAddr:      getEnvOrDefault("CACHE_REDIS_ADDR", "localhost:6379"),
			RedisPassword:  os.Getenv("CACHE_REDIS_PASSWORD"),
			RedisDB:        getIntOrDefault("CACHE_REDIS_DB", 0),
			TTL:            getDurationOrDefault("CACHE_TTL", 24*time.Hour),
			MigrationsPath: getEnvOrDefault("CACHE_MIGRATIONS_PATH", "migrations"),
		},
		Report: ReportConfig{
			UTCOffsetMinutes: getIntOrDefault("REPORT_UTC_OFFSET_MIN", 60),
			CronSchedule:     os.Getenv("REPORT_CRON_SCHEDULE"),
			RetainedRuns:     getIntOrDefault("REPORT_RETAINED_RUNS", 10),
		},
		RateLimit: RateLimitConfig{
			Enabled:           getBoolOrDefault("RATE_LIMIT_ENABLED", true),
			RequestsPerSecond: getFloatOrDefault("RATE_LIMIT_RPS", 10),
			BurstSize:         getIntOrDefault("RATE_LIMIT_BURST", 20),
		},
		Logging: LoggingConfig{
			Level:  getEnvOrDefault("LOG_LEVEL", "info"),
			Format: getEnvOrDefault("LOG_FORMAT", "json"),
		},
		App: AppConfig{
			Name:        getEnvOrDefault("APP_NAME", "helpdesk-metrics"),
			Version:     getEnvOrDefault("APP_VERSION", "dev"),
			Environment: getEnvOrDefault("APP_ENV", "development"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	var errs []string

	// Required fields
	if c.Helpdesk.BaseURL == "" {
		errs = append(errs, "HELPDESK_BASE_URL is required")
	}
	if c.Helpdesk.APIKey == "" {
		errs = append(errs, "HELPDESK_API_KEY is required")
	}

	// Logical validations
	if c.Helpdesk.MaxInFlight < 1 {
		errs = append(errs, "HELPDESK_MAX_IN_FLIGHT must be at least 1")
	}
	if c.Helpdesk.MaxPerWindow < 1 {
		errs = append(errs, "HELPDESK_MAX_PER_WINDOW must be at least 1")
	}
	if c.Helpdesk.Window <= 0 {
		errs = append(errs, "HELPDESK_WINDOW must be positive")
	}

	switch c.Cache.Backend {
	case "memory", "redis":
	case "postgres":
		if c.Cache.PostgresURL == "" {
			errs = append(errs, "CACHE_POSTGRES_URL is required when CACHE_BACKEND=postgres")
		}
	default:
		errs = append(errs, "CACHE_BACKEND must be one of memory, postgres, redis")
	}

	if len(errs) > 0 {
		return errors.New("configuration errors:\n  - " + strings.Join(errs, "\n  - "))
	}

	return nil
}

// IsDevelopment returns true if running in development environment
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}

// IsProduction returns true if running in production environment
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// Helper functions

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getListOrDefault(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}

func getDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// String returns a redacted string representation of the config (safe for logging)
func (c *Config) String() string {
	return fmt.Sprintf(
		"Config{Server: %s, Helpdesk: %s, APIKey: [REDACTED], Cache: %s, Environment: %s}",
		c.Server.Port,
		c.Helpdesk.BaseURL,
		c.Cache.Backend,
		c.App.Environment,
	)
}
