package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata" // zone names resolve without system zoneinfo

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	// Server
	Port           string
	Env            string
	RequestTimeout time.Duration
	// Trading days are counted in this zone when rejecting future dates.
	Timezone *time.Location

	// Database
	DBHost        string
	DBPort        string
	DBUser        string
	DBPassword    string
	DBName        string
	DBSSLMode     string
	MigrationsDir string

	// JWT
	JWTSecret        string
	JWTExpirationDur time.Duration

	// Events. Empty brokers means events are only logged.
	KafkaBrokers []string
	KafkaTopic   string

	// Quotes. An empty schedule disables the refresher; an empty Redis URL
	// disables the cache.
	RedisURL          string
	QuoteSchedule     string
	QuoteBaseURL      string
	QuoteSymbolSuffix string
	QuoteRateLimit    int
	QuoteCacheTTL     time.Duration

	// Ops endpoints are disabled while empty.
	OpsAPIKey string
}

var appConfig *Config

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if not already loaded
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}

	config := &Config{
		// Server
		Port:           getEnv("PORT", "8080"),
		Env:            getEnv("ENV", "development"),
		RequestTimeout: getDuration("REQUEST_TIMEOUT", 10*time.Second),
		Timezone:       getLocation("TIMEZONE", time.UTC),

		// Database
		DBHost:        getEnv("DB_HOST", "localhost"),
		DBPort:        getEnv("DB_PORT", "5432"),
		DBUser:        getEnv("DB_USER", "tradebook"),
		DBPassword:    getEnv("DB_PASSWORD", "tradebook"),
		DBName:        getEnv("DB_NAME", "tradebook"),
		DBSSLMode:     getEnv("DB_SSLMODE", "disable"),
		MigrationsDir: getEnv("MIGRATIONS_DIR", "migrations"),

		// JWT
		JWTSecret:        getEnv("JWT_SECRET", "fallback-secret-key-for-dev-only"),
		JWTExpirationDur: getDuration("JWT_EXPIRES_IN", 24*time.Hour),

		// Events
		KafkaBrokers: getList("KAFKA_BROKERS"),
		KafkaTopic:   getEnv("KAFKA_TOPIC", "tradebook.positions"),

		// Quotes
		RedisURL:          getEnv("REDIS_URL", ""),
		QuoteSchedule:     getEnv("QUOTE_REFRESH_SCHEDULE", ""),
		QuoteBaseURL:      getEnv("QUOTE_BASE_URL", ""),
		QuoteSymbolSuffix: getEnv("QUOTE_SYMBOL_SUFFIX", ""),
		QuoteRateLimit:    getInt("QUOTE_RATE_LIMIT", 5),
		QuoteCacheTTL:     getDuration("QUOTE_CACHE_TTL", time.Minute),

		OpsAPIKey: getEnv("OPS_API_KEY", ""),
	}

	appConfig = config
	return config, nil
}

// Get returns the application configuration
func Get() *Config {
	if appConfig == nil {
		var err error
		appConfig, err = Load()
		if err != nil {
			log.Fatalf("Failed to load configuration: %v", err)
		}
	}
	return appConfig
}

// IsProduction reports whether ENV is "production".
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		log.Printf("Warning: invalid %s value '%s', falling back to %s\n", key, raw, defaultValue)
		return defaultValue
	}
	return d
}

func getInt(key string, defaultValue int) int {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		log.Printf("Warning: invalid %s value '%s', falling back to %d\n", key, raw, defaultValue)
		return defaultValue
	}
	return n
}

func getLocation(key string, defaultValue *time.Location) *time.Location {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultValue
	}
	loc, err := time.LoadLocation(raw)
	if err != nil {
		log.Printf("Warning: invalid %s value '%s', falling back to %s\n", key, raw, defaultValue)
		return defaultValue
	}
	return loc
}

// getList splits a comma-separated variable, dropping empty entries.
func getList(key string) []string {
	var out []string
	for _, part := range strings.Split(getEnv(key, ""), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
