package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

// Config holds all application configuration.
// Values are loaded from environment variables with sensible defaults.
type Config struct {
	// Server
	Port               int
	LogLevel           string
	CORSAllowedOrigins []string

	// HTTP client
	HTTPTimeout time.Duration

	// Resilience
	MaxRetries     int
	InitialBackoff time.Duration
	MaxConcurrency int

	// Cache
	CacheTTL       time.Duration
	CartTTL        time.Duration
	IdempotencyTTL time.Duration

	// Observability
	OTLPEndpoint string

	// Supabase
	SupabaseURL        string
	SupabaseAnonKey    string
	SupabaseServiceKey string
	SupabaseJWTSecret  string
	UseSupabase        bool

	// SQL store (used when Supabase is off)
	DatabaseDriver string // postgres | sqlite
	DatabaseURL    string

	// Redis (idempotency keys); empty address falls back to the in-memory cache
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Kafka (sale events); no brokers disables publishing
	KafkaBrokers    []string
	KafkaTopicSales string

	// AI assistant agent
	AgentAPIURL string

	// Business defaults
	DefaultTaxPercent decimal.Decimal
	LowStockThreshold int

	// Dev mode
	DevAuth     bool // DEV_AUTH=true exposes POST /v1/dev/token
	DevTokenTTL time.Duration
}

// LoadDotEnv loads a .env file without overriding variables already set.
func LoadDotEnv(paths ...string) error {
	return godotenv.Load(paths...)
}

// Load reads configuration from environment variables with defaults.
func Load() *Config {
	return &Config{
		Port:     getEnvInt("PORT", 8080),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		CORSAllowedOrigins: getEnvListDefault("CORS_ALLOWED_ORIGINS", []string{"http://localhost:5173"}),

		HTTPTimeout: getEnvDuration("HTTP_TIMEOUT", 10*time.Second),

		MaxRetries:     getEnvInt("MAX_RETRIES", 3),
		InitialBackoff: getEnvDuration("INITIAL_BACKOFF", 100*time.Millisecond),
		MaxConcurrency: getEnvInt("MAX_CONCURRENCY", 50),

		CacheTTL:       getEnvDuration("CACHE_TTL", 5*time.Minute),
		CartTTL:        getEnvDuration("CART_TTL", 2*time.Hour),
		IdempotencyTTL: getEnvDuration("IDEMPOTENCY_TTL", 24*time.Hour),

		OTLPEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),

		SupabaseURL:        getEnv("SUPABASE_URL", ""),
		SupabaseAnonKey:    getEnv("SUPABASE_ANON_KEY", ""),
		SupabaseServiceKey: getEnv("SUPABASE_SERVICE_ROLE_KEY", ""),
		SupabaseJWTSecret:  getEnv("SUPABASE_JWT_SECRET", "fluxia-default-dev-secret-change-me"),
		UseSupabase:        getEnv("USE_SUPABASE", "true") == "true",

		DatabaseDriver: getEnv("DATABASE_DRIVER", "sqlite"),
		DatabaseURL:    getEnv("DATABASE_URL", "file:fluxia.db?_pragma=foreign_keys(1)"),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		KafkaBrokers:    getEnvList("KAFKA_BROKERS"),
		KafkaTopicSales: getEnv("KAFKA_TOPIC_SALES", "fluxia.sales"),

		AgentAPIURL: getEnv("AGENT_API_URL", "http://localhost:8090"),

		DefaultTaxPercent: getEnvDecimal("DEFAULT_TAX_PERCENT", decimal.RequireFromString("19.25")),
		LowStockThreshold: getEnvInt("LOW_STOCK_THRESHOLD", 5),

		DevAuth:     getEnv("DEV_AUTH", "false") == "true",
		DevTokenTTL: getEnvDuration("DEV_TOKEN_TTL", 12*time.Hour),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func getEnvDecimal(key string, fallback decimal.Decimal) decimal.Decimal {
	if v := os.Getenv(key); v != "" {
		if d, err := decimal.NewFromString(v); err == nil {
			return d
		}
	}
	return fallback
}

func getEnvListDefault(key string, fallback []string) []string {
	if list := getEnvList(key); len(list) > 0 {
		return list
	}
	return fallback
}

func getEnvList(key string) []string {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
