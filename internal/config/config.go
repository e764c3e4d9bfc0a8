package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
// Values are loaded from environment variables with sensible defaults.
type Config struct {
	// Server
	Port     int
	LogLevel string

	// Assumption backend: deepseek, openai, gemini or static
	AssumptionBackend string

	DeepSeekAPIKey  string
	DeepSeekBaseURL string
	DeepSeekModel   string

	OpenAIAPIKey  string
	OpenAIBaseURL string
	OpenAIModel   string

	GeminiAPIKey  string
	GeminiBaseURL string
	GeminiModel   string

	// Deadline for one assumption fetch, retries included
	ProviderTimeout time.Duration

	// HTTP client
	HTTPTimeout time.Duration

	// Resilience
	MaxRetries     int
	InitialBackoff time.Duration
	MaxConcurrency int

	// Cache
	CacheTTL  time.Duration
	RedisAddr string // empty = in-process cache

	// Sessions
	SessionTTL      time.Duration
	SessionSecret   string
	SessionTokenTTL time.Duration

	// CORS
	CORSAllowedOrigins []string

	// Observability
	OTLPEndpoint   string
	TracingEnabled bool

	// Fallback figures; 0 keeps the backend default
	FallbackInterestRate float64
	FallbackLivingCost   float64
}

// Load reads configuration from environment variables with defaults.
func Load() *Config {
	return &Config{
		Port:     getEnvInt("PORT", 8080),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		AssumptionBackend: strings.ToLower(getEnv("ASSUMPTION_BACKEND", "deepseek")),

		DeepSeekAPIKey:  getEnv("DEEPSEEK_API_KEY", os.Getenv("API_KEY")),
		DeepSeekBaseURL: getEnv("DEEPSEEK_BASE_URL", "https://api.deepseek.com"),
		DeepSeekModel:   getEnv("DEEPSEEK_MODEL", "deepseek-chat"),

		OpenAIAPIKey:  getEnv("OPENAI_API_KEY", ""),
		OpenAIBaseURL: getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		OpenAIModel:   getEnv("OPENAI_MODEL", "gpt-4o-mini"),

		GeminiAPIKey:  getEnv("GEMINI_API_KEY", os.Getenv("API_KEY")),
		GeminiBaseURL: getEnv("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com"),
		GeminiModel:   getEnv("GEMINI_MODEL", "gemini-2.5-flash"),

		ProviderTimeout: getEnvDuration("PROVIDER_TIMEOUT", 45*time.Second),

		HTTPTimeout: getEnvDuration("HTTP_TIMEOUT", 30*time.Second),

		MaxRetries:     getEnvInt("MAX_RETRIES", 2),
		InitialBackoff: getEnvDuration("INITIAL_BACKOFF", 200*time.Millisecond),
		MaxConcurrency: getEnvInt("MAX_CONCURRENCY", 20),

		CacheTTL:  getEnvDuration("CACHE_TTL", 10*time.Minute),
		RedisAddr: getEnv("REDIS_ADDR", ""),

		SessionTTL:      getEnvDuration("SESSION_TTL", 30*time.Minute),
		SessionSecret:   getEnv("SESSION_SECRET", "estimator-default-dev-secret-change-me"),
		SessionTokenTTL: getEnvDuration("SESSION_TOKEN_TTL", 2*time.Hour),

		CORSAllowedOrigins: getEnvList("CORS_ALLOWED_ORIGINS", []string{"*"}),

		OTLPEndpoint:   getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
		TracingEnabled: getEnv("TRACING_ENABLED", "false") == "true",

		FallbackInterestRate: getEnvFloat("FALLBACK_INTEREST_RATE", 0),
		FallbackLivingCost:   getEnvFloat("FALLBACK_LIVING_COST", 3000),
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

func getEnvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
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

func getEnvList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
