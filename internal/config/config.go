package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ServerPort  string
	DatabaseURL string
	RedisURL    string
	JWTSecret   string
	AppAPIKey   string

	GeminiAPIKey string

	// Model roles. Fast handles schema-constrained JSON, Reasoning the
	// conversational/reflective prompts, Grounded the search-augmented
	// calls, Image the illustrative renders.
	FastModel      string
	ReasoningModel string
	GroundedModel  string
	ImageModel     string

	LocationTTL time.Duration
	FacilityTTL time.Duration
	ForecastTTL time.Duration
	AlertsTTL   time.Duration
	SnapshotTTL time.Duration

	RateLimitPerHour int
}

func Load() (*Config, error) {
	godotenv.Load()

	if os.Getenv("GEMINI_API_KEY") == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY not set")
	}

	return &Config{
		ServerPort:  getEnv("SERVER_PORT", "8080"),
		DatabaseURL: getEnv("DATABASE_URL", ""),
		RedisURL:    getEnv("REDIS_URL", "redis://localhost:6379"),
		JWTSecret:   getEnv("JWT_SECRET", "secret"),
		AppAPIKey:   getEnv("APP_API_KEY", ""),

		GeminiAPIKey: os.Getenv("GEMINI_API_KEY"),

		FastModel:      getEnv("GEMINI_FAST_MODEL", "gemini-1.5-flash"),
		ReasoningModel: getEnv("GEMINI_REASONING_MODEL", "gemini-1.5-pro"),
		GroundedModel:  getEnv("GEMINI_GROUNDED_MODEL", "gemini-1.5-flash"),
		ImageModel:     getEnv("GEMINI_IMAGE_MODEL", "gemini-2.0-flash-exp"),

		LocationTTL: getMinutes("CACHE_TTL_LOCATION_MIN", 30),
		FacilityTTL: getMinutes("CACHE_TTL_FACILITY_MIN", 60),
		ForecastTTL: getMinutes("CACHE_TTL_FORECAST_MIN", 30),
		AlertsTTL:   getMinutes("CACHE_TTL_ALERTS_MIN", 30),
		SnapshotTTL: getMinutes("CACHE_TTL_SNAPSHOT_MIN", 30),

		RateLimitPerHour: getInt("RATE_LIMIT_PER_HOUR", 300),
	}, nil
}

func getEnv(key, defaultVal string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultVal
}

func getInt(key string, defaultVal int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultVal
}

func getMinutes(key string, defaultVal int) time.Duration {
	return time.Duration(getInt(key, defaultVal)) * time.Minute
}
