package infra

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv         string
	Port           string
	DatabaseURL    string
	GeoIPDBPath    string
	AllowedOrigins []string

	GeminiAPIKey  string
	GeminiModel   string
	GeminiBaseURL string

	PexelsAPIKey    string
	UnsplashAPIKey  string
	PixabayAPIKey   string
	StockTimeout    time.Duration
	StockPerPage    int
	PromoteCacheTTL time.Duration

	HistoryCap       int
	RecentPromptsCap int
	VariationCount   int

	HTTPReadTimeout    time.Duration
	HTTPWriteTimeout   time.Duration
	HTTPIdleTimeout    time.Duration
	GenerationTimeout  time.Duration
	RateLimitPerMinute int
}

// LoadConfig loads configuration from environment variables and applies
// defaults where needed. Only the server basics have defaults; every provider
// credential is optional and its absence is a configuration state, not an
// error.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		AppEnv:         getEnv("APP_ENV", "development"),
		Port:           getEnv("PORT", "8080"),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		GeoIPDBPath:    os.Getenv("GEOIP_DB_PATH"),
		AllowedOrigins: splitCSV(getEnv("ALLOWED_ORIGINS", "http://localhost:5173")),

		GeminiAPIKey:  os.Getenv("GEMINI_API_KEY"),
		GeminiModel:   getEnv("GEMINI_MODEL", "gemini-2.5-flash-image"),
		GeminiBaseURL: getEnv("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com/v1beta"),

		PexelsAPIKey:    os.Getenv("PEXELS_API_KEY"),
		UnsplashAPIKey:  os.Getenv("UNSPLASH_API_KEY"),
		PixabayAPIKey:   os.Getenv("PIXABAY_API_KEY"),
		StockTimeout:    time.Second * time.Duration(getEnvInt("STOCK_TIMEOUT_SECONDS", 10)),
		StockPerPage:    getEnvInt("STOCK_PER_PAGE", 12),
		PromoteCacheTTL: time.Minute * time.Duration(getEnvInt("PROMOTE_CACHE_TTL_MINUTES", 15)),

		HistoryCap:       getEnvInt("HISTORY_CAP", 50),
		RecentPromptsCap: getEnvInt("RECENT_PROMPTS_CAP", 10),
		VariationCount:   getEnvInt("VARIATION_COUNT", 2),

		HTTPReadTimeout:    time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 15)),
		HTTPWriteTimeout:   time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 120)),
		HTTPIdleTimeout:    time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
		GenerationTimeout:  time.Second * time.Duration(getEnvInt("GENERATION_TIMEOUT_SECONDS", 90)),
		RateLimitPerMinute: getEnvInt("RATE_LIMIT_PER_MINUTE", 30),
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func splitCSV(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
