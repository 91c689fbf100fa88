package infra

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv        string
	Port          string
	CatalogDBPath string

	GeminiAPIKey  string
	GeminiModel   string
	GeminiBaseURL string

	// DefaultModelURL is the stock photo offered to shoppers who do not
	// want to upload their own.
	DefaultModelURL string

	AllowedOrigins []string

	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration

	// CloseDelay is how long session state survives after the viewer is
	// dismissed, so the closing transition can finish rendering.
	CloseDelay time.Duration
	// AutoStartDelay debounces the landing-page shortcut that opens a
	// session directly into processing.
	AutoStartDelay time.Duration
}

// DefaultGeminiModel is the image model used for try-on composition.
const DefaultGeminiModel = "gemini-3-pro-image-preview"

const defaultModelImageURL = "https://images.unsplash.com/photo-1534528741775-53994a69daeb?q=80&w=1000&auto=format&fit=crop"

// LoadConfig loads configuration from environment variables and applies defaults where needed.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		AppEnv:           getEnv("APP_ENV", "development"),
		Port:             getEnv("PORT", "8080"),
		CatalogDBPath:    getEnv("CATALOG_DB_PATH", "data/catalog.db"),
		GeminiAPIKey:     os.Getenv("GEMINI_API_KEY"),
		GeminiModel:      getEnv("GEMINI_MODEL", DefaultGeminiModel),
		GeminiBaseURL:    getEnv("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com/v1beta"),
		DefaultModelURL:  getEnv("DEFAULT_MODEL_IMAGE_URL", defaultModelImageURL),
		AllowedOrigins:   splitCSV(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173")),
		HTTPReadTimeout:  time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 15)),
		HTTPWriteTimeout: time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 120)),
		HTTPIdleTimeout:  time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
		CloseDelay:       time.Millisecond * time.Duration(getEnvInt("VTON_CLOSE_DELAY_MS", 300)),
		AutoStartDelay:   time.Millisecond * time.Duration(getEnvInt("VTON_AUTOSTART_DELAY_MS", 500)),
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
