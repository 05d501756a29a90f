package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Host               string
	Port               string
	RequestTimeout     time.Duration
	ModelCallTimeout   time.Duration
	MaxRequestBodySize int64

	// Gemini API
	GeminiAPIKey   string
	GeminiBaseURL  string
	VisionModel    string
	ImageGenModel  string
	TextModel      string

	// Disclaimer localization; annotation labels stay in English
	// regardless of this setting.
	DisclaimerLanguage string

	// Static login collaborator
	AdminUserID   string
	AdminPassword string

	// Server-side analysis history
	HistoryPath string

	// Optional screenshot archive (disabled when account is empty)
	AzureStorageAccount string
	AzureStorageKey     string
	AzureContainer      string
}

func (c *Config) ServerAddress() string {
	host := strings.TrimSpace(c.Host)
	port := strings.TrimSpace(c.Port)
	return net.JoinHostPort(host, port)
}

// ArchiveEnabled reports whether the Azure screenshot archive is configured.
func (c *Config) ArchiveEnabled() bool {
	return c.AzureStorageAccount != "" && c.AzureStorageKey != ""
}

func LoadFromEnv() (*Config, error) {
	// .env is optional; real env vars win either way.
	_ = godotenv.Load()

	cfg := &Config{
		Host:               getEnvOrDefault("HOST", "0.0.0.0"),
		Port:               getEnvOrDefault("PORT", "8080"),
		RequestTimeout:     parseDurationOrDefault("REQUEST_TIMEOUT", 120*time.Second),
		ModelCallTimeout:   parseDurationOrDefault("MODEL_CALL_TIMEOUT", 90*time.Second),
		MaxRequestBodySize: parseIntOrDefault("MAX_REQUEST_BODY_SIZE", 10*1024*1024), // 10MB

		GeminiAPIKey:  os.Getenv("GEMINI_API_KEY"),
		GeminiBaseURL: getEnvOrDefault("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com/v1beta"),
		VisionModel:   getEnvOrDefault("GEMINI_VISION_MODEL", "gemini-2.5-flash"),
		ImageGenModel: getEnvOrDefault("GEMINI_IMAGE_MODEL", "gemini-2.5-flash-image-preview"),
		TextModel:     getEnvOrDefault("GEMINI_TEXT_MODEL", "gemini-2.5-flash"),

		DisclaimerLanguage: getEnvOrDefault("DISCLAIMER_LANGUAGE", "English"),

		AdminUserID:   getEnvOrDefault("ADMIN_USER_ID", "admin"),
		AdminPassword: os.Getenv("ADMIN_PASSWORD"),

		HistoryPath: getEnvOrDefault("HISTORY_PATH", "analysis_history.json"),

		AzureStorageAccount: os.Getenv("AZURE_STORAGE_ACCOUNT"),
		AzureStorageKey:     os.Getenv("AZURE_STORAGE_KEY"),
		AzureContainer:      getEnvOrDefault("AZURE_CONTAINER", "chart-uploads"),
	}

	p, err := strconv.Atoi(strings.TrimSpace(cfg.Port))
	if err != nil || p < 1 || p > 65535 {
		return nil, fmt.Errorf("invalid PORT: %q", cfg.Port)
	}
	if cfg.MaxRequestBodySize <= 0 {
		return nil, fmt.Errorf("MAX_REQUEST_BODY_SIZE must be > 0 (got %d)", cfg.MaxRequestBodySize)
	}
	if cfg.RequestTimeout <= 0 || cfg.ModelCallTimeout <= 0 {
		return nil, fmt.Errorf("timeouts must be > 0 (got request=%s, model=%s)",
			cfg.RequestTimeout, cfg.ModelCallTimeout)
	}
	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is required")
	}
	return cfg, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(strings.TrimSpace(value)); err == nil && duration > 0 {
			return duration
		}
	}
	return defaultValue
}

func parseIntOrDefault(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}
