package config

import (
	"log/slog"
	"os"
	"strings"
)

// Config holds all configuration values.
type Config struct {
	// Backend endpoint
	APIBaseURL string

	// Optional per-user model API key forwarded on chat messages
	APIKey string

	// Credential storage
	CredentialsFile string

	// Logging
	LogFile  string
	LogLevel slog.Level
}

// Load reads configuration from environment variables.
func Load() Config {
	return Config{
		APIBaseURL:      getEnv("ENTERVIU_API_URL", "http://localhost:8000/api/v1"),
		APIKey:          getEnv("ENTERVIU_API_KEY", ""),
		CredentialsFile: getEnv("ENTERVIU_CREDENTIALS_FILE", ""),

		LogFile:  getEnv("ENTERVIU_LOG_FILE", "/tmp/enterviu.log"),
		LogLevel: parseLogLevel(getEnv("ENTERVIU_LOG_LEVEL", "INFO")),
	}
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToUpper(s) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
