// Package config loads process configuration from environment variables.
package config

import (
	"os"
	"strconv"
)

// Config holds all configuration values for the server process.
type Config struct {
	// Postgres connection string, required.
	DatabaseURL string

	// OpenAI credentials and model selection.
	OpenAIKey string
	ChatModel string

	// HTTP listen port.
	Port string

	// Default number of messages returned by the history endpoint.
	HistoryLimit int

	// Sessions (and their profiles and messages) older than this many
	// days are purged by the retention sweep. Zero disables the sweep.
	RetentionDays int

	// Postgres NOTIFY channel for high-urgency escalation alerts.
	AlertChannel string
}

// Load reads configuration from the environment, applying defaults for
// everything except DATABASE_URL, which the caller must validate.
func Load() Config {
	return Config{
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		OpenAIKey:     os.Getenv("OPENAI_API_KEY"),
		ChatModel:     getEnv("OPENAI_MODEL_CHAT", "gpt-4o-mini"),
		Port:          getEnv("PORT", "8080"),
		HistoryLimit:  getEnvInt("HISTORY_LIMIT", 50),
		RetentionDays: getEnvInt("RETENTION_DAYS", 30),
		AlertChannel:  getEnv("ALERT_CHANNEL", "urgency_alerts"),
	}
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			return n
		}
	}
	return defaultVal
}
