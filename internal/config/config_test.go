package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{
		"DATABASE_URL", "OPENAI_API_KEY", "OPENAI_MODEL_CHAT", "PORT",
		"HISTORY_LIMIT", "RETENTION_DAYS", "ALERT_CHANNEL",
	} {
		t.Setenv(key, "")
	}

	cfg := Load()
	assert.Empty(t, cfg.DatabaseURL)
	assert.Equal(t, "gpt-4o-mini", cfg.ChatModel)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 50, cfg.HistoryLimit)
	assert.Equal(t, 30, cfg.RetentionDays)
	assert.Equal(t, "urgency_alerts", cfg.AlertChannel)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/medagent")
	t.Setenv("PORT", "9090")
	t.Setenv("HISTORY_LIMIT", "25")
	t.Setenv("RETENTION_DAYS", "not-a-number")

	cfg := Load()
	assert.Equal(t, "postgres://localhost/medagent", cfg.DatabaseURL)
	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, 25, cfg.HistoryLimit)
	// Invalid numbers fall back to the default.
	assert.Equal(t, 30, cfg.RetentionDays)
}
