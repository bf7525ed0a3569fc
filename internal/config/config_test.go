package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("LLM_BACKEND", "")
	t.Setenv("APP_URL", "https://esg.example.com/")

	cfg := LoadConfig()

	assert.Equal(t, ":8080", cfg.Server.Port)
	assert.Equal(t, "esg-events", cfg.Kafka.Topic)
	assert.Equal(t, 120*time.Second, cfg.LLM.Timeout)
	assert.Equal(t, "https://esg.example.com", cfg.App.URL)
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("LLM_BACKEND", "XAI")
	t.Setenv("KAFKA_ENABLED", "false")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("SERVER_MAX_REQUESTS", "not-a-number")

	cfg := LoadConfig()

	assert.Equal(t, "xai", cfg.LLM.Backend)
	assert.False(t, cfg.Kafka.Enabled)
	assert.Equal(t, 3, cfg.Redis.DB)
	assert.Equal(t, 100, cfg.Server.MaxRequests)
}

func TestValidate(t *testing.T) {
	cfg := &Config{}
	err := cfg.Validate()
	assert.ErrorContains(t, err, "DATABASE_URL")
	assert.ErrorContains(t, err, "SUPABASE_JWT_SECRET")

	cfg.Database.URL = "postgres://localhost/esg"
	cfg.Supabase.JWTSecret = "secret"
	assert.NoError(t, cfg.Validate())
}
