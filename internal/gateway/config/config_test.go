package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"PORT", "APP_ENV", "DATABASE_URL", "REDIS_URL", "SEARCH_API_KEY", "SERPAPI_API_KEY", "SEARCH_BASE_URL",
		"SEARCH_CACHE_TTL", "SEARCH_CACHE_SIZE", "LLM_PROVIDER", "LLM_API_KEY", "GROQ_API_KEY", "OPENAI_API_KEY",
		"GEMINI_API_KEY", "LLM_BASE_URL", "LLM_MODEL", "LLM_MAX_TOKENS", "LLM_TEMPERATURE", "ALERT_RECOVERY",
		"ARTIFACT_S3_ENDPOINT", "ARTIFACT_MINIO_ENDPOINT", "ARTIFACT_S3_ACCESS_KEY", "ARTIFACT_S3_SECRET_KEY",
		"MINIO_ROOT_USER", "MINIO_ROOT_PASSWORD", "ARTIFACT_S3_BUCKET", "ARTIFACT_S3_PREFIX", "ARTIFACT_S3_USE_SSL",
		"ARTIFACT_S3_REGION", "ARTIFACT_DIR", "RATE_LIMIT_REQUESTS", "RATE_LIMIT_WINDOW",
	} {
		t.Setenv(k, "")
	}
}

func TestLoadLocalDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := LoadArgs(nil)
	require.NoError(t, err)

	assert.Equal(t, ":8081", cfg.Port)
	assert.Equal(t, "local", cfg.Env)
	assert.Equal(t, "sqlite:tmp/safewatch.db", cfg.DatabaseURL)
	assert.Equal(t, "groq", cfg.LLM.Provider)
	assert.Equal(t, 4000, cfg.LLM.MaxTokens)
	assert.InDelta(t, 0.3, cfg.LLM.Temperature, 1e-6)
	assert.Equal(t, "regex", cfg.AlertRecovery)
	assert.Equal(t, 10*time.Minute, cfg.Search.CacheTTL)
	assert.Equal(t, 10, cfg.RateLimit.Requests)
	assert.Equal(t, time.Minute, cfg.RateLimit.Window)
	assert.Equal(t, "minio:9000", cfg.Artifact.Endpoint)
	assert.False(t, cfg.Artifact.CanUseS3())
	assert.Equal(t, "tmp/artifacts", cfg.Artifact.Dir)
}

func TestLoadFromEnvironment(t *testing.T) {
	clearEnv(t)
	t.Setenv("APP_ENV", "production")
	t.Setenv("PORT", "9000")
	t.Setenv("DATABASE_URL", "postgres://u:p@db:5432/safewatch")
	t.Setenv("SERPAPI_API_KEY", "serp")
	t.Setenv("SEARCH_CACHE_TTL", "0")
	t.Setenv("LLM_PROVIDER", "OpenAI")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("LLM_TEMPERATURE", "0.1")
	t.Setenv("ALERT_RECOVERY", "stream")
	t.Setenv("ARTIFACT_S3_ENDPOINT", "s3.example.com")
	t.Setenv("ARTIFACT_S3_ACCESS_KEY", "ak")
	t.Setenv("ARTIFACT_S3_SECRET_KEY", "sk")
	t.Setenv("RATE_LIMIT_WINDOW", "30s")

	cfg, err := LoadArgs(nil)
	require.NoError(t, err)
	assert.Equal(t, ":9000", cfg.Port)
	assert.Equal(t, "postgres://u:p@db:5432/safewatch", cfg.DatabaseURL)
	assert.Equal(t, "serp", cfg.Search.APIKey)
	assert.Equal(t, time.Duration(0), cfg.Search.CacheTTL)
	assert.Equal(t, "openai", cfg.LLM.Provider)
	assert.Equal(t, "sk-test", cfg.LLM.APIKey)
	assert.InDelta(t, 0.1, cfg.LLM.Temperature, 1e-6)
	assert.Equal(t, "stream", cfg.AlertRecovery)
	assert.True(t, cfg.Artifact.CanUseS3())
	assert.True(t, cfg.Artifact.UseSSL)
	assert.Equal(t, "", cfg.Artifact.Dir)
	assert.Equal(t, 30*time.Second, cfg.RateLimit.Window)
}

func TestLoadPortFlag(t *testing.T) {
	clearEnv(t)
	cfg, err := LoadArgs([]string{"-port", ":7000"})
	require.NoError(t, err)
	assert.Equal(t, ":7000", cfg.Port)

	_, err = LoadArgs([]string{"-nope"})
	assert.Error(t, err)
}
