package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"PORT", "CORS_ALLOWED_ORIGINS", "RATE_LIMIT_PER_MINUTE",
		"AI_PROVIDER", "ARK_API_KEY", "ARK_ACCESS_KEY", "ARK_SECRET_KEY", "Model",
		"OPENAI_API_KEY", "OPENAI_MODEL", "OPENAI_BASE_URL",
		"AI_TEMPERATURE", "AI_TOP_P", "AI_MAX_TOKENS", "AI_TIMEOUT_SECONDS", "AI_HISTORY_LIMIT",
		"SPEECH_APP_ID", "SPEECH_ACCESS_TOKEN", "SPEECH_API_KEY", "SPEECH_TIMEOUT",
		"SPEECH_TTS_SPEED", "SPEECH_TTS_VOLUME",
		"STORE_DRIVER", "SQLITE_PATH", "DATABASE_URL",
		"JWT_SECRET", "JWT_TTL_HOURS", "CRISIS_RESOURCES_FILE", "CRISIS_DEFAULT_LOCATION",
		"LOG_LEVEL", "LOG_FORMAT",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, []string{"*"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, 60, cfg.Server.RateLimitPerMinute)

	assert.Equal(t, ProviderArk, cfg.AI.Provider)
	assert.False(t, cfg.AI.Enabled())
	assert.InDelta(t, 0.8, *cfg.AI.Temperature, 1e-9)
	assert.InDelta(t, 0.9, *cfg.AI.TopP, 1e-9)
	assert.Equal(t, 350, *cfg.AI.MaxTokens)
	assert.Equal(t, 15*time.Second, cfg.AI.Timeout)
	assert.Equal(t, 5, cfg.AI.HistoryLimit)

	assert.False(t, cfg.Speech.Enabled)
	assert.Equal(t, 30*time.Second, cfg.Speech.Timeout)

	assert.Equal(t, DriverSQLite, cfg.Store.Driver)
	assert.Equal(t, "data/mental_buddy.db", cfg.Store.SQLitePath)
	assert.Equal(t, 720*time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, "US", cfg.Crisis.DefaultLocation)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadInfersOpenAIProvider(t *testing.T) {
	clearEnv(t)
	t.Setenv("OPENAI_API_KEY", "sk-test")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ProviderOpenAI, cfg.AI.Provider)
	assert.True(t, cfg.AI.Enabled())
}

func TestLoadArkEnabled(t *testing.T) {
	clearEnv(t)
	t.Setenv("ARK_API_KEY", "key")
	t.Setenv("Model", "ep-123")
	t.Setenv("OPENAI_API_KEY", "sk-test")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ProviderArk, cfg.AI.Provider)
	assert.True(t, cfg.AI.Enabled())
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := map[string]string{
		"PORT":           "80 80",
		"AI_PROVIDER":    "gemini",
		"AI_TEMPERATURE": "hot",
		"STORE_DRIVER":   "mongo",
		"JWT_TTL_HOURS":  "long",
	}
	for key, value := range cases {
		t.Run(key, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(key, value)
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestPostgresRequiresURL(t *testing.T) {
	clearEnv(t)
	t.Setenv("STORE_DRIVER", "postgres")
	_, err := Load()
	require.Error(t, err)

	t.Setenv("DATABASE_URL", "postgres://localhost/buddy")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, DriverPostgres, cfg.Store.Driver)
}

func TestParseAddr(t *testing.T) {
	addr, err := parseAddr("127.0.0.1:9000")
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:9000", addr)

	addr, err = parseAddr(" 9000 ")
	require.NoError(t, err)
	assert.Equal(t, ":9000", addr)
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"http://a", "http://b"}, splitList(" http://a, ,http://b "))
	assert.Empty(t, splitList(""))
}
