package config

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"PORT", "APP_PASSWORD", "LOG_LEVEL", "LOG_PRETTY",
		"LLM_PROVIDER", "LLM_TEMPERATURE", "LLM_TOP_P", "LLM_MAX_TOKENS", "LLM_TIMEOUT", "LLM_SYSTEM_PROMPT",
		"ARK_API_KEY", "ARK_ACCESS_KEY", "ARK_SECRET_KEY", "ARK_MODEL", "ARK_BASE_URL", "ARK_REGION",
		"OPENAI_API_KEY", "OPENAI_MODEL", "OPENAI_BASE_URL",
		"GEMINI_API_KEY", "GEMINI_MODEL",
		"GEOCODER_BASE_URL", "GEOCODER_USER_AGENT", "GEOCODER_TIMEOUT",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("APP_PASSWORD", "open sesame")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, "open sesame", cfg.Auth.Password)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.False(t, cfg.Log.Pretty)
	assert.Equal(t, "gemini-1.5-flash", cfg.AI.GeminiModel)
	assert.Equal(t, time.Duration(0), cfg.AI.Timeout)
	assert.Equal(t, "", cfg.AI.ResolvedProvider())
	assert.False(t, cfg.AI.Enabled())
	assert.Equal(t, "https://nominatim.openstreetmap.org", cfg.Geo.BaseURL)
	assert.Equal(t, "vedic_horoscope_app", cfg.Geo.UserAgent)
	assert.Equal(t, 10*time.Second, cfg.Geo.Timeout)
}

func TestLoadRequiresPassword(t *testing.T) {
	clearEnv(t)

	_, err := Load()
	assert.ErrorIs(t, err, ErrPasswordRequired)
}

func TestLoadServerAddr(t *testing.T) {
	clearEnv(t)
	t.Setenv("APP_PASSWORD", "x")

	t.Setenv("PORT", "127.0.0.1:9000")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:9000", cfg.Server.Addr)

	t.Setenv("PORT", "80 80")
	_, err = Load()
	assert.Error(t, err)
}

func TestResolvedProvider(t *testing.T) {
	t.Run("gemini key wins when not explicit", func(t *testing.T) {
		cfg := AIConfig{GeminiAPIKey: "g", APIKey: "a", Model: "m"}
		assert.Equal(t, ProviderGemini, cfg.ResolvedProvider())
		assert.True(t, cfg.Enabled())
	})

	t.Run("ark needs model and credentials", func(t *testing.T) {
		cfg := AIConfig{APIKey: "a"}
		assert.Equal(t, "", cfg.ResolvedProvider())

		cfg.Model = "doubao"
		assert.Equal(t, ProviderArk, cfg.ResolvedProvider())
		assert.True(t, cfg.Enabled())
	})

	t.Run("explicit provider without credentials is disabled", func(t *testing.T) {
		cfg := AIConfig{Provider: ProviderOpenAI, GeminiAPIKey: "g"}
		assert.Equal(t, ProviderOpenAI, cfg.ResolvedProvider())
		assert.False(t, cfg.Enabled())
	})
}

func TestLoadAIConfig(t *testing.T) {
	clearEnv(t)
	t.Setenv("APP_PASSWORD", "x")
	t.Setenv("LLM_PROVIDER", "OpenAI")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("LLM_TEMPERATURE", "0.4")
	t.Setenv("LLM_MAX_TOKENS", "512")
	t.Setenv("LLM_TIMEOUT", "45")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ProviderOpenAI, cfg.AI.ResolvedProvider())
	assert.True(t, cfg.AI.Enabled())
	require.NotNil(t, cfg.AI.Temperature)
	assert.InDelta(t, 0.4, *cfg.AI.Temperature, 1e-9)
	require.NotNil(t, cfg.AI.MaxTokens)
	assert.Equal(t, 512, *cfg.AI.MaxTokens)
	assert.Equal(t, 45*time.Second, cfg.AI.Timeout)
}

func TestLoadRejectsBadValues(t *testing.T) {
	cases := map[string]string{
		"LLM_PROVIDER":     "claude",
		"LLM_TEMPERATURE":  "warm",
		"LLM_MAX_TOKENS":   "many",
		"LLM_TIMEOUT":      "soon",
		"LOG_PRETTY":       "sometimes",
		"GEOCODER_TIMEOUT": "1 minute",
	}

	for key, value := range cases {
		t.Run(key, func(t *testing.T) {
			clearEnv(t)
			t.Setenv("APP_PASSWORD", "x")
			t.Setenv(key, value)

			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestNewChatModelRequiresCredentials(t *testing.T) {
	_, err := AIConfig{Provider: ProviderArk}.NewChatModel(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), `missing credentials or model for provider "ark"`)
}
