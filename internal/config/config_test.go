package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"PORT", "PUBLIC_DIR", "LOG_LEVEL", "LOG_FORMAT", "LLM_PROVIDER", "OPENAI_MODEL", "GROQ_MODEL",
		"LLM_INCLUDE_HISTORY", "TRANSCRIPTION_TIMEOUT", "GENERATION_TIMEOUT", "MAX_FRAME_BYTES",
		"LLM_MAX_TOKENS", "DEEPGRAM_DIAL_TIMEOUT", "LIVEKIT_HOST", "LIVEKIT_API_KEY", "LIVEKIT_API_SECRET",
		"LIVEKIT_TOKEN_TTL",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 4001, cfg.Port)
	assert.Equal(t, "public", cfg.PublicDir)
	assert.Equal(t, LLMProviderOpenAI, cfg.LLMProvider)
	assert.Equal(t, "gpt-4o-mini", cfg.LLMModel)
	assert.False(t, cfg.LLMIncludeHistory)
	assert.Equal(t, 30*time.Second, cfg.TranscriptionTimeout)
	assert.Equal(t, 30*time.Second, cfg.GenerationTimeout)
	assert.EqualValues(t, 10<<20, cfg.MaxFrameBytes)
	assert.Equal(t, 1024, cfg.LLMMaxTokens)
	assert.Equal(t, 10*time.Second, cfg.DeepgramDialTimeout)
	assert.Equal(t, 6*time.Hour, cfg.LiveKitTokenTTL)
}

func TestLoadLeavesLiveKitCredentialsEmptyWhenUnset(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Empty(t, cfg.LiveKitHost)
	assert.Empty(t, cfg.LiveKitAPIKey)
	assert.Empty(t, cfg.LiveKitAPISecret)
}

func TestLoadOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "8080")
	t.Setenv("LLM_PROVIDER", "GROQ")
	t.Setenv("GROQ_MODEL", "llama-3.3-70b-versatile")
	t.Setenv("LLM_INCLUDE_HISTORY", "true")
	t.Setenv("GENERATION_TIMEOUT", "5s")
	t.Setenv("LLM_MAX_TOKENS", "256")
	t.Setenv("DEEPGRAM_DIAL_TIMEOUT", "3s")
	t.Setenv("LIVEKIT_API_KEY", "key")
	t.Setenv("LIVEKIT_API_SECRET", "secret")
	t.Setenv("LIVEKIT_TOKEN_TTL", "1h")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, LLMProviderGroq, cfg.LLMProvider)
	assert.Equal(t, "llama-3.3-70b-versatile", cfg.LLMModel)
	assert.True(t, cfg.LLMIncludeHistory)
	assert.Equal(t, 5*time.Second, cfg.GenerationTimeout)
	assert.Equal(t, 256, cfg.LLMMaxTokens)
	assert.Equal(t, 3*time.Second, cfg.DeepgramDialTimeout)
	assert.Equal(t, "key", cfg.LiveKitAPIKey)
	assert.Equal(t, "secret", cfg.LiveKitAPISecret)
	assert.Equal(t, time.Hour, cfg.LiveKitTokenTTL)
}

func TestLoadRejectsNonPositiveMaxTokens(t *testing.T) {
	clearEnv(t)
	t.Setenv("LLM_MAX_TOKENS", "0")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "LLM_MAX_TOKENS")
}

func TestLoadReportsEveryInvalidValue(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "not-a-port")
	t.Setenv("TRANSCRIPTION_TIMEOUT", "soon")
	t.Setenv("LLM_PROVIDER", "blackbox")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PORT")
	assert.Contains(t, err.Error(), "TRANSCRIPTION_TIMEOUT")
	assert.Contains(t, err.Error(), "blackbox")
}

func TestLoadEnvIgnoresMissingFile(t *testing.T) {
	assert.NoError(t, LoadEnv(filepath.Join(t.TempDir(), "missing.env")))
}

func TestLoadEnvDoesNotOverrideEnvironment(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("RELAY_TEST_A=from-file\nRELAY_TEST_B=from-file\n"), 0o600))
	t.Setenv("RELAY_TEST_A", "from-env")
	t.Cleanup(func() { os.Unsetenv("RELAY_TEST_B") })

	require.NoError(t, LoadEnv(path))

	assert.Equal(t, "from-env", os.Getenv("RELAY_TEST_A"))
	assert.Equal(t, "from-file", os.Getenv("RELAY_TEST_B"))
}
