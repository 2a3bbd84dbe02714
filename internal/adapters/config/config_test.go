package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"costpilot/pkg/errors"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("HF_API_KEY", "hf_test")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "hf_test", cfg.Inference.APIKey)
	assert.Equal(t, "https://router.huggingface.co/v1/chat/completions", cfg.Inference.BaseURL)
	assert.Equal(t, "meta-llama/Llama-3.1-8B-Instruct", cfg.Inference.Model)
	assert.Equal(t, 60*time.Second, cfg.Inference.Timeout)
	assert.Equal(t, 3, cfg.Generation.MaxAttempts)
	assert.Equal(t, 2*time.Second, cfg.Generation.InitialBackoff)
	assert.Equal(t, ".", cfg.Artifacts.Dir)
	assert.False(t, cfg.ErrorTracking.Enabled)
}

func TestLoad_MissingAPIKey(t *testing.T) {
	t.Setenv("HF_API_KEY", "placeholder") // registers restore
	require.NoError(t, os.Unsetenv("HF_API_KEY"))

	_, err := Load()
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrConfiguration))
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("HF_API_KEY", "hf_test")
	t.Setenv("HF_MODEL", "mistralai/Mistral-7B-Instruct-v0.3")
	t.Setenv("GENERATION_MAX_ATTEMPTS", "5")
	t.Setenv("ARTIFACT_DIR", "/tmp/artifacts")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "mistralai/Mistral-7B-Instruct-v0.3", cfg.Inference.Model)
	assert.Equal(t, 5, cfg.Generation.MaxAttempts)
	assert.Equal(t, "/tmp/artifacts", cfg.Artifacts.Dir)
}
