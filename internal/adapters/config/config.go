package config

import (
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"costpilot/pkg/errors"
)

type Config struct {
	App           AppConfig
	Inference     InferenceConfig
	Generation    GenerationConfig
	Artifacts     ArtifactConfig
	ErrorTracking ErrorTrackingConfig
}

type AppConfig struct {
	Name     string `envconfig:"APP_NAME" default:"costpilot"`
	Env      string `envconfig:"APP_ENV" default:"development"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
	Debug    bool   `envconfig:"DEBUG" default:"false"`
}

// InferenceConfig configures the external inference collaborator.
// The API key is the single required secret: its absence is a startup-time
// fatal error, never a per-stage failure.
type InferenceConfig struct {
	APIKey       string        `envconfig:"HF_API_KEY" required:"true"`
	BaseURL      string        `envconfig:"HF_BASE_URL" default:"https://router.huggingface.co/v1/chat/completions"`
	Model        string        `envconfig:"HF_MODEL" default:"meta-llama/Llama-3.1-8B-Instruct"`
	Timeout      time.Duration `envconfig:"HF_TIMEOUT" default:"60s"`
	ReqPerMinute float64       `envconfig:"HF_REQ_PER_MINUTE" default:"30"`
	Burst        int           `envconfig:"HF_BURST" default:"5"`
}

// GenerationConfig bounds the retry machinery around every inference call.
type GenerationConfig struct {
	MaxAttempts    int           `envconfig:"GENERATION_MAX_ATTEMPTS" default:"3"`
	InitialBackoff time.Duration `envconfig:"GENERATION_INITIAL_BACKOFF" default:"2s"`
	MaxBackoff     time.Duration `envconfig:"GENERATION_MAX_BACKOFF" default:"30s"`
}

// ArtifactConfig controls where the pipeline writes its documents.
type ArtifactConfig struct {
	Dir string `envconfig:"ARTIFACT_DIR" default:"."`
}

type ErrorTrackingConfig struct {
	Enabled     bool   `envconfig:"ERROR_TRACKING_ENABLED" default:"false"`
	SentryDSN   string `envconfig:"SENTRY_DSN"`
	Environment string `envconfig:"SENTRY_ENVIRONMENT" default:"production"`
}

// Load reads configuration from environment variables
// It first tries to load .env file (useful for local development)
func Load() (*Config, error) {
	// Load .env file if exists (ignore error if not exists)
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, errors.Wrap(errors.ErrConfiguration, err.Error())
	}

	return &cfg, nil
}
