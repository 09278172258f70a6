package engine

import (
	"fmt"
	"os"
	"time"
)

const defaultAPIKeyEnv = "OPENAI_API_KEY"

// Config holds completion-engine initialization parameters.
type Config struct {
	// BaseURL of an OpenAI-compatible endpoint. Empty selects the public API.
	BaseURL string `json:"base_url,omitempty"`
	// APIKeyEnv names the environment variable carrying the API key.
	APIKeyEnv string `json:"api_key_env,omitempty"`
	// TimeoutSeconds bounds one completion call. Zero selects the default.
	TimeoutSeconds int `json:"timeout_seconds,omitempty"`
}

// DefaultConfig returns the default engine configuration.
func DefaultConfig() Config {
	return Config{APIKeyEnv: defaultAPIKeyEnv}
}

// Merge applies non-zero values from source into c.
func (c *Config) Merge(source *Config) {
	if source.BaseURL != "" {
		c.BaseURL = source.BaseURL
	}
	if source.APIKeyEnv != "" {
		c.APIKeyEnv = source.APIKeyEnv
	}
	if source.TimeoutSeconds > 0 {
		c.TimeoutSeconds = source.TimeoutSeconds
	}
}

// New creates an Engine from configuration, reading the API key from the
// configured environment variable.
func New(cfg *Config) (Engine, error) {
	keyEnv := cfg.APIKeyEnv
	if keyEnv == "" {
		keyEnv = defaultAPIKeyEnv
	}

	apiKey := os.Getenv(keyEnv)
	if apiKey == "" {
		return nil, fmt.Errorf("environment variable %s is not set", keyEnv)
	}

	return NewOpenAI(cfg.BaseURL, apiKey, time.Duration(cfg.TimeoutSeconds)*time.Second), nil
}
