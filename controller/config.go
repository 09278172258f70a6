package controller

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/netop-tools/ixc/device"
	"github.com/netop-tools/ixc/engine"
	"github.com/netop-tools/ixc/memory"
)

const (
	defaultMaxAutoTurns = 5
	defaultModel        = "gpt-5-mini"
)

// Config holds initialization parameters for all controller subsystems.
// Each subsystem section delegates to that subsystem's config-driven
// constructor.
type Config struct {
	Engine engine.Config    `json:"engine"`
	Device device.SSHConfig `json:"device"`
	Memory memory.Config    `json:"memory"`

	// Model is the initial model id, validated against the known-model set.
	Model string `json:"model,omitempty"`
	// MaxAutoTurns bounds consecutive device turns fed back to the model
	// without operator input. Zero selects the default.
	MaxAutoTurns int `json:"max_auto_turns,omitempty"`
}

// DefaultConfig returns a Config with sensible defaults for all subsystems.
func DefaultConfig() Config {
	return Config{
		Engine:       engine.DefaultConfig(),
		Device:       device.DefaultSSHConfig(),
		Memory:       memory.DefaultConfig(),
		Model:        defaultModel,
		MaxAutoTurns: defaultMaxAutoTurns,
	}
}

// Merge applies non-zero values from source into c, delegating to each
// subsystem's Merge method.
func (c *Config) Merge(source *Config) {
	c.Engine.Merge(&source.Engine)
	c.Device.Merge(&source.Device)
	c.Memory.Merge(&source.Memory)

	if source.Model != "" {
		c.Model = source.Model
	}
	if source.MaxAutoTurns > 0 {
		c.MaxAutoTurns = source.MaxAutoTurns
	}
}

// LoadConfig reads a JSON config file, merges it with defaults, and returns
// the resulting Config.
func LoadConfig(filename string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var loaded Config
	if err := json.Unmarshal(data, &loaded); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.Merge(&loaded)
	return &cfg, nil
}
