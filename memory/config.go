package memory

// Default token budget for the composed context window.
const defaultTokenBudget = 100_000

// Config holds context composition parameters.
type Config struct {
	// Path is the FileStore root holding the prompt template and usage
	// snapshot. Empty disables persistence (embedded defaults are used).
	Path string `json:"path,omitempty"`
	// TokenBudget caps the composed context; oldest blocks are dropped
	// when the estimate would exceed it. Zero selects the default.
	TokenBudget int `json:"token_budget,omitempty"`
}

// DefaultConfig returns the default memory configuration.
func DefaultConfig() Config {
	return Config{TokenBudget: defaultTokenBudget}
}

// Merge applies non-zero values from source into c.
func (c *Config) Merge(source *Config) {
	if source.Path != "" {
		c.Path = source.Path
	}
	if source.TokenBudget > 0 {
		c.TokenBudget = source.TokenBudget
	}
}

// NewStore creates a Store from configuration. Returns a nil Store when
// Path is empty, indicating persistence is disabled.
func NewStore(cfg *Config) (Store, error) {
	if cfg.Path == "" {
		return nil, nil
	}
	return NewFileStore(cfg.Path), nil
}
