package storage

import (
	"fmt"
	"os"
	"path/filepath"
)

// ProviderLocal keeps uploads on the local filesystem, the only backend
// ffmpeg and the recognizers can read without a copy.
const ProviderLocal = "local"

// DefaultProvider is used when no provider is configured.
const DefaultProvider = ProviderLocal

// Config selects and configures the upload store.
type Config struct {
	Provider string `yaml:"provider" mapstructure:"provider" json:"provider"`
	// BasePath is the local backend's root; created on start.
	BasePath string `yaml:"base_path" mapstructure:"base_path" json:"base_path"`
}

// DefaultBasePath is <tmp>/transcriber/uploads.
func DefaultBasePath() string {
	return filepath.Join(os.TempDir(), "transcriber", "uploads")
}

func (c *Config) ApplyDefaults() {
	if c.Provider == "" {
		c.Provider = DefaultProvider
	}
	if c.BasePath == "" {
		c.BasePath = DefaultBasePath()
	}
}

func (c *Config) Validate() error {
	switch {
	case c.Provider == "":
		return fmt.Errorf("storage: provider is required")
	case c.Provider == ProviderLocal && c.BasePath == "":
		return fmt.Errorf("storage: base_path is required for local provider")
	}
	return nil
}
