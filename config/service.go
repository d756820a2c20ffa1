package config

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/kbukum/transcriber/logger"
)

// Environments lists the accepted values of ServiceConfig.Environment.
var Environments = []string{"development", "staging", "production"}

const defaultShutdownTimeout = 30 * time.Second

// ServiceConfig holds the fields shared by every binary. It is embedded
// with mapstructure squash so its keys sit at the top level of the file:
//
//	type AppConfig struct {
//	    config.ServiceConfig `yaml:",inline" mapstructure:",squash"`
//	    Server server.Config `yaml:"server" mapstructure:"server"`
//	}
type ServiceConfig struct {
	Name        string `yaml:"name" mapstructure:"name"`
	Environment string `yaml:"environment" mapstructure:"environment"`
	Version     string `yaml:"version" mapstructure:"version"`
	Debug       bool   `yaml:"debug" mapstructure:"debug"`
	// ShutdownTimeout bounds component shutdown, in-flight jobs included.
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" mapstructure:"shutdown_timeout"`
	Logging         logger.Config `yaml:"logging" mapstructure:"logging"`
}

// GetServiceConfig is promoted to the embedding struct, which is how
// bootstrap reaches the shared fields.
func (c *ServiceConfig) GetServiceConfig() *ServiceConfig {
	return c
}

// ApplyDefaults fills zero values. Development implies debug.
func (c *ServiceConfig) ApplyDefaults() {
	if c.Environment == "" {
		c.Environment = Environments[0]
	}
	if c.Environment == "development" {
		c.Debug = true
	}
	if c.ShutdownTimeout <= 0 {
		c.ShutdownTimeout = defaultShutdownTimeout
	}
	c.Logging.ApplyDefaults()
}

// Validate checks the shared fields.
func (c *ServiceConfig) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("config.name is required")
	}
	if !slices.Contains(Environments, c.Environment) {
		return fmt.Errorf("config.environment must be one of [%s] (got: %s)", strings.Join(Environments, ", "), c.Environment)
	}
	if c.ShutdownTimeout < 0 {
		return fmt.Errorf("config.shutdown_timeout must not be negative")
	}
	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("config.logging: %w", err)
	}
	return nil
}
