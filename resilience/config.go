package resilience

import "time"

// Config is the YAML-facing policy for one backend.
type Config struct {
	Retry   RetrySettings   `yaml:"retry" mapstructure:"retry"`
	Breaker BreakerSettings `yaml:"breaker" mapstructure:"breaker"`
}

// RetrySettings mirrors RetryConfig without the callbacks.
type RetrySettings struct {
	MaxAttempts    int           `yaml:"max_attempts" mapstructure:"max_attempts"`
	InitialBackoff time.Duration `yaml:"initial_backoff" mapstructure:"initial_backoff"`
	MaxBackoff     time.Duration `yaml:"max_backoff" mapstructure:"max_backoff"`
}

// BreakerSettings mirrors CircuitBreakerConfig without the callbacks.
type BreakerSettings struct {
	MaxFailures int           `yaml:"max_failures" mapstructure:"max_failures"`
	Timeout     time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

// ApplyDefaults fills zero values.
func (c *Config) ApplyDefaults() {
	if c.Retry.MaxAttempts <= 0 {
		c.Retry.MaxAttempts = 3
	}
	if c.Retry.InitialBackoff <= 0 {
		c.Retry.InitialBackoff = 200 * time.Millisecond
	}
	if c.Retry.MaxBackoff <= 0 {
		c.Retry.MaxBackoff = 5 * time.Second
	}
	if c.Breaker.MaxFailures <= 0 {
		c.Breaker.MaxFailures = 5
	}
	if c.Breaker.Timeout <= 0 {
		c.Breaker.Timeout = 30 * time.Second
	}
}

// RetryConfig builds a RetryConfig from the settings.
func (c Config) RetryConfig() RetryConfig {
	cfg := DefaultRetryConfig()
	cfg.MaxAttempts = c.Retry.MaxAttempts
	cfg.InitialBackoff = c.Retry.InitialBackoff
	cfg.MaxBackoff = c.Retry.MaxBackoff
	return cfg
}

// BreakerConfig builds a CircuitBreakerConfig named after the backend.
func (c Config) BreakerConfig(name string) CircuitBreakerConfig {
	cfg := DefaultCircuitBreakerConfig(name)
	cfg.MaxFailures = c.Breaker.MaxFailures
	cfg.Timeout = c.Breaker.Timeout
	return cfg
}
