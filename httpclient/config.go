package httpclient

import (
	"fmt"
	"net/url"
	"time"

	"github.com/kbukum/transcriber/resilience"
)

const defaultTimeout = 30 * time.Second

// Config is shared by every request a Client sends. Auth, Retry and
// CircuitBreaker are wired in code; a nil policy is disabled.
type Config struct {
	// BaseURL prefixes relative request paths.
	BaseURL        string                           `yaml:"base_url" mapstructure:"base_url"`
	Timeout        time.Duration                    `yaml:"timeout" mapstructure:"timeout"`
	Headers        map[string]string                `yaml:"headers" mapstructure:"headers"`
	Auth           *AuthConfig                      `yaml:"-" mapstructure:"-"`
	Retry          *resilience.RetryConfig          `yaml:"-" mapstructure:"-"`
	CircuitBreaker *resilience.CircuitBreakerConfig `yaml:"-" mapstructure:"-"`
}

func (c *Config) ApplyDefaults() {
	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}
}

// Validate requires a positive timeout and, when set, an absolute
// http(s) BaseURL.
func (c *Config) Validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("httpclient: timeout must be positive")
	}
	if c.BaseURL == "" {
		return nil
	}
	u, err := url.Parse(c.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("httpclient: base_url %q is not an absolute http(s) URL", c.BaseURL)
	}
	return nil
}

// DefaultRetryConfig retries connection failures, timeouts, 429 and 5xx.
func DefaultRetryConfig() *resilience.RetryConfig {
	cfg := resilience.DefaultRetryConfig()
	cfg.RetryIf = IsRetryable
	return &cfg
}

// DefaultCircuitBreakerConfig counts only retryable errors against the
// breaker, so a 400 for one bad file does not open it.
func DefaultCircuitBreakerConfig(name string) *resilience.CircuitBreakerConfig {
	cfg := resilience.DefaultCircuitBreakerConfig(name)
	cfg.IsFailure = IsRetryable
	return &cfg
}

// PolicyFromConfig builds retry and breaker settings from a YAML policy.
func PolicyFromConfig(name string, p resilience.Config) (*resilience.RetryConfig, *resilience.CircuitBreakerConfig) {
	p.ApplyDefaults()
	retry := p.RetryConfig()
	retry.RetryIf = IsRetryable
	breaker := p.BreakerConfig(name)
	breaker.IsFailure = IsRetryable
	return &retry, &breaker
}
