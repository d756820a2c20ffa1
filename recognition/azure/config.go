package azure

import (
	"fmt"
	"time"

	"github.com/kbukum/transcriber/resilience"
)

const (
	defaultRegion       = "eastus"
	defaultTimeout      = 60 * time.Second
	defaultChunkSeconds = 30
	subscriptionHeader  = "Ocp-Apim-Subscription-Key"
	recognitionPath     = "/speech/recognition/conversation/cognitiveservices/v1"
)

// Config configures the Azure Speech backend.
type Config struct {
	// Key is the Speech resource subscription key (AZURE_SPEECH_KEY).
	Key string `yaml:"key" mapstructure:"key"`
	// Region is the resource region (AZURE_SPEECH_REGION). Defaults to eastus.
	Region string `yaml:"region" mapstructure:"region"`
	// Endpoint overrides the regional endpoint.
	Endpoint string `yaml:"endpoint" mapstructure:"endpoint" validate:"omitempty,url"`
	// Timeout bounds one chunk request.
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`
	// ChunkSeconds is the audio length sent per request. The short-audio
	// REST API accepts at most 60 seconds.
	ChunkSeconds int `yaml:"chunk_seconds" mapstructure:"chunk_seconds" validate:"gte=0,lte=60"`
	// Profanity is passed through as the profanity query parameter when set.
	Profanity string `yaml:"profanity" mapstructure:"profanity" validate:"omitempty,oneof=masked removed raw"`
	// Resilience configures retry and the circuit breaker.
	Resilience resilience.Config `yaml:"resilience" mapstructure:"resilience"`
}

// ApplyDefaults fills in zero values.
func (c *Config) ApplyDefaults() {
	if c.Region == "" {
		c.Region = defaultRegion
	}
	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}
	if c.ChunkSeconds <= 0 {
		c.ChunkSeconds = defaultChunkSeconds
	}
	c.Resilience.ApplyDefaults()
}

// BaseURL returns the endpoint requests are sent to.
func (c *Config) BaseURL() string {
	if c.Endpoint != "" {
		return c.Endpoint
	}
	return fmt.Sprintf("https://%s.stt.speech.microsoft.com", c.Region)
}
