package notify

import "time"

const (
	defaultSubjectPrefix  = "transcriber.jobs"
	defaultConnectTimeout = 2 * time.Second
	defaultEmbeddedPort   = 4222
)

// NATSConfig configures the job event publisher.
type NATSConfig struct {
	// Enabled turns publishing on.
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`
	// Servers are NATS URLs, e.g. nats://localhost:4222.
	Servers []string `yaml:"servers" mapstructure:"servers" validate:"dive,url"`
	// SubjectPrefix is prepended to the job status. Defaults to transcriber.jobs.
	SubjectPrefix  string        `yaml:"subject_prefix" mapstructure:"subject_prefix"`
	ConnectTimeout time.Duration `yaml:"connect_timeout" mapstructure:"connect_timeout"`
	Token          string        `yaml:"token" mapstructure:"token"`
	Username       string        `yaml:"username" mapstructure:"username"`
	Password       string        `yaml:"password" mapstructure:"password"`
	// Embedded starts an in-process NATS server, for single-node setups.
	Embedded     bool `yaml:"embedded" mapstructure:"embedded"`
	EmbeddedPort int  `yaml:"embedded_port" mapstructure:"embedded_port" validate:"gte=-1,lte=65535"`
}

// ApplyDefaults fills in zero values.
func (c *NATSConfig) ApplyDefaults() {
	if c.SubjectPrefix == "" {
		c.SubjectPrefix = defaultSubjectPrefix
	}
	if c.ConnectTimeout <= 0 {
		c.ConnectTimeout = defaultConnectTimeout
	}
	if c.EmbeddedPort == 0 {
		c.EmbeddedPort = defaultEmbeddedPort
	}
}
