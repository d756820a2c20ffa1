package main

import (
	"fmt"

	"github.com/kbukum/transcriber/api"
	"github.com/kbukum/transcriber/audio"
	"github.com/kbukum/transcriber/config"
	"github.com/kbukum/transcriber/notify"
	"github.com/kbukum/transcriber/observability"
	"github.com/kbukum/transcriber/recognition"
	"github.com/kbukum/transcriber/recognition/azure"
	"github.com/kbukum/transcriber/recognition/command"
	"github.com/kbukum/transcriber/server"
	"github.com/kbukum/transcriber/storage"
	sidecar "github.com/kbukum/transcriber/transcription/whisper"
	"github.com/kbukum/transcriber/validation"
	"github.com/kbukum/transcriber/version"
)

const serviceName = "transcriber"

// AppConfig is the full service configuration.
type AppConfig struct {
	config.ServiceConfig `yaml:",inline" mapstructure:",squash"`

	Server        server.Config        `yaml:"server" mapstructure:"server"`
	Observability observability.Config `yaml:"observability" mapstructure:"observability"`
	Storage       storage.Config       `yaml:"storage" mapstructure:"storage"`
	Upload        api.UploadConfig     `yaml:"upload" mapstructure:"upload"`
	API           api.Config           `yaml:"api" mapstructure:"api"`
	Audio         audio.Config         `yaml:"audio" mapstructure:"audio"`
	Recognition   RecognitionConfig    `yaml:"recognition" mapstructure:"recognition"`
	NATS          notify.NATSConfig    `yaml:"nats" mapstructure:"nats"`
}

// RecognitionConfig selects and configures the speech backend.
type RecognitionConfig struct {
	recognition.Config `yaml:",inline" mapstructure:",squash"`

	Azure   azure.Config   `yaml:"azure" mapstructure:"azure"`
	Whisper sidecar.Config `yaml:"whisper" mapstructure:"whisper"`
	Command command.Config `yaml:"command" mapstructure:"command"`
}

// ApplyDefaults fills in every section.
func (c *AppConfig) ApplyDefaults() {
	if c.Name == "" {
		c.Name = serviceName
	}
	if c.Version == "" {
		c.Version = version.Get().Version
	}
	c.ServiceConfig.ApplyDefaults()
	c.Server.ApplyDefaults()
	c.Observability.ApplyDefaults()
	c.Storage.ApplyDefaults()
	c.Upload.ApplyDefaults()
	c.API.ApplyDefaults()
	c.Audio.ApplyDefaults()
	c.Recognition.Config.ApplyDefaults()
	c.Recognition.Azure.ApplyDefaults()
	c.Recognition.Whisper.ApplyDefaults()
	c.NATS.ApplyDefaults()
}

// Validate checks the sections with hand-written rules first, then every
// validate tag.
func (c *AppConfig) Validate() error {
	if err := c.ServiceConfig.Validate(); err != nil {
		return err
	}
	if err := c.Server.Validate(); err != nil {
		return err
	}
	if err := c.Storage.Validate(); err != nil {
		return err
	}
	if err := validation.Validate(c); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// loaderOptions binds TRANSCRIBER_* variables and the bare names the
// service has always read.
func loaderOptions() []config.LoaderOption {
	return []config.LoaderOption{
		config.WithEnvPrefix("TRANSCRIBER"),
		config.WithEnvAlias("AZURE_SPEECH_KEY", "recognition.azure.key"),
		config.WithEnvAlias("AZURE_SERVICE_REGION", "recognition.azure.region"),
		config.WithEnvAlias("AZURE_SPEECH_REGION", "recognition.azure.region"),
		config.WithEnvAlias("PORT", "server.port"),
	}
}
