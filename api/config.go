package api

import "time"

const (
	defaultMaxUploadSize     = "100MB"
	defaultSyncMaxConcurrent = 4
	defaultSyncMaxWait       = 0
)

// UploadConfig bounds accepted uploads.
type UploadConfig struct {
	// MaxSize is a size string such as "100MB".
	MaxSize string `yaml:"max_size" mapstructure:"max_size"`
	// Field is the multipart field holding the audio.
	Field string `yaml:"field" mapstructure:"field"`
}

// ApplyDefaults fills in zero values.
func (c *UploadConfig) ApplyDefaults() {
	if c.MaxSize == "" {
		c.MaxSize = defaultMaxUploadSize
	}
	if c.Field == "" {
		c.Field = FieldAudioFile
	}
}

// Config tunes the handlers.
type Config struct {
	// SyncMaxConcurrent caps concurrent /transcribe-audio requests.
	SyncMaxConcurrent int `yaml:"sync_max_concurrent" mapstructure:"sync_max_concurrent" validate:"gte=0"`
	// SyncMaxWait is how long a sync request waits for a slot. Zero rejects
	// immediately when all slots are taken.
	SyncMaxWait time.Duration `yaml:"sync_max_wait" mapstructure:"sync_max_wait" validate:"gte=0"`
}

// ApplyDefaults fills in zero values.
func (c *Config) ApplyDefaults() {
	if c.SyncMaxConcurrent <= 0 {
		c.SyncMaxConcurrent = defaultSyncMaxConcurrent
	}
	if c.SyncMaxWait < 0 {
		c.SyncMaxWait = defaultSyncMaxWait
	}
}
