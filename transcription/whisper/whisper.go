// Package whisper implements transcription.Provider against a
// faster-whisper HTTP sidecar (POST /transcribe, GET /health).
package whisper

import (
	"cmp"
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/kbukum/transcriber/httpclient"
	"github.com/kbukum/transcriber/resilience"
	"github.com/kbukum/transcriber/transcription"
)

const (
	// ProviderName is the registered name for the Whisper provider.
	ProviderName = "whisper"

	defaultWhisperURL     = "http://localhost:8387"
	defaultWhisperModel   = "base"
	defaultWhisperTimeout = 120 * time.Second
)

// Config holds configuration for the Whisper transcription provider.
type Config struct {
	URL        string            `yaml:"url" mapstructure:"url"`
	Model      string            `yaml:"model" mapstructure:"model"`
	Language   string            `yaml:"language" mapstructure:"language"`
	Token      string            `yaml:"token" mapstructure:"token"`
	Timeout    time.Duration     `yaml:"timeout" mapstructure:"timeout"`
	Resilience resilience.Config `yaml:"resilience" mapstructure:"resilience"`
}

// ApplyDefaults fills in zero values.
func (c *Config) ApplyDefaults() {
	if c.URL == "" {
		c.URL = defaultWhisperURL
	}
	if c.Model == "" {
		c.Model = defaultWhisperModel
	}
	if c.Timeout <= 0 {
		c.Timeout = defaultWhisperTimeout
	}
	c.Resilience.ApplyDefaults()
}

// Provider implements transcription.Provider using a faster-whisper HTTP sidecar.
type Provider struct {
	cfg    Config
	client *httpclient.Client
}

var _ transcription.Provider = (*Provider)(nil)

// NewProvider creates a new Whisper transcription provider.
func NewProvider(cfg Config) (*Provider, error) {
	cfg.ApplyDefaults()
	retry, breaker := httpclient.PolicyFromConfig(ProviderName, cfg.Resilience)

	hc := httpclient.Config{
		BaseURL:        cfg.URL,
		Timeout:        cfg.Timeout,
		Retry:          retry,
		CircuitBreaker: breaker,
	}
	if cfg.Token != "" {
		hc.Auth = httpclient.BearerAuth(cfg.Token)
	}
	client, err := httpclient.New(hc)
	if err != nil {
		return nil, fmt.Errorf("whisper: %w", err)
	}
	return &Provider{cfg: cfg, client: client}, nil
}

// Name returns the provider name.
func (p *Provider) Name() string { return ProviderName }

// IsAvailable checks if the Whisper sidecar is reachable.
func (p *Provider) IsAvailable(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	resp, err := p.client.Do(ctx, httpclient.Request{Method: http.MethodGet, Path: "/health"})
	return err == nil && resp.StatusCode == http.StatusOK
}

// Transcribe uploads the file as the "audio" part. Request model and
// language override the configured ones; only the base language subtag
// is sent because the sidecar takes ISO 639-1 codes.
func (p *Provider) Transcribe(ctx context.Context, req transcription.Request) (*transcription.Response, error) {
	file, err := httpclient.FileFromPath("audio", req.AudioPath, "audio/wav")
	if err != nil {
		return nil, fmt.Errorf("read audio file: %w", err)
	}

	fields := map[string]string{"model": cmp.Or(req.Model, p.cfg.Model)}
	if lang := cmp.Or(req.Language, p.cfg.Language); lang != "" {
		fields["language"] = transcription.BaseLanguage(lang)
	}

	resp, err := p.client.Do(ctx, httpclient.Request{
		Method: http.MethodPost,
		Path:   "/transcribe",
		Body:   &httpclient.MultipartBody{Fields: fields, Files: []httpclient.FileField{file}},
	})
	if err != nil {
		if herr, ok := httpclient.AsError(err); ok && len(herr.Body) > 0 {
			return nil, fmt.Errorf("whisper request: %w: %s", err, herr.Body)
		}
		return nil, fmt.Errorf("whisper request: %w", err)
	}

	var out sidecarResult
	if err := resp.DecodeJSON(&out); err != nil {
		return nil, fmt.Errorf("decode whisper response: %w", err)
	}
	return out.response(), nil
}

type sidecarResult struct {
	Text     string `json:"text"`
	Language string `json:"language"`
	Segments []struct {
		Text  string  `json:"text"`
		Start float64 `json:"start"`
		End   float64 `json:"end"`
	} `json:"segments"`
}

// response takes the duration from the end of the last segment.
func (r *sidecarResult) response() *transcription.Response {
	out := &transcription.Response{
		Text:     r.Text,
		Language: r.Language,
		Segments: make([]transcription.Segment, 0, len(r.Segments)),
	}
	for _, seg := range r.Segments {
		out.Segments = append(out.Segments, transcription.Segment{Start: seg.Start, End: seg.End, Text: seg.Text})
		out.Duration = seg.End
	}
	return out
}
