// Package whisper adapts a batch transcription.Provider, normally the
// faster-whisper sidecar, to the recognition session model.
package whisper

import (
	"context"
	"fmt"

	"github.com/kbukum/transcriber/recognition"
	"github.com/kbukum/transcriber/transcription"
	sidecar "github.com/kbukum/transcriber/transcription/whisper"
)

// ProviderName is the registered backend name.
const ProviderName = sidecar.ProviderName

// Backend emits one SegmentEvent per provider segment.
type Backend struct {
	provider transcription.Provider
}

var _ recognition.Backend = (*Backend)(nil)

// New creates a backend for the whisper sidecar described by cfg.
func New(cfg sidecar.Config) (*Backend, error) {
	p, err := sidecar.NewProvider(cfg)
	if err != nil {
		return nil, err
	}
	return Wrap(p), nil
}

// Wrap adapts any batch provider.
func Wrap(p transcription.Provider) *Backend {
	return &Backend{provider: p}
}

// Name implements provider.Provider.
func (b *Backend) Name() string { return b.provider.Name() }

// IsAvailable implements provider.Provider.
func (b *Backend) IsAvailable(ctx context.Context) bool { return b.provider.IsAvailable(ctx) }

// Configured implements recognition.Backend. The sidecar needs no credentials.
func (b *Backend) Configured() error {
	if b.provider == nil {
		return fmt.Errorf("whisper provider not configured")
	}
	return nil
}

// Recognize implements recognition.Backend.
func (b *Backend) Recognize(ctx context.Context, s recognition.Session, events chan<- recognition.Event) error {
	resp, err := b.provider.Transcribe(ctx, transcription.Request{AudioPath: s.AudioPath, Language: s.Language})
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		recognition.Emit(ctx, events, recognition.CanceledEvent{Reason: "whisper request failed", Details: err.Error()})
		return nil
	}

	if len(resp.Segments) == 0 && resp.Text != "" {
		resp.Segments = []transcription.Segment{{Text: resp.Text, End: resp.Duration}}
	}
	for _, seg := range resp.Segments {
		ev := recognition.SegmentEvent{Text: seg.Text, Confidence: seg.Confidence, Duration: seg.Length()}
		if !recognition.Emit(ctx, events, ev) {
			return ctx.Err()
		}
	}
	recognition.Emit(ctx, events, recognition.SessionEndEvent{})
	return nil
}
