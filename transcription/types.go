package transcription

import (
	"context"

	"github.com/kbukum/transcriber/provider"
)

// Provider is a batch speech-to-text backend: one request, one response.
type Provider interface {
	provider.Provider

	Transcribe(ctx context.Context, req Request) (*Response, error)
}

// Request holds parameters for a transcription call.
type Request struct {
	// AudioPath is the path to the audio file to transcribe.
	AudioPath string `json:"audio_path"`
	// Language is the expected language, either a BCP-47 locale ("en-US")
	// or a bare ISO-639-1 code ("en").
	Language string `json:"language,omitempty"`
	// Model overrides the provider's default model.
	Model string `json:"model,omitempty"`
}

// Response holds the result of a transcription call.
type Response struct {
	// Text is the full transcription text.
	Text string `json:"text"`
	// Segments contains time-aligned transcript segments.
	Segments []Segment `json:"segments,omitempty"`
	// Duration is the audio duration in seconds.
	Duration float64 `json:"duration,omitempty"`
	// Language is the detected or specified language.
	Language string `json:"language,omitempty"`
}

// Segment represents a time-aligned portion of a transcript.
type Segment struct {
	// Start is the segment start time in seconds.
	Start float64 `json:"start"`
	// End is the segment end time in seconds.
	End float64 `json:"end"`
	// Text is the transcribed text for this segment.
	Text string `json:"text"`
	// Confidence is set when the provider reports one, in [0,1].
	Confidence *float64 `json:"confidence,omitempty"`
}

// Length returns the segment duration in seconds, never negative.
func (s Segment) Length() float64 {
	if s.End < s.Start {
		return 0
	}
	return s.End - s.Start
}

// BaseLanguage strips the region from a locale: "pt-BR" -> "pt".
func BaseLanguage(locale string) string {
	for i := 0; i < len(locale); i++ {
		if locale[i] == '-' || locale[i] == '_' {
			return locale[:i]
		}
	}
	return locale
}
