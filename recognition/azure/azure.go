// Package azure implements recognition.Backend against the Azure Speech
// short-audio REST API.
//
// The canonical WAV is streamed off disk in fixed-length chunks, each
// posted as its own request in detailed output format. Every recognized
// chunk becomes one SegmentEvent; silent chunks are skipped.
package azure

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/kbukum/transcriber/audio"
	"github.com/kbukum/transcriber/httpclient"
	"github.com/kbukum/transcriber/logger"
	"github.com/kbukum/transcriber/recognition"
	"github.com/kbukum/transcriber/resilience"
	"github.com/kbukum/transcriber/util"
)

// ProviderName is the registered backend name.
const ProviderName = "azure"

// Recognition statuses returned by the service.
const (
	statusSuccess        = "Success"
	statusNoMatch        = "NoMatch"
	statusInitialSilence = "InitialSilenceTimeout"
	statusBabbleTimeout  = "BabbleTimeout"
)

// Offsets and durations are reported in 100ns ticks.
const ticksPerSecond = 1e7

// Backend talks to Azure Speech.
type Backend struct {
	cfg    Config
	client *httpclient.Client
	log    *logger.Logger
}

var _ recognition.Backend = (*Backend)(nil)

// detailedResponse is the format=detailed reply.
type detailedResponse struct {
	RecognitionStatus string `json:"RecognitionStatus"`
	DisplayText       string `json:"DisplayText"`
	Offset            int64  `json:"Offset"`
	Duration          int64  `json:"Duration"`
	NBest             []struct {
		Confidence float64 `json:"Confidence"`
		Display    string  `json:"Display"`
	} `json:"NBest"`
}

// New creates an Azure backend. A missing key is reported by Configured
// rather than here so the service can start and report it on /health.
func New(cfg Config, log *logger.Logger) (*Backend, error) {
	cfg.ApplyDefaults()
	if log == nil {
		log = logger.Nop()
	}
	retry, breaker := httpclient.PolicyFromConfig(ProviderName, cfg.Resilience)
	client, err := httpclient.New(httpclient.Config{
		BaseURL:        cfg.BaseURL(),
		Timeout:        cfg.Timeout,
		Auth:           httpclient.APIKeyAuthHeader(cfg.Key, subscriptionHeader),
		Headers:        map[string]string{"Accept": "application/json"},
		Retry:          retry,
		CircuitBreaker: breaker,
	})
	if err != nil {
		return nil, fmt.Errorf("azure: %w", err)
	}
	b := &Backend{cfg: cfg, client: client, log: log.WithComponent("recognition-azure")}
	if cfg.Key != "" {
		b.log.Info("azure speech configured", logger.Fields(
			"region", cfg.Region,
			"key", util.MaskSecret(cfg.Key, 4),
		))
	}
	return b, nil
}

// Name implements provider.Provider.
func (b *Backend) Name() string { return ProviderName }

// IsAvailable reports a configured key and a closed or half-open breaker.
func (b *Backend) IsAvailable(context.Context) bool {
	return b.Configured() == nil && b.client.BreakerState() != resilience.StateOpen
}

// Configured implements recognition.Backend.
func (b *Backend) Configured() error {
	if b.cfg.Key == "" {
		return errors.New(recognition.MsgNotConfigured)
	}
	return nil
}

// Recognize implements recognition.Backend.
func (b *Backend) Recognize(ctx context.Context, s recognition.Session, events chan<- recognition.Event) error {
	format, err := audio.Inspect(s.AudioPath)
	if err != nil {
		recognition.Emit(ctx, events, recognition.CanceledEvent{Reason: "Error", Details: "Invalid WAV header: " + err.Error()})
		return nil
	}
	if !format.IsCanonical() {
		b.log.Warn("sending non-canonical wav", logger.Fields(logger.FieldPath, s.AudioPath, "format", format.String()))
	}

	f, err := os.Open(s.AudioPath)
	if err != nil {
		return fmt.Errorf("azure: open audio: %w", err)
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	chunk := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: format.Channels, SampleRate: format.SampleRate},
		Data:           make([]int, b.cfg.ChunkSeconds*format.SampleRate*format.Channels),
		SourceBitDepth: format.BitDepth,
	}

	for index := 0; ; index++ {
		n, readErr := dec.PCMBuffer(chunk)
		if n > 0 {
			body, err := encodeChunk(chunk, n, format)
			if err != nil {
				return fmt.Errorf("azure: encode chunk %d: %w", index, err)
			}
			ev, ok, err := b.recognizeChunk(ctx, s.Language, format, body)
			if err != nil {
				return err
			}
			if ok {
				if !recognition.Emit(ctx, events, ev) {
					return ctx.Err()
				}
				if _, terminal := ev.(recognition.CanceledEvent); terminal {
					return nil
				}
			}
		}
		if readErr != nil && readErr != io.EOF {
			recognition.Emit(ctx, events, recognition.CanceledEvent{Reason: "Error", Details: "RIFF was not found: " + readErr.Error()})
			return nil
		}
		if n == 0 || readErr == io.EOF {
			break
		}
	}

	recognition.Emit(ctx, events, recognition.SessionEndEvent{})
	return nil
}

// recognizeChunk posts one chunk. ok is false for silent chunks.
func (b *Backend) recognizeChunk(ctx context.Context, language string, format audio.Format, body []byte) (recognition.Event, bool, error) {
	query := map[string]string{"language": language, "format": "detailed"}
	if b.cfg.Profanity != "" {
		query["profanity"] = b.cfg.Profanity
	}
	resp, err := b.client.Do(ctx, httpclient.Request{
		Method: http.MethodPost,
		Path:   recognitionPath,
		Query:  query,
		Headers: map[string]string{
			"Content-Type": "audio/wav; codecs=audio/pcm; samplerate=" + strconv.Itoa(format.SampleRate),
		},
		Body: body,
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, false, ctx.Err()
		}
		return canceledFor(err), true, nil
	}

	var result detailedResponse
	if err := resp.DecodeJSON(&result); err != nil {
		return recognition.CanceledEvent{Reason: "Error", Details: "decode response: " + err.Error()}, true, nil
	}

	switch result.RecognitionStatus {
	case statusSuccess:
		seg := recognition.SegmentEvent{
			Text:     result.DisplayText,
			Duration: float64(result.Duration) / ticksPerSecond,
		}
		if len(result.NBest) > 0 {
			c := result.NBest[0].Confidence
			seg.Confidence = &c
			if seg.Text == "" {
				seg.Text = result.NBest[0].Display
			}
		}
		return seg, true, nil
	case statusNoMatch, statusInitialSilence, statusBabbleTimeout:
		b.log.Debug("chunk contained no speech", logger.Fields("status", result.RecognitionStatus))
		return nil, false, nil
	default:
		return recognition.CanceledEvent{Reason: "Error", Details: "recognition status " + result.RecognitionStatus}, true, nil
	}
}

// canceledFor turns an HTTP failure into a CanceledEvent whose details
// carry the markers DefaultTriage looks for.
func canceledFor(err error) recognition.CanceledEvent {
	details := err.Error()
	herr, ok := httpclient.AsError(err)
	switch {
	case httpclient.IsAuth(err):
		details = "Authentication failed: " + details
	case ok && herr.StatusCode == http.StatusBadRequest:
		details = "BadRequest: " + string(herr.Body)
	}
	return recognition.CanceledEvent{Reason: "Error", Details: details}
}

// encodeChunk writes n samples of buf as a standalone WAV file and returns
// its bytes. The encoder needs a seeker, so it goes through a temp file.
func encodeChunk(buf *goaudio.IntBuffer, n int, format audio.Format) ([]byte, error) {
	tmp, err := os.CreateTemp("", "transcriber-chunk-*.wav")
	if err != nil {
		return nil, err
	}
	defer os.Remove(tmp.Name())
	defer tmp.Close()

	enc := wav.NewEncoder(tmp, format.SampleRate, format.BitDepth, format.Channels, 1)
	part := &goaudio.IntBuffer{Format: buf.Format, Data: buf.Data[:n], SourceBitDepth: format.BitDepth}
	if err := enc.Write(part); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return os.ReadFile(tmp.Name())
}
