package azure

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"math"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/kbukum/transcriber/errors"
	"github.com/kbukum/transcriber/recognition"
	"github.com/kbukum/transcriber/resilience"
	"github.com/kbukum/transcriber/testutil"
)

func fastPolicy() resilience.Config {
	return resilience.Config{Retry: resilience.RetrySettings{MaxAttempts: 1, InitialBackoff: time.Millisecond}}
}

func newBackend(t *testing.T, url string) *Backend {
	t.Helper()
	b, err := New(Config{Key: "test-key", Endpoint: url, ChunkSeconds: 1, Resilience: fastPolicy()}, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return b
}

func wavFile(t *testing.T, seconds float64) string {
	t.Helper()
	return testutil.WriteWAV(t, filepath.Join(t.TempDir(), "in.wav"), testutil.Tone(16000, seconds), 16000)
}

func success(text string, confidence float64, ticks int64) map[string]any {
	return map[string]any{
		"RecognitionStatus": "Success",
		"DisplayText":       text,
		"Duration":          ticks,
		"NBest":             []map[string]any{{"Confidence": confidence, "Display": text}},
	}
}

func TestRecognizeChunks(t *testing.T) {
	replies := []map[string]any{
		success("Hello there.", 0.6, 12_000_000),
		{"RecognitionStatus": "NoMatch"},
		success("General Kenobi.", 0.9, 8_000_000),
	}
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != recognitionPath {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get(subscriptionHeader); got != "test-key" {
			t.Errorf("expected subscription key, got %q", got)
		}
		q := r.URL.Query()
		if q.Get("language") != "en-GB" || q.Get("format") != "detailed" {
			t.Errorf("unexpected query %v", q)
		}
		if ct := r.Header.Get("Content-Type"); ct != "audio/wav; codecs=audio/pcm; samplerate=16000" {
			t.Errorf("unexpected content type %q", ct)
		}
		body, _ := io.ReadAll(r.Body)
		if !bytes.HasPrefix(body, []byte("RIFF")) {
			t.Errorf("expected a wav body, got %q", body[:min(len(body), 8)])
		}
		i := int(calls.Add(1)) - 1
		if i >= len(replies) {
			t.Errorf("unexpected request %d", i)
			return
		}
		json.NewEncoder(w).Encode(replies[i])
	}))
	defer srv.Close()

	a := recognition.NewAdapter(newBackend(t, srv.URL), recognition.Config{})
	res, err := a.Transcribe(context.Background(), wavFile(t, 2.5), "en-GB")
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if calls.Load() != 3 {
		t.Errorf("expected 3 chunk requests, got %d", calls.Load())
	}
	if res.Text != "Hello there. General Kenobi." || res.Segments != 2 {
		t.Errorf("unexpected text %+v", res)
	}
	if *res.Confidence != 0.9 || math.Abs(res.Duration-2.0) > 1e-9 {
		t.Errorf("unexpected confidence/duration %+v", res)
	}
}

func TestRecognizeFailures(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		kind   recognition.Kind
	}{
		{"unauthorized", http.StatusUnauthorized, "denied", recognition.AuthenticationFailed},
		{"forbidden", http.StatusForbidden, "denied", recognition.AuthenticationFailed},
		{"bad request", http.StatusBadRequest, "unsupported audio", recognition.UnsupportedOrCorruptFormat},
		{"error status", http.StatusOK, `{"RecognitionStatus":"Error"}`, recognition.Canceled},
		{"all silence", http.StatusOK, `{"RecognitionStatus":"InitialSilenceTimeout"}`, recognition.NoSpeechDetected},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				w.Write([]byte(tc.body))
			}))
			defer srv.Close()

			a := recognition.NewAdapter(newBackend(t, srv.URL), recognition.Config{})
			_, err := a.Transcribe(context.Background(), wavFile(t, 0.5), "en-US")
			f, ok := err.(*recognition.Failure)
			if !ok || f.Kind != tc.kind {
				t.Errorf("expected %v, got %v", tc.kind, err)
			}
		})
	}
}

func TestRecognizeInvalidWAV(t *testing.T) {
	path := testutil.WriteFile(t, filepath.Join(t.TempDir(), "bad.wav"), []byte("ID3 this is an mp3"))
	a := recognition.NewAdapter(newBackend(t, "http://127.0.0.1:1"), recognition.Config{})
	_, err := a.Transcribe(context.Background(), path, "en-US")
	appErr := recognition.ToAppError(err)
	if appErr.Code != errors.ErrCodeUnsupportedFormat {
		t.Errorf("expected unsupported format, got %v", err)
	}
}

func TestConfigured(t *testing.T) {
	b, err := New(Config{}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := b.Configured(); err == nil || err.Error() != recognition.MsgNotConfigured {
		t.Errorf("expected not configured, got %v", err)
	}
	if b.IsAvailable(context.Background()) {
		t.Error("unconfigured backend must not be available")
	}

	_, err = recognition.NewAdapter(b, recognition.Config{}).Transcribe(context.Background(), wavFile(t, 0.1), "en-US")
	if appErr, ok := errors.AsAppError(err); !ok || appErr.Code != errors.ErrCodeConfiguration || appErr.Message != recognition.MsgNotConfigured {
		t.Errorf("expected configuration error, got %v", err)
	}
}

func TestConfigDefaults(t *testing.T) {
	var cfg Config
	cfg.ApplyDefaults()
	if cfg.Region != "eastus" || cfg.ChunkSeconds != 30 || cfg.Timeout != time.Minute {
		t.Errorf("unexpected defaults %+v", cfg)
	}
	if got := cfg.BaseURL(); got != "https://eastus.stt.speech.microsoft.com" {
		t.Errorf("unexpected base url %s", got)
	}
}
