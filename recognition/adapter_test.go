package recognition_test

import (
	"context"
	stderrors "errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/kbukum/transcriber/errors"
	"github.com/kbukum/transcriber/recognition"
	"github.com/kbukum/transcriber/recognition/recognitiontest"
	"github.com/kbukum/transcriber/testutil"
)

func audioFile(t *testing.T) string {
	t.Helper()
	return testutil.WriteWAV(t, filepath.Join(t.TempDir(), "in.wav"), testutil.Tone(16000, 0.1), 16000)
}

func failureOf(t *testing.T, err error) *recognition.Failure {
	t.Helper()
	var f *recognition.Failure
	if !stderrors.As(err, &f) {
		t.Fatalf("expected *recognition.Failure, got %T: %v", err, err)
	}
	return f
}

func TestTranscribeAggregates(t *testing.T) {
	b := &recognitiontest.Backend{Events: []recognition.Event{
		recognitiontest.Segment("the quick", 0.6, 1.2),
		recognitiontest.Segment("brown fox", 0.9, 0.8),
		recognitiontest.Segment("jumps", 0.3, 0),
		recognition.SessionEndEvent{},
	}}
	a := recognition.NewAdapter(b, recognition.Config{})

	res, err := a.Transcribe(context.Background(), audioFile(t), "de-DE")
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if res.Text != "the quick brown fox jumps" || *res.Confidence != 0.9 || res.Duration != 2.0 {
		t.Errorf("unexpected result %+v", res)
	}
	if s := b.Sessions(); len(s) != 1 || s[0].Language != "de-DE" {
		t.Errorf("unexpected sessions %+v", s)
	}
}

func TestTranscribeKeepsSegmentText(t *testing.T) {
	b := &recognitiontest.Backend{Events: []recognition.Event{
		recognitiontest.Segment(" Hello,", 0.5, 0.5),
		recognitiontest.Segment("   ", 0.1, 0.2),
		recognitiontest.Segment("wide  world. ", 0.6, 0.5),
		recognition.SessionEndEvent{},
	}}
	res, err := recognition.NewAdapter(b, recognition.Config{}).Transcribe(context.Background(), audioFile(t), "en-US")
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if res.Text != "Hello, wide  world." {
		t.Errorf("expected inner spacing kept and ends trimmed, got %q", res.Text)
	}
	if res.Segments != 2 {
		t.Errorf("expected blank segment skipped, got %d segments", res.Segments)
	}
}

func TestTranscribeOutcomes(t *testing.T) {
	tests := []struct {
		name    string
		backend *recognitiontest.Backend
		kind    recognition.Kind
		reason  string
	}{
		{
			name:    "no segments",
			backend: &recognitiontest.Backend{Events: []recognition.Event{recognition.SessionEndEvent{}}},
			kind:    recognition.NoSpeechDetected,
			reason:  recognition.MsgNoSpeech,
		},
		{
			name: "canceled 1006",
			backend: &recognitiontest.Backend{Events: []recognition.Event{
				recognition.CanceledEvent{Reason: "Error", Details: "Connection closed 1006"},
			}},
			kind:   recognition.NoSpeechDetected,
			reason: recognition.MsgNoSpeech,
		},
		{
			name: "canceled authentication",
			backend: &recognitiontest.Backend{Events: []recognition.Event{
				recognitiontest.Segment("partial", 0.5, 1),
				recognition.CanceledEvent{Details: "Authentication failure"},
			}},
			kind:   recognition.AuthenticationFailed,
			reason: recognition.MsgAuthentication,
		},
		{
			name: "unmapped passes verbatim",
			backend: &recognitiontest.Backend{Events: []recognition.Event{
				recognition.CanceledEvent{Details: "service overloaded"},
			}},
			kind:   recognition.Canceled,
			reason: "service overloaded",
		},
		{
			name:    "backend error without terminal",
			backend: &recognitiontest.Backend{Err: fmt.Errorf("Invalid WAV header")},
			kind:    recognition.UnsupportedOrCorruptFormat,
			reason:  recognition.MsgUnsupportedFormat,
		},
		{
			name:    "backend nil without terminal and no segments",
			backend: &recognitiontest.Backend{},
			kind:    recognition.NoSpeechDetected,
			reason:  recognition.MsgNoSpeech,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			a := recognition.NewAdapter(tc.backend, recognition.Config{})
			_, err := a.Transcribe(context.Background(), audioFile(t), "en-US")
			f := failureOf(t, err)
			if f.Kind != tc.kind || f.Reason != tc.reason {
				t.Errorf("got %v %q, want %v %q", f.Kind, f.Reason, tc.kind, tc.reason)
			}
		})
	}
}

func TestTranscribeImplicitSessionEnd(t *testing.T) {
	b := &recognitiontest.Backend{Events: []recognition.Event{recognitiontest.Segment("hello", 0.8, 1)}}
	res, err := recognition.NewAdapter(b, recognition.Config{}).Transcribe(context.Background(), audioFile(t), "en-US")
	if err != nil || res.Text != "hello" {
		t.Fatalf("expected implicit session end, got %+v, %v", res, err)
	}
}

func TestTranscribeFirstTerminalWins(t *testing.T) {
	b := &recognitiontest.Backend{Events: []recognition.Event{
		recognitiontest.Segment("kept", 0.7, 1),
		recognition.SessionEndEvent{},
		recognitiontest.Segment("ignored", 0.99, 5),
		recognition.CanceledEvent{Details: "Authentication"},
	}}
	res, err := recognition.NewAdapter(b, recognition.Config{}).Transcribe(context.Background(), audioFile(t), "en-US")
	if err != nil {
		t.Fatalf("expected session end to win, got %v", err)
	}
	if res.Text != "kept" || *res.Confidence != 0.7 || res.Duration != 1 {
		t.Errorf("events after the terminal one leaked into %+v", res)
	}
}

func TestTranscribeSessionTimeout(t *testing.T) {
	b := &recognitiontest.Backend{Events: []recognition.Event{recognitiontest.Segment("slow", 0.5, 1)}, Hang: true}
	a := recognition.NewAdapter(b, recognition.Config{SessionTimeout: 30 * time.Millisecond})

	_, err := a.Transcribe(context.Background(), audioFile(t), "en-US")
	f := failureOf(t, err)
	if f.Kind != recognition.Canceled || !f.Timeout {
		t.Fatalf("expected timeout cancellation, got %+v", f)
	}
	appErr := recognition.ToAppError(err)
	if appErr.Code != errors.ErrCodeCanceled || appErr.HTTPStatus != 504 {
		t.Errorf("unexpected app error %+v", appErr)
	}
}

func TestTranscribeCallerCanceled(t *testing.T) {
	b := &recognitiontest.Backend{Hang: true}
	a := recognition.NewAdapter(b, recognition.Config{})
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	_, err := a.Transcribe(ctx, audioFile(t), "en-US")
	f := failureOf(t, err)
	if f.Kind != recognition.Canceled || f.Timeout || f.Reason != context.Canceled.Error() {
		t.Errorf("unexpected failure %+v", f)
	}
}

func TestTranscribeBackendPanic(t *testing.T) {
	b := &recognitiontest.Backend{Script: func(context.Context, recognition.Session, chan<- recognition.Event) error {
		panic("boom")
	}}
	_, err := recognition.NewAdapter(b, recognition.Config{}).Transcribe(context.Background(), audioFile(t), "en-US")
	if f := failureOf(t, err); f.Kind != recognition.Canceled {
		t.Errorf("expected canceled, got %+v", f)
	}
}

func TestPrerequisites(t *testing.T) {
	dir := t.TempDir()
	empty := testutil.WriteFile(t, filepath.Join(dir, "empty.wav"), nil)

	tests := []struct {
		name    string
		backend *recognitiontest.Backend
		path    string
	}{
		{"not configured", &recognitiontest.Backend{ConfigErr: stderrors.New(recognition.MsgNotConfigured)}, audioFile(t)},
		{"missing file", &recognitiontest.Backend{}, filepath.Join(dir, "missing.wav")},
		{"empty file", &recognitiontest.Backend{}, empty},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := recognition.NewAdapter(tc.backend, recognition.Config{}).Transcribe(context.Background(), tc.path, "en-US")
			appErr, ok := errors.AsAppError(err)
			if !ok || appErr.Code != errors.ErrCodeConfiguration {
				t.Fatalf("expected configuration error, got %v", err)
			}
			if tc.backend.Calls() != 0 {
				t.Error("session must not start when prerequisites fail")
			}
		})
	}
}

func TestCustomTriage(t *testing.T) {
	b := &recognitiontest.Backend{Events: []recognition.Event{recognition.CanceledEvent{Details: "E_QUOTA"}}}
	a := recognition.NewAdapter(b, recognition.Config{}, recognition.WithTriage(recognition.SubstringTriage{
		{Substring: "E_QUOTA", Kind: recognition.AuthenticationFailed, Message: "quota exhausted"},
	}))
	_, err := a.Transcribe(context.Background(), audioFile(t), "en-US")
	if f := failureOf(t, err); f.Kind != recognition.AuthenticationFailed || f.Reason != "quota exhausted" || f.Raw != "E_QUOTA" {
		t.Errorf("unexpected failure %+v", f)
	}
}

func TestConfigDefaults(t *testing.T) {
	var cfg recognition.Config
	cfg.ApplyDefaults()
	if cfg.Backend != "azure" || cfg.SessionTimeout != 5*time.Minute {
		t.Errorf("unexpected defaults %+v", cfg)
	}
}
