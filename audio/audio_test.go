package audio

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/kbukum/transcriber/errors"
	"github.com/kbukum/transcriber/logger"
	"github.com/kbukum/transcriber/process"
	"github.com/kbukum/transcriber/testutil"
)

// fakeRunner records commands and optionally writes the output file.
type fakeRunner struct {
	commands []process.Command
	write    bool
	err      error
	stderr   string
}

func (f *fakeRunner) Run(_ context.Context, cmd process.Command) (*process.Result, error) {
	f.commands = append(f.commands, cmd)
	if f.write {
		out := cmd.Args[len(cmd.Args)-1]
		if err := os.WriteFile(out, []byte("RIFF"), 0o644); err != nil {
			return nil, err
		}
	}
	return &process.Result{Stderr: []byte(f.stderr), Duration: time.Millisecond}, f.err
}

func newNormalizer(t *testing.T, cfg Config, r Runner) *Normalizer {
	t.Helper()
	n, err := NewNormalizer(cfg, r, logger.Nop())
	if err != nil {
		t.Fatalf("NewNormalizer: %v", err)
	}
	return n
}

func TestAssetValidate(t *testing.T) {
	tests := []struct {
		name    string
		asset   Asset
		wantErr bool
	}{
		{"wav", NewAsset("/tmp/a.wav", "speech.wav", 10), false},
		{"upper case mp3", NewAsset("/tmp/a", "Speech.MP3", 10), false},
		{"flac", NewAsset("/tmp/a.flac", "", 10), false},
		{"unknown extension", NewAsset("/tmp/a.txt", "notes.txt", 10), true},
		{"empty file", NewAsset("/tmp/a.wav", "a.wav", 0), true},
		{"no path", Asset{Extension: ".wav", Size: 1}, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.asset.Validate()
			if (err != nil) != tc.wantErr {
				t.Fatalf("Validate() = %v, wantErr %v", err, tc.wantErr)
			}
			if err != nil {
				appErr, ok := errors.AsAppError(err)
				if !ok || appErr.Code != errors.ErrCodeValidation {
					t.Errorf("expected validation AppError, got %v", err)
				}
			}
		})
	}
}

func TestAssetFromFile(t *testing.T) {
	path := testutil.WriteFile(t, filepath.Join(t.TempDir(), "k-speech.ogg"), []byte("OggS"))
	a, err := AssetFromFile(path, "speech.ogg")
	if err != nil {
		t.Fatal(err)
	}
	if a.Size != 4 || a.Extension != ".ogg" || a.IsCanonical() {
		t.Errorf("unexpected asset %+v", a)
	}

	_, err = AssetFromFile(filepath.Join(t.TempDir(), "missing.wav"), "")
	if appErr, ok := errors.AsAppError(err); !ok || appErr.Code != errors.ErrCodeNotFound {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestInspect(t *testing.T) {
	dir := t.TempDir()
	canonical := testutil.WriteWAV(t, filepath.Join(dir, "c.wav"), testutil.Tone(16000, 0.5), 16000)
	f, err := Inspect(canonical)
	if err != nil {
		t.Fatalf("Inspect: %v", err)
	}
	if !f.IsCanonical() {
		t.Errorf("expected canonical format, got %s", f)
	}
	if f.Duration != 500*time.Millisecond {
		t.Errorf("expected duration from PCM data, got %v", f.Duration)
	}

	stereo := testutil.WriteWAVFormat(t, filepath.Join(dir, "s.wav"), testutil.Tone(44100, 0.2), 44100, 2, 16)
	f, err = Inspect(stereo)
	if err != nil {
		t.Fatalf("Inspect: %v", err)
	}
	if f.Duration != 100*time.Millisecond {
		t.Errorf("expected interleaved stereo to halve the duration, got %v", f.Duration)
	}
	if f.IsCanonical() || f.Channels != 2 || f.SampleRate != 44100 {
		t.Errorf("unexpected format %s", f)
	}

	bogus := testutil.WriteFile(t, filepath.Join(dir, "bogus.wav"), []byte("not a wav at all"))
	if _, err := Inspect(bogus); err == nil {
		t.Error("expected error for invalid file")
	}
}

func TestNormalizeCanonicalSkipsConversion(t *testing.T) {
	path := testutil.WriteWAV(t, filepath.Join(t.TempDir(), "in.wav"), testutil.Tone(16000, 0.1), 16000)
	r := &fakeRunner{write: true}
	n := newNormalizer(t, Config{}, r)

	o := n.Normalize(context.Background(), NewAsset(path, "in.wav", 100))
	if o.Kind != Canonical || o.Path != path || len(o.Derivatives) != 0 {
		t.Errorf("unexpected outcome %+v", o)
	}
	if len(r.commands) != 0 {
		t.Errorf("expected no ffmpeg run, got %v", r.commands)
	}
}

func TestNormalizeConverts(t *testing.T) {
	dir := t.TempDir()
	src := testutil.WriteFile(t, filepath.Join(dir, "in.mp3"), []byte("ID3"))
	outDir := filepath.Join(dir, "out")
	r := &fakeRunner{write: true}
	n := newNormalizer(t, Config{Binary: "/usr/bin/ffmpeg", OutputDir: outDir, ExtraArgs: `-af "volume=2"`}, r)

	o := n.Normalize(context.Background(), NewAsset(src, "in.mp3", 3))
	if o.Kind != Converted {
		t.Fatalf("expected converted, got %+v", o)
	}
	want := filepath.Join(outDir, "in.wav")
	if o.Path != want || len(o.Derivatives) != 1 || o.Derivatives[0] != want {
		t.Errorf("unexpected outcome %+v", o)
	}

	cmd := r.commands[0]
	if cmd.Binary != "/usr/bin/ffmpeg" {
		t.Errorf("unexpected binary %q", cmd.Binary)
	}
	got := strings.Join(cmd.Args, " ")
	wantArgs := "-hide_banner -nostdin -y -i " + src + " -vn -ac 1 -ar 16000 -c:a pcm_s16le -af volume=2 " + want
	if got != wantArgs {
		t.Errorf("unexpected args\n got: %s\nwant: %s", got, wantArgs)
	}
}

func TestNormalizeFailurePassesThrough(t *testing.T) {
	tests := []struct {
		name            string
		runner          *fakeRunner
		wantDerivatives int
	}{
		{"ffmpeg error", &fakeRunner{err: fmt.Errorf("exit status 1"), stderr: "banner\nin.mp3: Invalid data found"}, 0},
		{"partial output", &fakeRunner{write: true, err: fmt.Errorf("killed")}, 1},
		{"no output", &fakeRunner{}, 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			src := testutil.WriteFile(t, filepath.Join(t.TempDir(), "in.m4a"), []byte("ftyp"))
			n := newNormalizer(t, Config{}, tc.runner)

			o := n.Normalize(context.Background(), NewAsset(src, "in.m4a", 4))
			if o.Kind != PassthroughAfterFailure || o.Path != src || o.Reason == nil {
				t.Fatalf("unexpected outcome %+v", o)
			}
			if len(o.Derivatives) != tc.wantDerivatives {
				t.Errorf("expected %d derivatives, got %v", tc.wantDerivatives, o.Derivatives)
			}
			if tc.runner.stderr != "" && !strings.Contains(o.Reason.Error(), "Invalid data found") {
				t.Errorf("expected stderr tail in reason, got %v", o.Reason)
			}
		})
	}
}

func TestNewNormalizerRejectsBadExtraArgs(t *testing.T) {
	if _, err := NewNormalizer(Config{ExtraArgs: `-af "unterminated`}, &fakeRunner{}, nil); err == nil {
		t.Error("expected parse error")
	}
}

func TestKindString(t *testing.T) {
	for k, want := range map[Kind]string{Canonical: "canonical", Converted: "converted", PassthroughAfterFailure: "passthrough", Kind(9): "unknown"} {
		if k.String() != want {
			t.Errorf("Kind(%d).String() = %q, want %q", k, k.String(), want)
		}
	}
}
