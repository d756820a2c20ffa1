package audio

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mattn/go-shellwords"

	"github.com/kbukum/transcriber/logger"
	"github.com/kbukum/transcriber/process"
)

const (
	defaultBinary  = "ffmpeg"
	defaultTimeout = 2 * time.Minute
)

// Kind tags how the Normalizer produced its output.
type Kind int

const (
	// Canonical means the source was already a WAV and is used as is.
	Canonical Kind = iota
	// Converted means ffmpeg produced a new canonical WAV.
	Converted
	// PassthroughAfterFailure means conversion failed and the source is used as is.
	PassthroughAfterFailure
)

// String returns the outcome name used in logs and metrics.
func (k Kind) String() string {
	switch k {
	case Canonical:
		return "canonical"
	case Converted:
		return "converted"
	case PassthroughAfterFailure:
		return "passthrough"
	default:
		return "unknown"
	}
}

// Outcome is the result of Normalize.
type Outcome struct {
	Kind Kind
	// Path is the file the recognizer should read.
	Path string
	// Reason is set for PassthroughAfterFailure.
	Reason error
	// Derivatives lists every file the normalizer created, including a
	// partial output left behind by a failed conversion.
	Derivatives []string
}

// Config configures the Normalizer.
type Config struct {
	// Binary is the ffmpeg executable. Defaults to "ffmpeg".
	Binary string `yaml:"binary" mapstructure:"binary"`
	// OutputDir receives converted files. Empty means next to the source.
	OutputDir string `yaml:"output_dir" mapstructure:"output_dir"`
	// Timeout bounds one conversion.
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`
	// ExtraArgs are shell-quoted arguments inserted before the output path,
	// e.g. "-af loudnorm".
	ExtraArgs string `yaml:"extra_args" mapstructure:"extra_args"`
	// MaxConcurrent caps simultaneous ffmpeg processes. Zero means unlimited.
	MaxConcurrent int `yaml:"max_concurrent" mapstructure:"max_concurrent" validate:"gte=0"`
}

// ApplyDefaults fills in zero values.
func (c *Config) ApplyDefaults() {
	if c.Binary == "" {
		c.Binary = defaultBinary
	}
	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}
}

// Runner executes a subprocess. *process.Runner satisfies it.
type Runner interface {
	Run(ctx context.Context, cmd process.Command) (*process.Result, error)
}

// Normalizer converts assets to canonical WAV.
type Normalizer struct {
	cfg    Config
	extra  []string
	runner Runner
	log    *logger.Logger
}

// NewNormalizer creates a Normalizer. A nil runner uses a process.Runner
// built from cfg.
func NewNormalizer(cfg Config, runner Runner, log *logger.Logger) (*Normalizer, error) {
	cfg.ApplyDefaults()
	var extra []string
	if strings.TrimSpace(cfg.ExtraArgs) != "" {
		words, err := shellwords.Parse(cfg.ExtraArgs)
		if err != nil {
			return nil, fmt.Errorf("audio: parse extra args %q: %w", cfg.ExtraArgs, err)
		}
		extra = words
	}
	if cfg.OutputDir != "" {
		if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
			return nil, fmt.Errorf("audio: create output dir: %w", err)
		}
	}
	if runner == nil {
		runner = process.NewRunner("ffmpeg", process.Config{
			Timeout:       cfg.Timeout,
			MaxConcurrent: cfg.MaxConcurrent,
		})
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Normalizer{cfg: cfg, extra: extra, runner: runner, log: log.WithComponent("normalizer")}, nil
}

// Available reports whether the ffmpeg binary can be found.
func (n *Normalizer) Available() bool {
	return process.Available(n.cfg.Binary)
}

// Normalize returns the path the recognizer should read. It never fails:
// a conversion error yields PassthroughAfterFailure with the source path.
func (n *Normalizer) Normalize(ctx context.Context, asset Asset) Outcome {
	if asset.IsCanonical() {
		n.checkCanonical(asset.Path)
		return Outcome{Kind: Canonical, Path: asset.Path}
	}

	out := n.outputPath(asset)
	cmd := process.Command{Binary: n.cfg.Binary, Args: n.args(asset.Path, out)}
	n.log.Debug("converting audio", logger.Fields(logger.FieldPath, asset.Path, "command", cmd.String()))

	res, err := n.runner.Run(ctx, cmd)
	if err == nil {
		if _, statErr := os.Stat(out); statErr != nil {
			err = fmt.Errorf("ffmpeg produced no output: %w", statErr)
		}
	}
	if err != nil {
		if tail := res.StderrTail(3); tail != "" {
			err = fmt.Errorf("%w: %s", err, tail)
		}
		o := Outcome{Kind: PassthroughAfterFailure, Path: asset.Path, Reason: err}
		if _, statErr := os.Stat(out); statErr == nil {
			o.Derivatives = []string{out}
		}
		n.log.Warn("audio conversion failed, using original file", logger.Fields(
			logger.FieldPath, asset.Path,
			logger.FieldError, err.Error(),
		))
		return o
	}

	n.log.Debug("audio converted", logger.Fields(logger.FieldPath, out, logger.FieldDuration, res.Duration.Milliseconds()))
	return Outcome{Kind: Converted, Path: out, Derivatives: []string{out}}
}

func (n *Normalizer) args(in, out string) []string {
	args := []string{"-hide_banner", "-nostdin", "-y", "-i", in, "-vn", "-ac", "1", "-ar", "16000", "-c:a", "pcm_s16le"}
	args = append(args, n.extra...)
	return append(args, out)
}

func (n *Normalizer) outputPath(asset Asset) string {
	base := filepath.Base(asset.Path)
	base = strings.TrimSuffix(base, filepath.Ext(base)) + CanonicalExtension
	dir := n.cfg.OutputDir
	if dir == "" {
		dir = filepath.Dir(asset.Path)
	}
	return filepath.Join(dir, base)
}

func (n *Normalizer) checkCanonical(path string) {
	format, err := Inspect(path)
	if err != nil {
		n.log.Warn("could not read wav header", logger.Fields(logger.FieldPath, path, logger.FieldError, err.Error()))
		return
	}
	if !format.IsCanonical() {
		n.log.Warn("wav is not 16kHz mono 16-bit, recognition quality may suffer", logger.Fields(
			logger.FieldPath, path,
			"format", format.String(),
		))
	}
}
