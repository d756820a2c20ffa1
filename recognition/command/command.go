// Package command runs a local speech-to-text program for each session.
//
// The program is described by a shell-style template with {input},
// {language} and {lang} placeholders, for example
//
//	whisper-cli --model base.en --output-json-lines --file {input} --lang {lang}
//
// It must print one JSON value per segment on stdout:
//
//	{"text": "hello there", "confidence": 0.92, "duration": 1.4}
package command

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/kbukum/transcriber/logger"
	"github.com/kbukum/transcriber/process"
	"github.com/kbukum/transcriber/recognition"
	"github.com/kbukum/transcriber/transcription"
)

// ProviderName is the registered backend name.
const ProviderName = "command"

// Config configures the command backend.
type Config struct {
	// Command is the program template.
	Command string `yaml:"command" mapstructure:"command"`
	// GracePeriod is the SIGTERM to SIGKILL delay on cancellation.
	GracePeriod time.Duration `yaml:"grace_period" mapstructure:"grace_period"`
	// MaxConcurrent caps simultaneous recognizer processes.
	MaxConcurrent int `yaml:"max_concurrent" mapstructure:"max_concurrent" validate:"gte=0"`
}

// Runner executes a subprocess. *process.Runner satisfies it.
type Runner interface {
	Run(ctx context.Context, cmd process.Command) (*process.Result, error)
}

// Backend implements recognition.Backend by running Config.Command.
type Backend struct {
	template *process.Template
	parseErr error
	runner   Runner
	lookup   func(binary string) bool
	log      *logger.Logger
}

var _ recognition.Backend = (*Backend)(nil)

type segment struct {
	Text       string   `json:"text"`
	Confidence *float64 `json:"confidence"`
	Duration   float64  `json:"duration"`
}

// New creates a command backend. An empty or malformed template is not an
// error here; Configured reports it so the service can still start.
func New(cfg Config, runner Runner, log *logger.Logger) *Backend {
	if log == nil {
		log = logger.Nop()
	}
	b := &Backend{lookup: process.Available, log: log.WithComponent("recognition-command")}
	if strings.TrimSpace(cfg.Command) == "" {
		b.parseErr = fmt.Errorf("recognition command not configured. Please set recognition.command.command")
	} else {
		b.template, b.parseErr = process.ParseTemplate(cfg.Command)
	}
	if runner == nil {
		runner = process.NewRunner(ProviderName, process.Config{
			GracePeriod:   cfg.GracePeriod,
			MaxConcurrent: cfg.MaxConcurrent,
		})
	}
	b.runner = runner
	return b
}

// WithLookup replaces the PATH lookup Configured uses to find the program.
func (b *Backend) WithLookup(fn func(binary string) bool) *Backend {
	b.lookup = fn
	return b
}

// Name implements provider.Provider.
func (b *Backend) Name() string { return ProviderName }

// IsAvailable reports whether the program can be found.
func (b *Backend) IsAvailable(context.Context) bool {
	return b.Configured() == nil
}

// Configured implements recognition.Backend.
func (b *Backend) Configured() error {
	if b.parseErr != nil {
		return b.parseErr
	}
	if !b.lookup(b.template.Binary()) {
		return fmt.Errorf("recognition command %q not found", b.template.Binary())
	}
	return nil
}

// Recognize implements recognition.Backend.
func (b *Backend) Recognize(ctx context.Context, s recognition.Session, events chan<- recognition.Event) error {
	if b.parseErr != nil {
		return b.parseErr
	}
	cmd := b.template.Expand(map[string]string{
		"input":    s.AudioPath,
		"language": s.Language,
		"lang":     transcription.BaseLanguage(s.Language),
	})
	b.log.Debug("running recognizer", logger.Fields("command", cmd.String()))

	res, err := b.runner.Run(ctx, cmd)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		recognition.Emit(ctx, events, recognition.CanceledEvent{
			Reason:  "recognition command failed",
			Details: strings.TrimSpace(err.Error() + "\n" + res.StderrTail(5)),
		})
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(res.Stdout))
	for {
		var seg segment
		if err := dec.Decode(&seg); err != nil {
			if err == io.EOF {
				break
			}
			recognition.Emit(ctx, events, recognition.CanceledEvent{
				Reason:  "decode recognizer output",
				Details: err.Error(),
			})
			return nil
		}
		if !recognition.Emit(ctx, events, recognition.SegmentEvent{
			Text:       seg.Text,
			Confidence: seg.Confidence,
			Duration:   seg.Duration,
		}) {
			return ctx.Err()
		}
	}
	recognition.Emit(ctx, events, recognition.SessionEndEvent{})
	return nil
}
