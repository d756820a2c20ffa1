package recognition

import (
	"context"
	stderrors "errors"
	"fmt"
	"os"
	"time"

	"github.com/kbukum/transcriber/errors"
	"github.com/kbukum/transcriber/logger"
)

const (
	defaultSessionTimeout = 5 * time.Minute
	eventBuffer           = 16
)

// Config configures the Adapter.
type Config struct {
	// Backend names the recognizer to use: azure, whisper or command.
	Backend string `yaml:"backend" mapstructure:"backend" validate:"omitempty,oneof=azure whisper command"`
	// SessionTimeout bounds one session. Defaults to 5m.
	SessionTimeout time.Duration `yaml:"session_timeout" mapstructure:"session_timeout"`
}

// ApplyDefaults fills in zero values.
func (c *Config) ApplyDefaults() {
	if c.Backend == "" {
		c.Backend = "azure"
	}
	if c.SessionTimeout <= 0 {
		c.SessionTimeout = defaultSessionTimeout
	}
}

// Adapter turns a Backend's event stream into one Result.
type Adapter struct {
	backend Backend
	triage  Triage
	timeout time.Duration
	log     *logger.Logger
}

// Option configures an Adapter.
type Option func(*Adapter)

// WithTriage replaces DefaultTriage.
func WithTriage(t Triage) Option {
	return func(a *Adapter) { a.triage = t }
}

// WithLogger sets the adapter logger.
func WithLogger(l *logger.Logger) Option {
	return func(a *Adapter) { a.log = l }
}

// NewAdapter creates an Adapter for backend.
func NewAdapter(backend Backend, cfg Config, opts ...Option) *Adapter {
	cfg.ApplyDefaults()
	a := &Adapter{
		backend: backend,
		triage:  DefaultTriage(),
		timeout: cfg.SessionTimeout,
		log:     logger.Nop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	a.log = a.log.WithComponent("recognition").WithFields(logger.Fields(logger.FieldBackend, backend.Name()))
	return a
}

// Backend returns the wrapped backend.
func (a *Adapter) Backend() Backend { return a.backend }

// CheckPrerequisites verifies the backend is configured and path is a
// non-empty file. Failures are configuration errors.
func (a *Adapter) CheckPrerequisites(path string) error {
	if err := a.backend.Configured(); err != nil {
		if appErr, ok := errors.AsAppError(err); ok {
			return appErr
		}
		return errors.Configuration(err.Error()).WithCause(err)
	}
	info, err := os.Stat(path)
	if err != nil {
		return errors.Configuration(MsgFileNotFound).WithCause(err).WithDetail("path", path)
	}
	if info.IsDir() || info.Size() == 0 {
		return errors.Configuration("Audio file is empty").WithDetail("path", path)
	}
	return nil
}

// Transcribe runs one session against path. Failed sessions return a
// *Failure; missing prerequisites return a configuration *errors.AppError.
func (a *Adapter) Transcribe(ctx context.Context, path, language string) (Result, error) {
	if err := a.CheckPrerequisites(path); err != nil {
		return Result{}, err
	}

	sctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	events := make(chan Event, eventBuffer)
	done := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- fmt.Errorf("recognition backend panic: %v", r)
			}
		}()
		done <- a.backend.Recognize(sctx, Session{AudioPath: path, Language: language}, events)
	}()

	start := time.Now()
	a.log.Debug("recognition session started", logger.Fields(logger.FieldPath, path, logger.FieldLanguage, language))

	var agg aggregator
	r, finished := a.consume(ctx, sctx, &agg, events, done)
	if !finished {
		cancel()
		go drain(events, done)
	}

	fields := logger.DurationFields("recognize", time.Since(start))
	fields[logger.FieldLanguage] = language
	if r.err != nil {
		fields[logger.FieldError] = r.err.Error()
		a.log.Info("recognition session failed", fields)
		return Result{}, r.err
	}
	fields["segments"] = r.res.Segments
	a.log.Info("recognition session completed", fields)
	return r.res, nil
}

// resolution is how a session ended.
type resolution struct {
	res Result
	err error
}

// consume reads events until the session resolves. finished reports
// whether the backend goroutine has already returned.
func (a *Adapter) consume(ctx, sctx context.Context, agg *aggregator, events <-chan Event, done <-chan error) (r resolution, finished bool) {
	for {
		select {
		case ev := <-events:
			if res := a.handle(agg, ev); res != nil {
				return *res, false
			}

		case backendErr := <-done:
			if res := a.flush(agg, events); res != nil {
				return *res, true
			}
			switch {
			case backendErr != nil && sctx.Err() != nil:
				return resolution{err: a.deadlineFailure(ctx)}, true
			case backendErr != nil:
				return resolution{err: a.cancelFailure(backendErr.Error())}, true
			default:
				return a.end(agg), true
			}

		case <-sctx.Done():
			return resolution{err: a.deadlineFailure(ctx)}, false
		}
	}
}

// flush handles events the backend queued before returning.
func (a *Adapter) flush(agg *aggregator, events <-chan Event) *resolution {
	for {
		select {
		case ev := <-events:
			if r := a.handle(agg, ev); r != nil {
				return r
			}
		default:
			return nil
		}
	}
}

// handle returns nil until ev is terminal.
func (a *Adapter) handle(agg *aggregator, ev Event) *resolution {
	switch e := ev.(type) {
	case SegmentEvent:
		agg.add(e)
		return nil
	case SessionEndEvent:
		r := a.end(agg)
		return &r
	case CanceledEvent:
		return &resolution{err: a.cancelFailure(e.raw())}
	default:
		return nil
	}
}

func (a *Adapter) end(agg *aggregator) resolution {
	res := agg.result()
	if res.Segments == 0 {
		return resolution{err: &Failure{Kind: NoSpeechDetected, Reason: MsgNoSpeech}}
	}
	return resolution{res: res}
}

func (a *Adapter) cancelFailure(raw string) *Failure {
	if raw == "" {
		return &Failure{Kind: Canceled, Reason: MsgCanceled}
	}
	kind, msg, ok := a.triage.Classify(raw)
	if !ok {
		return &Failure{Kind: Canceled, Reason: raw, Raw: raw}
	}
	return &Failure{Kind: kind, Reason: msg, Raw: raw}
}

// deadlineFailure distinguishes the session deadline from the caller's context.
func (a *Adapter) deadlineFailure(ctx context.Context) *Failure {
	if err := ctx.Err(); err != nil {
		return &Failure{
			Kind:    Canceled,
			Reason:  err.Error(),
			Raw:     err.Error(),
			Timeout: stderrors.Is(err, context.DeadlineExceeded),
		}
	}
	return &Failure{
		Kind:    Canceled,
		Reason:  fmt.Sprintf("recognition session timed out after %s", a.timeout),
		Timeout: true,
	}
}

func drain(events <-chan Event, done <-chan error) {
	for {
		select {
		case <-events:
		case <-done:
			return
		}
	}
}
