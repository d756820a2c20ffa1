package job

import (
	"context"
	stderrors "errors"
	"fmt"
	"os"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/kbukum/transcriber/audio"
	"github.com/kbukum/transcriber/component"
	"github.com/kbukum/transcriber/errors"
	"github.com/kbukum/transcriber/logger"
	"github.com/kbukum/transcriber/observability"
	"github.com/kbukum/transcriber/recognition"
	"github.com/kbukum/transcriber/validation"
)

// CleanupWarning tags log lines for temporary files that could not be removed.
const CleanupWarning = "CleanupWarning"

// Normalizer converts an asset for the recognizer. *audio.Normalizer satisfies it.
type Normalizer interface {
	Normalize(ctx context.Context, asset audio.Asset) audio.Outcome
}

// Recognizer transcribes a normalized file. *recognition.Adapter satisfies it.
type Recognizer interface {
	CheckPrerequisites(path string) error
	Transcribe(ctx context.Context, path, language string) (recognition.Result, error)
}

// Orchestrator runs each submitted job on its own goroutine.
type Orchestrator struct {
	store      Store
	normalizer Normalizer
	recognizer Recognizer
	observers  []Observer
	metrics    *observability.Metrics
	remove     func(string) error
	log        *logger.Logger

	base     context.Context
	cancel   context.CancelFunc
	mu       sync.Mutex // guards stopping and wg.Add
	stopping bool
	wg       sync.WaitGroup
	active   atomic.Int64
}

var _ component.Component = (*Orchestrator)(nil)

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithObservers registers observers notified on every job update.
func WithObservers(obs ...Observer) Option {
	return func(o *Orchestrator) { o.observers = append(o.observers, obs...) }
}

// WithMetrics records job and stage metrics on m.
func WithMetrics(m *observability.Metrics) Option {
	return func(o *Orchestrator) { o.metrics = m }
}

// WithLogger sets the orchestrator logger.
func WithLogger(l *logger.Logger) Option {
	return func(o *Orchestrator) { o.log = l }
}

// WithRemover replaces os.Remove for cleanup.
func WithRemover(fn func(string) error) Option {
	return func(o *Orchestrator) { o.remove = fn }
}

// NewOrchestrator creates an Orchestrator.
func NewOrchestrator(store Store, normalizer Normalizer, recognizer Recognizer, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		store:      store,
		normalizer: normalizer,
		recognizer: recognizer,
		remove:     os.Remove,
		log:        logger.Nop(),
	}
	for _, opt := range opts {
		opt(o)
	}
	o.log = o.log.WithComponent("orchestrator")
	o.base, o.cancel = context.WithCancel(context.Background())
	return o
}

// Store returns the job store.
func (o *Orchestrator) Store() Store { return o.store }

// Submit validates the request, creates a processing job and starts it in
// the background. Validation and configuration problems are returned
// before any job exists.
func (o *Orchestrator) Submit(ctx context.Context, asset audio.Asset, language string) (*Job, error) {
	language, err := o.admit(asset, language)
	if err != nil {
		return nil, err
	}

	if !o.track() {
		return nil, errors.ServiceUnavailable("transcription")
	}

	j := New(asset.OriginalName, asset.Path, language)
	if err := o.store.Create(ctx, j); err != nil {
		o.untrack()
		return nil, errors.Internal(err)
	}
	o.notify(ctx, j)

	runCtx := logger.ContextWithRequestID(o.base, logger.RequestIDFromContext(ctx))
	go o.run(runCtx, j.ID, asset, language)

	o.log.WithContext(ctx).Info("transcription job started", logger.Fields(
		logger.FieldJobID, j.ID,
		logger.FieldLanguage, language,
		"file_name", asset.OriginalName,
	))
	return j.Clone(), nil
}

// TranscribeSync runs the same pipeline on the caller's goroutine without
// creating a job. The asset is cleaned up before it returns.
func (o *Orchestrator) TranscribeSync(ctx context.Context, asset audio.Asset, language string) (recognition.Result, error) {
	language, err := o.admit(asset, language)
	if err != nil {
		o.cleanup(ctx, "", asset.Path)
		return recognition.Result{}, err
	}

	var outcome audio.Outcome
	defer func() { o.cleanup(ctx, "", append([]string{asset.Path}, outcome.Derivatives...)...) }()

	res, err := o.pipeline(ctx, asset, language, &outcome)
	if err != nil {
		appErr := recognition.ToAppError(err)
		o.metrics.RecordError(ctx, string(appErr.Code), observability.SpanRecognize)
		return recognition.Result{}, appErr
	}
	return res, nil
}

// admit applies the synchronous checks shared by Submit and TranscribeSync.
func (o *Orchestrator) admit(asset audio.Asset, language string) (string, error) {
	if language == "" {
		language = recognition.DefaultLanguage
	}
	err := validation.New().
		OneOf("language", language, recognition.LanguageCodes()).
		Validate()
	if err == nil {
		err = asset.Validate()
	}
	if err != nil {
		return "", err
	}
	if err := o.recognizer.CheckPrerequisites(asset.Path); err != nil {
		return "", err
	}
	return language, nil
}

func (o *Orchestrator) run(ctx context.Context, id string, asset audio.Asset, language string) {
	start := time.Now()
	ctx, span := observability.StartSpan(ctx, observability.SpanJob,
		attribute.String(observability.AttrJobID, id),
		attribute.String(observability.AttrLanguage, language),
	)
	ctx = observability.LogContext(ctx)
	log := o.log.WithContext(ctx).WithFields(logger.JobFields(id, language))
	o.metrics.JobStarted(ctx)

	var (
		outcome audio.Outcome
		final   *Job
	)
	defer func() {
		o.cleanup(ctx, id, append([]string{asset.Path}, outcome.Derivatives...)...)
		status, code := string(StatusFailed), ""
		if final != nil {
			status, code = string(final.Status), final.ErrorCode
		}
		span.SetAttributes(attribute.String(observability.AttrStatus, status))
		span.End()
		o.metrics.JobFinished(ctx, status, code, time.Since(start))
		o.untrack()
	}()
	defer func() {
		if r := recover(); r != nil {
			log.Error("transcription job panicked", logger.Fields("panic", fmt.Sprint(r), "stack", string(debug.Stack())))
			final = o.fail(ctx, id, errors.Internal(fmt.Errorf("panic: %v", r)))
		}
	}()

	o.update(ctx, id, func(j *Job) error {
		j.Progress = ProgressRecognizing
		return nil
	})

	res, err := o.pipeline(ctx, asset, language, &outcome)
	if err != nil {
		final = o.fail(ctx, id, err)
		log.Warn("transcription job failed", logger.Fields(logger.FieldError, err.Error()))
		return
	}

	final = o.update(ctx, id, func(j *Job) error {
		now := time.Now().UTC()
		j.Status = StatusCompleted
		j.Progress = ProgressDone
		j.Result = ResultFrom(res)
		j.CompletedAt = &now
		return nil
	})
	log.Info("transcription job completed", logger.Fields(
		"segments", res.Segments,
		logger.FieldDuration, time.Since(start).Milliseconds(),
	))
}

// pipeline normalizes then recognizes. outcome is filled in as soon as
// normalization finishes so the caller can clean up derivatives.
func (o *Orchestrator) pipeline(ctx context.Context, asset audio.Asset, language string, outcome *audio.Outcome) (recognition.Result, error) {
	nctx, endNormalize := observability.StartStage(ctx, o.metrics, observability.SpanNormalize)
	*outcome = o.normalizer.Normalize(nctx, asset)
	endNormalize(outcome.Kind.String(), outcome.Reason)

	rctx, endRecognize := observability.StartStage(ctx, o.metrics, observability.SpanRecognize,
		attribute.String(observability.AttrLanguage, language),
	)
	res, err := o.recognizer.Transcribe(rctx, outcome.Path, language)
	if err != nil {
		endRecognize(string(recognition.ToAppError(err).Code), err)
		return recognition.Result{}, err
	}
	endRecognize("ok", nil)
	return res, nil
}

func (o *Orchestrator) fail(ctx context.Context, id string, cause error) *Job {
	appErr := recognition.ToAppError(cause)
	o.metrics.RecordError(ctx, string(appErr.Code), observability.SpanJob)
	return o.update(ctx, id, func(j *Job) error {
		now := time.Now().UTC()
		j.Status = StatusFailed
		j.Error = appErr.Message
		j.ErrorCode = string(appErr.Code)
		j.CompletedAt = &now
		return nil
	})
}

// update writes to the store and notifies observers. It returns nil when
// the write was rejected.
func (o *Orchestrator) update(ctx context.Context, id string, fn Apply) *Job {
	j, err := o.store.Update(ctx, id, fn)
	if err != nil {
		o.log.WithContext(ctx).Warn("job update rejected", logger.Fields(logger.FieldJobID, id, logger.FieldError, err.Error()))
		return nil
	}
	o.notify(ctx, j)
	return j
}

func (o *Orchestrator) notify(ctx context.Context, j *Job) {
	for _, obs := range o.observers {
		obs.JobUpdated(ctx, j.Clone())
	}
}

// cleanup removes each distinct path once. A missing file is expected
// (the recognizer or a previous cleanup may have removed it).
func (o *Orchestrator) cleanup(ctx context.Context, id string, paths ...string) {
	log := o.log.WithContext(ctx)
	seen := make(map[string]struct{}, len(paths))
	for _, p := range paths {
		if p == "" {
			continue
		}
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}

		err := o.remove(p)
		switch {
		case err == nil:
			log.Debug("removed temporary audio", logger.Fields(logger.FieldJobID, id, logger.FieldPath, p))
		case stderrors.Is(err, os.ErrNotExist):
			log.Debug("temporary audio already gone", logger.Fields(logger.FieldJobID, id, logger.FieldPath, p))
		default:
			log.Warn("failed to remove temporary audio", logger.Fields(
				"warning", CleanupWarning,
				logger.FieldJobID, id,
				logger.FieldPath, p,
				logger.FieldError, err.Error(),
			))
		}
	}
}

// track reserves a slot for a new job. It fails once Stop has begun.
func (o *Orchestrator) track() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.stopping {
		return false
	}
	o.wg.Add(1)
	o.active.Add(1)
	return true
}

func (o *Orchestrator) untrack() {
	o.active.Add(-1)
	o.wg.Done()
}

// Wait blocks until every in-flight job has finished.
func (o *Orchestrator) Wait() {
	o.wg.Wait()
}

// Active returns the number of in-flight jobs.
func (o *Orchestrator) Active() int {
	return int(o.active.Load())
}

// Name implements component.Component.
func (o *Orchestrator) Name() string { return "orchestrator" }

// Start implements component.Component.
func (o *Orchestrator) Start(context.Context) error { return nil }

// Stop rejects new submissions and waits for in-flight jobs. If ctx ends
// first the remaining jobs are canceled and Stop waits for them to record
// their failure.
func (o *Orchestrator) Stop(ctx context.Context) error {
	o.mu.Lock()
	o.stopping = true
	o.mu.Unlock()

	done := make(chan struct{})
	go func() {
		o.Wait()
		close(done)
	}()
	select {
	case <-done:
		o.cancel()
		return nil
	case <-ctx.Done():
		o.log.Warn("canceling in-flight jobs", logger.Fields("active", o.Active()))
		o.cancel()
		<-done
		return ctx.Err()
	}
}

// Health implements component.Component.
func (o *Orchestrator) Health(context.Context) component.Health {
	return component.Health{
		Name:    o.Name(),
		Status:  component.StatusHealthy,
		Message: fmt.Sprintf("%d jobs in flight", o.Active()),
	}
}
