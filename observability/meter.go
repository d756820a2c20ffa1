package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// InitMeter installs a periodic OTLP meter provider as the global provider.
// The returned provider must be shut down on exit.
func InitMeter(ctx context.Context, cfg Config, service, version string) (*sdkmetric.MeterProvider, error) {
	opts := []otlpmetrichttp.Option{
		otlpmetrichttp.WithEndpoint(cfg.Endpoint),
	}
	if cfg.Insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}

	exporter, err := otlpmetrichttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating metric exporter: %w", err)
	}

	res, err := newResource(service, version)
	if err != nil {
		return nil, fmt.Errorf("creating resource: %w", err)
	}

	var readerOpts []sdkmetric.PeriodicReaderOption
	if cfg.MetricInterval > 0 {
		readerOpts = append(readerOpts, sdkmetric.WithInterval(cfg.MetricInterval))
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, readerOpts...)),
		sdkmetric.WithResource(res),
	)
	otel.SetMeterProvider(mp)
	return mp, nil
}

// Meter returns a named meter from the global provider.
func Meter(name string) metric.Meter {
	return otel.Meter(name)
}

// Metrics holds the pipeline instruments. A nil *Metrics records nothing.
type Metrics struct {
	jobsTotal     metric.Int64Counter
	jobsActive    metric.Int64UpDownCounter
	jobDuration   metric.Float64Histogram
	stageDuration metric.Float64Histogram
	errorTotal    metric.Int64Counter
}

// NewMetrics creates metric instruments on the given meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	jobsTotal, err := meter.Int64Counter("transcriber.jobs.total",
		metric.WithDescription("Finished transcription jobs by status"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating transcriber.jobs.total counter: %w", err)
	}

	jobsActive, err := meter.Int64UpDownCounter("transcriber.jobs.active",
		metric.WithDescription("Transcription jobs currently processing"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating transcriber.jobs.active gauge: %w", err)
	}

	jobDuration, err := meter.Float64Histogram("transcriber.job.duration",
		metric.WithDescription("Wall time from job creation to terminal state"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating transcriber.job.duration histogram: %w", err)
	}

	stageDuration, err := meter.Float64Histogram("transcriber.stage.duration",
		metric.WithDescription("Duration of pipeline stages"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating transcriber.stage.duration histogram: %w", err)
	}

	errorTotal, err := meter.Int64Counter("transcriber.errors.total",
		metric.WithDescription("Pipeline failures by error code and stage"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating transcriber.errors.total counter: %w", err)
	}

	return &Metrics{
		jobsTotal:     jobsTotal,
		jobsActive:    jobsActive,
		jobDuration:   jobDuration,
		stageDuration: stageDuration,
		errorTotal:    errorTotal,
	}, nil
}

// JobStarted increments the active job gauge.
func (m *Metrics) JobStarted(ctx context.Context) {
	if m == nil {
		return
	}
	m.jobsActive.Add(ctx, 1)
}

// JobFinished decrements the active gauge and counts the terminal status.
func (m *Metrics) JobFinished(ctx context.Context, status, code string, duration time.Duration) {
	if m == nil {
		return
	}
	m.jobsActive.Add(ctx, -1)
	m.jobsTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String(AttrStatus, status),
		attribute.String(AttrCode, code),
	))
	m.jobDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attribute.String(AttrStatus, status)))
}

// RecordStage records one normalize or recognize run.
func (m *Metrics) RecordStage(ctx context.Context, stage, outcome string, duration time.Duration) {
	if m == nil {
		return
	}
	m.stageDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String(AttrStage, stage),
		attribute.String(AttrOutcome, outcome),
	))
}

// RecordError counts a failure by code and stage.
func (m *Metrics) RecordError(ctx context.Context, code, stage string) {
	if m == nil {
		return
	}
	m.errorTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String(AttrCode, code),
		attribute.String(AttrStage, stage),
	))
}

// StageEnd finishes a stage started by StartStage.
type StageEnd func(outcome string, err error)

// StartStage opens a span for a pipeline stage. The returned function ends
// the span, marks it as an error when err is non-nil and records the stage
// duration on m (which may be nil).
func StartStage(ctx context.Context, m *Metrics, stage string, attrs ...attribute.KeyValue) (context.Context, StageEnd) {
	start := time.Now()
	ctx, span := StartSpan(ctx, stage, attrs...)
	return ctx, func(outcome string, err error) {
		span.SetAttributes(attribute.String(AttrOutcome, outcome))
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
		m.RecordStage(ctx, stage, outcome, time.Since(start))
	}
}
