package main

import (
	"context"
	"fmt"

	"github.com/kbukum/transcriber/api"
	"github.com/kbukum/transcriber/audio"
	"github.com/kbukum/transcriber/bootstrap"
	"github.com/kbukum/transcriber/component"
	"github.com/kbukum/transcriber/job"
	"github.com/kbukum/transcriber/logger"
	"github.com/kbukum/transcriber/notify"
	"github.com/kbukum/transcriber/observability"
	"github.com/kbukum/transcriber/recognition"
	"github.com/kbukum/transcriber/server"
	"github.com/kbukum/transcriber/server/endpoint"
	"github.com/kbukum/transcriber/sse"
	"github.com/kbukum/transcriber/storage"
	"github.com/kbukum/transcriber/version"
)

// wire builds every component and registers them in start order. Stop runs
// in reverse, so the HTTP server closes before in-flight jobs are drained.
func wire(app *bootstrap.App[*AppConfig]) error {
	cfg := app.Cfg
	log := app.Logger

	backend, err := newBackends(cfg.Recognition, log).Resolve(cfg.Recognition.Backend)
	if err != nil {
		return fmt.Errorf("recognition backend: %w", err)
	}
	normalizer, err := audio.NewNormalizer(cfg.Audio, nil, log)
	if err != nil {
		return fmt.Errorf("audio normalizer: %w", err)
	}
	if !normalizer.Available() {
		log.Warn("ffmpeg not found, non-wav uploads will be sent unconverted", logger.Fields("binary", cfg.Audio.Binary))
	}
	metrics, err := observability.NewMetrics(observability.Meter(serviceName))
	if err != nil {
		return err
	}

	telemetry := observability.NewComponent(cfg.Observability, cfg.Name, cfg.Version, log)
	uploads := storage.NewComponent(cfg.Storage, log)
	events := sse.NewComponent(log)

	var embedded *notify.EmbeddedServer
	if cfg.NATS.Enabled && cfg.NATS.Embedded {
		embedded = notify.NewEmbeddedServer("127.0.0.1", cfg.NATS.EmbeddedPort, log)
		if len(cfg.NATS.Servers) == 0 {
			cfg.NATS.Servers = []string{fmt.Sprintf("nats://127.0.0.1:%d", cfg.NATS.EmbeddedPort)}
		}
	}
	publisher := notify.NewPublisher(cfg.NATS, log)

	adapter := recognition.NewAdapter(backend, cfg.Recognition.Config, recognition.WithLogger(log))
	orchestrator := job.NewOrchestrator(job.NewMemoryStore(), normalizer, adapter,
		job.WithObservers(notify.NewSSE(events.Hub(), log), publisher),
		job.WithMetrics(metrics),
		job.WithLogger(log),
	)

	srv := server.New(cfg.Server, log)
	srv.ApplyMiddleware()
	mountRoutes(app, srv, backend, api.NewHandler(
		orchestrator,
		orchestrator.Store(),
		api.NewIntake(uploads.Storage, cfg.Upload, log),
		cfg.API,
		api.WithHub(events.Hub()),
		api.WithLogger(log),
	))

	app.OnStart(func(context.Context) error {
		if err := backend.Configured(); err != nil {
			log.Warn("speech recognition is not configured, uploads will be rejected", logger.Fields(
				logger.FieldBackend, backend.Name(),
				logger.FieldError, err.Error(),
			))
		}
		return nil
	})
	app.OnStop(func(context.Context) error {
		if n := orchestrator.Active(); n > 0 {
			log.Info("waiting for in-flight transcription jobs", logger.Fields("jobs", n))
		}
		return nil
	})

	components := []component.Component{telemetry, uploads, events}
	if embedded != nil {
		components = append(components, embedded)
	}
	components = append(components, publisher, orchestrator, srv)
	for _, c := range components {
		if err := app.RegisterComponent(c); err != nil {
			return err
		}
	}

	log.Info("transcriber configured", logger.Fields(
		logger.FieldBackend, backend.Name(),
		"version", version.Get().String(),
		"session_timeout", cfg.Recognition.SessionTimeout.String(),
		"nats", cfg.NATS.Enabled,
	))
	return nil
}

// mountRoutes serves the API at the root and under /api/transcription,
// behind one shared rate limiter.
func mountRoutes(app *bootstrap.App[*AppConfig], srv *server.Server, backend recognition.Backend, h *api.Handler) {
	checker := func(ctx context.Context) []component.Health {
		return append(app.Components.HealthAll(ctx), speechHealth(ctx, backend), h.SyncHealth(ctx))
	}
	srv.RegisterDefaultEndpoints(app.Name, checker)

	engine := srv.GinEngine()
	engine.GET("/api/health", endpoint.Health(app.Name, checker))

	limit := srv.RateLimiter()
	h.Register(engine.Group("/", limit))
	h.Register(engine.Group("/api/transcription", limit))
}
