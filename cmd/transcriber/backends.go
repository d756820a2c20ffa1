package main

import (
	"context"

	"github.com/kbukum/transcriber/component"
	"github.com/kbukum/transcriber/logger"
	"github.com/kbukum/transcriber/provider"
	"github.com/kbukum/transcriber/recognition"
	"github.com/kbukum/transcriber/recognition/azure"
	"github.com/kbukum/transcriber/recognition/command"
	"github.com/kbukum/transcriber/recognition/whisper"
	sidecar "github.com/kbukum/transcriber/transcription/whisper"
)

// newBackends registers a factory per recognition backend. Only the
// selected one is ever built.
func newBackends(cfg RecognitionConfig, log *logger.Logger) *provider.Registry[recognition.Backend] {
	r := provider.NewRegistry[recognition.Backend]()
	r.RegisterFactory(azure.ProviderName, func() (recognition.Backend, error) {
		b, err := azure.New(cfg.Azure, log)
		if err != nil {
			return nil, err
		}
		return b, nil
	})
	r.RegisterFactory(sidecar.ProviderName, func() (recognition.Backend, error) {
		b, err := whisper.New(cfg.Whisper)
		if err != nil {
			return nil, err
		}
		return b, nil
	})
	r.RegisterFactory(command.ProviderName, func() (recognition.Backend, error) {
		return command.New(cfg.Command, nil, log), nil
	})
	return r
}

// speechHealth reports whether the selected backend has what it needs to
// open a session. Missing credentials report degraded.
func speechHealth(_ context.Context, b recognition.Backend) component.Health {
	h := component.Health{Name: "speech", Status: component.StatusHealthy, Message: b.Name() + " configured"}
	if err := b.Configured(); err != nil {
		h.Status = component.StatusDegraded
		h.Message = err.Error()
	}
	return h
}
