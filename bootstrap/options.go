package bootstrap

import (
	"os"
	"time"

	"github.com/kbukum/transcriber/config"
	"github.com/kbukum/transcriber/logger"
)

// Option adjusts NewApp. Options are not generic so one set works for any
// config type.
type Option func(*appOptions)

type appOptions struct {
	logger          *logger.Logger
	shutdownTimeout time.Duration
	signals         <-chan os.Signal
}

// WithLogger replaces the logger built from the config's logging section.
func WithLogger(l *logger.Logger) Option {
	return func(o *appOptions) { o.logger = l }
}

// WithGracefulTimeout overrides config.ServiceConfig.ShutdownTimeout.
// Non-positive values are ignored.
func WithGracefulTimeout(d time.Duration) Option {
	return func(o *appOptions) {
		if d > 0 {
			o.shutdownTimeout = d
		}
	}
}

// WithSignals replaces OS signal delivery, mainly for tests.
func WithSignals(ch <-chan os.Signal) Option {
	return func(o *appOptions) { o.signals = ch }
}

func (o *appOptions) apply(base *config.ServiceConfig) {
	if o.shutdownTimeout == 0 {
		o.shutdownTimeout = base.ShutdownTimeout
	}
	if o.shutdownTimeout <= 0 {
		o.shutdownTimeout = 30 * time.Second
	}
	if o.logger == nil {
		o.logger = logger.Init(base.Logging, base.Name)
	}
}
