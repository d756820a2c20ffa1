package process

import (
	"context"
	"time"

	"github.com/kbukum/transcriber/resilience"
)

// Config configures a Runner.
type Config struct {
	// GracePeriod is the default grace period for SIGTERM -> SIGKILL.
	GracePeriod time.Duration `yaml:"grace_period,omitempty" mapstructure:"grace_period"`
	// Timeout bounds each execution. Zero means no timeout.
	Timeout time.Duration `yaml:"timeout,omitempty" mapstructure:"timeout"`
	// MaxConcurrent caps simultaneous subprocesses. Zero means unlimited.
	MaxConcurrent int `yaml:"max_concurrent,omitempty" mapstructure:"max_concurrent"`
	// MaxWait is how long a call waits for a free slot when MaxConcurrent is reached.
	MaxWait time.Duration `yaml:"max_wait,omitempty" mapstructure:"max_wait"`
}

// Runner applies shared defaults and a concurrency cap to Run.
type Runner struct {
	config   Config
	bulkhead *resilience.Bulkhead
}

// NewRunner creates a Runner.
func NewRunner(name string, cfg Config) *Runner {
	r := &Runner{config: cfg}
	if cfg.MaxConcurrent > 0 {
		r.bulkhead = resilience.NewBulkhead(resilience.BulkheadConfig{
			Name:          name,
			MaxConcurrent: cfg.MaxConcurrent,
			MaxWait:       cfg.MaxWait,
		})
	}
	return r
}

// Run executes cmd with the runner's defaults.
func (r *Runner) Run(ctx context.Context, cmd Command) (*Result, error) {
	if cmd.GracePeriod == 0 && r.config.GracePeriod > 0 {
		cmd.GracePeriod = r.config.GracePeriod
	}
	if r.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.config.Timeout)
		defer cancel()
	}
	if r.bulkhead == nil {
		return Run(ctx, cmd)
	}
	return resilience.ExecuteWithResult(r.bulkhead, ctx, func() (*Result, error) {
		return Run(ctx, cmd)
	})
}
