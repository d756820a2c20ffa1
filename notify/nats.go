package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/kbukum/transcriber/component"
	"github.com/kbukum/transcriber/job"
	"github.com/kbukum/transcriber/logger"
)

// JobEvent is the payload published for every job update.
type JobEvent struct {
	Type      string    `json:"type"`
	Job       *job.Job  `json:"job"`
	Timestamp time.Time `json:"timestamp"`
}

// Publisher publishes job updates to NATS. It is a job.Observer and a
// component.Component; when disabled every method is a no-op.
type Publisher struct {
	cfg NATSConfig
	log *logger.Logger

	mu   sync.RWMutex
	conn *nats.Conn
}

var (
	_ job.Observer        = (*Publisher)(nil)
	_ component.Component = (*Publisher)(nil)
)

// NewPublisher creates a publisher. Connect happens in Start.
func NewPublisher(cfg NATSConfig, log *logger.Logger) *Publisher {
	cfg.ApplyDefaults()
	if log == nil {
		log = logger.Nop()
	}
	return &Publisher{cfg: cfg, log: log.WithComponent("nats")}
}

// Subject returns the subject a job with status is published on.
func (p *Publisher) Subject(status job.Status) string {
	return p.cfg.SubjectPrefix + "." + string(status)
}

// Name implements component.Component.
func (p *Publisher) Name() string { return "nats" }

// Start connects to the configured servers.
func (p *Publisher) Start(_ context.Context) error {
	if !p.cfg.Enabled {
		return nil
	}
	if len(p.cfg.Servers) == 0 {
		return fmt.Errorf("notify: no NATS servers configured")
	}

	options := []nats.Option{
		nats.Name("transcriber"),
		nats.Timeout(p.cfg.ConnectTimeout),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				p.log.Warn("disconnected from NATS", logger.Fields(logger.FieldError, err.Error()))
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			p.log.Info("reconnected to NATS", logger.Fields("server", c.ConnectedUrl()))
		}),
	}
	if p.cfg.Username != "" || p.cfg.Password != "" {
		options = append(options, nats.UserInfo(p.cfg.Username, p.cfg.Password))
	}
	if p.cfg.Token != "" {
		options = append(options, nats.Token(p.cfg.Token))
	}

	url := strings.Join(p.cfg.Servers, ",")
	conn, err := nats.Connect(url, options...)
	if err != nil {
		return fmt.Errorf("connect to nats: %w", err)
	}

	p.mu.Lock()
	p.conn = conn
	p.mu.Unlock()
	p.log.Info("connected to NATS", logger.Fields("servers", url, "subject_prefix", p.cfg.SubjectPrefix))
	return nil
}

// Stop drains and closes the connection.
func (p *Publisher) Stop(_ context.Context) error {
	p.mu.Lock()
	conn := p.conn
	p.conn = nil
	p.mu.Unlock()
	if conn == nil {
		return nil
	}
	p.log.Info("closing NATS connection")
	err := conn.Drain()
	conn.Close()
	return err
}

// Health implements component.Component.
func (p *Publisher) Health(_ context.Context) component.Health {
	h := component.Health{Name: p.Name(), Status: component.StatusHealthy}
	if !p.cfg.Enabled {
		h.Message = "disabled"
		return h
	}
	p.mu.RLock()
	conn := p.conn
	p.mu.RUnlock()
	if conn == nil || conn.Status() != nats.CONNECTED {
		h.Status = component.StatusDegraded
		h.Message = "not connected"
		return h
	}
	h.Message = "connected to " + conn.ConnectedUrl()
	return h
}

// JobUpdated publishes j on transcriber.jobs.<status>. Publish errors are
// logged; a missing broker never affects the job.
func (p *Publisher) JobUpdated(ctx context.Context, j *job.Job) {
	p.mu.RLock()
	conn := p.conn
	p.mu.RUnlock()
	if conn == nil {
		return
	}

	data, err := json.Marshal(JobEvent{Type: "job." + string(j.Status), Job: j, Timestamp: time.Now().UTC()})
	if err != nil {
		p.log.Error("encode job event", logger.ErrorFields("publish", err))
		return
	}
	subject := p.Subject(j.Status)
	if err := conn.Publish(subject, data); err != nil {
		p.log.WithContext(ctx).Warn("publish job event failed", logger.Fields(
			logger.FieldJobID, j.ID,
			"subject", subject,
			logger.FieldError, err.Error(),
		))
	}
}
