package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/nats-io/nats-server/v2/server"

	"github.com/kbukum/transcriber/component"
	"github.com/kbukum/transcriber/logger"
)

// EmbeddedServer runs an in-process NATS server.
type EmbeddedServer struct {
	host string
	port int
	log  *logger.Logger
	ns   *server.Server
}

var _ component.Component = (*EmbeddedServer)(nil)

// NewEmbeddedServer creates a server listening on host:port. Port -1
// picks a free port.
func NewEmbeddedServer(host string, port int, log *logger.Logger) *EmbeddedServer {
	if host == "" {
		host = "127.0.0.1"
	}
	if log == nil {
		log = logger.Nop()
	}
	return &EmbeddedServer{host: host, port: port, log: log.WithComponent("nats-server")}
}

// Name implements component.Component.
func (e *EmbeddedServer) Name() string { return "nats-server" }

// Start implements component.Component.
func (e *EmbeddedServer) Start(_ context.Context) error {
	ns, err := server.NewServer(&server.Options{
		Host:   e.host,
		Port:   e.port,
		NoLog:  true,
		NoSigs: true,
	})
	if err != nil {
		return fmt.Errorf("create embedded NATS server: %w", err)
	}
	go ns.Start()
	if !ns.ReadyForConnections(5 * time.Second) {
		ns.Shutdown()
		return fmt.Errorf("embedded NATS server failed to start within 5 seconds")
	}
	e.ns = ns
	e.log.Info("embedded NATS server started", logger.Fields("url", ns.ClientURL()))
	return nil
}

// Stop implements component.Component.
func (e *EmbeddedServer) Stop(_ context.Context) error {
	if e.ns == nil {
		return nil
	}
	e.ns.Shutdown()
	e.ns.WaitForShutdown()
	e.ns = nil
	return nil
}

// Health implements component.Component.
func (e *EmbeddedServer) Health(_ context.Context) component.Health {
	if e.ns == nil || !e.ns.Running() {
		return component.Health{Name: e.Name(), Status: component.StatusUnhealthy, Message: "not running"}
	}
	return component.Health{Name: e.Name(), Status: component.StatusHealthy, Message: e.ns.ClientURL()}
}

// ClientURL returns the URL clients connect to, or "" before Start.
func (e *EmbeddedServer) ClientURL() string {
	if e.ns == nil {
		return ""
	}
	return e.ns.ClientURL()
}
