// Package component defines the lifecycle contract for long-lived parts of
// the service (HTTP server, SSE hub, message bus, telemetry exporters) and a
// registry that starts them in order and stops them in reverse.
package component
