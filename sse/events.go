package sse

import "fmt"

// Broadcaster sends events to clients whose id matches a glob pattern.
type Broadcaster interface {
	Broadcast(pattern string, ev Event)
}

// Event types written on the "event:" line.
const (
	EventTypeConnected = "connected"
	EventTypeMessage   = "message"
	EventTypeError     = "error"
)

// Event is one SSE frame. Final closes the client's stream after delivery.
type Event struct {
	Type  string
	Data  []byte
	Final bool
}

// JobClientID returns the hub client id for one watcher of a job.
func JobClientID(jobID, connID string) string {
	return fmt.Sprintf("job:%s:%s", jobID, connID)
}

// JobPattern matches every watcher of a job.
func JobPattern(jobID string) string {
	return fmt.Sprintf("job:%s:*", jobID)
}
