package sse

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/kbukum/transcriber/logger"
)

const defaultKeepAlive = 30 * time.Second

// ConnectedEvent is sent when a client successfully connects.
type ConnectedEvent struct {
	ClientID string            `json:"client_id"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// StreamOptions tunes a single ServeSSE call.
type StreamOptions struct {
	// Snapshot is called once the client is registered and its event is
	// written after the connected event. A Final snapshot ends the stream.
	Snapshot func() (Event, bool)
	// KeepAlive is the comment interval. Defaults to 30s.
	KeepAlive time.Duration
	Client    []ClientOption
}

// ServeSSE streams events for clientID until the request ends, the hub
// stops, or a Final event is written.
func ServeSSE(hub *Hub, w http.ResponseWriter, r *http.Request, clientID string, opts StreamOptions) {
	log := hub.log.WithContext(r.Context())

	flusher, ok := w.(http.Flusher)
	if !ok {
		log.Error("streaming not supported", logger.Fields("client_id", clientID))
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	rc := http.NewResponseController(w)
	if err := rc.SetWriteDeadline(time.Time{}); err != nil {
		log.Debug("could not disable write deadline", logger.Fields("client_id", clientID, logger.FieldError, err.Error()))
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	client := NewClient(clientID, opts.Client...)
	if !hub.Register(client) {
		http.Error(w, "event stream closed", http.StatusServiceUnavailable)
		return
	}
	defer hub.Unregister(client)

	connected, _ := json.Marshal(ConnectedEvent{ClientID: clientID, Metadata: client.Metadata()})
	writeEvent(w, Event{Type: EventTypeConnected, Data: connected})
	if opts.Snapshot != nil {
		if ev, ok := opts.Snapshot(); ok {
			writeEvent(w, ev)
			if ev.Final {
				flusher.Flush()
				return
			}
		}
	}
	flusher.Flush()

	interval := opts.KeepAlive
	if interval <= 0 {
		interval = defaultKeepAlive
	}
	keepAlive := time.NewTicker(interval)
	defer keepAlive.Stop()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			log.Debug("client disconnected", logger.Fields("client_id", clientID))
			return

		case ev, ok := <-client.Events():
			if !ok {
				return
			}
			writeEvent(w, ev)
			flusher.Flush()
			if ev.Final {
				return
			}

		case <-keepAlive.C:
			_, _ = fmt.Fprintf(w, ": keepalive %d\n\n", time.Now().Unix())
			flusher.Flush()
		}
	}
}

func writeEvent(w io.Writer, ev Event) {
	if ev.Type != "" {
		_, _ = fmt.Fprintf(w, "event: %s\n", ev.Type)
	}
	_, _ = fmt.Fprintf(w, "data: %s\n\n", ev.Data)
}
