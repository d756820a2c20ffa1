package notify

import (
	"context"
	"encoding/json"

	"github.com/kbukum/transcriber/job"
	"github.com/kbukum/transcriber/logger"
	"github.com/kbukum/transcriber/sse"
)

// SSE broadcasts each update to the clients watching that job. A terminal
// update is final and ends their streams.
type SSE struct {
	b   sse.Broadcaster
	log *logger.Logger
}

var _ job.Observer = (*SSE)(nil)

// NewSSE creates an SSE observer.
func NewSSE(b sse.Broadcaster, log *logger.Logger) *SSE {
	if log == nil {
		log = logger.Nop()
	}
	return &SSE{b: b, log: log.WithComponent("sse-notify")}
}

// JobUpdated implements job.Observer.
func (s *SSE) JobUpdated(_ context.Context, j *job.Job) {
	ev, err := JobSSEEvent(j)
	if err != nil {
		s.log.Error("encode job snapshot", logger.ErrorFields("broadcast", err))
		return
	}
	s.b.Broadcast(sse.JobPattern(j.ID), ev)
}

// JobSSEEvent renders a job as an SSE message.
func JobSSEEvent(j *job.Job) (sse.Event, error) {
	data, err := json.Marshal(j)
	if err != nil {
		return sse.Event{}, err
	}
	return sse.Event{Type: sse.EventTypeMessage, Data: data, Final: j.Status.IsTerminal()}, nil
}
