package recognition

import "context"

// Event is emitted by a Backend during a session.
type Event interface {
	terminal() bool
}

// SegmentEvent carries one recognized phrase.
type SegmentEvent struct {
	Text string
	// Confidence is nil when the backend does not report one.
	Confidence *float64
	// Duration is the segment length in seconds.
	Duration float64
}

// SessionEndEvent ends the session normally.
type SessionEndEvent struct{}

// CanceledEvent ends the session with an error reported by the backend.
type CanceledEvent struct {
	Reason  string
	Details string
}

func (SegmentEvent) terminal() bool    { return false }
func (SessionEndEvent) terminal() bool { return true }
func (CanceledEvent) terminal() bool   { return true }

// raw joins reason and details into the text the Triage classifies.
func (e CanceledEvent) raw() string {
	switch {
	case e.Details == "":
		return e.Reason
	case e.Reason == "":
		return e.Details
	default:
		return e.Reason + ": " + e.Details
	}
}

// Session describes one recognition request.
type Session struct {
	AudioPath string
	Language  string
}

// Emit sends ev on events unless ctx is done. Backends use it so a send
// never blocks after the session has been resolved.
func Emit(ctx context.Context, events chan<- Event, ev Event) bool {
	select {
	case events <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}
