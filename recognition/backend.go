package recognition

import (
	"context"

	"github.com/kbukum/transcriber/provider"
)

// Backend is a speech recognizer.
type Backend interface {
	provider.Provider

	// Configured reports whether the backend has what it needs to start a
	// session, such as an API key. A non-nil error is a configuration problem.
	Configured() error

	// Recognize runs one session, sending events until it finishes. It
	// should send a terminal event before returning; returning an error
	// without one cancels the session with that error, returning nil
	// without one ends it normally. Sends must honor ctx (see Emit).
	Recognize(ctx context.Context, session Session, events chan<- Event) error
}
