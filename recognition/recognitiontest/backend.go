// Package recognitiontest provides a scripted recognition.Backend for tests.
package recognitiontest

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/kbukum/transcriber/recognition"
)

// Backend replays a fixed list of events for every session.
type Backend struct {
	// Events are sent in order on each Recognize call.
	Events []recognition.Event
	// Err is returned after the events are sent.
	Err error
	// ConfigErr is returned by Configured.
	ConfigErr error
	// Delay is waited before each event.
	Delay time.Duration
	// Hang blocks after the events until the session context is done.
	Hang bool
	// Script, when set, replaces the scripted behavior.
	Script func(ctx context.Context, s recognition.Session, events chan<- recognition.Event) error

	calls    atomic.Int32
	mu       sync.Mutex
	sessions []recognition.Session
}

var _ recognition.Backend = (*Backend)(nil)

// Segment is a shorthand for a SegmentEvent with a confidence.
func Segment(text string, confidence, duration float64) recognition.SegmentEvent {
	return recognition.SegmentEvent{Text: text, Confidence: &confidence, Duration: duration}
}

// Name implements provider.Provider.
func (b *Backend) Name() string { return "fake" }

// IsAvailable implements provider.Provider.
func (b *Backend) IsAvailable(context.Context) bool { return b.ConfigErr == nil }

// Configured implements recognition.Backend.
func (b *Backend) Configured() error { return b.ConfigErr }

// Recognize implements recognition.Backend.
func (b *Backend) Recognize(ctx context.Context, s recognition.Session, events chan<- recognition.Event) error {
	b.calls.Add(1)
	b.mu.Lock()
	b.sessions = append(b.sessions, s)
	b.mu.Unlock()

	if b.Script != nil {
		return b.Script(ctx, s, events)
	}
	for _, ev := range b.Events {
		if b.Delay > 0 {
			select {
			case <-time.After(b.Delay):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		if !recognition.Emit(ctx, events, ev) {
			return ctx.Err()
		}
	}
	if b.Hang {
		<-ctx.Done()
		return ctx.Err()
	}
	return b.Err
}

// Calls returns how many sessions were started.
func (b *Backend) Calls() int { return int(b.calls.Load()) }

// Sessions returns the sessions seen so far.
func (b *Backend) Sessions() []recognition.Session {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]recognition.Session(nil), b.sessions...)
}
