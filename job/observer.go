package job

import "context"

// Observer is notified after every successful store write for a job.
// Implementations must not block; j is a copy owned by the observer.
type Observer interface {
	JobUpdated(ctx context.Context, j *Job)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(ctx context.Context, j *Job)

// JobUpdated implements Observer.
func (f ObserverFunc) JobUpdated(ctx context.Context, j *Job) { f(ctx, j) }
