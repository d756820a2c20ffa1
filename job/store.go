package job

import (
	"context"
	stderrors "errors"
	"sort"
	"sync"
	"time"

	"github.com/kbukum/transcriber/errors"
)

var (
	// ErrNotFound is wrapped by the error returned for an unknown id.
	ErrNotFound = stderrors.New("job: not found")
	// ErrTerminal is returned when mutating a completed or failed job.
	ErrTerminal = stderrors.New("job: already in a terminal state")
	// ErrExists is returned when creating a job whose id is taken.
	ErrExists = stderrors.New("job: already exists")
)

// Apply mutates a copy of a job inside Store.Update.
type Apply func(j *Job) error

// Store persists jobs. Implementations return copies; callers never share
// a *Job with the store.
type Store interface {
	Create(ctx context.Context, j *Job) error
	Get(ctx context.Context, id string) (*Job, error)
	// Update applies fn to the current job and stores the result if the
	// transition is allowed. It returns the updated job.
	Update(ctx context.Context, id string, fn Apply) (*Job, error)
	List(ctx context.Context) ([]*Job, error)
}

// MemoryStore is a Store backed by a map. Jobs are lost on restart.
type MemoryStore struct {
	mu   sync.RWMutex
	jobs map[string]*Job
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{jobs: make(map[string]*Job)}
}

func notFound(id string) error {
	return errors.NotFound("transcription job", id).WithCause(ErrNotFound)
}

// Create implements Store.
func (s *MemoryStore) Create(_ context.Context, j *Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.jobs[j.ID]; ok {
		return ErrExists
	}
	s.jobs[j.ID] = j.Clone()
	return nil
}

// Get implements Store.
func (s *MemoryStore) Get(_ context.Context, id string) (*Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	j, ok := s.jobs[id]
	if !ok {
		return nil, notFound(id)
	}
	return j.Clone(), nil
}

// Update implements Store.
func (s *MemoryStore) Update(_ context.Context, id string, fn Apply) (*Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.jobs[id]
	if !ok {
		return nil, notFound(id)
	}
	if cur.Status.IsTerminal() {
		return nil, ErrTerminal
	}
	next := cur.Clone()
	if err := fn(next); err != nil {
		return nil, err
	}
	enforce(cur, next)
	s.jobs[id] = next
	return next.Clone(), nil
}

// List implements Store. Jobs are ordered by creation time.
func (s *MemoryStore) List(_ context.Context) ([]*Job, error) {
	s.mu.RLock()
	out := make([]*Job, 0, len(s.jobs))
	for _, j := range s.jobs {
		out = append(out, j.Clone())
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, k int) bool { return out[i].CreatedAt.Before(out[k].CreatedAt) })
	return out, nil
}

// Len returns the number of stored jobs.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.jobs)
}

// enforce restores immutable fields and keeps the record consistent with
// its status after an Apply.
func enforce(cur, next *Job) {
	next.ID = cur.ID
	next.Language = cur.Language
	next.SourceAsset = cur.SourceAsset
	next.SourcePath = cur.SourcePath
	next.CreatedAt = cur.CreatedAt

	if next.Progress < cur.Progress {
		next.Progress = cur.Progress
	}
	if next.Progress > ProgressDone {
		next.Progress = ProgressDone
	}

	switch next.Status {
	case StatusCompleted:
		next.Progress = ProgressDone
		next.Error, next.ErrorCode = "", ""
	case StatusFailed:
		next.Result = nil
	default:
		next.Status = StatusProcessing
		next.Result = nil
		next.Error, next.ErrorCode = "", ""
		next.CompletedAt = nil
		return
	}
	if next.CompletedAt == nil {
		now := time.Now().UTC()
		next.CompletedAt = &now
	}
}
