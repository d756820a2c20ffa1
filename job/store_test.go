package job

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"strings"
	"testing"

	"github.com/kbukum/transcriber/errors"
)

func TestJobIDsUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		id := New("a.wav", "/tmp/a.wav", "en-US").ID
		if seen[id] {
			t.Fatalf("duplicate id %s", id)
		}
		seen[id] = true
	}
}

func TestJobJSON(t *testing.T) {
	j := New("speech.mp3", "/secret/path/speech.mp3", "fr-FR")
	data, err := json.Marshal(j)
	if err != nil {
		t.Fatal(err)
	}
	s := string(data)
	for _, want := range []string{`"jobId"`, `"status":"processing"`, `"fileName":"speech.mp3"`, `"language":"fr-FR"`, `"progress":0`, `"createdAt"`} {
		if !strings.Contains(s, want) {
			t.Errorf("expected %s in %s", want, s)
		}
	}
	for _, absent := range []string{"/secret/path", `"result"`, `"error"`, `"completedAt"`} {
		if strings.Contains(s, absent) {
			t.Errorf("did not expect %s in %s", absent, s)
		}
	}
}

func TestMemoryStoreGetUnknown(t *testing.T) {
	s := NewMemoryStore()
	_, err := s.Get(context.Background(), "nope")
	if !stderrors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	appErr, ok := errors.AsAppError(err)
	if !ok || appErr.HTTPStatus != 404 || appErr.Message != "The specified transcription job does not exist" {
		t.Errorf("unexpected app error %+v", appErr)
	}
	if _, err := s.Update(context.Background(), "nope", func(*Job) error { return nil }); !stderrors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound from Update, got %v", err)
	}
}

func TestMemoryStoreTransitions(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	j := New("a.wav", "/tmp/a.wav", "en-US")
	if err := s.Create(ctx, j); err != nil {
		t.Fatal(err)
	}
	if err := s.Create(ctx, j); !stderrors.Is(err, ErrExists) {
		t.Errorf("expected ErrExists, got %v", err)
	}

	got, err := s.Update(ctx, j.ID, func(j *Job) error {
		j.Progress = 25
		j.Language = "de-DE"
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if got.Progress != 25 || got.Language != "en-US" {
		t.Errorf("expected progress 25 and immutable language, got %+v", got)
	}

	got, _ = s.Update(ctx, j.ID, func(j *Job) error {
		j.Progress = 10
		return nil
	})
	if got.Progress != 25 {
		t.Errorf("progress must not decrease, got %d", got.Progress)
	}

	got, _ = s.Update(ctx, j.ID, func(j *Job) error {
		j.Status = StatusCompleted
		j.Result = &Result{Text: "hi"}
		j.Error = "stale"
		return nil
	})
	if got.Progress != 100 || got.CompletedAt == nil || got.Error != "" || got.Result == nil {
		t.Errorf("unexpected completed job %+v", got)
	}

	_, err = s.Update(ctx, j.ID, func(j *Job) error {
		j.Status = StatusFailed
		return nil
	})
	if !stderrors.Is(err, ErrTerminal) {
		t.Errorf("expected ErrTerminal, got %v", err)
	}
	final, _ := s.Get(ctx, j.ID)
	if final.Status != StatusCompleted {
		t.Errorf("terminal status changed to %s", final.Status)
	}
}

func TestMemoryStoreFailedDropsResult(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	j := New("a.wav", "/tmp/a.wav", "en-US")
	s.Create(ctx, j)
	got, _ := s.Update(ctx, j.ID, func(j *Job) error {
		j.Status = StatusFailed
		j.Error = "boom"
		j.Result = &Result{Text: "nope"}
		return nil
	})
	if got.Result != nil || got.Error != "boom" || got.CompletedAt == nil {
		t.Errorf("unexpected failed job %+v", got)
	}
}

func TestMemoryStoreApplyError(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	j := New("a.wav", "/tmp/a.wav", "en-US")
	s.Create(ctx, j)
	boom := stderrors.New("boom")
	if _, err := s.Update(ctx, j.ID, func(j *Job) error {
		j.Progress = 50
		return boom
	}); err != boom {
		t.Fatalf("expected apply error, got %v", err)
	}
	got, _ := s.Get(ctx, j.ID)
	if got.Progress != 0 {
		t.Errorf("rejected apply must not be stored, got progress %d", got.Progress)
	}
}

func TestMemoryStoreReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	j := New("a.wav", "/tmp/a.wav", "en-US")
	s.Create(ctx, j)
	j.Progress = 99

	got, _ := s.Get(ctx, j.ID)
	got.Status = StatusFailed
	again, _ := s.Get(ctx, j.ID)
	if again.Progress != 0 || again.Status != StatusProcessing {
		t.Errorf("store shares memory with callers: %+v", again)
	}

	list, _ := s.List(ctx)
	if len(list) != 1 || s.Len() != 1 {
		t.Errorf("unexpected list %v", list)
	}
}
