package job

import (
	"context"
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/kbukum/transcriber/audio"
	"github.com/kbukum/transcriber/errors"
	"github.com/kbukum/transcriber/recognition"
	"github.com/kbukum/transcriber/recognition/recognitiontest"
	"github.com/kbukum/transcriber/testutil"
)

// fakeNormalizer converts anything that is not a wav by copying it to a
// sibling ".conv.wav" file.
type fakeNormalizer struct {
	panicOn string
}

func (f *fakeNormalizer) Normalize(_ context.Context, a audio.Asset) audio.Outcome {
	if f.panicOn != "" && strings.HasSuffix(a.Path, f.panicOn) {
		panic("normalizer exploded")
	}
	if a.IsCanonical() {
		return audio.Outcome{Kind: audio.Canonical, Path: a.Path}
	}
	out := a.Path + ".conv.wav"
	data, _ := os.ReadFile(a.Path)
	os.WriteFile(out, data, 0o644)
	return audio.Outcome{Kind: audio.Converted, Path: out, Derivatives: []string{out}}
}

type recorder struct {
	mu   sync.Mutex
	jobs []*Job
}

func (r *recorder) JobUpdated(_ context.Context, j *Job) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.jobs = append(r.jobs, j)
}

func (r *recorder) snapshot() []*Job {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*Job(nil), r.jobs...)
}

func speech() *recognitiontest.Backend {
	return &recognitiontest.Backend{Events: []recognition.Event{
		recognitiontest.Segment("hello", 0.6, 1.2),
		recognitiontest.Segment("world", 0.9, 0.8),
		recognition.SessionEndEvent{},
	}}
}

func newOrchestrator(b recognition.Backend, opts ...Option) *Orchestrator {
	adapter := recognition.NewAdapter(b, recognition.Config{SessionTimeout: time.Second})
	return NewOrchestrator(NewMemoryStore(), &fakeNormalizer{}, adapter, opts...)
}

func upload(t *testing.T, name string) audio.Asset {
	t.Helper()
	path := filepath.Join(t.TempDir(), "0f1e-"+name)
	if strings.HasSuffix(name, ".wav") {
		testutil.WriteWAV(t, path, testutil.Tone(16000, 0.1), 16000)
	} else {
		testutil.WriteFile(t, path, []byte("ID3 fake mp3 payload"))
	}
	a, err := audio.AssetFromFile(path, name)
	if err != nil {
		t.Fatal(err)
	}
	return a
}

func waitTerminal(t *testing.T, o *Orchestrator, id string) *Job {
	t.Helper()
	var j *Job
	testutil.Eventually(t, 2*time.Second, func() bool {
		got, err := o.Store().Get(context.Background(), id)
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		j = got
		return got.Status.IsTerminal()
	})
	o.Wait()
	return j
}

func TestSubmitWAVCompletes(t *testing.T) {
	b := speech()
	rec := &recorder{}
	o := newOrchestrator(b, WithObservers(rec))
	asset := upload(t, "speech.wav")

	j, err := o.Submit(context.Background(), asset, "")
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if j.Status != StatusProcessing || j.Progress != 0 || j.Language != "en-US" || j.SourceAsset != "speech.wav" {
		t.Errorf("unexpected initial job %+v", j)
	}

	final := waitTerminal(t, o, j.ID)
	if final.Status != StatusCompleted || final.Progress != 100 || final.CompletedAt == nil || final.Error != "" {
		t.Fatalf("unexpected final job %+v", final)
	}
	if final.Result.Text != "hello world" || *final.Result.Confidence != 0.9 || final.Result.Duration != 2.0 {
		t.Errorf("unexpected result %+v", final.Result)
	}
	if s := b.Sessions(); len(s) != 1 || s[0].AudioPath != asset.Path {
		t.Errorf("wav must be recognized in place, got %+v", s)
	}
	if testutil.Exists(asset.Path) {
		t.Error("source asset was not removed")
	}

	var progress []int
	for _, u := range rec.snapshot() {
		progress = append(progress, u.Progress)
	}
	if fmt.Sprint(progress) != "[0 25 100]" {
		t.Errorf("unexpected progress sequence %v", progress)
	}
}

func TestSubmitMP3FailureCleansDerivatives(t *testing.T) {
	b := &recognitiontest.Backend{Events: []recognition.Event{recognition.SessionEndEvent{}}}
	o := newOrchestrator(b)
	asset := upload(t, "speech.mp3")

	j, err := o.Submit(context.Background(), asset, "es-MX")
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	final := waitTerminal(t, o, j.ID)
	if final.Status != StatusFailed || final.Result != nil || final.CompletedAt == nil {
		t.Fatalf("unexpected final job %+v", final)
	}
	if final.Error != recognition.MsgNoSpeech || final.ErrorCode != string(errors.ErrCodeNoSpeech) {
		t.Errorf("unexpected error %q (%s)", final.Error, final.ErrorCode)
	}

	derivative := asset.Path + ".conv.wav"
	if s := b.Sessions(); len(s) != 1 || s[0].AudioPath != derivative {
		t.Errorf("expected recognition on the derivative, got %+v", s)
	}
	if testutil.Exists(asset.Path) || testutil.Exists(derivative) {
		t.Error("source or derivative left behind")
	}
}

func TestSubmitMP3CompletesAndCleansDerivatives(t *testing.T) {
	b := speech()
	o := newOrchestrator(b)
	asset := upload(t, "speech.mp3")

	j, err := o.Submit(context.Background(), asset, "fr-FR")
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	final := waitTerminal(t, o, j.ID)
	if final.Status != StatusCompleted || final.Result == nil || final.Result.Text != "hello world" {
		t.Fatalf("unexpected final job %+v", final)
	}

	derivative := asset.Path + ".conv.wav"
	if s := b.Sessions(); len(s) != 1 || s[0].AudioPath != derivative || s[0].Language != "fr-FR" {
		t.Errorf("expected recognition on the derivative, got %+v", s)
	}
	if testutil.Exists(asset.Path) {
		t.Error("source asset was not removed")
	}
	if testutil.Exists(derivative) {
		t.Error("converted derivative was not removed")
	}
}

func TestSubmitRejectsSynchronously(t *testing.T) {
	tests := []struct {
		name     string
		backend  *recognitiontest.Backend
		file     string
		language string
		code     errors.ErrorCode
	}{
		{"unsupported language", speech(), "a.wav", "xx-XX", errors.ErrCodeValidation},
		{"unsupported extension", speech(), "a.txt", "en-US", errors.ErrCodeValidation},
		{"not configured", &recognitiontest.Backend{ConfigErr: stderrors.New(recognition.MsgNotConfigured)}, "a.wav", "en-US", errors.ErrCodeConfiguration},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			store := NewMemoryStore()
			o := NewOrchestrator(store, &fakeNormalizer{}, recognition.NewAdapter(tc.backend, recognition.Config{}))
			_, err := o.Submit(context.Background(), upload(t, tc.file), tc.language)
			appErr, ok := errors.AsAppError(err)
			if !ok || appErr.Code != tc.code {
				t.Fatalf("expected %s, got %v", tc.code, err)
			}
			if store.Len() != 0 || tc.backend.Calls() != 0 {
				t.Error("no job or session may exist after a synchronous rejection")
			}
		})
	}
}

func TestConcurrentJobsDoNotInterfere(t *testing.T) {
	b := &recognitiontest.Backend{Script: func(ctx context.Context, s recognition.Session, events chan<- recognition.Event) error {
		time.Sleep(20 * time.Millisecond)
		recognition.Emit(ctx, events, recognitiontest.Segment(filepath.Base(s.AudioPath), 0.5, 1))
		recognition.Emit(ctx, events, recognition.SessionEndEvent{})
		return nil
	}}
	o := newOrchestrator(b)

	first := upload(t, "first.wav")
	second := upload(t, "second.wav")
	j1, err := o.Submit(context.Background(), first, "en-US")
	if err != nil {
		t.Fatal(err)
	}
	j2, err := o.Submit(context.Background(), second, "ja-JP")
	if err != nil {
		t.Fatal(err)
	}
	if j1.ID == j2.ID {
		t.Fatal("job ids collide")
	}

	f1 := waitTerminal(t, o, j1.ID)
	f2 := waitTerminal(t, o, j2.ID)
	if f1.Result.Text != filepath.Base(first.Path) || f2.Result.Text != filepath.Base(second.Path) {
		t.Errorf("results crossed: %q / %q", f1.Result.Text, f2.Result.Text)
	}
	if f2.Language != "ja-JP" {
		t.Errorf("unexpected language %s", f2.Language)
	}
}

func TestPanicBecomesFailedJob(t *testing.T) {
	adapter := recognition.NewAdapter(speech(), recognition.Config{})
	o := NewOrchestrator(NewMemoryStore(), &fakeNormalizer{panicOn: ".m4a"}, adapter)
	asset := upload(t, "boom.m4a")

	j, err := o.Submit(context.Background(), asset, "en-US")
	if err != nil {
		t.Fatal(err)
	}
	final := waitTerminal(t, o, j.ID)
	if final.Status != StatusFailed || final.ErrorCode != string(errors.ErrCodeInternal) {
		t.Errorf("unexpected final job %+v", final)
	}
	if testutil.Exists(asset.Path) {
		t.Error("source not removed after panic")
	}
}

func TestCleanupFailureKeepsStatus(t *testing.T) {
	var mu sync.Mutex
	var removed []string
	o := newOrchestrator(speech(), WithRemover(func(p string) error {
		mu.Lock()
		defer mu.Unlock()
		removed = append(removed, p)
		return os.ErrPermission
	}))
	asset := upload(t, "speech.wav")

	j, _ := o.Submit(context.Background(), asset, "en-US")
	final := waitTerminal(t, o, j.ID)
	if final.Status != StatusCompleted {
		t.Errorf("cleanup failure changed status to %s", final.Status)
	}
	mu.Lock()
	defer mu.Unlock()
	if len(removed) != 1 || removed[0] != asset.Path {
		t.Errorf("expected one de-duplicated removal, got %v", removed)
	}
}

func TestTranscribeSync(t *testing.T) {
	o := newOrchestrator(speech())
	asset := upload(t, "speech.flac")

	res, err := o.TranscribeSync(context.Background(), asset, "pt-BR")
	if err != nil {
		t.Fatalf("TranscribeSync: %v", err)
	}
	if res.Text != "hello world" {
		t.Errorf("unexpected result %+v", res)
	}
	if testutil.Exists(asset.Path) || testutil.Exists(asset.Path+".conv.wav") {
		t.Error("sync route left files behind")
	}
	if list, _ := o.Store().List(context.Background()); len(list) != 0 {
		t.Errorf("sync route must not create jobs, got %d", len(list))
	}
}

func TestTranscribeSyncMapsErrors(t *testing.T) {
	b := &recognitiontest.Backend{Err: stderrors.New("Invalid WAV header")}
	o := newOrchestrator(b)
	_, err := o.TranscribeSync(context.Background(), upload(t, "speech.wav"), "en-US")
	appErr, ok := errors.AsAppError(err)
	if !ok || appErr.Code != errors.ErrCodeUnsupportedFormat || appErr.HTTPStatus != 415 {
		t.Errorf("expected unsupported format, got %v", err)
	}
}

func TestStopCancelsHungJobs(t *testing.T) {
	adapter := recognition.NewAdapter(&recognitiontest.Backend{Hang: true}, recognition.Config{SessionTimeout: time.Minute})
	o := NewOrchestrator(NewMemoryStore(), &fakeNormalizer{}, adapter)

	j, err := o.Submit(context.Background(), upload(t, "speech.wav"), "en-US")
	if err != nil {
		t.Fatal(err)
	}
	testutil.Eventually(t, time.Second, func() bool { return o.Active() == 1 })

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := o.Stop(ctx); !stderrors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline from Stop, got %v", err)
	}
	final, _ := o.Store().Get(context.Background(), j.ID)
	if final.Status != StatusFailed || final.ErrorCode != string(errors.ErrCodeCanceled) {
		t.Errorf("expected canceled job, got %+v", final)
	}
	if o.Active() != 0 {
		t.Errorf("expected no active jobs, got %d", o.Active())
	}
	if h := o.Health(context.Background()); h.Name != "orchestrator" {
		t.Errorf("unexpected health %+v", h)
	}
}

func TestSubmitAfterStop(t *testing.T) {
	store := NewMemoryStore()
	adapter := recognition.NewAdapter(speech(), recognition.Config{SessionTimeout: time.Second})
	o := NewOrchestrator(store, &fakeNormalizer{}, adapter)
	if err := o.Stop(context.Background()); err != nil {
		t.Fatalf("Stop: %v", err)
	}

	_, err := o.Submit(context.Background(), upload(t, "speech.wav"), "en-US")
	appErr, ok := errors.AsAppError(err)
	if !ok || appErr.Code != errors.ErrCodeServiceUnavailable {
		t.Fatalf("expected service unavailable after Stop, got %v", err)
	}
	if o.Active() != 0 {
		t.Errorf("expected no active jobs, got %d", o.Active())
	}
	if jobs, _ := store.List(context.Background()); len(jobs) != 0 {
		t.Errorf("expected no job created, got %d", len(jobs))
	}
}

