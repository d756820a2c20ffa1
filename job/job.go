package job

import (
	"time"

	"github.com/google/uuid"

	"github.com/kbukum/transcriber/recognition"
)

// Status is the lifecycle state of a job.
type Status string

const (
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// IsTerminal reports whether no further transitions are allowed.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Progress milestones.
const (
	ProgressCreated     = 0
	ProgressRecognizing = 25
	ProgressDone        = 100
)

// Result is the transcript of a completed job.
type Result struct {
	Text       string   `json:"transcription"`
	Confidence *float64 `json:"confidence,omitempty"`
	Duration   float64  `json:"duration"`
}

// ResultFrom converts a recognition result.
func ResultFrom(r recognition.Result) *Result {
	return &Result{Text: r.Text, Confidence: r.Confidence, Duration: r.Duration}
}

// Job is one transcription request.
type Job struct {
	ID          string     `json:"jobId"`
	Status      Status     `json:"status"`
	SourceAsset string     `json:"fileName"`
	SourcePath  string     `json:"-"`
	Language    string     `json:"language"`
	Progress    int        `json:"progress"`
	Result      *Result    `json:"result,omitempty"`
	Error       string     `json:"error,omitempty"`
	ErrorCode   string     `json:"errorCode,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
}

// New creates a processing job with a fresh id.
func New(sourceAsset, sourcePath, language string) *Job {
	return &Job{
		ID:          uuid.New().String(),
		Status:      StatusProcessing,
		SourceAsset: sourceAsset,
		SourcePath:  sourcePath,
		Language:    language,
		Progress:    ProgressCreated,
		CreatedAt:   time.Now().UTC(),
	}
}

// Clone returns a deep copy.
func (j *Job) Clone() *Job {
	c := *j
	if j.Result != nil {
		r := *j.Result
		if r.Confidence != nil {
			v := *r.Confidence
			r.Confidence = &v
		}
		c.Result = &r
	}
	if j.CompletedAt != nil {
		t := *j.CompletedAt
		c.CompletedAt = &t
	}
	return &c
}
