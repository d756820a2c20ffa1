package api

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/kbukum/transcriber/audio"
	"github.com/kbukum/transcriber/component"
	"github.com/kbukum/transcriber/errors"
	"github.com/kbukum/transcriber/job"
	"github.com/kbukum/transcriber/logger"
	"github.com/kbukum/transcriber/notify"
	"github.com/kbukum/transcriber/recognition"
	"github.com/kbukum/transcriber/resilience"
	"github.com/kbukum/transcriber/server"
	"github.com/kbukum/transcriber/sse"
)

// MsgJobStarted is returned with every accepted upload.
const MsgJobStarted = "Transcription started successfully"

// Transcriber is the part of the orchestrator the handlers drive.
type Transcriber interface {
	Submit(ctx context.Context, asset audio.Asset, language string) (*job.Job, error)
	TranscribeSync(ctx context.Context, asset audio.Asset, language string) (recognition.Result, error)
}

// UploadResponse is the 202 body of POST /upload.
type UploadResponse struct {
	JobID   string     `json:"jobId"`
	Status  job.Status `json:"status"`
	Message string     `json:"message"`
}

// SyncResponse is the 200 body of POST /transcribe-audio.
type SyncResponse struct {
	Success       bool      `json:"success"`
	Transcription string    `json:"transcription"`
	Confidence    *float64  `json:"confidence,omitempty"`
	Duration      float64   `json:"duration"`
	Language      string    `json:"language"`
	FileName      string    `json:"fileName"`
	Timestamp     time.Time `json:"timestamp"`
}

// LanguagesResponse is the body of GET /languages.
type LanguagesResponse struct {
	Languages []recognition.Language `json:"languages"`
	Default   string                 `json:"default"`
}

// Handler serves the transcription routes.
type Handler struct {
	jobs     Transcriber
	store    job.Store
	intake   *Intake
	hub      *sse.Hub
	bulkhead *resilience.Bulkhead
	log      *logger.Logger
}

// Option configures a Handler.
type Option func(*Handler)

// WithHub enables GET /status/:jobId/events.
func WithHub(hub *sse.Hub) Option {
	return func(h *Handler) { h.hub = hub }
}

// WithLogger sets the handler logger.
func WithLogger(l *logger.Logger) Option {
	return func(h *Handler) { h.log = l }
}

// NewHandler creates the handlers.
func NewHandler(jobs Transcriber, store job.Store, intake *Intake, cfg Config, opts ...Option) *Handler {
	cfg.ApplyDefaults()
	h := &Handler{
		jobs:   jobs,
		store:  store,
		intake: intake,
		log:    logger.Nop(),
	}
	for _, opt := range opts {
		opt(h)
	}
	h.log = h.log.WithComponent("api")
	h.bulkhead = resilience.NewBulkhead(resilience.BulkheadConfig{
		Name:          "transcribe-audio",
		MaxConcurrent: cfg.SyncMaxConcurrent,
		MaxWait:       cfg.SyncMaxWait,
		OnReject: func(name string) {
			h.log.Warn("synchronous transcription rejected", logger.Fields("bulkhead", name))
		},
	})
	return h
}

// Register mounts the routes on r.
func (h *Handler) Register(r gin.IRouter) {
	r.POST("/upload", h.Upload)
	r.GET("/status/:jobId", h.Status)
	if h.hub != nil {
		r.GET("/status/:jobId/events", h.Events)
	}
	r.POST("/transcribe-audio", h.TranscribeAudio)
	r.GET("/languages", h.Languages)
}

// Upload accepts a file and starts a background job.
func (h *Handler) Upload(c *gin.Context) {
	ctx := c.Request.Context()
	asset, err := h.intake.Receive(c)
	if err != nil {
		server.RespondWithError(c, err)
		return
	}

	j, err := h.jobs.Submit(ctx, asset, c.PostForm("language"))
	if err != nil {
		h.intake.Discard(ctx, asset)
		server.RespondWithError(c, err)
		return
	}
	server.RespondAccepted(c, UploadResponse{JobID: j.ID, Status: j.Status, Message: MsgJobStarted})
}

// Status returns the current job record.
func (h *Handler) Status(c *gin.Context) {
	j, err := h.store.Get(c.Request.Context(), c.Param("jobId"))
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	server.RespondOK(c, j)
}

// Events streams job snapshots until the job reaches a terminal state.
func (h *Handler) Events(c *gin.Context) {
	ctx := c.Request.Context()
	id := c.Param("jobId")
	if _, err := h.store.Get(ctx, id); err != nil {
		server.RespondWithError(c, err)
		return
	}

	sse.ServeSSE(h.hub, c.Writer, c.Request, sse.JobClientID(id, uuid.New().String()), sse.StreamOptions{
		Snapshot: func() (sse.Event, bool) {
			j, err := h.store.Get(ctx, id)
			if err != nil {
				return sse.Event{}, false
			}
			ev, err := notify.JobSSEEvent(j)
			return ev, err == nil
		},
		Client: []sse.ClientOption{sse.WithMetadata("job_id", id)},
	})
}

// TranscribeAudio transcribes the upload on the request goroutine.
func (h *Handler) TranscribeAudio(c *gin.Context) {
	ctx := c.Request.Context()
	rc := http.NewResponseController(c.Writer)
	if err := rc.SetWriteDeadline(time.Time{}); err != nil {
		h.log.WithContext(ctx).Debug("could not disable write deadline", logger.Fields(logger.FieldError, err.Error()))
	}

	var asset audio.Asset
	language := recognition.DefaultLanguage
	res, err := resilience.ExecuteWithResult(h.bulkhead, ctx, func() (recognition.Result, error) {
		var err error
		asset, err = h.intake.Receive(c)
		if err != nil {
			return recognition.Result{}, err
		}
		if l := c.PostForm("language"); l != "" {
			language = l
		}
		return h.jobs.TranscribeSync(ctx, asset, language)
	})
	if err != nil {
		server.RespondWithError(c, h.syncError(err))
		return
	}

	server.RespondOK(c, SyncResponse{
		Success:       true,
		Transcription: res.Text,
		Confidence:    res.Confidence,
		Duration:      res.Duration,
		Language:      language,
		FileName:      asset.OriginalName,
		Timestamp:     time.Now().UTC(),
	})
}

// Languages lists the supported recognition locales.
func (h *Handler) Languages(c *gin.Context) {
	server.RespondOK(c, LanguagesResponse{Languages: recognition.Languages, Default: recognition.DefaultLanguage})
}

// SyncHealth reports synchronous slot usage. A saturated bulkhead is
// degraded, not unhealthy: queued uploads still work.
func (h *Handler) SyncHealth(context.Context) component.Health {
	msg := fmt.Sprintf("%d/%d slots in use, %d rejected",
		h.bulkhead.InUse(), h.bulkhead.MaxConcurrent(), h.bulkhead.Rejected())
	status := component.StatusHealthy
	if h.bulkhead.Saturated() {
		status = component.StatusDegraded
	}
	return component.Health{Name: h.bulkhead.Name(), Status: status, Message: msg}
}

func (h *Handler) syncError(err error) error {
	if appErr, ok := errors.AsAppError(err); ok {
		return appErr
	}
	switch {
	case stderrors.Is(err, resilience.ErrBulkheadFull), stderrors.Is(err, resilience.ErrBulkheadTimeout):
		return errors.ServiceUnavailable("synchronous transcription").WithCause(err)
	case stderrors.Is(err, context.Canceled), stderrors.Is(err, context.DeadlineExceeded):
		return errors.Canceled(recognition.MsgCanceled, stderrors.Is(err, context.DeadlineExceeded)).WithCause(err)
	}
	return recognition.ToAppError(err)
}
