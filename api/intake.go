package api

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/kbukum/transcriber/audio"
	"github.com/kbukum/transcriber/errors"
	"github.com/kbukum/transcriber/logger"
	"github.com/kbukum/transcriber/storage"
	"github.com/kbukum/transcriber/util"
	"github.com/kbukum/transcriber/validation"
)

// FieldAudioFile is the default multipart field name.
const FieldAudioFile = "audioFile"

// MsgNoAudioFile is returned when the request carries no file part.
const MsgNoAudioFile = "No audio file provided"

const defaultMaxUploadBytes = 100 * 1024 * 1024

// Intake stores uploaded audio and turns it into an audio.Asset.
// The storage backend is resolved per request so the intake can be built
// before the storage component starts.
type Intake struct {
	backend func() storage.Storage
	field   string
	maxSize int64
	log     *logger.Logger
}

// NewIntake creates an intake writing through backend.
func NewIntake(backend func() storage.Storage, cfg UploadConfig, log *logger.Logger) *Intake {
	cfg.ApplyDefaults()
	if log == nil {
		log = logger.Nop()
	}
	return &Intake{
		backend: backend,
		field:   cfg.Field,
		maxSize: util.ParseSize(cfg.MaxSize, defaultMaxUploadBytes),
		log:     log.WithComponent("intake"),
	}
}

// MaxSize returns the upload ceiling in bytes.
func (in *Intake) MaxSize() int64 { return in.maxSize }

// Receive validates the uploaded file and saves it under a unique key.
// Rejected uploads never reach storage.
func (in *Intake) Receive(c *gin.Context) (audio.Asset, error) {
	fh, err := c.FormFile(in.field)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if stderrors.As(err, &tooLarge) {
			return audio.Asset{}, in.tooLarge()
		}
		return audio.Asset{}, errors.Validation(MsgNoAudioFile).WithCause(err)
	}

	err = validation.New().
		Extension(in.field, fh.Filename, audio.AllowedExtensions).
		Positive(in.field, fh.Size).
		Validate()
	if err != nil {
		return audio.Asset{}, err
	}
	if fh.Size > in.maxSize {
		return audio.Asset{}, in.tooLarge()
	}

	backend := in.backend()
	if backend == nil {
		return audio.Asset{}, errors.ServiceUnavailable("upload storage")
	}

	src, err := fh.Open()
	if err != nil {
		return audio.Asset{}, errors.Validation("Uploaded file could not be read").WithCause(err)
	}
	defer src.Close()

	ctx := c.Request.Context()
	key := uuid.New().String() + "-" + util.SanitizeFilename(fh.Filename)
	n, err := backend.Upload(ctx, key, src)
	if err != nil {
		return audio.Asset{}, errors.Internal(fmt.Errorf("store upload: %w", err))
	}
	path, err := backend.Path(key)
	if err != nil {
		_ = backend.Delete(ctx, key)
		return audio.Asset{}, errors.Internal(fmt.Errorf("resolve upload path: %w", err))
	}

	in.log.WithContext(ctx).Debug("upload stored", logger.Fields(
		logger.FieldPath, path,
		"file_name", fh.Filename,
		"size", util.FormatSize(n),
	))
	return audio.NewAsset(path, fh.Filename, n), nil
}

// Discard removes an asset the orchestrator refused to take.
func (in *Intake) Discard(ctx context.Context, asset audio.Asset) {
	if err := removeFile(asset.Path); err != nil {
		in.log.WithContext(ctx).Warn("failed to discard rejected upload", logger.Fields(
			logger.FieldPath, asset.Path,
			logger.FieldError, err.Error(),
		))
	}
}

func (in *Intake) tooLarge() error {
	return errors.Validation(fmt.Sprintf("Audio file must be smaller than %s", util.FormatSize(in.maxSize))).
		WithDetail("max_bytes", in.maxSize)
}

func removeFile(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
