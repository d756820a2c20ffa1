package recognition

import (
	stderrors "errors"
	"fmt"

	"github.com/kbukum/transcriber/errors"
)

// Kind classifies a failed session.
type Kind int

const (
	// Canceled is any session that ended early for an unmapped reason.
	Canceled Kind = iota
	// NoSpeechDetected means the session produced no segments.
	NoSpeechDetected
	// AuthenticationFailed means the backend rejected the credentials.
	AuthenticationFailed
	// UnsupportedOrCorruptFormat means the backend could not decode the audio.
	UnsupportedOrCorruptFormat
)

// User-facing messages per kind.
const (
	MsgNoSpeech          = "No speech detected in the audio file"
	MsgAuthentication    = "Azure Speech API authentication failed. Please check your API key and region."
	MsgUnsupportedFormat = "Invalid audio format or corrupted audio file"
	MsgNotConfigured     = "Azure Speech API key not configured. Please set AZURE_SPEECH_KEY environment variable."
	MsgFileNotFound      = "Audio file not found"
	MsgCanceled          = "Speech recognition was canceled"
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case NoSpeechDetected:
		return "no_speech"
	case AuthenticationFailed:
		return "authentication_failed"
	case UnsupportedOrCorruptFormat:
		return "unsupported_format"
	default:
		return "canceled"
	}
}

// Failure is the error returned by Adapter.Transcribe for a failed session.
type Failure struct {
	Kind Kind
	// Reason is the user-facing message.
	Reason string
	// Raw is the unclassified backend text, if any.
	Raw string
	// Timeout is set when the session deadline fired.
	Timeout bool
}

// Error implements error.
func (f *Failure) Error() string {
	if f.Raw != "" && f.Raw != f.Reason {
		return fmt.Sprintf("recognition %s: %s (%s)", f.Kind, f.Reason, f.Raw)
	}
	return fmt.Sprintf("recognition %s: %s", f.Kind, f.Reason)
}

// AppError maps the failure onto the service error taxonomy.
func (f *Failure) AppError() *errors.AppError {
	var appErr *errors.AppError
	switch f.Kind {
	case NoSpeechDetected:
		appErr = errors.NoSpeech(f.Reason)
	case AuthenticationFailed:
		appErr = errors.Authentication(f.Reason)
	case UnsupportedOrCorruptFormat:
		appErr = errors.UnsupportedFormat(f.Reason)
	default:
		appErr = errors.Canceled(f.Reason, f.Timeout)
	}
	return appErr.WithCause(f)
}

// ToAppError converts any error from Transcribe into an *errors.AppError.
func ToAppError(err error) *errors.AppError {
	if err == nil {
		return nil
	}
	if appErr, ok := errors.AsAppError(err); ok {
		return appErr
	}
	var f *Failure
	if stderrors.As(err, &f) {
		return f.AppError()
	}
	return errors.Internal(err)
}
