package errors

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"
	"testing"
)

func TestAppError_New_Success(t *testing.T) {
	err := New(ErrCodeNotFound, "not found", http.StatusNotFound)
	if err.Code != ErrCodeNotFound {
		t.Errorf("expected code %s, got %s", ErrCodeNotFound, err.Code)
	}
	if err.Message != "not found" {
		t.Errorf("expected message 'not found', got %q", err.Message)
	}
	if err.HTTPStatus != http.StatusNotFound {
		t.Errorf("expected status %d, got %d", http.StatusNotFound, err.HTTPStatus)
	}
	if err.Retryable {
		t.Error("NOT_FOUND should not be retryable")
	}
}

func TestAppError_New_Retryable(t *testing.T) {
	err := New(ErrCodeTimeout, "timed out", http.StatusGatewayTimeout)
	if !err.Retryable {
		t.Error("TIMEOUT should be retryable")
	}
}

func TestAppError_NotFound(t *testing.T) {
	err := NotFound("transcription job", "abc")
	if err.HTTPStatus != http.StatusNotFound {
		t.Errorf("expected 404, got %d", err.HTTPStatus)
	}
	if err.Details["resource"] != "transcription job" {
		t.Errorf("expected resource detail, got %v", err.Details["resource"])
	}
	if err.Details["id"] != "abc" {
		t.Errorf("expected id=abc, got %v", err.Details["id"])
	}
	if err.Message != "The specified transcription job does not exist" {
		t.Errorf("unexpected message %q", err.Message)
	}
}

func TestAppError_NotFound_EmptyID(t *testing.T) {
	err := NotFound("job", "")
	if _, ok := err.Details["id"]; ok {
		t.Error("expected no 'id' key in details when id is empty")
	}
}

func TestAppError_Constructors(t *testing.T) {
	tests := []struct {
		name   string
		err    *AppError
		code   ErrorCode
		status int
	}{
		{"validation", Validation("bad"), ErrCodeValidation, http.StatusBadRequest},
		{"invalid input", InvalidInput("language", "is required"), ErrCodeValidation, http.StatusBadRequest},
		{"configuration", Configuration("no key"), ErrCodeConfiguration, http.StatusServiceUnavailable},
		{"no speech", NoSpeech("silence"), ErrCodeNoSpeech, http.StatusUnprocessableEntity},
		{"unsupported format", UnsupportedFormat("riff"), ErrCodeUnsupportedFormat, http.StatusUnsupportedMediaType},
		{"authentication", Authentication("401"), ErrCodeAuthentication, http.StatusBadGateway},
		{"canceled", Canceled("backend went away", false), ErrCodeCanceled, http.StatusBadGateway},
		{"canceled timeout", Canceled("timeout", true), ErrCodeCanceled, http.StatusGatewayTimeout},
		{"rate limited", RateLimited(), ErrCodeRateLimited, http.StatusTooManyRequests},
		{"unavailable", ServiceUnavailable("recognizer"), ErrCodeServiceUnavailable, http.StatusServiceUnavailable},
		{"timeout", Timeout("normalize"), ErrCodeTimeout, http.StatusGatewayTimeout},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Code != tt.code {
				t.Errorf("expected code %s, got %s", tt.code, tt.err.Code)
			}
			if tt.err.HTTPStatus != tt.status {
				t.Errorf("expected status %d, got %d", tt.status, tt.err.HTTPStatus)
			}
		})
	}
}

func TestAppError_Internal_Success(t *testing.T) {
	cause := fmt.Errorf("disk full")
	err := Internal(cause)
	if err.Code != ErrCodeInternal {
		t.Errorf("expected INTERNAL_ERROR, got %s", err.Code)
	}
	if err.Cause != cause {
		t.Error("expected cause to be set")
	}
	if err.Retryable {
		t.Error("Internal should NOT be retryable by default")
	}
	if !stderrors.Is(err, cause) {
		t.Error("expected errors.Is to find the cause through Unwrap")
	}
}

func TestAppError_ErrorString(t *testing.T) {
	err := Validation("audioFile is required")
	if got := err.Error(); got != "VALIDATION_ERROR: audioFile is required" {
		t.Errorf("unexpected error string %q", got)
	}

	err.WithCause(fmt.Errorf("boom"))
	if !strings.Contains(err.Error(), "cause: boom") {
		t.Errorf("expected cause in error string, got %q", err.Error())
	}
}

func TestAppError_WithDetails(t *testing.T) {
	err := Validation("bad").WithDetail("field", "language").WithDetails(map[string]any{"allowed": 12})
	if err.Details["field"] != "language" || err.Details["allowed"] != 12 {
		t.Errorf("unexpected details %v", err.Details)
	}
}

func TestAppError_ToResponse(t *testing.T) {
	err := NoSpeech("No speech detected in the audio file")
	data, mErr := json.Marshal(err.ToResponse())
	if mErr != nil {
		t.Fatalf("marshal: %v", mErr)
	}
	want := `{"error":{"code":"NO_SPEECH_DETECTED","message":"No speech detected in the audio file","retryable":false}}`
	if string(data) != want {
		t.Errorf("expected %s, got %s", want, data)
	}
}

func TestAsAppError(t *testing.T) {
	wrapped := fmt.Errorf("pipeline: %w", Authentication("rejected"))
	appErr, ok := AsAppError(wrapped)
	if !ok {
		t.Fatal("expected AsAppError to unwrap")
	}
	if appErr.Code != ErrCodeAuthentication {
		t.Errorf("expected AUTHENTICATION_FAILED, got %s", appErr.Code)
	}
	if IsAppError(fmt.Errorf("plain")) {
		t.Error("plain error should not be an AppError")
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		code ErrorCode
		want int
	}{
		{ErrCodeNoSpeech, http.StatusUnprocessableEntity},
		{ErrCodeConfiguration, http.StatusServiceUnavailable},
		{ErrCodeCanceled, http.StatusBadGateway},
		{"SOMETHING_ELSE", http.StatusInternalServerError},
	}
	for _, tc := range tests {
		t.Run(string(tc.code), func(t *testing.T) {
			if got := StatusFor(tc.code); got != tc.want {
				t.Errorf("StatusFor(%s) = %d, want %d", tc.code, got, tc.want)
			}
		})
	}
	if Canceled("timed out", true).HTTPStatus != http.StatusGatewayTimeout {
		t.Error("expected a timed out session to map to 504")
	}
}
