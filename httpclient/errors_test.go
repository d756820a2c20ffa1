package httpclient

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorCode_String(t *testing.T) {
	tests := []struct {
		code ErrorCode
		want string
	}{
		{ErrCodeTimeout, "timeout"},
		{ErrCodeConnection, "connection"},
		{ErrCodeAuth, "auth"},
		{ErrCodeNotFound, "not_found"},
		{ErrCodeRateLimit, "rate_limit"},
		{ErrCodeValidation, "validation"},
		{ErrCodeServer, "server"},
		{ErrCodeCircuitOpen, "circuit_open"},
		{ErrorCode(99), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.code.String(); got != tt.want {
			t.Errorf("ErrorCode(%d).String() = %q, want %q", tt.code, got, tt.want)
		}
	}
}

func TestError_Error(t *testing.T) {
	e := &Error{StatusCode: 401, Code: ErrCodeAuth, Message: "HTTP 401"}
	if got, want := e.Error(), "httpclient: auth (HTTP 401): HTTP 401"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
	e2 := &Error{Code: ErrCodeConnection, Message: "connection refused"}
	if got, want := e2.Error(), "httpclient: connection: connection refused"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestClassifyStatusCode(t *testing.T) {
	tests := []struct {
		code    int
		wantNil bool
		errCode ErrorCode
		retry   bool
	}{
		{200, true, 0, false},
		{204, true, 0, false},
		{400, false, ErrCodeValidation, false},
		{401, false, ErrCodeAuth, false},
		{403, false, ErrCodeAuth, false},
		{404, false, ErrCodeNotFound, false},
		{415, false, ErrCodeValidation, false},
		{429, false, ErrCodeRateLimit, true},
		{500, false, ErrCodeServer, true},
		{503, false, ErrCodeServer, true},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.code), func(t *testing.T) {
			e := ClassifyStatusCode(tt.code, []byte("body"))
			if tt.wantNil {
				if e != nil {
					t.Errorf("expected nil, got %v", e)
				}
				return
			}
			if e == nil {
				t.Fatal("expected error, got nil")
			}
			if e.Code != tt.errCode || e.Retryable != tt.retry {
				t.Errorf("got code=%v retryable=%v, want %v/%v", e.Code, e.Retryable, tt.errCode, tt.retry)
			}
			if string(e.Body) != "body" {
				t.Errorf("expected body to be kept, got %q", e.Body)
			}
		})
	}
}

func TestIsHelpers(t *testing.T) {
	timeout := NewTimeoutError(fmt.Errorf("timed out"))
	conn := NewConnectionError(fmt.Errorf("connection refused"))
	auth := ClassifyStatusCode(403, nil)
	validation := NewValidationError("bad")

	if !IsTimeout(timeout) || IsTimeout(conn) {
		t.Error("IsTimeout mismatch")
	}
	if !IsAuth(fmt.Errorf("wrapped: %w", auth)) {
		t.Error("IsAuth should see through wrapping")
	}
	if !IsRetryable(timeout) || !IsRetryable(conn) {
		t.Error("timeout and connection errors should be retryable")
	}
	if IsRetryable(auth) || IsRetryable(validation) || IsRetryable(errors.New("plain")) {
		t.Error("auth, validation and foreign errors should not be retryable")
	}
	if _, ok := AsError(errors.New("plain")); ok {
		t.Error("AsError should reject foreign errors")
	}
}
