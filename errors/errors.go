// Package errors provides the structured error type shared by the service.
// Every error that reaches an HTTP client or a job record is an AppError
// with a stable code, an HTTP status and a retryable hint.
package errors

import (
	"fmt"
	"net/http"
)

// AppError is the unified application error type.
type AppError struct {
	// Code is a machine-readable error code.
	Code ErrorCode `json:"code"`
	// Message is a human-readable error message.
	Message string `json:"message"`
	// Retryable indicates if the operation can be retried.
	Retryable bool `json:"retryable"`
	// HTTPStatus is the recommended HTTP status code for this error.
	HTTPStatus int `json:"-"`
	// Details contains additional context for the error.
	Details map[string]any `json:"details,omitempty"`
	// Cause is the underlying error that caused this error.
	Cause error `json:"-"`
}

// Error returns the string representation of the error.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause of the error.
func (e *AppError) Unwrap() error { return e.Cause }

// WithCause sets the underlying cause of the error and returns the receiver.
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// WithDetails merges the provided details into the error and returns the receiver.
func (e *AppError) WithDetails(details map[string]any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	for k, v := range details {
		e.Details[k] = v
	}
	return e
}

// WithDetail sets a single detail key-value pair and returns the receiver.
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// New creates a new AppError with automatic retryable detection.
func New(code ErrorCode, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Retryable:  IsRetryableCode(code),
	}
}

func coded(code ErrorCode, message string) *AppError {
	return New(code, message, StatusFor(code))
}

// ServiceUnavailable reports a dependency that is down for now.
func ServiceUnavailable(service string) *AppError {
	return coded(ErrCodeServiceUnavailable, fmt.Sprintf("The %s is temporarily unavailable. Please try again.", service))
}

func Timeout(operation string) *AppError {
	return coded(ErrCodeTimeout, fmt.Sprintf("The %s operation timed out.", operation))
}

// RateLimited is returned by the per-IP limiter.
func RateLimited() *AppError {
	return coded(ErrCodeRateLimited, "Too many requests from this IP, please try again later.")
}

// NotFound names the missing resource in details; id is optional.
func NotFound(resource, id string) *AppError {
	e := coded(ErrCodeNotFound, fmt.Sprintf("The specified %s does not exist", resource)).WithDetail("resource", resource)
	if id != "" {
		e.Details["id"] = id
	}
	return e
}

func Validation(message string) *AppError {
	return coded(ErrCodeValidation, message)
}

// InvalidInput is a validation error bound to one field.
func InvalidInput(field, reason string) *AppError {
	return coded(ErrCodeValidation, field+" "+reason).WithDetail("field", field)
}

// Configuration reports a backend setting that is missing or invalid.
func Configuration(message string) *AppError {
	return coded(ErrCodeConfiguration, message)
}

func NoSpeech(message string) *AppError {
	return coded(ErrCodeNoSpeech, message)
}

func UnsupportedFormat(message string) *AppError {
	return coded(ErrCodeUnsupportedFormat, message)
}

// Authentication reports credentials rejected upstream.
func Authentication(message string) *AppError {
	return coded(ErrCodeAuthentication, message)
}

// Canceled reports a recognition session that ended early: 504 when it
// ran out of time, 502 otherwise.
func Canceled(reason string, timeout bool) *AppError {
	e := coded(ErrCodeCanceled, reason)
	if timeout {
		e.HTTPStatus = http.StatusGatewayTimeout
	}
	return e
}

// Internal hides cause behind a generic message.
func Internal(cause error) *AppError {
	return coded(ErrCodeInternal, "An internal error occurred. Please try again later.").WithCause(cause)
}

func ExternalServiceError(service string, cause error) *AppError {
	return coded(ErrCodeExternalService, fmt.Sprintf("The %s returned an error.", service)).WithCause(cause)
}
