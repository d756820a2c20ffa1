package errors

import "net/http"

// ErrorCode is the machine-readable code carried in every error envelope
// and stored on failed jobs.
type ErrorCode string

const (
	ErrCodeServiceUnavailable ErrorCode = "SERVICE_UNAVAILABLE"
	ErrCodeTimeout            ErrorCode = "TIMEOUT"
	ErrCodeRateLimited        ErrorCode = "RATE_LIMITED"

	ErrCodeNotFound      ErrorCode = "NOT_FOUND"
	ErrCodeValidation    ErrorCode = "VALIDATION_ERROR"
	ErrCodeConfiguration ErrorCode = "CONFIGURATION_ERROR"

	// Recognition outcomes.
	ErrCodeNoSpeech          ErrorCode = "NO_SPEECH_DETECTED"
	ErrCodeUnsupportedFormat ErrorCode = "UNSUPPORTED_FORMAT"
	ErrCodeAuthentication    ErrorCode = "AUTHENTICATION_FAILED"
	ErrCodeCanceled          ErrorCode = "CANCELED"

	ErrCodeInternal        ErrorCode = "INTERNAL_ERROR"
	ErrCodeExternalService ErrorCode = "EXTERNAL_SERVICE_ERROR"
)

type codeInfo struct {
	status    int
	retryable bool
}

var codes = map[ErrorCode]codeInfo{
	ErrCodeServiceUnavailable: {http.StatusServiceUnavailable, true},
	ErrCodeTimeout:            {http.StatusGatewayTimeout, true},
	ErrCodeRateLimited:        {http.StatusTooManyRequests, true},
	ErrCodeNotFound:           {http.StatusNotFound, false},
	ErrCodeValidation:         {http.StatusBadRequest, false},
	ErrCodeConfiguration:      {http.StatusServiceUnavailable, false},
	ErrCodeNoSpeech:           {http.StatusUnprocessableEntity, false},
	ErrCodeUnsupportedFormat:  {http.StatusUnsupportedMediaType, false},
	ErrCodeAuthentication:     {http.StatusBadGateway, false},
	ErrCodeCanceled:           {http.StatusBadGateway, true},
	ErrCodeInternal:           {http.StatusInternalServerError, false},
	ErrCodeExternalService:    {http.StatusBadGateway, true},
}

// IsRetryableCode reports whether a client may resubmit after this code.
func IsRetryableCode(code ErrorCode) bool {
	return codes[code].retryable
}

// StatusFor returns the default HTTP status for code, 500 when unknown.
func StatusFor(code ErrorCode) int {
	if info, ok := codes[code]; ok {
		return info.status
	}
	return http.StatusInternalServerError
}
