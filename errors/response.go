package errors

import stderrors "errors"

// ErrorResponse is the body of every non-2xx API reply:
//
//	{"error":{"code":"NOT_FOUND","message":"...","retryable":false}}
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

// ErrorBody is the client-visible part of an AppError.
type ErrorBody struct {
	Code      ErrorCode      `json:"code"`
	Message   string         `json:"message"`
	Retryable bool           `json:"retryable"`
	Details   map[string]any `json:"details,omitempty"`
}

// Body strips the status and cause, leaving what clients may see.
func (e *AppError) Body() ErrorBody {
	return ErrorBody{Code: e.Code, Message: e.Message, Retryable: e.Retryable, Details: e.Details}
}

func (e *AppError) ToResponse() ErrorResponse {
	return ErrorResponse{Error: e.Body()}
}

// AsAppError finds an AppError anywhere in err's chain.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	ok := stderrors.As(err, &appErr)
	return appErr, ok
}

func IsAppError(err error) bool {
	_, ok := AsAppError(err)
	return ok
}

// FromError returns err as an AppError, wrapping anything else as Internal.
// A nil err yields nil.
func FromError(err error) *AppError {
	if err == nil {
		return nil
	}
	if appErr, ok := AsAppError(err); ok {
		return appErr
	}
	return Internal(err)
}
