package logger

import "time"

// Field keys shared by every log line the service writes.
const (
	FieldComponent = "component"
	FieldTraceID   = "trace_id"
	FieldSpanID    = "span_id"
	FieldRequestID = "request_id"
	FieldOperation = "operation"
	FieldStatus    = "status"
	FieldError     = "error"
	FieldDuration  = "duration_ms"

	FieldJobID    = "job_id"
	FieldLanguage = "language"
	FieldPath     = "path"
	FieldOutcome  = "outcome"
	FieldBackend  = "backend"
)

// Fields pairs up alternating keys and values. Non-string keys and a
// trailing key without a value are dropped.
//
//	log.Info("job finished", logger.Fields(logger.FieldJobID, id, "words", n))
func Fields(kvs ...any) map[string]any {
	m := make(map[string]any, len(kvs)/2)
	for i := 0; i+1 < len(kvs); i += 2 {
		if key, ok := kvs[i].(string); ok {
			m[key] = kvs[i+1]
		}
	}
	return m
}

// ErrorFields tags a failed operation.
func ErrorFields(op string, err error) map[string]any {
	return Fields(FieldOperation, op, FieldError, err.Error())
}

// DurationFields tags a timed operation in whole milliseconds.
func DurationFields(op string, d time.Duration) map[string]any {
	return Fields(FieldOperation, op, FieldDuration, d.Milliseconds())
}

// JobFields identifies a job and the locale it is recognized in.
func JobFields(jobID, language string) map[string]any {
	return Fields(FieldJobID, jobID, FieldLanguage, language)
}
