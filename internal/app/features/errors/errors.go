// internal/app/features/errors/errors.go
package errors

import (
	"net/http"

	"github.com/dalemusser/docuverse/internal/app/system/auth"
	"github.com/dalemusser/docuverse/internal/app/system/jsonutil"
	"go.uber.org/zap"
)

// MsgInternal is the body sent for every unexpected failure.
const MsgInternal = "Internal server error"

// ErrorLogger wraps the zap logger for error logging.
type ErrorLogger struct {
	logger *zap.Logger
}

// NewErrorLogger creates a new ErrorLogger.
func NewErrorLogger(logger *zap.Logger) *ErrorLogger {
	return &ErrorLogger{logger: logger}
}

func (e *ErrorLogger) requestFields(r *http.Request, err error) []zap.Field {
	fields := []zap.Field{
		zap.Error(err),
		zap.String("path", r.URL.Path),
		zap.String("method", r.Method),
	}
	if u, ok := auth.CurrentUser(r); ok {
		fields = append(fields, zap.String("user_id", u.ID))
	}
	return fields
}

// Log logs an error with the given message and error.
// A nil ErrorLogger discards the entry.
func (e *ErrorLogger) Log(r *http.Request, msg string, err error) {
	if e == nil {
		return
	}
	e.logger.Error(msg, e.requestFields(r, err)...)
}

// LogWithFields logs an error with additional fields.
func (e *ErrorLogger) LogWithFields(r *http.Request, msg string, err error, fields ...zap.Field) {
	if e == nil {
		return
	}
	e.logger.Error(msg, append(e.requestFields(r, err), fields...)...)
}

// Internal logs err and answers 500 with a generic message. The cause is
// never sent to the client.
func (e *ErrorLogger) Internal(w http.ResponseWriter, r *http.Request, msg string, err error) {
	e.Log(r, msg, err)
	jsonutil.InternalError(w, MsgInternal)
}

// NotFound answers unknown routes with a JSON 404.
func NotFound(w http.ResponseWriter, r *http.Request) {
	jsonutil.NotFound(w, "Not found")
}

// MethodNotAllowed answers known routes hit with the wrong verb.
func MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	jsonutil.Error(w, http.StatusMethodNotAllowed, "Method not allowed")
}
