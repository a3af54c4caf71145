package webutil

import (
	"database/sql"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// AppHandler represents a handler function that returns an error.
type AppHandler func(w http.ResponseWriter, r *http.Request) error

// MakeHandler adapts an AppHandler to the standard http.HandlerFunc signature.
// It executes the AppHandler and handles any returned error by logging appropriately
// and sending a standardized JSON error response.
func MakeHandler(handler AppHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ww, ok := w.(middleware.WrapResponseWriter)
		if !ok {
			ww = middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		}
		if err := handler(ww, r); err != nil {
			RespondWithError(ww, r, err)
		}
		// If err is nil, the handler is assumed to have written its own successful response.
	}
}

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

// RespondWithError logs err and writes the standard JSON error body for it.
// Middleware uses it directly to short-circuit a request.
func RespondWithError(w http.ResponseWriter, r *http.Request, err error) {
	err = Translate(err)
	logger := zap.L()
	fields := []zap.Field{
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
	}

	var (
		httpErr *HTTPError
		body    errorBody
		status  int
	)
	switch {
	case errors.As(err, &httpErr):
		status = httpErr.Code
		body = errorBody{Error: httpErr.Kind, Message: httpErr.Message, Field: httpErr.Field}
		level := zapcore.WarnLevel // Treat client errors as warnings server-side
		if status >= 500 {
			level = zapcore.ErrorLevel
		}
		fields = append(fields, zap.Int("status", status), zap.String("kind", httpErr.Kind))
		if cause := errors.Unwrap(httpErr); cause != nil && cause.Error() != httpErr.Message {
			fields = append(fields, zap.NamedError("cause", cause))
		}
		logger.Check(level, httpErr.Message).Write(fields...)

	case errors.Is(err, sql.ErrNoRows):
		status = http.StatusNotFound
		body = errorBody{Error: KindNotFound, Message: msgNotFound}
		logger.Info("Resource not found", append(fields, zap.Error(err))...)

	default:
		status = http.StatusInternalServerError
		body = errorBody{Error: KindInternal, Message: msgInternalServer}
		logger.Error("Unhandled internal error", append(fields, zap.Error(err))...)
	}

	if HasResponseWriterSentHeader(w) {
		logger.Warn("Handler returned error after writing response", append(fields, zap.Error(err))...)
		return
	}
	RespondWithJSON(w, status, body)
}
