package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/example/roombooking/internal/application"
)

type errorResponse struct {
	Error    string               `json:"error"`
	Kind     string               `json:"kind,omitempty"`
	Fields   []fieldErrorResponse `json:"fields,omitempty"`
	Conflict *conflictResponse    `json:"conflict,omitempty"`
}

type fieldErrorResponse struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type conflictResponse struct {
	ResourceID int64     `json:"resourceId"`
	Start      time.Time `json:"start"`
	End        time.Time `json:"end"`
}

// respondError renders a service failure. notFound is the status used for a
// missing booking, room or user, which is 400 on writes and 404 on reads.
func respondError(c echo.Context, logger *zap.Logger, err error, notFound int) error {
	status, body := describeError(err, notFound)
	if status >= http.StatusInternalServerError {
		logger.Error("request failed", zap.Int("status", status), zap.Error(err), zap.String("error_kind", body.Kind))
	} else {
		logger.Debug("request rejected", zap.Int("status", status), zap.Error(err), zap.String("error_kind", body.Kind))
	}
	return c.JSON(status, body)
}

func describeError(err error, notFound int) (int, errorResponse) {
	kind := application.ErrorKind(err)

	var (
		vErr *application.ValidationError
		cErr *application.ConflictError
	)
	switch {
	case errors.As(err, &vErr):
		fields := make([]fieldErrorResponse, 0, len(vErr.Fields))
		for _, f := range vErr.Fields {
			fields = append(fields, fieldErrorResponse{Field: f.Field, Message: f.Message})
		}
		return http.StatusBadRequest, errorResponse{Error: "Validation failed", Kind: kind, Fields: fields}
	case errors.As(err, &cErr):
		return http.StatusConflict, errorResponse{
			Error: cErr.Error(),
			Kind:  kind,
			Conflict: &conflictResponse{
				ResourceID: cErr.ResourceID,
				Start:      cErr.Start,
				End:        cErr.End,
			},
		}
	case errors.Is(err, application.ErrConflict):
		return http.StatusConflict, errorResponse{Error: err.Error(), Kind: kind}
	case errors.Is(err, application.ErrNotFound):
		return notFound, errorResponse{Error: err.Error(), Kind: kind}
	case errors.Is(err, application.ErrUnauthorized):
		return http.StatusForbidden, errorResponse{Error: err.Error(), Kind: kind}
	default:
		return http.StatusInternalServerError, errorResponse{Error: http.StatusText(http.StatusInternalServerError), Kind: kind}
	}
}

// ErrorHandler renders errors that reach echo, such as unknown routes, bind
// failures, rejected actors and recovered panics, in the same JSON shape as
// service failures.
func ErrorHandler(logger *zap.Logger) echo.HTTPErrorHandler {
	logger = defaultLogger(logger)

	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		var (
			status int
			body   errorResponse
			he     *echo.HTTPError
		)
		if errors.As(err, &he) {
			status = he.Code
			body.Error = http.StatusText(status)
			if msg, ok := he.Message.(string); ok && msg != "" {
				body.Error = msg
			}
		} else {
			status, body = describeError(err, http.StatusNotFound)
		}

		if status >= http.StatusInternalServerError {
			logger.Error("unhandled error", zap.Int("status", status), zap.String("path", c.Request().URL.Path), zap.Error(err))
		}

		var writeErr error
		if c.Request().Method == http.MethodHead {
			writeErr = c.NoContent(status)
		} else {
			writeErr = c.JSON(status, body)
		}
		if writeErr != nil {
			logger.Error("failed to write error response", zap.Error(writeErr))
		}
	}
}
