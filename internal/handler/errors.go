package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"github.com/iliyamo/course-backoffice/internal/auth"
)

// ErrorResponse is the body of every error response.
type ErrorResponse struct {
	Timestamp time.Time `json:"timestamp"`
	Status    int       `json:"status"`
	Error     string    `json:"error"`
	Message   string    `json:"message"`
	Path      string    `json:"path"`
	Details   []string  `json:"details,omitempty"`
}

// WriteStatus writes an error body with an explicit status and message.
func WriteStatus(c echo.Context, status int, message string, details ...string) error {
	return c.JSON(status, ErrorResponse{
		Timestamp: time.Now().UTC(),
		Status:    status,
		Error:     http.StatusText(status),
		Message:   message,
		Path:      c.Request().URL.Path,
		Details:   details,
	})
}

// WriteError renders err through auth.Describe. Internal errors are logged
// with their cause; the client only sees the generic message.
func WriteError(c echo.Context, err error) error {
	status, message, details := auth.Describe(err)
	if status >= http.StatusInternalServerError {
		log.Error().Err(err).
			Str("method", c.Request().Method).
			Str("path", c.Request().URL.Path).
			Msg("request failed")
	}
	return WriteStatus(c, status, message, details...)
}

// HTTPErrorHandler replaces echo's default so that routing errors (404, 405),
// binder errors and panics recovered by echo share the same body shape.
func HTTPErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	var he *echo.HTTPError
	if errors.As(err, &he) {
		msg := http.StatusText(he.Code)
		if s, ok := he.Message.(string); ok && s != "" {
			msg = s
		}
		if he.Code >= http.StatusInternalServerError {
			log.Error().Err(err).Str("path", c.Request().URL.Path).Msg("request failed")
			msg = auth.MsgInternal
		}
		_ = WriteStatus(c, he.Code, msg)
		return
	}
	_ = WriteError(c, err)
}

func badRequest(c echo.Context, message string) error {
	return WriteStatus(c, http.StatusBadRequest, message)
}
