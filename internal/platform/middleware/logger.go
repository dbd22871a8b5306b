package middleware

import (
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/clinicops/practice/internal/platform/apperr"
	"github.com/clinicops/practice/internal/platform/auth"
)

// Logger writes one line per request. It runs inside the error handler's
// reach, so the status of a failed request is derived from the error.
func Logger(logger zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)

			// Auth replaces the request to carry the caller.
			req := c.Request()

			status := c.Response().Status
			evt := logger.Info()
			if err != nil {
				status = errorStatus(err)
				if status >= 500 {
					evt = logger.Error().Err(err)
				} else {
					evt = logger.Warn().Str("kind", string(apperr.KindOf(err)))
				}
			}

			if caller, ok := auth.CallerFromContext(req.Context()); ok {
				evt = evt.Str("user_id", caller.UserID)
			}
			if clinic, ok := c.Get(auth.ClinicContextKey).(string); ok && clinic != "" {
				evt = evt.Str("clinic_id", clinic)
			}

			evt.
				Str("request_id", GetRequestID(c)).
				Str("method", req.Method).
				Str("path", req.URL.Path).
				Int("status", status).
				Dur("latency", time.Since(start)).
				Str("remote_ip", c.RealIP()).
				Msg("request")

			return err
		}
	}
}

func errorStatus(err error) int {
	if e, ok := apperr.As(err); ok {
		return e.Kind.Status()
	}
	if he, ok := err.(*echo.HTTPError); ok {
		return he.Code
	}
	return 500
}
