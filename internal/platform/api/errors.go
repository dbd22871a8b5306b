package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/clinicops/practice/internal/platform/apperr"
	"github.com/clinicops/practice/internal/platform/i18n"
	"github.com/clinicops/practice/internal/platform/metrics"
)

// ErrorBody is the envelope of every JSON error response.
type ErrorBody struct {
	Error string `json:"error"`
}

// statusKeys localizes framework errors that carry only a status code.
var statusKeys = map[int]string{
	http.StatusBadRequest:            "validation.invalid_body",
	http.StatusUnauthorized:          "auth.unauthenticated",
	http.StatusNotFound:              "error.route_not_found",
	http.StatusMethodNotAllowed:      "error.method_not_allowed",
	http.StatusTooManyRequests:       "ratelimit.exceeded",
	http.StatusInternalServerError:   "error.internal",
	http.StatusServiceUnavailable:    "error.service_unavailable",
	http.StatusUnsupportedMediaType:  "validation.invalid_body",
	http.StatusRequestEntityTooLarge: "validation.invalid_body",
}

// NewHTTPErrorHandler renders every failure as {"error": "<localized>"} with
// the status of its kind. Upstream and unexpected failures are logged with
// their cause; the client only sees the localized message.
func NewHTTPErrorHandler(logger zerolog.Logger, catalog *i18n.Catalog) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status, key, args := resolve(err)
		kind := string(apperr.KindOf(err))
		if _, ok := apperr.As(err); !ok && status < http.StatusInternalServerError {
			kind = "http"
		}
		if status >= http.StatusInternalServerError {
			rid, _ := c.Get("request_id").(string)
			logger.Error().
				Err(err).
				Str("request_id", rid).
				Str("kind", kind).
				Str("method", c.Request().Method).
				Str("path", c.Path()).
				Msg("request failed")
		}
		metrics.HandlerFailuresTotal.WithLabelValues(kind).Inc()

		msg := key
		if catalog != nil {
			msg = catalog.Localize(c.Request().Header.Get("Accept-Language"), key, args)
		}

		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(status)
			return
		}
		_ = c.JSON(status, ErrorBody{Error: msg})
	}
}

func resolve(err error) (int, string, map[string]string) {
	if e, ok := apperr.As(err); ok {
		return e.Kind.Status(), e.MessageKey, e.Args
	}

	var he *echo.HTTPError
	if errors.As(err, &he) {
		if key, ok := statusKeys[he.Code]; ok {
			return he.Code, key, nil
		}
		return he.Code, fmt.Sprintf("%v", he.Message), nil
	}

	return http.StatusInternalServerError, "error.internal", nil
}
