// Package apitest builds echo instances wired like the server for handler
// tests: validator, localized error handler and an injected caller.
package apitest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/clinicops/practice/internal/platform/api"
	"github.com/clinicops/practice/internal/platform/auth"
	"github.com/clinicops/practice/internal/platform/db"
	"github.com/clinicops/practice/internal/platform/i18n"
)

// ClinicID is the clinic of callers built by Caller.
const ClinicID = "clinic_test"

// Caller returns an authenticated caller holding roles.
func Caller(roles ...string) *auth.Caller {
	return &auth.Caller{UserID: "user-1", ClinicID: ClinicID, Roles: roles}
}

// Gate returns a gate over the default policy.
func Gate() *auth.Gate {
	return auth.NewGate(auth.DefaultPolicy(), zerolog.Nop())
}

// NewEcho returns an echo with English messages. A nil caller leaves
// requests anonymous.
func NewEcho(t testing.TB, caller *auth.Caller) *echo.Echo {
	t.Helper()
	catalog, err := i18n.Load("en", "")
	if err != nil {
		t.Fatalf("load catalog: %v", err)
	}
	e := echo.New()
	e.Validator = api.NewValidator()
	e.HTTPErrorHandler = api.NewHTTPErrorHandler(zerolog.Nop(), catalog)
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()
			if caller != nil {
				ctx = auth.WithCaller(ctx, caller)
				ctx = db.WithClinic(ctx, caller.ClinicID)
			}
			c.SetRequest(c.Request().WithContext(ctx))
			c.Set("request_id", "req-test")
			return next(c)
		}
	})
	return e
}

// Do serves one request. A non-empty body is sent as JSON.
func Do(e *echo.Echo, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

// Decode unmarshals the response body into v.
func Decode(t testing.TB, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
}

// ErrorMessage returns the "error" field of an error response.
func ErrorMessage(t testing.TB, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body api.ErrorBody
	Decode(t, rec, &body)
	return body.Error
}

// ExpectStatus fails the test when the response has another status.
func ExpectStatus(t testing.TB, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("expected status %d, got %d: %s", want, rec.Code, rec.Body.String())
	}
}
