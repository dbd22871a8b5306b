// Package api holds the request/response convention every route follows:
// validate input, check one capability, run the delegate, map the result.
package api

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/clinicops/practice/internal/platform/apperr"
	"github.com/clinicops/practice/internal/platform/auth"
)

// Parser extracts and validates a route's input. It must fail only with
// apperr BadRequest errors.
type Parser[T any] func(c echo.Context) (T, error)

// Handle builds a route handler. Input is parsed before the gate runs, and
// run is reached only after the gate granted capability. An empty capability
// means the route declares none and only needs an authenticated caller.
func Handle[T any](gate *auth.Gate, capability auth.Capability, parse Parser[T], run func(c echo.Context, in T) error) echo.HandlerFunc {
	return func(c echo.Context) error {
		in, err := parse(c)
		if err != nil {
			return err
		}

		ctx := c.Request().Context()
		if capability == "" {
			err = gate.Authenticated(ctx)
		} else {
			err = gate.Check(ctx, capability)
		}
		if err != nil {
			return err
		}

		return run(c, in)
	}
}

// Empty is the input of routes that take no parameters.
type Empty struct{}

// NoInput is the parser for routes without parameters.
func NoInput(echo.Context) (Empty, error) { return Empty{}, nil }

// Checker is implemented by inputs with rules the struct tags cannot express,
// such as identifier formats. Check runs after tag validation and must fail
// only with apperr BadRequest errors.
type Checker interface {
	Check() error
}

// Bind returns a parser that binds path, query and JSON body into T and
// validates it, then runs Check when T is a Checker. When failKey is set,
// every tag validation failure is reported with that message key instead of
// the per-field details.
func Bind[T any](failKey string) Parser[T] {
	return func(c echo.Context) (T, error) {
		var in T
		if err := c.Bind(&in); err != nil {
			return in, &apperr.Error{Kind: apperr.KindBadRequest, MessageKey: "validation.invalid_body", Cause: err}
		}
		if err := c.Validate(&in); err != nil {
			if failKey != "" {
				return in, &apperr.Error{Kind: apperr.KindBadRequest, MessageKey: failKey, Cause: err}
			}
			if _, ok := apperr.As(err); ok {
				return in, err
			}
			return in, &apperr.Error{Kind: apperr.KindBadRequest, MessageKey: "validation.failed",
				Args: map[string]string{"details": err.Error()}, Cause: err}
		}
		if ck, ok := any(&in).(Checker); ok {
			if err := ck.Check(); err != nil {
				return in, err
			}
		}
		return in, nil
	}
}

// UUIDParam parses a path parameter as a UUID.
func UUIDParam(c echo.Context, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		return uuid.Nil, apperr.BadRequest("validation.invalid_id").With("field", name)
	}
	return id, nil
}

// OK writes a 200 JSON envelope.
func OK(c echo.Context, body any) error {
	return c.JSON(http.StatusOK, body)
}
