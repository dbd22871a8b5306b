// Package apperr defines the failure kinds shared by every route handler and
// the HTTP status each one maps to.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a failure for status-code mapping.
type Kind string

const (
	KindBadRequest       Kind = "bad_request"
	KindUnauthenticated  Kind = "unauthenticated"
	KindForbidden        Kind = "forbidden"
	KindNotFound         Kind = "not_found"
	KindConflict         Kind = "conflict"
	KindUpstreamRejected Kind = "upstream_rejected"
	KindRateLimited      Kind = "rate_limited"
	KindUpstreamFailure  Kind = "upstream_failure"
	KindUnavailable      Kind = "unavailable"
	KindUnexpected       Kind = "unexpected"
)

// Status returns the HTTP status code for the kind.
func (k Kind) Status() int {
	switch k {
	case KindBadRequest:
		return http.StatusBadRequest
	case KindUnauthenticated:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindUpstreamRejected:
		return http.StatusUnprocessableEntity
	case KindRateLimited:
		return http.StatusTooManyRequests
	case KindUpstreamFailure:
		return http.StatusBadGateway
	case KindUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Error is a classified failure. MessageKey selects the user-facing message
// from the locale tables; Args fill its placeholders. Cause is never shown to
// the client.
type Error struct {
	Kind       Kind
	MessageKey string
	Args       map[string]string
	Cause      error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.MessageKey, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.MessageKey)
}

func (e *Error) Unwrap() error { return e.Cause }

// With returns a copy of e carrying an extra template argument.
func (e *Error) With(key, value string) *Error {
	out := *e
	out.Args = make(map[string]string, len(e.Args)+1)
	for k, v := range e.Args {
		out.Args[k] = v
	}
	out.Args[key] = value
	return &out
}

func newError(kind Kind, key string, cause error) *Error {
	return &Error{Kind: kind, MessageKey: key, Cause: cause}
}

func BadRequest(key string) *Error      { return newError(KindBadRequest, key, nil) }
func Unauthenticated(key string) *Error { return newError(KindUnauthenticated, key, nil) }
func Forbidden(key string) *Error       { return newError(KindForbidden, key, nil) }
func NotFound(key string) *Error        { return newError(KindNotFound, key, nil) }
func Conflict(key string) *Error        { return newError(KindConflict, key, nil) }
func RateLimited(key string) *Error     { return newError(KindRateLimited, key, nil) }
func Unavailable(key string) *Error     { return newError(KindUnavailable, key, nil) }

// UpstreamRejected reports that a vendor refused the request's content.
func UpstreamRejected(key string, cause error) *Error {
	return newError(KindUpstreamRejected, key, cause)
}

// Upstream reports a delegate that answered with success=false or could not
// be reached.
func Upstream(key string, cause error) *Error {
	return newError(KindUpstreamFailure, key, cause)
}

// Unexpected wraps an unclassified failure.
func Unexpected(cause error) *Error {
	return newError(KindUnexpected, "error.internal", cause)
}

// As extracts an *Error from err's chain.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// KindOf returns the kind of err, or KindUnexpected when err is unclassified.
func KindOf(err error) Kind {
	if e, ok := As(err); ok {
		return e.Kind
	}
	return KindUnexpected
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
