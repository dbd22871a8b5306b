package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestKind_Status(t *testing.T) {
	tests := []struct {
		kind Kind
		want int
	}{
		{KindBadRequest, http.StatusBadRequest},
		{KindUnauthenticated, http.StatusUnauthorized},
		{KindForbidden, http.StatusForbidden},
		{KindNotFound, http.StatusNotFound},
		{KindConflict, http.StatusConflict},
		{KindUpstreamRejected, http.StatusUnprocessableEntity},
		{KindRateLimited, http.StatusTooManyRequests},
		{KindUpstreamFailure, http.StatusBadGateway},
		{KindUnavailable, http.StatusServiceUnavailable},
		{KindUnexpected, http.StatusInternalServerError},
		{Kind("bogus"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := tt.kind.Status(); got != tt.want {
			t.Errorf("%s.Status() = %d, want %d", tt.kind, got, tt.want)
		}
	}
}

func TestKindOf_Wrapped(t *testing.T) {
	base := Forbidden("auth.forbidden")
	wrapped := fmt.Errorf("handler: %w", base)

	if got := KindOf(wrapped); got != KindForbidden {
		t.Errorf("expected forbidden, got %s", got)
	}
	if !Is(wrapped, KindForbidden) {
		t.Error("expected Is to match wrapped kind")
	}
}

func TestKindOf_Unclassified(t *testing.T) {
	if got := KindOf(errors.New("boom")); got != KindUnexpected {
		t.Errorf("expected unexpected, got %s", got)
	}
	if Is(nil, KindUnexpected) {
		t.Error("nil error must not match any kind")
	}
}

func TestUpstream_UnwrapsCause(t *testing.T) {
	cause := errors.New("vendor said no")
	err := Upstream("eprescribe.submit_failed", cause)
	if !errors.Is(err, cause) {
		t.Error("expected cause to be reachable through Unwrap")
	}
	if err.Kind.Status() != http.StatusBadGateway {
		t.Errorf("expected 502, got %d", err.Kind.Status())
	}
}

func TestWith_DoesNotMutateOriginal(t *testing.T) {
	base := BadRequest("validation.required").With("fields", "a")
	derived := base.With("fields", "b")

	if base.Args["fields"] != "a" {
		t.Errorf("original args mutated: %v", base.Args)
	}
	if derived.Args["fields"] != "b" {
		t.Errorf("expected derived args to be updated, got %v", derived.Args)
	}
}
