package db

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

type stubPinger struct{ err error }

func (s stubPinger) Ping(context.Context) error { return s.err }

func runHealth(t *testing.T, deps map[string]Pinger, onError func(string, error)) (*httptest.ResponseRecorder, HealthReport) {
	t.Helper()
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/health/db", nil), rec)
	if err := HealthHandler(deps, nil, onError)(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var report HealthReport
	if err := json.Unmarshal(rec.Body.Bytes(), &report); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return rec, report
}

func TestHealthHandler_AllUp(t *testing.T) {
	rec, report := runHealth(t, map[string]Pinger{"postgres": stubPinger{}, "redis": stubPinger{}}, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if report.Status != "healthy" || report.Components["postgres"] != "up" || report.Components["redis"] != "up" {
		t.Errorf("unexpected report: %+v", report)
	}
	if report.Pool != nil {
		t.Error("expected no pool stats without a pool")
	}
}

func TestHealthHandler_OneDown(t *testing.T) {
	var failed []string
	rec, report := runHealth(t,
		map[string]Pinger{"postgres": stubPinger{}, "redis": stubPinger{err: errors.New("connection refused")}},
		func(name string, err error) { failed = append(failed, name) },
	)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
	if report.Components["redis"] != "down" || report.Components["postgres"] != "up" {
		t.Errorf("unexpected components: %v", report.Components)
	}
	if len(failed) != 1 || failed[0] != "redis" {
		t.Errorf("expected onError for redis, got %v", failed)
	}
	if !json.Valid(rec.Body.Bytes()) {
		t.Error("expected a JSON body")
	}
}
