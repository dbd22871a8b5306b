// Package audit records security-relevant actions. Writes are best effort:
// a failed write is logged and never changes the response of the request
// that caused it.
package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/clinicops/practice/internal/platform/auth"
	"github.com/clinicops/practice/internal/platform/db"
	"github.com/clinicops/practice/internal/platform/metrics"
)

// Event is one audit record.
type Event struct {
	ID           uuid.UUID      `json:"id"`
	Action       string         `json:"action"`
	UserID       string         `json:"user_id"`
	ClinicID     string         `json:"clinic_id"`
	IPAddress    string         `json:"ip_address,omitempty"`
	UserAgent    string         `json:"user_agent,omitempty"`
	ResourceType string         `json:"resource_type,omitempty"`
	ResourceID   string         `json:"resource_id,omitempty"`
	RequestID    string         `json:"request_id,omitempty"`
	Details      map[string]any `json:"details,omitempty"`
	OccurredAt   time.Time      `json:"occurred_at"`
}

// Sink persists events.
type Sink interface {
	Write(ctx context.Context, e Event) error
}

// Recorder fills request metadata into events and writes them to a sink.
type Recorder struct {
	sink   Sink
	logger zerolog.Logger
	now    func() time.Time
}

func NewRecorder(sink Sink, logger zerolog.Logger) *Recorder {
	return &Recorder{sink: sink, logger: logger, now: time.Now}
}

// Record waits for the write and swallows its failure.
func (r *Recorder) Record(ctx context.Context, e Event) {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.OccurredAt.IsZero() {
		e.OccurredAt = r.now().UTC()
	}
	if e.UserID == "" {
		e.UserID = auth.UserIDFromContext(ctx)
	}
	if e.ClinicID == "" {
		e.ClinicID = db.ClinicFromContext(ctx)
	}

	if err := r.sink.Write(ctx, e); err != nil {
		metrics.AuditWritesTotal.WithLabelValues("error").Inc()
		r.logger.Error().
			Err(err).
			Str("action", e.Action).
			Str("user_id", e.UserID).
			Str("request_id", e.RequestID).
			Msg("audit write failed")
		return
	}
	metrics.AuditWritesTotal.WithLabelValues("ok").Inc()
}

// RecordRequest records an event carrying the network origin and request ID
// of c.
func (r *Recorder) RecordRequest(c echo.Context, e Event) {
	e.IPAddress = c.RealIP()
	e.UserAgent = c.Request().UserAgent()
	if rid, ok := c.Get("request_id").(string); ok {
		e.RequestID = rid
	}
	r.Record(c.Request().Context(), e)
}

// PGSink writes to the clinic schema's audit_log table.
type PGSink struct {
	pool *pgxpool.Pool
}

func NewPGSink(pool *pgxpool.Pool) *PGSink {
	return &PGSink{pool: pool}
}

func (s *PGSink) Write(ctx context.Context, e Event) error {
	details, err := json.Marshal(e.Details)
	if err != nil {
		return fmt.Errorf("marshal audit details: %w", err)
	}
	_, err = db.Conn(ctx, s.pool).Exec(ctx, `
		INSERT INTO audit_log (
			id, action, user_id, clinic_id, ip_address, user_agent,
			resource_type, resource_id, request_id, details, occurred_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
		e.ID, e.Action, e.UserID, e.ClinicID, e.IPAddress, e.UserAgent,
		e.ResourceType, e.ResourceID, e.RequestID, details, e.OccurredAt,
	)
	if err != nil {
		return fmt.Errorf("insert audit_log: %w", err)
	}
	return nil
}

// LogSink writes events as structured log lines. Used when no database is
// wired, e.g. in development.
type LogSink struct {
	logger zerolog.Logger
}

func NewLogSink(logger zerolog.Logger) *LogSink {
	return &LogSink{logger: logger}
}

func (s *LogSink) Write(_ context.Context, e Event) error {
	s.logger.Info().
		Str("audit_id", e.ID.String()).
		Str("action", e.Action).
		Str("user_id", e.UserID).
		Str("clinic_id", e.ClinicID).
		Str("ip_address", e.IPAddress).
		Str("resource_type", e.ResourceType).
		Str("resource_id", e.ResourceID).
		Str("request_id", e.RequestID).
		Interface("details", e.Details).
		Time("occurred_at", e.OccurredAt).
		Msg("audit")
	return nil
}

// MultiSink writes to every sink and returns the first failure.
type MultiSink []Sink

func (m MultiSink) Write(ctx context.Context, e Event) error {
	var first error
	for _, s := range m {
		if err := s.Write(ctx, e); err != nil && first == nil {
			first = err
		}
	}
	return first
}
