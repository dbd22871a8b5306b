package notification

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/clinicops/practice/internal/platform/db"
	"github.com/clinicops/practice/internal/platform/metrics"
)

// DeliveryStatus is the outcome of one delivery attempt.
type DeliveryStatus string

const (
	StatusSent   DeliveryStatus = "sent"
	StatusFailed DeliveryStatus = "failed"
)

// Entry is one row of the delivery log.
type Entry struct {
	NotificationID string
	Channel        Channel
	Recipient      string
	TemplateID     string
	ResourceType   string
	ResourceID     string
	Status         DeliveryStatus
	Error          string
	AttemptedAt    time.Time
}

// DeliveryStore persists entries.
type DeliveryStore interface {
	Insert(ctx context.Context, e Entry) error
}

// DeliveryLog records delivery attempts without ever failing.
type DeliveryLog struct {
	store  DeliveryStore
	logger zerolog.Logger
}

func NewDeliveryLog(store DeliveryStore, logger zerolog.Logger) *DeliveryLog {
	return &DeliveryLog{store: store, logger: logger}
}

// LogDelivery writes e. Store errors and panics are logged and dropped.
func (l *DeliveryLog) LogDelivery(ctx context.Context, e Entry) {
	if l == nil || l.store == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			metrics.DeliveryLogFailuresTotal.Inc()
			l.logger.Error().
				Str("notification_id", e.NotificationID).
				Str("panic", fmt.Sprintf("%v", r)).
				Msg("delivery log write panicked")
		}
	}()

	if e.AttemptedAt.IsZero() {
		e.AttemptedAt = time.Now().UTC()
	}
	if err := l.store.Insert(ctx, e); err != nil {
		metrics.DeliveryLogFailuresTotal.Inc()
		l.logger.Error().
			Err(err).
			Str("notification_id", e.NotificationID).
			Str("status", string(e.Status)).
			Msg("delivery log write failed")
	}
}

// PGDeliveryStore writes to the clinic schema's notification_deliveries.
type PGDeliveryStore struct {
	pool *pgxpool.Pool
}

func NewPGDeliveryStore(pool *pgxpool.Pool) *PGDeliveryStore {
	return &PGDeliveryStore{pool: pool}
}

func (s *PGDeliveryStore) Insert(ctx context.Context, e Entry) error {
	_, err := db.Conn(ctx, s.pool).Exec(ctx, `
		INSERT INTO notification_deliveries (
			notification_id, channel, recipient, template_id,
			resource_type, resource_id, status, error, attempted_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		e.NotificationID, e.Channel, e.Recipient, e.TemplateID,
		e.ResourceType, e.ResourceID, e.Status, e.Error, e.AttemptedAt,
	)
	if err != nil {
		return fmt.Errorf("insert notification_deliveries: %w", err)
	}
	return nil
}
