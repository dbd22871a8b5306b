package integration

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clinicops/practice/internal/platform/db"
)

type repoPG struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

func (r *repoPG) Catalog(ctx context.Context) ([]*CatalogEntry, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT key, name, category, COALESCE(description, ''), auth_type
		FROM shared.integration_catalog
		WHERE enabled
		ORDER BY category, name`)
	if err != nil {
		return nil, fmt.Errorf("query integration catalog: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (*CatalogEntry, error) {
		var e CatalogEntry
		err := row.Scan(&e.Key, &e.Name, &e.Category, &e.Description, &e.AuthType)
		return &e, err
	})
}

func (r *repoPG) Connections(ctx context.Context) ([]*Connection, error) {
	rows, err := db.Conn(ctx, r.pool).Query(ctx, `
		SELECT id, integration_key, status, connected_at, last_sync_at, COALESCE(last_error, '')
		FROM integration_connections
		ORDER BY integration_key`)
	if err != nil {
		return nil, fmt.Errorf("query integration connections: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (*Connection, error) {
		var c Connection
		err := row.Scan(&c.ID, &c.IntegrationKey, &c.Status, &c.ConnectedAt, &c.LastSyncAt, &c.LastError)
		return &c, err
	})
}

func (r *repoPG) Health(ctx context.Context) ([]*HealthEntry, error) {
	rows, err := db.Conn(ctx, r.pool).Query(ctx, `
		SELECT c.id, c.integration_key, c.status,
			MAX(e.received_at),
			COUNT(e.id) FILTER (WHERE e.status = 'pending'),
			COUNT(e.id) FILTER (WHERE e.status = 'failed' AND e.received_at > now() - interval '24 hours')
		FROM integration_connections c
		LEFT JOIN integration_events e ON e.connection_id = c.id
		GROUP BY c.id, c.integration_key, c.status
		ORDER BY c.integration_key`)
	if err != nil {
		return nil, fmt.Errorf("query integration health: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (*HealthEntry, error) {
		var h HealthEntry
		err := row.Scan(&h.ConnectionID, &h.IntegrationKey, &h.Status, &h.LastEventAt, &h.PendingEvents, &h.FailedEvents)
		return &h, err
	})
}

func (r *repoPG) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return db.WithTx(ctx, r.pool, fn)
}

func (r *repoPG) Savepoint(ctx context.Context, fn func(ctx context.Context) error) error {
	return db.WithSavepoint(ctx, r.pool, fn)
}

func (r *repoPG) ClaimPending(ctx context.Context, limit int) ([]*Event, error) {
	rows, err := db.Conn(ctx, r.pool).Query(ctx, `
		SELECT id, connection_id, event_type, payload, attempts, received_at
		FROM integration_events
		WHERE status = 'pending'
		ORDER BY received_at
		LIMIT $1
		FOR UPDATE SKIP LOCKED`, limit)
	if err != nil {
		return nil, fmt.Errorf("claim integration events: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (*Event, error) {
		var e Event
		err := row.Scan(&e.ID, &e.ConnectionID, &e.EventType, &e.Payload, &e.Attempts, &e.ReceivedAt)
		return &e, err
	})
}

func (r *repoPG) MarkProcessed(ctx context.Context, id uuid.UUID) error {
	_, err := db.Conn(ctx, r.pool).Exec(ctx, `
		UPDATE integration_events
		SET status = 'processed', attempts = attempts + 1, processed_at = now(), last_error = NULL
		WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("mark event processed: %w", err)
	}
	return nil
}

func (r *repoPG) MarkFailed(ctx context.Context, id uuid.UUID, reason string) error {
	_, err := db.Conn(ctx, r.pool).Exec(ctx, `
		UPDATE integration_events
		SET status = 'failed', attempts = attempts + 1, last_error = $2
		WHERE id = $1`, id, reason)
	if err != nil {
		return fmt.Errorf("mark event failed: %w", err)
	}
	return nil
}

func (r *repoPG) TouchConnection(ctx context.Context, id uuid.UUID) error {
	_, err := db.Conn(ctx, r.pool).Exec(ctx, `
		UPDATE integration_connections SET last_sync_at = now(), last_error = NULL WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("touch connection: %w", err)
	}
	return nil
}

func (r *repoPG) InsertRemittance(ctx context.Context, eventID uuid.UUID, rm Remittance) error {
	_, err := db.Conn(ctx, r.pool).Exec(ctx, `
		INSERT INTO era_events (id, claim_id, payer_name, check_number, paid_amount,
			adjustment_amount, adjustment_code, source_event_id)
		VALUES ($1, (SELECT id FROM claims WHERE claim_number = $2), $3, NULLIF($4, ''), $5, $6, NULLIF($7, ''), $8)
		ON CONFLICT (source_event_id) DO NOTHING`,
		uuid.New(), rm.ClaimNumber, rm.PayerName, rm.CheckNumber, rm.PaidAmount,
		rm.AdjustmentAmount, rm.AdjustmentCode, eventID)
	if err != nil {
		return fmt.Errorf("insert remittance: %w", err)
	}
	return nil
}
