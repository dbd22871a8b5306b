package integration

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	// Catalog reads the shared catalog. It must not use the clinic
	// connection so it can run alongside Connections.
	Catalog(ctx context.Context) ([]*CatalogEntry, error)
	Connections(ctx context.Context) ([]*Connection, error)
	Health(ctx context.Context) ([]*HealthEntry, error)

	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	// Savepoint isolates one event's writes inside the running transaction.
	Savepoint(ctx context.Context, fn func(ctx context.Context) error) error
	// ClaimPending locks up to limit pending events, skipping rows locked by
	// concurrent runs. It must be called inside WithTx.
	ClaimPending(ctx context.Context, limit int) ([]*Event, error)
	MarkProcessed(ctx context.Context, id uuid.UUID) error
	MarkFailed(ctx context.Context, id uuid.UUID, reason string) error

	TouchConnection(ctx context.Context, id uuid.UUID) error
	InsertRemittance(ctx context.Context, eventID uuid.UUID, r Remittance) error
}
