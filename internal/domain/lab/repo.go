package lab

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	// GetProtocol returns the protocol with steps ordered by sequence, or
	// nil when it does not exist.
	GetProtocol(ctx context.Context, id uuid.UUID) (*Protocol, error)
	// CreateOrder stores the order and all its draws atomically.
	CreateOrder(ctx context.Context, o *Order) error
}
