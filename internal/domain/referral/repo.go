package referral

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	// GetByID returns nil when the referral does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*Referral, error)
	// UpdateStatus moves the referral from status from to r.Status and
	// records the change. It returns false when the stored status is no
	// longer from.
	UpdateStatus(ctx context.Context, r *Referral, from string) (bool, error)
	CountByStatus(ctx context.Context) (map[string]int, error)
}
