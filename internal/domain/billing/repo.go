package billing

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	ListClaimsByStatus(ctx context.Context, f DenialFilter) ([]*Claim, error)
	ListERAEvents(ctx context.Context, claimID *uuid.UUID, limit int) ([]*ERAEvent, error)
}
