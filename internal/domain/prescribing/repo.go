package prescribing

import "context"

type Repository interface {
	Create(ctx context.Context, o *Order) error
	UpdateStatus(ctx context.Context, o *Order) error
}
