package telehealth

import "context"

type Repository interface {
	Create(ctx context.Context, l *Link) error
}
