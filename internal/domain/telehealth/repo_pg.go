package telehealth

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clinicops/practice/internal/platform/db"
)

type repoPG struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

func (r *repoPG) Create(ctx context.Context, l *Link) error {
	err := db.Conn(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO telehealth_links (id, provider, url, appointment_id, created_by, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at`,
		l.ID, l.Provider, l.URL, l.AppointmentID, l.CreatedBy, l.ExpiresAt,
	).Scan(&l.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert telehealth link: %w", err)
	}
	return nil
}
