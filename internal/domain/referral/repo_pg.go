package referral

import (
	"context"
	"errors"
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

const referralCols = `id, patient_id, referred_to, COALESCE(specialty, ''), COALESCE(reason, ''),
	status, COALESCE(status_note, ''), COALESCE(updated_by, ''), created_at, updated_at`

func scanReferral(row pgx.Row) (*Referral, error) {
	var r Referral
	err := row.Scan(&r.ID, &r.PatientID, &r.ReferredTo, &r.Specialty, &r.Reason,
		&r.Status, &r.StatusNote, &r.UpdatedBy, &r.CreatedAt, &r.UpdatedAt)
	return &r, err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Referral, error) {
	ref, err := scanReferral(db.Conn(ctx, r.pool).QueryRow(ctx,
		`SELECT `+referralCols+` FROM referrals WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get referral: %w", err)
	}
	return ref, nil
}

func (r *repoPG) UpdateStatus(ctx context.Context, ref *Referral, from string) (bool, error) {
	updated := false
	err := db.WithTx(ctx, r.pool, func(ctx context.Context) error {
		q := db.Conn(ctx, r.pool)
		err := q.QueryRow(ctx, `
			UPDATE referrals
			SET status = $2, status_note = NULLIF($3, ''), updated_by = $4, updated_at = now()
			WHERE id = $1 AND status = $5
			RETURNING updated_at`,
			ref.ID, ref.Status, ref.StatusNote, ref.UpdatedBy, from,
		).Scan(&ref.UpdatedAt)
		if errors.Is(err, pgx.ErrNoRows) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("update referral status: %w", err)
		}
		updated = true

		_, err = q.Exec(ctx, `
			INSERT INTO referral_status_history (referral_id, from_status, to_status, note, changed_by)
			VALUES ($1, $2, $3, NULLIF($4, ''), $5)`,
			ref.ID, from, ref.Status, ref.StatusNote, ref.UpdatedBy)
		if err != nil {
			return fmt.Errorf("record referral history: %w", err)
		}
		return nil
	})
	return updated, err
}

func (r *repoPG) CountByStatus(ctx context.Context) (map[string]int, error) {
	rows, err := db.Conn(ctx, r.pool).Query(ctx, `SELECT status, COUNT(*) FROM referrals GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("count referrals: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("scan referral count: %w", err)
		}
		counts[status] = n
	}
	return counts, rows.Err()
}
