package lab

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

func (r *repoPG) GetProtocol(ctx context.Context, id uuid.UUID) (*Protocol, error) {
	q := db.Conn(ctx, r.pool)
	p := Protocol{ID: id}
	err := q.QueryRow(ctx, `SELECT name FROM lab_protocols WHERE id = $1 AND active`, id).Scan(&p.Name)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get lab protocol: %w", err)
	}

	rows, err := q.Query(ctx, `
		SELECT sequence, day_offset, test_code, test_name
		FROM lab_protocol_steps
		WHERE protocol_id = $1
		ORDER BY sequence`, id)
	if err != nil {
		return nil, fmt.Errorf("query protocol steps: %w", err)
	}
	p.Steps, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (Step, error) {
		var s Step
		err := row.Scan(&s.Sequence, &s.DayOffset, &s.TestCode, &s.TestName)
		return s, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan protocol steps: %w", err)
	}
	return &p, nil
}

func (r *repoPG) CreateOrder(ctx context.Context, o *Order) error {
	return db.WithTx(ctx, r.pool, func(ctx context.Context) error {
		q := db.Conn(ctx, r.pool)
		err := q.QueryRow(ctx, `
			INSERT INTO lab_orders (id, patient_id, protocol_id, ordered_by, start_date, status)
			VALUES ($1, $2, $3, $4, $5::date, $6)
			RETURNING created_at`,
			o.ID, o.PatientID, o.ProtocolID, o.OrderedBy, o.StartDate, o.Status,
		).Scan(&o.CreatedAt)
		if err != nil {
			return fmt.Errorf("insert lab order: %w", err)
		}

		batch := &pgx.Batch{}
		for _, d := range o.Draws {
			batch.Queue(`
				INSERT INTO lab_draws (id, order_id, sequence, test_code, test_name, scheduled_on, status)
				VALUES ($1, $2, $3, $4, $5, $6::date, $7)`,
				d.ID, o.ID, d.Sequence, d.TestCode, d.TestName, d.ScheduledOn, d.Status)
		}
		if err := q.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("insert lab draws: %w", err)
		}
		return nil
	})
}
