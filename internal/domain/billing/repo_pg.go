package billing

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

func (r *repoPG) ListClaimsByStatus(ctx context.Context, f DenialFilter) ([]*Claim, error) {
	rows, err := db.Conn(ctx, r.pool).Query(ctx, `
		SELECT c.id, c.claim_number, c.patient_id, COALESCE(p.full_name, ''), c.payer_name,
			c.status, c.total_amount, COALESCE(c.denial_code, ''), COALESCE(c.denial_reason, ''),
			c.service_date, c.submitted_at, c.denied_at
		FROM claims c
		LEFT JOIN patients p ON p.id = c.patient_id
		WHERE c.status = $1 AND ($2 = '' OR c.payer_name ILIKE '%' || $2 || '%')
		ORDER BY COALESCE(c.denied_at, c.submitted_at, c.created_at) DESC
		LIMIT $3 OFFSET $4`,
		f.Status, f.Payer, f.Limit, f.Offset,
	)
	if err != nil {
		return nil, fmt.Errorf("query claims: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (*Claim, error) {
		var c Claim
		err := row.Scan(&c.ID, &c.ClaimNumber, &c.PatientID, &c.PatientName, &c.PayerName,
			&c.Status, &c.TotalAmount, &c.DenialCode, &c.DenialReason,
			&c.ServiceDate, &c.SubmittedAt, &c.DeniedAt)
		return &c, err
	})
}

func (r *repoPG) ListERAEvents(ctx context.Context, claimID *uuid.UUID, limit int) ([]*ERAEvent, error) {
	rows, err := db.Conn(ctx, r.pool).Query(ctx, `
		SELECT e.id, e.claim_id, COALESCE(c.claim_number, ''), e.payer_name, COALESCE(e.check_number, ''),
			e.paid_amount, e.adjustment_amount, COALESCE(e.adjustment_code, ''), e.received_at
		FROM era_events e
		LEFT JOIN claims c ON c.id = e.claim_id
		WHERE $1::uuid IS NULL OR e.claim_id = $1
		ORDER BY e.received_at DESC
		LIMIT $2`,
		claimID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query era events: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (*ERAEvent, error) {
		var e ERAEvent
		err := row.Scan(&e.ID, &e.ClaimID, &e.ClaimNumber, &e.PayerName, &e.CheckNumber,
			&e.PaidAmount, &e.AdjustmentAmount, &e.AdjustmentCode, &e.ReceivedAt)
		return &e, err
	})
}
