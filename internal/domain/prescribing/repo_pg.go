package prescribing

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

const insertOrderSQL = `
		INSERT INTO prescription_orders (id, patient_id, prescriber_id, medication, dosage, frequency,
			quantity, refills, pharmacy_id, notes, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NULLIF($9, ''), NULLIF($10, ''), $11)
		RETURNING created_at`

// insertOrderArgs binds an order to insertOrderSQL. An omitted quantity is
// stored as NULL; the column is nullable.
func insertOrderArgs(o *Order) []any {
	var quantity any
	if o.Quantity != nil {
		quantity = *o.Quantity
	}
	return []any{
		o.ID, o.PatientID, o.PrescriberID, o.Medication, o.Dosage, o.Frequency,
		quantity, o.Refills, o.PharmacyID, o.Notes, o.Status,
	}
}

func (r *repoPG) Create(ctx context.Context, o *Order) error {
	err := db.Conn(ctx, r.pool).QueryRow(ctx, insertOrderSQL, insertOrderArgs(o)...).Scan(&o.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert prescription order: %w", err)
	}
	return nil
}

func (r *repoPG) UpdateStatus(ctx context.Context, o *Order) error {
	_, err := db.Conn(ctx, r.pool).Exec(ctx, `
		UPDATE prescription_orders
		SET status = $2, vendor_reference = NULLIF($3, ''), failure_reason = NULLIF($4, ''),
			submitted_at = $5, updated_at = now()
		WHERE id = $1`,
		o.ID, o.Status, o.VendorReference, o.FailureReason, o.SubmittedAt,
	)
	if err != nil {
		return fmt.Errorf("update prescription order: %w", err)
	}
	return nil
}
