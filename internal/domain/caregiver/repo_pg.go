package caregiver

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

func (r *repoPG) IsLinked(ctx context.Context, caregiverID, patientID uuid.UUID) (bool, error) {
	var linked bool
	err := db.Conn(ctx, r.pool).QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM caregiver_links
			WHERE caregiver_id = $1 AND patient_id = $2 AND revoked_at IS NULL
		)`, caregiverID, patientID).Scan(&linked)
	if err != nil {
		return false, fmt.Errorf("check caregiver link: %w", err)
	}
	return linked, nil
}

func (r *repoPG) GetPatient(ctx context.Context, caregiverID, patientID uuid.UUID) (*PatientInfo, error) {
	var p PatientInfo
	err := db.Conn(ctx, r.pool).QueryRow(ctx, `
		SELECT p.id, p.full_name, p.birth_date, COALESCE(p.gender, ''), COALESCE(p.phone, ''),
			COALESCE(l.relationship, '')
		FROM patients p
		JOIN caregiver_links l ON l.patient_id = p.id AND l.caregiver_id = $1
		WHERE p.id = $2`, caregiverID, patientID,
	).Scan(&p.ID, &p.FullName, &p.BirthDate, &p.Gender, &p.Phone, &p.Relationship)
	if err != nil {
		return nil, fmt.Errorf("get patient: %w", err)
	}
	return &p, nil
}

func (r *repoPG) ActiveMedications(ctx context.Context, patientID uuid.UUID) ([]*Medication, error) {
	rows, err := db.Conn(ctx, r.pool).Query(ctx, `
		SELECT id, name, COALESCE(dosage, ''), COALESCE(frequency, ''), started_at
		FROM patient_medications
		WHERE patient_id = $1 AND status = 'active'
		ORDER BY name`, patientID)
	if err != nil {
		return nil, fmt.Errorf("query medications: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (*Medication, error) {
		var m Medication
		err := row.Scan(&m.ID, &m.Name, &m.Dosage, &m.Frequency, &m.StartedAt)
		return &m, err
	})
}

func (r *repoPG) Allergies(ctx context.Context, patientID uuid.UUID) ([]*Allergy, error) {
	rows, err := db.Conn(ctx, r.pool).Query(ctx, `
		SELECT id, substance, COALESCE(severity, ''), COALESCE(reaction, '')
		FROM patient_allergies
		WHERE patient_id = $1
		ORDER BY substance`, patientID)
	if err != nil {
		return nil, fmt.Errorf("query allergies: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (*Allergy, error) {
		var a Allergy
		err := row.Scan(&a.ID, &a.Substance, &a.Severity, &a.Reaction)
		return &a, err
	})
}

func (r *repoPG) UpcomingAppointments(ctx context.Context, patientID uuid.UUID, limit int) ([]*Appointment, error) {
	rows, err := db.Conn(ctx, r.pool).Query(ctx, `
		SELECT id, starts_at, COALESCE(provider_name, ''), COALESCE(location, ''), status
		FROM appointments
		WHERE patient_id = $1 AND starts_at >= now() AND status NOT IN ('cancelled', 'no_show')
		ORDER BY starts_at
		LIMIT $2`, patientID, limit)
	if err != nil {
		return nil, fmt.Errorf("query appointments: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (*Appointment, error) {
		var a Appointment
		err := row.Scan(&a.ID, &a.StartsAt, &a.ProviderName, &a.Location, &a.Status)
		return &a, err
	})
}

func (r *repoPG) RotateToken(ctx context.Context, t *AccessToken) (int64, error) {
	var revoked int64
	err := db.WithTx(ctx, r.pool, func(ctx context.Context) error {
		q := db.Conn(ctx, r.pool)
		tag, err := q.Exec(ctx, `
			UPDATE caregiver_access_tokens SET revoked_at = now()
			WHERE caregiver_id = $1 AND patient_id = $2
				AND revoked_at IS NULL AND expires_at > now()`,
			t.CaregiverID, t.PatientID)
		if err != nil {
			return fmt.Errorf("revoke tokens: %w", err)
		}
		revoked = tag.RowsAffected()

		return q.QueryRow(ctx, `
			INSERT INTO caregiver_access_tokens (id, caregiver_id, patient_id, token_hash, issued_by, expires_at)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING created_at`,
			t.ID, t.CaregiverID, t.PatientID, t.TokenHash, t.IssuedBy, t.ExpiresAt,
		).Scan(&t.CreatedAt)
	})
	if err != nil {
		return 0, err
	}
	return revoked, nil
}
