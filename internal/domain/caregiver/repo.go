package caregiver

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	IsLinked(ctx context.Context, caregiverID, patientID uuid.UUID) (bool, error)
	GetPatient(ctx context.Context, caregiverID, patientID uuid.UUID) (*PatientInfo, error)
	ActiveMedications(ctx context.Context, patientID uuid.UUID) ([]*Medication, error)
	Allergies(ctx context.Context, patientID uuid.UUID) ([]*Allergy, error)
	UpcomingAppointments(ctx context.Context, patientID uuid.UUID, limit int) ([]*Appointment, error)

	// RotateToken revokes every active token of the pair and stores t, atomically.
	RotateToken(ctx context.Context, t *AccessToken) (revoked int64, err error)
}
