package caregiver

import (
	"time"

	"github.com/google/uuid"
)

// PatientInfo is the demographic header of a caregiver summary.
type PatientInfo struct {
	ID           uuid.UUID  `json:"id"`
	FullName     string     `json:"full_name"`
	BirthDate    *time.Time `json:"birth_date,omitempty"`
	Gender       string     `json:"gender,omitempty"`
	Phone        string     `json:"phone,omitempty"`
	Relationship string     `json:"relationship,omitempty"`
}

type Medication struct {
	ID        uuid.UUID  `json:"id"`
	Name      string     `json:"name"`
	Dosage    string     `json:"dosage,omitempty"`
	Frequency string     `json:"frequency,omitempty"`
	StartedAt *time.Time `json:"started_at,omitempty"`
}

type Allergy struct {
	ID        uuid.UUID `json:"id"`
	Substance string    `json:"substance"`
	Severity  string    `json:"severity,omitempty"`
	Reaction  string    `json:"reaction,omitempty"`
}

type Appointment struct {
	ID           uuid.UUID `json:"id"`
	StartsAt     time.Time `json:"starts_at"`
	ProviderName string    `json:"provider_name,omitempty"`
	Location     string    `json:"location,omitempty"`
	Status       string    `json:"status"`
}

// Summary is what a linked caregiver may see about a patient.
type Summary struct {
	Patient              *PatientInfo   `json:"patient"`
	Medications          []*Medication  `json:"medications"`
	Allergies            []*Allergy     `json:"allergies"`
	UpcomingAppointments []*Appointment `json:"upcoming_appointments"`
}

// SummaryRequest identifies the caregiver and patient of a summary.
type SummaryRequest struct {
	CaregiverID uuid.UUID
	PatientID   uuid.UUID
}

// RotateRequest is the body of POST /caregivers/tokens/rotate.
type RotateRequest struct {
	CaregiverID string `json:"caregiver_id" validate:"required,uuid"`
	PatientID   string `json:"patient_id" validate:"required,uuid"`
	TTLHours    int    `json:"ttl_hours" validate:"omitempty,min=1,max=720"`
}

// RotateResult carries the plaintext token exactly once.
type RotateResult struct {
	Success      bool      `json:"success"`
	Token        string    `json:"token"`
	ExpiresAt    time.Time `json:"expires_at"`
	RevokedCount int64     `json:"revoked_count"`
}

// AccessToken is the persisted form of a portal token. Only the hash is kept.
type AccessToken struct {
	ID          uuid.UUID
	CaregiverID uuid.UUID
	PatientID   uuid.UUID
	TokenHash   string
	IssuedBy    string
	ExpiresAt   time.Time
	CreatedAt   time.Time
}
