package prescribing

import (
	"time"

	"github.com/google/uuid"

	"github.com/clinicops/practice/internal/platform/apperr"
)

// Order statuses.
const (
	StatusPending   = "pending"
	StatusSubmitted = "submitted"
	StatusFailed    = "failed"
)

// PrescribeRequest is the body of POST /prescriptions/eprescribe.
type PrescribeRequest struct {
	PatientID  string `json:"patient_id" validate:"required"`
	Medication string `json:"medication" validate:"required,notblank,max=200"`
	Dosage     string `json:"dosage" validate:"required,notblank,max=100"`
	Frequency  string `json:"frequency" validate:"required,notblank,max=100"`
	Quantity   int    `json:"quantity" validate:"omitempty,min=1,max=10000"`
	Refills    int    `json:"refills" validate:"omitempty,min=0,max=11"`
	PharmacyID string `json:"pharmacy_id" validate:"omitempty,max=64"`
	Notes      string `json:"notes" validate:"omitempty,max=2000"`
}

func (r PrescribeRequest) Check() error {
	if _, err := uuid.Parse(r.PatientID); err != nil {
		return apperr.BadRequest("validation.invalid_id").With("field", "patient_id")
	}
	return nil
}

// Order is a persisted e-prescription.
type Order struct {
	ID              uuid.UUID  `json:"id"`
	PatientID       uuid.UUID  `json:"patient_id"`
	PrescriberID    string     `json:"prescriber_id"`
	Medication      string     `json:"medication"`
	Dosage          string     `json:"dosage"`
	Frequency       string     `json:"frequency"`
	Quantity        *int       `json:"quantity,omitempty"`
	Refills         int        `json:"refills"`
	PharmacyID      string     `json:"pharmacy_id,omitempty"`
	Notes           string     `json:"notes,omitempty"`
	Status          string     `json:"status"`
	VendorReference string     `json:"vendor_reference,omitempty"`
	FailureReason   string     `json:"failure_reason,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	SubmittedAt     *time.Time `json:"submitted_at,omitempty"`
}

// SubmitResult is the vendor's answer to a submission.
type SubmitResult struct {
	Success          bool              `json:"success"`
	Reference        string            `json:"reference,omitempty"`
	Message          string            `json:"message,omitempty"`
	ValidationErrors []ValidationError `json:"validation_errors,omitempty"`
}

// ValidationError is one field the vendor refused.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}
