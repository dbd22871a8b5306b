package billing

import (
	"time"

	"github.com/google/uuid"
)

// Claim statuses surfaced by the denials worklist.
const (
	ClaimDenied   = "denied"
	ClaimAppealed = "appealed"
)

// Claim is a submitted insurance claim.
type Claim struct {
	ID           uuid.UUID  `json:"id"`
	ClaimNumber  string     `json:"claim_number"`
	PatientID    uuid.UUID  `json:"patient_id"`
	PatientName  string     `json:"patient_name"`
	PayerName    string     `json:"payer_name"`
	Status       string     `json:"status"`
	TotalAmount  float64    `json:"total_amount"`
	DenialCode   string     `json:"denial_code,omitempty"`
	DenialReason string     `json:"denial_reason,omitempty"`
	ServiceDate  time.Time  `json:"service_date"`
	SubmittedAt  *time.Time `json:"submitted_at,omitempty"`
	DeniedAt     *time.Time `json:"denied_at,omitempty"`
}

// ERAEvent is one electronic remittance advice (X12 835) line received from
// a payer.
type ERAEvent struct {
	ID               uuid.UUID  `json:"id"`
	ClaimID          *uuid.UUID `json:"claim_id,omitempty"`
	ClaimNumber      string     `json:"claim_number,omitempty"`
	PayerName        string     `json:"payer_name"`
	CheckNumber      string     `json:"check_number,omitempty"`
	PaidAmount       float64    `json:"paid_amount"`
	AdjustmentAmount float64    `json:"adjustment_amount"`
	AdjustmentCode   string     `json:"adjustment_code,omitempty"`
	ReceivedAt       time.Time  `json:"received_at"`
}

// DenialQuery is the input of GET /billing/denials.
type DenialQuery struct {
	Status string `query:"status" validate:"omitempty,oneof=denied appealed"`
	Payer  string `query:"payer" validate:"omitempty,max=200"`
	Limit  int    `query:"limit" validate:"omitempty,min=1"`
	Offset int    `query:"offset" validate:"omitempty,min=0"`
}

// ERAQuery is the input of GET /billing/era-events.
type ERAQuery struct {
	ClaimID string `query:"claim_id" validate:"omitempty,uuid"`
	Limit   int    `query:"limit" validate:"omitempty,min=1"`
}

// DenialFilter is the repository form of DenialQuery.
type DenialFilter struct {
	Status string
	Payer  string
	Limit  int
	Offset int
}
