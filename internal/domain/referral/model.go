package referral

import (
	"time"

	"github.com/google/uuid"
)

// Referral statuses.
const (
	StatusPending   = "pending"
	StatusSent      = "sent"
	StatusAccepted  = "accepted"
	StatusScheduled = "scheduled"
	StatusCompleted = "completed"
	StatusRejected  = "rejected"
	StatusCancelled = "cancelled"
)

// Statuses lists every status in workflow order.
var Statuses = []string{
	StatusPending, StatusSent, StatusAccepted, StatusScheduled,
	StatusCompleted, StatusRejected, StatusCancelled,
}

var validStatuses = map[string]bool{
	StatusPending: true, StatusSent: true, StatusAccepted: true, StatusScheduled: true,
	StatusCompleted: true, StatusRejected: true, StatusCancelled: true,
}

var terminalStatuses = map[string]bool{
	StatusCompleted: true, StatusRejected: true, StatusCancelled: true,
}

// IsTerminal reports whether a referral in status may no longer change.
func IsTerminal(status string) bool { return terminalStatuses[status] }

type Referral struct {
	ID         uuid.UUID `json:"id"`
	PatientID  uuid.UUID `json:"patient_id"`
	ReferredTo string    `json:"referred_to"`
	Specialty  string    `json:"specialty,omitempty"`
	Reason     string    `json:"reason,omitempty"`
	Status     string    `json:"status"`
	StatusNote string    `json:"status_note,omitempty"`
	UpdatedBy  string    `json:"updated_by,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// StatusUpdate is the input of PATCH /referrals/:id/status.
type StatusUpdate struct {
	ID     uuid.UUID `json:"-"`
	Status string    `json:"status" validate:"required"`
	Note   string    `json:"note" validate:"omitempty,max=1000"`
}

// Stats summarizes the clinic's referrals.
type Stats struct {
	ByStatus       map[string]int `json:"by_status"`
	Total          int            `json:"total"`
	CompletedShare float64        `json:"completed_share"`
}
