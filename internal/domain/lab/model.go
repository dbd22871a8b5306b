package lab

import (
	"time"

	"github.com/google/uuid"

	"github.com/clinicops/practice/internal/platform/apperr"
)

// DateLayout is the wire format of start_date and scheduled draw dates.
const DateLayout = "2006-01-02"

// Protocol is a reusable schedule of lab draws.
type Protocol struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Steps []Step    `json:"steps"`
}

// Step is one draw of a protocol, DayOffset days after the start date.
type Step struct {
	Sequence  int    `json:"sequence"`
	DayOffset int    `json:"day_offset"`
	TestCode  string `json:"test_code"`
	TestName  string `json:"test_name"`
}

// ScheduleRequest is the body of POST /labs/protocols/schedule.
type ScheduleRequest struct {
	PatientID  string `json:"patient_id" validate:"required"`
	ProtocolID string `json:"protocol_id" validate:"required"`
	StartDate  string `json:"start_date" validate:"required"`
}

func (r ScheduleRequest) Check() error {
	if _, err := time.Parse(DateLayout, r.StartDate); err != nil {
		return apperr.BadRequest("lab.invalid_start_date")
	}
	if _, err := uuid.Parse(r.PatientID); err != nil {
		return apperr.BadRequest("validation.invalid_id").With("field", "patient_id")
	}
	if _, err := uuid.Parse(r.ProtocolID); err != nil {
		return apperr.BadRequest("validation.invalid_id").With("field", "protocol_id")
	}
	return nil
}

// Order is a scheduled protocol run for one patient.
type Order struct {
	ID         uuid.UUID `json:"id"`
	PatientID  uuid.UUID `json:"patient_id"`
	ProtocolID uuid.UUID `json:"protocol_id"`
	Protocol   string    `json:"protocol_name"`
	OrderedBy  string    `json:"ordered_by"`
	StartDate  string    `json:"start_date"`
	Status     string    `json:"status"`
	Draws      []Draw    `json:"draws"`
	CreatedAt  time.Time `json:"created_at"`
}

type Draw struct {
	ID          uuid.UUID `json:"id"`
	Sequence    int       `json:"sequence"`
	TestCode    string    `json:"test_code"`
	TestName    string    `json:"test_name"`
	ScheduledOn string    `json:"scheduled_on"`
	Status      string    `json:"status"`
}
