package socialwork

import (
	"time"

	"github.com/google/uuid"
)

// Case priorities, highest first.
var Priorities = []string{"urgent", "high", "medium", "low"}

type Case struct {
	ID          uuid.UUID `json:"id"`
	PatientID   uuid.UUID `json:"patient_id"`
	PatientName string    `json:"patient_name"`
	Priority    string    `json:"priority"`
	Category    string    `json:"category"`
	AssignedTo  string    `json:"assigned_to,omitempty"`
	OpenedAt    time.Time `json:"opened_at"`
}

type Assessment struct {
	ID          uuid.UUID  `json:"id"`
	CaseID      uuid.UUID  `json:"case_id"`
	PatientName string     `json:"patient_name"`
	Kind        string     `json:"kind"`
	DueAt       *time.Time `json:"due_at,omitempty"`
	Overdue     bool       `json:"overdue"`
}

type Followup struct {
	ID          uuid.UUID `json:"id"`
	CaseID      uuid.UUID `json:"case_id"`
	PatientName string    `json:"patient_name"`
	ScheduledAt time.Time `json:"scheduled_at"`
	Method      string    `json:"method"`
	Notes       string    `json:"notes,omitempty"`
}

// Dashboard is the social-work overview of one clinic.
type Dashboard struct {
	OpenCasesByPriority map[string]int `json:"open_cases_by_priority"`
	OpenCasesTotal      int            `json:"open_cases_total"`
	RecentCases         []*Case        `json:"recent_cases"`
	PendingAssessments  []*Assessment  `json:"pending_assessments"`
	UpcomingFollowups   []*Followup    `json:"upcoming_followups"`
	GeneratedAt         time.Time      `json:"generated_at"`
}
