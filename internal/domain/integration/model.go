package integration

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Event statuses.
const (
	EventPending   = "pending"
	EventProcessed = "processed"
	EventFailed    = "failed"
)

// CatalogEntry describes an integration the practice can connect.
type CatalogEntry struct {
	Key         string `json:"key"`
	Name        string `json:"name"`
	Category    string `json:"category"`
	Description string `json:"description,omitempty"`
	AuthType    string `json:"auth_type"`
}

// Connection is the clinic's link to one catalog integration.
type Connection struct {
	ID             uuid.UUID  `json:"id"`
	IntegrationKey string     `json:"integration_key"`
	Status         string     `json:"status"`
	ConnectedAt    time.Time  `json:"connected_at"`
	LastSyncAt     *time.Time `json:"last_sync_at,omitempty"`
	LastError      string     `json:"last_error,omitempty"`
}

// Event is an inbound message from a connected integration.
type Event struct {
	ID           uuid.UUID       `json:"id"`
	ConnectionID *uuid.UUID      `json:"connection_id,omitempty"`
	EventType    string          `json:"event_type"`
	Payload      json.RawMessage `json:"payload"`
	Attempts     int             `json:"attempts"`
	ReceivedAt   time.Time       `json:"received_at"`
}

// HealthEntry summarizes one connection's event flow.
type HealthEntry struct {
	ConnectionID   uuid.UUID  `json:"connection_id"`
	IntegrationKey string     `json:"integration_key"`
	Status         string     `json:"status"`
	LastEventAt    *time.Time `json:"last_event_at,omitempty"`
	PendingEvents  int        `json:"pending_events"`
	FailedEvents   int        `json:"failed_events_24h"`
	Healthy        bool       `json:"healthy"`
}

// ProcessRequest is the body of POST /integrations/events/process.
type ProcessRequest struct {
	Limit int `json:"limit" validate:"omitempty,min=1"`
}

// ProcessResult reports one processing run.
type ProcessResult struct {
	Success   bool `json:"success"`
	Processed int  `json:"processed"`
	Failed    int  `json:"failed"`
}

// Remittance is the payload of an era.remittance event.
type Remittance struct {
	ClaimNumber      string  `json:"claim_number"`
	PayerName        string  `json:"payer_name"`
	CheckNumber      string  `json:"check_number"`
	PaidAmount       float64 `json:"paid_amount"`
	AdjustmentAmount float64 `json:"adjustment_amount"`
	AdjustmentCode   string  `json:"adjustment_code"`
}
