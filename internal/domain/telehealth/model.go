package telehealth

import (
	"time"

	"github.com/google/uuid"
)

// Providers.
const (
	ProviderCustom = "custom"
	ProviderJitsi  = "jitsi"
)

// Providers lists the supported providers.
var Providers = []string{ProviderCustom, ProviderJitsi}

// DefaultLinkTTL is how long a generated link stays valid.
const DefaultLinkTTL = 24 * time.Hour

// CreateLinkRequest is the body of POST /telehealth/links.
type CreateLinkRequest struct {
	Provider      string `json:"provider" validate:"required"`
	CustomURL     string `json:"customUrl" validate:"omitempty,max=2048"`
	AppointmentID string `json:"appointment_id" validate:"omitempty,uuid"`
	NotifyEmail   string `json:"notify_email" validate:"omitempty,email"`
}

// Link is a persisted visit link.
type Link struct {
	ID            uuid.UUID  `json:"id"`
	Provider      string     `json:"provider"`
	URL           string     `json:"url"`
	AppointmentID *uuid.UUID `json:"appointment_id,omitempty"`
	CreatedBy     string     `json:"created_by"`
	ExpiresAt     time.Time  `json:"expires_at"`
	CreatedAt     time.Time  `json:"created_at"`
}

// CreateLinkResponse is the success body of POST /telehealth/links.
type CreateLinkResponse struct {
	Success   bool      `json:"success"`
	ID        uuid.UUID `json:"id"`
	Provider  string    `json:"provider"`
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}
