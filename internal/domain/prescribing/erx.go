package prescribing

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Submitter hands an order to the e-prescribing network.
type Submitter interface {
	Submit(ctx context.Context, o *Order) (*SubmitResult, error)
}

// ClientOption configures an ERXClient.
type ClientOption func(*ERXClient)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(c *http.Client) ClientOption {
	return func(e *ERXClient) { e.httpClient = c }
}

// ERXClient talks to the e-prescribing vendor's REST API.
type ERXClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewERXClient(baseURL, apiKey string, opts ...ClientOption) *ERXClient {
	c := &ERXClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

type submitPayload struct {
	OrderID    string `json:"order_id"`
	PatientID  string `json:"patient_id"`
	Prescriber string `json:"prescriber_id"`
	Medication string `json:"medication"`
	Dosage     string `json:"dosage"`
	Frequency  string `json:"frequency"`
	Quantity   *int   `json:"quantity,omitempty"`
	Refills    int    `json:"refills"`
	PharmacyID string `json:"pharmacy_id,omitempty"`
	Notes      string `json:"notes,omitempty"`
}

// Submit POSTs the order. Transport failures and non-JSON answers are
// errors; a decoded vendor answer is returned as is, including success=false.
func (c *ERXClient) Submit(ctx context.Context, o *Order) (*SubmitResult, error) {
	payload, err := json.Marshal(submitPayload{
		OrderID:    o.ID.String(),
		PatientID:  o.PatientID.String(),
		Prescriber: o.PrescriberID,
		Medication: o.Medication,
		Dosage:     o.Dosage,
		Frequency:  o.Frequency,
		Quantity:   o.Quantity,
		Refills:    o.Refills,
		PharmacyID: o.PharmacyID,
		Notes:      o.Notes,
	})
	if err != nil {
		return nil, fmt.Errorf("encode prescription: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/prescriptions", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build erx request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Idempotency-Key", o.ID.String())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("erx request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return nil, fmt.Errorf("read erx response: %w", err)
	}

	var result SubmitResult
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("erx response status %d: %w", resp.StatusCode, err)
	}
	if resp.StatusCode >= 300 && result.Success {
		return nil, fmt.Errorf("erx response status %d", resp.StatusCode)
	}
	return &result, nil
}

// OfflineSubmitter accepts every order locally. It is used when no vendor
// is configured so prescriptions can be exercised in development.
type OfflineSubmitter struct {
	logger zerolog.Logger
}

func NewOfflineSubmitter(logger zerolog.Logger) *OfflineSubmitter {
	return &OfflineSubmitter{logger: logger}
}

func (s *OfflineSubmitter) Submit(_ context.Context, o *Order) (*SubmitResult, error) {
	ref := "offline-" + uuid.NewString()
	s.logger.Warn().
		Str("order_id", o.ID.String()).
		Str("reference", ref).
		Msg("erx vendor not configured, prescription accepted offline")
	return &SubmitResult{Success: true, Reference: ref}, nil
}
