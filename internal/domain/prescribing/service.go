package prescribing

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/clinicops/practice/internal/platform/apperr"
	"github.com/clinicops/practice/internal/platform/auth"
)

type Service struct {
	repo      Repository
	submitter Submitter
	logger    zerolog.Logger
	now       func() time.Time
}

func NewService(repo Repository, submitter Submitter, logger zerolog.Logger) *Service {
	return &Service{repo: repo, submitter: submitter, logger: logger, now: time.Now}
}

// Prescribe persists the order as pending and submits it. The order is
// marked submitted or failed according to the vendor's answer.
func (s *Service) Prescribe(ctx context.Context, req PrescribeRequest) (*Order, error) {
	patientID, err := uuid.Parse(req.PatientID)
	if err != nil {
		return nil, apperr.BadRequest("validation.invalid_id").With("field", "patient_id")
	}

	o := &Order{
		ID:           uuid.New(),
		PatientID:    patientID,
		PrescriberID: auth.UserIDFromContext(ctx),
		Medication:   strings.TrimSpace(req.Medication),
		Dosage:       strings.TrimSpace(req.Dosage),
		Frequency:    strings.TrimSpace(req.Frequency),
		Refills:      req.Refills,
		PharmacyID:   req.PharmacyID,
		Notes:        req.Notes,
		Status:       StatusPending,
	}
	if req.Quantity > 0 {
		q := req.Quantity
		o.Quantity = &q
	}
	if err := s.repo.Create(ctx, o); err != nil {
		return nil, err
	}

	result, err := s.submitter.Submit(ctx, o)
	if err != nil {
		s.fail(ctx, o, err.Error())
		return nil, apperr.Upstream("eprescribe.submit_failed", err)
	}
	if !result.Success {
		if len(result.ValidationErrors) > 0 {
			reason := rejectionReason(result)
			s.fail(ctx, o, reason)
			return nil, apperr.UpstreamRejected("eprescribe.rejected", nil).With("reason", reason)
		}
		s.fail(ctx, o, result.Message)
		return nil, apperr.Upstream("eprescribe.submit_failed", nil)
	}

	submitted := s.now().UTC()
	o.Status = StatusSubmitted
	o.VendorReference = result.Reference
	o.SubmittedAt = &submitted
	if err := s.repo.UpdateStatus(ctx, o); err != nil {
		return nil, err
	}
	return o, nil
}

func (s *Service) fail(ctx context.Context, o *Order, reason string) {
	o.Status = StatusFailed
	o.FailureReason = reason
	if err := s.repo.UpdateStatus(ctx, o); err != nil {
		s.logger.Error().Err(err).Str("order_id", o.ID.String()).Msg("failed to mark prescription failed")
	}
	s.logger.Warn().
		Str("order_id", o.ID.String()).
		Str("reason", reason).
		Msg("prescription submission failed")
}

func rejectionReason(r *SubmitResult) string {
	parts := make([]string, 0, len(r.ValidationErrors))
	for _, ve := range r.ValidationErrors {
		if ve.Field != "" {
			parts = append(parts, ve.Field+": "+ve.Message)
		} else {
			parts = append(parts, ve.Message)
		}
	}
	return strings.Join(parts, "; ")
}
