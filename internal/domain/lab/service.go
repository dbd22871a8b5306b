package lab

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/clinicops/practice/internal/platform/apperr"
	"github.com/clinicops/practice/internal/platform/auth"
)

// Order and draw statuses set at scheduling time.
const (
	OrderScheduled = "scheduled"
	DrawScheduled  = "scheduled"
)

type Service struct {
	repo   Repository
	logger zerolog.Logger
}

func NewService(repo Repository, logger zerolog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// Schedule creates a lab order for the patient with one draw per protocol
// step, dated start_date plus the step's day offset.
func (s *Service) Schedule(ctx context.Context, req ScheduleRequest) (*Order, error) {
	start, err := time.Parse(DateLayout, req.StartDate)
	if err != nil {
		return nil, apperr.BadRequest("lab.invalid_start_date")
	}
	patientID, err := uuid.Parse(req.PatientID)
	if err != nil {
		return nil, apperr.BadRequest("validation.invalid_id").With("field", "patient_id")
	}
	protocolID, err := uuid.Parse(req.ProtocolID)
	if err != nil {
		return nil, apperr.BadRequest("validation.invalid_id").With("field", "protocol_id")
	}

	protocol, err := s.repo.GetProtocol(ctx, protocolID)
	if err != nil {
		return nil, err
	}
	if protocol == nil {
		return nil, apperr.NotFound("lab.protocol_not_found")
	}

	o := &Order{
		ID:         uuid.New(),
		PatientID:  patientID,
		ProtocolID: protocol.ID,
		Protocol:   protocol.Name,
		OrderedBy:  auth.UserIDFromContext(ctx),
		StartDate:  start.Format(DateLayout),
		Status:     OrderScheduled,
		Draws:      BuildDraws(start, protocol.Steps),
	}
	if err := s.repo.CreateOrder(ctx, o); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("order_id", o.ID.String()).
		Str("protocol_id", protocol.ID.String()).
		Int("draws", len(o.Draws)).
		Msg("lab protocol scheduled")
	return o, nil
}

// BuildDraws expands protocol steps into dated draws.
func BuildDraws(start time.Time, steps []Step) []Draw {
	draws := make([]Draw, 0, len(steps))
	for _, st := range steps {
		draws = append(draws, Draw{
			ID:          uuid.New(),
			Sequence:    st.Sequence,
			TestCode:    st.TestCode,
			TestName:    st.TestName,
			ScheduledOn: start.AddDate(0, 0, st.DayOffset).Format(DateLayout),
			Status:      DrawScheduled,
		})
	}
	return draws
}
