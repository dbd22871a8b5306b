package referral

import (
	"context"
	"math"
	"strings"

	"github.com/google/uuid"

	"github.com/clinicops/practice/internal/platform/apperr"
	"github.com/clinicops/practice/internal/platform/auth"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// ValidateStatus fails with referral.invalid_status for unknown statuses.
func ValidateStatus(status string) error {
	if !validStatuses[status] {
		return apperr.BadRequest("referral.invalid_status").With("allowed", strings.Join(Statuses, ", "))
	}
	return nil
}

// UpdateStatus moves a referral to a new status. Referrals in a terminal
// status cannot change.
func (s *Service) UpdateStatus(ctx context.Context, id uuid.UUID, status, note string) (*Referral, error) {
	if err := ValidateStatus(status); err != nil {
		return nil, err
	}

	ref, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if ref == nil {
		return nil, apperr.NotFound("referral.not_found")
	}
	if IsTerminal(ref.Status) {
		return nil, apperr.Conflict("referral.terminal_status").With("status", ref.Status)
	}

	from := ref.Status
	ref.Status = status
	ref.StatusNote = note
	ref.UpdatedBy = auth.UserIDFromContext(ctx)
	ok, err := s.repo.UpdateStatus(ctx, ref, from)
	if err != nil {
		return nil, err
	}
	if !ok {
		// Changed concurrently; report against the stored state.
		current, err := s.repo.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if current == nil {
			return nil, apperr.NotFound("referral.not_found")
		}
		if IsTerminal(current.Status) {
			return nil, apperr.Conflict("referral.terminal_status").With("status", current.Status)
		}
		return nil, apperr.Conflict("referral.stale_status").With("status", current.Status)
	}
	return ref, nil
}

// Stats counts referrals by status. Every known status is present.
func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	counts, err := s.repo.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}
	st := &Stats{ByStatus: make(map[string]int, len(Statuses))}
	for _, status := range Statuses {
		st.ByStatus[status] = 0
	}
	for status, n := range counts {
		st.ByStatus[status] = n
		st.Total += n
	}
	if st.Total > 0 {
		share := float64(st.ByStatus[StatusCompleted]) / float64(st.Total)
		st.CompletedShare = math.Round(share*1000) / 1000
	}
	return st, nil
}
