package billing

import (
	"context"

	"github.com/google/uuid"

	"github.com/clinicops/practice/pkg/pagination"
)

var (
	denialWindow = pagination.Window{Default: 50, Max: 200}
	eraWindow    = pagination.Window{Default: 50, Max: 200}
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Denials lists denied (or appealed) claims, newest first.
func (s *Service) Denials(ctx context.Context, q DenialQuery) ([]*Claim, error) {
	status := q.Status
	if status == "" {
		status = ClaimDenied
	}
	p := pagination.New(q.Limit, q.Offset, denialWindow)
	claims, err := s.repo.ListClaimsByStatus(ctx, DenialFilter{Status: status, Payer: q.Payer, Limit: p.Limit, Offset: p.Offset})
	if err != nil {
		return nil, err
	}
	if claims == nil {
		claims = []*Claim{}
	}
	return claims, nil
}

// ERAEvents lists remittance events, newest first, optionally for one claim.
func (s *Service) ERAEvents(ctx context.Context, q ERAQuery) ([]*ERAEvent, error) {
	var claimID *uuid.UUID
	if q.ClaimID != "" {
		id, err := uuid.Parse(q.ClaimID)
		if err != nil {
			return nil, err
		}
		claimID = &id
	}
	events, err := s.repo.ListERAEvents(ctx, claimID, eraWindow.Clamp(q.Limit))
	if err != nil {
		return nil, err
	}
	if events == nil {
		events = []*ERAEvent{}
	}
	return events, nil
}
