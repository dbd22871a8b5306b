package socialwork

import (
	"context"
	"time"
)

const (
	listLimit      = 20
	followupWindow = 7 * 24 * time.Hour
)

type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// Dashboard collects open cases by priority, pending assessments and the
// follow-ups due within the next week.
func (s *Service) Dashboard(ctx context.Context) (*Dashboard, error) {
	now := s.now().UTC()

	counts, err := s.repo.OpenCaseCounts(ctx)
	if err != nil {
		return nil, err
	}
	cases, err := s.repo.RecentOpenCases(ctx, listLimit)
	if err != nil {
		return nil, err
	}
	assessments, err := s.repo.PendingAssessments(ctx, listLimit)
	if err != nil {
		return nil, err
	}
	followups, err := s.repo.FollowupsBetween(ctx, now, now.Add(followupWindow), listLimit)
	if err != nil {
		return nil, err
	}

	d := &Dashboard{
		OpenCasesByPriority: make(map[string]int, len(Priorities)),
		RecentCases:         cases,
		PendingAssessments:  assessments,
		UpcomingFollowups:   followups,
		GeneratedAt:         now,
	}
	for _, p := range Priorities {
		d.OpenCasesByPriority[p] = 0
	}
	for p, n := range counts {
		d.OpenCasesByPriority[p] = n
		d.OpenCasesTotal += n
	}
	for _, a := range d.PendingAssessments {
		a.Overdue = a.DueAt != nil && a.DueAt.Before(now)
	}
	if d.RecentCases == nil {
		d.RecentCases = []*Case{}
	}
	if d.PendingAssessments == nil {
		d.PendingAssessments = []*Assessment{}
	}
	if d.UpcomingFollowups == nil {
		d.UpcomingFollowups = []*Followup{}
	}
	return d, nil
}
