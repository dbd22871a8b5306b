package socialwork

import (
	"context"
	"time"
)

type Repository interface {
	OpenCaseCounts(ctx context.Context) (map[string]int, error)
	RecentOpenCases(ctx context.Context, limit int) ([]*Case, error)
	PendingAssessments(ctx context.Context, limit int) ([]*Assessment, error)
	FollowupsBetween(ctx context.Context, from, to time.Time, limit int) ([]*Followup, error)
}
