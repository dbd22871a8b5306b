package socialwork

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clinicops/practice/internal/platform/db"
)

type repoPG struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

func (r *repoPG) OpenCaseCounts(ctx context.Context) (map[string]int, error) {
	rows, err := db.Conn(ctx, r.pool).Query(ctx, `
		SELECT priority, COUNT(*) FROM social_work_cases WHERE status = 'open' GROUP BY priority`)
	if err != nil {
		return nil, fmt.Errorf("count open cases: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var priority string
		var n int
		if err := rows.Scan(&priority, &n); err != nil {
			return nil, fmt.Errorf("scan case count: %w", err)
		}
		counts[priority] = n
	}
	return counts, rows.Err()
}

func (r *repoPG) RecentOpenCases(ctx context.Context, limit int) ([]*Case, error) {
	rows, err := db.Conn(ctx, r.pool).Query(ctx, `
		SELECT c.id, c.patient_id, COALESCE(p.full_name, ''), c.priority, c.category,
			COALESCE(c.assigned_to, ''), c.opened_at
		FROM social_work_cases c
		LEFT JOIN patients p ON p.id = c.patient_id
		WHERE c.status = 'open'
		ORDER BY CASE c.priority WHEN 'urgent' THEN 0 WHEN 'high' THEN 1 WHEN 'medium' THEN 2 ELSE 3 END,
			c.opened_at DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("query open cases: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (*Case, error) {
		var c Case
		err := row.Scan(&c.ID, &c.PatientID, &c.PatientName, &c.Priority, &c.Category, &c.AssignedTo, &c.OpenedAt)
		return &c, err
	})
}

func (r *repoPG) PendingAssessments(ctx context.Context, limit int) ([]*Assessment, error) {
	rows, err := db.Conn(ctx, r.pool).Query(ctx, `
		SELECT a.id, a.case_id, COALESCE(p.full_name, ''), a.kind, a.due_at
		FROM social_work_assessments a
		JOIN social_work_cases c ON c.id = a.case_id
		LEFT JOIN patients p ON p.id = c.patient_id
		WHERE a.completed_at IS NULL
		ORDER BY a.due_at NULLS LAST
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("query pending assessments: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (*Assessment, error) {
		var a Assessment
		err := row.Scan(&a.ID, &a.CaseID, &a.PatientName, &a.Kind, &a.DueAt)
		return &a, err
	})
}

func (r *repoPG) FollowupsBetween(ctx context.Context, from, to time.Time, limit int) ([]*Followup, error) {
	rows, err := db.Conn(ctx, r.pool).Query(ctx, `
		SELECT f.id, f.case_id, COALESCE(p.full_name, ''), f.scheduled_at, f.method, COALESCE(f.notes, '')
		FROM social_work_followups f
		JOIN social_work_cases c ON c.id = f.case_id
		LEFT JOIN patients p ON p.id = c.patient_id
		WHERE f.completed_at IS NULL AND f.scheduled_at >= $1 AND f.scheduled_at < $2
		ORDER BY f.scheduled_at
		LIMIT $3`, from, to, limit)
	if err != nil {
		return nil, fmt.Errorf("query followups: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (*Followup, error) {
		var f Followup
		err := row.Scan(&f.ID, &f.CaseID, &f.PatientName, &f.ScheduledAt, &f.Method, &f.Notes)
		return &f, err
	})
}
