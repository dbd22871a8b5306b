package referral

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/clinicops/practice/internal/platform/apperr"
	"github.com/clinicops/practice/internal/platform/auth"
)

type mockRepo struct {
	referrals map[uuid.UUID]*Referral
	counts    map[string]int
	// raceTo simulates a concurrent change to this status before UpdateStatus.
	raceTo string
	calls  int
	writes int
}

func newMockRepo() *mockRepo {
	return &mockRepo{referrals: make(map[uuid.UUID]*Referral)}
}

func (m *mockRepo) add(status string) *Referral {
	r := &Referral{ID: uuid.New(), PatientID: uuid.New(), ReferredTo: "Cardiology", Status: status, CreatedAt: time.Now()}
	m.referrals[r.ID] = r
	return r
}

func (m *mockRepo) GetByID(_ context.Context, id uuid.UUID) (*Referral, error) {
	m.calls++
	r, ok := m.referrals[id]
	if !ok {
		return nil, nil
	}
	cp := *r
	return &cp, nil
}

func (m *mockRepo) UpdateStatus(_ context.Context, r *Referral, from string) (bool, error) {
	m.calls++
	stored := m.referrals[r.ID]
	if m.raceTo != "" {
		stored.Status = m.raceTo
	}
	if stored.Status != from {
		return false, nil
	}
	cp := *r
	cp.UpdatedAt = time.Now()
	m.referrals[r.ID] = &cp
	m.writes++
	return true, nil
}

func (m *mockRepo) CountByStatus(context.Context) (map[string]int, error) {
	m.calls++
	return m.counts, nil
}

func TestUpdateStatus(t *testing.T) {
	repo := newMockRepo()
	r := repo.add(StatusSent)
	ctx := auth.WithCaller(context.Background(), &auth.Caller{UserID: "fd-2"})

	got, err := NewService(repo).UpdateStatus(ctx, r.ID, StatusAccepted, "called patient")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Status != StatusAccepted || got.StatusNote != "called patient" || got.UpdatedBy != "fd-2" {
		t.Errorf("unexpected referral: %+v", got)
	}
	if repo.referrals[r.ID].Status != StatusAccepted {
		t.Error("status not persisted")
	}
}

func TestUpdateStatus_Failures(t *testing.T) {
	repo := newMockRepo()
	done := repo.add(StatusCompleted)
	open := repo.add(StatusPending)

	tests := []struct {
		name   string
		id     uuid.UUID
		status string
		kind   apperr.Kind
	}{
		{"invalid status", open.ID, "archived", apperr.KindBadRequest},
		{"missing", uuid.New(), StatusSent, apperr.KindNotFound},
		{"terminal", done.ID, StatusPending, apperr.KindConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewService(repo).UpdateStatus(context.Background(), tt.id, tt.status, "")
			if !apperr.Is(err, tt.kind) {
				t.Errorf("expected %s, got %v", tt.kind, err)
			}
		})
	}
	if repo.referrals[done.ID].Status != StatusCompleted {
		t.Error("terminal referral must not change")
	}
}

func TestUpdateStatus_ConcurrentTerminal(t *testing.T) {
	repo := newMockRepo()
	r := repo.add(StatusScheduled)
	repo.raceTo = StatusCancelled

	_, err := NewService(repo).UpdateStatus(context.Background(), r.ID, StatusCompleted, "")
	e, ok := apperr.As(err)
	if !ok || e.Kind != apperr.KindConflict || e.Args["status"] != StatusCancelled {
		t.Errorf("expected conflict naming cancelled, got %v", err)
	}
	if e.MessageKey != "referral.terminal_status" {
		t.Errorf("expected terminal status message, got %q", e.MessageKey)
	}
}

func TestUpdateStatus_ConcurrentNonTerminal(t *testing.T) {
	repo := newMockRepo()
	r := repo.add(StatusSent)
	repo.raceTo = StatusAccepted

	_, err := NewService(repo).UpdateStatus(context.Background(), r.ID, StatusScheduled, "")
	e, ok := apperr.As(err)
	if !ok || e.Kind != apperr.KindConflict {
		t.Fatalf("expected conflict, got %v", err)
	}
	if e.MessageKey != "referral.stale_status" || e.Args["status"] != StatusAccepted {
		t.Errorf("expected stale status naming accepted, got %s %v", e.MessageKey, e.Args)
	}
	if repo.referrals[r.ID].Status != StatusAccepted {
		t.Errorf("concurrent status must be kept, got %s", repo.referrals[r.ID].Status)
	}
}

func TestStats(t *testing.T) {
	repo := newMockRepo()
	repo.counts = map[string]int{StatusPending: 3, StatusCompleted: 1, StatusCancelled: 2}

	st, err := NewService(repo).Stats(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if st.Total != 6 {
		t.Errorf("expected total 6, got %d", st.Total)
	}
	if st.CompletedShare != 0.167 {
		t.Errorf("expected share 0.167, got %v", st.CompletedShare)
	}
	if n, ok := st.ByStatus[StatusSent]; !ok || n != 0 {
		t.Errorf("every status must be present, sent=%d ok=%v", n, ok)
	}
}

func TestStats_Empty(t *testing.T) {
	st, err := NewService(newMockRepo()).Stats(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if st.Total != 0 || st.CompletedShare != 0 || len(st.ByStatus) != len(Statuses) {
		t.Errorf("unexpected stats: %+v", st)
	}
}

func TestIsTerminal(t *testing.T) {
	for _, s := range Statuses {
		want := s == StatusCompleted || s == StatusRejected || s == StatusCancelled
		if IsTerminal(s) != want {
			t.Errorf("IsTerminal(%s) = %v, want %v", s, !want, want)
		}
	}
}
