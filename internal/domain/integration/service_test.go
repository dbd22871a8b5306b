package integration

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/clinicops/practice/internal/platform/apperr"
)

type mockRepo struct {
	mu          sync.Mutex
	catalog     []*CatalogEntry
	connections []*Connection
	health      []*HealthEntry
	pending     []*Event
	processed   []uuid.UUID
	failed      map[uuid.UUID]string
	touched     []uuid.UUID
	remittances []Remittance
	catalogErr  error
	claimErr    error
	claimLimit  int
	txCount     int
	calls       int
}

func newMockRepo() *mockRepo {
	return &mockRepo{failed: make(map[uuid.UUID]string)}
}

func (m *mockRepo) count() {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
}

func (m *mockRepo) Catalog(context.Context) ([]*CatalogEntry, error) {
	m.count()
	return m.catalog, m.catalogErr
}

func (m *mockRepo) Connections(context.Context) ([]*Connection, error) {
	m.count()
	return m.connections, nil
}

func (m *mockRepo) Health(context.Context) ([]*HealthEntry, error) {
	m.count()
	return m.health, nil
}

func (m *mockRepo) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	m.count()
	m.txCount++
	return fn(ctx)
}

func (m *mockRepo) Savepoint(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func (m *mockRepo) ClaimPending(_ context.Context, limit int) ([]*Event, error) {
	m.claimLimit = limit
	if m.claimErr != nil {
		return nil, m.claimErr
	}
	if len(m.pending) > limit {
		return m.pending[:limit], nil
	}
	return m.pending, nil
}

func (m *mockRepo) MarkProcessed(_ context.Context, id uuid.UUID) error {
	m.processed = append(m.processed, id)
	return nil
}

func (m *mockRepo) MarkFailed(_ context.Context, id uuid.UUID, reason string) error {
	m.failed[id] = reason
	return nil
}

func (m *mockRepo) TouchConnection(_ context.Context, id uuid.UUID) error {
	m.touched = append(m.touched, id)
	return nil
}

func (m *mockRepo) InsertRemittance(_ context.Context, _ uuid.UUID, r Remittance) error {
	m.remittances = append(m.remittances, r)
	return nil
}

func TestCatalog_FetchesBoth(t *testing.T) {
	repo := newMockRepo()
	repo.catalog = []*CatalogEntry{{Key: "google-calendar", Name: "Google Calendar"}}
	repo.connections = []*Connection{{ID: uuid.New(), IntegrationKey: "google-calendar", Status: "active"}}

	catalog, conns, err := NewService(repo, zerolog.Nop()).Catalog(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(catalog) != 1 || len(conns) != 1 {
		t.Errorf("expected 1 entry and 1 connection, got %d and %d", len(catalog), len(conns))
	}
}

func TestCatalog_EmptyAndError(t *testing.T) {
	repo := newMockRepo()
	catalog, conns, err := NewService(repo, zerolog.Nop()).Catalog(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if catalog == nil || conns == nil {
		t.Error("empty results must be empty slices")
	}

	repo.catalogErr = errors.New("shared schema missing")
	if _, _, err := NewService(repo, zerolog.Nop()).Catalog(context.Background()); err == nil {
		t.Error("expected error")
	}
}

func TestHealth_Flags(t *testing.T) {
	repo := newMockRepo()
	repo.health = []*HealthEntry{
		{IntegrationKey: "a", Status: "active"},
		{IntegrationKey: "b", Status: "active", FailedEvents: 2},
		{IntegrationKey: "c", Status: "paused"},
	}
	entries, err := NewService(repo, zerolog.Nop()).Health(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	want := []bool{true, false, false}
	for i, h := range entries {
		if h.Healthy != want[i] {
			t.Errorf("%s: healthy = %v, want %v", h.IntegrationKey, h.Healthy, want[i])
		}
	}
}

func TestProcessEvents(t *testing.T) {
	repo := newMockRepo()
	connID := uuid.New()
	payload, _ := json.Marshal(Remittance{ClaimNumber: "CLM-1", PayerName: "Acme", PaidAmount: 80})
	heartbeat := &Event{ID: uuid.New(), ConnectionID: &connID, EventType: EventHeartbeat}
	remit := &Event{ID: uuid.New(), EventType: EventRemittance, Payload: payload}
	unknown := &Event{ID: uuid.New(), EventType: "fax.received"}
	broken := &Event{ID: uuid.New(), EventType: EventRemittance, Payload: json.RawMessage(`{"payer_name":`)}
	repo.pending = []*Event{heartbeat, remit, unknown, broken}

	res, err := NewService(repo, zerolog.Nop()).ProcessEvents(context.Background(), ProcessRequest{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.Success || res.Processed != 2 || res.Failed != 2 {
		t.Errorf("unexpected result: %+v", res)
	}
	if repo.claimLimit != 25 {
		t.Errorf("expected default limit 25, got %d", repo.claimLimit)
	}
	if repo.txCount != 1 {
		t.Errorf("expected one transaction, got %d", repo.txCount)
	}
	if len(repo.touched) != 1 || repo.touched[0] != connID {
		t.Errorf("heartbeat did not touch connection: %v", repo.touched)
	}
	if len(repo.remittances) != 1 || repo.remittances[0].ClaimNumber != "CLM-1" {
		t.Errorf("unexpected remittances: %+v", repo.remittances)
	}
	if _, ok := repo.failed[unknown.ID]; !ok {
		t.Error("unknown event type must be marked failed")
	}
	if _, ok := repo.failed[broken.ID]; !ok {
		t.Error("undecodable payload must be marked failed")
	}
}

func TestProcessEvents_LimitClamped(t *testing.T) {
	repo := newMockRepo()
	if _, err := NewService(repo, zerolog.Nop()).ProcessEvents(context.Background(), ProcessRequest{Limit: 1000}); err != nil {
		t.Fatal(err)
	}
	if repo.claimLimit != 100 {
		t.Errorf("expected clamped limit 100, got %d", repo.claimLimit)
	}
}

func TestProcessEvents_ClaimError(t *testing.T) {
	repo := newMockRepo()
	repo.claimErr = errors.New("lock timeout")
	_, err := NewService(repo, zerolog.Nop()).ProcessEvents(context.Background(), ProcessRequest{})
	e, ok := apperr.As(err)
	if !ok || e.MessageKey != "integration.event_processing_failed" || e.Kind != apperr.KindUnexpected {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestRegister_CustomProcessor(t *testing.T) {
	repo := newMockRepo()
	repo.pending = []*Event{{ID: uuid.New(), EventType: "lab.result"}}
	svc := NewService(repo, zerolog.Nop())
	called := 0
	svc.Register("lab.result", func(context.Context, *Event) error {
		called++
		return nil
	})

	res, err := svc.ProcessEvents(context.Background(), ProcessRequest{Limit: 5})
	if err != nil {
		t.Fatal(err)
	}
	if called != 1 || res.Processed != 1 {
		t.Errorf("expected custom processor to run, called=%d result=%+v", called, res)
	}
}
