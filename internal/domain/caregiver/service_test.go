package caregiver

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/clinicops/practice/internal/platform/apperr"
	"github.com/clinicops/practice/internal/platform/auth"
)

type link struct{ caregiver, patient uuid.UUID }

type mockRepo struct {
	links  map[link]bool
	meds   []*Medication
	tokens []*AccessToken
	active int64
	err    error
	calls  int
}

func newMockRepo() *mockRepo {
	return &mockRepo{links: make(map[link]bool)}
}

func (m *mockRepo) IsLinked(_ context.Context, caregiverID, patientID uuid.UUID) (bool, error) {
	m.calls++
	if m.err != nil {
		return false, m.err
	}
	return m.links[link{caregiverID, patientID}], nil
}

func (m *mockRepo) GetPatient(_ context.Context, _, patientID uuid.UUID) (*PatientInfo, error) {
	m.calls++
	return &PatientInfo{ID: patientID, FullName: "Ayşe Yılmaz"}, nil
}

func (m *mockRepo) ActiveMedications(context.Context, uuid.UUID) ([]*Medication, error) {
	m.calls++
	return m.meds, nil
}

func (m *mockRepo) Allergies(context.Context, uuid.UUID) ([]*Allergy, error) {
	m.calls++
	return nil, nil
}

func (m *mockRepo) UpcomingAppointments(context.Context, uuid.UUID, int) ([]*Appointment, error) {
	m.calls++
	return nil, nil
}

func (m *mockRepo) RotateToken(_ context.Context, t *AccessToken) (int64, error) {
	m.calls++
	if m.err != nil {
		return 0, m.err
	}
	revoked := m.active
	m.active = 1
	m.tokens = append(m.tokens, t)
	return revoked, nil
}

func newTestService(repo Repository) *Service {
	svc := NewService(repo, zerolog.Nop())
	svc.now = func() time.Time { return time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC) }
	return svc
}

func TestSummary_Linked(t *testing.T) {
	repo := newMockRepo()
	cg, pt := uuid.New(), uuid.New()
	repo.links[link{cg, pt}] = true
	repo.meds = []*Medication{{ID: uuid.New(), Name: "Metformin"}}

	summary, err := newTestService(repo).Summary(context.Background(), SummaryRequest{CaregiverID: cg, PatientID: pt})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if summary.Patient.ID != pt {
		t.Errorf("expected patient %s, got %s", pt, summary.Patient.ID)
	}
	if len(summary.Medications) != 1 {
		t.Errorf("expected 1 medication, got %d", len(summary.Medications))
	}
	if summary.Allergies == nil || summary.UpcomingAppointments == nil {
		t.Error("empty sections must be empty slices")
	}
}

func TestSummary_NotLinked(t *testing.T) {
	repo := newMockRepo()
	_, err := newTestService(repo).Summary(context.Background(), SummaryRequest{CaregiverID: uuid.New(), PatientID: uuid.New()})
	if !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if repo.calls != 1 {
		t.Errorf("only the link check may run, got %d calls", repo.calls)
	}
}

func TestSummary_RepoError(t *testing.T) {
	repo := newMockRepo()
	repo.err = errors.New("db down")
	_, err := newTestService(repo).Summary(context.Background(), SummaryRequest{CaregiverID: uuid.New(), PatientID: uuid.New()})
	if err == nil || apperr.Is(err, apperr.KindNotFound) {
		t.Errorf("expected raw repository error, got %v", err)
	}
}

func TestRotateToken_HashOnlyPersisted(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(repo)
	svc.random = bytes.NewReader(bytes.Repeat([]byte{0xAB}, 32))
	ctx := auth.WithCaller(context.Background(), &auth.Caller{UserID: "nurse-7"})
	cg, pt := uuid.New(), uuid.New()
	repo.links[link{cg, pt}] = true

	res, err := svc.RotateToken(ctx, RotateRequest{CaregiverID: cg.String(), PatientID: pt.String()})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.Success || res.Token == "" {
		t.Fatalf("unexpected result: %+v", res)
	}
	if len(res.Token) != 43 {
		t.Errorf("expected 43-char base64url token, got %d", len(res.Token))
	}
	if want := svc.now().UTC().Add(DefaultTokenTTL); !res.ExpiresAt.Equal(want) {
		t.Errorf("expected expiry %v, got %v", want, res.ExpiresAt)
	}

	stored := repo.tokens[0]
	if stored.TokenHash == res.Token {
		t.Error("plaintext token must not be stored")
	}
	if stored.TokenHash != HashToken(res.Token) {
		t.Error("stored hash does not match token")
	}
	if stored.IssuedBy != "nurse-7" {
		t.Errorf("expected issuer nurse-7, got %q", stored.IssuedBy)
	}
}

func TestRotateToken_RevokesPrevious(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(repo)
	cg, pt := uuid.New(), uuid.New()
	repo.links[link{cg, pt}] = true
	req := RotateRequest{CaregiverID: cg.String(), PatientID: pt.String(), TTLHours: 24}

	first, err := svc.RotateToken(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	second, err := svc.RotateToken(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	if first.RevokedCount != 0 || second.RevokedCount != 1 {
		t.Errorf("unexpected revoked counts %d, %d", first.RevokedCount, second.RevokedCount)
	}
	if first.Token == second.Token {
		t.Error("tokens must differ across rotations")
	}
	if want := svc.now().UTC().Add(24 * time.Hour); !second.ExpiresAt.Equal(want) {
		t.Errorf("expected expiry %v, got %v", want, second.ExpiresAt)
	}
}

func TestRotateToken_NotLinked(t *testing.T) {
	repo := newMockRepo()
	cg := uuid.New()
	repo.links[link{cg, uuid.New()}] = true

	res, err := newTestService(repo).RotateToken(context.Background(), RotateRequest{CaregiverID: cg.String(), PatientID: uuid.NewString()})
	if !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if res != nil {
		t.Errorf("expected no result, got %+v", res)
	}
	if len(repo.tokens) != 0 {
		t.Errorf("no token may be issued, got %d", len(repo.tokens))
	}
}

func TestHashToken(t *testing.T) {
	// sha256("abc")
	const want = "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"
	if got := HashToken("abc"); got != want {
		t.Errorf("HashToken = %s, want %s", got, want)
	}
}
