package billing

import (
	"net/http"
	"testing"

	"github.com/google/uuid"

	"github.com/clinicops/practice/internal/platform/api/apitest"
	"github.com/clinicops/practice/internal/platform/auth"
)

func setupHandler(t *testing.T, repo *mockRepo) *Handler {
	t.Helper()
	return NewHandler(NewService(repo), apitest.Gate())
}

func TestHandler_ListDenials(t *testing.T) {
	repo := &mockRepo{claims: []*Claim{{ID: uuid.New(), ClaimNumber: "CLM-1", Status: ClaimDenied}}}
	e := apitest.NewEcho(t, apitest.Caller(auth.RoleBilling))
	setupHandler(t, repo).RegisterRoutes(e.Group(""))

	rec := apitest.Do(e, http.MethodGet, "/billing/denials?payer=Acme&limit=10", "")
	apitest.ExpectStatus(t, rec, http.StatusOK)

	var body struct {
		Claims []Claim `json:"claims"`
	}
	apitest.Decode(t, rec, &body)
	if len(body.Claims) != 1 || body.Claims[0].ClaimNumber != "CLM-1" {
		t.Errorf("unexpected claims: %+v", body.Claims)
	}
	if repo.lastFilter.Payer != "Acme" || repo.lastFilter.Limit != 10 {
		t.Errorf("query not forwarded: %+v", repo.lastFilter)
	}
}

func TestHandler_ListDenials_Forbidden(t *testing.T) {
	repo := &mockRepo{}
	e := apitest.NewEcho(t, apitest.Caller(auth.RoleNurse))
	setupHandler(t, repo).RegisterRoutes(e.Group(""))

	rec := apitest.Do(e, http.MethodGet, "/billing/denials", "")
	apitest.ExpectStatus(t, rec, http.StatusForbidden)
	if repo.calls != 0 {
		t.Errorf("repository must not be reached, got %d calls", repo.calls)
	}
}

func TestHandler_ListDenials_Unauthenticated(t *testing.T) {
	repo := &mockRepo{}
	e := apitest.NewEcho(t, nil)
	setupHandler(t, repo).RegisterRoutes(e.Group(""))

	rec := apitest.Do(e, http.MethodGet, "/billing/denials", "")
	apitest.ExpectStatus(t, rec, http.StatusUnauthorized)
	if repo.calls != 0 {
		t.Errorf("repository must not be reached, got %d calls", repo.calls)
	}
}

func TestHandler_ListDenials_InvalidStatus(t *testing.T) {
	repo := &mockRepo{}
	e := apitest.NewEcho(t, apitest.Caller(auth.RoleBilling))
	setupHandler(t, repo).RegisterRoutes(e.Group(""))

	rec := apitest.Do(e, http.MethodGet, "/billing/denials?status=paid", "")
	apitest.ExpectStatus(t, rec, http.StatusBadRequest)
	if repo.calls != 0 {
		t.Errorf("repository must not be reached, got %d calls", repo.calls)
	}
}

func TestHandler_ListERAEvents(t *testing.T) {
	repo := &mockRepo{events: []*ERAEvent{{ID: uuid.New(), PayerName: "Acme"}}}
	e := apitest.NewEcho(t, apitest.Caller(auth.RoleAdmin))
	setupHandler(t, repo).RegisterRoutes(e.Group(""))

	rec := apitest.Do(e, http.MethodGet, "/billing/era-events", "")
	apitest.ExpectStatus(t, rec, http.StatusOK)
	var body struct {
		Events []ERAEvent `json:"events"`
	}
	apitest.Decode(t, rec, &body)
	if len(body.Events) != 1 {
		t.Errorf("expected 1 event, got %d", len(body.Events))
	}

	rec = apitest.Do(e, http.MethodGet, "/billing/era-events?claim_id=nope", "")
	apitest.ExpectStatus(t, rec, http.StatusBadRequest)
}

func TestHandler_GetsAreRepeatable(t *testing.T) {
	repo := &mockRepo{
		claims: []*Claim{
			{ID: uuid.New(), ClaimNumber: "CLM-1", Status: ClaimDenied, PayerName: "Acme"},
			{ID: uuid.New(), ClaimNumber: "CLM-2", Status: ClaimAppealed, PayerName: "Acme"},
		},
		events: []*ERAEvent{{ID: uuid.New(), PayerName: "Acme"}},
	}
	e := apitest.NewEcho(t, apitest.Caller(auth.RoleBilling))
	setupHandler(t, repo).RegisterRoutes(e.Group(""))

	for _, path := range []string{"/billing/denials?payer=Acme", "/billing/era-events"} {
		first := apitest.Do(e, http.MethodGet, path, "")
		apitest.ExpectStatus(t, first, http.StatusOK)
		second := apitest.Do(e, http.MethodGet, path, "")
		apitest.ExpectStatus(t, second, http.StatusOK)
		if first.Body.String() != second.Body.String() {
			t.Errorf("%s: responses differ:\n%s\n%s", path, first.Body.String(), second.Body.String())
		}
	}
	if repo.claims[0].Status != ClaimDenied || repo.claims[1].Status != ClaimAppealed || len(repo.events) != 1 {
		t.Error("reads must not change stored claims or events")
	}
}
