package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/clinicops/practice/internal/platform/apperr"
	"github.com/clinicops/practice/internal/platform/auth"
	"github.com/clinicops/practice/internal/platform/i18n"
)

type createThing struct {
	Name  string `json:"name" validate:"required"`
	Count int    `json:"count" validate:"gte=0,lte=10"`
}

func newTestEcho(t *testing.T, roles ...string) (*echo.Echo, *auth.Gate) {
	t.Helper()
	catalog, err := i18n.Load("en", "")
	if err != nil {
		t.Fatalf("load catalog: %v", err)
	}
	e := echo.New()
	e.Validator = NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(zerolog.Nop(), catalog)
	if roles != nil {
		e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
			return func(c echo.Context) error {
				ctx := auth.WithCaller(c.Request().Context(), &auth.Caller{UserID: "u1", Roles: roles})
				c.SetRequest(c.Request().WithContext(ctx))
				return next(c)
			}
		})
	}
	return e, auth.NewGate(auth.DefaultPolicy(), zerolog.Nop())
}

func do(e *echo.Echo, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func errorMessage(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body ErrorBody
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode error body %q: %v", rec.Body.String(), err)
	}
	return body.Error
}

func TestHandle_Granted(t *testing.T) {
	e, gate := newTestEcho(t, auth.RolePhysician)
	calls := 0
	e.POST("/things", Handle(gate, auth.CapReferralsWrite, Bind[createThing](""), func(c echo.Context, in createThing) error {
		calls++
		return OK(c, map[string]any{"name": in.Name})
	}))

	rec := do(e, http.MethodPost, "/things", `{"name":"x","count":2}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if calls != 1 {
		t.Errorf("expected delegate called once, got %d", calls)
	}
}

func TestHandle_ValidationRunsBeforeGate(t *testing.T) {
	// billing lacks referrals:write, but the missing field must win.
	e, gate := newTestEcho(t, auth.RoleBilling)
	calls := 0
	e.POST("/things", Handle(gate, auth.CapReferralsWrite, Bind[createThing](""), func(c echo.Context, in createThing) error {
		calls++
		return nil
	}))

	rec := do(e, http.MethodPost, "/things", `{"count":2}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if msg := errorMessage(t, rec); !strings.Contains(msg, "name is required") {
		t.Errorf("expected field message, got %q", msg)
	}
	if calls != 0 {
		t.Errorf("delegate must not run, ran %d times", calls)
	}
}

func TestHandle_Forbidden(t *testing.T) {
	e, gate := newTestEcho(t, auth.RoleBilling)
	calls := 0
	e.POST("/things", Handle(gate, auth.CapReferralsWrite, Bind[createThing](""), func(c echo.Context, in createThing) error {
		calls++
		return nil
	}))

	rec := do(e, http.MethodPost, "/things", `{"name":"x"}`)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
	if msg := errorMessage(t, rec); !strings.Contains(msg, "referrals:write") {
		t.Errorf("expected capability in message, got %q", msg)
	}
	if calls != 0 {
		t.Errorf("delegate must not run, ran %d times", calls)
	}
}

func TestHandle_Unauthenticated(t *testing.T) {
	e, gate := newTestEcho(t)
	calls := 0
	e.GET("/stats", Handle(gate, auth.CapReferralsRead, NoInput, func(c echo.Context, _ Empty) error {
		calls++
		return nil
	}))

	rec := do(e, http.MethodGet, "/stats", "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if calls != 0 {
		t.Errorf("delegate must not run, ran %d times", calls)
	}
}

func TestHandle_NoCapabilityRequiresCaller(t *testing.T) {
	e, gate := newTestEcho(t)
	e.GET("/dashboard", Handle(gate, "", NoInput, func(c echo.Context, _ Empty) error {
		return OK(c, map[string]any{"data": 1})
	}))
	if rec := do(e, http.MethodGet, "/dashboard", ""); rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 without caller, got %d", rec.Code)
	}

	e2, gate2 := newTestEcho(t, "no-such-role")
	e2.GET("/dashboard", Handle(gate2, "", NoInput, func(c echo.Context, _ Empty) error {
		return OK(c, map[string]any{"data": 1})
	}))
	if rec := do(e2, http.MethodGet, "/dashboard", ""); rec.Code != http.StatusOK {
		t.Errorf("expected 200 with any caller, got %d", rec.Code)
	}
}

type checkedThing struct {
	Ref string `json:"ref" validate:"required,notblank"`
}

func (c checkedThing) Check() error {
	if !strings.HasPrefix(c.Ref, "ref-") {
		return apperr.BadRequest("validation.invalid_id").With("field", "ref")
	}
	return nil
}

func TestHandle_CheckRunsBeforeGate(t *testing.T) {
	e, gate := newTestEcho(t, auth.RoleBilling)
	calls := 0
	e.POST("/things", Handle(gate, auth.CapReferralsWrite, Bind[checkedThing](""), func(c echo.Context, in checkedThing) error {
		calls++
		return nil
	}))

	rec := do(e, http.MethodPost, "/things", `{"ref":"x-1"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if msg := errorMessage(t, rec); msg != "The ref parameter is not a valid identifier." {
		t.Errorf("unexpected message %q", msg)
	}

	rec = do(e, http.MethodPost, "/things", `{"ref":"  "}`)
	if msg := errorMessage(t, rec); !strings.Contains(msg, "ref must not be blank") {
		t.Errorf("expected blank message, got %q", msg)
	}

	if rec := do(e, http.MethodPost, "/things", `{"ref":"ref-1"}`); rec.Code != http.StatusForbidden {
		t.Errorf("valid input must reach the gate, got %d", rec.Code)
	}
	if calls != 0 {
		t.Errorf("delegate must not run, ran %d times", calls)
	}
}

func TestHandle_FailKeyOverridesDetails(t *testing.T) {
	e, gate := newTestEcho(t, auth.RoleAdmin)
	e.POST("/things", Handle(gate, "", Bind[createThing]("eprescribe.missing_fields"), func(c echo.Context, in createThing) error {
		return nil
	}))

	rec := do(e, http.MethodPost, "/things", `{}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if msg := errorMessage(t, rec); msg != "patient_id, medication, dosage and frequency are required." {
		t.Errorf("unexpected message %q", msg)
	}
}

func TestHandle_MalformedJSON(t *testing.T) {
	e, gate := newTestEcho(t, auth.RoleAdmin)
	e.POST("/things", Handle(gate, "", Bind[createThing](""), func(c echo.Context, in createThing) error {
		return nil
	}))
	rec := do(e, http.MethodPost, "/things", `{"name":`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if msg := errorMessage(t, rec); msg != "The request body could not be read." {
		t.Errorf("unexpected message %q", msg)
	}
}

func TestErrorHandler_Kinds(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code int
		msg  string
	}{
		{"upstream", apperr.Upstream("eprescribe.submit_failed", errors.New("vendor down")), http.StatusBadGateway,
			"The prescription could not be submitted to the e-prescribing network."},
		{"rejected", apperr.UpstreamRejected("eprescribe.rejected", nil).With("reason", "bad NDC"), http.StatusUnprocessableEntity,
			"The prescription was rejected by the e-prescribing network: bad NDC"},
		{"unexpected", errors.New("db exploded"), http.StatusInternalServerError,
			"An unexpected error occurred. Please try again later."},
		{"not found", apperr.NotFound("referral.not_found"), http.StatusNotFound, "The referral was not found."},
		{"echo", echo.NewHTTPError(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed,
			"This method is not allowed for the requested resource."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, _ := newTestEcho(t)
			e.GET("/x", func(c echo.Context) error { return tt.err })
			rec := do(e, http.MethodGet, "/x", "")
			if rec.Code != tt.code {
				t.Fatalf("expected %d, got %d", tt.code, rec.Code)
			}
			if msg := errorMessage(t, rec); msg != tt.msg {
				t.Errorf("expected %q, got %q", tt.msg, msg)
			}
			if strings.Contains(rec.Body.String(), "exploded") || strings.Contains(rec.Body.String(), "vendor down") {
				t.Error("cause leaked to client")
			}
		})
	}
}

func TestErrorHandler_Turkish(t *testing.T) {
	catalog, err := i18n.Load("tr", "")
	if err != nil {
		t.Fatal(err)
	}
	e := echo.New()
	e.HTTPErrorHandler = NewHTTPErrorHandler(zerolog.Nop(), catalog)
	e.GET("/x", func(c echo.Context) error { return errors.New("boom") })

	rec := do(e, http.MethodGet, "/x", "")
	if msg := errorMessage(t, rec); msg != "Beklenmeyen bir hata oluştu. Lütfen daha sonra tekrar deneyin." {
		t.Errorf("expected Turkish default, got %q", msg)
	}

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Accept-Language", "en-GB,en;q=0.8")
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if msg := errorMessage(t, rec); msg != "An unexpected error occurred. Please try again later." {
		t.Errorf("expected English by negotiation, got %q", msg)
	}
}

func TestUUIDParam(t *testing.T) {
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	c.SetParamNames("id")
	c.SetParamValues("not-a-uuid")
	if _, err := UUIDParam(c, "id"); !apperr.Is(err, apperr.KindBadRequest) {
		t.Errorf("expected bad request, got %v", err)
	}

	c.SetParamValues("6f1c1a4e-1d7b-4a0e-9d8e-2b1f3c4d5e6f")
	id, err := UUIDParam(c, "id")
	if err != nil || id.String() != "6f1c1a4e-1d7b-4a0e-9d8e-2b1f3c4d5e6f" {
		t.Errorf("unexpected result %v %v", id, err)
	}
}
