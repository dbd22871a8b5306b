package telehealth

import (
	"github.com/labstack/echo/v4"

	"github.com/clinicops/practice/internal/platform/api"
	"github.com/clinicops/practice/internal/platform/audit"
	"github.com/clinicops/practice/internal/platform/auth"
)

// ActionLinkCreate is the audit action of a created link.
const ActionLinkCreate = "telehealth.link.create"

type Handler struct {
	svc   *Service
	gate  *auth.Gate
	audit *audit.Recorder
}

func NewHandler(svc *Service, gate *auth.Gate, recorder *audit.Recorder) *Handler {
	return &Handler{svc: svc, gate: gate, audit: recorder}
}

func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.POST("/telehealth/links", api.Handle(h.gate, auth.CapTelehealthLinkCreate, parseCreateLink, h.CreateLink))
}

var bindCreateLink = api.Bind[CreateLinkRequest]("")

func parseCreateLink(c echo.Context) (CreateLinkRequest, error) {
	req, err := bindCreateLink(c)
	if err != nil {
		return req, err
	}
	return req, ValidateRequest(req)
}

func (h *Handler) CreateLink(c echo.Context, req CreateLinkRequest) error {
	link, err := h.svc.CreateLink(c.Request().Context(), req)
	if err != nil {
		return err
	}

	details := map[string]any{"provider": link.Provider, "expires_at": link.ExpiresAt}
	if link.AppointmentID != nil {
		details["appointment_id"] = link.AppointmentID.String()
	}
	if req.NotifyEmail != "" {
		details["notified"] = true
	}
	h.audit.RecordRequest(c, audit.Event{
		Action:       ActionLinkCreate,
		ResourceType: "telehealth_link",
		ResourceID:   link.ID.String(),
		Details:      details,
	})

	return api.OK(c, CreateLinkResponse{
		Success:   true,
		ID:        link.ID,
		Provider:  link.Provider,
		URL:       link.URL,
		ExpiresAt: link.ExpiresAt,
	})
}
