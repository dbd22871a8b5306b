package caregiver

import (
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/clinicops/practice/internal/platform/api"
	"github.com/clinicops/practice/internal/platform/apperr"
	"github.com/clinicops/practice/internal/platform/auth"
)

type Handler struct {
	svc  *Service
	gate *auth.Gate
}

func NewHandler(svc *Service, gate *auth.Gate) *Handler {
	return &Handler{svc: svc, gate: gate}
}

func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.GET("/caregivers/:id/summary", api.Handle(h.gate, auth.CapPatientAnamnesisRead, parseSummary, h.GetSummary))
	g.POST("/caregivers/tokens/rotate", api.Handle(h.gate, auth.CapCaregiverTokensManage, api.Bind[RotateRequest](""), h.RotateToken))
}

func parseSummary(c echo.Context) (SummaryRequest, error) {
	var req SummaryRequest
	raw := c.QueryParam("patient_id")
	if raw == "" {
		return req, apperr.BadRequest("caregiver.patient_id_required")
	}
	patientID, err := uuid.Parse(raw)
	if err != nil {
		return req, apperr.BadRequest("validation.invalid_id").With("field", "patient_id")
	}
	caregiverID, err := api.UUIDParam(c, "id")
	if err != nil {
		return req, err
	}
	req.CaregiverID = caregiverID
	req.PatientID = patientID
	return req, nil
}

func (h *Handler) GetSummary(c echo.Context, req SummaryRequest) error {
	summary, err := h.svc.Summary(c.Request().Context(), req)
	if err != nil {
		return err
	}
	return api.OK(c, map[string]any{"data": summary})
}

func (h *Handler) RotateToken(c echo.Context, req RotateRequest) error {
	result, err := h.svc.RotateToken(c.Request().Context(), req)
	if err != nil {
		return err
	}
	return api.OK(c, result)
}
