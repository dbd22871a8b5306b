package billing

import (
	"github.com/labstack/echo/v4"

	"github.com/clinicops/practice/internal/platform/api"
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
	g.GET("/billing/denials", api.Handle(h.gate, auth.CapAppointmentAnalyticsRead, api.Bind[DenialQuery](""), h.ListDenials))
	g.GET("/billing/era-events", api.Handle(h.gate, auth.CapAppointmentAnalyticsRead, api.Bind[ERAQuery](""), h.ListERAEvents))
}

func (h *Handler) ListDenials(c echo.Context, q DenialQuery) error {
	claims, err := h.svc.Denials(c.Request().Context(), q)
	if err != nil {
		return err
	}
	return api.OK(c, map[string]any{"claims": claims})
}

func (h *Handler) ListERAEvents(c echo.Context, q ERAQuery) error {
	events, err := h.svc.ERAEvents(c.Request().Context(), q)
	if err != nil {
		return err
	}
	return api.OK(c, map[string]any{"events": events})
}
