package lab

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
	g.POST("/labs/protocols/schedule", api.Handle(h.gate, "", api.Bind[ScheduleRequest]("lab.missing_fields"), h.Schedule))
}

func (h *Handler) Schedule(c echo.Context, req ScheduleRequest) error {
	order, err := h.svc.Schedule(c.Request().Context(), req)
	if err != nil {
		return err
	}
	return api.OK(c, map[string]any{"order": order})
}
