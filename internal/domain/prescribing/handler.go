package prescribing

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

// RegisterRoutes mounts the e-prescribe route. It declares no capability;
// any authenticated caller may prescribe.
func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.POST("/prescriptions/eprescribe", api.Handle(h.gate, "", api.Bind[PrescribeRequest]("eprescribe.missing_fields"), h.Prescribe))
}

func (h *Handler) Prescribe(c echo.Context, req PrescribeRequest) error {
	order, err := h.svc.Prescribe(c.Request().Context(), req)
	if err != nil {
		return err
	}
	return api.OK(c, map[string]any{"order": order})
}
