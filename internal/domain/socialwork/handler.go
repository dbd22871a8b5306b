package socialwork

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
	g.GET("/social-work/dashboard", api.Handle(h.gate, "", api.NoInput, h.Dashboard))
}

func (h *Handler) Dashboard(c echo.Context, _ api.Empty) error {
	d, err := h.svc.Dashboard(c.Request().Context())
	if err != nil {
		return err
	}
	return api.OK(c, map[string]any{"data": d})
}
