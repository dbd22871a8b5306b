package integration

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
	g.GET("/integrations/catalog", api.Handle(h.gate, auth.CapIntegrationsRead, api.NoInput, h.Catalog))
	g.GET("/integrations/health", api.Handle(h.gate, auth.CapIntegrationsRead, api.NoInput, h.Health))
	g.POST("/integrations/events/process", api.Handle(h.gate, auth.CapIntegrationsWrite, api.Bind[ProcessRequest](""), h.ProcessEvents))
}

func (h *Handler) Catalog(c echo.Context, _ api.Empty) error {
	catalog, connections, err := h.svc.Catalog(c.Request().Context())
	if err != nil {
		return err
	}
	return api.OK(c, map[string]any{"catalog": catalog, "connections": connections})
}

func (h *Handler) Health(c echo.Context, _ api.Empty) error {
	health, err := h.svc.Health(c.Request().Context())
	if err != nil {
		return err
	}
	return api.OK(c, map[string]any{"health": health})
}

func (h *Handler) ProcessEvents(c echo.Context, req ProcessRequest) error {
	res, err := h.svc.ProcessEvents(c.Request().Context(), req)
	if err != nil {
		return err
	}
	return api.OK(c, res)
}
