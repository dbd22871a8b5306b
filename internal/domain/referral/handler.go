package referral

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
	g.PATCH("/referrals/:id/status", api.Handle(h.gate, auth.CapReferralsWrite, parseStatusUpdate, h.UpdateStatus))
	g.GET("/referrals/stats", api.Handle(h.gate, auth.CapReferralsRead, api.NoInput, h.Stats))
}

var bindStatusUpdate = api.Bind[StatusUpdate]("")

// parseStatusUpdate also rejects unknown statuses, so a bad status is a 400
// regardless of the caller's capabilities.
func parseStatusUpdate(c echo.Context) (StatusUpdate, error) {
	id, err := api.UUIDParam(c, "id")
	if err != nil {
		return StatusUpdate{}, err
	}
	in, err := bindStatusUpdate(c)
	if err != nil {
		return in, err
	}
	in.ID = id
	return in, ValidateStatus(in.Status)
}

func (h *Handler) UpdateStatus(c echo.Context, in StatusUpdate) error {
	ref, err := h.svc.UpdateStatus(c.Request().Context(), in.ID, in.Status, in.Note)
	if err != nil {
		return err
	}
	return api.OK(c, map[string]any{"referral": ref})
}

func (h *Handler) Stats(c echo.Context, _ api.Empty) error {
	stats, err := h.svc.Stats(c.Request().Context())
	if err != nil {
		return err
	}
	return api.OK(c, map[string]any{"stats": stats})
}
