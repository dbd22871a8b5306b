package calendar

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/clinicops/practice/internal/platform/api"
	"github.com/clinicops/practice/internal/platform/apperr"
	"github.com/clinicops/practice/internal/platform/auth"
	"github.com/clinicops/practice/internal/platform/db"
)

const (
	StateCookie = "google_oauth_state"

	RedirectConnected = "/?google=connected"
	RedirectFailed    = "/?error=google_auth_failed"

	cookiePath = "/api/v1/calendar/google"
)

type Handler struct {
	svc          *Service
	gate         *auth.Gate
	secureCookie bool
	logger       zerolog.Logger
}

// NewHandler wires the routes. svc may be nil when Google is not configured.
func NewHandler(svc *Service, gate *auth.Gate, secureCookie bool, logger zerolog.Logger) *Handler {
	return &Handler{svc: svc, gate: gate, secureCookie: secureCookie, logger: logger}
}

func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.GET("/calendar/google/connect", api.Handle(h.gate, auth.CapIntegrationsWrite, api.NoInput, h.Connect))
	g.GET("/calendar/google/callback", h.Callback)
}

func (h *Handler) Connect(c echo.Context, _ api.Empty) error {
	if h.svc == nil {
		return apperr.Unavailable("calendar.not_configured")
	}
	ctx := c.Request().Context()
	consentURL, state, err := h.svc.Start(ctx, db.ClinicFromContext(ctx), auth.UserIDFromContext(ctx))
	if err != nil {
		return err
	}
	c.SetCookie(h.stateCookie(state, int(stateTTL.Seconds())))
	return c.Redirect(http.StatusFound, consentURL)
}

// Callback is public: Google redirects the browser here without a bearer
// token. Every outcome is a redirect to the app.
func (h *Handler) Callback(c echo.Context) error {
	var cookieState string
	if ck, err := c.Cookie(StateCookie); err == nil {
		cookieState = ck.Value
	}
	c.SetCookie(h.stateCookie("", -1))

	if h.svc == nil {
		return c.Redirect(http.StatusFound, RedirectFailed)
	}

	st, err := h.svc.Complete(c.Request().Context(), CallbackParams{
		Code:        c.QueryParam("code"),
		State:       c.QueryParam("state"),
		Error:       c.QueryParam("error"),
		CookieState: cookieState,
	})
	if err != nil {
		rid, _ := c.Get("request_id").(string)
		h.logger.Warn().Err(err).Str("request_id", rid).Msg("google calendar connect failed")
		return c.Redirect(http.StatusFound, RedirectFailed)
	}

	h.logger.Info().
		Str("clinic_id", st.ClinicID).
		Str("user_id", st.UserID).
		Msg("google calendar connected")
	return c.Redirect(http.StatusFound, RedirectConnected)
}

func (h *Handler) stateCookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     StateCookie,
		Value:    value,
		Path:     cookiePath,
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	}
}
