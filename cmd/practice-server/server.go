package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/clinicops/practice/internal/config"
	"github.com/clinicops/practice/internal/domain/billing"
	"github.com/clinicops/practice/internal/domain/calendar"
	"github.com/clinicops/practice/internal/domain/caregiver"
	"github.com/clinicops/practice/internal/domain/integration"
	"github.com/clinicops/practice/internal/domain/lab"
	"github.com/clinicops/practice/internal/domain/prescribing"
	"github.com/clinicops/practice/internal/domain/referral"
	"github.com/clinicops/practice/internal/domain/socialwork"
	"github.com/clinicops/practice/internal/domain/telehealth"
	"github.com/clinicops/practice/internal/platform/api"
	"github.com/clinicops/practice/internal/platform/audit"
	"github.com/clinicops/practice/internal/platform/auth"
	"github.com/clinicops/practice/internal/platform/db"
	"github.com/clinicops/practice/internal/platform/i18n"
	"github.com/clinicops/practice/internal/platform/middleware"
	"github.com/clinicops/practice/internal/platform/notification"
)

const version = "0.1.0"

// app holds the process-wide dependencies the router is built from.
type app struct {
	cfg      *config.Config
	logger   zerolog.Logger
	pool     *pgxpool.Pool
	redis    *redis.Client
	catalog  *i18n.Catalog
	metrics  prometheus.Registerer
	gatherer prometheus.Gatherer
}

func (a *app) newEcho() *echo.Echo {
	cfg := a.cfg

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = api.NewValidator()
	e.HTTPErrorHandler = api.NewHTTPErrorHandler(a.logger, a.catalog)

	e.Use(middleware.Recovery(a.logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(a.logger))
	e.Use(middleware.SecurityHeaders(cfg.TLSEnabled))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPatch},
		AllowHeaders:     []string{"Authorization", "Content-Type", "Accept-Language", "X-Request-ID", db.ClinicHeader},
		AllowCredentials: true,
	}))
	e.Use(echomw.BodyLimit("1M"))
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Subsystem:  "practice",
		Registerer: a.metrics,
	}))

	if cfg.ResolvedAuthMode() == "development" {
		e.Use(auth.DevAuthMiddleware(cfg.DefaultClinicID))
	} else {
		e.Use(auth.JWTMiddleware(auth.JWTConfig{
			Issuer:     cfg.AuthIssuer,
			Audience:   cfg.AuthAudience,
			JWKSURL:    cfg.AuthJWKSURL,
			SigningKey: []byte(cfg.AuthSigningKey),
			Skipper:    auth.AuthSkipper,
		}))
	}

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"version": version,
		})
	})
	e.GET("/health/db", db.HealthHandler(a.healthDeps(), a.pool, func(name string, err error) {
		a.logger.Error().Err(err).Str("component", name).Msg("health check failed")
	}))
	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: a.gatherer}))

	apiV1 := e.Group("/api/v1")
	apiV1.Use(db.ClinicMiddleware(a.pool, cfg.DefaultClinicID))
	if cfg.RateLimitEnabled {
		apiV1.Use(middleware.RateLimit(a.newLimiter()))
	}
	a.registerRoutes(apiV1)

	return e
}

func (a *app) registerRoutes(g *echo.Group) {
	cfg, logger, pool := a.cfg, a.logger, a.pool
	gate := auth.NewGate(auth.DefaultPolicy(), logger)

	auditSink := audit.MultiSink{audit.NewPGSink(pool), audit.NewLogSink(logger)}
	recorder := audit.NewRecorder(auditSink, logger)

	deliveries := notification.NewDeliveryLog(notification.NewPGDeliveryStore(pool), logger)
	notifier := notification.NewNotifier(a.emailSender(), notification.NewTemplateEngine(), deliveries, logger)

	billing.NewHandler(billing.NewService(billing.NewRepo(pool)), gate).RegisterRoutes(g)

	caregiverSvc := caregiver.NewService(caregiver.NewRepo(pool), logger)
	caregiver.NewHandler(caregiverSvc, gate).RegisterRoutes(g)

	rxSvc := prescribing.NewService(prescribing.NewRepo(pool), a.submitter(), logger)
	prescribing.NewHandler(rxSvc, gate).RegisterRoutes(g)

	integration.NewHandler(integration.NewService(integration.NewRepo(pool), logger), gate).RegisterRoutes(g)

	lab.NewHandler(lab.NewService(lab.NewRepo(pool), logger), gate).RegisterRoutes(g)

	referral.NewHandler(referral.NewService(referral.NewRepo(pool)), gate).RegisterRoutes(g)

	socialwork.NewHandler(socialwork.NewService(socialwork.NewRepo(pool)), gate).RegisterRoutes(g)

	teleSvc := telehealth.NewService(telehealth.NewRepo(pool), notifier, cfg.JitsiBaseURL, logger)
	telehealth.NewHandler(teleSvc, gate, recorder).RegisterRoutes(g)

	var calendarSvc *calendar.Service
	if cfg.GoogleConfigured() {
		oauthCfg := calendar.NewOAuthConfig(cfg.GoogleClientID, cfg.GoogleSecret, cfg.GoogleRedirect)
		calendarSvc = calendar.NewService(oauthCfg, calendar.NewRepo(pool))
	}
	secureCookie := cfg.TLSEnabled || cfg.IsProduction()
	calendar.NewHandler(calendarSvc, gate, secureCookie, logger).RegisterRoutes(g)
}

func (a *app) healthDeps() map[string]db.Pinger {
	deps := map[string]db.Pinger{}
	if a.pool != nil {
		deps["postgres"] = a.pool
	}
	if a.redis != nil {
		deps["redis"] = db.RedisPinger{Client: a.redis}
	}
	return deps
}

// newLimiter counts in Redis when it is configured so that every replica
// shares one window.
func (a *app) newLimiter() *middleware.Limiter {
	var store middleware.CounterStore = middleware.NewMemoryStore()
	if a.redis != nil {
		store = middleware.NewRedisStore(a.redis, "ratelimit")
	}
	return middleware.NewLimiter(store, a.cfg.RateLimitReqs, a.cfg.RateLimitWindow, a.logger)
}

func (a *app) emailSender() notification.EmailSender {
	if a.cfg.SendGridAPIKey == "" {
		return notification.NewLogSender(a.logger)
	}
	return notification.NewSendGridSender(a.cfg.SendGridAPIKey, a.cfg.EmailFrom, a.cfg.EmailFromName)
}

func (a *app) submitter() prescribing.Submitter {
	if a.cfg.ERxBaseURL == "" {
		return prescribing.NewOfflineSubmitter(a.logger)
	}
	return prescribing.NewERXClient(a.cfg.ERxBaseURL, a.cfg.ERxAPIKey)
}

func connect(ctx context.Context) (*pgxpool.Pool, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	return db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
}

func targetSchemas(ctx context.Context, pool *pgxpool.Pool, clinicID string) ([]string, error) {
	if clinicID == "" {
		return db.ClinicSchemas(ctx, pool)
	}
	if !db.ValidClinicID(clinicID) {
		return nil, fmt.Errorf("invalid clinic identifier: %q", clinicID)
	}
	return []string{db.SchemaName(clinicID)}, nil
}

func isServerClosed(err error) bool {
	return errors.Is(err, http.ErrServerClosed)
}
