package db

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"

	"github.com/clinicops/practice/internal/platform/apperr"
	"github.com/clinicops/practice/internal/platform/auth"
)

type contextKey string

const (
	ClinicIDKey contextKey = "clinic_id"
	DBConnKey   contextKey = "db_conn"
)

// ClinicHeader lets service clients pick the clinic when the token has none.
const ClinicHeader = "X-Clinic-ID"

var clinicIDPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]{1,48}$`)

// ValidClinicID reports whether id can name a clinic schema.
func ValidClinicID(id string) bool {
	return clinicIDPattern.MatchString(id)
}

// SchemaName maps a clinic ID to its PostgreSQL schema.
func SchemaName(clinicID string) string {
	return "clinic_" + strings.ToLower(strings.ReplaceAll(clinicID, "-", "_"))
}

// ClinicMiddleware resolves the request's clinic and pins a pooled
// connection whose search_path is the clinic schema. Public routes get
// neither.
func ClinicMiddleware(pool *pgxpool.Pool, defaultClinic string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if auth.AuthSkipper(c) {
				return next(c)
			}

			clinicID := extractClinicID(c, defaultClinic)
			if !ValidClinicID(clinicID) {
				return apperr.BadRequest("clinic.invalid")
			}

			ctx := c.Request().Context()
			conn, err := pool.Acquire(ctx)
			if err != nil {
				return &apperr.Error{Kind: apperr.KindUnavailable, MessageKey: "error.service_unavailable", Cause: err}
			}
			defer conn.Release()

			if _, err := conn.Exec(ctx, searchPath(clinicID)); err != nil {
				return apperr.Unexpected(fmt.Errorf("set search_path for clinic %s: %w", clinicID, err))
			}

			ctx = context.WithValue(ctx, ClinicIDKey, clinicID)
			ctx = context.WithValue(ctx, DBConnKey, conn)
			c.SetRequest(c.Request().WithContext(ctx))
			c.Set(string(ClinicIDKey), clinicID)

			return next(c)
		}
	}
}

func searchPath(clinicID string) string {
	return fmt.Sprintf("SET search_path TO %s, shared, public", SchemaName(clinicID))
}

func extractClinicID(c echo.Context, defaultClinic string) string {
	if caller, ok := auth.CallerFromContext(c.Request().Context()); ok && caller.ClinicID != "" {
		return caller.ClinicID
	}
	if id, ok := c.Get(auth.ClinicContextKey).(string); ok && id != "" {
		return id
	}
	if id := c.Request().Header.Get(ClinicHeader); id != "" {
		return id
	}
	return defaultClinic
}

// ConnFromContext retrieves the clinic-scoped connection from context.
func ConnFromContext(ctx context.Context) *pgxpool.Conn {
	conn, _ := ctx.Value(DBConnKey).(*pgxpool.Conn)
	return conn
}

// ClinicFromContext retrieves the clinic ID from context.
func ClinicFromContext(ctx context.Context) string {
	id, _ := ctx.Value(ClinicIDKey).(string)
	return id
}

// WithClinic returns ctx carrying clinicID without a pinned connection.
// Used by tests and background work that resolves schemas explicitly.
func WithClinic(ctx context.Context, clinicID string) context.Context {
	return context.WithValue(ctx, ClinicIDKey, clinicID)
}

// CreateClinicSchema creates the clinic's schema and migrates it.
func CreateClinicSchema(ctx context.Context, pool *pgxpool.Pool, clinicID string, migrator *Migrator) error {
	if !ValidClinicID(clinicID) {
		return fmt.Errorf("invalid clinic identifier: %q", clinicID)
	}
	schema := SchemaName(clinicID)

	if _, err := pool.Exec(ctx, fmt.Sprintf("CREATE SCHEMA IF NOT EXISTS %s", schema)); err != nil {
		return fmt.Errorf("create schema %s: %w", schema, err)
	}
	if migrator != nil {
		if _, err := migrator.Up(ctx, schema); err != nil {
			return fmt.Errorf("run migrations for %s: %w", schema, err)
		}
	}
	return nil
}

// ClinicSchemas lists existing clinic schemas.
func ClinicSchemas(ctx context.Context, pool *pgxpool.Pool) ([]string, error) {
	rows, err := pool.Query(ctx,
		`SELECT nspname FROM pg_namespace WHERE nspname LIKE 'clinic\_%' ORDER BY nspname`)
	if err != nil {
		return nil, fmt.Errorf("list clinic schemas: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan schema name: %w", err)
		}
		out = append(out, name)
	}
	return out, rows.Err()
}
