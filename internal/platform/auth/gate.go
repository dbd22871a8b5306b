package auth

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/clinicops/practice/internal/platform/apperr"
	"github.com/clinicops/practice/internal/platform/metrics"
)

// Decision is the outcome of one permission check. Kind is set only on
// denial.
type Decision struct {
	Capability Capability
	Granted    bool
	Kind       apperr.Kind
}

// Err converts a denial into the error a handler must return.
func (d Decision) Err() error {
	if d.Granted {
		return nil
	}
	if d.Kind == apperr.KindUnauthenticated {
		return apperr.Unauthenticated("auth.unauthenticated")
	}
	return apperr.Forbidden("auth.forbidden").With("capability", string(d.Capability))
}

// Gate decides whether the request's caller holds a capability. It reads
// only the caller from the context.
type Gate struct {
	grants map[string]map[Capability]bool
	logger zerolog.Logger
}

func NewGate(policy Policy, logger zerolog.Logger) *Gate {
	grants := make(map[string]map[Capability]bool, len(policy)+1)
	for role, caps := range policy {
		grants[role] = capabilitySet(caps)
	}
	grants[RoleAdmin] = capabilitySet(AllCapabilities())
	return &Gate{grants: grants, logger: logger}
}

func capabilitySet(caps []Capability) map[Capability]bool {
	set := make(map[Capability]bool, len(caps))
	for _, c := range caps {
		set[c] = true
	}
	return set
}

// Decide evaluates capability for the caller in ctx.
func (g *Gate) Decide(ctx context.Context, capability Capability) Decision {
	d := Decision{Capability: capability}

	caller, ok := CallerFromContext(ctx)
	if !ok || caller.UserID == "" {
		d.Kind = apperr.KindUnauthenticated
		g.observe(d, "")
		return d
	}

	d.Granted = g.holds(caller, capability)
	if !d.Granted {
		d.Kind = apperr.KindForbidden
	}
	g.observe(d, caller.UserID)
	return d
}

// Check is Decide followed by Decision.Err.
func (g *Gate) Check(ctx context.Context, capability Capability) error {
	return g.Decide(ctx, capability).Err()
}

// Authenticated fails with Unauthenticated when ctx has no caller. Used by
// routes that declare no capability.
func (g *Gate) Authenticated(ctx context.Context) error {
	caller, ok := CallerFromContext(ctx)
	if !ok || caller.UserID == "" {
		metrics.PermissionDecisionsTotal.WithLabelValues("authenticated", string(apperr.KindUnauthenticated)).Inc()
		return apperr.Unauthenticated("auth.unauthenticated")
	}
	metrics.PermissionDecisionsTotal.WithLabelValues("authenticated", "granted").Inc()
	return nil
}

func (g *Gate) holds(caller *Caller, capability Capability) bool {
	for _, p := range caller.Permissions {
		if Capability(p) == capability {
			return true
		}
	}
	for _, role := range caller.Roles {
		if g.grants[role][capability] {
			return true
		}
	}
	return false
}

func (g *Gate) observe(d Decision, userID string) {
	outcome := "granted"
	if !d.Granted {
		outcome = string(d.Kind)
		g.logger.Debug().
			Str("capability", string(d.Capability)).
			Str("user_id", userID).
			Str("outcome", outcome).
			Msg("permission denied")
	}
	metrics.PermissionDecisionsTotal.WithLabelValues(string(d.Capability), outcome).Inc()
}
