package middleware

import (
	"context"
	"math"
	"strconv"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/clinicops/practice/internal/platform/apperr"
	"github.com/clinicops/practice/internal/platform/auth"
	"github.com/clinicops/practice/internal/platform/metrics"
)

// CounterStore counts hits per key in fixed windows. Incr returns the count
// after this hit and the time until the current window ends.
type CounterStore interface {
	Incr(ctx context.Context, key string, window time.Duration) (count int64, resetIn time.Duration, err error)
}

// RateLimitResult is the outcome of one Limiter.Allow call.
type RateLimitResult struct {
	Allowed    bool
	Limit      int
	Remaining  int
	RetryAfter time.Duration
}

// Limiter is a fixed-window request limiter. It owns no globals; build one
// at startup and hand it to RateLimit.
type Limiter struct {
	store  CounterStore
	limit  int
	window time.Duration
	logger zerolog.Logger
}

func NewLimiter(store CounterStore, limit int, window time.Duration, logger zerolog.Logger) *Limiter {
	return &Limiter{store: store, limit: limit, window: window, logger: logger}
}

// Allow records a hit for key. A store failure lets the request through.
func (l *Limiter) Allow(ctx context.Context, key string) RateLimitResult {
	count, resetIn, err := l.store.Incr(ctx, key, l.window)
	if err != nil {
		l.logger.Warn().Err(err).Str("key", key).Msg("rate limit store unavailable, allowing request")
		return RateLimitResult{Allowed: true, Limit: l.limit, Remaining: l.limit}
	}
	res := RateLimitResult{Limit: l.limit, RetryAfter: resetIn}
	if count <= int64(l.limit) {
		res.Allowed = true
		res.Remaining = l.limit - int(count)
	}
	return res
}

// RateLimitKey identifies the caller: the authenticated user when there is
// one, the client IP otherwise, prefixed by the clinic.
func RateLimitKey(c echo.Context) string {
	id := "ip:" + c.RealIP()
	if caller, ok := auth.CallerFromContext(c.Request().Context()); ok && caller.UserID != "" {
		id = "user:" + caller.UserID
	}
	if clinic, ok := c.Get(auth.ClinicContextKey).(string); ok && clinic != "" {
		return clinic + ":" + id
	}
	return id
}

// RateLimit rejects callers over the limiter's budget with RateLimited.
// Public paths are never limited.
func RateLimit(l *Limiter) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if auth.IsPublicPath(c.Request().URL.Path) {
				return next(c)
			}

			res := l.Allow(c.Request().Context(), RateLimitKey(c))
			h := c.Response().Header()
			h.Set("X-RateLimit-Limit", strconv.Itoa(res.Limit))
			h.Set("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
			if !res.Allowed {
				h.Set("Retry-After", strconv.Itoa(retrySeconds(res.RetryAfter)))
				metrics.RateLimitedTotal.Inc()
				return apperr.RateLimited("ratelimit.exceeded")
			}
			return next(c)
		}
	}
}

func retrySeconds(d time.Duration) int {
	s := int(math.Ceil(d.Seconds()))
	if s < 1 {
		return 1
	}
	return s
}

type memoryWindow struct {
	start time.Time
	count int64
}

// MemoryStore is an in-process CounterStore. Counts are lost on restart and
// are not shared between instances.
type MemoryStore struct {
	mu        sync.Mutex
	windows   map[string]*memoryWindow
	lastPrune time.Time
	now       func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{windows: make(map[string]*memoryWindow), now: time.Now}
}

func (s *MemoryStore) Incr(_ context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if now.Sub(s.lastPrune) >= window {
		s.prune(now, window)
	}

	w, ok := s.windows[key]
	if !ok || now.Sub(w.start) >= window {
		w = &memoryWindow{start: now}
		s.windows[key] = w
	}
	w.count++
	return w.count, w.start.Add(window).Sub(now), nil
}

func (s *MemoryStore) prune(now time.Time, window time.Duration) {
	for k, w := range s.windows {
		if now.Sub(w.start) >= window {
			delete(s.windows, k)
		}
	}
	s.lastPrune = now
}
