package integration

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/clinicops/practice/internal/platform/apperr"
	"github.com/clinicops/practice/pkg/pagination"
)

// Event types handled by the built-in processors.
const (
	EventHeartbeat  = "connection.heartbeat"
	EventRemittance = "era.remittance"
)

var processWindow = pagination.Window{Default: 25, Max: 100}

// Processor handles one event type. Errors mark the event failed.
type Processor func(ctx context.Context, e *Event) error

type Service struct {
	repo       Repository
	processors map[string]Processor
	logger     zerolog.Logger
}

func NewService(repo Repository, logger zerolog.Logger) *Service {
	s := &Service{repo: repo, processors: make(map[string]Processor), logger: logger}
	s.Register(EventHeartbeat, s.processHeartbeat)
	s.Register(EventRemittance, s.processRemittance)
	return s
}

// Register installs p for eventType, replacing any previous processor.
func (s *Service) Register(eventType string, p Processor) {
	s.processors[eventType] = p
}

// Catalog returns the catalog and the clinic's connections, fetched in parallel.
func (s *Service) Catalog(ctx context.Context) ([]*CatalogEntry, []*Connection, error) {
	var (
		catalog     []*CatalogEntry
		connections []*Connection
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		catalog, err = s.repo.Catalog(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		connections, err = s.repo.Connections(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	if catalog == nil {
		catalog = []*CatalogEntry{}
	}
	if connections == nil {
		connections = []*Connection{}
	}
	return catalog, connections, nil
}

// Health reports per-connection event health. A connection is healthy when
// it is active and has no failures in the last day.
func (s *Service) Health(ctx context.Context) ([]*HealthEntry, error) {
	entries, err := s.repo.Health(ctx)
	if err != nil {
		return nil, err
	}
	for _, h := range entries {
		h.Healthy = h.Status == "active" && h.FailedEvents == 0
	}
	if entries == nil {
		entries = []*HealthEntry{}
	}
	return entries, nil
}

// ProcessEvents claims and handles up to limit pending events in one
// transaction. A failing event is marked failed and does not stop the run.
func (s *Service) ProcessEvents(ctx context.Context, req ProcessRequest) (*ProcessResult, error) {
	limit := processWindow.Clamp(req.Limit)
	res := &ProcessResult{Success: true}

	err := s.repo.WithTx(ctx, func(ctx context.Context) error {
		events, err := s.repo.ClaimPending(ctx, limit)
		if err != nil {
			return err
		}
		for _, e := range events {
			perr := s.repo.Savepoint(ctx, func(ctx context.Context) error {
				return s.dispatch(ctx, e)
			})
			if perr != nil {
				s.logger.Warn().Err(perr).
					Str("event_id", e.ID.String()).
					Str("event_type", e.EventType).
					Msg("integration event failed")
				if err := s.repo.MarkFailed(ctx, e.ID, perr.Error()); err != nil {
					return err
				}
				res.Failed++
				continue
			}
			if err := s.repo.MarkProcessed(ctx, e.ID); err != nil {
				return err
			}
			res.Processed++
		}
		return nil
	})
	if err != nil {
		return nil, &apperr.Error{Kind: apperr.KindUnexpected, MessageKey: "integration.event_processing_failed", Cause: err}
	}
	return res, nil
}

func (s *Service) dispatch(ctx context.Context, e *Event) error {
	p, ok := s.processors[e.EventType]
	if !ok {
		return fmt.Errorf("unsupported event type %q", e.EventType)
	}
	return p(ctx, e)
}

func (s *Service) processHeartbeat(ctx context.Context, e *Event) error {
	if e.ConnectionID == nil {
		return fmt.Errorf("heartbeat without connection")
	}
	return s.repo.TouchConnection(ctx, *e.ConnectionID)
}

func (s *Service) processRemittance(ctx context.Context, e *Event) error {
	var r Remittance
	if err := json.Unmarshal(e.Payload, &r); err != nil {
		return fmt.Errorf("decode remittance: %w", err)
	}
	if r.PayerName == "" {
		return fmt.Errorf("remittance without payer")
	}
	return s.repo.InsertRemittance(ctx, e.ID, r)
}
