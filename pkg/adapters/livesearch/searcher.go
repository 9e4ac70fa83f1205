// Package livesearch implements the live flight search capability.
package livesearch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/aretw0/concierge/internal/logging"
	"github.com/aretw0/concierge/pkg/domain"
	"github.com/aretw0/concierge/pkg/flight"
	"golang.org/x/sync/errgroup"
)

// DefaultSkipOrigins are origin airports never searched from.
var DefaultSkipOrigins = []string{"IKA"}

// DefaultConcurrency bounds the number of routes fetched at once.
const DefaultConcurrency = 4

// Searcher implements ports.FlightSearcher.
type Searcher struct {
	fetcher     Fetcher
	dir         *flight.Directory
	skipOrigins []string
	concurrency int
	logger      *slog.Logger
	now         func() time.Time
}

type Option func(*Searcher)

func WithDirectory(dir *flight.Directory) Option {
	return func(s *Searcher) {
		if dir != nil {
			s.dir = dir
		}
	}
}

// WithSkipOrigins replaces the skipped origin airports. An empty list searches every origin.
func WithSkipOrigins(codes ...string) Option {
	return func(s *Searcher) {
		s.skipOrigins = codes
	}
}

func WithConcurrency(n int) Option {
	return func(s *Searcher) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Searcher) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithClock sets the source of CreatedAt timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Searcher) {
		if now != nil {
			s.now = now
		}
	}
}

// New creates a searcher over fetcher.
func New(fetcher Fetcher, opts ...Option) *Searcher {
	s := &Searcher{
		fetcher:     fetcher,
		dir:         flight.DefaultDirectory(),
		skipOrigins: DefaultSkipOrigins,
		concurrency: DefaultConcurrency,
		logger:      logging.NewNop(),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Search validates req, then fetches every origin×destination route.
// Failed routes are logged and skipped; the search fails only when every route failed.
// Domain validation failures are returned as *flight.SearchError.
func (s *Searcher) Search(ctx context.Context, req flight.SearchRequest) ([]domain.FlightRecord, error) {
	resolved, err := req.Resolve(s.dir)
	if err != nil {
		return nil, err
	}
	routes := resolved.Routes(s.skipOrigins...)
	if len(routes) == 0 {
		return []domain.FlightRecord{}, nil
	}

	params := Params{
		Departure:  resolved.Departure,
		Return:     resolved.Return,
		Trip:       resolved.Trip,
		Cabin:      resolved.Cabin,
		Passengers: req.Passengers,
	}

	var (
		mu      sync.Mutex
		results = []domain.FlightRecord{}
		errs    []error
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for _, route := range routes {
		g.Go(func() error {
			recs, err := s.fetcher.Fetch(gctx, route, params)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				s.logger.Warn("route search failed", "origin", route.OriginCode, "destination", route.DestCode, "error", err)
				errs = append(errs, fmt.Errorf("%s-%s: %w", route.OriginCode, route.DestCode, err))
				return nil
			}
			results = append(results, recs...)
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, &domain.CapabilityError{Capability: "flight search", Op: "fetch", Err: err}
	}
	if len(errs) == len(routes) {
		return nil, &domain.CapabilityError{Capability: "flight search", Op: "fetch", Err: errors.Join(errs...)}
	}

	createdAt := s.now().UTC()
	for i := range results {
		s.fill(&results[i], createdAt)
	}
	sort.SliceStable(results, func(i, j int) bool {
		if !results[i].DepartureAt.Equal(results[j].DepartureAt) {
			return results[i].DepartureAt.Before(results[j].DepartureAt)
		}
		return results[i].FlightNumber < results[j].FlightNumber
	})

	s.logger.Debug("live search finished",
		"origin", resolved.OriginCity, "destination", resolved.DestCity,
		"routes", len(routes), "failed_routes", len(errs), "flights", len(results))
	return results, nil
}

func (s *Searcher) fill(rec *domain.FlightRecord, createdAt time.Time) {
	if rec.OriginCity == "" {
		rec.OriginCity, _ = s.dir.City(rec.OriginCode)
	}
	if rec.DestCity == "" {
		rec.DestCity, _ = s.dir.City(rec.DestCode)
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = createdAt
	}
}
