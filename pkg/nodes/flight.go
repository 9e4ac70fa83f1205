package nodes

import (
	"context"
	"fmt"

	"github.com/aretw0/concierge/pkg/domain"
	"github.com/aretw0/concierge/pkg/flight"
)

// lookup queries the record store first; a miss hands over to the live search.
type lookup struct {
	caps Capabilities
}

func (n *lookup) Run(ctx context.Context, s *domain.State) domain.Directive {
	q, err := flight.ParseQuery(latestFrom(s, domain.NodeFlightPrompt))
	if err != nil {
		return domain.Fail(domain.NodeFlightLookup, describe(err))
	}
	filter, err := routeFilter(n.caps.Directory, q)
	if err != nil {
		return domain.Fail(domain.NodeFlightLookup, describe(err))
	}

	records, err := call(ctx, n.caps, "flight database", "query", func(ctx context.Context) ([]domain.FlightRecord, error) {
		return n.caps.Records.Query(ctx, filter)
	})
	if err != nil {
		n.caps.Logger.Error("record store query failed", "node", domain.NodeFlightLookup, "error", err)
		return domain.Fail(domain.NodeFlightLookup, describe(err))
	}

	if len(records) == 0 {
		n.caps.Logger.Debug("no stored flights, falling back to live search", "node", domain.NodeFlightLookup,
			"origin", q.Origin, "destination", q.Destination, "date", q.Date)
		return domain.Goto(domain.NodeFlightSearch, domain.Update{
			TaskHistory:   []string{domain.NodeFlightLookup},
			FlightResults: domain.Some([]domain.FlightRecord{}),
			NextStep:      domain.Some("search"),
		})
	}
	return domain.Goto(domain.NodeGenerator, domain.Update{
		TaskHistory:   []string{domain.NodeFlightLookup},
		FlightResults: domain.Some(records),
		NextStep:      domain.Some("generate"),
	})
}

func routeFilter(dir *flight.Directory, q flight.Query) (flight.Filter, error) {
	origins, err := dir.Codes(q.Origin)
	if err != nil {
		return flight.Filter{}, err
	}
	dests, err := dir.Codes(q.Destination)
	if err != nil {
		return flight.Filter{}, err
	}
	day, err := flight.NormalizeDate(q.Date)
	if err != nil {
		return flight.Filter{}, err
	}
	return flight.ForRoute(origins, dests, day), nil
}

// search runs the live search and stores what it finds.
type search struct {
	caps Capabilities
}

func (n *search) Run(ctx context.Context, s *domain.State) domain.Directive {
	q, err := flight.ParseQuery(latestFrom(s, domain.NodeFlightPrompt))
	if err != nil {
		return domain.Fail(domain.NodeFlightSearch, describe(err))
	}
	req := q.Request()

	records, err := call(ctx, n.caps, "flight search", "search", func(ctx context.Context) ([]domain.FlightRecord, error) {
		return n.caps.Searcher.Search(ctx, req)
	})
	if err != nil {
		n.caps.Logger.Warn("live search failed", "node", domain.NodeFlightSearch, "error", err)
		return domain.Fail(domain.NodeFlightSearch, describe(err))
	}
	if records == nil {
		records = []domain.FlightRecord{}
	}

	if len(records) > 0 {
		_, err := call(ctx, n.caps, "flight database", "insert", func(ctx context.Context) (struct{}, error) {
			return struct{}{}, n.caps.Records.Insert(ctx, records)
		})
		if err != nil {
			n.caps.Logger.Error("failed to store searched flights", "node", domain.NodeFlightSearch, "count", len(records), "error", err)
		}
	}

	return domain.Goto(domain.NodeGenerator, domain.Update{
		TaskHistory:   []string{domain.NodeFlightSearch},
		FlightResults: domain.Some(records),
		Messages: []domain.Message{{
			Role:    domain.RoleAssistant,
			Content: summary(req, len(records)),
			Name:    domain.NodeFlightSearch,
		}},
		NextStep: domain.Some("generate"),
	})
}

func summary(req flight.SearchRequest, n int) string {
	switch n {
	case 0:
		return fmt.Sprintf("No flights found from %s to %s on %s.", req.Origin, req.Destination, req.DepartureDate)
	case 1:
		return fmt.Sprintf("Found 1 flight from %s to %s on %s.", req.Origin, req.Destination, req.DepartureDate)
	default:
		return fmt.Sprintf("Found %d flights from %s to %s on %s.", n, req.Origin, req.Destination, req.DepartureDate)
	}
}
