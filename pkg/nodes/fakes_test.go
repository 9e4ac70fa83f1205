package nodes

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/aretw0/concierge/pkg/adapters/livesearch"
	"github.com/aretw0/concierge/pkg/adapters/memory"
	"github.com/aretw0/concierge/pkg/domain"
	"github.com/aretw0/concierge/pkg/flight"
	"github.com/aretw0/concierge/pkg/ports"
)

var today = time.Date(2025, 3, 21, 9, 0, 0, 0, time.UTC)

type fakeClassifier struct {
	dest  ports.Destination
	err   error
	block bool
	calls int
}

func (f *fakeClassifier) Classify(ctx context.Context, _ ports.Conversation) (ports.Classification, error) {
	f.calls++
	if f.block {
		<-ctx.Done()
		return ports.Classification{}, ctx.Err()
	}
	return ports.Classification{Destination: f.dest}, f.err
}

// fakeGenerator answers according to the instructions it is given.
type fakeGenerator struct {
	mu         sync.Mutex
	flightYAML string
	blogQuery  string
	fail       map[string]error
	calls      []ports.Grounding
}

func kindOf(g ports.Grounding) string {
	switch {
	case strings.Contains(g.Instructions, "flight search in YAML"):
		return domain.NodeFlightPrompt
	case g.Instructions == blogPrompt:
		return domain.NodeBlogPrompt
	case g.Instructions == retrievalPrompt:
		return domain.NodeBlogRetrieval
	default:
		return domain.NodeGenerator
	}
}

func (f *fakeGenerator) Generate(_ context.Context, _ ports.Conversation, g ports.Grounding) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, g)
	kind := kindOf(g)
	if err := f.fail[kind]; err != nil {
		return "", err
	}
	switch kind {
	case domain.NodeFlightPrompt:
		return f.flightYAML, nil
	case domain.NodeBlogPrompt:
		return f.blogQuery, nil
	case domain.NodeBlogRetrieval:
		urls := make([]string, 0, len(g.Passages))
		for _, p := range g.Passages {
			urls = append(urls, p.SourceURL)
		}
		return "See " + strings.Join(urls, ", "), nil
	}
	switch {
	case g.Error != "":
		return "Sorry: " + g.Error, nil
	case g.Flights != nil:
		numbers := make([]string, 0, len(g.Flights))
		for _, r := range g.Flights {
			numbers = append(numbers, r.FlightNumber)
		}
		return fmt.Sprintf("Flights: [%s]", strings.Join(numbers, " ")), nil
	case g.Content != nil:
		return "Travel tips. " + g.Content.Answer, nil
	}
	return "Hello", nil
}

func (f *fakeGenerator) count(kind string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, g := range f.calls {
		if kindOf(g) == kind {
			n++
		}
	}
	return n
}

type fakeFetcher struct {
	mu    sync.Mutex
	calls int
	out   map[string][]domain.FlightRecord
	err   error
}

func (f *fakeFetcher) Fetch(_ context.Context, r flight.Route, _ livesearch.Params) ([]domain.FlightRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.out[r.OriginCode+"-"+r.DestCode], nil
}

type failingRecords struct {
	memory.Records
	queryErr  error
	insertErr error
}

func (f *failingRecords) Query(ctx context.Context, filter flight.Filter) ([]domain.FlightRecord, error) {
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	return f.Records.Query(ctx, filter)
}

func (f *failingRecords) Insert(ctx context.Context, records []domain.FlightRecord) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	return f.Records.Insert(ctx, records)
}

type failingRetriever struct{}

func (failingRetriever) SimilaritySearch(context.Context, string, int) ([]domain.Passage, error) {
	return nil, errors.New("vector store offline")
}

type fixture struct {
	classifier *fakeClassifier
	generator  *fakeGenerator
	fetcher    *fakeFetcher
	records    *memory.Records
	retriever  *memory.Retriever
	caps       Capabilities
}

const tehranMashhad = "```yaml\norigin: Tehran\ndestination: Mashhad\ndate: 2025-03-22\n```"

func newFixture() *fixture {
	f := &fixture{
		classifier: &fakeClassifier{dest: ports.DestinationFlight},
		generator:  &fakeGenerator{flightYAML: tehranMashhad, blogQuery: "best places Dubai"},
		fetcher: &fakeFetcher{out: map[string][]domain.FlightRecord{
			"THR-MHD": {{
				Airline: "Iran Air", FlightNumber: "IR401", OriginCode: "THR", DestCode: "MHD",
				DepartureAt: time.Date(2025, 3, 22, 7, 30, 0, 0, time.UTC),
			}},
		}},
		records:   memory.NewRecords(),
		retriever: memory.NewRetriever(),
	}
	f.caps = Capabilities{
		Classifier: f.classifier,
		Generator:  f.generator,
		Searcher:   livesearch.New(f.fetcher),
		Records:    f.records,
		Retriever:  f.retriever,
		Clock:      func() time.Time { return today },
	}
	return f
}
