package ports

import (
	"context"

	"github.com/aretw0/concierge/pkg/domain"
	"github.com/aretw0/concierge/pkg/flight"
)

// Destination is the closed set of router outcomes.
type Destination string

const (
	DestinationFlight      Destination = "flight_team"
	DestinationBlog        Destination = "blog_team"
	DestinationNonRelevant Destination = "non_relevant"
)

// Destinations lists every recognised destination.
var Destinations = []Destination{DestinationFlight, DestinationBlog, DestinationNonRelevant}

// Conversation is the read-only context handed to language capabilities.
type Conversation struct {
	Messages      []domain.Message
	FlightResults []domain.FlightRecord
	BlogResults   *domain.ContentAnswer
}

// ConversationOf extracts the conversation context from a state snapshot.
func ConversationOf(s *domain.State) Conversation {
	return Conversation{
		Messages:      s.Messages,
		FlightResults: s.FlightResults,
		BlogResults:   s.BlogResults,
	}
}

// Classification is the router classifier's answer.
type Classification struct {
	Destination Destination
	// Confidence is optional; zero means unknown.
	Confidence float64
}

// Classifier decides which branch handles the latest user message.
type Classifier interface {
	Classify(ctx context.Context, conv Conversation) (Classification, error)
}

// Grounding carries the data a generation must be based on.
type Grounding struct {
	// Instructions is the task prompt for this call.
	Instructions string
	Flights      []domain.FlightRecord
	Passages     []domain.Passage
	Content      *domain.ContentAnswer
	Error        string
}

// Generator composes text.
type Generator interface {
	Generate(ctx context.Context, conv Conversation, grounding Grounding) (string, error)
}

// FlightSearcher runs a live search against the booking provider.
// Domain validation failures are returned as *flight.SearchError.
type FlightSearcher interface {
	Search(ctx context.Context, req flight.SearchRequest) ([]domain.FlightRecord, error)
}

// RecordStore persists flight records.
// Implementations support concurrent readers and serialise writers; records are append-only.
type RecordStore interface {
	Insert(ctx context.Context, records []domain.FlightRecord) error
	// Query returns the matching records ordered by departure time.
	// An invalid filter fails with flight.ErrInvalidFilter.
	Query(ctx context.Context, filter flight.Filter) ([]domain.FlightRecord, error)
}

// ContentRetriever performs similarity search over indexed travel content.
type ContentRetriever interface {
	SimilaritySearch(ctx context.Context, query string, k int) ([]domain.Passage, error)
}

// Document is a travel article to be indexed.
type Document struct {
	URL   string
	Title string
	Text  string
}

// ContentIndexer adds documents to the retriever's corpus.
type ContentIndexer interface {
	// Index chunks and stores a document and returns the number of chunks written.
	Index(ctx context.Context, doc Document) (int, error)
	// HasSource reports whether a document with this URL was already indexed.
	HasSource(ctx context.Context, url string) (bool, error)
}

// Embedder turns text into a vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}
