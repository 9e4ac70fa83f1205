package nodes

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/concierge/internal/logging"
	"github.com/aretw0/concierge/pkg/domain"
	"github.com/aretw0/concierge/pkg/flight"
	"github.com/aretw0/concierge/pkg/ports"
)

// DefaultCallTimeout bounds every capability call.
const DefaultCallTimeout = 60 * time.Second

// DefaultTopK is the number of passages retrieved for a content question.
const DefaultTopK = 4

// ErrMissingCapability is returned by NewGraph when a required collaborator is nil.
var ErrMissingCapability = errors.New("missing capability")

// Capabilities are the collaborators injected into the nodes.
type Capabilities struct {
	Classifier ports.Classifier
	Generator  ports.Generator
	Searcher   ports.FlightSearcher
	Records    ports.RecordStore
	Retriever  ports.ContentRetriever

	// CallTimeout bounds each capability call. Zero means DefaultCallTimeout.
	CallTimeout time.Duration
	// TopK is the passage count of a similarity search. Zero means DefaultTopK.
	TopK int
	// Clock provides "today" for the flight prompt. Nil means time.Now.
	Clock     func() time.Time
	Directory *flight.Directory
	Logger    *slog.Logger
}

func (c Capabilities) validate() error {
	missing := func(name string) error {
		return fmt.Errorf("%w: %s", ErrMissingCapability, name)
	}
	switch {
	case c.Classifier == nil:
		return missing("classifier")
	case c.Generator == nil:
		return missing("generator")
	case c.Searcher == nil:
		return missing("flight searcher")
	case c.Records == nil:
		return missing("record store")
	case c.Retriever == nil:
		return missing("content retriever")
	}
	return nil
}

func (c Capabilities) withDefaults() Capabilities {
	if c.CallTimeout <= 0 {
		c.CallTimeout = DefaultCallTimeout
	}
	if c.TopK <= 0 {
		c.TopK = DefaultTopK
	}
	if c.Clock == nil {
		c.Clock = time.Now
	}
	if c.Directory == nil {
		c.Directory = flight.DefaultDirectory()
	}
	if c.Logger == nil {
		c.Logger = logging.NewNop()
	}
	return c
}

// call runs fn under the capability timeout and wraps its failure.
func call[T any](ctx context.Context, c Capabilities, capability, op string, fn func(context.Context) (T, error)) (T, error) {
	ctx, cancel := context.WithTimeout(ctx, c.CallTimeout)
	defer cancel()
	out, err := fn(ctx)
	if err != nil {
		var zero T
		var ce *domain.CapabilityError
		if errors.As(err, &ce) {
			return zero, err
		}
		return zero, &domain.CapabilityError{Capability: capability, Op: op, Err: err}
	}
	return out, nil
}

// describe turns a fault into the user-facing text stored in the state's error.
func describe(err error) string {
	var se *flight.SearchError
	if errors.As(err, &se) {
		return se.Message
	}
	var ce *domain.CapabilityError
	if errors.As(err, &ce) {
		if ce.Timeout() {
			return fmt.Sprintf("The %s did not answer in time.", ce.Capability)
		}
		return fmt.Sprintf("The %s is unavailable right now.", ce.Capability)
	}
	return err.Error()
}

// latestFrom returns the content of the newest message authored by node, falling back
// to the newest user message.
func latestFrom(s *domain.State, node string) string {
	for i := len(s.Messages) - 1; i >= 0; i-- {
		if s.Messages[i].Name == node {
			return s.Messages[i].Content
		}
	}
	if m, ok := s.LastUserMessage(); ok {
		return m.Content
	}
	return ""
}
