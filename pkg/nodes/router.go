package nodes

import (
	"context"

	"github.com/aretw0/concierge/pkg/domain"
	"github.com/aretw0/concierge/pkg/ports"
)

type router struct {
	caps Capabilities
}

// Run classifies the latest user message and picks the branch.
func (n *router) Run(ctx context.Context, s *domain.State) domain.Directive {
	cls, err := call(ctx, n.caps, "classifier", "classify", func(ctx context.Context) (ports.Classification, error) {
		return n.caps.Classifier.Classify(ctx, ports.ConversationOf(s))
	})
	if err != nil {
		n.caps.Logger.Warn("classification failed", "node", domain.NodeRouter, "error", err)
		return domain.Fail(domain.NodeRouter, describe(err))
	}

	update := domain.Update{
		TaskHistory: []string{domain.NodeRouter},
		NextStep:    domain.Some(string(cls.Destination)),
	}
	switch cls.Destination {
	case ports.DestinationFlight:
		return domain.Goto(domain.NodeFlightPrompt, update)
	case ports.DestinationBlog:
		return domain.Goto(domain.NodeBlogPrompt, update)
	default:
		n.caps.Logger.Debug("request not relevant", "node", domain.NodeRouter, "destination", cls.Destination)
		update.Error = domain.Some(NotRelevantError)
		return domain.Goto(domain.NodeGenerator, update)
	}
}
