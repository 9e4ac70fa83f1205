package nodes

import (
	"context"
	"strings"

	"github.com/aretw0/concierge/pkg/domain"
	"github.com/aretw0/concierge/pkg/ports"
)

// refiner rewrites the latest user message into a branch-specific query.
type refiner struct {
	caps         Capabilities
	id           string
	next         string
	instructions func() string
}

func (n *refiner) Run(ctx context.Context, s *domain.State) domain.Directive {
	text, err := call(ctx, n.caps, "generator", "refine", func(ctx context.Context) (string, error) {
		return n.caps.Generator.Generate(ctx, ports.ConversationOf(s), ports.Grounding{Instructions: n.instructions()})
	})
	if err != nil {
		n.caps.Logger.Warn("query refinement failed", "node", n.id, "error", err)
		return domain.Fail(n.id, describe(err))
	}
	return domain.Goto(n.next, domain.Update{
		TaskHistory: []string{n.id},
		Messages:    []domain.Message{{Role: domain.RoleUser, Content: strings.TrimSpace(text), Name: n.id}},
	})
}

func newFlightPrompt(caps Capabilities) *refiner {
	return &refiner{
		caps:         caps,
		id:           domain.NodeFlightPrompt,
		next:         domain.NodeFlightLookup,
		instructions: func() string { return flightPrompt(caps.Clock()) },
	}
}

func newBlogPrompt(caps Capabilities) *refiner {
	return &refiner{
		caps:         caps,
		id:           domain.NodeBlogPrompt,
		next:         domain.NodeBlogRetrieval,
		instructions: func() string { return blogPrompt },
	}
}
