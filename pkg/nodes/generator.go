package nodes

import (
	"context"
	"slices"

	"github.com/aretw0/concierge/pkg/domain"
	"github.com/aretw0/concierge/pkg/ports"
)

type generator struct {
	caps Capabilities
}

// Run composes the reply and ends the run. The error is cleared once surfaced.
func (n *generator) Run(ctx context.Context, s *domain.State) domain.Directive {
	reply, err := call(ctx, n.caps, "generator", "reply", func(ctx context.Context) (string, error) {
		return n.caps.Generator.Generate(ctx, ports.ConversationOf(s), grounding(s))
	})
	if err != nil || reply == "" {
		n.caps.Logger.Error("reply generation failed, using apology", "node", domain.NodeGenerator, "error", err)
		reply = ApologyReply
	}

	return domain.Goto(domain.End, domain.Update{
		TaskHistory: []string{domain.NodeGenerator},
		Messages:    []domain.Message{{Role: domain.RoleAssistant, Content: reply, Name: domain.NodeGenerator}},
		Error:       domain.Some(""),
		NextStep:    domain.Some(""),
	})
}

// grounding selects what the reply is based on. Results carried over from earlier
// turns are only used when a node of this run produced or refreshed them.
func grounding(s *domain.State) ports.Grounding {
	g := ports.Grounding{Instructions: generatorPrompt}
	if s.Error != "" {
		g.Error = s.Error
		return g
	}
	if slices.Contains(s.TaskHistory, domain.NodeFlightLookup) || slices.Contains(s.TaskHistory, domain.NodeFlightSearch) {
		g.Flights = s.FlightResults
		if g.Flights == nil {
			g.Flights = []domain.FlightRecord{}
		}
	}
	if slices.Contains(s.TaskHistory, domain.NodeBlogRetrieval) {
		g.Content = s.BlogResults
	}
	return g
}
