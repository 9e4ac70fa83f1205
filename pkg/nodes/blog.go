package nodes

import (
	"context"

	"github.com/aretw0/concierge/pkg/domain"
	"github.com/aretw0/concierge/pkg/ports"
)

type retrieval struct {
	caps Capabilities
}

// Run looks up passages for the refined query and composes a cited answer.
func (n *retrieval) Run(ctx context.Context, s *domain.State) domain.Directive {
	query := latestFrom(s, domain.NodeBlogPrompt)
	passages, err := call(ctx, n.caps, "content search", "similarity_search", func(ctx context.Context) ([]domain.Passage, error) {
		return n.caps.Retriever.SimilaritySearch(ctx, query, n.caps.TopK)
	})
	if err != nil {
		n.caps.Logger.Warn("similarity search failed", "node", domain.NodeBlogRetrieval, "error", err)
		return domain.Fail(domain.NodeBlogRetrieval, describe(err))
	}

	answer, err := call(ctx, n.caps, "generator", "answer", func(ctx context.Context) (string, error) {
		return n.caps.Generator.Generate(ctx, ports.ConversationOf(s), ports.Grounding{
			Instructions: retrievalPrompt,
			Passages:     passages,
		})
	})
	if err != nil {
		n.caps.Logger.Warn("grounded answer failed", "node", domain.NodeBlogRetrieval, "error", err)
		return domain.Fail(domain.NodeBlogRetrieval, describe(err))
	}

	return domain.Goto(domain.NodeGenerator, domain.Update{
		TaskHistory: []string{domain.NodeBlogRetrieval},
		BlogResults: domain.Some(&domain.ContentAnswer{Answer: answer, Sources: passages}),
		Messages:    []domain.Message{{Role: domain.RoleAssistant, Content: answer, Name: domain.NodeBlogRetrieval}},
		NextStep:    domain.Some("generate"),
	})
}
