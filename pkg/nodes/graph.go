package nodes

import (
	"github.com/aretw0/concierge/pkg/domain"
	"github.com/aretw0/concierge/pkg/graph"
)

// NewGraph wires the travel assistant:
//
//	router -> flight_prompt -> flight_lookup -> flight_search -> generator -> END
//	       -> blog_prompt -> blog_retrieval -> generator
//	       -> generator
//
// Every node may also route to the generator on a fault.
func NewGraph(caps Capabilities) (*graph.Graph, error) {
	if err := caps.validate(); err != nil {
		return nil, err
	}
	caps = caps.withDefaults()

	return graph.New().
		Add(domain.NodeRouter, &router{caps: caps}).
		To(domain.NodeFlightPrompt, domain.NodeBlogPrompt, domain.NodeGenerator).
		Add(domain.NodeFlightPrompt, newFlightPrompt(caps)).
		To(domain.NodeFlightLookup, domain.NodeGenerator).
		Add(domain.NodeFlightLookup, &lookup{caps: caps}).
		To(domain.NodeFlightSearch, domain.NodeGenerator).
		Add(domain.NodeFlightSearch, &search{caps: caps}).
		To(domain.NodeGenerator).
		Add(domain.NodeBlogPrompt, newBlogPrompt(caps)).
		To(domain.NodeBlogRetrieval, domain.NodeGenerator).
		Add(domain.NodeBlogRetrieval, &retrieval{caps: caps}).
		To(domain.NodeGenerator).
		Add(domain.NodeGenerator, &generator{caps: caps}).
		To(domain.End).
		Start(domain.NodeRouter).
		Build()
}
