package cli

import (
	"github.com/aretw0/concierge/pkg/adapters/livesearch"
	"github.com/aretw0/concierge/pkg/adapters/memory"
	"github.com/aretw0/concierge/pkg/adapters/ollama"
	"github.com/aretw0/concierge/pkg/graph"
	"github.com/aretw0/concierge/pkg/nodes"
)

// StaticGraph compiles the travel graph without connecting to any backend.
func StaticGraph() (*graph.Graph, error) {
	llm := ollama.New()
	return nodes.NewGraph(nodes.Capabilities{
		Classifier: llm,
		Generator:  llm,
		Searcher:   livesearch.New(&livesearch.HTTPFetcher{}),
		Records:    memory.NewRecords(),
		Retriever:  memory.NewRetriever(),
	})
}
