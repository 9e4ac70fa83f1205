package graph

import (
	"context"
	"errors"
	"slices"

	"github.com/aretw0/concierge/pkg/domain"
)

// ErrInvalidGraph is returned by Build when the definition violates a structural rule.
var ErrInvalidGraph = errors.New("invalid graph")

// Node is one discrete processing step.
// It receives a snapshot of the state and returns a directive; it must not mutate the snapshot.
type Node interface {
	Run(ctx context.Context, state *domain.State) domain.Directive
}

// NodeFunc adapts an ordinary function to the Node interface.
type NodeFunc func(ctx context.Context, state *domain.State) domain.Directive

// Run calls f(ctx, state).
func (f NodeFunc) Run(ctx context.Context, state *domain.State) domain.Directive {
	return f(ctx, state)
}

// Graph is an immutable, validated graph definition.
type Graph struct {
	start string
	nodes map[string]Node
	edges map[string][]string
}

// Start returns the identifier of the start node.
func (g *Graph) Start() string {
	return g.start
}

// Node returns the implementation registered under id.
func (g *Graph) Node(id string) (Node, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

// CanRoute reports whether to is a declared target of from.
func (g *Graph) CanRoute(from, to string) bool {
	return slices.Contains(g.edges[from], to)
}

// Targets returns a copy of the declared targets of a node, in declaration order.
func (g *Graph) Targets(id string) []string {
	return slices.Clone(g.edges[id])
}

// Nodes returns every node identifier, sorted.
func (g *Graph) Nodes() []string {
	ids := make([]string, 0, len(g.nodes))
	for id := range g.nodes {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}
