package graph

import (
	"fmt"
	"slices"
	"strings"

	"github.com/aretw0/concierge/pkg/domain"
)

// Builder manages the graph construction.
type Builder struct {
	order  []string
	nodes  map[string]*NodeBuilder
	starts []string
}

// New creates a new graph builder.
func New() *Builder {
	return &Builder{
		nodes: make(map[string]*NodeBuilder),
	}
}

// NodeBuilder provides a fluent API for declaring the edges of a node.
type NodeBuilder struct {
	id      string
	impl    Node
	targets []string
	builder *Builder
}

// Add registers a node implementation under id.
// If the node already exists, its implementation is replaced and the existing builder returned.
func (b *Builder) Add(id string, impl Node) *NodeBuilder {
	if nb, ok := b.nodes[id]; ok {
		nb.impl = impl
		return nb
	}
	nb := &NodeBuilder{id: id, impl: impl, builder: b}
	b.nodes[id] = nb
	b.order = append(b.order, id)
	return nb
}

// Start designates the start node. Calling it more than once is a Build error.
func (b *Builder) Start(id string) *Builder {
	b.starts = append(b.starts, id)
	return b
}

// To declares the targets the node may route to. Duplicates are ignored.
func (n *NodeBuilder) To(targets ...string) *NodeBuilder {
	for _, t := range targets {
		if !slices.Contains(n.targets, t) {
			n.targets = append(n.targets, t)
		}
	}
	return n
}

// Add continues the chain on the parent builder.
func (n *NodeBuilder) Add(id string, impl Node) *NodeBuilder {
	return n.builder.Add(id, impl)
}

// Start continues the chain on the parent builder.
func (n *NodeBuilder) Start(id string) *Builder {
	return n.builder.Start(id)
}

// Build validates the definition and compiles it into an immutable Graph.
func (n *NodeBuilder) Build() (*Graph, error) {
	return n.builder.Build()
}

// Build validates the definition and compiles it into an immutable Graph.
func (b *Builder) Build() (*Graph, error) {
	switch len(b.starts) {
	case 0:
		return nil, fmt.Errorf("%w: no start node", ErrInvalidGraph)
	case 1:
	default:
		return nil, fmt.Errorf("%w: multiple start nodes %v", ErrInvalidGraph, b.starts)
	}
	start := b.starts[0]
	if _, ok := b.nodes[start]; !ok {
		return nil, fmt.Errorf("%w: start node '%s' is not registered", ErrInvalidGraph, start)
	}

	g := &Graph{
		start: start,
		nodes: make(map[string]Node, len(b.nodes)),
		edges: make(map[string][]string, len(b.nodes)),
	}
	for _, id := range b.order {
		nb := b.nodes[id]
		if id == domain.End {
			return nil, fmt.Errorf("%w: '%s' is reserved for the terminal marker", ErrInvalidGraph, id)
		}
		if nb.impl == nil {
			return nil, fmt.Errorf("%w: node '%s' has no implementation", ErrInvalidGraph, id)
		}
		if len(nb.targets) == 0 {
			return nil, fmt.Errorf("%w: node '%s' declares no targets", ErrInvalidGraph, id)
		}
		for _, t := range nb.targets {
			if _, ok := b.nodes[t]; !ok && t != domain.End {
				return nil, fmt.Errorf("%w: node '%s' targets unknown node '%s'", ErrInvalidGraph, id, t)
			}
		}
		g.nodes[id] = nb.impl
		g.edges[id] = slices.Clone(nb.targets)
	}

	if stuck := unreachableEnd(g); len(stuck) > 0 {
		return nil, fmt.Errorf("%w: terminal marker unreachable from [%s]", ErrInvalidGraph, strings.Join(stuck, ", "))
	}
	return g, nil
}

// unreachableEnd walks the edges backwards from the terminal marker and
// returns the sorted ids of every node it never reaches.
func unreachableEnd(g *Graph) []string {
	reverse := make(map[string][]string)
	for from, targets := range g.edges {
		for _, to := range targets {
			reverse[to] = append(reverse[to], from)
		}
	}

	seen := map[string]bool{domain.End: true}
	queue := []string{domain.End}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, prev := range reverse[cur] {
			if !seen[prev] {
				seen[prev] = true
				queue = append(queue, prev)
			}
		}
	}

	var stuck []string
	for id := range g.nodes {
		if !seen[id] {
			stuck = append(stuck, id)
		}
	}
	slices.Sort(stuck)
	return stuck
}
