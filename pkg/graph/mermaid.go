package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/concierge/pkg/domain"
)

// Overlay contains run data to visualize on the graph.
type Overlay struct {
	VisitedNodes []string
	CurrentNode  string
}

// OverlayFromState highlights the nodes a finished run went through.
func OverlayFromState(s *domain.State) *Overlay {
	if s == nil || len(s.TaskHistory) == 0 {
		return nil
	}
	return &Overlay{
		VisitedNodes: s.TaskHistory,
		CurrentNode:  s.TaskHistory[len(s.TaskHistory)-1],
	}
}

// Mermaid produces a Mermaid flowchart for the graph.
// The start node is drawn as a circle, the generator as a subroutine, and every
// edge to the terminal marker points at a shared END node.
func Mermaid(g *Graph, overlay *Overlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	for _, id := range g.Nodes() {
		safeID := sanitizeMermaidID(id)

		opener, closer := "[", "]"
		switch {
		case id == g.Start():
			opener, closer = "((", "))"
		case id == domain.NodeGenerator:
			opener, closer = "[[", "]]"
		}
		sb.WriteString(fmt.Sprintf("    %s%s\"%s\"%s\n", safeID, opener, id, closer))

		for _, to := range g.Targets(id) {
			if to == domain.End {
				sb.WriteString(fmt.Sprintf("    %s --> END\n", safeID))
				continue
			}
			arrow := "-->"
			if to == domain.NodeGenerator && id != g.Start() && len(g.Targets(id)) > 1 {
				arrow = "-. \"error\" .->"
			}
			sb.WriteString(fmt.Sprintf("    %s %s %s\n", safeID, arrow, sanitizeMermaidID(to)))
		}
	}
	sb.WriteString("    END((\"end\"))\n")

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		sb.WriteString("    classDef visited fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")

		visited := make(map[string]bool)
		for _, id := range overlay.VisitedNodes {
			if _, ok := g.Node(id); !ok {
				continue
			}
			safeID := sanitizeMermaidID(id)
			if !visited[safeID] {
				visited[safeID] = true
				sb.WriteString(fmt.Sprintf("    class %s visited;\n", safeID))
			}
		}
		if overlay.CurrentNode != "" {
			sb.WriteString(fmt.Sprintf("    class %s current;\n", sanitizeMermaidID(overlay.CurrentNode)))
		}
	}

	return sb.String()
}

func sanitizeMermaidID(id string) string {
	r := strings.NewReplacer(".", "_", "-", "_", "/", "_", "\\", "_", " ", "_")
	return r.Replace(id)
}
