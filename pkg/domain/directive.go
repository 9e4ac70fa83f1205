package domain

// End is the terminal marker. A directive targeting End finishes the run.
const End = "__end__"

// Node identifiers of the travel assistant graph.
const (
	NodeRouter        = "router"
	NodeFlightPrompt  = "flight_prompt"
	NodeFlightLookup  = "flight_lookup"
	NodeFlightSearch  = "flight_search"
	NodeBlogPrompt    = "blog_prompt"
	NodeBlogRetrieval = "blog_retrieval"
	NodeGenerator     = "generator"
)

// Directive is the value a node returns: a partial update plus exactly one target.
type Directive struct {
	Update Update
	Goto   string
}

// Goto builds a directive targeting the given node.
func Goto(target string, update Update) Directive {
	return Directive{Update: update, Goto: target}
}

// Fail builds the directive every node uses to funnel a fault to the generator.
// The failing node is still recorded in the task history.
func Fail(nodeID, message string) Directive {
	return Directive{
		Update: Update{
			TaskHistory: []string{nodeID},
			Error:       Some(message),
		},
		Goto: NodeGenerator,
	}
}

// IsTerminal reports whether the directive ends the run.
func (d Directive) IsTerminal() bool {
	return d.Goto == End
}
