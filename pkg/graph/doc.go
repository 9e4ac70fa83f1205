/*
Package graph provides the static graph definition consumed by the execution engine.

A Graph maps node identifiers to node implementations, records the declared edges of
every node and designates a single start node. Graphs are assembled with the fluent
Builder and validated once at Build time, so a run never starts on a malformed graph.

Example usage:

	g, err := graph.New().
		Start("router").
		Add("router", router).To("generator").
		Add("generator", generator).To(domain.End).
		Build()
	if err != nil {
		return err
	}
	fmt.Println(graph.Mermaid(g, nil))
*/
package graph
