/*
Package concierge is a travel assistant built on a bounded graph engine.

A conversation turn runs through a small graph of nodes: a router classifies the latest
user message, a branch refines it and looks up flights or travel content, and a single
generator node composes the reply. Each node returns a directive (a partial state update
plus the next node) and the engine merges updates deterministically while enforcing a
hard step budget. Capability faults never escape a node; they are recorded in the state
and funneled to the generator, so a user always gets an answer.

# Usage

	caps := nodes.Capabilities{
		Classifier: llm,
		Generator:  llm,
		Searcher:   livesearch.New(&livesearch.HTTPFetcher{BaseURL: providerURL}),
		Records:    records,
		Retriever:  retriever,
	}
	assistant, err := concierge.New(caps, concierge.WithLogger(logger))
	if err != nil {
		log.Fatal(err)
	}

	turn, err := assistant.Chat(ctx, "session-1", "flights from Tehran to Mashhad tomorrow")
	if err != nil {
		fmt.Println(concierge.FallbackReply)
		return
	}
	fmt.Println(turn.Reply)

Chat persists the conversation through a ports.StateStore (in memory by default) and
serialises turns of one session. Reply runs a stateless turn over a caller-held history.
*/
package concierge
