package ollama

import (
	"context"
	"fmt"
	"strings"

	"github.com/aretw0/concierge/internal/xjson"
	"github.com/aretw0/concierge/pkg/ports"
)

const classifierPrompt = `You are the supervisor of a travel assistant. Decide which team handles the latest user message.
- flight_team: searching, comparing or booking flights.
- blog_team: travel destinations, attractions, visas, itineraries and other travel content.
- non_relevant: anything unrelated to travel.
Answer with a JSON object of the form {"destination": "<team>"} and nothing else.`

type classification struct {
	Destination string  `json:"destination"`
	Confidence  float64 `json:"confidence,omitempty"`
}

// classifierSystem appends the results already shown to the user, so follow-up
// questions about them route to the team that produced them.
func classifierSystem(conv ports.Conversation) string {
	if conv.FlightResults == nil && conv.BlogResults == nil {
		return classifierPrompt
	}
	prior := RenderGrounding(ports.Grounding{Flights: conv.FlightResults, Content: conv.BlogResults})
	return classifierPrompt + "\n\nResults already given in this conversation:\n" + prior
}

// Classify asks the chat model for a routing decision in JSON mode.
// The destination is returned as answered; the router decides what an unknown value means.
func (c *Client) Classify(ctx context.Context, conv ports.Conversation) (ports.Classification, error) {
	msgs := append([]chatMessage{{Role: "system", Content: classifierSystem(conv)}}, toChatMessages(conv.Messages)...)
	out, err := c.chat(ctx, chatRequest{
		Messages: msgs,
		Format:   "json",
		Options:  map[string]any{"temperature": 0},
	})
	if err != nil {
		return ports.Classification{}, err
	}

	var cls classification
	if err := xjson.Unmarshal([]byte(out), &cls); err != nil {
		return ports.Classification{}, fmt.Errorf("invalid classification %q: %w", out, err)
	}
	return ports.Classification{
		Destination: ports.Destination(strings.ToLower(strings.TrimSpace(cls.Destination))),
		Confidence:  cls.Confidence,
	}, nil
}
