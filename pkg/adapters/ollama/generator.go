package ollama

import (
	"context"
	"fmt"
	"strings"

	"github.com/aretw0/concierge/pkg/ports"
)

// Generate answers the conversation grounded on g.
func (c *Client) Generate(ctx context.Context, conv ports.Conversation, g ports.Grounding) (string, error) {
	msgs := make([]chatMessage, 0, len(conv.Messages)+1)
	if sys := RenderGrounding(g); sys != "" {
		msgs = append(msgs, chatMessage{Role: "system", Content: sys})
	}
	msgs = append(msgs, toChatMessages(conv.Messages)...)

	out, err := c.chat(ctx, chatRequest{Messages: msgs})
	if err != nil {
		return "", err
	}
	if out == "" {
		return "", fmt.Errorf("ollama returned an empty reply")
	}
	return out, nil
}

// RenderGrounding turns the grounding into the system prompt of a generation call.
func RenderGrounding(g ports.Grounding) string {
	var b strings.Builder
	if g.Instructions != "" {
		b.WriteString(g.Instructions)
		b.WriteString("\n")
	}
	if g.Error != "" {
		fmt.Fprintf(&b, "\nThe request could not be completed: %s\nExplain this to the user politely.\n", g.Error)
	}
	if g.Flights != nil {
		if len(g.Flights) == 0 {
			b.WriteString("\nNo flights were found.\n")
		} else {
			b.WriteString("\nFlights:\n")
			for _, f := range g.Flights {
				fmt.Fprintf(&b, "- %s %s from %s (%s) to %s (%s) departing %s\n",
					f.Airline, f.FlightNumber, f.OriginCity, f.OriginCode, f.DestCity, f.DestCode,
					f.DepartureAt.Format("2006-01-02 15:04"))
			}
		}
	}
	if len(g.Passages) > 0 {
		b.WriteString("\nSources:\n")
		for i, p := range g.Passages {
			fmt.Fprintf(&b, "[%d] %s\n%s\n", i+1, p.SourceURL, p.Text)
		}
	}
	if g.Content != nil && g.Content.Answer != "" {
		fmt.Fprintf(&b, "\nTravel content answer:\n%s\n", g.Content.Answer)
		for _, s := range g.Content.Sources {
			fmt.Fprintf(&b, "Source: %s\n", s.SourceURL)
		}
	}
	return strings.TrimSpace(b.String())
}
