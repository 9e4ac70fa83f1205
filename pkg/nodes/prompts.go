package nodes

import (
	"fmt"
	"time"

	"github.com/aretw0/concierge/pkg/flight"
)

// Fixed user-facing texts.
const (
	NotRelevantError = "The user asked a question that is not relevant to the system."
	ApologyReply     = "I'm sorry, I could not put together an answer right now. Please try again in a moment."
)

const blogPrompt = `Rewrite the latest user message as a short standalone search query about travel content.
Keep the user's language. Drop greetings and filler. Answer with the query only.`

const retrievalPrompt = `Answer the user's travel question using only the sources below.
Cite the URL of every source you use. If the sources do not answer the question, say so.`

const generatorPrompt = `You are a friendly travel assistant. Write the reply to the user in their language.
List flights with airline, flight number, route and departure time when flights are given.
Summarise the travel content answer and keep its source links when one is given.
When an error is given, explain it and tell the user what to change.`

func flightPrompt(today time.Time) string {
	return fmt.Sprintf(`Rewrite the latest user message as a flight search in YAML, with these keys:
origin, destination, date, return_date, adults, children, infants, cabin.
Today is %s (%s in the Solar Hijri calendar). Resolve relative dates such as "tomorrow" against it
and write dates as YYYY-MM-DD in the calendar the user used. Use city names for origin and destination.
Omit keys the user did not mention. Cabin is one of Economy, Business, First.
Answer with the YAML only.`, today.Format(flight.DateLayout), flight.FormatJalali(today))
}
