package domain

import "time"

// Role identifies the author class of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one entry in the conversation transcript.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
	// Name tags the node (or agent) that authored the message, if any.
	Name string `json:"name,omitempty"`
}

// FlightRecord is a single flight as produced by the search and storage collaborators.
type FlightRecord struct {
	Airline      string    `json:"airline"`
	DepartureAt  time.Time `json:"departure_at"`
	FlightNumber string    `json:"flight_number"`
	OriginCity   string    `json:"origin_city,omitempty"`
	OriginCode   string    `json:"origin_code"`
	DestCity     string    `json:"dest_city,omitempty"`
	DestCode     string    `json:"dest_code"`
	CreatedAt    time.Time `json:"created_at"`
}

// Passage is a retrieved piece of indexed travel content.
type Passage struct {
	Text      string  `json:"text"`
	SourceURL string  `json:"source_url"`
	Title     string  `json:"title,omitempty"`
	Score     float64 `json:"score,omitempty"`
}

// ContentAnswer is the grounded answer produced by the content branch.
type ContentAnswer struct {
	Answer  string    `json:"answer"`
	Sources []Passage `json:"sources,omitempty"`
}

// State represents the conversation state of one run.
// It is owned by the engine for the duration of the run and never shared across runs.
type State struct {
	SessionID string `json:"session_id,omitempty"`

	// Messages is append-only within a run.
	Messages []Message `json:"messages"`

	// TaskHistory lists the node identifiers that executed, in order.
	TaskHistory []string `json:"task_history"`

	// FlightResults is nil when no lookup happened; an empty slice means "looked up, nothing found".
	FlightResults []FlightRecord `json:"flight_results,omitempty"`

	BlogResults *ContentAnswer `json:"blog_results,omitempty"`

	// Error is a user-facing fault description. When set, the next hop must target the generator.
	Error string `json:"error,omitempty"`

	// NextStep is an informational routing hint.
	NextStep string `json:"next_step,omitempty"`

	// RemainingSteps is decremented by the engine once per hop.
	RemainingSteps int `json:"remaining_steps"`
}

// NewState creates a clean state for a session with the given transcript.
func NewState(sessionID string, messages ...Message) *State {
	s := &State{
		SessionID:   sessionID,
		Messages:    make([]Message, 0, len(messages)+4),
		TaskHistory: []string{},
	}
	s.Messages = append(s.Messages, messages...)
	return s
}

// NewTurn builds the state of a new conversation turn from the previous turn's final state.
// Prior messages and results are carried over as routing context; task history, error
// and next step start empty.
func NewTurn(prev *State, sessionID, input string) *State {
	next := NewState(sessionID)
	if prev != nil {
		carried := prev.Clone()
		next.Messages = append(next.Messages, carried.Messages...)
		next.FlightResults = carried.FlightResults
		next.BlogResults = carried.BlogResults
	}
	next.Messages = append(next.Messages, Message{Role: RoleUser, Content: input})
	return next
}

// LastMessage returns the most recent message and false if the transcript is empty.
func (s *State) LastMessage() (Message, bool) {
	if len(s.Messages) == 0 {
		return Message{}, false
	}
	return s.Messages[len(s.Messages)-1], true
}

// LastUserMessage returns the most recent user-authored message.
func (s *State) LastUserMessage() (Message, bool) {
	for i := len(s.Messages) - 1; i >= 0; i-- {
		if s.Messages[i].Role == RoleUser {
			return s.Messages[i], true
		}
	}
	return Message{}, false
}

// Clone returns a deep copy of the state, so a node can read it without aliasing the engine's copy.
func (s *State) Clone() *State {
	if s == nil {
		return nil
	}
	next := *s
	next.Messages = append([]Message(nil), s.Messages...)
	next.TaskHistory = append([]string(nil), s.TaskHistory...)
	if next.TaskHistory == nil {
		next.TaskHistory = []string{}
	}
	if s.FlightResults != nil {
		next.FlightResults = append(make([]FlightRecord, 0, len(s.FlightResults)), s.FlightResults...)
	}
	if s.BlogResults != nil {
		answer := *s.BlogResults
		answer.Sources = append([]Passage(nil), s.BlogResults.Sources...)
		next.BlogResults = &answer
	}
	return &next
}
