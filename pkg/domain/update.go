package domain

// Opt is an optional field of a partial update.
// A zero Opt leaves the state untouched; a set Opt replaces the field wholesale,
// including with its zero value (which is how a field is cleared).
type Opt[T any] struct {
	Set   bool
	Value T
}

// Some marks a value to be written by the reducer.
func Some[T any](v T) Opt[T] {
	return Opt[T]{Set: true, Value: v}
}

// Update is a partial state update emitted by a node.
type Update struct {
	// Appended to State.Messages in order.
	Messages []Message
	// Appended to State.TaskHistory in order.
	TaskHistory []string

	FlightResults Opt[[]FlightRecord]
	BlogResults   Opt[*ContentAnswer]
	Error         Opt[string]
	NextStep      Opt[string]
}

// IsZero reports whether the update carries no change at all.
func (u Update) IsZero() bool {
	return len(u.Messages) == 0 && len(u.TaskHistory) == 0 &&
		!u.FlightResults.Set && !u.BlogResults.Set && !u.Error.Set && !u.NextStep.Set
}

// Apply merges an update into the state using the per-field reducer table:
// messages and task history are append-only, every other field is last-writer-wins.
// All fields are applied before Apply returns.
func (s *State) Apply(u Update) {
	if len(u.Messages) > 0 {
		s.Messages = append(s.Messages, u.Messages...)
	}
	if len(u.TaskHistory) > 0 {
		s.TaskHistory = append(s.TaskHistory, u.TaskHistory...)
	}
	if u.FlightResults.Set {
		if u.FlightResults.Value == nil {
			s.FlightResults = nil
		} else {
			s.FlightResults = append(make([]FlightRecord, 0, len(u.FlightResults.Value)), u.FlightResults.Value...)
		}
	}
	if u.BlogResults.Set {
		s.BlogResults = u.BlogResults.Value
	}
	if u.Error.Set {
		s.Error = u.Error.Value
	}
	if u.NextStep.Set {
		s.NextStep = u.NextStep.Value
	}
}
