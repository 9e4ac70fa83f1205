package flight

import (
	"errors"
	"fmt"
)

// ErrFlightSearch is the root of every flight search validation fault.
var ErrFlightSearch = errors.New("flight search error")

var (
	ErrInvalidCabinClass     = errors.New("invalid cabin class")
	ErrInvalidPassengerCount = errors.New("invalid passenger count")
	ErrInvalidAirportCode    = errors.New("invalid airport code")
	ErrDateConversion        = errors.New("date conversion failed")
	ErrInvalidQuery          = errors.New("invalid flight query")
	ErrInvalidFilter         = errors.New("invalid filter")
)

// SearchError is a domain validation fault. Its message is safe to show to the user.
type SearchError struct {
	Kind    error
	Message string
	Err     error
}

func newSearchError(kind error, format string, args ...any) *SearchError {
	return &SearchError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func (e *SearchError) Error() string {
	return e.Message
}

func (e *SearchError) Unwrap() error {
	return e.Err
}

// Is matches both the specific kind and ErrFlightSearch.
func (e *SearchError) Is(target error) bool {
	return target == ErrFlightSearch || target == e.Kind
}
