package flight

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Query is the structured search intent produced by the flight refinement step.
type Query struct {
	Origin      string `yaml:"origin" validate:"required"`
	Destination string `yaml:"destination" validate:"required"`
	Date        string `yaml:"date" validate:"required"`
	ReturnDate  string `yaml:"return_date,omitempty"`
	// Adults is a pointer so an explicit zero survives decoding; missing means one.
	Adults   *int   `yaml:"adults,omitempty"`
	Children int    `yaml:"children,omitempty"`
	Infants  int    `yaml:"infants,omitempty"`
	Cabin    string `yaml:"cabin,omitempty"`
}

var (
	fencePattern = regexp.MustCompile("(?s)```[a-zA-Z]*\\s*\n(.*?)```")
	validate     = validator.New(validator.WithRequiredStructEnabled())
)

// ParseQuery extracts a Query from a YAML mapping, optionally wrapped in a fenced code block.
func ParseQuery(text string) (Query, error) {
	body := text
	if m := fencePattern.FindStringSubmatch(text); m != nil {
		body = m[1]
	}

	var q Query
	if err := yaml.Unmarshal([]byte(body), &q); err != nil {
		return Query{}, &SearchError{
			Kind:    ErrInvalidQuery,
			Message: "I could not understand the flight details. Please state origin, destination and date.",
			Err:     err,
		}
	}
	q.Origin = strings.TrimSpace(q.Origin)
	q.Destination = strings.TrimSpace(q.Destination)
	q.Date = strings.TrimSpace(q.Date)

	if err := validate.Struct(q); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			missing := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				missing = append(missing, strings.ToLower(fe.Field()))
			}
			return Query{}, &SearchError{
				Kind:    ErrInvalidQuery,
				Message: fmt.Sprintf("The flight request is missing: %s.", strings.Join(missing, ", ")),
				Err:     err,
			}
		}
		return Query{}, fmt.Errorf("failed to validate flight query: %w", err)
	}

	if q.Adults == nil {
		one := 1
		q.Adults = &one
	}
	if q.Cabin == "" {
		q.Cabin = string(CabinEconomy)
	}
	return q, nil
}

// Request converts the query into a live search request.
func (q Query) Request() SearchRequest {
	adults := 1
	if q.Adults != nil {
		adults = *q.Adults
	}
	cabin := q.Cabin
	if cabin == "" {
		cabin = string(CabinEconomy)
	}
	return SearchRequest{
		Origin:        q.Origin,
		Destination:   q.Destination,
		DepartureDate: q.Date,
		ReturnDate:    q.ReturnDate,
		Passengers:    Passengers{Adults: adults, Children: q.Children, Infants: q.Infants},
		Cabin:         cabin,
	}
}

// Encode renders the canonical YAML form of the query.
func (q Query) Encode() (string, error) {
	out, err := yaml.Marshal(q)
	if err != nil {
		return "", fmt.Errorf("failed to encode flight query: %w", err)
	}
	return string(out), nil
}
