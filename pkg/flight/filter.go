package flight

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/aretw0/concierge/pkg/domain"
)

// Field is a queryable attribute of a stored flight record.
type Field string

const (
	FieldAirline      Field = "airline"
	FieldFlightNumber Field = "flight_number"
	FieldOriginCity   Field = "origin_city"
	FieldOriginCode   Field = "origin_code"
	FieldDestCity     Field = "dest_city"
	FieldDestCode     Field = "dest_code"
	FieldDepartureAt  Field = "departure_at"
	FieldCreatedAt    Field = "created_at"
)

// IsTime reports whether the field holds a timestamp.
func (f Field) IsTime() bool {
	return f == FieldDepartureAt || f == FieldCreatedAt
}

// Known reports whether f is part of the closed field set.
func (f Field) Known() bool {
	switch f {
	case FieldAirline, FieldFlightNumber, FieldOriginCity, FieldOriginCode,
		FieldDestCity, FieldDestCode, FieldDepartureAt, FieldCreatedAt:
		return true
	}
	return false
}

// Op is a comparison operator.
type Op string

const (
	OpEq  Op = "eq"
	OpIn  Op = "in"
	OpGte Op = "gte"
	OpLt  Op = "lt"
)

// Condition compares one field against a list of values.
// String fields take string values and compare case-insensitively; time fields take time.Time.
type Condition struct {
	Field  Field
	Op     Op
	Values []any
}

// Filter is a conjunction of conditions.
type Filter struct {
	Conditions []Condition
	// Limit caps the result size. Zero means unlimited.
	Limit int
}

// Where appends a condition.
func (f Filter) Where(field Field, op Op, values ...any) Filter {
	f.Conditions = append(slices.Clone(f.Conditions), Condition{Field: field, Op: op, Values: values})
	return f
}

// ForRoute builds the lookup filter of one search: any origin airport, any destination
// airport, departing on the given day (UTC).
func ForRoute(origins, dests []string, day time.Time) Filter {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	return Filter{}.
		Where(FieldOriginCode, OpIn, toAny(origins)...).
		Where(FieldDestCode, OpIn, toAny(dests)...).
		Where(FieldDepartureAt, OpGte, start).
		Where(FieldDepartureAt, OpLt, start.AddDate(0, 0, 1))
}

func toAny(values []string) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}

// Validate checks every condition against the closed field and operator sets.
func (f Filter) Validate() error {
	if f.Limit < 0 {
		return fmt.Errorf("%w: negative limit %d", ErrInvalidFilter, f.Limit)
	}
	for i, c := range f.Conditions {
		if err := c.validate(); err != nil {
			return fmt.Errorf("%w: condition %d: %v", ErrInvalidFilter, i, err)
		}
	}
	return nil
}

func (c Condition) validate() error {
	if !c.Field.Known() {
		return fmt.Errorf("unknown field '%s'", c.Field)
	}
	switch c.Op {
	case OpEq, OpGte, OpLt:
		if len(c.Values) != 1 {
			return fmt.Errorf("operator '%s' takes exactly one value, got %d", c.Op, len(c.Values))
		}
	case OpIn:
		if len(c.Values) == 0 {
			return fmt.Errorf("operator 'in' needs at least one value")
		}
	default:
		return fmt.Errorf("unknown operator '%s'", c.Op)
	}
	if (c.Op == OpGte || c.Op == OpLt) && !c.Field.IsTime() {
		return fmt.Errorf("operator '%s' only applies to time fields", c.Op)
	}
	for _, v := range c.Values {
		switch v.(type) {
		case time.Time:
			if !c.Field.IsTime() {
				return fmt.Errorf("field '%s' expects a string value", c.Field)
			}
		case string:
			if c.Field.IsTime() {
				return fmt.Errorf("field '%s' expects a time value", c.Field)
			}
		default:
			return fmt.Errorf("unsupported value type %T", v)
		}
	}
	return nil
}

// Match evaluates the filter against a record. The filter must be valid.
func (f Filter) Match(rec domain.FlightRecord) bool {
	for _, c := range f.Conditions {
		if !c.match(rec) {
			return false
		}
	}
	return true
}

func (c Condition) match(rec domain.FlightRecord) bool {
	if c.Field.IsTime() {
		got := rec.DepartureAt
		if c.Field == FieldCreatedAt {
			got = rec.CreatedAt
		}
		return slices.ContainsFunc(c.Values, func(v any) bool {
			want, _ := v.(time.Time)
			switch c.Op {
			case OpGte:
				return !got.Before(want)
			case OpLt:
				return got.Before(want)
			default:
				return got.Equal(want)
			}
		})
	}

	got := StringField(rec, c.Field)
	return slices.ContainsFunc(c.Values, func(v any) bool {
		want, _ := v.(string)
		return strings.EqualFold(got, want)
	})
}

// StringField reads a string attribute of a record.
func StringField(rec domain.FlightRecord, f Field) string {
	switch f {
	case FieldAirline:
		return rec.Airline
	case FieldFlightNumber:
		return rec.FlightNumber
	case FieldOriginCity:
		return rec.OriginCity
	case FieldOriginCode:
		return rec.OriginCode
	case FieldDestCity:
		return rec.DestCity
	case FieldDestCode:
		return rec.DestCode
	}
	return ""
}
