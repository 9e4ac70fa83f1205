package flight_test

import (
	"testing"
	"time"

	"github.com/aretw0/concierge/pkg/domain"
	"github.com/aretw0/concierge/pkg/flight"
	"github.com/stretchr/testify/assert"
)

func TestFilter_Validate(t *testing.T) {
	now := time.Now()
	tests := []struct {
		name   string
		filter flight.Filter
		valid  bool
	}{
		{name: "empty", filter: flight.Filter{}, valid: true},
		{name: "route", filter: flight.ForRoute([]string{"THR"}, []string{"MHD"}, now), valid: true},
		{name: "unknown field", filter: flight.Filter{}.Where("price", flight.OpEq, "1")},
		{name: "injection as field", filter: flight.Filter{}.Where("airline; DROP TABLE flights", flight.OpEq, "x")},
		{name: "unknown op", filter: flight.Filter{}.Where(flight.FieldAirline, "like", "x")},
		{name: "eq arity", filter: flight.Filter{}.Where(flight.FieldAirline, flight.OpEq, "a", "b")},
		{name: "empty in", filter: flight.Filter{}.Where(flight.FieldAirline, flight.OpIn)},
		{name: "range on string", filter: flight.Filter{}.Where(flight.FieldAirline, flight.OpGte, "a")},
		{name: "string on time", filter: flight.Filter{}.Where(flight.FieldDepartureAt, flight.OpEq, "2025-01-01")},
		{name: "time on string", filter: flight.Filter{}.Where(flight.FieldAirline, flight.OpEq, now)},
		{name: "int value", filter: flight.Filter{}.Where(flight.FieldAirline, flight.OpEq, 1)},
		{name: "negative limit", filter: flight.Filter{Limit: -1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.filter.Validate()
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, flight.ErrInvalidFilter)
			}
		})
	}
}

func TestFilter_Match(t *testing.T) {
	day := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	f := flight.ForRoute([]string{"THR", "IKA"}, []string{"MHD"}, day)

	hit := domain.FlightRecord{OriginCode: "thr", DestCode: "MHD", DepartureAt: day.Add(10 * time.Hour)}
	assert.True(t, f.Match(hit))

	midnight := hit
	midnight.DepartureAt = day
	assert.True(t, f.Match(midnight))

	nextDay := hit
	nextDay.DepartureAt = day.AddDate(0, 0, 1)
	assert.False(t, f.Match(nextDay))

	wrongDest := hit
	wrongDest.DestCode = "SYZ"
	assert.False(t, f.Match(wrongDest))
}

func TestFilter_WhereDoesNotAlias(t *testing.T) {
	base := flight.Filter{}.Where(flight.FieldAirline, flight.OpEq, "Iran Air")
	a := base.Where(flight.FieldDestCode, flight.OpEq, "MHD")
	b := base.Where(flight.FieldDestCode, flight.OpEq, "SYZ")

	assert.Len(t, base.Conditions, 1)
	assert.Equal(t, "MHD", a.Conditions[1].Values[0])
	assert.Equal(t, "SYZ", b.Conditions[1].Values[0])
}
