package livesearch_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/concierge/pkg/adapters/livesearch"
	"github.com/aretw0/concierge/pkg/domain"
	"github.com/aretw0/concierge/pkg/flight"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeFetcher struct {
	mu     sync.Mutex
	calls  []flight.Route
	params []livesearch.Params
	fail   map[string]error
	out    map[string][]domain.FlightRecord
}

func (f *fakeFetcher) Fetch(_ context.Context, r flight.Route, p livesearch.Params) ([]domain.FlightRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, r)
	f.params = append(f.params, p)
	key := r.OriginCode + "-" + r.DestCode
	if err := f.fail[key]; err != nil {
		return nil, err
	}
	return f.out[key], nil
}

var (
	day   = time.Date(2025, 3, 21, 0, 0, 0, 0, time.UTC)
	fixed = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
)

func request() flight.SearchRequest {
	return flight.SearchRequest{
		Origin:        "Tehran",
		Destination:   "Dubai",
		DepartureDate: "1404-01-01",
		Passengers:    flight.Passengers{Adults: 1},
		Cabin:         "economy",
	}
}

func TestSearcher_Search(t *testing.T) {
	f := &fakeFetcher{out: map[string][]domain.FlightRecord{
		"THR-DXB": {{Airline: "Emirates", FlightNumber: "EK980", OriginCode: "THR", DestCode: "DXB", DepartureAt: day.Add(10 * time.Hour)}},
		"THR-DWC": {{Airline: "flydubai", FlightNumber: "FZ1", OriginCode: "THR", DestCode: "DWC", DepartureAt: day.Add(6 * time.Hour)}},
	}}
	s := livesearch.New(f, livesearch.WithClock(func() time.Time { return fixed }))

	got, err := s.Search(context.Background(), request())
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "FZ1", got[0].FlightNumber, "ordered by departure")
	assert.Equal(t, "Tehran", got[0].OriginCity)
	assert.Equal(t, "Dubai", got[0].DestCity)
	assert.Equal(t, fixed, got[0].CreatedAt)

	for _, r := range f.calls {
		assert.NotEqual(t, "IKA", r.OriginCode, "IKA is skipped by default")
	}
	assert.Len(t, f.calls, 2)
	assert.Equal(t, day, f.params[0].Departure)
	assert.Equal(t, flight.CabinEconomy, f.params[0].Cabin)
	assert.Equal(t, flight.TripOneWay, f.params[0].Trip)
}

func TestSearcher_SkipOriginsConfigurable(t *testing.T) {
	f := &fakeFetcher{}
	s := livesearch.New(f, livesearch.WithSkipOrigins())

	got, err := s.Search(context.Background(), request())
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
	assert.Len(t, f.calls, 4)
}

func TestSearcher_PartialFailure(t *testing.T) {
	f := &fakeFetcher{
		fail: map[string]error{"THR-DXB": errors.New("provider timeout")},
		out: map[string][]domain.FlightRecord{
			"THR-DWC": {{FlightNumber: "FZ1", OriginCode: "THR", DestCode: "DWC", DepartureAt: day}},
		},
	}
	got, err := livesearch.New(f).Search(context.Background(), request())
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "FZ1", got[0].FlightNumber)
}

func TestSearcher_AllRoutesFail(t *testing.T) {
	boom := errors.New("provider down")
	f := &fakeFetcher{fail: map[string]error{"THR-DXB": boom, "THR-DWC": boom}}

	_, err := livesearch.New(f).Search(context.Background(), request())
	var ce *domain.CapabilityError
	require.ErrorAs(t, err, &ce)
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, flight.ErrFlightSearch)
}

func TestSearcher_ValidationFaults(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*flight.SearchRequest)
		kind   error
	}{
		{"cabin", func(r *flight.SearchRequest) { r.Cabin = "premium" }, flight.ErrInvalidCabinClass},
		{"airport", func(r *flight.SearchRequest) { r.Destination = "Atlantis" }, flight.ErrInvalidAirportCode},
		{"date", func(r *flight.SearchRequest) { r.DepartureDate = "tomorrow" }, flight.ErrDateConversion},
		{"passengers", func(r *flight.SearchRequest) { r.Passengers.Infants = 2 }, flight.ErrInvalidPassengerCount},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &fakeFetcher{}
			req := request()
			tt.mutate(&req)

			_, err := livesearch.New(f).Search(context.Background(), req)
			assert.ErrorIs(t, err, tt.kind)
			assert.ErrorIs(t, err, flight.ErrFlightSearch)
			assert.Empty(t, f.calls, "nothing is fetched for an invalid request")
		})
	}
}

func TestSearcher_RoundTrip(t *testing.T) {
	f := &fakeFetcher{}
	req := request()
	req.ReturnDate = "2025-03-28"

	_, err := livesearch.New(f).Search(context.Background(), req)
	require.NoError(t, err)
	require.NotEmpty(t, f.params)
	assert.Equal(t, flight.TripRoundTrip, f.params[0].Trip)
	assert.Equal(t, time.Date(2025, 3, 28, 0, 0, 0, 0, time.UTC), f.params[0].Return)
}

func TestHTTPFetcher(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/flights", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "THR", q.Get("origin"))
		assert.Equal(t, "DXB", q.Get("destination"))
		assert.Equal(t, "2025-03-21", q.Get("date"))
		assert.Equal(t, "Business", q.Get("cabin"))
		assert.Empty(t, q.Get("return_date"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"flights":[{"airline":"Mahan","flight_number":"W5 063","departure_at":"2025-03-21T11:45:00+03:30"}]}`))
	}))
	defer srv.Close()

	f := &livesearch.HTTPFetcher{BaseURL: srv.URL + "/"}
	got, err := f.Fetch(context.Background(), flight.Route{OriginCode: "THR", DestCode: "DXB"}, livesearch.Params{
		Departure:  day,
		Trip:       flight.TripOneWay,
		Cabin:      flight.CabinBusiness,
		Passengers: flight.Passengers{Adults: 2},
	})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "W5 063", got[0].FlightNumber)
	assert.Equal(t, "THR", got[0].OriginCode)
	assert.Equal(t, time.Date(2025, 3, 21, 8, 15, 0, 0, time.UTC), got[0].DepartureAt)
}

func TestHTTPFetcher_Status(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "blocked", http.StatusForbidden)
	}))
	defer srv.Close()

	f := &livesearch.HTTPFetcher{BaseURL: srv.URL}
	_, err := f.Fetch(context.Background(), flight.Route{OriginCode: "THR", DestCode: "DXB"}, livesearch.Params{Departure: day})
	assert.ErrorContains(t, err, "403")
}
