package livesearch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/aretw0/concierge/internal/xjson"
	"github.com/aretw0/concierge/pkg/domain"
	"github.com/aretw0/concierge/pkg/flight"
)

// Fetcher retrieves the flights of one airport pair from a booking provider.
type Fetcher interface {
	Fetch(ctx context.Context, route flight.Route, q Params) ([]domain.FlightRecord, error)
}

// Params are the per-search values shared by every route.
type Params struct {
	Departure  time.Time
	Return     time.Time
	Trip       flight.TripType
	Cabin      flight.Cabin
	Passengers flight.Passengers
}

// HTTPFetcher queries a provider exposing flights as JSON:
//
//	GET {base}/flights?origin=IKA&destination=DXB&date=2025-03-21&adults=1&cabin=Economy
//	{"flights": [{"airline": "...", "flight_number": "...", "departure_at": "2025-03-21T08:30:00Z"}]}
type HTTPFetcher struct {
	BaseURL string
	Client  *http.Client
}

type providerFlight struct {
	Airline      string    `json:"airline"`
	FlightNumber string    `json:"flight_number"`
	DepartureAt  time.Time `json:"departure_at"`
}

type providerResponse struct {
	Flights []providerFlight `json:"flights"`
}

// Fetch implements Fetcher.
func (f *HTTPFetcher) Fetch(ctx context.Context, route flight.Route, p Params) ([]domain.FlightRecord, error) {
	v := url.Values{}
	v.Set("origin", route.OriginCode)
	v.Set("destination", route.DestCode)
	v.Set("date", p.Departure.Format(flight.DateLayout))
	if p.Trip == flight.TripRoundTrip {
		v.Set("return_date", p.Return.Format(flight.DateLayout))
	}
	v.Set("adults", strconv.Itoa(p.Passengers.Adults))
	v.Set("children", strconv.Itoa(p.Passengers.Children))
	v.Set("infants", strconv.Itoa(p.Passengers.Infants))
	v.Set("cabin", string(p.Cabin))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimRight(f.BaseURL, "/")+"/flights?"+v.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating provider request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling provider: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("provider returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var pr providerResponse
	if err := xjson.NewDecoder(resp.Body).Decode(&pr); err != nil {
		return nil, fmt.Errorf("decoding provider response: %w", err)
	}
	out := make([]domain.FlightRecord, 0, len(pr.Flights))
	for _, pf := range pr.Flights {
		out = append(out, domain.FlightRecord{
			Airline:      pf.Airline,
			FlightNumber: pf.FlightNumber,
			DepartureAt:  pf.DepartureAt.UTC(),
			OriginCode:   route.OriginCode,
			DestCode:     route.DestCode,
		})
	}
	return out, nil
}
