package flight

import (
	"slices"
	"strings"
	"time"
)

// Cabin is a class of service.
type Cabin string

const (
	CabinEconomy  Cabin = "Economy"
	CabinBusiness Cabin = "Business"
	CabinFirst    Cabin = "First"
)

// Cabins lists the accepted classes of service.
var Cabins = []Cabin{CabinEconomy, CabinBusiness, CabinFirst}

// ParseCabin accepts any casing of a known cabin.
func ParseCabin(s string) (Cabin, error) {
	for _, c := range Cabins {
		if strings.EqualFold(strings.TrimSpace(s), string(c)) {
			return c, nil
		}
	}
	return "", newSearchError(ErrInvalidCabinClass, "Invalid flight class '%s'. Must be one of Economy, Business, First.", s)
}

// TripType is derived from the presence of a return date.
type TripType string

const (
	TripOneWay    TripType = "oneway"
	TripRoundTrip TripType = "roundtrip"
)

// Passengers is the passenger composition of a search.
type Passengers struct {
	Adults   int `json:"adults" yaml:"adults"`
	Children int `json:"children" yaml:"children"`
	Infants  int `json:"infants" yaml:"infants"`
}

// Validate enforces the composition rules of the booking provider.
func (p Passengers) Validate() error {
	switch {
	case p.Adults < 1:
		return newSearchError(ErrInvalidPassengerCount, "At least one adult must be present.")
	case p.Children < 0 || p.Infants < 0:
		return newSearchError(ErrInvalidPassengerCount, "Passenger counts cannot be negative.")
	case p.Adults+p.Children >= 10:
		return newSearchError(ErrInvalidPassengerCount, "The total number of adults and children must be less than 10.")
	case p.Infants > p.Adults:
		return newSearchError(ErrInvalidPassengerCount, "The number of infants cannot exceed the number of adults.")
	}
	return nil
}

// SearchRequest is the input of a live flight search.
// Origin and Destination are city names; dates may be Gregorian or Jalali.
type SearchRequest struct {
	Origin        string
	Destination   string
	DepartureDate string
	ReturnDate    string
	Passengers    Passengers
	Cabin         string
}

// Trip reports whether the request is a round trip.
func (r SearchRequest) Trip() TripType {
	if strings.TrimSpace(r.ReturnDate) != "" {
		return TripRoundTrip
	}
	return TripOneWay
}

// Validate checks cabin and passenger rules. Airports and dates are checked by Resolve.
func (r SearchRequest) Validate() error {
	if _, err := ParseCabin(r.Cabin); err != nil {
		return err
	}
	return r.Passengers.Validate()
}

// Route is one airport pair of a resolved search.
type Route struct {
	OriginCode string
	DestCode   string
}

// Resolved is a validated request with airports and dates normalised.
type Resolved struct {
	Request    SearchRequest
	Cabin      Cabin
	Trip       TripType
	Departure  time.Time
	Return     time.Time
	OriginCity string
	DestCity   string
	Origins    []string
	Dests      []string
}

// Routes enumerates every origin×destination pair, dropping skipped origins and same-airport pairs.
func (r Resolved) Routes(skipOrigins ...string) []Route {
	var routes []Route
	for _, o := range r.Origins {
		if slices.ContainsFunc(skipOrigins, func(s string) bool { return strings.EqualFold(s, o) }) {
			continue
		}
		for _, d := range r.Dests {
			if o == d {
				continue
			}
			routes = append(routes, Route{OriginCode: o, DestCode: d})
		}
	}
	return routes
}

// Resolve validates the request and resolves airports and dates against the directory.
// Validation order follows the provider: cabin, airports, dates, passengers.
func (r SearchRequest) Resolve(dir *Directory) (Resolved, error) {
	cabin, err := ParseCabin(r.Cabin)
	if err != nil {
		return Resolved{}, err
	}
	origins, err := dir.Codes(r.Origin)
	if err != nil {
		return Resolved{}, err
	}
	dests, err := dir.Codes(r.Destination)
	if err != nil {
		return Resolved{}, err
	}
	departure, err := NormalizeDate(r.DepartureDate)
	if err != nil {
		return Resolved{}, err
	}
	var ret time.Time
	if r.Trip() == TripRoundTrip {
		if ret, err = NormalizeDate(r.ReturnDate); err != nil {
			return Resolved{}, err
		}
	}
	if err := r.Passengers.Validate(); err != nil {
		return Resolved{}, err
	}

	originCity, _ := dir.City(origins[0])
	destCity, _ := dir.City(dests[0])
	return Resolved{
		Request:    r,
		Cabin:      cabin,
		Trip:       r.Trip(),
		Departure:  departure,
		Return:     ret,
		OriginCity: originCity,
		DestCity:   destCity,
		Origins:    origins,
		Dests:      dests,
	}, nil
}
