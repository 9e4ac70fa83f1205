package flight

import (
	"bytes"
	_ "embed"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"sync"
)

//go:embed airports.csv
var airportsCSV []byte

// Airport is one row of the airport directory.
type Airport struct {
	IATA    string
	City    string
	Country string
}

// Directory resolves city names to airport codes and back.
type Directory struct {
	byCity map[string][]string
	byCode map[string]Airport
}

var defaultDirectory = sync.OnceValues(func() (*Directory, error) {
	return LoadDirectory(bytes.NewReader(airportsCSV))
})

// DefaultDirectory returns the embedded airport directory.
func DefaultDirectory() *Directory {
	dir, err := defaultDirectory()
	if err != nil {
		// The embedded file is part of the build.
		panic(fmt.Sprintf("flight: embedded airport directory is corrupt: %v", err))
	}
	return dir
}

// LoadDirectory reads an iata,city,country CSV with a header row.
func LoadDirectory(r io.Reader) (*Directory, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = 3
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read airport header: %w", err)
	}
	if !strings.EqualFold(header[0], "iata") {
		return nil, fmt.Errorf("unexpected airport header %v", header)
	}

	d := &Directory{byCity: map[string][]string{}, byCode: map[string]Airport{}}
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read airport row: %w", err)
		}
		a := Airport{IATA: strings.ToUpper(row[0]), City: row[1], Country: row[2]}
		d.byCode[a.IATA] = a
		key := strings.ToLower(a.City)
		d.byCity[key] = append(d.byCity[key], a.IATA)
	}
	return d, nil
}

// Codes returns every airport serving a city, in directory order.
// A three letter input that is already a known code resolves to itself.
func (d *Directory) Codes(city string) ([]string, error) {
	key := strings.ToLower(strings.TrimSpace(city))
	if codes, ok := d.byCity[key]; ok {
		return append([]string(nil), codes...), nil
	}
	if a, ok := d.byCode[strings.ToUpper(key)]; ok {
		return []string{a.IATA}, nil
	}
	return nil, newSearchError(ErrInvalidAirportCode, "No airport found for %s", city)
}

// City returns the city served by an airport code.
func (d *Directory) City(code string) (string, error) {
	a, ok := d.byCode[strings.ToUpper(strings.TrimSpace(code))]
	if !ok {
		return "", newSearchError(ErrInvalidAirportCode, "No city found for %s", code)
	}
	return a.City, nil
}
