package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/aretw0/concierge/pkg/domain"
	"github.com/aretw0/concierge/pkg/flight"
)

// Records implements ports.RecordStore in memory.
// Readers share an RWMutex read lock; Insert takes the write lock.
type Records struct {
	mu      sync.RWMutex
	records []domain.FlightRecord
}

// NewRecords creates an empty record store.
func NewRecords() *Records {
	return &Records{}
}

// Insert appends records. Existing records are never updated.
func (r *Records) Insert(ctx context.Context, records []domain.FlightRecord) error {
	if len(records) == 0 {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, records...)
	return nil
}

// Query evaluates the filter in Go and orders by departure time.
func (r *Records) Query(ctx context.Context, filter flight.Filter) ([]domain.FlightRecord, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	var out []domain.FlightRecord
	for _, rec := range r.records {
		if filter.Match(rec) {
			out = append(out, rec)
		}
	}
	r.mu.RUnlock()

	slices.SortStableFunc(out, func(a, b domain.FlightRecord) int {
		return a.DepartureAt.Compare(b.DepartureAt)
	})
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

// Len returns the number of stored records.
func (r *Records) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.records)
}
