package ports_test

import (
	"context"
	"slices"
	"sort"
	"sync"
	"testing"

	"github.com/aretw0/concierge/pkg/domain"
	"github.com/aretw0/concierge/pkg/flight"
	"github.com/aretw0/concierge/pkg/ports"
)

// mockStore is a minimal StateStore used to check the contract suite itself.
type mockStore struct {
	mu   sync.Mutex
	data map[string]*domain.State
}

func (m *mockStore) Save(_ context.Context, id string, s *domain.State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[id] = s.Clone()
	return nil
}

func (m *mockStore) Load(_ context.Context, id string) (*domain.State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.data[id]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return s.Clone(), nil
}

func (m *mockStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, id)
	return nil
}

func (m *mockStore) List(_ context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]string, 0, len(m.data))
	for id := range m.data {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids, nil
}

type mockRecords struct {
	mu      sync.RWMutex
	records []domain.FlightRecord
}

func (m *mockRecords) Insert(_ context.Context, recs []domain.FlightRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, recs...)
	return nil
}

func (m *mockRecords) Query(_ context.Context, f flight.Filter) ([]domain.FlightRecord, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []domain.FlightRecord
	for _, r := range m.records {
		if f.Match(r) {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].DepartureAt.Before(out[j].DepartureAt) })
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func TestStateStoreContract(t *testing.T) {
	ports.RunStateStoreContract(t, &mockStore{data: map[string]*domain.State{}})
}

func TestRecordStoreContract(t *testing.T) {
	ports.RunRecordStoreContract(t, &mockRecords{})
}

func TestConversationOf(t *testing.T) {
	s := domain.NewState("s", domain.Message{Role: domain.RoleUser, Content: "hi"})
	s.BlogResults = &domain.ContentAnswer{Answer: "a"}
	conv := ports.ConversationOf(s)
	if len(conv.Messages) != 1 || conv.BlogResults == nil || conv.FlightResults != nil {
		t.Fatalf("unexpected conversation %+v", conv)
	}
}
