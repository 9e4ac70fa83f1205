package ports

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/concierge/pkg/domain"
	"github.com/aretw0/concierge/pkg/flight"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunStateStoreContract runs a suite of tests to verify that a StateStore implementation
// adheres to the defined interface contract.
func RunStateStoreContract(t *testing.T, store StateStore) {
	ctx := context.Background()
	sessionID := "contract-test-session-" + time.Now().Format("20060102150405")

	t.Run("Save and Load", func(t *testing.T) {
		state := domain.NewState(sessionID, domain.Message{Role: domain.RoleUser, Content: "flight Tehran to Mashhad"})
		state.Apply(domain.Update{
			Messages:    []domain.Message{{Role: domain.RoleAssistant, Content: "IR 452 at 08:30", Name: domain.NodeGenerator}},
			TaskHistory: []string{domain.NodeRouter, domain.NodeGenerator},
			FlightResults: domain.Some([]domain.FlightRecord{{
				Airline:      "Iran Air",
				FlightNumber: "IR452",
				OriginCode:   "THR",
				DestCode:     "MHD",
				DepartureAt:  time.Date(2025, 3, 1, 8, 30, 0, 0, time.UTC),
			}}),
			BlogResults: domain.Some(&domain.ContentAnswer{Answer: "a", Sources: []domain.Passage{{SourceURL: "https://x"}}}),
		})
		state.RemainingSteps = 97

		require.NoError(t, store.Save(ctx, sessionID, state), "Save should not return error")

		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, state.Messages, loaded.Messages)
		assert.Equal(t, state.TaskHistory, loaded.TaskHistory)
		require.Len(t, loaded.FlightResults, 1)
		assert.Equal(t, "IR452", loaded.FlightResults[0].FlightNumber)
		assert.True(t, state.FlightResults[0].DepartureAt.Equal(loaded.FlightResults[0].DepartureAt))
		require.NotNil(t, loaded.BlogResults)
		assert.Equal(t, "https://x", loaded.BlogResults.Sources[0].SourceURL)
		assert.Equal(t, 97, loaded.RemainingSteps)
	})

	t.Run("Load Returns Independent Copy", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, sessionID, domain.NewState(sessionID, domain.Message{Role: domain.RoleUser, Content: "hi"})))

		first, err := store.Load(ctx, sessionID)
		require.NoError(t, err)
		first.Messages[0].Content = "mutated"

		second, err := store.Load(ctx, sessionID)
		require.NoError(t, err)
		assert.Equal(t, "hi", second.Messages[0].Content)
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, sessionID, domain.NewState(sessionID)))

		require.NoError(t, store.Delete(ctx, sessionID), "Delete should not return error")

		_, err := store.Load(ctx, sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound, "Load after Delete should return ErrSessionNotFound")
	})

	t.Run("List", func(t *testing.T) {
		id1 := sessionID + "-1"
		id2 := sessionID + "-2"
		require.NoError(t, store.Save(ctx, id1, domain.NewState(id1)))
		require.NoError(t, store.Save(ctx, id2, domain.NewState(id2)))
		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		sessions, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, sessions, id1)
		assert.Contains(t, sessions, id2)
	})
}

// RunRecordStoreContract verifies that a RecordStore implementation honours the
// append-only, filtered-query and concurrency contract. The store must start empty.
func RunRecordStoreContract(t *testing.T, store RecordStore) {
	ctx := context.Background()
	day := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	created := time.Date(2025, 2, 20, 9, 0, 0, 0, time.UTC)

	record := func(number, origin, dest string, at time.Time) domain.FlightRecord {
		return domain.FlightRecord{
			Airline:      "Iran Air",
			FlightNumber: number,
			OriginCity:   "Tehran",
			OriginCode:   origin,
			DestCity:     "Mashhad",
			DestCode:     dest,
			DepartureAt:  at,
			CreatedAt:    created,
		}
	}

	t.Run("Empty Store", func(t *testing.T) {
		got, err := store.Query(ctx, flight.ForRoute([]string{"THR"}, []string{"MHD"}, day))
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("Insert and Query", func(t *testing.T) {
		require.NoError(t, store.Insert(ctx, []domain.FlightRecord{
			record("IR452", "THR", "MHD", day.Add(18*time.Hour)),
			record("W5061", "THR", "MHD", day.Add(8*time.Hour)),
			record("EP811", "IKA", "MHD", day.Add(12*time.Hour)),
			record("IR999", "THR", "MHD", day.AddDate(0, 0, 1).Add(8*time.Hour)),
			record("IR100", "THR", "SYZ", day.Add(9*time.Hour)),
		}))

		got, err := store.Query(ctx, flight.ForRoute([]string{"THR", "IKA"}, []string{"MHD"}, day))
		require.NoError(t, err)
		require.Len(t, got, 3)
		assert.Equal(t, "W5061", got[0].FlightNumber, "results are ordered by departure")
		assert.Equal(t, "EP811", got[1].FlightNumber)
		assert.Equal(t, "IR452", got[2].FlightNumber)

		assert.True(t, day.Add(8*time.Hour).Equal(got[0].DepartureAt))
		assert.True(t, created.Equal(got[0].CreatedAt))
		assert.Equal(t, "Tehran", got[0].OriginCity)
		assert.Equal(t, "Mashhad", got[0].DestCity)
		assert.Equal(t, "Iran Air", got[0].Airline)
	})

	t.Run("Case Insensitive Codes", func(t *testing.T) {
		got, err := store.Query(ctx, flight.Filter{}.Where(flight.FieldDestCode, flight.OpEq, "syz"))
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "IR100", got[0].FlightNumber)
	})

	t.Run("Limit", func(t *testing.T) {
		f := flight.Filter{Limit: 2}.Where(flight.FieldAirline, flight.OpEq, "Iran Air")
		got, err := store.Query(ctx, f)
		require.NoError(t, err)
		assert.Len(t, got, 2)
	})

	t.Run("Append Only", func(t *testing.T) {
		dup := record("DUP1", "THR", "KIH", day.Add(7*time.Hour))
		require.NoError(t, store.Insert(ctx, []domain.FlightRecord{dup}))
		require.NoError(t, store.Insert(ctx, []domain.FlightRecord{dup}))

		got, err := store.Query(ctx, flight.Filter{}.Where(flight.FieldFlightNumber, flight.OpEq, "DUP1"))
		require.NoError(t, err)
		assert.Len(t, got, 2)
	})

	t.Run("Empty Insert", func(t *testing.T) {
		assert.NoError(t, store.Insert(ctx, nil))
	})

	t.Run("Invalid Filter", func(t *testing.T) {
		_, err := store.Query(ctx, flight.Filter{}.Where("origin_code = '' OR 1=1 --", flight.OpEq, "x"))
		assert.ErrorIs(t, err, flight.ErrInvalidFilter)
	})

	t.Run("Concurrent Readers And Writers", func(t *testing.T) {
		const writers, readers = 4, 8
		var wg sync.WaitGroup
		errs := make(chan error, writers+readers)

		for w := range writers {
			wg.Add(1)
			go func() {
				defer wg.Done()
				rec := record(fmt.Sprintf("CC%d", w), "MHD", "THR", day.Add(time.Duration(w)*time.Hour))
				errs <- store.Insert(ctx, []domain.FlightRecord{rec})
			}()
		}
		for range readers {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := store.Query(ctx, flight.ForRoute([]string{"MHD"}, []string{"THR"}, day))
				errs <- err
			}()
		}
		wg.Wait()
		close(errs)
		for err := range errs {
			require.NoError(t, err)
		}

		got, err := store.Query(ctx, flight.ForRoute([]string{"MHD"}, []string{"THR"}, day))
		require.NoError(t, err)
		assert.Len(t, got, writers)
	})
}
