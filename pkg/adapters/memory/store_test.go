package memory_test

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/concierge/pkg/adapters/memory"
	"github.com/aretw0/concierge/pkg/domain"
	"github.com/aretw0/concierge/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_Contract(t *testing.T) {
	store := memory.NewStore()
	ports.RunStateStoreContract(t, store)
}

func TestMemoryRecords_Contract(t *testing.T) {
	ports.RunRecordStoreContract(t, memory.NewRecords())
}

func TestMemoryStore_SaveCopies(t *testing.T) {
	store := memory.NewStore()
	state := domain.NewState("s1", domain.Message{Role: domain.RoleUser, Content: "hi"})
	require.NoError(t, store.Save(context.Background(), "s1", state))

	state.Messages[0].Content = "mutated after save"

	loaded, err := store.Load(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, "hi", loaded.Messages[0].Content)
}

func TestMemoryStore_TTL(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	store := memory.NewStore(memory.WithTTL(time.Hour), memory.WithClock(func() time.Time { return now }))

	require.NoError(t, store.Save(ctx, "old", domain.NewState("old")))
	now = now.Add(40 * time.Minute)
	require.NoError(t, store.Save(ctx, "new", domain.NewState("new")))

	now = now.Add(30 * time.Minute)
	_, err := store.Load(ctx, "old")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	_, err = store.Load(ctx, "new")
	assert.NoError(t, err)

	ids, err := store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"new"}, ids)

	// Saving again restarts the TTL.
	require.NoError(t, store.Save(ctx, "new", domain.NewState("new")))
	now = now.Add(50 * time.Minute)
	_, err = store.Load(ctx, "new")
	assert.NoError(t, err)
}

func TestMemoryStore_NoTTLKeepsSessions(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	store := memory.NewStore(memory.WithClock(func() time.Time { return now }))
	require.NoError(t, store.Save(ctx, "s1", domain.NewState("s1")))

	now = now.Add(24 * 365 * time.Hour)
	_, err := store.Load(ctx, "s1")
	assert.NoError(t, err)
}

func TestRetriever(t *testing.T) {
	ctx := context.Background()
	r := memory.NewRetriever()

	n, err := r.Index(ctx, ports.Document{URL: "https://blog/dubai", Title: "Dubai", Text: "Visit the Burj Khalifa.\n\nThe Dubai Mall has an aquarium."})
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	_, err = r.Index(ctx, ports.Document{URL: "https://blog/shiraz", Title: "Shiraz", Text: "Persepolis ruins are near Shiraz."})
	require.NoError(t, err)

	ok, err := r.HasSource(ctx, "https://blog/dubai")
	require.NoError(t, err)
	assert.True(t, ok)
	ok, _ = r.HasSource(ctx, "https://blog/unknown")
	assert.False(t, ok)

	hits, err := r.SimilaritySearch(ctx, "best places to visit in Dubai", 5)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "https://blog/dubai", hits[0].SourceURL)
	assert.Contains(t, hits[0].Text, "Burj Khalifa")
	assert.Greater(t, hits[0].Score, hits[1].Score)

	hits, err = r.SimilaritySearch(ctx, "Dubai", 1)
	require.NoError(t, err)
	assert.Len(t, hits, 1)

	hits, err = r.SimilaritySearch(ctx, "quantum chromodynamics", 5)
	require.NoError(t, err)
	assert.Empty(t, hits)
}
