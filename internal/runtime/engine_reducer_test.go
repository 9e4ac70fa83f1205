package runtime_test

import (
	"context"
	"fmt"
	"math/rand/v2"
	"testing"

	"github.com/aretw0/concierge/internal/runtime"
	"github.com/aretw0/concierge/pkg/domain"
	"github.com/aretw0/concierge/pkg/graph"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func randomUpdate(r *rand.Rand, hop int) domain.Update {
	u := domain.Update{}
	for i := range r.IntN(3) {
		u.Messages = append(u.Messages, domain.Message{Role: domain.RoleAssistant, Content: fmt.Sprintf("m%d.%d", hop, i)})
	}
	for i := range r.IntN(2) {
		u.TaskHistory = append(u.TaskHistory, fmt.Sprintf("t%d.%d", hop, i))
	}
	if r.IntN(3) == 0 {
		if r.IntN(4) == 0 {
			u.FlightResults = domain.Some[[]domain.FlightRecord](nil)
		} else {
			u.FlightResults = domain.Some([]domain.FlightRecord{{FlightNumber: fmt.Sprintf("F%d", hop)}})
		}
	}
	if r.IntN(3) == 0 {
		u.BlogResults = domain.Some(&domain.ContentAnswer{Answer: fmt.Sprintf("b%d", hop)})
	}
	if r.IntN(3) == 0 {
		u.Error = domain.Some(fmt.Sprintf("e%d", hop))
	}
	if r.IntN(4) == 0 {
		u.Error = domain.Some("")
	}
	if r.IntN(3) == 0 {
		u.NextStep = domain.Some(fmt.Sprintf("n%d", hop))
	}
	return u
}

// TestEngine_ReducerTable checks that, for random chains of partial updates, append
// fields are the in-order concatenation and every other field holds the last set value.
func TestEngine_ReducerTable(t *testing.T) {
	for seed := uint64(1); seed <= 50; seed++ {
		r := rand.New(rand.NewPCG(seed, seed*7))
		hops := 1 + r.IntN(12)

		updates := make([]domain.Update, hops)
		for i := range updates {
			updates[i] = randomUpdate(r, i)
		}

		b := graph.New().Start("n0")
		for i := range hops {
			id := fmt.Sprintf("n%d", i)
			target := fmt.Sprintf("n%d", i+1)
			if i == hops-1 {
				target = domain.End
			}
			u := updates[i]
			b.Add(id, graph.NodeFunc(func(_ context.Context, _ *domain.State) domain.Directive {
				return domain.Goto(target, u)
			})).To(target)
		}
		g, err := b.Build()
		require.NoError(t, err)

		initial := domain.NewState("p", domain.Message{Role: domain.RoleUser, Content: "seed"})
		initial.NextStep = "initial"

		final, err := runtime.NewEngine().Run(context.Background(), initial, g, hops)
		require.NoError(t, err, "seed %d", seed)

		wantMessages := []domain.Message{{Role: domain.RoleUser, Content: "seed"}}
		wantHistory := []string{}
		var wantFlights []domain.FlightRecord
		var wantBlog *domain.ContentAnswer
		wantError, wantNext := "", "initial"
		for _, u := range updates {
			wantMessages = append(wantMessages, u.Messages...)
			wantHistory = append(wantHistory, u.TaskHistory...)
			if u.FlightResults.Set {
				wantFlights = u.FlightResults.Value
			}
			if u.BlogResults.Set {
				wantBlog = u.BlogResults.Value
			}
			if u.Error.Set {
				wantError = u.Error.Value
			}
			if u.NextStep.Set {
				wantNext = u.NextStep.Value
			}
		}

		assert.Equal(t, wantMessages, final.Messages, "seed %d", seed)
		assert.Equal(t, wantHistory, final.TaskHistory, "seed %d", seed)
		assert.Equal(t, wantFlights, final.FlightResults, "seed %d", seed)
		assert.Equal(t, wantBlog, final.BlogResults, "seed %d", seed)
		assert.Equal(t, wantError, final.Error, "seed %d", seed)
		assert.Equal(t, wantNext, final.NextStep, "seed %d", seed)
	}
}
