package runtime_test

import (
	"context"
	"testing"

	"github.com/aretw0/concierge/internal/runtime"
	"github.com/aretw0/concierge/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestEngine_LifecycleHooks(t *testing.T) {
	var entered, left []string
	var targets []string
	var runStart, runEnd []*domain.RunEvent

	hooks := domain.LifecycleHooks{
		OnRunStart: func(_ context.Context, e *domain.RunEvent) { runStart = append(runStart, e) },
		OnRunEnd:   func(_ context.Context, e *domain.RunEvent) { runEnd = append(runEnd, e) },
		OnNodeEnter: func(_ context.Context, e *domain.NodeEvent) {
			entered = append(entered, e.NodeID)
		},
		OnNodeLeave: func(_ context.Context, e *domain.NodeEvent) {
			left = append(left, e.NodeID)
			targets = append(targets, e.Target)
		},
	}

	engine := runtime.NewEngine(runtime.WithLifecycleHooks(hooks))
	_, err := engine.Run(context.Background(), domain.NewState("s1"), linearGraph(t), 10)
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "b", "c"}, entered)
	assert.Equal(t, []string{"a", "b", "c"}, left)
	assert.Equal(t, []string{"b", "c", domain.End}, targets)

	require.Len(t, runStart, 1)
	require.Len(t, runEnd, 1)
	assert.Equal(t, runStart[0].RunID, runEnd[0].RunID)
	assert.Equal(t, "s1", runEnd[0].SessionID)
	assert.Equal(t, 3, runEnd[0].Hops)
	assert.NoError(t, runEnd[0].Err)
}

func TestEngine_RunEndCarriesFault(t *testing.T) {
	var ended *domain.RunEvent
	engine := runtime.NewEngine(runtime.WithLifecycleHooks(domain.LifecycleHooks{
		OnRunEnd: func(_ context.Context, e *domain.RunEvent) { ended = e },
	}))

	_, err := engine.Run(context.Background(), domain.NewState(""), cycleGraph(t), 4)
	require.Error(t, err)
	require.NotNil(t, ended)
	assert.ErrorIs(t, ended.Err, domain.ErrStepBudgetExceeded)
	assert.Equal(t, 4, ended.Hops)
}

func TestEngine_Spans(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	engine := runtime.NewEngine(runtime.WithTracer(provider.Tracer(runtime.TracerName)))
	_, err := engine.Run(context.Background(), domain.NewState(""), linearGraph(t), 10)
	require.NoError(t, err)

	spans := recorder.Ended()
	require.Len(t, spans, 4)

	var nodeSpans int
	var runSpan sdktrace.ReadOnlySpan
	for _, s := range spans {
		switch s.Name() {
		case "concierge.node":
			nodeSpans++
		case "concierge.run":
			runSpan = s
		}
	}
	require.NotNil(t, runSpan)
	assert.Equal(t, 3, nodeSpans)
	for _, s := range spans {
		if s.Name() == "concierge.node" {
			assert.Equal(t, runSpan.SpanContext().SpanID(), s.Parent().SpanID())
		}
	}
}
