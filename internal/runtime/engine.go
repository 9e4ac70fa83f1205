package runtime

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/concierge/internal/logging"
	"github.com/aretw0/concierge/pkg/domain"
	"github.com/aretw0/concierge/pkg/graph"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// TracerName is the instrumentation scope used for engine spans.
const TracerName = "github.com/aretw0/concierge/internal/runtime"

// Engine drives a bounded sequence of node invocations over one State.
// An Engine holds no per-run data and is safe for concurrent runs.
type Engine struct {
	logger *slog.Logger
	hooks  domain.LifecycleHooks
	tracer trace.Tracer
	now    func() time.Time
}

// EngineOption configures the Engine.
type EngineOption func(*Engine)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) EngineOption {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithTracer sets the OpenTelemetry tracer used for run and node spans.
func WithTracer(tracer trace.Tracer) EngineOption {
	return func(e *Engine) {
		if tracer != nil {
			e.tracer = tracer
		}
	}
}

// NewEngine creates a new engine.
func NewEngine(opts ...EngineOption) *Engine {
	e := &Engine{
		logger: logging.NewNop(),
		tracer: noop.NewTracerProvider().Tracer(TracerName),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run executes the graph from its start node until a directive targets domain.End.
//
// The initial state is never mutated; the engine works on its own copy, hands every
// node an isolated snapshot and merges the returned update before the next hop.
// On success the final state is returned. On an engine fault (unknown node, exhausted
// budget, cancellation) the error is returned together with the state as it stood
// when the run aborted.
func (e *Engine) Run(ctx context.Context, initial *domain.State, g *graph.Graph, budget int) (*domain.State, error) {
	if budget <= 0 {
		return nil, fmt.Errorf("%w: got %d", domain.ErrInvalidBudget, budget)
	}
	if g == nil {
		return nil, errors.New("run requires a graph")
	}

	state := initial.Clone()
	if state == nil {
		state = domain.NewState("")
	}
	state.RemainingSteps = budget

	runID := uuid.NewString()
	logger := e.logger.With("run_id", runID)
	if state.SessionID != "" {
		logger = logger.With("session_id", state.SessionID)
	}

	ctx, span := e.tracer.Start(ctx, "concierge.run", trace.WithAttributes(
		attribute.String("concierge.run_id", runID),
		attribute.String("concierge.session_id", state.SessionID),
		attribute.Int("concierge.budget", budget),
	))
	defer span.End()

	started := e.now()
	base := func(t domain.EventType) domain.EventBase {
		return domain.EventBase{Timestamp: e.now(), Type: t, RunID: runID, SessionID: state.SessionID}
	}
	if e.hooks.OnRunStart != nil {
		e.hooks.OnRunStart(ctx, &domain.RunEvent{EventBase: base(domain.EventRunStart), Budget: budget})
	}

	hops := 0
	finish := func(err error) (*domain.State, error) {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			logger.WarnContext(ctx, "run aborted", "hops", hops, "error", err)
		} else {
			logger.DebugContext(ctx, "run finished", "hops", hops)
		}
		span.SetAttributes(attribute.Int("concierge.hops", hops))
		if e.hooks.OnRunEnd != nil {
			e.hooks.OnRunEnd(ctx, &domain.RunEvent{
				EventBase: base(domain.EventRunEnd),
				Budget:    budget,
				Hops:      hops,
				Duration:  e.now().Sub(started),
				Err:       err,
			})
		}
		return state, err
	}

	current, previous := g.Start(), ""
	for {
		if err := ctx.Err(); err != nil {
			return finish(fmt.Errorf("run cancelled before node '%s': %w", current, err))
		}

		node, ok := g.Node(current)
		if !ok {
			return finish(&domain.UnknownNodeError{NodeID: current, From: previous})
		}

		directive := e.step(ctx, logger, node, current, hops, state, base)
		hops++

		state.Apply(directive.Update)
		state.RemainingSteps--

		target := directive.Goto
		if target == domain.End && g.CanRoute(current, target) {
			return finish(nil)
		}
		if state.RemainingSteps <= 0 {
			return finish(&domain.StepBudgetError{Budget: budget, LastNode: current, Target: target})
		}
		if !g.CanRoute(current, target) {
			return finish(&domain.UnknownNodeError{NodeID: target, From: current})
		}

		previous, current = current, target
	}
}

// step invokes one node on a snapshot of the state, wrapped in a span and the node hooks.
func (e *Engine) step(
	ctx context.Context,
	logger *slog.Logger,
	node graph.Node,
	id string,
	hop int,
	state *domain.State,
	base func(domain.EventType) domain.EventBase,
) domain.Directive {
	ctx, span := e.tracer.Start(ctx, "concierge.node", trace.WithAttributes(
		attribute.String("concierge.node", id),
		attribute.Int("concierge.hop", hop),
	))
	defer span.End()

	if e.hooks.OnNodeEnter != nil {
		e.hooks.OnNodeEnter(ctx, &domain.NodeEvent{EventBase: base(domain.EventNodeEnter), NodeID: id, Hop: hop})
	}

	started := e.now()
	directive := node.Run(ctx, state.Clone())
	elapsed := e.now().Sub(started)

	span.SetAttributes(attribute.String("concierge.target", directive.Goto))
	if directive.Update.Error.Set && directive.Update.Error.Value != "" {
		span.SetAttributes(attribute.String("concierge.error", directive.Update.Error.Value))
	}
	logger.DebugContext(ctx, "node executed", "node", id, "hop", hop, "target", directive.Goto, "duration", elapsed)

	if e.hooks.OnNodeLeave != nil {
		ev := &domain.NodeEvent{
			EventBase: base(domain.EventNodeLeave),
			NodeID:    id,
			Hop:       hop,
			Target:    directive.Goto,
			Duration:  elapsed,
		}
		if directive.Update.Error.Set {
			ev.Error = directive.Update.Error.Value
		}
		e.hooks.OnNodeLeave(ctx, ev)
	}
	return directive
}
