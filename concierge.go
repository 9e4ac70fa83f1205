package concierge

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/aretw0/concierge/internal/logging"
	"github.com/aretw0/concierge/internal/runtime"
	"github.com/aretw0/concierge/pkg/adapters/memory"
	"github.com/aretw0/concierge/pkg/domain"
	"github.com/aretw0/concierge/pkg/graph"
	"github.com/aretw0/concierge/pkg/nodes"
	"github.com/aretw0/concierge/pkg/ports"
	"github.com/aretw0/concierge/pkg/session"
	"go.opentelemetry.io/otel/trace"
)

// DefaultStepBudget is the maximum number of hops of one turn.
const DefaultStepBudget = 100

// FallbackReply is what surfaces answer when a turn fails with an engine fault.
const FallbackReply = "Sorry, I could not complete your request. Please try again."

var (
	// ErrEmptyInput is returned for a blank user message.
	ErrEmptyInput = errors.New("input is empty")
	// ErrEmptySession is returned by Chat for a blank session ID.
	ErrEmptySession = errors.New("session id is empty")
)

// Turn is the outcome of one conversation turn.
type Turn struct {
	Reply string
	State *domain.State
}

// Assistant answers conversation turns by running the travel graph.
type Assistant struct {
	engine   *runtime.Engine
	graph    *graph.Graph
	sessions *session.Manager
	budget   int
	maxInput int
	logger   *slog.Logger
}

type options struct {
	logger      *slog.Logger
	hooks       domain.LifecycleHooks
	tracer      trace.Tracer
	budget      int
	maxInput    int
	store       ports.StateStore
	locker      ports.DistributedLocker
	sessionOpts []session.Option
}

// Option defines a functional option for configuring the Assistant.
type Option func(*options)

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithLifecycleHooks registers observability hooks on the engine.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(o *options) {
		o.hooks = hooks
	}
}

// WithTracer sets the tracer for run and node spans.
func WithTracer(tracer trace.Tracer) Option {
	return func(o *options) {
		o.tracer = tracer
	}
}

// WithStepBudget overrides DefaultStepBudget.
func WithStepBudget(budget int) Option {
	return func(o *options) {
		o.budget = budget
	}
}

// WithMaxInputSize overrides DefaultMaxInputSize.
func WithMaxInputSize(bytes int) Option {
	return func(o *options) {
		o.maxInput = bytes
	}
}

// WithSessionStore sets where Chat keeps conversation state. Default is in memory.
func WithSessionStore(store ports.StateStore) Option {
	return func(o *options) {
		o.store = store
	}
}

// WithLocker serialises turns of one session across replicas.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(o *options) {
		o.locker = locker
	}
}

// WithSessionOptions passes extra options to the session manager.
func WithSessionOptions(opts ...session.Option) Option {
	return func(o *options) {
		o.sessionOpts = append(o.sessionOpts, opts...)
	}
}

// New builds the travel graph over caps and returns an Assistant.
func New(caps nodes.Capabilities, opts ...Option) (*Assistant, error) {
	o := options{budget: DefaultStepBudget, maxInput: DefaultMaxInputSize}
	for _, opt := range opts {
		opt(&o)
	}
	if o.budget <= 0 {
		return nil, domain.ErrInvalidBudget
	}
	if o.logger == nil {
		o.logger = logging.NewNop()
	}
	if o.store == nil {
		o.store = memory.NewStore()
	}
	if caps.Logger == nil {
		caps.Logger = o.logger
	}

	g, err := nodes.NewGraph(caps)
	if err != nil {
		return nil, err
	}

	engineOpts := []runtime.EngineOption{
		runtime.WithLogger(o.logger),
		runtime.WithLifecycleHooks(o.hooks),
	}
	if o.tracer != nil {
		engineOpts = append(engineOpts, runtime.WithTracer(o.tracer))
	}

	sessionOpts := append([]session.Option{session.WithLogger(o.logger)}, o.sessionOpts...)
	if o.locker != nil {
		sessionOpts = append(sessionOpts, session.WithLocker(o.locker))
	}

	return &Assistant{
		engine:   runtime.NewEngine(engineOpts...),
		graph:    g,
		sessions: session.NewManager(o.store, sessionOpts...),
		budget:   o.budget,
		maxInput: o.maxInput,
		logger:   o.logger,
	}, nil
}

// Graph returns the compiled travel graph.
func (a *Assistant) Graph() *graph.Graph {
	return a.graph
}

// Sessions returns the session manager used by Chat.
func (a *Assistant) Sessions() *session.Manager {
	return a.sessions
}

// Reply runs one stateless turn over history plus input.
func (a *Assistant) Reply(ctx context.Context, history []domain.Message, input string) (Turn, error) {
	input, err := SanitizeInput(input, a.maxInput)
	if err != nil {
		return Turn{}, err
	}
	prev := domain.NewState("", history...)
	return a.run(ctx, domain.NewTurn(prev, "", input))
}

// Chat runs one turn of a persisted session. The previous state of the session is the
// context of the turn and the final state replaces it. A turn that fails with an engine
// fault leaves the stored session untouched.
func (a *Assistant) Chat(ctx context.Context, sessionID, input string) (Turn, error) {
	if strings.TrimSpace(sessionID) == "" {
		return Turn{}, ErrEmptySession
	}
	input, err := SanitizeInput(input, a.maxInput)
	if err != nil {
		return Turn{}, err
	}

	var turn Turn
	var runErr error
	_, err = a.sessions.Turn(ctx, sessionID, func(ctx context.Context, prev *domain.State) (*domain.State, error) {
		turn, runErr = a.run(ctx, domain.NewTurn(prev, sessionID, input))
		if runErr != nil {
			return nil, runErr
		}
		return turn.State, nil
	})
	if runErr != nil {
		return turn, runErr
	}
	if err != nil {
		a.logger.Error("session turn failed", "session_id", sessionID, "err", err)
		if turn.State == nil {
			turn.Reply = FallbackReply
		}
		return turn, err
	}
	return turn, nil
}

func (a *Assistant) run(ctx context.Context, initial *domain.State) (Turn, error) {
	final, err := a.engine.Run(ctx, initial, a.graph, a.budget)
	if err != nil {
		a.logger.Error("turn failed", "session_id", initial.SessionID, "err", err)
		return Turn{Reply: FallbackReply, State: final}, err
	}
	return Turn{Reply: ReplyOf(final), State: final}, nil
}

// ReplyOf returns the generator's reply of a finished turn.
func ReplyOf(s *domain.State) string {
	if s == nil {
		return ""
	}
	for i := len(s.Messages) - 1; i >= 0; i-- {
		m := s.Messages[i]
		if m.Role == domain.RoleAssistant && m.Name == domain.NodeGenerator {
			return m.Content
		}
	}
	return ""
}
