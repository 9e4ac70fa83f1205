// Package http exposes the assistant over a JSON HTTP API.
package http

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"strings"

	"github.com/aretw0/concierge"
	"github.com/aretw0/concierge/internal/logging"
	"github.com/aretw0/concierge/internal/xjson"
	"github.com/aretw0/concierge/pkg/domain"
	"github.com/aretw0/concierge/pkg/graph"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// Assistant is the part of *concierge.Assistant the API needs.
type Assistant interface {
	Chat(ctx context.Context, sessionID, input string) (concierge.Turn, error)
	Graph() *graph.Graph
}

// Sessions gives read and delete access to stored conversations.
type Sessions interface {
	Load(ctx context.Context, sessionID string) (*domain.State, error)
	Delete(ctx context.Context, sessionID string) error
	List(ctx context.Context) ([]string, error)
}

// Server holds the handlers of the API.
type Server struct {
	assistant Assistant
	sessions  Sessions
	streams   *StreamManager
	metrics   http.Handler
	health    func(context.Context) error
	logger    *slog.Logger
	validate  *validator.Validate
}

// Option configures the Server.
type Option func(*Server)

// WithMetrics mounts a Prometheus handler at /metrics.
func WithMetrics(h http.Handler) Option {
	return func(s *Server) {
		s.metrics = h
	}
}

// WithHealthCheck makes /healthz report the result of check.
func WithHealthCheck(check func(context.Context) error) Option {
	return func(s *Server) {
		s.health = check
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// ChatRequest is the body of POST /v1/chat. A missing session ID starts a new session.
type ChatRequest struct {
	SessionID string `json:"session_id,omitempty" validate:"omitempty,max=128"`
	Message   string `json:"message" validate:"required"`
}

// ChatResponse is the body answered by POST /v1/chat.
type ChatResponse struct {
	SessionID     string                `json:"session_id"`
	Reply         string                `json:"reply"`
	TaskHistory   []string              `json:"task_history,omitempty"`
	FlightResults []domain.FlightRecord `json:"flight_results,omitempty"`
	Sources       []domain.Passage      `json:"sources,omitempty"`
	Error         string                `json:"error,omitempty"`
}

// NewHandler creates the HTTP handler of the API.
func NewHandler(assistant Assistant, sessions Sessions, opts ...Option) http.Handler {
	s := &Server{
		assistant: assistant,
		sessions:  sessions,
		streams:   NewStreamManager(),
		logger:    logging.NewNop(),
		validate:  validator.New(validator.WithRequiredStructEnabled()),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.streams.logger = s.logger

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(enableCORS)

	r.Get("/healthz", s.GetHealth)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics)
	}
	r.Route("/v1", func(r chi.Router) {
		r.Post("/chat", s.Chat)
		r.Get("/graph", s.GetGraph)
		r.Get("/events", s.SubscribeEvents)
		r.Get("/sessions", s.ListSessions)
		r.Get("/sessions/{id}", s.GetSession)
		r.Delete("/sessions/{id}", s.DeleteSession)
	})
	return r
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Chat handles POST /v1/chat.
func (s *Server) Chat(w http.ResponseWriter, r *http.Request) {
	var body ChatRequest
	if err := xjson.NewDecoder(http.MaxBytesReader(w, r.Body, 64<<10)).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		s.logger.Warn("Chat: Invalid request body", "error", err)
		return
	}
	body.Message = strings.TrimSpace(body.Message)
	if err := s.validate.Struct(body); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request: %v", err))
		return
	}
	if body.SessionID == "" {
		body.SessionID = uuid.NewString()
	}

	turn, err := s.assistant.Chat(r.Context(), body.SessionID, body.Message)
	resp := ChatResponse{SessionID: body.SessionID, Reply: turn.Reply}
	if turn.State != nil {
		resp.TaskHistory = turn.State.TaskHistory
		if err == nil {
			resp.FlightResults = turn.State.FlightResults
			if turn.State.BlogResults != nil && slices.Contains(turn.State.TaskHistory, domain.NodeBlogRetrieval) {
				resp.Sources = turn.State.BlogResults.Sources
			}
		}
	}

	status := http.StatusOK
	switch {
	case err == nil:
	case concierge.IsInputError(err):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	default:
		s.logger.Error("Chat failed", "session_id", body.SessionID, "error", err)
		status = http.StatusInternalServerError
		resp.Reply = concierge.FallbackReply
		resp.Error = err.Error()
	}

	s.streams.Broadcast(body.SessionID, resp)
	writeJSON(w, status, resp)
}

// GetGraph handles GET /v1/graph. With session_id the visited nodes of that session's
// last turn are highlighted.
func (s *Server) GetGraph(w http.ResponseWriter, r *http.Request) {
	var overlay *graph.Overlay
	if id := r.URL.Query().Get("session_id"); id != "" {
		state, err := s.sessions.Load(r.Context(), id)
		if err != nil {
			s.writeSessionError(w, id, err)
			return
		}
		overlay = graph.OverlayFromState(state)
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(graph.Mermaid(s.assistant.Graph(), overlay)))
}

// ListSessions handles GET /v1/sessions.
func (s *Server) ListSessions(w http.ResponseWriter, r *http.Request) {
	ids, err := s.sessions.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list sessions")
		s.logger.Error("ListSessions failed", "error", err)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	writeJSON(w, http.StatusOK, map[string][]string{"sessions": ids})
}

// GetSession handles GET /v1/sessions/{id}.
func (s *Server) GetSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	state, err := s.sessions.Load(r.Context(), id)
	if err != nil {
		s.writeSessionError(w, id, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

// DeleteSession handles DELETE /v1/sessions/{id}.
func (s *Server) DeleteSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.sessions.Delete(r.Context(), id); err != nil {
		s.writeSessionError(w, id, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetHealth handles GET /healthz.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	if s.health != nil {
		if err := s.health(r.Context()); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "error": err.Error()})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) writeSessionError(w http.ResponseWriter, id string, err error) {
	if errors.Is(err, domain.ErrSessionNotFound) {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	s.logger.Error("session access failed", "session_id", id, "error", err)
	writeError(w, http.StatusInternalServerError, "session store error")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = xjson.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
