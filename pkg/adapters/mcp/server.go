// Package mcp exposes the assistant as a Model Context Protocol server.
package mcp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/concierge"
	"github.com/aretw0/concierge/internal/logging"
	"github.com/aretw0/concierge/pkg/domain"
	"github.com/aretw0/concierge/pkg/graph"
	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"golang.org/x/sync/errgroup"
)

// GraphURI is the resource holding the Mermaid rendering of the travel graph.
const GraphURI = "concierge://graph"

// ChatArgs are the arguments of the chat tool.
type ChatArgs struct {
	SessionID string `json:"session_id,omitempty"`
	Message   string `json:"message"`
}

// ChatResult is the structured answer of the chat tool.
type ChatResult struct {
	SessionID   string   `json:"session_id" jsonschema_description:"The session the turn was recorded in"`
	Reply       string   `json:"reply" jsonschema_description:"The assistant's answer"`
	TaskHistory []string `json:"task_history,omitempty" jsonschema_description:"Nodes visited during the turn"`
	Error       string   `json:"error,omitempty" jsonschema_description:"Set when the turn could not complete"`
}

// GraphArgs are the arguments of the graph tool.
type GraphArgs struct {
	SessionID string `json:"session_id,omitempty"`
}

// Assistant is the part of *concierge.Assistant the server needs.
type Assistant interface {
	Chat(ctx context.Context, sessionID, input string) (concierge.Turn, error)
	Graph() *graph.Graph
}

// SessionLoader reads stored conversations.
type SessionLoader interface {
	Load(ctx context.Context, sessionID string) (*domain.State, error)
}

// Server wraps the assistant and exposes it as an MCP server.
type Server struct {
	assistant Assistant
	sessions  SessionLoader
	mcpServer *server.MCPServer
	logger    *slog.Logger
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewServer creates a new MCP server with the chat and graph tools registered.
func NewServer(assistant Assistant, sessions SessionLoader, opts ...Option) *Server {
	s := &Server{
		assistant: assistant,
		sessions:  sessions,
		logger:    logging.NewNop(),
		mcpServer: server.NewMCPServer("concierge-mcp", strings.TrimSpace(concierge.Version),
			server.WithToolCapabilities(false),
			server.WithResourceCapabilities(false, false),
		),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	s.registerResources()
	return s
}

// MCPServer returns the underlying protocol server.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio serves on Stdin/Stdout until the input is closed.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves over SSE on addr until ctx is cancelled.
func (s *Server) ServeSSE(ctx context.Context, addr, baseURL string) error {
	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.logger.Info("MCP server listening (SSE)", "address", addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop MCP server gracefully: %w", err)
		}
		return nil
	})
	return g.Wait()
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	chatTool := mcp.NewTool("chat",
		mcp.WithDescription("Ask the travel assistant about flights or destinations. Reuse session_id to continue a conversation."),
		mcp.WithString("message", mcp.Required(), mcp.Description("The user's message")),
		mcp.WithString("session_id", mcp.Description("Conversation to continue; omitted starts a new one")),
		mcp.WithOutputSchema[ChatResult](),
	)
	s.mcpServer.AddTool(chatTool, mcp.NewStructuredToolHandler(s.handleChat))

	graphTool := mcp.NewTool("graph",
		mcp.WithDescription("Render the travel graph as a Mermaid diagram, optionally highlighting a session's last turn."),
		mcp.WithString("session_id", mcp.Description("Session whose visited nodes are highlighted")),
	)
	s.mcpServer.AddTool(graphTool, mcp.NewTypedToolHandler(s.handleGraph))
}

func (s *Server) handleChat(ctx context.Context, _ mcp.CallToolRequest, args ChatArgs) (ChatResult, error) {
	message := strings.TrimSpace(args.Message)
	if message == "" {
		return ChatResult{}, concierge.ErrEmptyInput
	}
	sessionID := strings.TrimSpace(args.SessionID)
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	turn, err := s.assistant.Chat(ctx, sessionID, message)
	res := ChatResult{SessionID: sessionID, Reply: turn.Reply}
	if turn.State != nil {
		res.TaskHistory = turn.State.TaskHistory
	}
	if err != nil {
		if concierge.IsInputError(err) {
			return ChatResult{}, err
		}
		s.logger.Error("MCP chat failed", "session_id", sessionID, "error", err)
		res.Reply = concierge.FallbackReply
		res.Error = err.Error()
	}
	return res, nil
}

func (s *Server) handleGraph(ctx context.Context, _ mcp.CallToolRequest, args GraphArgs) (*mcp.CallToolResult, error) {
	var overlay *graph.Overlay
	if id := strings.TrimSpace(args.SessionID); id != "" {
		state, err := s.sessions.Load(ctx, id)
		if err != nil {
			if errors.Is(err, domain.ErrSessionNotFound) {
				return mcp.NewToolResultError(fmt.Sprintf("session %q not found", id)), nil
			}
			s.logger.Error("MCP graph: session load failed", "session_id", id, "error", err)
			return mcp.NewToolResultError("session store error"), nil
		}
		overlay = graph.OverlayFromState(state)
	}
	return mcp.NewToolResultText(graph.Mermaid(s.assistant.Graph(), overlay)), nil
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(GraphURI, "Travel graph",
		mcp.WithResourceDescription("Mermaid rendering of the travel assistant graph"),
		mcp.WithMIMEType("text/plain"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      GraphURI,
				MIMEType: "text/plain",
				Text:     graph.Mermaid(s.assistant.Graph(), nil),
			},
		}, nil
	})
}
