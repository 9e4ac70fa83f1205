package http_test

import (
	"bufio"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/aretw0/concierge"
	"github.com/aretw0/concierge/internal/xjson"
	apihttp "github.com/aretw0/concierge/pkg/adapters/http"
	"github.com/aretw0/concierge/pkg/adapters/memory"
	"github.com/aretw0/concierge/pkg/domain"
	"github.com/aretw0/concierge/pkg/graph"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeAssistant echoes the message and stores the turn.
type fakeAssistant struct {
	store *memory.Store
	err   error
	g     *graph.Graph
	// maxInput is the assistant's input limit, in bytes.
	maxInput int
}

func (f *fakeAssistant) Chat(ctx context.Context, sessionID, input string) (concierge.Turn, error) {
	input, err := concierge.SanitizeInput(input, f.maxInput)
	if err != nil {
		return concierge.Turn{}, err
	}
	if f.err != nil {
		return concierge.Turn{Reply: concierge.FallbackReply, State: domain.NewState(sessionID)}, f.err
	}
	s := domain.NewState(sessionID, domain.Message{Role: domain.RoleUser, Content: input},
		domain.Message{Role: domain.RoleAssistant, Content: "echo: " + input, Name: domain.NodeGenerator})
	s.TaskHistory = []string{domain.NodeRouter, domain.NodeGenerator}
	if err := f.store.Save(ctx, sessionID, s); err != nil {
		return concierge.Turn{}, err
	}
	return concierge.Turn{Reply: "echo: " + input, State: s}, nil
}

func (f *fakeAssistant) Graph() *graph.Graph {
	return f.g
}

func newAPI(t *testing.T, opts ...apihttp.Option) (*fakeAssistant, http.Handler) {
	t.Helper()
	g, err := graph.New().
		Add(domain.NodeRouter, graph.NodeFunc(func(context.Context, *domain.State) domain.Directive { return domain.Directive{} })).
		To(domain.NodeGenerator).
		Add(domain.NodeGenerator, graph.NodeFunc(func(context.Context, *domain.State) domain.Directive { return domain.Directive{} })).
		To(domain.End).
		Start(domain.NodeRouter).
		Build()
	require.NoError(t, err)
	a := &fakeAssistant{store: memory.NewStore(), g: g, maxInput: concierge.DefaultMaxInputSize}
	return a, apihttp.NewHandler(a, a.store, opts...)
}

func do(h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestChat(t *testing.T) {
	_, h := newAPI(t)

	rec := do(h, http.MethodPost, "/v1/chat", `{"session_id":"s1","message":"  hello  "}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp apihttp.ChatResponse
	require.NoError(t, xjson.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "s1", resp.SessionID)
	assert.Equal(t, "echo: hello", resp.Reply)
	assert.Equal(t, []string{domain.NodeRouter, domain.NodeGenerator}, resp.TaskHistory)
	assert.Empty(t, resp.Error)
}

func TestChat_NewSession(t *testing.T) {
	_, h := newAPI(t)

	rec := do(h, http.MethodPost, "/v1/chat", `{"message":"hello"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var resp apihttp.ChatResponse
	require.NoError(t, xjson.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Len(t, resp.SessionID, 36)
}

func TestChat_BadRequests(t *testing.T) {
	_, h := newAPI(t)

	tests := map[string]string{
		"not json":      `hello`,
		"empty message": `{"message":"   "}`,
		"too long":      `{"message":"` + strings.Repeat("a", concierge.DefaultMaxInputSize+1) + `"}`,
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			rec := do(h, http.MethodPost, "/v1/chat", body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestChat_InputLimitComesFromAssistant(t *testing.T) {
	a, h := newAPI(t)
	// 2000 runes of 3 bytes each: over 4000 bytes but under a raised limit.
	long := strings.Repeat("ش", 2000)

	a.maxInput = 8192
	rec := do(h, http.MethodPost, "/v1/chat", `{"session_id":"s1","message":"`+long+`"}`)
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	a.maxInput = 16
	rec = do(h, http.MethodPost, "/v1/chat", `{"session_id":"s2","message":"a message over sixteen bytes"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), concierge.ErrInputTooLarge.Error())

	_, err := a.store.Load(context.Background(), "s2")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestChat_EngineFault(t *testing.T) {
	a, h := newAPI(t)
	a.err = &domain.StepBudgetError{Budget: 100, LastNode: "router", Target: "router"}

	rec := do(h, http.MethodPost, "/v1/chat", `{"session_id":"s1","message":"loop"}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	var resp apihttp.ChatResponse
	require.NoError(t, xjson.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, concierge.FallbackReply, resp.Reply)
	assert.Contains(t, resp.Error, "step budget")
}

func TestSessions(t *testing.T) {
	_, h := newAPI(t)
	do(h, http.MethodPost, "/v1/chat", `{"session_id":"s1","message":"hello"}`)

	rec := do(h, http.MethodGet, "/v1/sessions", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"sessions":["s1"]}`, rec.Body.String())

	rec = do(h, http.MethodGet, "/v1/sessions/s1", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	var state domain.State
	require.NoError(t, xjson.Unmarshal(rec.Body.Bytes(), &state))
	assert.Len(t, state.Messages, 2)

	rec = do(h, http.MethodDelete, "/v1/sessions/s1", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(h, http.MethodGet, "/v1/sessions/s1", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGraph(t *testing.T) {
	_, h := newAPI(t)

	rec := do(h, http.MethodGet, "/v1/graph", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "graph TD")
	assert.NotContains(t, rec.Body.String(), "classDef visited")

	do(h, http.MethodPost, "/v1/chat", `{"session_id":"s1","message":"hello"}`)
	rec = do(h, http.MethodGet, "/v1/graph?session_id=s1", "")
	assert.Contains(t, rec.Body.String(), "classDef visited")

	rec = do(h, http.MethodGet, "/v1/graph?session_id=missing", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHealthAndMetrics(t *testing.T) {
	metrics := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write([]byte("# metrics")) })

	_, h := newAPI(t, apihttp.WithMetrics(metrics))
	assert.Equal(t, http.StatusOK, do(h, http.MethodGet, "/healthz", "").Code)
	assert.Equal(t, "# metrics", do(h, http.MethodGet, "/metrics", "").Body.String())

	_, h = newAPI(t, apihttp.WithHealthCheck(func(context.Context) error { return errors.New("redis down") }))
	rec := do(h, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "redis down")
	assert.Equal(t, http.StatusNotFound, do(h, http.MethodGet, "/metrics", "").Code)
}

func TestSubscribeEvents(t *testing.T) {
	_, h := newAPI(t)
	srv := httptest.NewServer(h)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/v1/events?session_id=s1", nil)
	require.NoError(t, err)
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	lines := bufio.NewScanner(resp.Body)
	require.True(t, lines.Scan())
	assert.Equal(t, "event: ping", lines.Text())

	// The subscription is registered before the ping is written.
	post, err := srv.Client().Post(srv.URL+"/v1/chat", "application/json", strings.NewReader(`{"session_id":"s1","message":"hi"}`))
	require.NoError(t, err)
	post.Body.Close()

	var data string
	for lines.Scan() {
		if strings.HasPrefix(lines.Text(), "data: {") {
			data = strings.TrimPrefix(lines.Text(), "data: ")
			break
		}
	}
	var turn apihttp.ChatResponse
	require.NoError(t, xjson.Unmarshal([]byte(data), &turn))
	assert.Equal(t, "echo: hi", turn.Reply)
}

func TestSubscribeEvents_RequiresSession(t *testing.T) {
	_, h := newAPI(t)
	assert.Equal(t, http.StatusBadRequest, do(h, http.MethodGet, "/v1/events", "").Code)
}
