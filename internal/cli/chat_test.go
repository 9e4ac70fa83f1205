package cli

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/aretw0/concierge"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scriptedChatter struct {
	sessions []string
	inputs   []string
	err      error
}

func (s *scriptedChatter) Chat(_ context.Context, sessionID, input string) (concierge.Turn, error) {
	s.sessions = append(s.sessions, sessionID)
	s.inputs = append(s.inputs, input)
	if s.err != nil {
		return concierge.Turn{Reply: concierge.FallbackReply}, s.err
	}
	return concierge.Turn{Reply: "reply to " + input}, nil
}

func TestRunChat(t *testing.T) {
	chatter := &scriptedChatter{}
	var out bytes.Buffer

	err := RunChat(context.Background(), chatter, ChatOptions{
		SessionID: "s1",
		In:        strings.NewReader("hello\n\n  second  \n/new\nthird\nexit\nnever\n"),
		Out:       &out,
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"hello", "second", "third"}, chatter.inputs)
	assert.Equal(t, "s1", chatter.sessions[0])
	assert.Equal(t, "s1", chatter.sessions[1])
	assert.NotEqual(t, "s1", chatter.sessions[2], "/new starts another session")
	assert.Contains(t, out.String(), "reply to hello")
	assert.Contains(t, out.String(), ">>> Bye!")
}

func TestRunChat_EndOfInput(t *testing.T) {
	chatter := &scriptedChatter{}
	var out bytes.Buffer
	err := RunChat(context.Background(), chatter, ChatOptions{In: strings.NewReader("hi"), Out: &out})
	require.NoError(t, err)
	require.Len(t, chatter.sessions, 1)
	assert.Len(t, chatter.sessions[0], 36)
}

func TestRunChat_FailedTurnPrintsFallback(t *testing.T) {
	chatter := &scriptedChatter{err: errors.New("step budget exceeded")}
	var out bytes.Buffer
	err := RunChat(context.Background(), chatter, ChatOptions{In: strings.NewReader("hi\n"), Out: &out})
	require.NoError(t, err)
	assert.Contains(t, out.String(), concierge.FallbackReply)
}

func TestRunChat_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	chatter := &scriptedChatter{}
	var out bytes.Buffer
	err := RunChat(ctx, chatter, ChatOptions{In: strings.NewReader("hi\n"), Out: &out})
	require.NoError(t, err)
	assert.Empty(t, chatter.inputs)
}

func TestRunChat_RendersReplies(t *testing.T) {
	chatter := &scriptedChatter{}
	var out bytes.Buffer
	err := RunChat(context.Background(), chatter, ChatOptions{
		In:     strings.NewReader("hi\n"),
		Out:    &out,
		Render: func(s string) string { return "[" + s + "]" },
	})
	require.NoError(t, err)
	assert.Contains(t, out.String(), "[reply to hi]")
}
