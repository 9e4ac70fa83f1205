package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/aretw0/concierge"
	"github.com/aretw0/concierge/internal/logging"
	"github.com/aretw0/concierge/internal/presentation/tui"
	"github.com/google/uuid"
)

// Chatter runs one turn of a persisted conversation.
type Chatter interface {
	Chat(ctx context.Context, sessionID, input string) (concierge.Turn, error)
}

// ChatOptions configures the interactive loop.
type ChatOptions struct {
	// SessionID continues an existing conversation. Empty starts a new one.
	SessionID string
	In        io.Reader
	Out       io.Writer
	// Render formats replies. Nil means tui.Plain.
	Render tui.Renderer
	Logger *slog.Logger
}

// RunChat reads one message per line from In and prints each reply to Out until
// the input ends, the user types exit or quit, or ctx is cancelled.
// The /new command starts a fresh session.
func RunChat(ctx context.Context, assistant Chatter, opts ChatOptions) error {
	if opts.Render == nil {
		opts.Render = tui.Plain
	}
	if opts.Logger == nil {
		opts.Logger = logging.NewNop()
	}
	sessionID := opts.SessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	printSystemMessage(opts.Out, "Session '%s' active. Type 'exit' to leave, '/new' to start over.", sessionID)

	scanner := bufio.NewScanner(&interruptibleReader{base: opts.In, cancel: ctx.Done()})
	for {
		fmt.Fprint(opts.Out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(opts.Out)
			if err := scanner.Err(); err != nil && !isInterrupted(err) {
				return fmt.Errorf("failed to read input: %w", err)
			}
			return nil
		}

		line := strings.TrimSpace(scanner.Text())
		switch line {
		case "":
			continue
		case "exit", "quit":
			printSystemMessage(opts.Out, "Bye!")
			return nil
		case "/new":
			sessionID = uuid.NewString()
			printSystemMessage(opts.Out, "Session '%s' active.", sessionID)
			continue
		}

		turn, err := assistant.Chat(ctx, sessionID, line)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			opts.Logger.Error("Chat turn failed", "session_id", sessionID, "error", err)
			if turn.Reply == "" {
				turn.Reply = concierge.FallbackReply
			}
		}
		fmt.Fprintln(opts.Out, opts.Render(turn.Reply))
	}
}

// printSystemMessage prints a standardized system message.
func printSystemMessage(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, ">>> %s\n", fmt.Sprintf(format, args...))
}
