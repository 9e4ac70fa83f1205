package middleware

import (
	"context"
	"fmt"
	"regexp"

	"github.com/aretw0/concierge/pkg/domain"
	"github.com/aretw0/concierge/pkg/ports"
)

// Mask replaces every redacted value.
const Mask = "***"

// DefaultRedactPatterns match e-mail addresses, phone numbers and passport numbers.
var DefaultRedactPatterns = []string{
	`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`,
	`\+\d{1,3}[\d \-]{7,}\d`,
	`\b0\d{9,10}\b`,
	`(?i)\bpassport(?: number| no\.?)?:?\s*[A-Z0-9]{6,9}\b`,
}

type redactMiddleware struct {
	next     ports.StateStore
	patterns []*regexp.Regexp
}

// NewRedactMiddleware masks message text matching any of the patterns before it is persisted.
// The state handed to Save is not modified.
func NewRedactMiddleware(patterns []string) (Middleware, error) {
	compiled := make([]*regexp.Regexp, len(patterns))
	for i, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid redact pattern %q: %w", p, err)
		}
		compiled[i] = re
	}
	return func(next ports.StateStore) ports.StateStore {
		return &redactMiddleware{next: next, patterns: compiled}
	}, nil
}

func (m *redactMiddleware) Save(ctx context.Context, sessionID string, state *domain.State) error {
	if state == nil || len(m.patterns) == 0 {
		return m.next.Save(ctx, sessionID, state)
	}
	cloned := state.Clone()
	for i := range cloned.Messages {
		cloned.Messages[i].Content = m.redact(cloned.Messages[i].Content)
	}
	if cloned.BlogResults != nil {
		cloned.BlogResults.Answer = m.redact(cloned.BlogResults.Answer)
	}
	return m.next.Save(ctx, sessionID, cloned)
}

func (m *redactMiddleware) redact(s string) string {
	for _, p := range m.patterns {
		s = p.ReplaceAllString(s, Mask)
	}
	return s
}

func (m *redactMiddleware) Load(ctx context.Context, sessionID string) (*domain.State, error) {
	return m.next.Load(ctx, sessionID)
}

func (m *redactMiddleware) Delete(ctx context.Context, sessionID string) error {
	return m.next.Delete(ctx, sessionID)
}

func (m *redactMiddleware) List(ctx context.Context) ([]string, error) {
	return m.next.List(ctx)
}
