package memory

import (
	"context"
	"slices"
	"strings"
	"sync"
	"unicode"

	"github.com/aretw0/concierge/pkg/content"
	"github.com/aretw0/concierge/pkg/domain"
	"github.com/aretw0/concierge/pkg/ports"
)

type chunk struct {
	passage domain.Passage
	terms   map[string]struct{}
}

// Retriever is a keyword-overlap ContentRetriever and ContentIndexer for development and tests.
// A passage scores the fraction of distinct query terms it contains.
type Retriever struct {
	mu      sync.RWMutex
	chunks  []chunk
	sources map[string]struct{}
}

// NewRetriever creates an empty corpus.
func NewRetriever() *Retriever {
	return &Retriever{sources: make(map[string]struct{})}
}

// Index chunks the document and adds it to the corpus.
func (r *Retriever) Index(ctx context.Context, doc ports.Document) (int, error) {
	pieces := content.ChunkText(doc.Text)

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range pieces {
		r.chunks = append(r.chunks, chunk{
			passage: domain.Passage{Text: p, SourceURL: doc.URL, Title: doc.Title},
			terms:   termSet(doc.Title + " " + p),
		})
	}
	r.sources[doc.URL] = struct{}{}
	return len(pieces), nil
}

// HasSource reports whether the URL was indexed.
func (r *Retriever) HasSource(ctx context.Context, url string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.sources[url]
	return ok, nil
}

// SimilaritySearch returns at most k passages sharing at least one term with the query,
// best first. Ties keep indexing order.
func (r *Retriever) SimilaritySearch(ctx context.Context, query string, k int) ([]domain.Passage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	q := termSet(query)
	if len(q) == 0 || k <= 0 {
		return nil, nil
	}

	r.mu.RLock()
	var hits []domain.Passage
	for _, c := range r.chunks {
		matched := 0
		for term := range q {
			if _, ok := c.terms[term]; ok {
				matched++
			}
		}
		if matched > 0 {
			p := c.passage
			p.Score = float64(matched) / float64(len(q))
			hits = append(hits, p)
		}
	}
	r.mu.RUnlock()

	slices.SortStableFunc(hits, func(a, b domain.Passage) int {
		switch {
		case a.Score > b.Score:
			return -1
		case a.Score < b.Score:
			return 1
		}
		return 0
	})
	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

// stopwords are ignored when scoring.
var stopwords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "are": {}, "best": {}, "for": {}, "in": {}, "is": {},
	"of": {}, "on": {}, "the": {}, "to": {}, "what": {}, "where": {}, "which": {}, "with": {},
}

func termSet(text string) map[string]struct{} {
	terms := make(map[string]struct{})
	for _, f := range strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	}) {
		if _, stop := stopwords[f]; stop || len([]rune(f)) < 2 {
			continue
		}
		terms[f] = struct{}{}
	}
	return terms
}
