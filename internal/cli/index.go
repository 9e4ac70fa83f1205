package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aretw0/concierge/pkg/content"
	"github.com/aretw0/concierge/pkg/ports"
)

// IndexReport summarises an indexing run.
type IndexReport struct {
	Documents int
	Skipped   int
	Chunks    int
}

// IndexDir indexes every article below dir. Documents whose URL is already indexed are skipped.
func IndexDir(ctx context.Context, idx ports.ContentIndexer, dir string, logger *slog.Logger) (IndexReport, error) {
	docs, err := content.LoadDir(dir)
	if err != nil {
		return IndexReport{}, fmt.Errorf("failed to load articles: %w", err)
	}

	var report IndexReport
	for _, doc := range docs {
		exists, err := idx.HasSource(ctx, doc.URL)
		if err != nil {
			return report, fmt.Errorf("failed to check %s: %w", doc.URL, err)
		}
		if exists {
			logger.Debug("Article already indexed", "url", doc.URL)
			report.Skipped++
			continue
		}
		n, err := idx.Index(ctx, doc)
		if err != nil {
			return report, fmt.Errorf("failed to index %s: %w", doc.URL, err)
		}
		logger.Info("Article indexed", "url", doc.URL, "title", doc.Title, "chunks", n)
		report.Documents++
		report.Chunks += n
	}
	return report, nil
}
