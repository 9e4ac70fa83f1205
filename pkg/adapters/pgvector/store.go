// Package pgvector implements content retrieval and indexing on Postgres with the
// pgvector extension.
package pgvector

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aretw0/concierge/internal/logging"
	"github.com/aretw0/concierge/pkg/content"
	"github.com/aretw0/concierge/pkg/domain"
	"github.com/aretw0/concierge/pkg/ports"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
)

// DefaultDimensions matches nomic-embed-text.
const DefaultDimensions = 768

// DB is the subset of *pgxpool.Pool used by the store. pgx.Tx satisfies it too.
type DB interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store implements ports.ContentRetriever and ports.ContentIndexer.
type Store struct {
	db         DB
	embedder   ports.Embedder
	dimensions int
	logger     *slog.Logger
	closer     func()
}

type Option func(*Store)

// WithDimensions sets the embedding size. Vectors of any other size are rejected.
func WithDimensions(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.dimensions = n
		}
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New wraps an existing connection.
func New(db DB, embedder ports.Embedder, opts ...Option) *Store {
	s := &Store{
		db:         db,
		embedder:   embedder,
		dimensions: DefaultDimensions,
		logger:     logging.NewNop(),
		closer:     func() {},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Connect opens a pool for url and verifies connectivity.
func Connect(ctx context.Context, url string, embedder ports.Embedder, opts ...Option) (*Store, error) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping Postgres: %w", err)
	}
	s := New(pool, embedder, opts...)
	s.closer = pool.Close
	return s, nil
}

// Close releases the pool opened by Connect.
func (s *Store) Close() {
	s.closer()
}

// EnsureSchema creates the extension, table and indexes if they are missing.
func (s *Store) EnsureSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS travel_passages (
			id          BIGSERIAL PRIMARY KEY,
			source_url  TEXT NOT NULL,
			title       TEXT NOT NULL DEFAULT '',
			chunk_index INT NOT NULL,
			content     TEXT NOT NULL,
			embedding   vector(%d) NOT NULL
		)`, s.dimensions),
		`CREATE INDEX IF NOT EXISTS travel_passages_source_idx ON travel_passages (source_url)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to ensure schema: %w", err)
		}
	}
	return nil
}

// Index chunks, embeds and stores a document in one transaction.
// All chunks are embedded before any row is written.
func (s *Store) Index(ctx context.Context, doc ports.Document) (int, error) {
	if doc.URL == "" {
		return 0, errors.New("document url is required")
	}
	chunks := content.ChunkText(doc.Text)
	if len(chunks) == 0 {
		return 0, nil
	}

	vectors := make([]pgvector.Vector, len(chunks))
	for i, chunk := range chunks {
		emb, err := s.embed(ctx, chunk)
		if err != nil {
			return 0, fmt.Errorf("failed embedding chunk %d of %s: %w", i, doc.URL, err)
		}
		vectors[i] = emb
	}

	// A document is stored whole or not at all; HasSource must never see a partial one.
	err := pgx.BeginFunc(ctx, s.db, func(tx pgx.Tx) error {
		for i, chunk := range chunks {
			_, err := tx.Exec(ctx,
				"INSERT INTO travel_passages (source_url, title, chunk_index, content, embedding) VALUES ($1, $2, $3, $4, $5)",
				doc.URL, doc.Title, i, chunk, vectors[i])
			if err != nil {
				return fmt.Errorf("failed to insert chunk %d of %s: %w", i, doc.URL, err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	s.logger.Debug("document indexed", "url", doc.URL, "chunks", len(chunks))
	return len(chunks), nil
}

// HasSource reports whether any chunk of url is stored.
func (s *Store) HasSource(ctx context.Context, url string) (bool, error) {
	var exists bool
	err := s.db.QueryRow(ctx, "SELECT EXISTS (SELECT 1 FROM travel_passages WHERE source_url = $1)", url).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check source: %w", err)
	}
	return exists, nil
}

// SimilaritySearch returns the k passages nearest to the query embedding (L2 distance).
// Score is 1/(1+distance), so closer passages score higher.
func (s *Store) SimilaritySearch(ctx context.Context, query string, k int) ([]domain.Passage, error) {
	if k <= 0 {
		return nil, nil
	}
	emb, err := s.embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	rows, err := s.db.Query(ctx,
		"SELECT source_url, title, content, embedding <-> $1 AS distance FROM travel_passages ORDER BY embedding <-> $1 LIMIT $2",
		emb, k)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	var results []domain.Passage
	for rows.Next() {
		var p domain.Passage
		var distance float64
		if err := rows.Scan(&p.SourceURL, &p.Title, &p.Text, &distance); err != nil {
			return nil, fmt.Errorf("failed to scan passage: %w", err)
		}
		p.Score = 1 / (1 + distance)
		results = append(results, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate passages: %w", err)
	}
	return results, nil
}

func (s *Store) embed(ctx context.Context, text string) (pgvector.Vector, error) {
	emb, err := s.embedder.Embed(ctx, text)
	if err != nil {
		return pgvector.Vector{}, err
	}
	if len(emb) != s.dimensions {
		return pgvector.Vector{}, fmt.Errorf("expected embedding dim %d, got %d", s.dimensions, len(emb))
	}
	return pgvector.NewVector(emb), nil
}
