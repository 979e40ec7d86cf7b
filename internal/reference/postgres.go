package reference

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/raylirui-self/mech-drawing-analyzer/internal/model"
)

// DefaultDimensions matches nomic-embed-text.
const DefaultDimensions = 768

// Store keeps reference entries and their embeddings in PostgreSQL with the
// pgvector extension.
type Store struct {
	Pool       *pgxpool.Pool
	Dimensions int
}

// NewStore connects to connStr and verifies the connection.
func NewStore(ctx context.Context, connStr string, dimensions int) (*Store, error) {
	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	if dimensions <= 0 {
		dimensions = DefaultDimensions
	}
	return &Store{Pool: pool, Dimensions: dimensions}, nil
}

// Close releases the pool.
func (s *Store) Close() {
	s.Pool.Close()
}

// Initialize creates the extension, table and vector index if missing.
func (s *Store) Initialize(ctx context.Context) error {
	if _, err := s.Pool.Exec(ctx, `CREATE EXTENSION IF NOT EXISTS vector`); err != nil {
		return fmt.Errorf("failed to create vector extension: %w", err)
	}

	_, err := s.Pool.Exec(ctx, fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS reference_entries (
			id SERIAL PRIMARY KEY,
			title TEXT NOT NULL,
			content TEXT NOT NULL,
			summary TEXT NOT NULL DEFAULT '',
			keywords TEXT[] NOT NULL DEFAULT '{}',
			embedding vector(%d) NOT NULL
		)
	`, s.Dimensions))
	if err != nil {
		return fmt.Errorf("failed to create reference_entries table: %w", err)
	}

	_, err = s.Pool.Exec(ctx, `
		CREATE INDEX IF NOT EXISTS reference_entries_embedding_idx ON reference_entries
		USING hnsw (embedding vector_cosine_ops)
	`)
	if err != nil {
		return fmt.Errorf("failed to create vector index: %w", err)
	}
	return nil
}

// Insert stores one entry with its embedding.
func (s *Store) Insert(ctx context.Context, e Entry, embedding []float64) error {
	if len(embedding) != s.Dimensions {
		return fmt.Errorf("embedding has %d dimensions, store expects %d", len(embedding), s.Dimensions)
	}
	keywords := e.Keywords
	if keywords == nil {
		keywords = []string{}
	}
	_, err := s.Pool.Exec(ctx, `
		INSERT INTO reference_entries (title, content, summary, keywords, embedding)
		VALUES ($1, $2, $3, $4, $5::vector)
	`, e.Title, e.Content, e.Summary, keywords, vectorLiteral(embedding))
	if err != nil {
		return fmt.Errorf("failed to insert reference %q: %w", e.Title, err)
	}
	return nil
}

// Similar returns the limit entries closest to embedding by cosine distance.
// Score is the cosine similarity.
func (s *Store) Similar(ctx context.Context, embedding []float64, limit int) ([]model.ReferenceContext, error) {
	rows, err := s.Pool.Query(ctx, `
		SELECT title, content, summary, 1 - (embedding <=> $1::vector) AS score
		FROM reference_entries
		ORDER BY embedding <=> $1::vector
		LIMIT $2
	`, vectorLiteral(embedding), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query similar references: %w", err)
	}

	refs, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.ReferenceContext, error) {
		var r model.ReferenceContext
		err := row.Scan(&r.Title, &r.Content, &r.Summary, &r.Score)
		return r, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan references: %w", err)
	}
	return refs, nil
}

func vectorLiteral(v []float64) string {
	var b strings.Builder
	b.WriteByte('[')
	for i, f := range v {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatFloat(f, 'g', -1, 32))
	}
	b.WriteByte(']')
	return b.String()
}

// VectorRetriever embeds the query and searches a Store.
type VectorRetriever struct {
	Store    *Store
	Embedder Embedder
}

// Retrieve implements Retriever.
func (r *VectorRetriever) Retrieve(ctx context.Context, q Query) ([]model.ReferenceContext, error) {
	text := q.String()
	if text == "" {
		return []model.ReferenceContext{}, nil
	}
	embedding, err := r.Embedder.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	return r.Store.Similar(ctx, embedding, q.limit())
}

// Inserter is the write side of a Store.
type Inserter interface {
	Insert(ctx context.Context, e Entry, embedding []float64) error
}

// Index embeds and stores entries with at most workers requests in flight.
// The first failure cancels the remaining work.
func Index(ctx context.Context, dst Inserter, embedder Embedder, entries []Entry, workers int, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	if workers < 1 {
		workers = 1
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, e := range entries {
		g.Go(func() error {
			embedding, err := embedder.Embed(ctx, e.text())
			if err != nil {
				return fmt.Errorf("failed to embed reference %d (%s): %w", i, e.Title, err)
			}
			if err := dst.Insert(ctx, e, embedding); err != nil {
				return err
			}
			logger.Debug("reference indexed", zap.String("title", e.Title))
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("references indexed", zap.Int("count", len(entries)))
	return nil
}
