// Package postgres provides the PostgreSQL-backed transcript archive: final
// transcript lines, silence-bounded segments with pgvector embeddings for
// semantic search, and the generated question history.
//
// Everything shares a single [pgxpool.Pool]. The pgvector extension must be
// available in the target database; [Migrate] installs it automatically via
// CREATE EXTENSION IF NOT EXISTS.
//
// Usage:
//
//	store, err := postgres.NewStore(ctx, dsn, 1536)
//	if err != nil { … }
//	defer store.Close()
//
//	_ = store.SaveSegmentLines(ctx, "room-1", 0, text, lines)
//	results, _ := store.SearchSegments(ctx, queryEmbedding, 5, "room-1")
package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// ─────────────────────────────────────────────────────────────────────────────
// DDL — transcript lines and question history
// ─────────────────────────────────────────────────────────────────────────────

const ddlTranscripts = `
CREATE TABLE IF NOT EXISTS transcript_lines (
    id            BIGSERIAL    PRIMARY KEY,
    room_id       TEXT         NOT NULL,
    line_id       TEXT         NOT NULL DEFAULT '',
    segment_index INT          NOT NULL DEFAULT -1,
    role          TEXT         NOT NULL DEFAULT 'host',
    text          TEXT         NOT NULL,
    spoken_at     TIMESTAMPTZ  NOT NULL DEFAULT now(),
    start_ns      BIGINT       NOT NULL DEFAULT 0,
    end_ns        BIGINT       NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_transcript_lines_room
    ON transcript_lines (room_id, spoken_at);

CREATE INDEX IF NOT EXISTS idx_transcript_lines_segment
    ON transcript_lines (room_id, segment_index);

CREATE INDEX IF NOT EXISTS idx_transcript_lines_fts
    ON transcript_lines USING GIN (to_tsvector('english', text));
`

const ddlQuestions = `
CREATE TABLE IF NOT EXISTS question_sets (
    id            BIGSERIAL    PRIMARY KEY,
    room_id       TEXT         NOT NULL,
    source        TEXT         NOT NULL,
    segment_index INT          NOT NULL DEFAULT -1,
    session_id    TEXT         NOT NULL DEFAULT '',
    provider      TEXT         NOT NULL DEFAULT '',
    questions     JSONB        NOT NULL,
    created_at    TIMESTAMPTZ  NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_question_sets_room
    ON question_sets (room_id, created_at);
`

// ddlSegments returns the segments DDL with the embedding dimension
// substituted. The vector dimension is baked into the column type at schema
// creation time.
func ddlSegments(embeddingDimensions int) string {
	return fmt.Sprintf(`
CREATE EXTENSION IF NOT EXISTS vector;

CREATE TABLE IF NOT EXISTS segments (
    room_id       TEXT         NOT NULL,
    segment_index INT          NOT NULL,
    text          TEXT         NOT NULL,
    embedding     vector(%d),
    line_count    INT          NOT NULL DEFAULT 0,
    created_at    TIMESTAMPTZ  NOT NULL DEFAULT now(),
    PRIMARY KEY (room_id, segment_index)
);

CREATE INDEX IF NOT EXISTS idx_segments_embedding
    ON segments USING hnsw (embedding vector_cosine_ops);
`, embeddingDimensions)
}

// Migrate creates or ensures all required tables and extensions exist. It is
// idempotent and safe to call on every application start.
//
// embeddingDimensions must match the embedding model configured for the
// deployment (e.g., 1536 for OpenAI text-embedding-3-small, 768 for
// nomic-embed-text). Changing it after the first migration requires a manual
// schema update.
func Migrate(ctx context.Context, pool *pgxpool.Pool, embeddingDimensions int) error {
	statements := []string{
		ddlTranscripts,
		ddlSegments(embeddingDimensions),
		ddlQuestions,
	}

	for _, stmt := range statements {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("postgres migrate: %w", err)
		}
	}
	return nil
}
