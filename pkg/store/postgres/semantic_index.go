package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	pgvector "github.com/pgvector/pgvector-go"
)

// SegmentMatch is one semantic search hit.
type SegmentMatch struct {
	Segment SegmentRecord `json:"segment"`

	// Distance is the cosine distance to the query embedding; smaller is
	// more similar.
	Distance float64 `json:"distance"`
}

// IndexSegment attaches a pre-computed embedding to an already-saved segment
// row, making it searchable. Embedding happens after the synchronous segment
// save, so a missing embedding never blocks the recording path.
func (s *Store) IndexSegment(ctx context.Context, roomID string, index int, embedding []float32) error {
	const q = `
		UPDATE segments
		SET    embedding = $3
		WHERE  room_id = $1 AND segment_index = $2`

	tag, err := s.pool.Exec(ctx, q, roomID, index, pgvector.NewVector(embedding))
	if err != nil {
		return fmt.Errorf("semantic index: index segment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("semantic index: segment %s/%d not found", roomID, index)
	}
	return nil
}

// SearchSegments finds the topK segments whose embeddings are closest (cosine
// distance) to the query embedding. roomID narrows the search to one room;
// empty searches every room. Segments without an embedding are skipped.
//
// Results are ordered by ascending distance (most similar first).
func (s *Store) SearchSegments(ctx context.Context, embedding []float32, topK int, roomID string) ([]SegmentMatch, error) {
	q := `
		SELECT room_id, segment_index, text, line_count, created_at,
		       embedding <=> $1 AS distance
		FROM   segments
		WHERE  embedding IS NOT NULL`
	args := []any{pgvector.NewVector(embedding)}
	if roomID != "" {
		args = append(args, roomID)
		q += fmt.Sprintf(`
		  AND room_id = $%d`, len(args))
	}
	args = append(args, topK)
	q += fmt.Sprintf(`
		ORDER  BY distance
		LIMIT  $%d`, len(args))

	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("semantic index: search: %w", err)
	}

	matches, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (SegmentMatch, error) {
		var m SegmentMatch
		err := row.Scan(&m.Segment.RoomID, &m.Segment.Index, &m.Segment.Text,
			&m.Segment.LineCount, &m.Segment.CreatedAt, &m.Distance)
		return m, err
	})
	if err != nil {
		return nil, fmt.Errorf("semantic index: scan rows: %w", err)
	}
	if matches == nil {
		matches = []SegmentMatch{}
	}
	return matches, nil
}
