package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/T-sashi-pavan/Automatic-poll-generation-sub000/pkg/types"
)

// SegmentRecord is one archived segment row.
type SegmentRecord struct {
	RoomID    string    `json:"roomId"`
	Index     int       `json:"index"`
	Text      string    `json:"text"`
	LineCount int       `json:"lineCount"`
	CreatedAt time.Time `json:"createdAt"`
}

// SaveLines appends final transcript lines for roomID without a segment
// association (segment_index -1). Used for stop-time flushes and retries of
// lines whose segment save failed.
func (s *Store) SaveLines(ctx context.Context, roomID string, lines []types.TranscriptLine) error {
	return s.insertLines(ctx, roomID, -1, lines)
}

// SaveSegmentLines appends the final lines that make up segment index of
// roomID, then upserts the segment row itself. The two writes share a
// transaction so a segment never exists without its lines.
func (s *Store) SaveSegmentLines(ctx context.Context, roomID string, index int, text string, lines []types.TranscriptLine) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("transcript store: begin: %w", err)
	}
	defer tx.Rollback(ctx)

	const q = `
		INSERT INTO segments (room_id, segment_index, text, line_count)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (room_id, segment_index) DO UPDATE SET
		    text       = EXCLUDED.text,
		    line_count = EXCLUDED.line_count`
	if _, err := tx.Exec(ctx, q, roomID, index, text, len(lines)); err != nil {
		return fmt.Errorf("transcript store: save segment: %w", err)
	}

	batch := &pgx.Batch{}
	for _, l := range lines {
		queueLine(batch, roomID, index, l)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("transcript store: save segment lines: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("transcript store: commit: %w", err)
	}
	return nil
}

func (s *Store) insertLines(ctx context.Context, roomID string, segmentIndex int, lines []types.TranscriptLine) error {
	if len(lines) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, l := range lines {
		queueLine(batch, roomID, segmentIndex, l)
	}
	if err := s.pool.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("transcript store: save lines: %w", err)
	}
	return nil
}

func queueLine(batch *pgx.Batch, roomID string, segmentIndex int, l types.TranscriptLine) {
	const q = `
		INSERT INTO transcript_lines
		    (room_id, line_id, segment_index, role, text, spoken_at, start_ns, end_ns)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	batch.Queue(q, roomID, l.ID, segmentIndex, string(l.Role), l.Text, l.Timestamp,
		l.Start.Nanoseconds(), l.End.Nanoseconds())
}

// ListSegments returns roomID's segments in index order.
func (s *Store) ListSegments(ctx context.Context, roomID string) ([]SegmentRecord, error) {
	const q = `
		SELECT room_id, segment_index, text, line_count, created_at
		FROM   segments
		WHERE  room_id = $1
		ORDER  BY segment_index`

	rows, err := s.pool.Query(ctx, q, roomID)
	if err != nil {
		return nil, fmt.Errorf("transcript store: list segments: %w", err)
	}

	records, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (SegmentRecord, error) {
		var r SegmentRecord
		err := row.Scan(&r.RoomID, &r.Index, &r.Text, &r.LineCount, &r.CreatedAt)
		return r, err
	})
	if err != nil {
		return nil, fmt.Errorf("transcript store: scan segments: %w", err)
	}
	return records, nil
}

// ListLines returns roomID's archived lines in spoken order, capped at limit
// (0 means no cap).
func (s *Store) ListLines(ctx context.Context, roomID string, limit int) ([]types.TranscriptLine, error) {
	q := `
		SELECT line_id, role, text, spoken_at, start_ns, end_ns
		FROM   transcript_lines
		WHERE  room_id = $1
		ORDER  BY spoken_at, id`
	args := []any{roomID}
	if limit > 0 {
		q += `
		LIMIT  $2`
		args = append(args, limit)
	}

	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("transcript store: list lines: %w", err)
	}

	lines, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (types.TranscriptLine, error) {
		var (
			l              types.TranscriptLine
			startNs, endNs int64
		)
		if err := row.Scan(&l.ID, &l.Role, &l.Text, &l.Timestamp, &startNs, &endNs); err != nil {
			return types.TranscriptLine{}, err
		}
		l.IsFinal = true
		l.Start = time.Duration(startNs)
		l.End = time.Duration(endNs)
		return l, nil
	})
	if err != nil {
		return nil, fmt.Errorf("transcript store: scan lines: %w", err)
	}
	return lines, nil
}
