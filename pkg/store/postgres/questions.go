package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/T-sashi-pavan/Automatic-poll-generation-sub000/pkg/types"
)

// QuestionSet is one archived generation result.
type QuestionSet struct {
	RoomID string                 `json:"roomId"`
	Source types.GenerationSource `json:"source"`

	// SegmentIndex is -1 for timer-sourced sets.
	SegmentIndex int `json:"segmentIndex"`

	// SessionID is empty for segment-sourced sets.
	SessionID string `json:"sessionId,omitempty"`

	// Provider is the backend that produced the set ("gemini", "ollama").
	Provider string `json:"provider"`

	Questions []types.Question `json:"questions"`
	CreatedAt time.Time        `json:"createdAt"`
}

// SaveQuestionSet archives a generation result. The questions themselves are
// stored as JSONB; the core never queries inside them.
func (s *Store) SaveQuestionSet(ctx context.Context, set QuestionSet) error {
	payload, err := json.Marshal(set.Questions)
	if err != nil {
		return fmt.Errorf("question store: encode questions: %w", err)
	}

	const q = `
		INSERT INTO question_sets
		    (room_id, source, segment_index, session_id, provider, questions)
		VALUES ($1, $2, $3, $4, $5, $6)`
	_, err = s.pool.Exec(ctx, q,
		set.RoomID, string(set.Source), set.SegmentIndex, set.SessionID, set.Provider, payload)
	if err != nil {
		return fmt.Errorf("question store: save question set: %w", err)
	}
	return nil
}

// ListQuestionSets returns roomID's archived question sets, newest first,
// capped at limit (0 means no cap).
func (s *Store) ListQuestionSets(ctx context.Context, roomID string, limit int) ([]QuestionSet, error) {
	q := `
		SELECT room_id, source, segment_index, session_id, provider, questions, created_at
		FROM   question_sets
		WHERE  room_id = $1
		ORDER  BY created_at DESC`
	args := []any{roomID}
	if limit > 0 {
		q += `
		LIMIT  $2`
		args = append(args, limit)
	}

	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("question store: list question sets: %w", err)
	}

	sets, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (QuestionSet, error) {
		var (
			set     QuestionSet
			payload []byte
		)
		if err := row.Scan(&set.RoomID, &set.Source, &set.SegmentIndex, &set.SessionID,
			&set.Provider, &payload, &set.CreatedAt); err != nil {
			return QuestionSet{}, err
		}
		if err := json.Unmarshal(payload, &set.Questions); err != nil {
			return QuestionSet{}, fmt.Errorf("decode questions: %w", err)
		}
		return set, nil
	})
	if err != nil {
		return nil, fmt.Errorf("question store: scan question sets: %w", err)
	}
	return sets, nil
}
