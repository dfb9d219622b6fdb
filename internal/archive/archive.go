// Package archive persists recording-session output: transcript lines,
// committed segments, and generated question sets. It also maintains the
// semantic index that makes past segments searchable.
//
// The archive sits between the session core and the storage backend. Segment
// saves are synchronous — the session core's commit semantics depend on the
// write having happened — while embedding is kicked off in the background so
// a slow embedding model never blocks the recording path.
package archive

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/T-sashi-pavan/Automatic-poll-generation-sub000/pkg/provider/embeddings"
	"github.com/T-sashi-pavan/Automatic-poll-generation-sub000/pkg/store/postgres"
	"github.com/T-sashi-pavan/Automatic-poll-generation-sub000/pkg/types"
)

// embedTimeout bounds a single background embedding call.
const embedTimeout = 30 * time.Second

// Store is the storage surface the archive needs. *postgres.Store satisfies
// it; tests substitute a fake.
type Store interface {
	SaveSegmentLines(ctx context.Context, roomID string, index int, text string, lines []types.TranscriptLine) error
	SaveLines(ctx context.Context, roomID string, lines []types.TranscriptLine) error
	IndexSegment(ctx context.Context, roomID string, index int, embedding []float32) error
	SearchSegments(ctx context.Context, embedding []float32, topK int, roomID string) ([]postgres.SegmentMatch, error)
	SaveQuestionSet(ctx context.Context, set postgres.QuestionSet) error
	ListQuestionSets(ctx context.Context, roomID string, limit int) ([]postgres.QuestionSet, error)
	ListSegments(ctx context.Context, roomID string) ([]postgres.SegmentRecord, error)
}

// Archive persists session output and serves semantic search. Safe for
// concurrent use.
type Archive struct {
	store    Store
	embedder embeddings.Provider
	log      *slog.Logger

	// spawn indirection for the background embedding job; tests run it
	// synchronously.
	spawn func(func())
}

// New builds an Archive. embedder may be nil, which disables the semantic
// index: segments are still saved, searches return an error.
func New(store Store, embedder embeddings.Provider, logger *slog.Logger) *Archive {
	if logger == nil {
		logger = slog.Default()
	}
	return &Archive{
		store:    store,
		embedder: embedder,
		log:      logger.With("component", "archive"),
		spawn:    func(f func()) { go f() },
	}
}

// SaveSegment durably stores a closed segment and its lines, then schedules
// background embedding for the semantic index. The save is synchronous; the
// embedding is not, and an embedding failure only logs.
//
// SaveSegment satisfies the session core's transcript store contract.
func (a *Archive) SaveSegment(ctx context.Context, roomID string, index int, text string, lines []types.TranscriptLine) error {
	if err := a.store.SaveSegmentLines(ctx, roomID, index, text, lines); err != nil {
		return fmt.Errorf("archive: save segment: %w", err)
	}

	if a.embedder != nil {
		a.spawn(func() { a.indexSegment(roomID, index, text) })
	}
	return nil
}

// SaveLines durably stores lines that never joined a committed segment.
func (a *Archive) SaveLines(ctx context.Context, roomID string, lines []types.TranscriptLine) error {
	if err := a.store.SaveLines(ctx, roomID, lines); err != nil {
		return fmt.Errorf("archive: save lines: %w", err)
	}
	return nil
}

func (a *Archive) indexSegment(roomID string, index int, text string) {
	ctx, cancel := context.WithTimeout(context.Background(), embedTimeout)
	defer cancel()

	vec, err := a.embedder.Embed(ctx, text)
	if err != nil {
		a.log.Warn("segment embedding failed",
			"room_id", roomID, "segment_index", index, "error", err)
		return
	}
	if err := a.store.IndexSegment(ctx, roomID, index, vec); err != nil {
		a.log.Warn("segment indexing failed",
			"room_id", roomID, "segment_index", index, "error", err)
		return
	}
	a.log.Debug("segment indexed", "room_id", roomID, "segment_index", index)
}

// RecordQuestionSet archives a generation result for later review.
func (a *Archive) RecordQuestionSet(ctx context.Context, set postgres.QuestionSet) error {
	if err := a.store.SaveQuestionSet(ctx, set); err != nil {
		return fmt.Errorf("archive: record question set: %w", err)
	}
	return nil
}

// QuestionHistory returns a room's archived question sets, newest first.
func (a *Archive) QuestionHistory(ctx context.Context, roomID string, limit int) ([]postgres.QuestionSet, error) {
	return a.store.ListQuestionSets(ctx, roomID, limit)
}

// Segments returns a room's committed segments in index order.
func (a *Archive) Segments(ctx context.Context, roomID string) ([]postgres.SegmentRecord, error) {
	return a.store.ListSegments(ctx, roomID)
}

// Search embeds query and returns the topK most similar segments. roomID
// narrows the search to one room; empty searches all rooms.
func (a *Archive) Search(ctx context.Context, query string, topK int, roomID string) ([]postgres.SegmentMatch, error) {
	if a.embedder == nil {
		return nil, fmt.Errorf("archive: semantic search disabled, no embedding provider configured")
	}
	if topK <= 0 {
		topK = 5
	}

	vec, err := a.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("archive: embed query: %w", err)
	}
	matches, err := a.store.SearchSegments(ctx, vec, topK, roomID)
	if err != nil {
		return nil, fmt.Errorf("archive: search segments: %w", err)
	}
	return matches, nil
}
