package postgres_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/T-sashi-pavan/Automatic-poll-generation-sub000/pkg/store/postgres"
	"github.com/T-sashi-pavan/Automatic-poll-generation-sub000/pkg/types"
)

const testEmbeddingDim = 4

// testDSN returns the test database DSN from the environment, or skips the
// test if POLLGEN_TEST_POSTGRES_DSN is not set.
func testDSN(t *testing.T) string {
	t.Helper()
	dsn := os.Getenv("POLLGEN_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("POLLGEN_TEST_POSTGRES_DSN not set — skipping PostgreSQL integration tests")
	}
	return dsn
}

// newTestStore creates a fresh [postgres.Store] over a clean schema and
// registers cleanup to close it.
func newTestStore(t *testing.T) *postgres.Store {
	t.Helper()
	dsn := testDSN(t)
	ctx := context.Background()

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("pgxpool.New: %v", err)
	}
	t.Cleanup(pool.Close)
	for _, table := range []string{"transcript_lines", "segments", "question_sets"} {
		if _, err := pool.Exec(ctx, "DROP TABLE IF EXISTS "+table); err != nil {
			t.Fatalf("drop %s: %v", table, err)
		}
	}

	store, err := postgres.NewStore(ctx, dsn, testEmbeddingDim)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	t.Cleanup(store.Close)
	return store
}

func testLine(id, text string) types.TranscriptLine {
	return types.TranscriptLine{
		ID: id, Role: types.RoleHost, Text: text,
		Timestamp: time.Now().UTC(), IsFinal: true,
		Start: time.Second, End: 3 * time.Second,
	}
}

func TestStore_SegmentsAndLines(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	lines := []types.TranscriptLine{
		testLine("u1", "the water cycle begins with evaporation"),
		testLine("u2", "condensation forms clouds"),
	}
	if err := store.SaveSegmentLines(ctx, "room-1", 0, "the water cycle begins with evaporation condensation forms clouds", lines); err != nil {
		t.Fatalf("SaveSegmentLines: %v", err)
	}
	if err := store.SaveLines(ctx, "room-1", []types.TranscriptLine{testLine("u3", "an unsegmented closing remark")}); err != nil {
		t.Fatalf("SaveLines: %v", err)
	}

	segments, err := store.ListSegments(ctx, "room-1")
	if err != nil {
		t.Fatalf("ListSegments: %v", err)
	}
	if len(segments) != 1 || segments[0].Index != 0 || segments[0].LineCount != 2 {
		t.Errorf("segments = %+v", segments)
	}

	got, err := store.ListLines(ctx, "room-1", 0)
	if err != nil {
		t.Fatalf("ListLines: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("listed %d lines, want 3", len(got))
	}
	if got[0].ID != "u1" || got[0].Start != time.Second {
		t.Errorf("first line = %+v", got[0])
	}

	// Re-saving the same segment index replaces, not duplicates.
	if err := store.SaveSegmentLines(ctx, "room-1", 0, "revised text", nil); err != nil {
		t.Fatalf("SaveSegmentLines upsert: %v", err)
	}
	segments, err = store.ListSegments(ctx, "room-1")
	if err != nil {
		t.Fatalf("ListSegments: %v", err)
	}
	if len(segments) != 1 || segments[0].Text != "revised text" {
		t.Errorf("upserted segments = %+v", segments)
	}
}

func TestStore_SemanticSearch(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	seed := []struct {
		index     int
		text      string
		embedding []float32
	}{
		{0, "photosynthesis and chlorophyll", []float32{1, 0, 0, 0}},
		{1, "the krebs cycle and ATP", []float32{0, 1, 0, 0}},
		{2, "light dependent reactions", []float32{0.9, 0.1, 0, 0}},
	}
	for _, s := range seed {
		if err := store.SaveSegmentLines(ctx, "room-1", s.index, s.text, nil); err != nil {
			t.Fatalf("SaveSegmentLines: %v", err)
		}
		if err := store.IndexSegment(ctx, "room-1", s.index, s.embedding); err != nil {
			t.Fatalf("IndexSegment: %v", err)
		}
	}
	// A segment with no embedding must be invisible to search.
	if err := store.SaveSegmentLines(ctx, "room-1", 3, "never embedded", nil); err != nil {
		t.Fatalf("SaveSegmentLines: %v", err)
	}

	matches, err := store.SearchSegments(ctx, []float32{1, 0, 0, 0}, 2, "room-1")
	if err != nil {
		t.Fatalf("SearchSegments: %v", err)
	}
	if len(matches) != 2 {
		t.Fatalf("got %d matches, want 2", len(matches))
	}
	if matches[0].Segment.Index != 0 || matches[1].Segment.Index != 2 {
		t.Errorf("match order = %d, %d", matches[0].Segment.Index, matches[1].Segment.Index)
	}
	if matches[0].Distance > matches[1].Distance {
		t.Error("matches not ordered by ascending distance")
	}

	if err := store.IndexSegment(ctx, "room-1", 99, []float32{0, 0, 0, 1}); err == nil {
		t.Error("indexing a missing segment succeeded")
	}
}

func TestStore_QuestionSets(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	set := postgres.QuestionSet{
		RoomID:       "room-1",
		Source:       types.SourceSegment,
		SegmentIndex: 0,
		Provider:     "gemini",
		Questions: []types.Question{{
			Text:         "What forms clouds?",
			Options:      []string{"Condensation", "Evaporation", "Runoff", "Infiltration"},
			CorrectIndex: 0,
		}},
	}
	if err := store.SaveQuestionSet(ctx, set); err != nil {
		t.Fatalf("SaveQuestionSet: %v", err)
	}

	sets, err := store.ListQuestionSets(ctx, "room-1", 10)
	if err != nil {
		t.Fatalf("ListQuestionSets: %v", err)
	}
	if len(sets) != 1 {
		t.Fatalf("listed %d sets, want 1", len(sets))
	}
	got := sets[0]
	if got.Provider != "gemini" || got.Source != types.SourceSegment {
		t.Errorf("set metadata = %+v", got)
	}
	if len(got.Questions) != 1 || got.Questions[0].Text != "What forms clouds?" {
		t.Errorf("questions round-trip = %+v", got.Questions)
	}
}
