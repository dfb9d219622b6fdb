package archive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/T-sashi-pavan/Automatic-poll-generation-sub000/pkg/provider/embeddings"
	embedmock "github.com/T-sashi-pavan/Automatic-poll-generation-sub000/pkg/provider/embeddings/mock"
	"github.com/T-sashi-pavan/Automatic-poll-generation-sub000/pkg/store/postgres"
	"github.com/T-sashi-pavan/Automatic-poll-generation-sub000/pkg/types"
)

type fakeStore struct {
	mu           sync.Mutex
	segments     map[string]string // "room/index" -> text
	indexed      map[string][]float32
	lineBatches  int
	questionSets []postgres.QuestionSet

	saveErr  error
	indexErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		segments: make(map[string]string),
		indexed:  make(map[string][]float32),
	}
}

func key(roomID string, index int) string {
	return fmt.Sprintf("%s/%d", roomID, index)
}

func (f *fakeStore) SaveSegmentLines(_ context.Context, roomID string, index int, text string, _ []types.TranscriptLine) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return f.saveErr
	}
	f.segments[key(roomID, index)] = text
	return nil
}

func (f *fakeStore) SaveLines(_ context.Context, _ string, _ []types.TranscriptLine) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return f.saveErr
	}
	f.lineBatches++
	return nil
}

func (f *fakeStore) IndexSegment(_ context.Context, roomID string, index int, embedding []float32) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.indexErr != nil {
		return f.indexErr
	}
	f.indexed[key(roomID, index)] = embedding
	return nil
}

func (f *fakeStore) SearchSegments(_ context.Context, _ []float32, topK int, _ string) ([]postgres.SegmentMatch, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	matches := []postgres.SegmentMatch{{Segment: postgres.SegmentRecord{RoomID: "room-1", Index: 0, Text: "hit"}}}
	if topK < len(matches) {
		matches = matches[:topK]
	}
	return matches, nil
}

func (f *fakeStore) SaveQuestionSet(_ context.Context, set postgres.QuestionSet) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.questionSets = append(f.questionSets, set)
	return nil
}

func (f *fakeStore) ListQuestionSets(_ context.Context, _ string, _ int) ([]postgres.QuestionSet, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.questionSets, nil
}

func (f *fakeStore) ListSegments(_ context.Context, _ string) ([]postgres.SegmentRecord, error) {
	return nil, nil
}

func newTestArchive(store Store, embedder embeddings.Provider) *Archive {
	a := New(store, embedder, slog.New(slog.NewTextHandler(io.Discard, nil)))
	a.spawn = func(f func()) { f() }
	return a
}

func TestArchive_SaveSegmentIndexesInBackground(t *testing.T) {
	store := newFakeStore()
	embedder := &embedmock.Provider{EmbedResult: []float32{1, 2, 3}, DimensionsValue: 3}
	a := newTestArchive(store, embedder)

	err := a.SaveSegment(context.Background(), "room-1", 0, "the water cycle", nil)
	if err != nil {
		t.Fatalf("SaveSegment: %v", err)
	}

	if got := store.segments[key("room-1", 0)]; got != "the water cycle" {
		t.Errorf("stored text = %q", got)
	}
	if vec := store.indexed[key("room-1", 0)]; len(vec) != 3 {
		t.Errorf("indexed vector = %v", vec)
	}
	if len(embedder.EmbedTexts) != 1 || embedder.EmbedTexts[0] != "the water cycle" {
		t.Errorf("embedded texts = %v", embedder.EmbedTexts)
	}
}

func TestArchive_SaveSegmentWithoutEmbedder(t *testing.T) {
	store := newFakeStore()
	a := newTestArchive(store, nil)

	if err := a.SaveSegment(context.Background(), "room-1", 0, "text", nil); err != nil {
		t.Fatalf("SaveSegment: %v", err)
	}
	if len(store.indexed) != 0 {
		t.Error("indexing happened without an embedder")
	}

	if _, err := a.Search(context.Background(), "query", 5, ""); err == nil {
		t.Error("search succeeded without an embedder")
	}
}

func TestArchive_EmbeddingFailureDoesNotFailSave(t *testing.T) {
	store := newFakeStore()
	embedder := &embedmock.Provider{EmbedErr: errors.New("model offline")}
	a := newTestArchive(store, embedder)

	if err := a.SaveSegment(context.Background(), "room-1", 1, "text", nil); err != nil {
		t.Fatalf("SaveSegment: %v", err)
	}
	if len(store.indexed) != 0 {
		t.Error("failed embedding still indexed")
	}
}

func TestArchive_SaveSegmentPropagatesStoreError(t *testing.T) {
	store := newFakeStore()
	store.saveErr = errors.New("db down")
	a := newTestArchive(store, nil)

	if err := a.SaveSegment(context.Background(), "room-1", 0, "text", nil); err == nil {
		t.Error("store failure swallowed")
	}
	if err := a.SaveLines(context.Background(), "room-1", nil); err == nil {
		t.Error("line store failure swallowed")
	}
}

func TestArchive_Search(t *testing.T) {
	store := newFakeStore()
	embedder := &embedmock.Provider{EmbedResult: []float32{0.5, 0.5}}
	a := newTestArchive(store, embedder)

	matches, err := a.Search(context.Background(), "osmosis", 0, "room-1")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(matches) != 1 || matches[0].Segment.Text != "hit" {
		t.Errorf("matches = %+v", matches)
	}
	if embedder.EmbedTexts[0] != "osmosis" {
		t.Errorf("query text = %v", embedder.EmbedTexts)
	}
}

func TestArchive_QuestionSets(t *testing.T) {
	store := newFakeStore()
	a := newTestArchive(store, nil)

	set := postgres.QuestionSet{RoomID: "room-1", Source: types.SourceTimer, Provider: "gemini"}
	if err := a.RecordQuestionSet(context.Background(), set); err != nil {
		t.Fatalf("RecordQuestionSet: %v", err)
	}

	sets, err := a.QuestionHistory(context.Background(), "room-1", 10)
	if err != nil {
		t.Fatalf("QuestionHistory: %v", err)
	}
	if len(sets) != 1 || sets[0].Provider != "gemini" {
		t.Errorf("sets = %+v", sets)
	}
}
