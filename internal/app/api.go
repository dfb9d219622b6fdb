package app

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/T-sashi-pavan/Automatic-poll-generation-sub000/internal/archive"
)

// defaultHistoryLimit caps question-history responses when no limit is given.
const defaultHistoryLimit = 20

// api serves the read-only REST surface: session state, archived segments,
// question history, and semantic search over past segments.
type api struct {
	rooms   *RoomManager
	archive *archive.Archive // nil when storage is disabled
}

// Register adds the REST routes to mux, each wrapped by mw.
func (a *api) Register(mux *http.ServeMux, mw func(http.Handler) http.Handler) {
	mux.Handle("GET /rooms/{room}/state", mw(http.HandlerFunc(a.roomState)))
	mux.Handle("GET /rooms/{room}/segments", mw(http.HandlerFunc(a.roomSegments)))
	mux.Handle("GET /rooms/{room}/questions", mw(http.HandlerFunc(a.roomQuestions)))
	mux.Handle("GET /search", mw(http.HandlerFunc(a.search)))
}

func (a *api) roomState(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := a.rooms.Lookup(r.PathValue("room"))
	if !ok {
		http.Error(w, "unknown room", http.StatusNotFound)
		return
	}
	writeJSON(w, ctrl.Snapshot())
}

func (a *api) roomSegments(w http.ResponseWriter, r *http.Request) {
	if a.archive == nil {
		http.Error(w, "archiving disabled", http.StatusServiceUnavailable)
		return
	}
	segments, err := a.archive.Segments(r.Context(), r.PathValue("room"))
	if err != nil {
		http.Error(w, "segment listing failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, segments)
}

func (a *api) roomQuestions(w http.ResponseWriter, r *http.Request) {
	if a.archive == nil {
		http.Error(w, "archiving disabled", http.StatusServiceUnavailable)
		return
	}
	limit := defaultHistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}
		limit = n
	}
	sets, err := a.archive.QuestionHistory(r.Context(), r.PathValue("room"), limit)
	if err != nil {
		http.Error(w, "question history failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, sets)
}

func (a *api) search(w http.ResponseWriter, r *http.Request) {
	if a.archive == nil {
		http.Error(w, "archiving disabled", http.StatusServiceUnavailable)
		return
	}
	query := r.URL.Query().Get("q")
	if query == "" {
		http.Error(w, "missing query parameter q", http.StatusBadRequest)
		return
	}
	topK := 0
	if raw := r.URL.Query().Get("top_k"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			http.Error(w, "invalid top_k", http.StatusBadRequest)
			return
		}
		topK = n
	}

	matches, err := a.archive.Search(r.Context(), query, topK, r.URL.Query().Get("room"))
	if err != nil {
		http.Error(w, "search failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, matches)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, "encoding failed", http.StatusInternalServerError)
	}
}
