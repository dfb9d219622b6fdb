package ollama_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/T-sashi-pavan/Automatic-poll-generation-sub000/pkg/provider/embeddings/ollama"
)

// embedServer fakes the Ollama /api/embed endpoint, returning one canned
// vector per input text.
func embedServer(t *testing.T, wantModel string, vectors [][]float32) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/embed" || r.Method != http.MethodPost {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
			http.Error(w, "not found", http.StatusNotFound)
			return
		}

		var req struct {
			Model string   `json:"model"`
			Input []string `json:"input"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		if req.Model != wantModel {
			t.Errorf("model = %q, want %q", req.Model, wantModel)
		}

		out := vectors
		if len(out) > len(req.Input) {
			out = out[:len(req.Input)]
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"model":      wantModel,
			"embeddings": out,
		})
	}))
}

func TestNew(t *testing.T) {
	if _, err := ollama.New("", ""); err == nil {
		t.Error("empty model accepted")
	}

	p, err := ollama.New("", "nomic-embed-text")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if p.ModelID() != "nomic-embed-text" {
		t.Errorf("ModelID = %q", p.ModelID())
	}
	// Known model resolves without a probe request.
	if got := p.Dimensions(); got != 768 {
		t.Errorf("Dimensions = %d, want 768", got)
	}
}

func TestEmbed(t *testing.T) {
	srv := embedServer(t, "all-minilm", [][]float32{{0.1, 0.2, 0.3}})
	defer srv.Close()

	p, err := ollama.New(srv.URL, "all-minilm")
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	vec, err := p.Embed(context.Background(), "the water cycle")
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if len(vec) != 3 || vec[0] != 0.1 {
		t.Errorf("vec = %v", vec)
	}
}

func TestEmbedBatch(t *testing.T) {
	srv := embedServer(t, "all-minilm", [][]float32{{1, 0}, {0, 1}})
	defer srv.Close()

	p, err := ollama.New(srv.URL, "all-minilm")
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	t.Run("empty input short-circuits", func(t *testing.T) {
		vecs, err := p.EmbedBatch(context.Background(), nil)
		if err != nil || vecs != nil {
			t.Errorf("EmbedBatch(nil) = %v, %v", vecs, err)
		}
	})

	t.Run("ordered results", func(t *testing.T) {
		vecs, err := p.EmbedBatch(context.Background(), []string{"a", "b"})
		if err != nil {
			t.Fatalf("EmbedBatch: %v", err)
		}
		if len(vecs) != 2 || vecs[0][0] != 1 || vecs[1][1] != 1 {
			t.Errorf("vecs = %v", vecs)
		}
	})
}

func TestEmbed_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer srv.Close()

	p, err := ollama.New(srv.URL, "missing-model", ollama.WithDimensions(4))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := p.Embed(context.Background(), "x"); err == nil {
		t.Error("expected error for non-200 response")
	}
}

func TestDimensions_Probe(t *testing.T) {
	srv := embedServer(t, "custom-model", [][]float32{{0, 0, 0, 0, 0}})
	defer srv.Close()

	p, err := ollama.New(srv.URL, "custom-model")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if got := p.Dimensions(); got != 5 {
		t.Errorf("probed Dimensions = %d, want 5", got)
	}
	// Cached on subsequent calls.
	srv.Close()
	if got := p.Dimensions(); got != 5 {
		t.Errorf("cached Dimensions = %d, want 5", got)
	}
}
