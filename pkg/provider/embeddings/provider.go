// Package embeddings defines the Provider interface for vector embedding
// backends.
//
// An embeddings provider maps text to dense float32 vectors. The archive uses
// them to index committed lecture segments for semantic search ("when did we
// talk about osmosis?") across past sessions.
//
// Implementations must be safe for concurrent use.
package embeddings

import "context"

// Provider is the abstraction over any text-embedding backend.
//
// All vectors returned by one Provider instance share the dimensionality
// reported by Dimensions. Vectors from different instances must not be mixed
// in the same similarity computation unless both use the same model.
type Provider interface {
	// Embed computes the embedding vector for a single text string. The
	// text is passed to the model verbatim; any model-specific prefixing
	// is the caller's responsibility.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch computes vectors for a slice of texts in one provider
	// call. The result is ordered like texts. Partial results are not
	// returned; on error the entire slice is nil.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the fixed length of every vector this provider
	// produces, determined by the underlying model.
	Dimensions() int

	// ModelID returns the provider-specific model identifier, e.g.
	// "text-embedding-3-small" or "nomic-embed-text".
	ModelID() string
}
