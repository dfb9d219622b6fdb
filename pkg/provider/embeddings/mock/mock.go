// Package mock provides a test double for the embeddings.Provider interface.
//
// Example:
//
//	p := &mock.Provider{
//	    EmbedResult:     []float32{0.1, 0.2, 0.3},
//	    DimensionsValue: 3,
//	}
//	vec, _ := p.Embed(ctx, "hello world")
package mock

import (
	"context"
	"sync"

	"github.com/T-sashi-pavan/Automatic-poll-generation-sub000/pkg/provider/embeddings"
)

var _ embeddings.Provider = (*Provider)(nil)

// Provider is a mock implementation of embeddings.Provider. Zero values cause
// methods to return zero values and nil errors; set the Err fields to inject
// failures.
type Provider struct {
	mu sync.Mutex

	// EmbedResult is returned by every successful Embed call.
	EmbedResult []float32

	// EmbedErr, if non-nil, is returned from Embed.
	EmbedErr error

	// EmbedBatchResult is returned by EmbedBatch.
	EmbedBatchResult [][]float32

	// EmbedBatchErr, if non-nil, is returned from EmbedBatch.
	EmbedBatchErr error

	// DimensionsValue is returned by Dimensions.
	DimensionsValue int

	// ModelIDValue is returned by ModelID. Defaults to "mock-embed".
	ModelIDValue string

	// EmbedTexts records the text of every Embed call in order.
	EmbedTexts []string

	// EmbedBatchCalls records a copy of every EmbedBatch input in order.
	EmbedBatchCalls [][]string
}

// Embed implements embeddings.Provider.
func (p *Provider) Embed(_ context.Context, text string) ([]float32, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.EmbedTexts = append(p.EmbedTexts, text)
	if p.EmbedErr != nil {
		return nil, p.EmbedErr
	}
	return p.EmbedResult, nil
}

// EmbedBatch implements embeddings.Provider.
func (p *Provider) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	batch := make([]string, len(texts))
	copy(batch, texts)
	p.EmbedBatchCalls = append(p.EmbedBatchCalls, batch)
	if p.EmbedBatchErr != nil {
		return nil, p.EmbedBatchErr
	}
	return p.EmbedBatchResult, nil
}

// Dimensions implements embeddings.Provider.
func (p *Provider) Dimensions() int { return p.DimensionsValue }

// ModelID implements embeddings.Provider.
func (p *Provider) ModelID() string {
	if p.ModelIDValue == "" {
		return "mock-embed"
	}
	return p.ModelIDValue
}
