package llm

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/africacodeacademy-erp2025/gazette-ingest/internal/core"
)

// maxEmbedChars is the per-chunk character ceiling; chunks at or above it are
// skipped rather than sent to the embedding API.
const maxEmbedChars = 8000

// EmbeddingError wraps a failed single-text embedding call.
type EmbeddingError struct {
	Err error
}

func (e *EmbeddingError) Error() string { return fmt.Sprintf("embedding generation failed: %v", e.Err) }
func (e *EmbeddingError) Unwrap() error { return e.Err }

// BatchEmbeddingError wraps a failed batch embedding call.
type BatchEmbeddingError struct {
	Err error
}

func (e *BatchEmbeddingError) Error() string {
	return fmt.Sprintf("batch embedding generation failed: %v", e.Err)
}
func (e *BatchEmbeddingError) Unwrap() error { return e.Err }

// Embedder is the degradation-aware embedding layer. With a nil provider
// (no API credential configured) every call returns nil vectors and no error,
// so ingestion proceeds without embeddings rather than failing.
type Embedder struct {
	provider core.EmbeddingProvider
}

// NewEmbedder wraps a provider; provider may be nil.
func NewEmbedder(provider core.EmbeddingProvider) *Embedder {
	return &Embedder{provider: provider}
}

// Configured reports whether a real provider is attached.
func (e *Embedder) Configured() bool { return e.provider != nil }

// Embed returns the vector for a single text, or nil when the service is
// unconfigured or the text is not embeddable.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if e.provider == nil || !embeddable(text) {
		return nil, nil
	}
	vecs, err := e.provider.EmbedTexts(ctx, []string{text})
	if err != nil {
		return nil, &EmbeddingError{Err: err}
	}
	if len(vecs) == 0 {
		return nil, &EmbeddingError{Err: fmt.Errorf("provider returned no vectors")}
	}
	return vecs[0], nil
}

// EmbedBatch embeds a chunk list and returns exactly one slot per input chunk.
// Chunks that are blank after trimming or at least 8000 characters long keep a
// nil vector at their original index, so positions always line up with the
// caller's chunk slice.
func (e *Embedder) EmbedBatch(ctx context.Context, chunks []string) ([][]float32, error) {
	out := make([][]float32, len(chunks))
	if e.provider == nil || len(chunks) == 0 {
		return out, nil
	}

	var (
		valid   []string
		indices []int
	)
	for i, c := range chunks {
		if embeddable(c) {
			valid = append(valid, c)
			indices = append(indices, i)
		}
	}
	if len(valid) == 0 {
		return out, nil
	}

	vecs, err := e.provider.EmbedTexts(ctx, valid)
	if err != nil {
		return nil, &BatchEmbeddingError{Err: err}
	}
	if len(vecs) != len(valid) {
		return nil, &BatchEmbeddingError{
			Err: fmt.Errorf("provider returned %d vectors for %d texts", len(vecs), len(valid)),
		}
	}
	for k, i := range indices {
		out[i] = vecs[k]
	}
	return out, nil
}

func embeddable(chunk string) bool {
	return strings.TrimSpace(chunk) != "" && len(chunk) < maxEmbedChars
}

// CosineSimilarity returns the cosine of the angle between a and b, or 0 when
// either vector is missing, the lengths differ, or a norm is zero.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(b) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

var _ core.EmbeddingService = (*Embedder)(nil)
