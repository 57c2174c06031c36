package llm

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeProvider returns a deterministic vector per input text.
type fakeProvider struct {
	err   error
	calls [][]string
}

func (f *fakeProvider) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	f.calls = append(f.calls, texts)
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{float32(len(texts[i])), 1}
	}
	return out, nil
}

func TestEmbed_UnconfiguredReturnsNil(t *testing.T) {
	e := NewEmbedder(nil)
	vec, err := e.Embed(context.Background(), "some text")
	require.NoError(t, err)
	assert.Nil(t, vec)
	assert.False(t, e.Configured())
}

func TestEmbed_SingleText(t *testing.T) {
	e := NewEmbedder(&fakeProvider{})
	vec, err := e.Embed(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, []float32{5, 1}, vec)
}

func TestEmbed_ProviderErrorWrapped(t *testing.T) {
	e := NewEmbedder(&fakeProvider{err: errors.New("quota exceeded")})
	_, err := e.Embed(context.Background(), "hello")

	var embErr *EmbeddingError
	require.ErrorAs(t, err, &embErr)
}

func TestEmbedBatch_UnconfiguredReturnsAllNil(t *testing.T) {
	e := NewEmbedder(nil)
	vecs, err := e.EmbedBatch(context.Background(), []string{"a", "b", "c"})
	require.NoError(t, err)
	require.Len(t, vecs, 3)
	for _, v := range vecs {
		assert.Nil(t, v)
	}
}

func TestEmbedBatch_OutputAlignsWithInput(t *testing.T) {
	provider := &fakeProvider{}
	e := NewEmbedder(provider)

	chunks := []string{
		"valid one",
		"   ", // blank after trimming
		"valid two",
		strings.Repeat("x", 8000), // at the length ceiling
		"valid three",
	}
	vecs, err := e.EmbedBatch(context.Background(), chunks)
	require.NoError(t, err)

	// One slot per input chunk; filtered positions stay nil.
	require.Len(t, vecs, len(chunks))
	assert.NotNil(t, vecs[0])
	assert.Nil(t, vecs[1])
	assert.NotNil(t, vecs[2])
	assert.Nil(t, vecs[3])
	assert.NotNil(t, vecs[4])

	// Only the valid chunks reached the provider.
	require.Len(t, provider.calls, 1)
	assert.Equal(t, []string{"valid one", "valid two", "valid three"}, provider.calls[0])
}

func TestEmbedBatch_AllFiltered(t *testing.T) {
	provider := &fakeProvider{}
	e := NewEmbedder(provider)

	vecs, err := e.EmbedBatch(context.Background(), []string{"", "  "})
	require.NoError(t, err)
	require.Len(t, vecs, 2)
	assert.Empty(t, provider.calls, "provider should not be called for empty batches")
}

func TestEmbedBatch_ProviderErrorWrapped(t *testing.T) {
	e := NewEmbedder(&fakeProvider{err: errors.New("boom")})
	_, err := e.EmbedBatch(context.Background(), []string{"chunk"})

	var batchErr *BatchEmbeddingError
	require.ErrorAs(t, err, &batchErr)
}

func TestCosineSimilarity_Identity(t *testing.T) {
	v := []float32{0.3, -1.2, 4.5, 0.01}
	assert.InDelta(t, 1.0, CosineSimilarity(v, v), 1e-6)
}

func TestCosineSimilarity_Orthogonal(t *testing.T) {
	assert.InDelta(t, 0.0, CosineSimilarity([]float32{1, 0}, []float32{0, 1}), 1e-6)
}

func TestCosineSimilarity_Opposite(t *testing.T) {
	assert.InDelta(t, -1.0, CosineSimilarity([]float32{1, 2}, []float32{-1, -2}), 1e-6)
}

func TestCosineSimilarity_DegenerateInputs(t *testing.T) {
	assert.Equal(t, 0.0, CosineSimilarity(nil, []float32{1}))
	assert.Equal(t, 0.0, CosineSimilarity([]float32{1}, nil))
	assert.Equal(t, 0.0, CosineSimilarity([]float32{1, 2}, []float32{1, 2, 3}))
	assert.Equal(t, 0.0, CosineSimilarity([]float32{0, 0}, []float32{1, 1}))
}
