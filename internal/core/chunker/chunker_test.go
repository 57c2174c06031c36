package chunker

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplit_Empty(t *testing.T) {
	assert.Empty(t, Split("", 100))
	assert.Empty(t, Split("   \n\t  ", 100))
	assert.Empty(t, Split("...!!!???", 100))
}

func TestSplit_SingleShortText(t *testing.T) {
	chunks := Split("Hello world.", 100)
	require.Len(t, chunks, 1)
	assert.Equal(t, "Hello world", chunks[0])
}

func TestSplit_AccumulatesSentences(t *testing.T) {
	chunks := Split("First sentence. Second sentence! Third sentence?", 100)
	require.Len(t, chunks, 1)
	assert.Equal(t, "First sentence.Second sentence.Third sentence", chunks[0])
}

func TestSplit_FlushesAtBoundary(t *testing.T) {
	// Two 40-char sentences do not fit a 60-char budget together.
	s1 := strings.Repeat("a", 40)
	s2 := strings.Repeat("b", 40)
	chunks := Split(s1+". "+s2+".", 60)
	require.Len(t, chunks, 2)
	assert.Equal(t, s1, chunks[0])
	assert.Equal(t, s2, chunks[1])
}

func TestSplit_NeverExceedsLimit(t *testing.T) {
	text := strings.Repeat("some words go here. ", 200)
	for _, c := range Split(text, 100) {
		assert.LessOrEqual(t, len(c), 100)
	}
}

func TestSplit_WordFallbackForOversizedSentence(t *testing.T) {
	// A punctuation-free text is a single oversized "sentence" and must fall
	// back to word packing.
	words := make([]string, 50)
	for i := range words {
		words[i] = "word"
	}
	text := strings.Join(words, " ")
	chunks := Split(text, 20)

	require.NotEmpty(t, chunks)
	for _, c := range chunks {
		assert.LessOrEqual(t, len(c), 20)
	}

	// No word lost.
	rejoined := strings.Fields(strings.Join(chunks, " "))
	assert.Len(t, rejoined, 50)
}

func TestSplit_OversizedWordEmittedVerbatim(t *testing.T) {
	long := strings.Repeat("x", 35)
	chunks := Split("tiny "+long+" tail", 20)

	require.Contains(t, chunks, long)
	for _, c := range chunks {
		if c != long {
			assert.LessOrEqual(t, len(c), 20)
		}
	}
}

func TestSplit_PreservesOrder(t *testing.T) {
	chunks := Split("alpha. bravo. charlie. delta. echo.", 12)
	joined := strings.Join(chunks, ".")
	wantOrder := []string{"alpha", "bravo", "charlie", "delta", "echo"}

	last := -1
	for _, w := range wantOrder {
		idx := strings.Index(joined, w)
		require.Greater(t, idx, last, "word %q out of order", w)
		last = idx
	}
}

func TestSplit_DefaultSizeApplied(t *testing.T) {
	text := strings.Repeat("sentence here. ", 300)
	for _, c := range Split(text, 0) {
		assert.LessOrEqual(t, len(c), DefaultMaxChunkSize)
	}
}

func TestApproxTokens(t *testing.T) {
	assert.Equal(t, 0, ApproxTokens(""))
	assert.Equal(t, 1, ApproxTokens("abc"))
	assert.Equal(t, 1, ApproxTokens("abcd"))
	assert.Equal(t, 2, ApproxTokens("abcde"))
	assert.Equal(t, 25, ApproxTokens(strings.Repeat("x", 100)))
}
