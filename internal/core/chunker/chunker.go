// Package chunker splits extracted gazette text into bounded-size segments for
// embedding. Splitting prefers sentence boundaries and falls back to word
// boundaries when a single sentence exceeds the limit.
package chunker

import (
	"regexp"
	"strings"
)

// DefaultMaxChunkSize is the chunk character budget used when callers pass 0.
const DefaultMaxChunkSize = 1000

var sentenceEnd = regexp.MustCompile(`[.!?]+`)

// Split partitions text into ordered chunks of at most maxChunkSize characters.
// Sentences are rejoined with a literal "." regardless of their original
// terminator, so exact punctuation between sentences is not preserved. The only
// chunks allowed to exceed the limit are single words longer than the limit,
// which are emitted verbatim rather than truncated.
func Split(text string, maxChunkSize int) []string {
	if maxChunkSize <= 0 {
		maxChunkSize = DefaultMaxChunkSize
	}

	var chunks []string
	var cur string

	for _, raw := range sentenceEnd.Split(text, -1) {
		sentence := strings.TrimSpace(raw)
		if sentence == "" {
			continue
		}

		candidate := sentence
		if cur != "" {
			candidate = cur + "." + sentence
		}
		if len(candidate) <= maxChunkSize {
			cur = candidate
			continue
		}

		// The running chunk is full; flush it before placing the sentence.
		if cur != "" {
			chunks = append(chunks, cur)
			cur = ""
		}
		if len(sentence) <= maxChunkSize {
			cur = sentence
			continue
		}

		// A lone sentence over the limit: pack words instead.
		chunks = append(chunks, packWords(sentence, maxChunkSize)...)
	}

	if cur != "" {
		chunks = append(chunks, cur)
	}
	return chunks
}

// packWords greedily packs space-separated words into chunks of at most max
// characters. A single word longer than max becomes its own chunk untruncated.
func packWords(sentence string, max int) []string {
	var out []string
	var cur string

	for _, word := range strings.Split(sentence, " ") {
		if word == "" {
			continue
		}
		if len(word) > max {
			if cur != "" {
				out = append(out, cur)
				cur = ""
			}
			out = append(out, word)
			continue
		}

		candidate := word
		if cur != "" {
			candidate = cur + " " + word
		}
		if len(candidate) > max {
			out = append(out, cur)
			cur = word
			continue
		}
		cur = candidate
	}

	if cur != "" {
		out = append(out, cur)
	}
	return out
}

// ApproxTokens is a cheap token estimator (~4 chars ≈ 1 token).
func ApproxTokens(s string) int {
	n := len([]rune(s))
	if n <= 0 {
		return 0
	}
	return (n + 3) / 4
}
