package core

import "context"

// EmbeddingProvider is the raw embedding backend (Gemini/OpenAI/etc).
// One vector is returned per input text, in order.
type EmbeddingProvider interface {
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// LLMProvider generates text from a system/user prompt pair under a token budget.
// tokensUsed reports the provider's total token count for the call.
type LLMProvider interface {
	Generate(ctx context.Context, systemPrompt, userPrompt string, maxTokens int) (text string, tokensUsed int, err error)
}

// EmbeddingService is the degradation-aware embedding layer used by the pipeline.
// When no API credential is configured every call yields nil vectors, never errors.
type EmbeddingService interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	// EmbedBatch returns exactly one slot per input chunk; filtered or
	// unembeddable chunks hold nil at their original index.
	EmbedBatch(ctx context.Context, chunks []string) ([][]float32, error)
}

// SummaryStyle selects the instruction given to the summarization model.
type SummaryStyle string

const (
	StyleConcise      SummaryStyle = "concise"
	StyleExecutive    SummaryStyle = "executive"
	StyleBulletPoints SummaryStyle = "bullet-points"
)

// SummaryOptions tunes a summarization request. A nil options pointer selects
// the defaults (MaxWords=300, Style=concise, IncludeKeyPoints=true). A non-nil
// value is taken literally: zero fields keep their Go zero values, so
// IncludeKeyPoints must be set explicitly, except MaxWords<=0 which falls back
// to 300.
type SummaryOptions struct {
	MaxWords         int
	Style            SummaryStyle
	IncludeKeyPoints bool
}

// DefaultSummaryOptions returns the option set applied when the caller passes nil.
func DefaultSummaryOptions() *SummaryOptions {
	return &SummaryOptions{
		MaxWords:         300,
		Style:            StyleConcise,
		IncludeKeyPoints: true,
	}
}

// Summary is the result of a successful summarization call.
type Summary struct {
	Text           string `json:"summary"`
	WordCount      int    `json:"word_count"`
	OriginalLength int    `json:"original_length"`
	Truncated      bool   `json:"truncated"`
	TokensUsed     int    `json:"tokens_used"`
	Model          string `json:"model"`
}

// SummaryService produces best-effort document summaries. Summarize never
// returns an error: unconfigured service, too-short input or any call failure
// all yield nil so the caller's primary workflow is never blocked.
type SummaryService interface {
	Summarize(ctx context.Context, text string, opts *SummaryOptions) *Summary
}
