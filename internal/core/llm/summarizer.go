package llm

import (
	"context"
	"log"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/africacodeacademy-erp2025/gazette-ingest/internal/core"
)

const (
	// minSummaryInput is the text length below which summarization is skipped.
	minSummaryInput = 100

	// maxSummaryInput bounds how much text is sent to the model; longer input
	// is truncated with an ellipsis marker.
	maxSummaryInput = 8000

	// maxSummaryTokens caps the output token budget regardless of MaxWords.
	maxSummaryTokens = 1000
)

const summarySystemPrompt = "You are an assistant that summarizes official government gazette documents accurately and neutrally."

// Summarizer produces best-effort gazette summaries via an LLM provider.
// Every failure path collapses to a nil result: summaries are an enhancement
// and must never block document ingestion.
type Summarizer struct {
	provider core.LLMProvider
	model    string
}

// NewSummarizer wraps a provider; provider may be nil (service unconfigured).
func NewSummarizer(provider core.LLMProvider, model string) *Summarizer {
	return &Summarizer{provider: provider, model: model}
}

// Summarize returns a bounded-length summary of text, or nil when the service
// is unconfigured, the text is under 100 characters, or the call fails.
func (s *Summarizer) Summarize(ctx context.Context, text string, opts *core.SummaryOptions) *core.Summary {
	if s.provider == nil || len(text) < minSummaryInput {
		return nil
	}

	if opts == nil {
		opts = core.DefaultSummaryOptions()
	}
	maxWords := opts.MaxWords
	if maxWords <= 0 {
		maxWords = 300
	}

	originalLen := len(text)
	truncated := false
	if len(text) > maxSummaryInput {
		// Back off to a rune boundary so the model never sees a bisected rune.
		cut := maxSummaryInput
		for cut > 0 && !utf8.RuneStart(text[cut]) {
			cut--
		}
		text = text[:cut] + "..."
		truncated = true
	}

	tokenBudget := maxWords * 2
	if tokenBudget > maxSummaryTokens {
		tokenBudget = maxSummaryTokens
	}

	summary, tokens, err := s.provider.Generate(ctx, summarySystemPrompt, buildPrompt(text, maxWords, opts), tokenBudget)
	if err != nil || strings.TrimSpace(summary) == "" {
		log.Printf("summarizer: call failed, continuing without summary: %v", err)
		return nil
	}
	summary = strings.TrimSpace(summary)

	return &core.Summary{
		Text:           summary,
		WordCount:      len(strings.Fields(summary)),
		OriginalLength: originalLen,
		Truncated:      truncated,
		TokensUsed:     tokens,
		Model:          s.model,
	}
}

func buildPrompt(text string, maxWords int, opts *core.SummaryOptions) string {
	var b strings.Builder

	switch opts.Style {
	case core.StyleExecutive:
		b.WriteString("Write an executive summary of the following document")
	case core.StyleBulletPoints:
		b.WriteString("Summarize the following document as a list of bullet points")
	default:
		b.WriteString("Write a concise summary of the following document")
	}
	b.WriteString(" in at most ")
	b.WriteString(strconv.Itoa(maxWords))
	b.WriteString(" words.")

	if opts.IncludeKeyPoints {
		b.WriteString(" Highlight the key takeaways.")
	}

	b.WriteString("\n\nDocument:\n")
	b.WriteString(text)
	return b.String()
}

var _ core.SummaryService = (*Summarizer)(nil)
