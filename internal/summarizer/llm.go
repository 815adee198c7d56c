// Package summarizer composes retrieval results and user queries into
// single-shot prompts for a language model.
package summarizer

import (
	"context"
	"fmt"
	"strings"

	"docsum/internal/domain"
)

const enhancePrompt = `Your task is to refine the user's query semantically to make it
clearer and more meaningful. Avoid adding any irrelevant details
or altering the core intent of the query.

Examples:
- Query: cotton
  Enhanced Query: What are the insights about cotton?

- Query: wheat consumption region wise
  Enhanced Query: What is the region-wise consumption of wheat?

- Query: explain oil seeds
  Enhanced Query: What are the trends in oil seeds?

Based on these examples, refine the following user query:
%s`

const summaryPrompt = `I have performed a similarity search to retrieve relevant data for
various commodities. Your task is to analyze the similarity search
results and provide a concise and structured summary for each
commodity class.

The summary must:
- Focus only on the most relevant insights, projections, and trends
  derived from the retrieved results.
- Exclude any redundant or unnecessary details.

Here are the similarity search results:
%s

Based on this data, and in response to my query: '%s', please
provide a refined summary. Ensure the information is
well-organized, accurate, and directly addresses the query.`

// LLMSummarizer performs two independent generation calls: query enhancement
// and topic-grouped summarization. Both are stateless.
type LLMSummarizer struct {
	gen domain.TextGenerator
}

func NewLLMSummarizer(gen domain.TextGenerator) *LLMSummarizer {
	return &LLMSummarizer{gen: gen}
}

// EnhanceQuery rewrites a terse query into a fuller natural-language
// question, guided by fixed few-shot examples. It must not introduce facts
// not implied by the input.
func (s *LLMSummarizer) EnhanceQuery(ctx context.Context, rawQuery string) (string, error) {
	out, err := s.gen.Generate(ctx, fmt.Sprintf(enhancePrompt, rawQuery))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// Summarize produces a single structured summary of the retrieved snippets
// in response to the (enhanced) query.
func (s *LLMSummarizer) Summarize(ctx context.Context, snippets []string, query string) (string, error) {
	results := strings.Join(snippets, "\n")
	out, err := s.gen.Generate(ctx, fmt.Sprintf(summaryPrompt, results, query))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}
