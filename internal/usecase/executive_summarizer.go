package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"researchlens/internal/domain"
	"researchlens/internal/ports"
)

// ExecutiveSummarizer produces one prose overview across an item collection,
// distinct from the per-item structured summaries.
type ExecutiveSummarizer struct {
	model  ports.ChatModel
	logger *slog.Logger
}

// NewExecutiveSummarizer wires the chat model.
func NewExecutiveSummarizer(model ports.ChatModel, logger *slog.Logger) *ExecutiveSummarizer {
	return &ExecutiveSummarizer{model: model, logger: logger}
}

// SummarizePapers narrates themes, findings, and trends across the papers.
// An empty collection short-circuits to the fixed no-results sentinel without
// calling the model; a failed call returns the fixed degraded sentence. The
// flag reports whether the call degraded.
func (e *ExecutiveSummarizer) SummarizePapers(ctx context.Context, topic string, items []domain.PaperItem) (string, bool) {
	if len(items) == 0 {
		return domain.SentinelNoPapers, false
	}

	var lines []string
	for i, item := range items {
		lines = append(lines, fmt.Sprintf("%d. %q - %s", i+1, item.Title, item.Summary.ProblemStatement))
	}

	prompt := fmt.Sprintf(`You are a research analyst. Based on the following %d academic papers about %q, provide a concise executive summary (3-4 paragraphs) that:

1. Identifies the main themes and research directions
2. Highlights the most significant findings or contributions
3. Notes any emerging trends or patterns across the papers

Papers:
%s

Write a clear, professional summary suitable for executives or researchers wanting a quick overview.`,
		len(items), topic, strings.Join(lines, "\n"))

	text, err := e.model.Generate(ctx, prompt)
	if err != nil {
		e.warn("paper executive summary failed", "error", err)
		return domain.SentinelExecutiveFailed, true
	}
	return text, false
}

// SummarizeArticles narrates key news and developments across the articles.
// Same degradation contract as SummarizePapers.
func (e *ExecutiveSummarizer) SummarizeArticles(ctx context.Context, topic string, articles []domain.Article) (string, bool) {
	if len(articles) == 0 {
		return domain.SentinelNoArticles, false
	}

	var lines []string
	for i, article := range articles {
		lines = append(lines, fmt.Sprintf("%d. %q (%s)", i+1, article.Title, article.Source))
	}

	prompt := fmt.Sprintf(`You are a technology news analyst. Based on the following %d articles about %q, provide a concise executive summary (2-3 paragraphs) that:

1. Summarizes the key news and developments
2. Identifies any significant announcements or trends
3. Notes the overall industry sentiment or direction

Articles:
%s

Write a clear, professional summary suitable for executives or professionals wanting a quick industry overview.`,
		len(articles), topic, strings.Join(lines, "\n"))

	text, err := e.model.Generate(ctx, prompt)
	if err != nil {
		e.warn("article executive summary failed", "error", err)
		return domain.SentinelExecutiveFailed, true
	}
	return text, false
}

func (e *ExecutiveSummarizer) warn(msg string, args ...any) {
	if e.logger != nil {
		e.logger.Warn(msg, args...)
	}
}
