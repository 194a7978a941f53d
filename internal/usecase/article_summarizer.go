package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"researchlens/internal/domain"
	"researchlens/internal/ports"
)

// ArticleSummarizer produces optional structured summaries per article.
// Calls run concurrently and settle independently: one article's failure
// never cancels or fails its siblings, it just leaves that article without a
// summary.
type ArticleSummarizer struct {
	model  ports.ChatModel
	logger *slog.Logger
}

// NewArticleSummarizer wires the chat model.
func NewArticleSummarizer(model ports.ChatModel, logger *slog.Logger) *ArticleSummarizer {
	return &ArticleSummarizer{model: model, logger: logger}
}

type articleSummaryPayload struct {
	KeyFindings  string `json:"key_findings"`
	Methodology  string `json:"methodology"`
	Significance string `json:"significance"`
}

// SummarizeAll returns one slot per input article, index-aligned. A nil slot
// means summarization was unavailable for that article. The returned flag
// reports whether any call degraded.
func (s *ArticleSummarizer) SummarizeAll(ctx context.Context, articles []domain.Article) ([]*domain.ArticleSummary, bool) {
	summaries := make([]*domain.ArticleSummary, len(articles))
	if len(articles) == 0 {
		return summaries, false
	}

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		degraded bool
	)

	for i, article := range articles {
		wg.Add(1)
		go func(i int, article domain.Article) {
			defer wg.Done()

			var parsed articleSummaryPayload
			if err := s.model.GenerateJSON(ctx, buildArticlePrompt(article), &parsed); err != nil {
				s.warn("article summarization failed", "article_id", article.ID, "error", err)
				mu.Lock()
				degraded = true
				mu.Unlock()
				return
			}

			summaries[i] = &domain.ArticleSummary{
				KeyFindings:  orSeeOriginal(parsed.KeyFindings),
				Methodology:  orSeeOriginal(parsed.Methodology),
				Significance: orSeeOriginal(parsed.Significance),
			}
		}(i, article)
	}

	wg.Wait()
	return summaries, degraded
}

func buildArticlePrompt(article domain.Article) string {
	if article.Content != "" {
		return fmt.Sprintf(`Analyze this news article and provide a structured summary.

Title: %s
Source: %s
Content: %s

Provide a JSON response with exactly these three fields:
- key_findings: What are the main findings or announcements reported? (1-2 sentences)
- methodology: How was the information obtained or what approach is described? (1-2 sentences)
- significance: Why does this matter for the field or industry? (1-2 sentences)

Only use information stated in the content. If something is not mentioned, say "See original article."

Respond with ONLY valid JSON, no markdown formatting.`, article.Title, article.Source, article.Content)
	}

	return fmt.Sprintf(`Only the headline of this news article is available.

Title: %s
Source: %s
URL: %s

Provide a JSON response with exactly these three fields:
- key_findings: What does the headline itself state? (1 sentence)
- methodology: "See original article."
- significance: Why might this topic matter, based only on the headline? (1 sentence)

Do NOT fabricate specifics beyond the headline. Where the headline gives no information, answer "See original article."

Respond with ONLY valid JSON, no markdown formatting.`, article.Title, article.Source, article.URL)
}

func orSeeOriginal(field string) string {
	if field == "" {
		return "See original article."
	}
	return field
}

func (s *ArticleSummarizer) warn(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Warn(msg, args...)
	}
}
