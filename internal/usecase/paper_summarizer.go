package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode"

	"researchlens/internal/domain"
	"researchlens/internal/ports"
)

const defaultPaperPause = 300 * time.Millisecond

// PaperSummarizer produces a structured three-field summary for each paper.
// Calls run strictly one at a time with a pacing delay to bound burst load on
// the LLM backend.
type PaperSummarizer struct {
	model  ports.ChatModel
	pause  time.Duration
	logger *slog.Logger
}

// NewPaperSummarizer wires the chat model; pause <= 0 selects the default.
func NewPaperSummarizer(model ports.ChatModel, pause time.Duration, logger *slog.Logger) *PaperSummarizer {
	if pause <= 0 {
		pause = defaultPaperPause
	}
	return &PaperSummarizer{model: model, pause: pause, logger: logger}
}

type paperSummaryPayload struct {
	ProblemStatement string `json:"problem_statement"`
	ProposedSolution string `json:"proposed_solution"`
	Challenges       string `json:"challenges"`
}

// SummarizeAll enriches every paper in input order. No paper is ever dropped:
// a failed call yields the uniform unavailable sentinel in all three fields.
// The returned flag reports whether any call degraded.
func (s *PaperSummarizer) SummarizeAll(ctx context.Context, papers []domain.Paper) ([]domain.PaperItem, bool) {
	items := make([]domain.PaperItem, 0, len(papers))
	if len(papers) == 0 {
		return items, false
	}

	degraded := false
	for i, paper := range papers {
		summary, ok := s.summarizeOne(ctx, paper)
		if !ok {
			degraded = true
		}
		items = append(items, domain.PaperItem{
			ID:            paper.ID,
			Title:         paper.Title,
			Authors:       paper.Authors,
			SourceURL:     paper.SourceURL,
			PublishedDate: paper.PublishedDate,
			Abstract:      paper.Abstract,
			Categories:    paper.Categories,
			Summary:       summary,
		})

		if i < len(papers)-1 {
			select {
			case <-time.After(s.pause):
			case <-ctx.Done():
			}
		}
	}

	return items, degraded
}

func (s *PaperSummarizer) summarizeOne(ctx context.Context, paper domain.Paper) (domain.PaperSummary, bool) {
	prompt := buildPaperPrompt(paper)

	var parsed paperSummaryPayload
	if err := s.model.GenerateJSON(ctx, prompt, &parsed); err != nil {
		s.warn("paper summarization failed", "paper_id", paper.ID, "error", err)
		return domain.PaperSummary{
			ProblemStatement: domain.SentinelSummaryUnavailable,
			ProposedSolution: domain.SentinelSummaryUnavailable,
			Challenges:       domain.SentinelSummaryUnavailable,
		}, false
	}

	summary := domain.PaperSummary{
		ProblemStatement: orSentinel(parsed.ProblemStatement),
		ProposedSolution: orSentinel(parsed.ProposedSolution),
		Challenges:       orSentinel(parsed.Challenges),
	}

	// Best-effort hallucination guard: an evidentiary claim with no lexical
	// anchor in the abstract discards the generated summary.
	combined := summary.ProblemStatement + " " + summary.ProposedSolution + " " + summary.Challenges
	if hasUnsupportedClaim(combined, paper.Abstract) {
		s.warn("unsupported claim detected, substituting neutral summary", "paper_id", paper.ID)
		return domain.PaperSummary{
			ProblemStatement: domain.SentinelReferToAbstract,
			ProposedSolution: domain.SentinelReferToAbstract,
			Challenges:       domain.SentinelReferToAbstract,
		}, true
	}

	return summary, true
}

func buildPaperPrompt(paper domain.Paper) string {
	return fmt.Sprintf(`Analyze this research paper and provide a structured summary.

Title: %s
Authors: %s
Abstract: %s

Provide a JSON response with exactly these three fields:
- problem_statement: What specific problem or challenge does this paper address? (1-2 sentences)
- proposed_solution: What is the main approach, method, or contribution proposed? (1-2 sentences)
- challenges: What limitations, challenges, or future work are mentioned? (1-2 sentences)

Only use information explicitly stated in the abstract. If something is not mentioned, say "Not specified in abstract."

Respond with ONLY valid JSON, no markdown formatting.`, paper.Title, paper.Authors, paper.Abstract)
}

func orSentinel(field string) string {
	field = strings.TrimSpace(field)
	if field == "" {
		return domain.SentinelNotSpecified
	}
	return field
}

// evidentialPhrases are the fixed claim markers the guard checks for. The
// guard is a heuristic safety net over these phrases only, not a general
// factuality checker.
var evidentialPhrases = []string{
	"the researchers found",
	"results indicate",
	"the study shows",
	"experiments demonstrate",
}

const anchorMinLength = 5

// hasUnsupportedClaim reports whether the summary makes an evidentiary claim
// whose sentence shares no substantive word with the abstract.
func hasUnsupportedClaim(summary, abstract string) bool {
	loweredSummary := strings.ToLower(summary)
	loweredAbstract := strings.ToLower(abstract)

	for _, phrase := range evidentialPhrases {
		idx := strings.Index(loweredSummary, phrase)
		if idx < 0 {
			continue
		}

		claim := loweredSummary[idx+len(phrase):]
		if end := strings.IndexAny(claim, ".!?"); end >= 0 {
			claim = claim[:end]
		}

		if !hasLexicalAnchor(claim, loweredAbstract) {
			return true
		}
	}
	return false
}

func hasLexicalAnchor(claim, abstract string) bool {
	words := strings.FieldsFunc(claim, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for _, word := range words {
		if len(word) >= anchorMinLength && strings.Contains(abstract, word) {
			return true
		}
	}
	return false
}

func (s *PaperSummarizer) warn(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Warn(msg, args...)
	}
}
