package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"researchlens/internal/domain"
)

func TestArticleSummarizeAll(t *testing.T) {
	t.Parallel()

	model := &stubModel{jsonFn: paperSummaryJSON(
		"A reactor milestone was announced.",
		"Press briefing.",
		"Signals commercial viability.",
	)}
	s := NewArticleSummarizer(model, nil)

	summaries, degraded := s.SummarizeAll(context.Background(), sampleArticles(3))
	if degraded {
		t.Fatal("successful run should not degrade")
	}
	if len(summaries) != 3 {
		t.Fatalf("expected 3 slots, got %d", len(summaries))
	}
	for i, summary := range summaries {
		if summary == nil {
			t.Fatalf("slot %d unexpectedly nil", i)
		}
		if summary.KeyFindings != "A reactor milestone was announced." {
			t.Fatalf("slot %d has unexpected findings: %q", i, summary.KeyFindings)
		}
	}
}

func TestArticleSummarizeAllIsolatesFailures(t *testing.T) {
	t.Parallel()

	model := &stubModel{jsonFn: func(prompt string, out any) error {
		if strings.Contains(prompt, "Article B") {
			return errors.New("backend down")
		}
		return paperSummaryJSON("finding", "method", "why")(prompt, out)
	}}
	s := NewArticleSummarizer(model, nil)

	summaries, degraded := s.SummarizeAll(context.Background(), sampleArticles(3))
	if !degraded {
		t.Fatal("a failed slot must report degradation")
	}
	if summaries[0] == nil || summaries[2] == nil {
		t.Fatal("sibling slots must settle despite one failure")
	}
	if summaries[1] != nil {
		t.Fatalf("failed slot should stay nil, got %+v", summaries[1])
	}
}

func TestArticleSummarizeAllConcurrent(t *testing.T) {
	t.Parallel()

	model := &stubModel{
		delay:  50 * time.Millisecond,
		jsonFn: paperSummaryJSON("f", "m", "s"),
	}
	s := NewArticleSummarizer(model, nil)

	start := time.Now()
	_, _ = s.SummarizeAll(context.Background(), sampleArticles(4))
	elapsed := time.Since(start)

	if model.maxActive < 2 {
		t.Fatalf("article calls should overlap, saw at most %d in flight", model.maxActive)
	}
	if elapsed > 150*time.Millisecond {
		t.Fatalf("4 overlapping 50ms calls took %v, looks serialized", elapsed)
	}
}

func TestArticleSummarizeAllEmpty(t *testing.T) {
	t.Parallel()

	model := &stubModel{}
	s := NewArticleSummarizer(model, nil)

	summaries, degraded := s.SummarizeAll(context.Background(), nil)
	if degraded || len(summaries) != 0 {
		t.Fatalf("empty input should yield empty slots, got %v (degraded=%v)", summaries, degraded)
	}
	if model.callCount() != 0 {
		t.Fatalf("no model calls expected for empty input, got %d", model.callCount())
	}
}

func TestArticlePromptSelection(t *testing.T) {
	t.Parallel()

	withContent := domain.Article{Title: "Full Story", Source: "example.com", Content: "The full body."}
	prompt := buildArticlePrompt(withContent)
	if !strings.Contains(prompt, "The full body.") || !strings.Contains(prompt, "key_findings") {
		t.Fatalf("content prompt missing article body: %q", prompt)
	}

	headlineOnly := domain.Article{Title: "Just A Headline", Source: "example.com", URL: "https://example.com/h"}
	prompt = buildArticlePrompt(headlineOnly)
	if !strings.Contains(prompt, "Only the headline") {
		t.Fatalf("headline prompt not selected: %q", prompt)
	}
	if !strings.Contains(prompt, "Do NOT fabricate") {
		t.Fatalf("headline prompt missing fabrication guard: %q", prompt)
	}
	if !strings.Contains(prompt, "https://example.com/h") {
		t.Fatalf("headline prompt should carry the URL: %q", prompt)
	}
}

func TestOrSeeOriginal(t *testing.T) {
	t.Parallel()

	if got := orSeeOriginal(""); got != "See original article." {
		t.Fatalf("empty field should default, got %q", got)
	}
	if got := orSeeOriginal("stated"); got != "stated" {
		t.Fatalf("populated field should pass through, got %q", got)
	}
}
