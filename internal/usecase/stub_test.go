package usecase

import (
	"context"
	"sync"
	"time"

	"researchlens/internal/domain"
)

// stubModel is a scriptable ChatModel that records prompts and tracks how
// many calls were in flight at once.
type stubModel struct {
	mu        sync.Mutex
	textFn    func(prompt string) (string, error)
	jsonFn    func(prompt string, out any) error
	delay     time.Duration
	textCalls []string
	jsonCalls []string
	active    int
	maxActive int
}

func (s *stubModel) Generate(_ context.Context, prompt string) (string, error) {
	defer s.track()()
	s.mu.Lock()
	s.textCalls = append(s.textCalls, prompt)
	fn := s.textFn
	s.mu.Unlock()

	if s.delay > 0 {
		time.Sleep(s.delay)
	}
	if fn == nil {
		return "generated text", nil
	}
	return fn(prompt)
}

func (s *stubModel) GenerateJSON(_ context.Context, prompt string, out any) error {
	defer s.track()()
	s.mu.Lock()
	s.jsonCalls = append(s.jsonCalls, prompt)
	fn := s.jsonFn
	s.mu.Unlock()

	if s.delay > 0 {
		time.Sleep(s.delay)
	}
	if fn == nil {
		return nil
	}
	return fn(prompt, out)
}

func (s *stubModel) TestConnection(context.Context) error {
	return nil
}

func (s *stubModel) track() func() {
	s.mu.Lock()
	s.active++
	if s.active > s.maxActive {
		s.maxActive = s.active
	}
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		s.active--
		s.mu.Unlock()
	}
}

func (s *stubModel) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.textCalls) + len(s.jsonCalls)
}

type stubPaperSource struct {
	papers   []domain.Paper
	err      error
	panicMsg string
}

func (s *stubPaperSource) Fetch(context.Context, string, string, []string, int) ([]domain.Paper, error) {
	if s.panicMsg != "" {
		panic(s.panicMsg)
	}
	return s.papers, s.err
}

type stubArticleSource struct {
	articles []domain.Article
	err      error
}

func (s *stubArticleSource) Fetch(context.Context, string, int, string) ([]domain.Article, error) {
	return s.articles, s.err
}

func (s *stubArticleSource) Available() bool {
	return true
}

func paperSummaryJSON(problem, solution, challenges string) func(string, any) error {
	return func(_ string, out any) error {
		payload, ok := out.(*paperSummaryPayload)
		if !ok {
			if a, isArticle := out.(*articleSummaryPayload); isArticle {
				a.KeyFindings = problem
				a.Methodology = solution
				a.Significance = challenges
				return nil
			}
			return nil
		}
		payload.ProblemStatement = problem
		payload.ProposedSolution = solution
		payload.Challenges = challenges
		return nil
	}
}

func samplePapers(n int) []domain.Paper {
	papers := make([]domain.Paper, 0, n)
	for i := 0; i < n; i++ {
		papers = append(papers, domain.Paper{
			ID:            string(rune('a' + i)),
			Title:         "Paper " + string(rune('A'+i)),
			Authors:       "Some Author",
			Abstract:      "We propose a method for solving problems with data.",
			SourceURL:     "https://arxiv.org/abs/000" + string(rune('0'+i)),
			PublishedDate: "2026-08-28T00:00:00Z",
			Categories:    []string{"cs.AI"},
		})
	}
	return papers
}

func sampleArticles(n int) []domain.Article {
	articles := make([]domain.Article, 0, n)
	for i := 0; i < n; i++ {
		articles = append(articles, domain.Article{
			ID:      "article-" + string(rune('a'+i)),
			Title:   "Article " + string(rune('A'+i)),
			URL:     "https://example.com/" + string(rune('a'+i)),
			Source:  "example.com",
			Content: "Body of article " + string(rune('A'+i)),
		})
	}
	return articles
}
