package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"researchlens/internal/domain"
	"researchlens/internal/ports"
)

// AgentDeps wires all collaborators into the research agent.
type AgentDeps struct {
	Papers            ports.PaperSource
	Articles          ports.ArticleSource
	PaperSummarizer   *PaperSummarizer
	ArticleSummarizer *ArticleSummarizer
	Executive         *ExecutiveSummarizer
	Categories        []string
	Logger            *slog.Logger
	Now               func() time.Time
}

// Agent orchestrates one research run: fan out the paper and article fetches,
// enrich each branch, and converge into a single digest. Every run is an
// independent closure over its inputs; nothing leaks between runs.
//
// The branch graphs are asymmetric on purpose: the paper executive summary
// waits for per-paper summaries (it reads their problem statements), while
// the article executive summary depends only on the raw fetch and runs
// independently of per-article enrichment.
type Agent struct {
	papers            ports.PaperSource
	articles          ports.ArticleSource
	paperSummarizer   *PaperSummarizer
	articleSummarizer *ArticleSummarizer
	executive         *ExecutiveSummarizer
	categories        []string
	logger            *slog.Logger
	now               func() time.Time
}

// NewAgent constructs the orchestration component.
func NewAgent(deps AgentDeps) *Agent {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &Agent{
		papers:            deps.Papers,
		articles:          deps.Articles,
		paperSummarizer:   deps.PaperSummarizer,
		articleSummarizer: deps.ArticleSummarizer,
		executive:         deps.Executive,
		categories:        deps.Categories,
		logger:            deps.Logger,
		now:               now,
	}
}

// Run executes the full pipeline for one request. Input validation is the
// only caller-visible rejection; every collaborator failure downstream is
// absorbed into a structurally complete, possibly degraded digest.
func (a *Agent) Run(ctx context.Context, req domain.SearchRequest) (domain.Digest, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return domain.Digest{}, err
	}

	return a.execute(ctx, req), nil
}

func (a *Agent) execute(ctx context.Context, req domain.SearchRequest) (digest domain.Digest) {
	defer func() {
		if r := recover(); r != nil {
			a.error("research run aborted", "topic", req.Topic, "panic", r)
			digest = a.failedDigest(req, fmt.Sprintf("research aborted unexpectedly: %v", r))
		}
	}()

	a.info("research run started", "topic", req.Topic, "timeframe_days", req.TimeframeDays)

	var (
		paperSection   domain.PapersSection
		paperWarnings  []string
		articleSection domain.ArticlesSection
		articleWarns   []string
	)

	var branches errgroup.Group
	branches.Go(func() error {
		paperSection, paperWarnings = a.runPaperBranch(ctx, req)
		return nil
	})
	branches.Go(func() error {
		articleSection, articleWarns = a.runArticleBranch(ctx, req)
		return nil
	})
	_ = branches.Wait()

	digest = domain.Digest{
		Topic:         req.Topic,
		TimeframeDays: req.TimeframeDays,
		GeneratedAt:   a.now().UTC().Format(time.RFC3339),
		Papers:        paperSection,
		Articles:      articleSection,
		Warning:       strings.Join(append(paperWarnings, articleWarns...), "; "),
	}

	a.info("research run complete",
		"topic", req.Topic,
		"papers", digest.Papers.Count,
		"articles", digest.Articles.Count,
		"degraded", digest.Warning != "")
	return digest
}

// runPaperBranch executes FetchPapers -> SummarizePapers -> executive
// summary. A fetch failure degrades the branch to zero papers; the executive
// summary never starts before per-paper summarization has completed.
func (a *Agent) runPaperBranch(ctx context.Context, req domain.SearchRequest) (domain.PapersSection, []string) {
	var warnings []string

	papers, err := a.papers.Fetch(ctx, req.Topic, req.Keywords, a.categories, req.TimeframeDays)
	if err != nil {
		a.warn("paper fetch failed", "topic", req.Topic, "error", err)
		warnings = append(warnings, "paper search failed: "+err.Error())
		papers = nil
	}
	a.info("papers fetched", "count", len(papers))

	items, degraded := a.paperSummarizer.SummarizeAll(ctx, papers)
	if degraded {
		warnings = append(warnings, "paper summarization degraded: LLM backend unavailable for some papers")
	}

	executive, execDegraded := a.executive.SummarizePapers(ctx, req.Topic, items)
	if execDegraded {
		warnings = append(warnings, "paper executive summary unavailable")
	}

	return domain.PapersSection{
		ExecutiveSummary: executive,
		Count:            len(items),
		Items:            items,
	}, warnings
}

// runArticleBranch executes FetchArticles and then, independently, the
// executive summary (raw fetch is its only prerequisite) and the per-article
// enrichment. Any fetch failure is absorbed into an empty list.
func (a *Agent) runArticleBranch(ctx context.Context, req domain.SearchRequest) (domain.ArticlesSection, []string) {
	var warnings []string

	articles, err := a.articles.Fetch(ctx, req.Topic, req.TimeframeDays, req.Keywords)
	if err != nil {
		a.warn("article fetch failed", "topic", req.Topic, "error", err)
		warnings = append(warnings, "article search failed: "+err.Error())
		articles = nil
	}
	a.info("articles fetched", "count", len(articles))

	var (
		executive     string
		execDegraded  bool
		summaries     []*domain.ArticleSummary
		itemsDegraded bool
	)

	var stages errgroup.Group
	stages.Go(func() error {
		executive, execDegraded = a.executive.SummarizeArticles(ctx, req.Topic, articles)
		return nil
	})
	stages.Go(func() error {
		summaries, itemsDegraded = a.articleSummarizer.SummarizeAll(ctx, articles)
		return nil
	})
	_ = stages.Wait()

	if execDegraded {
		warnings = append(warnings, "article executive summary unavailable")
	}
	if itemsDegraded {
		warnings = append(warnings, "article summarization degraded: LLM backend unavailable for some articles")
	}

	items := make([]domain.ArticleItem, 0, len(articles))
	for i, article := range articles {
		item := domain.ArticleItem{
			ID:            article.ID,
			Title:         article.Title,
			URL:           article.URL,
			Source:        article.Source,
			PublishedDate: article.PublishedDate,
		}
		if i < len(summaries) {
			item.Summary = summaries[i]
		}
		items = append(items, item)
	}

	return domain.ArticlesSection{
		ExecutiveSummary: executive,
		Count:            len(items),
		Items:            items,
	}, warnings
}

// failedDigest is the outer-boundary conversion of a harness failure into a
// best-effort, structurally complete response.
func (a *Agent) failedDigest(req domain.SearchRequest, warning string) domain.Digest {
	return domain.Digest{
		Topic:         req.Topic,
		TimeframeDays: req.TimeframeDays,
		GeneratedAt:   a.now().UTC().Format(time.RFC3339),
		Papers: domain.PapersSection{
			ExecutiveSummary: domain.SentinelResearchFailed,
			Count:            0,
			Items:            []domain.PaperItem{},
		},
		Articles: domain.ArticlesSection{
			ExecutiveSummary: domain.SentinelResearchFailed,
			Count:            0,
			Items:            []domain.ArticleItem{},
		},
		Warning: warning,
	}
}

func (a *Agent) info(msg string, args ...any) {
	if a.logger != nil {
		a.logger.Info(msg, args...)
	}
}

func (a *Agent) warn(msg string, args ...any) {
	if a.logger != nil {
		a.logger.Warn(msg, args...)
	}
}

func (a *Agent) error(msg string, args ...any) {
	if a.logger != nil {
		a.logger.Error(msg, args...)
	}
}
