package websearch

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/uuid"

	"researchlens/internal/domain"
	"researchlens/internal/infrastructure/tavily"
	"researchlens/internal/ports"
)

const defaultBaseURL = "https://html.duckduckgo.com/html/"

// DuckDuckGo is a keyless fallback article provider scraping the DuckDuckGo
// HTML endpoint. Result snippets stand in for article content.
type DuckDuckGo struct {
	baseURL    string
	maxResults int
	client     *http.Client
	logger     *slog.Logger
}

var _ ports.ArticleSource = (*DuckDuckGo)(nil)

// NewDuckDuckGo wires an HTTP client; a nil client gets a 30s-timeout default.
func NewDuckDuckGo(client *http.Client, maxResults int, logger *slog.Logger) *DuckDuckGo {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	if maxResults <= 0 {
		maxResults = 15
	}
	return &DuckDuckGo{
		baseURL:    defaultBaseURL,
		maxResults: maxResults,
		client:     client,
		logger:     logger,
	}
}

// Available always reports true: the provider needs no credentials.
func (d *DuckDuckGo) Available() bool {
	return true
}

// Fetch scrapes one page of search results. The df parameter carries the
// same coarse recency bucket the news API uses.
func (d *DuckDuckGo) Fetch(ctx context.Context, topic string, windowDays int, keywords string) ([]domain.Article, error) {
	query := topic
	if keywords != "" {
		query = topic + " " + keywords
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("df", dateFilter(windowDays))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36")
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request: %v: %w", err, domain.ErrSourceUnavailable)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("duckduckgo returned %s: %w", resp.Status, domain.ErrSourceUnavailable)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse results page: %w", err)
	}

	articles := d.extractArticles(doc)
	d.debug("web search done", "query", query, "count", len(articles))
	return articles, nil
}

func (d *DuckDuckGo) extractArticles(doc *goquery.Document) []domain.Article {
	var articles []domain.Article

	doc.Find("div.result").EachWithBreak(func(i int, sel *goquery.Selection) bool {
		if len(articles) >= d.maxResults {
			return false
		}

		link := sel.Find("a.result__a").First()
		href, _ := link.Attr("href")
		title := strings.TrimSpace(link.Text())
		if href == "" || title == "" {
			return true
		}

		target := unwrapRedirect(href)
		snippet := strings.TrimSpace(sel.Find(".result__snippet").First().Text())

		articles = append(articles, domain.Article{
			ID:      uuid.NewString(),
			Title:   title,
			URL:     target,
			Source:  tavily.SourceLabel(target),
			Content: snippet,
		})
		return true
	})

	return articles
}

// unwrapRedirect resolves DuckDuckGo's /l/?uddg= redirect wrapper to the
// destination URL.
func unwrapRedirect(href string) string {
	if !strings.Contains(href, "uddg=") {
		return href
	}
	parsed, err := url.Parse(href)
	if err != nil {
		return href
	}
	if target := parsed.Query().Get("uddg"); target != "" {
		return target
	}
	return href
}

func dateFilter(days int) string {
	switch {
	case days <= 1:
		return "d"
	case days <= 7:
		return "w"
	case days <= 30:
		return "m"
	default:
		return "y"
	}
}

func (d *DuckDuckGo) debug(msg string, args ...any) {
	if d.logger != nil {
		d.logger.Debug(msg, args...)
	}
}
