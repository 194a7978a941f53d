package tavily

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"researchlens/internal/config"
	"researchlens/internal/domain"
	"researchlens/internal/ports"
)

// Client searches the Tavily news API for recent articles on a topic.
type Client struct {
	baseURL    string
	apiKey     string
	maxResults int
	client     *http.Client
	logger     *slog.Logger
}

var _ ports.ArticleSource = (*Client)(nil)

// NewClient builds a client from configuration.
func NewClient(cfg config.TavilyConfig, client *http.Client, logger *slog.Logger) *Client {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = 15
	}
	return &Client{
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		maxResults: maxResults,
		client:     client,
		logger:     logger,
	}
}

// Available reports whether an API key is configured.
func (c *Client) Available() bool {
	return c.apiKey != ""
}

type searchRequest struct {
	Query             string `json:"query"`
	Topic             string `json:"topic"`
	TimeRange         string `json:"time_range"`
	MaxResults        int    `json:"max_results"`
	IncludeRawContent bool   `json:"include_raw_content"`
}

type searchResponse struct {
	Results []searchResult `json:"results"`
}

type searchResult struct {
	Title         string `json:"title"`
	URL           string `json:"url"`
	Content       string `json:"content"`
	RawContent    string `json:"raw_content"`
	PublishedDate string `json:"published_date"`
}

// Fetch searches for news articles. The upstream accepts only coarse recency
// buckets, so windowDays is mapped onto day/week/month/year. Failures are
// returned for the orchestrator to absorb; this branch is never fatal.
func (c *Client) Fetch(ctx context.Context, topic string, windowDays int, keywords string) ([]domain.Article, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("tavily api key not configured: %w", domain.ErrSourceUnavailable)
	}

	query := topic
	if keywords != "" {
		query = topic + " " + keywords
	}

	payload := searchRequest{
		Query:             query,
		Topic:             "news",
		TimeRange:         recencyBucket(windowDays),
		MaxResults:        c.maxResults,
		IncludeRawContent: true,
	}
	c.debug("search articles", "query", query, "time_range", payload.TimeRange)

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal search payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/search", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request: %v: %w", err, domain.ErrSourceUnavailable)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("tavily returned %s: %s: %w",
			resp.Status, strings.TrimSpace(string(detail)), domain.ErrSourceUnavailable)
	}

	var parsed searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	articles := make([]domain.Article, 0, len(parsed.Results))
	for _, result := range parsed.Results {
		articles = append(articles, transformResult(result))
	}

	c.debug("search articles done", "count", len(articles))
	return articles, nil
}

// recencyBucket maps a day count onto the coarse ranges the upstream accepts.
func recencyBucket(days int) string {
	switch {
	case days <= 1:
		return "day"
	case days <= 7:
		return "week"
	case days <= 30:
		return "month"
	default:
		return "year"
	}
}

func transformResult(result searchResult) domain.Article {
	title := result.Title
	if title == "" {
		title = "Untitled"
	}

	content := result.RawContent
	if content == "" {
		content = result.Content
	}

	return domain.Article{
		ID:            uuid.NewString(),
		Title:         title,
		URL:           result.URL,
		Source:        SourceLabel(result.URL),
		PublishedDate: result.PublishedDate,
		Content:       content,
	}
}

// SourceLabel derives a display label from an article URL: the hostname with
// any leading "www." stripped. Unparseable URLs fall back to "Unknown".
func SourceLabel(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Hostname() == "" {
		return "Unknown"
	}
	return strings.TrimPrefix(parsed.Hostname(), "www.")
}

func (c *Client) debug(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Debug(msg, args...)
	}
}
