package arxiv

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"researchlens/internal/config"
	"researchlens/internal/domain"
	"researchlens/internal/ports"
)

// Client queries the ArXiv Atom API and returns recent papers for a topic.
type Client struct {
	baseURL   string
	pageSize  int
	maxPapers int
	client    *http.Client
	logger    *slog.Logger
	now       func() time.Time
}

var _ ports.PaperSource = (*Client)(nil)

// NewClient wires an HTTP client; a nil client gets a 30s-timeout default.
func NewClient(cfg config.ArxivConfig, client *http.Client, logger *slog.Logger) *Client {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	pageSize := cfg.PageSize
	if pageSize <= 0 {
		pageSize = 50
	}
	maxPapers := cfg.MaxPapers
	if maxPapers <= 0 {
		maxPapers = 10
	}
	return &Client{
		baseURL:   cfg.BaseURL,
		pageSize:  pageSize,
		maxPapers: maxPapers,
		client:    client,
		logger:    logger,
		now:       time.Now,
	}
}

// Fetch retrieves one page of results ordered most-recent-first, filters them
// to the requested window, and truncates to the configured maximum. A
// transient upstream failure is returned as ErrSourceUnavailable; no retries.
func (c *Client) Fetch(ctx context.Context, topic, keywords string, categories []string, windowDays int) ([]domain.Paper, error) {
	query := buildSearchQuery(topic, keywords, categories)
	c.debug("fetch papers", "query", query, "window_days", windowDays)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	params := url.Values{}
	params.Set("search_query", query)
	params.Set("start", "0")
	params.Set("max_results", strconv.Itoa(c.pageSize))
	params.Set("sortBy", "submittedDate")
	params.Set("sortOrder", "descending")
	req.URL.RawQuery = params.Encode()
	req.Header.Set("User-Agent", "researchlens/1.0")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request feed: %v: %w", err, domain.ErrSourceUnavailable)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("arxiv returned %s: %w", resp.Status, domain.ErrSourceUnavailable)
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return nil, fmt.Errorf("read feed: %v: %w", err, domain.ErrSourceUnavailable)
	}

	cutoff := c.now().UTC().AddDate(0, 0, -windowDays)
	papers, err := parseFeed(raw, cutoff)
	if err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}

	if len(papers) > c.maxPapers {
		papers = papers[:c.maxPapers]
	}

	c.debug("fetch papers done", "count", len(papers))
	return papers, nil
}

// buildSearchQuery composes the boolean search string: topic is required,
// keywords are OR-ed together and AND-ed with the topic, and the category
// group restricts the subject area.
func buildSearchQuery(topic, keywords string, categories []string) string {
	var sb strings.Builder
	sb.WriteString("all:" + topic)

	if keywords != "" {
		var terms []string
		for _, kw := range strings.Split(keywords, ",") {
			kw = strings.TrimSpace(kw)
			if kw != "" {
				terms = append(terms, "all:"+kw)
			}
		}
		if len(terms) > 0 {
			sb.WriteString(" AND (" + strings.Join(terms, " OR ") + ")")
		}
	}

	if len(categories) > 0 {
		cats := make([]string, 0, len(categories))
		for _, cat := range categories {
			cats = append(cats, "cat:"+cat)
		}
		sb.WriteString(" AND (" + strings.Join(cats, " OR ") + ")")
	}

	return sb.String()
}

type atomFeed struct {
	Entries []atomEntry `xml:"entry"`
}

type atomEntry struct {
	ID              string         `xml:"id"`
	Title           string         `xml:"title"`
	Summary         string         `xml:"summary"`
	Published       string         `xml:"published"`
	Authors         []atomAuthor   `xml:"author"`
	Categories      []atomCategory `xml:"category"`
	PrimaryCategory atomCategory   `xml:"primary_category"`
}

type atomAuthor struct {
	Name string `xml:"name"`
}

type atomCategory struct {
	Term string `xml:"term,attr"`
}

func parseFeed(raw []byte, cutoff time.Time) ([]domain.Paper, error) {
	var feed atomFeed
	if err := xml.Unmarshal(raw, &feed); err != nil {
		return nil, fmt.Errorf("decode atom: %w", err)
	}

	papers := make([]domain.Paper, 0, len(feed.Entries))
	for _, entry := range feed.Entries {
		published, err := time.Parse(time.RFC3339, entry.Published)
		if err != nil {
			continue
		}
		if published.UTC().Before(cutoff) {
			continue
		}

		id := entry.ID
		if idx := strings.LastIndex(id, "/"); idx >= 0 {
			id = id[idx+1:]
		}
		if id == "" {
			continue
		}

		papers = append(papers, domain.Paper{
			ID:            id,
			Title:         normalizeWhitespace(entry.Title),
			Authors:       joinAuthors(entry.Authors),
			Abstract:      normalizeWhitespace(entry.Summary),
			SourceURL:     "https://arxiv.org/abs/" + id,
			PublishedDate: entry.Published,
			Categories:    collectCategories(entry),
		})
	}

	return papers, nil
}

// joinAuthors coerces the singular-or-array author field to a display string.
func joinAuthors(authors []atomAuthor) string {
	names := make([]string, 0, len(authors))
	for _, a := range authors {
		if name := strings.TrimSpace(a.Name); name != "" {
			names = append(names, name)
		}
	}
	if len(names) == 0 {
		return "Unknown"
	}
	return strings.Join(names, ", ")
}

// collectCategories always yields a list, falling back to the primary
// category when the entry carries no category elements.
func collectCategories(entry atomEntry) []string {
	categories := make([]string, 0, len(entry.Categories))
	for _, cat := range entry.Categories {
		if cat.Term != "" {
			categories = append(categories, cat.Term)
		}
	}
	if len(categories) == 0 && entry.PrimaryCategory.Term != "" {
		categories = append(categories, entry.PrimaryCategory.Term)
	}
	return categories
}

func normalizeWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func (c *Client) debug(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Debug(msg, args...)
	}
}
