package domain

import (
	"strings"
	"time"
)

// SearchRequest is the immutable input for a single research run.
type SearchRequest struct {
	Topic         string `json:"topic"`
	Keywords      string `json:"keywords,omitempty"`
	TimeframeDays int    `json:"timeframeDays"`
}

// DefaultTimeframeDays applies when the caller omits a timeframe.
const DefaultTimeframeDays = 7

// Normalize trims free-text fields and fills defaults that the wire format
// allows to be absent.
func (r *SearchRequest) Normalize() {
	r.Topic = strings.TrimSpace(r.Topic)
	r.Keywords = strings.TrimSpace(r.Keywords)
	if r.TimeframeDays == 0 {
		r.TimeframeDays = DefaultTimeframeDays
	}
}

// Validate rejects malformed requests before any network call is made.
func (r SearchRequest) Validate() error {
	if len([]rune(r.Topic)) == 0 {
		return &ValidationError{Field: "topic", Reason: "topic must not be empty"}
	}
	if r.TimeframeDays < 1 || r.TimeframeDays > 30 {
		return &ValidationError{Field: "timeframeDays", Reason: "timeframeDays must be between 1 and 30"}
	}
	return nil
}

// Paper is raw metadata fetched from the academic source. Never mutated
// after creation.
type Paper struct {
	ID            string
	Title         string
	Authors       string
	Abstract      string
	SourceURL     string
	PublishedDate string
	Categories    []string
}

// Article is raw metadata fetched from the web-search source. Content, when
// present, feeds summarization and is never exposed in the response.
type Article struct {
	ID            string
	Title         string
	URL           string
	Source        string
	PublishedDate string
	Content       string
}

// PaperSummary is the structured per-paper enrichment. All three fields are
// always present; sentinel text stands in when generation fails.
type PaperSummary struct {
	ProblemStatement string `json:"problemStatement"`
	ProposedSolution string `json:"proposedSolution"`
	Challenges       string `json:"challenges"`
}

// ArticleSummary is the structured per-article enrichment.
type ArticleSummary struct {
	KeyFindings  string `json:"keyFindings"`
	Methodology  string `json:"methodology"`
	Significance string `json:"significance"`
}

// PaperItem is a paper as exposed in the digest response.
type PaperItem struct {
	ID            string       `json:"id"`
	Title         string       `json:"title"`
	Authors       string       `json:"authors"`
	SourceURL     string       `json:"sourceUrl"`
	PublishedDate string       `json:"publishedDate"`
	Abstract      string       `json:"abstract"`
	Categories    []string     `json:"categories"`
	Summary       PaperSummary `json:"summary"`
}

// ArticleItem is an article as exposed in the digest response. The summary
// is optional enrichment; absence means per-article summarization was not
// available for this item.
type ArticleItem struct {
	ID            string          `json:"id"`
	Title         string          `json:"title"`
	URL           string          `json:"url"`
	Source        string          `json:"source"`
	PublishedDate string          `json:"publishedDate,omitempty"`
	Summary       *ArticleSummary `json:"summary,omitempty"`
}

// PapersSection groups the paper branch output. Count always equals
// len(Items).
type PapersSection struct {
	ExecutiveSummary string      `json:"executiveSummary"`
	Count            int         `json:"count"`
	Items            []PaperItem `json:"items"`
}

// ArticlesSection groups the article branch output. Count always equals
// len(Items).
type ArticlesSection struct {
	ExecutiveSummary string        `json:"executiveSummary"`
	Count            int           `json:"count"`
	Items            []ArticleItem `json:"items"`
}

// Digest is the response envelope of one research run. It is structurally
// complete even when every collaborator failed; degradation is communicated
// through sentinel text and Warning, never through missing fields.
type Digest struct {
	Topic         string          `json:"topic"`
	TimeframeDays int             `json:"timeframeDays"`
	GeneratedAt   string          `json:"generatedAt"`
	Papers        PapersSection   `json:"papers"`
	Articles      ArticlesSection `json:"articles"`
	Warning       string          `json:"warning,omitempty"`
}

// HistoryEntry records one completed run for an owning user or anonymous
// session. Result is populated when saving and omitted when listing.
type HistoryEntry struct {
	ID            string    `json:"id"`
	UserID        string    `json:"-"`
	SessionID     string    `json:"-"`
	Topic         string    `json:"topic"`
	Keywords      string    `json:"keywords,omitempty"`
	TimeframeDays int       `json:"timeframeDays"`
	PaperCount    int       `json:"paperCount"`
	ArticleCount  int       `json:"articleCount"`
	Result        *Digest   `json:"-"`
	CreatedAt     time.Time `json:"createdAt"`
}
