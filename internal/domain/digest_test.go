package domain

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestSearchRequestValidate(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		req     SearchRequest
		wantErr bool
	}{
		{"valid", SearchRequest{Topic: "transformer attention", TimeframeDays: 7}, false},
		{"empty topic", SearchRequest{Topic: "", TimeframeDays: 7}, true},
		{"timeframe too small", SearchRequest{Topic: "llm", TimeframeDays: 0}, true},
		{"timeframe too large", SearchRequest{Topic: "llm", TimeframeDays: 31}, true},
		{"timeframe lower bound", SearchRequest{Topic: "llm", TimeframeDays: 1}, false},
		{"timeframe upper bound", SearchRequest{Topic: "llm", TimeframeDays: 30}, false},
	}

	for _, tc := range cases {
		err := tc.req.Validate()
		if tc.wantErr && err == nil {
			t.Errorf("%s: expected error, got nil", tc.name)
		}
		if !tc.wantErr && err != nil {
			t.Errorf("%s: unexpected error: %v", tc.name, err)
		}
		if tc.wantErr {
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Errorf("%s: expected ValidationError, got %T", tc.name, err)
			}
		}
	}
}

func TestSearchRequestNormalize(t *testing.T) {
	t.Parallel()

	req := SearchRequest{Topic: "llm"}
	req.Normalize()
	if req.TimeframeDays != DefaultTimeframeDays {
		t.Fatalf("expected default timeframe %d, got %d", DefaultTimeframeDays, req.TimeframeDays)
	}

	req = SearchRequest{Topic: "llm", TimeframeDays: 3}
	req.Normalize()
	if req.TimeframeDays != 3 {
		t.Fatalf("normalize overwrote explicit timeframe: %d", req.TimeframeDays)
	}

	req = SearchRequest{Topic: "  llm  ", Keywords: " pruning ", TimeframeDays: 3}
	req.Normalize()
	if req.Topic != "llm" || req.Keywords != "pruning" {
		t.Fatalf("normalize should trim free text, got %q / %q", req.Topic, req.Keywords)
	}
}

func TestDigestJSONRoundTrip(t *testing.T) {
	t.Parallel()

	original := Digest{
		Topic:         "quantum error correction",
		TimeframeDays: 7,
		GeneratedAt:   "2026-08-30T12:00:00Z",
		Papers: PapersSection{
			ExecutiveSummary: "An overview.",
			Count:            1,
			Items: []PaperItem{
				{
					ID:            "2501.00001v1",
					Title:         "A Paper",
					Authors:       "A. Author, B. Author",
					SourceURL:     "https://arxiv.org/abs/2501.00001v1",
					PublishedDate: "2026-08-28T00:00:00Z",
					Abstract:      "We study things.",
					Categories:    []string{"cs.AI", "cs.LG"},
					Summary: PaperSummary{
						ProblemStatement: "Things are hard.",
						ProposedSolution: "A method.",
						Challenges:       SentinelNotSpecified,
					},
				},
			},
		},
		Articles: ArticlesSection{
			ExecutiveSummary: "News overview.",
			Count:            1,
			Items: []ArticleItem{
				{
					ID:     "b2f9e9c0-0000-0000-0000-000000000000",
					Title:  "Big News",
					URL:    "https://example.com/news",
					Source: "example.com",
					Summary: &ArticleSummary{
						KeyFindings:  "Something happened.",
						Methodology:  "See original article.",
						Significance: "It matters.",
					},
				},
			},
		},
		Warning: "article search failed: quota exceeded",
	}

	raw, err := json.Marshal(original)
	if err != nil {
		t.Fatalf("marshal digest: %v", err)
	}

	var decoded Digest
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("unmarshal digest: %v", err)
	}

	if decoded.Papers.Items[0].Summary != original.Papers.Items[0].Summary {
		t.Fatalf("paper summary lost in round trip: %+v", decoded.Papers.Items[0].Summary)
	}
	if decoded.Articles.Items[0].Summary == nil ||
		*decoded.Articles.Items[0].Summary != *original.Articles.Items[0].Summary {
		t.Fatalf("article summary lost in round trip: %+v", decoded.Articles.Items[0].Summary)
	}
	if decoded.Warning != original.Warning {
		t.Fatalf("warning lost in round trip: %q", decoded.Warning)
	}
	if decoded.Papers.Count != len(decoded.Papers.Items) {
		t.Fatalf("papers count %d != items %d", decoded.Papers.Count, len(decoded.Papers.Items))
	}
}

func TestDigestOmitsEmptyOptionalFields(t *testing.T) {
	t.Parallel()

	digest := Digest{
		Topic: "llm", TimeframeDays: 7, GeneratedAt: "2026-08-30T12:00:00Z",
		Articles: ArticlesSection{
			Items: []ArticleItem{{ID: "x", Title: "t", URL: "u", Source: "s"}},
			Count: 1,
		},
	}

	raw, err := json.Marshal(digest)
	if err != nil {
		t.Fatalf("marshal digest: %v", err)
	}

	var generic map[string]any
	if err := json.Unmarshal(raw, &generic); err != nil {
		t.Fatalf("unmarshal generic: %v", err)
	}
	if _, ok := generic["warning"]; ok {
		t.Fatalf("empty warning should be omitted: %s", raw)
	}

	item := generic["articles"].(map[string]any)["items"].([]any)[0].(map[string]any)
	if _, ok := item["summary"]; ok {
		t.Fatalf("nil article summary should be omitted: %s", raw)
	}
	if _, ok := item["publishedDate"]; ok {
		t.Fatalf("empty publishedDate should be omitted: %s", raw)
	}
}
