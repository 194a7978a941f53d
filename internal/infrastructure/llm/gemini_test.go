package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"researchlens/internal/config"
	"researchlens/internal/domain"
)

func newTestGemini(t *testing.T, handler http.HandlerFunc) *GeminiClient {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client := NewGeminiClient(config.GeminiConfig{
		BaseURL:     server.URL,
		Model:       "gemini-2.0-flash",
		APIKey:      "test-key",
		Temperature: 0.1,
	})
	client.httpClient = server.Client()
	return client
}

func candidateBody(text string) string {
	body, _ := json.Marshal(map[string]any{
		"candidates": []map[string]any{
			{"content": map[string]any{"parts": []map[string]string{{"text": text}}}},
		},
	})
	return string(body)
}

func TestGenerate(t *testing.T) {
	t.Parallel()

	client := newTestGemini(t, func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/models/gemini-2.0-flash:generateContent") {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if r.Header.Get("x-goog-api-key") != "test-key" {
			t.Errorf("missing api key header")
		}

		var req generateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if len(req.Contents) != 1 || req.Contents[0].Parts[0].Text != "hello" {
			t.Errorf("unexpected request contents: %+v", req.Contents)
		}
		if req.GenerationConfig.Temperature != 0.1 {
			t.Errorf("unexpected temperature: %v", req.GenerationConfig.Temperature)
		}

		_, _ = w.Write([]byte(candidateBody("  world  ")))
	})

	got, err := client.Generate(context.Background(), "hello")
	if err != nil {
		t.Fatalf("Generate error: %v", err)
	}
	if got != "world" {
		t.Fatalf("unexpected output: %q", got)
	}
}

func TestGenerateJSONTrimsFences(t *testing.T) {
	t.Parallel()

	client := newTestGemini(t, func(w http.ResponseWriter, r *http.Request) {
		var req generateRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req.GenerationConfig.ResponseMIMEType != "application/json" {
			t.Errorf("expected JSON mime type, got %q", req.GenerationConfig.ResponseMIMEType)
		}
		_, _ = w.Write([]byte(candidateBody("```json\n{\"answer\": \"42\"}\n```")))
	})

	var out struct {
		Answer string `json:"answer"`
	}
	if err := client.GenerateJSON(context.Background(), "q", &out); err != nil {
		t.Fatalf("GenerateJSON error: %v", err)
	}
	if out.Answer != "42" {
		t.Fatalf("unexpected parsed value: %q", out.Answer)
	}
}

func TestGenerateJSONWithoutObject(t *testing.T) {
	t.Parallel()

	client := newTestGemini(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(candidateBody("sorry, I cannot answer that")))
	})

	var out map[string]any
	err := client.GenerateJSON(context.Background(), "q", &out)
	if !errors.Is(err, domain.ErrSummarizationUnavailable) {
		t.Fatalf("expected ErrSummarizationUnavailable, got %v", err)
	}
}

func TestGenerateUpstreamError(t *testing.T) {
	t.Parallel()

	client := newTestGemini(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"code":429,"message":"quota exhausted"}}`))
	})

	_, err := client.Generate(context.Background(), "hello")
	if !errors.Is(err, domain.ErrSummarizationUnavailable) {
		t.Fatalf("expected ErrSummarizationUnavailable, got %v", err)
	}
	if !strings.Contains(err.Error(), "quota exhausted") {
		t.Fatalf("error should carry upstream detail: %v", err)
	}
}

func TestGenerateMisconfigured(t *testing.T) {
	t.Parallel()

	client := NewGeminiClient(config.GeminiConfig{Model: "gemini-2.0-flash"})
	_, err := client.Generate(context.Background(), "hello")
	if !errors.Is(err, domain.ErrSummarizationUnavailable) {
		t.Fatalf("expected ErrSummarizationUnavailable for missing key, got %v", err)
	}
}

func TestTestConnection(t *testing.T) {
	t.Parallel()

	client := newTestGemini(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(candidateBody("OK")))
	})
	if err := client.TestConnection(context.Background()); err != nil {
		t.Fatalf("TestConnection error: %v", err)
	}

	failing := newTestGemini(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	})
	if err := failing.TestConnection(context.Background()); err == nil {
		t.Fatal("expected TestConnection failure")
	}
}

func TestExtractJSON(t *testing.T) {
	t.Parallel()

	if got := extractJSON(`prefix {"a": {"b": 1}} suffix`); got != `{"a": {"b": 1}}` {
		t.Fatalf("unexpected extraction: %q", got)
	}
	if got := extractJSON("no json here"); got != "" {
		t.Fatalf("expected empty extraction, got %q", got)
	}
}
