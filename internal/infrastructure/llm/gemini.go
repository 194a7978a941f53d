package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"researchlens/internal/config"
	"researchlens/internal/domain"
	"researchlens/internal/ports"
)

// GeminiClient implements ports.ChatModel against the Gemini REST API.
type GeminiClient struct {
	baseURL     string
	model       string
	apiKey      string
	temperature float64
	httpClient  *http.Client
}

var _ ports.ChatModel = (*GeminiClient)(nil)

// NewGeminiClient builds a client from configuration.
func NewGeminiClient(cfg config.GeminiConfig) *GeminiClient {
	return &GeminiClient{
		baseURL:     strings.TrimSuffix(cfg.BaseURL, "/"),
		model:       cfg.Model,
		apiKey:      cfg.APIKey,
		temperature: cfg.Temperature,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

type generateRequest struct {
	Contents         []content         `json:"contents"`
	GenerationConfig *generationConfig `json:"generationConfig,omitempty"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generationConfig struct {
	Temperature      float64 `json:"temperature"`
	ResponseMIMEType string  `json:"responseMimeType,omitempty"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []part `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	Error *apiError `json:"error,omitempty"`
}

type apiError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Generate sends the prompt and returns plain text output.
func (c *GeminiClient) Generate(ctx context.Context, prompt string) (string, error) {
	return c.generate(ctx, prompt, "")
}

// GenerateJSON requests a JSON-mode response and unmarshals it into out.
// Model output wrapped in markdown fences or surrounding prose is trimmed to
// the outermost JSON object before unmarshaling.
func (c *GeminiClient) GenerateJSON(ctx context.Context, prompt string, out any) error {
	raw, err := c.generate(ctx, prompt, "application/json")
	if err != nil {
		return err
	}

	trimmed := extractJSON(raw)
	if trimmed == "" {
		return fmt.Errorf("no JSON object in model output: %w", domain.ErrSummarizationUnavailable)
	}

	if err := json.Unmarshal([]byte(trimmed), out); err != nil {
		return fmt.Errorf("unmarshal model output: %v: %w", err, domain.ErrSummarizationUnavailable)
	}
	return nil
}

// TestConnection verifies credentials with a minimal generation round trip.
func (c *GeminiClient) TestConnection(ctx context.Context) error {
	_, err := c.generate(ctx, "Reply with the single word OK.", "")
	return err
}

func (c *GeminiClient) generate(ctx context.Context, prompt, mimeType string) (string, error) {
	if c == nil || c.apiKey == "" || c.model == "" || c.baseURL == "" {
		return "", fmt.Errorf("gemini client misconfigured: %w", domain.ErrSummarizationUnavailable)
	}

	payload := generateRequest{
		Contents: []content{
			{Role: "user", Parts: []part{{Text: prompt}}},
		},
		GenerationConfig: &generationConfig{
			Temperature:      c.temperature,
			ResponseMIMEType: mimeType,
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal gemini payload: %w", err)
	}

	endpoint := fmt.Sprintf("%s/models/%s:generateContent", c.baseURL, c.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("x-goog-api-key", c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("gemini request: %v: %w", err, domain.ErrSummarizationUnavailable)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return "", fmt.Errorf("read gemini response: %v: %w", err, domain.ErrSummarizationUnavailable)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("gemini error %s: %s: %w",
			resp.Status, compactError(raw), domain.ErrSummarizationUnavailable)
	}

	var parsed generateResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", fmt.Errorf("decode gemini response: %v: %w", err, domain.ErrSummarizationUnavailable)
	}
	if parsed.Error != nil {
		return "", fmt.Errorf("gemini error %d: %s: %w",
			parsed.Error.Code, parsed.Error.Message, domain.ErrSummarizationUnavailable)
	}
	if len(parsed.Candidates) == 0 {
		return "", fmt.Errorf("gemini returned no candidates: %w", domain.ErrSummarizationUnavailable)
	}

	var sb strings.Builder
	for _, p := range parsed.Candidates[0].Content.Parts {
		sb.WriteString(p.Text)
	}

	text := strings.TrimSpace(sb.String())
	if text == "" {
		return "", fmt.Errorf("gemini returned empty text: %w", domain.ErrSummarizationUnavailable)
	}
	return text, nil
}

// extractJSON trims model output to the outermost {...} span.
func extractJSON(raw string) string {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end <= start {
		return ""
	}
	return raw[start : end+1]
}

func compactError(raw []byte) string {
	var parsed struct {
		Error *apiError `json:"error"`
	}
	if err := json.Unmarshal(raw, &parsed); err == nil && parsed.Error != nil {
		return parsed.Error.Message
	}
	return strings.TrimSpace(string(raw))
}
