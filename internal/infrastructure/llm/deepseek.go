package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"carnewsbot/internal/config"
	"carnewsbot/internal/domain"
	"carnewsbot/internal/ports"
)

// ErrEnrichment marks any failure of the generative-text call: transport
// errors, non-JSON output, or a response missing required fields. Callers
// fall back to the un-enriched candidate; partial enrichment is never
// persisted.
var ErrEnrichment = errors.New("enrichment failed")

const (
	summaryMaxTokens  = 500
	generateMaxTokens = 2000
	temperature       = 0.7
)

// requiredFields must all be present and non-empty in a Generate response.
var requiredFields = []string{"title", "excerpt", "content", "meta_title", "meta_description", "keywords", "summary"}

// Client talks to a DeepSeek (OpenAI-compatible) chat completions API.
// Calls are serialized through a dedicated limiter so bursts of candidates
// do not trip upstream throttling.
type Client struct {
	endpoint       string
	model          string
	apiKey         string
	summaryPrompt  string
	generatePrompt string
	limiter        *rate.Limiter
	httpClient     *http.Client
}

var _ ports.Enricher = (*Client)(nil)

// NewClient builds a client from configuration.
func NewClient(cfg config.DeepSeekConfig) *Client {
	limiter := rate.NewLimiter(rate.Inf, 1)
	if cfg.Delay.Std() > 0 {
		limiter = rate.NewLimiter(rate.Every(cfg.Delay.Std()), 1)
	}

	timeout := cfg.Timeout.Std()
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		endpoint:       cfg.Endpoint,
		model:          cfg.Model,
		apiKey:         cfg.APIKey,
		summaryPrompt:  cfg.SummaryPrompt,
		generatePrompt: cfg.GeneratePrompt,
		limiter:        limiter,
		httpClient:     &http.Client{Timeout: timeout},
	}
}

// Summarize asks for a short editorial summary of the article text.
func (c *Client) Summarize(ctx context.Context, content string) (string, error) {
	raw, err := c.complete(ctx, c.summaryPrompt, content, summaryMaxTokens)
	if err != nil {
		return "", err
	}

	summary := strings.TrimSpace(raw)
	if summary == "" {
		return "", fmt.Errorf("%w: empty summary", ErrEnrichment)
	}
	return summary, nil
}

// Generate asks for a full regenerated field set. The model is instructed
// to answer with a JSON object; anything that does not parse, or parses
// without every required field, is a hard failure.
func (c *Client) Generate(ctx context.Context, content string) (domain.Enrichment, error) {
	raw, err := c.complete(ctx, c.generatePrompt, content, generateMaxTokens)
	if err != nil {
		return domain.Enrichment{}, err
	}

	var payload struct {
		Title           string   `json:"title"`
		Excerpt         string   `json:"excerpt"`
		Content         string   `json:"content"`
		MetaTitle       string   `json:"meta_title"`
		MetaDescription string   `json:"meta_description"`
		Keywords        []string `json:"keywords"`
		Summary         string   `json:"summary"`
	}
	if err := json.Unmarshal([]byte(stripCodeFence(raw)), &payload); err != nil {
		return domain.Enrichment{}, fmt.Errorf("%w: response is not JSON: %v", ErrEnrichment, err)
	}

	present := map[string]bool{
		"title":            payload.Title != "",
		"excerpt":          payload.Excerpt != "",
		"content":          payload.Content != "",
		"meta_title":       payload.MetaTitle != "",
		"meta_description": payload.MetaDescription != "",
		"keywords":         len(payload.Keywords) > 0,
		"summary":          payload.Summary != "",
	}
	for _, field := range requiredFields {
		if !present[field] {
			return domain.Enrichment{}, fmt.Errorf("%w: missing required field %s", ErrEnrichment, field)
		}
	}

	return domain.Enrichment{
		Title:           payload.Title,
		Excerpt:         payload.Excerpt,
		Content:         payload.Content,
		MetaTitle:       payload.MetaTitle,
		MetaDescription: payload.MetaDescription,
		Keywords:        payload.Keywords,
		Summary:         payload.Summary,
	}, nil
}

// complete posts one chat completion and returns the assistant message.
func (c *Client) complete(ctx context.Context, systemPrompt, userContent string, maxTokens int) (string, error) {
	if c.apiKey == "" || c.endpoint == "" || c.model == "" {
		return "", fmt.Errorf("%w: client misconfigured", ErrEnrichment)
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("%w: %v", ErrEnrichment, err)
	}

	body, err := json.Marshal(map[string]any{
		"model": c.model,
		"messages": []map[string]string{
			{"role": "system", "content": systemPrompt},
			{"role": "user", "content": userContent},
		},
		"temperature": temperature,
		"max_tokens":  maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("marshal completion payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrEnrichment, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", fmt.Errorf("%w: %s: %s", ErrEnrichment, resp.Status, strings.TrimSpace(string(detail)))
	}

	var completion struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&completion); err != nil {
		return "", fmt.Errorf("%w: decode response: %v", ErrEnrichment, err)
	}
	if len(completion.Choices) == 0 {
		return "", fmt.Errorf("%w: no choices in response", ErrEnrichment)
	}

	return completion.Choices[0].Message.Content, nil
}

// stripCodeFence unwraps ```json ... ``` blocks some models insist on.
func stripCodeFence(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	return strings.TrimSpace(trimmed)
}
