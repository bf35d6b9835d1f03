package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"ideascope/models"
)

const (
	anthropicBaseURL    = "https://api.anthropic.com/v1"
	anthropicAPIVersion = "2023-06-01"
)

// AnthropicHandle speaks the Anthropic messages protocol.
type AnthropicHandle struct {
	client  *http.Client
	apiKey  string
	baseURL string
	model   string
}

// NewAnthropicHandle creates a handle for the Anthropic messages API.
func NewAnthropicHandle(client *http.Client, apiKey, baseURL, model string) *AnthropicHandle {
	if baseURL == "" {
		baseURL = anthropicBaseURL
	}
	if model == "" {
		model = models.KindAnthropic.DefaultModel()
	}
	return &AnthropicHandle{
		client:  client,
		apiKey:  apiKey,
		baseURL: baseURL,
		model:   model,
	}
}

// Kind implements ports.ProviderHandle.
func (h *AnthropicHandle) Kind() models.ProviderKind {
	return models.KindAnthropic
}

type anthropicRequest struct {
	Model       string        `json:"model"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature,omitempty"`
	System      string        `json:"system,omitempty"`
	Messages    []chatMessage `json:"messages"`
}

type anthropicResponse struct {
	Content []struct {
		Text string `json:"text"`
	} `json:"content"`
}

// Generate implements ports.ProviderHandle.
func (h *AnthropicHandle) Generate(ctx context.Context, prompt string, opts models.GenerateOptions) (string, error) {
	maxTokens := opts.MaxTokens
	if maxTokens == 0 {
		// max_tokens is mandatory on this API.
		maxTokens = models.DefaultGenerateOptions().MaxTokens
	}

	body, err := json.Marshal(anthropicRequest{
		Model:       h.model,
		MaxTokens:   maxTokens,
		Temperature: opts.Temperature,
		System:      opts.System,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.baseURL+"/messages", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", h.apiKey)
	req.Header.Set("anthropic-version", anthropicAPIVersion)

	resp, err := h.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("anthropic request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("anthropic API error (status %d): %s", resp.StatusCode, TruncateSample(string(raw), 200))
	}

	var parsed anthropicResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", fmt.Errorf("failed to parse anthropic response: %w", err)
	}
	if len(parsed.Content) == 0 {
		return "", fmt.Errorf("no content in anthropic response")
	}
	return parsed.Content[0].Text, nil
}

// ValidateCredential implements ports.ProviderHandle with a minimal call.
func (h *AnthropicHandle) ValidateCredential(ctx context.Context) bool {
	_, err := h.Generate(ctx, "Hi", models.GenerateOptions{MaxTokens: 5})
	return err == nil
}
