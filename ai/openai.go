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

const openAIDefaultBaseURL = "https://api.openai.com/v1"

// OpenAIHandle speaks the chat-completions protocol. It backs both the
// OpenAI family and the Custom family, which differ only in base URL.
type OpenAIHandle struct {
	client  *http.Client
	kind    models.ProviderKind
	apiKey  string
	baseURL string
	model   string
}

// NewOpenAIHandle creates a handle for the OpenAI chat-completions API.
func NewOpenAIHandle(client *http.Client, apiKey, baseURL, model string) *OpenAIHandle {
	return newChatCompletionsHandle(client, models.KindOpenAI, apiKey, baseURL, model)
}

// NewCustomHandle creates a handle for an OpenAI-compatible endpoint at a
// caller-supplied base URL.
func NewCustomHandle(client *http.Client, apiKey, baseURL, model string) *OpenAIHandle {
	return newChatCompletionsHandle(client, models.KindCustom, apiKey, baseURL, model)
}

func newChatCompletionsHandle(client *http.Client, kind models.ProviderKind, apiKey, baseURL, model string) *OpenAIHandle {
	if baseURL == "" {
		baseURL = openAIDefaultBaseURL
	}
	if model == "" {
		model = kind.DefaultModel()
	}
	return &OpenAIHandle{
		client:  client,
		kind:    kind,
		apiKey:  apiKey,
		baseURL: baseURL,
		model:   model,
	}
}

// Kind implements ports.ProviderHandle.
func (h *OpenAIHandle) Kind() models.ProviderKind {
	return h.kind
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature,omitempty"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Generate implements ports.ProviderHandle.
func (h *OpenAIHandle) Generate(ctx context.Context, prompt string, opts models.GenerateOptions) (string, error) {
	messages := make([]chatMessage, 0, 2)
	if opts.System != "" {
		messages = append(messages, chatMessage{Role: "system", Content: opts.System})
	}
	messages = append(messages, chatMessage{Role: "user", Content: prompt})

	body, err := json.Marshal(chatRequest{
		Model:       h.model,
		Messages:    messages,
		Temperature: opts.Temperature,
		MaxTokens:   opts.MaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+h.apiKey)

	resp, err := h.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%s request failed: %w", h.kind, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%s API error (status %d): %s", h.kind, resp.StatusCode, TruncateSample(string(raw), 200))
	}

	var parsed chatResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", fmt.Errorf("failed to parse %s response: %w", h.kind, err)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("no choices in %s response", h.kind)
	}
	return parsed.Choices[0].Message.Content, nil
}

// ValidateCredential implements ports.ProviderHandle with a minimal call.
func (h *OpenAIHandle) ValidateCredential(ctx context.Context) bool {
	_, err := h.Generate(ctx, "Hi", models.GenerateOptions{MaxTokens: 5})
	return err == nil
}
