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

const azureAPIVersion = "2024-02-15-preview"

// AzureHandle speaks the Azure OpenAI deployments protocol: same request and
// response bodies as chat-completions, different path and auth header.
type AzureHandle struct {
	client     *http.Client
	apiKey     string
	endpoint   string
	deployment string
}

// NewAzureHandle creates a handle for an Azure OpenAI deployment.
func NewAzureHandle(client *http.Client, apiKey, endpoint, deployment string) *AzureHandle {
	if deployment == "" {
		deployment = models.KindAzure.DefaultModel()
	}
	return &AzureHandle{
		client:     client,
		apiKey:     apiKey,
		endpoint:   endpoint,
		deployment: deployment,
	}
}

// Kind implements ports.ProviderHandle.
func (h *AzureHandle) Kind() models.ProviderKind {
	return models.KindAzure
}

// Generate implements ports.ProviderHandle.
func (h *AzureHandle) Generate(ctx context.Context, prompt string, opts models.GenerateOptions) (string, error) {
	messages := make([]chatMessage, 0, 2)
	if opts.System != "" {
		messages = append(messages, chatMessage{Role: "system", Content: opts.System})
	}
	messages = append(messages, chatMessage{Role: "user", Content: prompt})

	body, err := json.Marshal(chatRequest{
		Model:       h.deployment,
		Messages:    messages,
		Temperature: opts.Temperature,
		MaxTokens:   opts.MaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/openai/deployments/%s/chat/completions?api-version=%s",
		h.endpoint, h.deployment, azureAPIVersion)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("api-key", h.apiKey)

	resp, err := h.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("azure openai request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("azure openai API error (status %d): %s", resp.StatusCode, TruncateSample(string(raw), 200))
	}

	var parsed chatResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", fmt.Errorf("failed to parse azure openai response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("no choices in azure openai response")
	}
	return parsed.Choices[0].Message.Content, nil
}

// ValidateCredential implements ports.ProviderHandle with a minimal call.
func (h *AzureHandle) ValidateCredential(ctx context.Context) bool {
	_, err := h.Generate(ctx, "Hi", models.GenerateOptions{MaxTokens: 5})
	return err == nil
}
