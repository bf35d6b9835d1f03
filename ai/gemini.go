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

const geminiBaseURL = "https://generativelanguage.googleapis.com/v1beta"

// GeminiHandle speaks the Gemini generateContent protocol.
type GeminiHandle struct {
	client  *http.Client
	apiKey  string
	baseURL string
	model   string
}

// NewGeminiHandle creates a handle for the Gemini API.
func NewGeminiHandle(client *http.Client, apiKey, baseURL, model string) *GeminiHandle {
	if baseURL == "" {
		baseURL = geminiBaseURL
	}
	if model == "" {
		model = models.KindGemini.DefaultModel()
	}
	return &GeminiHandle{
		client:  client,
		apiKey:  apiKey,
		baseURL: baseURL,
		model:   model,
	}
}

// Kind implements ports.ProviderHandle.
func (h *GeminiHandle) Kind() models.ProviderKind {
	return models.KindGemini
}

type geminiRequest struct {
	Contents         []geminiContent        `json:"contents"`
	GenerationConfig geminiGenerationConfig `json:"generationConfig"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiGenerationConfig struct {
	Temperature     float64 `json:"temperature,omitempty"`
	MaxOutputTokens int     `json:"maxOutputTokens,omitempty"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []geminiPart `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// Generate implements ports.ProviderHandle.
func (h *GeminiHandle) Generate(ctx context.Context, prompt string, opts models.GenerateOptions) (string, error) {
	text := prompt
	if opts.System != "" {
		text = opts.System + "\n\n" + prompt
	}

	body, err := json.Marshal(geminiRequest{
		Contents: []geminiContent{{Parts: []geminiPart{{Text: text}}}},
		GenerationConfig: geminiGenerationConfig{
			Temperature:     opts.Temperature,
			MaxOutputTokens: opts.MaxTokens,
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", h.baseURL, h.model, h.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("gemini request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("gemini API error (status %d): %s", resp.StatusCode, TruncateSample(string(raw), 200))
	}

	var parsed geminiResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", fmt.Errorf("failed to parse gemini response: %w", err)
	}
	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("no candidates in gemini response")
	}
	return parsed.Candidates[0].Content.Parts[0].Text, nil
}

// ValidateCredential implements ports.ProviderHandle with a minimal call.
func (h *GeminiHandle) ValidateCredential(ctx context.Context) bool {
	_, err := h.Generate(ctx, "Hi", models.GenerateOptions{MaxTokens: 5})
	return err == nil
}
