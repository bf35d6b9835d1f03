package models

import (
	"time"

	"github.com/google/uuid"
)

// ProviderKind identifies a family of text-generation providers.
type ProviderKind string

const (
	KindOpenAI    ProviderKind = "openai"
	KindAnthropic ProviderKind = "anthropic"
	KindGemini    ProviderKind = "gemini"
	KindAzure     ProviderKind = "azure_openai"
	KindCustom    ProviderKind = "custom"
)

// Valid reports whether k is one of the known provider families.
func (k ProviderKind) Valid() bool {
	switch k {
	case KindOpenAI, KindAnthropic, KindGemini, KindAzure, KindCustom:
		return true
	}
	return false
}

// ProviderConfig is a logical AI provider entry. Configs are created by an
// administrative surface and are read-only to the engine; only the per-minute
// usage counter (held by the selector, not here) is mutated at runtime.
type ProviderConfig struct {
	ID              uuid.UUID    `json:"id" db:"id"`
	Name            string       `json:"name" db:"name"`
	Kind            ProviderKind `json:"kind" db:"kind"`
	EncryptedAPIKey string       `json:"-" db:"encrypted_api_key"`
	BaseURL         string       `json:"base_url" db:"base_url"`
	Model           string       `json:"model" db:"model"`
	Deployment      string       `json:"deployment" db:"deployment"`
	Priority        int          `json:"priority" db:"priority"`
	RateLimitRPM    int          `json:"rate_limit_rpm" db:"rate_limit_rpm"`
	IsActive        bool         `json:"is_active" db:"is_active"`
	CreatedAt       time.Time    `json:"created_at" db:"created_at"`
}

// DefaultModel returns the model used when a config does not name one.
func (k ProviderKind) DefaultModel() string {
	switch k {
	case KindOpenAI, KindCustom:
		return "gpt-4-turbo-preview"
	case KindAnthropic:
		return "claude-3-opus-20240229"
	case KindGemini:
		return "gemini-1.5-flash"
	case KindAzure:
		return "gpt-4"
	}
	return "gpt-3.5-turbo"
}

// GenerateOptions are the generation parameters passed through to a provider.
type GenerateOptions struct {
	Temperature float64
	MaxTokens   int
	System      string
}

// DefaultGenerateOptions mirrors the parameter defaults of the provider
// configs' admin surface.
func DefaultGenerateOptions() GenerateOptions {
	return GenerateOptions{
		Temperature: 0.7,
		MaxTokens:   2000,
	}
}
