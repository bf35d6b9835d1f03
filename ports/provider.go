package ports

import (
	"context"

	"ideascope/models"
)

// ProviderHandle is the capability contract every provider family satisfies.
// Generate is the only suspension point in the engine; implementations must be
// safe for concurrent calls.
type ProviderHandle interface {
	// Generate sends prompt text plus generation parameters and returns the
	// provider's text response.
	Generate(ctx context.Context, prompt string, opts models.GenerateOptions) (string, error)

	// ValidateCredential performs a minimal call to check the stored key.
	ValidateCredential(ctx context.Context) bool

	// Kind identifies the provider family backing this handle.
	Kind() models.ProviderKind
}

// ProviderRegistry resolves a provider kind to a live handle, with connection
// reuse. Resolution itself performs no network I/O.
type ProviderRegistry interface {
	Resolve(kind models.ProviderKind) (ProviderHandle, error)
}
