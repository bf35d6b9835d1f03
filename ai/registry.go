package ai

import (
	"net/http"
	"sync"

	"ideascope/internal/errors"
	"ideascope/models"
	"ideascope/ports"
)

// Registry resolves provider kinds to live handles. One handle is constructed
// lazily per kind and cached for connection reuse; resolution performs no
// network I/O. The registry is built once at process start and passed by
// reference into the selector and scheduler.
type Registry struct {
	client  *http.Client
	vault   *Vault
	configs []models.ProviderConfig

	mu      sync.RWMutex
	handles map[models.ProviderKind]ports.ProviderHandle
}

// NewRegistry creates a registry over the given provider configs, ordered by
// ascending priority. API keys stay encrypted until a handle is constructed.
func NewRegistry(client *http.Client, vault *Vault, configs []models.ProviderConfig) *Registry {
	return &Registry{
		client:  client,
		vault:   vault,
		configs: configs,
		handles: make(map[models.ProviderKind]ports.ProviderHandle),
	}
}

// Configs returns the registry's provider configs in priority order.
func (r *Registry) Configs() []models.ProviderConfig {
	return r.configs
}

// Resolve implements ports.ProviderRegistry.
func (r *Registry) Resolve(kind models.ProviderKind) (ports.ProviderHandle, error) {
	r.mu.RLock()
	handle, ok := r.handles[kind]
	r.mu.RUnlock()
	if ok {
		return handle, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if handle, ok := r.handles[kind]; ok {
		return handle, nil
	}

	cfg := r.firstActive(kind)
	if cfg == nil {
		return nil, errors.ProviderUnavailable(string(kind))
	}

	handle, err := r.construct(cfg)
	if err != nil {
		return nil, err
	}
	r.handles[kind] = handle
	return handle, nil
}

// firstActive returns the highest-priority active config of a kind, or nil.
func (r *Registry) firstActive(kind models.ProviderKind) *models.ProviderConfig {
	for i := range r.configs {
		if r.configs[i].Kind == kind && r.configs[i].IsActive {
			return &r.configs[i]
		}
	}
	return nil
}

func (r *Registry) construct(cfg *models.ProviderConfig) (ports.ProviderHandle, error) {
	apiKey, err := r.vault.Decrypt(cfg.EncryptedAPIKey)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to decrypt credential for provider %s", cfg.Name)
	}

	switch cfg.Kind {
	case models.KindOpenAI:
		return NewOpenAIHandle(r.client, apiKey, cfg.BaseURL, cfg.Model), nil
	case models.KindAnthropic:
		return NewAnthropicHandle(r.client, apiKey, cfg.BaseURL, cfg.Model), nil
	case models.KindGemini:
		return NewGeminiHandle(r.client, apiKey, cfg.BaseURL, cfg.Model), nil
	case models.KindAzure:
		return NewAzureHandle(r.client, apiKey, cfg.BaseURL, cfg.Deployment), nil
	case models.KindCustom:
		return NewCustomHandle(r.client, apiKey, cfg.BaseURL, cfg.Model), nil
	}
	return nil, errors.ProviderUnavailable(string(cfg.Kind))
}
