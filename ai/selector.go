package ai

import (
	"context"
	"log"
	"sort"
	"sync"
	"time"

	"ideascope/internal/errors"
	"ideascope/models"
	"ideascope/ports"

	"github.com/google/uuid"
)

// Selector picks a provider for each generation request, trying candidates in
// ascending priority order and falling back on failure. Per-provider usage
// counters enforce the configured requests-per-minute limits and are reset on
// the wall-clock minute boundary by a single maintenance goroutine, never by
// racing workers.
type Selector struct {
	registry *Registry
	timeout  time.Duration

	mu    sync.Mutex
	usage map[uuid.UUID]int
}

// NewSelector creates a selector over the registry's configs. timeout governs
// how long one Generate call may block before the selector moves on.
func NewSelector(registry *Registry, timeout time.Duration) *Selector {
	return &Selector{
		registry: registry,
		timeout:  timeout,
		usage:    make(map[uuid.UUID]int),
	}
}

// StartResetTimer launches the minute-boundary maintenance timer. It returns
// once the goroutine is running and stops when ctx is done.
func (s *Selector) StartResetTimer(ctx context.Context) {
	go func() {
		for {
			now := time.Now()
			next := now.Truncate(time.Minute).Add(time.Minute)
			select {
			case <-ctx.Done():
				return
			case <-time.After(next.Sub(now)):
				s.resetUsage()
			}
		}
	}()
}

func (s *Selector) resetUsage() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id := range s.usage {
		s.usage[id] = 0
	}
}

// UsageCount returns the current-minute usage counter for a provider config.
func (s *Selector) UsageCount(configID uuid.UUID) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.usage[configID]
}

func (s *Selector) atLimit(cfg *models.ProviderConfig) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cfg.RateLimitRPM > 0 && s.usage[cfg.ID] >= cfg.RateLimitRPM
}

func (s *Selector) incrementUsage(cfg *models.ProviderConfig) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.usage[cfg.ID]++
}

// candidates returns the active configs matching the requested kinds, in
// ascending priority order with insertion order breaking ties.
func (s *Selector) candidates(kinds []models.ProviderKind) []*models.ProviderConfig {
	wanted := make(map[models.ProviderKind]bool, len(kinds))
	for _, k := range kinds {
		wanted[k] = true
	}

	configs := s.registry.Configs()
	var out []*models.ProviderConfig
	for i := range configs {
		if configs[i].IsActive && wanted[configs[i].Kind] {
			out = append(out, &configs[i])
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Priority < out[j].Priority
	})
	return out
}

// GenerateWithFallback tries each candidate kind in priority order until one
// succeeds. Rate-limited candidates are skipped. Only the winning provider's
// usage counter is incremented, exactly once. When every candidate fails the
// returned error carries the per-candidate failure reasons.
func (s *Selector) GenerateWithFallback(ctx context.Context, prompt string, opts models.GenerateOptions, kinds []models.ProviderKind) (string, models.ProviderKind, error) {
	cands := s.candidates(kinds)
	if len(cands) == 0 {
		return "", "", errors.ProvidersExhausted([]string{"no active provider configured for requested kinds"})
	}

	var reasons []string
	for _, cfg := range cands {
		if s.atLimit(cfg) {
			log.Printf("[Selector] Provider %s (%s) at rate limit, skipping", cfg.Name, cfg.Kind)
			reasons = append(reasons, string(cfg.Kind)+": rate limited")
			continue
		}

		handle, err := s.registry.Resolve(cfg.Kind)
		if err != nil {
			log.Printf("[Selector] Provider %s unavailable: %v", cfg.Name, err)
			reasons = append(reasons, string(cfg.Kind)+": "+err.Error())
			continue
		}

		text, err := s.generateOnce(ctx, handle, prompt, opts)
		if err != nil {
			log.Printf("[Selector] Provider %s (%s) failed: %v", cfg.Name, cfg.Kind, err)
			reasons = append(reasons, string(cfg.Kind)+": "+err.Error())
			continue
		}

		s.incrementUsage(cfg)
		return text, cfg.Kind, nil
	}

	return "", "", errors.ProvidersExhausted(reasons)
}

func (s *Selector) generateOnce(ctx context.Context, handle ports.ProviderHandle, prompt string, opts models.GenerateOptions) (string, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	start := time.Now()
	text, err := handle.Generate(ctx, prompt, opts)
	if err != nil {
		return "", err
	}
	log.Printf("[Selector] Provider %s responded in %.2fs (%d bytes)",
		handle.Kind(), time.Since(start).Seconds(), len(text))
	return text, nil
}
