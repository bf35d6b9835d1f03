package container

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"ideascope/adapters/postgres"
	"ideascope/ai"
	"ideascope/internal/api"
	"ideascope/internal/config"
	"ideascope/internal/research"
	"ideascope/models"
	"ideascope/ports"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// Container holds all application dependencies and manages their lifecycle
type Container struct {
	Config *config.Config

	// Infrastructure
	DB *sqlx.DB

	// Repositories (data access layer)
	SessionRepo  ports.SessionRepository
	ResearchRepo ports.ResearchRepository
	ProviderRepo ports.ProviderConfigRepository

	// AI components
	Vault    *ai.Vault
	Registry *ai.Registry
	Selector *ai.Selector

	// Research engine
	Executor  *research.PhaseExecutor
	Runner    *research.StrategyRunner
	Scheduler *research.Scheduler
	Hub       *api.ProgressHub

	cancelBackground context.CancelFunc
}

// New creates a new dependency injection container
func New(cfg *config.Config) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	return &Container{Config: cfg}, nil
}

// InitWithDatabase initializes components that require database access and
// starts the engine's background goroutines.
func (c *Container) InitWithDatabase(ctx context.Context, db *sqlx.DB) error {
	if db == nil {
		return fmt.Errorf("database connection cannot be nil")
	}

	c.DB = db

	if err := db.Ping(); err != nil {
		return fmt.Errorf("database connection test failed: %w", err)
	}

	c.SessionRepo = postgres.NewSessionRepository(db)
	c.ResearchRepo = postgres.NewResearchRepository(db)
	c.ProviderRepo = postgres.NewProviderConfigRepository(db)

	if err := c.initAI(ctx); err != nil {
		return fmt.Errorf("failed to initialize AI components: %w", err)
	}

	c.initEngine(ctx)
	return nil
}

// initAI builds the vault, provider registry and selector. Provider configs
// come from the database; env-supplied API keys fill in any family the
// database does not cover.
func (c *Container) initAI(ctx context.Context) error {
	vault, err := ai.NewVault(c.Config.Engine.MasterKey)
	if err != nil {
		return err
	}
	c.Vault = vault

	configs, err := c.ProviderRepo.ListActive(ctx)
	if err != nil {
		return err
	}

	envConfigs, err := c.envProviderConfigs(configs)
	if err != nil {
		return err
	}
	configs = append(configs, envConfigs...)

	client := &http.Client{Timeout: c.Config.Engine.GenerateTimeout}
	c.Registry = ai.NewRegistry(client, vault, configs)
	c.Selector = ai.NewSelector(c.Registry, c.Config.Engine.GenerateTimeout)
	return nil
}

// envProviderConfigs synthesizes configs from environment variables for
// provider families absent from the database. Keys pass through the vault so
// the registry only ever sees encrypted material.
func (c *Container) envProviderConfigs(existing []models.ProviderConfig) ([]models.ProviderConfig, error) {
	present := make(map[models.ProviderKind]bool, len(existing))
	for _, cfg := range existing {
		present[cfg.Kind] = true
	}

	fallbacks := []struct {
		kind models.ProviderKind
		env  config.ProviderEnv
	}{
		{models.KindOpenAI, c.Config.Providers.OpenAI},
		{models.KindAnthropic, c.Config.Providers.Anthropic},
		{models.KindGemini, c.Config.Providers.Gemini},
		{models.KindAzure, c.Config.Providers.Azure},
		{models.KindCustom, c.Config.Providers.Custom},
	}

	var configs []models.ProviderConfig
	priority := 100
	for _, fb := range fallbacks {
		if present[fb.kind] || fb.env.APIKey == "" {
			continue
		}
		encrypted, err := c.Vault.Encrypt(fb.env.APIKey)
		if err != nil {
			return nil, err
		}
		configs = append(configs, models.ProviderConfig{
			ID:              uuid.New(),
			Name:            string(fb.kind) + " (env)",
			Kind:            fb.kind,
			EncryptedAPIKey: encrypted,
			BaseURL:         fb.env.BaseURL,
			Model:           fb.env.Model,
			Deployment:      fb.env.Deployment,
			Priority:        priority,
			IsActive:        true,
			CreatedAt:       time.Now().UTC(),
		})
		priority++
	}
	return configs, nil
}

// initEngine wires the executor, runner, scheduler and progress hub, then
// starts the worker pool and the selector's usage reset timer.
func (c *Container) initEngine(ctx context.Context) {
	bgCtx, cancel := context.WithCancel(context.Background())
	c.cancelBackground = cancel

	c.Hub = api.NewProgressHub()
	c.Executor = research.NewPhaseExecutor(c.Selector)
	c.Runner = research.NewStrategyRunner(c.Executor, c.SessionRepo, c.ResearchRepo)
	c.Scheduler = research.NewScheduler(c.Runner, c.SessionRepo, c.Hub,
		c.Config.Engine.Workers, c.Config.Engine.QueueSize)

	c.Selector.StartResetTimer(bgCtx)
	c.Scheduler.Start(bgCtx)
}

// Shutdown gracefully shuts down all components
func (c *Container) Shutdown(ctx context.Context) error {
	if c.cancelBackground != nil {
		c.cancelBackground()
	}
	if c.Scheduler != nil {
		c.Scheduler.Stop()
	}
	if c.DB != nil {
		return c.DB.Close()
	}
	return nil
}
