package postgres

import (
	"context"

	"ideascope/internal/errors"
	"ideascope/models"
	"ideascope/ports"

	"github.com/jmoiron/sqlx"
)

// ProviderConfigRepositoryImpl implements ProviderConfigRepository for
// PostgreSQL. The engine only reads configs; writes happen through an
// administrative surface.
type ProviderConfigRepositoryImpl struct {
	db *sqlx.DB
}

// NewProviderConfigRepository creates a new PostgreSQL provider config repository
func NewProviderConfigRepository(db *sqlx.DB) ports.ProviderConfigRepository {
	return &ProviderConfigRepositoryImpl{db: db}
}

// ListActive returns active configs ordered by ascending priority, ties broken
// by insertion order
func (r *ProviderConfigRepositoryImpl) ListActive(ctx context.Context) ([]models.ProviderConfig, error) {
	var configs []models.ProviderConfig
	err := r.db.SelectContext(ctx, &configs, `
		SELECT id, name, kind, encrypted_api_key, base_url, model, deployment, priority, rate_limit_rpm, is_active, created_at
		FROM provider_configs
		WHERE is_active = true
		ORDER BY priority ASC, created_at ASC
	`)

	if err != nil {
		return nil, errors.Wrap(err, "failed to list provider configs")
	}
	return configs, nil
}
