package migration

import (
	"context"

	"ideascope/internal/errors"

	"github.com/jmoiron/sqlx"
)

// Migrator defines the interface for database migration operations
type Migrator interface {
	Run(ctx context.Context, db *sqlx.DB) error
	Version() string
}

// MigrationRunner handles database schema migrations
type MigrationRunner struct {
	version string
}

// NewRunner creates a new migration runner
func NewRunner() *MigrationRunner {
	return &MigrationRunner{
		version: "1.0.0",
	}
}

// Version returns the migration version
func (r *MigrationRunner) Version() string {
	return r.version
}

// Run executes all database migrations in the correct order
func (r *MigrationRunner) Run(ctx context.Context, db *sqlx.DB) error {
	if err := r.createUsersTable(ctx, db); err != nil {
		return errors.Wrap(err, "failed to create users table")
	}

	if err := r.createResearchSessionsTable(ctx, db); err != nil {
		return errors.Wrap(err, "failed to create research_sessions table")
	}

	if err := r.createResearchInsightsTable(ctx, db); err != nil {
		return errors.Wrap(err, "failed to create research_insights table")
	}

	if err := r.createResearchOptionsTable(ctx, db); err != nil {
		return errors.Wrap(err, "failed to create research_options table")
	}

	if err := r.createProviderConfigsTable(ctx, db); err != nil {
		return errors.Wrap(err, "failed to create provider_configs table")
	}

	if err := r.createIndexes(ctx, db); err != nil {
		return errors.Wrap(err, "failed to create indexes")
	}

	if err := r.insertDefaultUser(ctx, db); err != nil {
		return errors.Wrap(err, "failed to insert default user")
	}

	return nil
}

func (r *MigrationRunner) createUsersTable(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS users (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			email VARCHAR(255) UNIQUE NOT NULL,
			username VARCHAR(100) UNIQUE,
			is_active BOOLEAN DEFAULT true,
			created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
			updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
		)
	`)
	return err
}

func (r *MigrationRunner) createResearchSessionsTable(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS research_sessions (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			idea_title VARCHAR(500) NOT NULL,
			idea_description TEXT NOT NULL DEFAULT '',
			approach VARCHAR(50) NOT NULL,
			status VARCHAR(50) NOT NULL DEFAULT 'pending',
			current_phase VARCHAR(100) NOT NULL DEFAULT '',
			progress DECIMAL(5,2) NOT NULL DEFAULT 0.0,
			analysis_confidence DECIMAL(4,3) NOT NULL DEFAULT 0.0,
			error_message TEXT,
			metadata JSONB,
			created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
			started_at TIMESTAMP WITH TIME ZONE,
			completed_at TIMESTAMP WITH TIME ZONE,
			updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
		)
	`)
	return err
}

func (r *MigrationRunner) createResearchInsightsTable(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS research_insights (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			session_id UUID NOT NULL REFERENCES research_sessions(id) ON DELETE CASCADE,
			phase VARCHAR(100) NOT NULL,
			category VARCHAR(100) NOT NULL DEFAULT '',
			title VARCHAR(500) NOT NULL,
			content TEXT NOT NULL,
			confidence_score DECIMAL(4,3) NOT NULL DEFAULT 0.0,
			created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
		)
	`)
	return err
}

func (r *MigrationRunner) createResearchOptionsTable(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS research_options (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			session_id UUID NOT NULL REFERENCES research_sessions(id) ON DELETE CASCADE,
			title VARCHAR(500) NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			approach VARCHAR(100) NOT NULL DEFAULT '',
			feasibility_score DECIMAL(4,2) NOT NULL DEFAULT 0.0,
			impact_score DECIMAL(4,2) NOT NULL DEFAULT 0.0,
			risk_score DECIMAL(4,2) NOT NULL DEFAULT 0.0,
			overall_score DECIMAL(4,2) NOT NULL DEFAULT 0.0,
			is_recommended BOOLEAN NOT NULL DEFAULT false,
			created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
		)
	`)
	return err
}

func (r *MigrationRunner) createProviderConfigsTable(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS provider_configs (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			name VARCHAR(255) NOT NULL,
			kind VARCHAR(50) NOT NULL,
			encrypted_api_key TEXT NOT NULL,
			base_url VARCHAR(500) NOT NULL DEFAULT '',
			model VARCHAR(255) NOT NULL DEFAULT '',
			deployment VARCHAR(255) NOT NULL DEFAULT '',
			priority INTEGER NOT NULL DEFAULT 100,
			rate_limit_rpm INTEGER NOT NULL DEFAULT 0,
			is_active BOOLEAN NOT NULL DEFAULT true,
			created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
		)
	`)
	return err
}

func (r *MigrationRunner) createIndexes(ctx context.Context, db *sqlx.DB) error {
	indexes := []string{
		`CREATE INDEX IF NOT EXISTS idx_research_sessions_user_id ON research_sessions(user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_research_sessions_status ON research_sessions(status)`,
		`CREATE INDEX IF NOT EXISTS idx_research_insights_session_id ON research_insights(session_id)`,
		`CREATE INDEX IF NOT EXISTS idx_research_options_session_id ON research_options(session_id)`,
		`CREATE INDEX IF NOT EXISTS idx_provider_configs_active ON provider_configs(is_active, priority)`,
	}

	for _, index := range indexes {
		if _, err := db.ExecContext(ctx, index); err != nil {
			return err
		}
	}
	return nil
}

func (r *MigrationRunner) insertDefaultUser(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO users (id, email, username)
		VALUES ('00000000-0000-0000-0000-000000000001', 'demo@ideascope.local', 'demo')
		ON CONFLICT (email) DO NOTHING
	`)
	return err
}
