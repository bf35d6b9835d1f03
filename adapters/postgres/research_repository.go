package postgres

import (
	"context"

	"ideascope/internal/errors"
	"ideascope/models"
	"ideascope/ports"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// ResearchRepositoryImpl implements ResearchRepository for PostgreSQL.
// Insights and options are append-only: rows are inserted as phases complete
// and are never updated afterward.
type ResearchRepositoryImpl struct {
	db *sqlx.DB
}

// NewResearchRepository creates a new PostgreSQL research repository
func NewResearchRepository(db *sqlx.DB) ports.ResearchRepository {
	return &ResearchRepositoryImpl{db: db}
}

// SaveInsight inserts a phase insight
func (r *ResearchRepositoryImpl) SaveInsight(ctx context.Context, insight *models.Insight) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO research_insights (id, session_id, phase, category, title, content, confidence_score, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, insight.ID, insight.SessionID, insight.Phase, insight.Category, insight.Title,
		insight.Content, insight.ConfidenceScore, insight.CreatedAt)

	if err != nil {
		return errors.Wrap(err, "failed to save insight")
	}
	return nil
}

// SaveOption inserts a strategic option
func (r *ResearchRepositoryImpl) SaveOption(ctx context.Context, option *models.Option) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO research_options (id, session_id, title, description, approach, feasibility_score, impact_score, risk_score, overall_score, is_recommended, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`, option.ID, option.SessionID, option.Title, option.Description, option.Approach,
		option.FeasibilityScore, option.ImpactScore, option.RiskScore, option.OverallScore,
		option.IsRecommended, option.CreatedAt)

	if err != nil {
		return errors.Wrap(err, "failed to save option")
	}
	return nil
}

// ListInsights returns a session's insights in insertion order
func (r *ResearchRepositoryImpl) ListInsights(ctx context.Context, sessionID uuid.UUID) ([]models.Insight, error) {
	var insights []models.Insight
	err := r.db.SelectContext(ctx, &insights, `
		SELECT id, session_id, phase, category, title, content, confidence_score, created_at
		FROM research_insights
		WHERE session_id = $1
		ORDER BY created_at ASC
	`, sessionID)

	if err != nil {
		return nil, errors.Wrap(err, "failed to list insights")
	}
	return insights, nil
}

// ListOptions returns a session's strategic options, best score first
func (r *ResearchRepositoryImpl) ListOptions(ctx context.Context, sessionID uuid.UUID) ([]models.Option, error) {
	var options []models.Option
	err := r.db.SelectContext(ctx, &options, `
		SELECT id, session_id, title, description, approach, feasibility_score, impact_score, risk_score, overall_score, is_recommended, created_at
		FROM research_options
		WHERE session_id = $1
		ORDER BY overall_score DESC, created_at ASC
	`, sessionID)

	if err != nil {
		return nil, errors.Wrap(err, "failed to list options")
	}
	return options, nil
}
