package postgres

import (
	"context"
	"database/sql"

	"ideascope/internal/errors"
	"ideascope/models"
	"ideascope/ports"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// SessionRepositoryImpl implements SessionRepository for PostgreSQL
type SessionRepositoryImpl struct {
	db *sqlx.DB
}

// NewSessionRepository creates a new PostgreSQL session repository
func NewSessionRepository(db *sqlx.DB) ports.SessionRepository {
	return &SessionRepositoryImpl{db: db}
}

// CreateSession inserts a new research session
func (r *SessionRepositoryImpl) CreateSession(ctx context.Context, session *models.ResearchSession) error {
	// JSONBMap implements driver.Valuer, so it will be automatically converted
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO research_sessions (id, user_id, idea_title, idea_description, approach, status, current_phase, progress, analysis_confidence, metadata, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`, session.ID, session.UserID, session.IdeaTitle, session.IdeaDescription, session.Approach,
		session.Status, session.CurrentPhase, session.Progress, session.AnalysisConfidence,
		session.Metadata, session.CreatedAt, session.UpdatedAt)

	if err != nil {
		return errors.Wrap(err, "failed to create research session")
	}
	return nil
}

// LoadSession retrieves a session by ID
func (r *SessionRepositoryImpl) LoadSession(ctx context.Context, id uuid.UUID) (*models.ResearchSession, error) {
	var session models.ResearchSession
	err := r.db.GetContext(ctx, &session, `
		SELECT id, user_id, idea_title, idea_description, approach, status, current_phase, progress, analysis_confidence, error_message, metadata, created_at, started_at, completed_at, updated_at
		FROM research_sessions
		WHERE id = $1
	`, id)

	if err == sql.ErrNoRows {
		return nil, errors.NotFound("research session")
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to load research session")
	}

	return &session, nil
}

// SaveSession persists status, phase, progress and terminal fields
func (r *SessionRepositoryImpl) SaveSession(ctx context.Context, session *models.ResearchSession) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE research_sessions
		SET status = $2, current_phase = $3, progress = $4, analysis_confidence = $5,
		    error_message = $6, started_at = $7, completed_at = $8, updated_at = $9
		WHERE id = $1
	`, session.ID, session.Status, session.CurrentPhase, session.Progress,
		session.AnalysisConfidence, session.Error, session.StartedAt, session.CompletedAt,
		session.UpdatedAt)

	if err != nil {
		return errors.Wrap(err, "failed to save research session")
	}
	return nil
}

// ListSessions returns a user's sessions, newest first
func (r *SessionRepositoryImpl) ListSessions(ctx context.Context, userID uuid.UUID) ([]*models.ResearchSession, error) {
	var sessions []*models.ResearchSession
	err := r.db.SelectContext(ctx, &sessions, `
		SELECT id, user_id, idea_title, idea_description, approach, status, current_phase, progress, analysis_confidence, error_message, metadata, created_at, started_at, completed_at, updated_at
		FROM research_sessions
		WHERE user_id = $1
		ORDER BY created_at DESC
	`, userID)

	if err != nil {
		return nil, errors.Wrap(err, "failed to list research sessions")
	}
	return sessions, nil
}
