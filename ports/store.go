package ports

import (
	"context"

	"ideascope/models"

	"github.com/google/uuid"
)

// SessionRepository is the durable store for research sessions. It must
// provide read-your-writes consistency within one process.
type SessionRepository interface {
	CreateSession(ctx context.Context, session *models.ResearchSession) error
	LoadSession(ctx context.Context, id uuid.UUID) (*models.ResearchSession, error)
	// SaveSession persists status, phase, progress and terminal fields. The
	// scheduler calls it after every state-machine transition.
	SaveSession(ctx context.Context, session *models.ResearchSession) error
	ListSessions(ctx context.Context, userID uuid.UUID) ([]*models.ResearchSession, error)
}

// ResearchRepository stores phase outputs. Both saves are append-only;
// existing rows are never mutated.
type ResearchRepository interface {
	SaveInsight(ctx context.Context, insight *models.Insight) error
	SaveOption(ctx context.Context, option *models.Option) error
	ListInsights(ctx context.Context, sessionID uuid.UUID) ([]models.Insight, error)
	ListOptions(ctx context.Context, sessionID uuid.UUID) ([]models.Option, error)
}

// ProviderConfigRepository reads provider configurations. Configs are managed
// by an administrative surface and read-only to the engine.
type ProviderConfigRepository interface {
	// ListActive returns active configs ordered by ascending priority, ties
	// broken by insertion order.
	ListActive(ctx context.Context) ([]models.ProviderConfig, error)
}
