package models

import (
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// JSONBMap maps a PostgreSQL JSONB column to map[string]interface{}.
type JSONBMap map[string]interface{}

// Value implements driver.Valuer.
func (j JSONBMap) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

// Scan implements sql.Scanner.
func (j *JSONBMap) Scan(value interface{}) error {
	if value == nil {
		*j = make(JSONBMap)
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		*j = make(JSONBMap)
		return nil
	}

	if len(bytes) == 0 {
		*j = make(JSONBMap)
		return nil
	}

	result := make(JSONBMap)
	if err := json.Unmarshal(bytes, &result); err != nil {
		return err
	}
	*j = result
	return nil
}

// SessionStatus is the lifecycle status of a research session.
type SessionStatus string

const (
	StatusPending    SessionStatus = "pending"
	StatusInProgress SessionStatus = "in_progress"
	StatusCompleted  SessionStatus = "completed"
	StatusFailed     SessionStatus = "failed"
	StatusCancelled  SessionStatus = "cancelled"
)

// Terminal reports whether no further transition may leave the status.
func (s SessionStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusCancelled
}

// Approach selects which research workflow a session runs.
type Approach string

const (
	ApproachQuickValidation Approach = "quick_validation"
	ApproachMarketDeepDive  Approach = "market_deep_dive"
	ApproachLaunchStrategy  Approach = "launch_strategy"
)

// Valid reports whether a is a known research approach.
func (a Approach) Valid() bool {
	switch a {
	case ApproachQuickValidation, ApproachMarketDeepDive, ApproachLaunchStrategy:
		return true
	}
	return false
}

// ResearchSession is the unit of user-facing research work. Status, phase and
// progress are owned exclusively by the single worker running the session's
// task while one is outstanding.
type ResearchSession struct {
	ID                 uuid.UUID      `json:"id" db:"id"`
	UserID             uuid.UUID      `json:"user_id" db:"user_id"`
	IdeaTitle          string         `json:"idea_title" db:"idea_title"`
	IdeaDescription    string         `json:"idea_description" db:"idea_description"`
	Approach           Approach       `json:"approach" db:"approach"`
	Status             SessionStatus  `json:"status" db:"status"`
	CurrentPhase       string         `json:"current_phase" db:"current_phase"`
	Progress           float64        `json:"progress" db:"progress"`
	AnalysisConfidence float64        `json:"analysis_confidence" db:"analysis_confidence"`
	Error              sql.NullString `json:"error,omitempty" db:"error_message"`
	Metadata           JSONBMap       `json:"metadata" db:"metadata"`
	CreatedAt          time.Time      `json:"created_at" db:"created_at"`
	StartedAt          *time.Time     `json:"started_at,omitempty" db:"started_at"`
	CompletedAt        *time.Time     `json:"completed_at,omitempty" db:"completed_at"`
	UpdatedAt          time.Time      `json:"updated_at" db:"updated_at"`
}

// NewResearchSession creates a Pending session for an idea.
func NewResearchSession(userID uuid.UUID, title, description string, approach Approach) *ResearchSession {
	now := time.Now().UTC()
	return &ResearchSession{
		ID:              uuid.New(),
		UserID:          userID,
		IdeaTitle:       title,
		IdeaDescription: description,
		Approach:        approach,
		Status:          StatusPending,
		Progress:        0,
		Metadata:        make(JSONBMap),
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

// Start marks the session InProgress at the given first phase.
func (s *ResearchSession) Start(firstPhase string) {
	now := time.Now().UTC()
	s.Status = StatusInProgress
	s.CurrentPhase = firstPhase
	s.Progress = 0
	s.StartedAt = &now
	s.UpdatedAt = now
}

// Advance records phase progress. Progress never regresses; a stale value is
// ignored rather than written.
func (s *ResearchSession) Advance(phase string, progress float64) {
	if progress < s.Progress {
		progress = s.Progress
	}
	s.CurrentPhase = phase
	s.Progress = progress
	s.UpdatedAt = time.Now().UTC()
}

// Complete marks the session terminal-successful.
func (s *ResearchSession) Complete(confidence float64) {
	now := time.Now().UTC()
	s.Status = StatusCompleted
	s.Progress = 100
	s.AnalysisConfidence = confidence
	s.CompletedAt = &now
	s.UpdatedAt = now
}

// Fail marks the session terminal-failed, preserving the message verbatim.
func (s *ResearchSession) Fail(msg string) {
	now := time.Now().UTC()
	s.Status = StatusFailed
	s.Error = sql.NullString{String: msg, Valid: msg != ""}
	s.CompletedAt = &now
	s.UpdatedAt = now
}

// Cancel marks the session terminal-cancelled at its current checkpoint.
func (s *ResearchSession) Cancel() {
	now := time.Now().UTC()
	s.Status = StatusCancelled
	s.CompletedAt = &now
	s.UpdatedAt = now
}
