package models

import (
	"time"

	"github.com/google/uuid"
)

// Insight is a structured analytical observation produced by one phase.
// Insights are append-only within a session: later phases add more, nothing
// mutates earlier rows.
type Insight struct {
	ID              uuid.UUID `json:"id" db:"id"`
	SessionID       uuid.UUID `json:"session_id" db:"session_id"`
	Phase           string    `json:"phase" db:"phase"`
	Category        string    `json:"category" db:"category"`
	Title           string    `json:"title" db:"title"`
	Content         string    `json:"content" db:"content"`
	ConfidenceScore float64   `json:"confidence_score" db:"confidence_score"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
}

// NewInsight creates an insight for a session phase with the confidence score
// clamped into [0,1].
func NewInsight(sessionID uuid.UUID, phase, category, title, content string, confidence float64) Insight {
	if confidence < 0 {
		confidence = 0
	}
	if confidence > 1 {
		confidence = 1
	}
	return Insight{
		ID:              uuid.New(),
		SessionID:       sessionID,
		Phase:           phase,
		Category:        category,
		Title:           title,
		Content:         content,
		ConfidenceScore: confidence,
		CreatedAt:       time.Now().UTC(),
	}
}

// Option is a strategic alternative produced by the strategic assessment
// phase. Append-only, like Insight.
type Option struct {
	ID               uuid.UUID `json:"id" db:"id"`
	SessionID        uuid.UUID `json:"session_id" db:"session_id"`
	Title            string    `json:"title" db:"title"`
	Description      string    `json:"description" db:"description"`
	Approach         string    `json:"approach" db:"approach"`
	FeasibilityScore float64   `json:"feasibility_score" db:"feasibility_score"`
	ImpactScore      float64   `json:"impact_score" db:"impact_score"`
	RiskScore        float64   `json:"risk_score" db:"risk_score"`
	OverallScore     float64   `json:"overall_score" db:"overall_score"`
	IsRecommended    bool      `json:"is_recommended" db:"is_recommended"`
	CreatedAt        time.Time `json:"created_at" db:"created_at"`
}

// ClampScore bounds a strategic score into the [0,10] range.
func ClampScore(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 10 {
		return 10
	}
	return v
}
