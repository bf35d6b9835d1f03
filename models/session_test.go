package models

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionLifecycle(t *testing.T) {
	session := NewResearchSession(uuid.New(), "Cat and Mouse Game", "A mobile game for cats.", ApproachQuickValidation)

	assert.Equal(t, StatusPending, session.Status)
	assert.Equal(t, float64(0), session.Progress)
	assert.Nil(t, session.StartedAt)

	session.Start("market_context")
	assert.Equal(t, StatusInProgress, session.Status)
	assert.Equal(t, "market_context", session.CurrentPhase)
	require.NotNil(t, session.StartedAt)

	session.Advance("market_context", 50)
	assert.Equal(t, float64(50), session.Progress)

	session.Complete(0.8)
	assert.Equal(t, StatusCompleted, session.Status)
	assert.Equal(t, float64(100), session.Progress)
	assert.InDelta(t, 0.8, session.AnalysisConfidence, 1e-9)
	require.NotNil(t, session.CompletedAt)
}

func TestAdvanceNeverRegresses(t *testing.T) {
	session := NewResearchSession(uuid.New(), "Idea", "", ApproachMarketDeepDive)
	session.Start("market_context")

	session.Advance("competitive_intelligence", 50)
	session.Advance("competitive_intelligence", 25) // stale value ignored
	assert.Equal(t, float64(50), session.Progress)
	assert.Equal(t, "competitive_intelligence", session.CurrentPhase)
}

func TestFailPreservesMessageVerbatim(t *testing.T) {
	session := NewResearchSession(uuid.New(), "Idea", "", ApproachQuickValidation)
	session.Start("market_context")

	msg := `phase market_context returned unparsable response: "I'd rather not"`
	session.Fail(msg)

	assert.Equal(t, StatusFailed, session.Status)
	require.True(t, session.Error.Valid)
	assert.Equal(t, msg, session.Error.String)
}

func TestCancelKeepsCheckpoint(t *testing.T) {
	session := NewResearchSession(uuid.New(), "Idea", "", ApproachQuickValidation)
	session.Start("market_context")
	session.Advance("market_context", 50)

	session.Cancel()
	assert.Equal(t, StatusCancelled, session.Status)
	assert.Equal(t, float64(50), session.Progress)
	require.NotNil(t, session.CompletedAt)
}

func TestStatusTerminal(t *testing.T) {
	assert.False(t, StatusPending.Terminal())
	assert.False(t, StatusInProgress.Terminal())
	assert.True(t, StatusCompleted.Terminal())
	assert.True(t, StatusFailed.Terminal())
	assert.True(t, StatusCancelled.Terminal())
}

func TestApproachValid(t *testing.T) {
	assert.True(t, ApproachQuickValidation.Valid())
	assert.True(t, ApproachMarketDeepDive.Valid())
	assert.True(t, ApproachLaunchStrategy.Valid())
	assert.False(t, Approach("overnight_unicorn").Valid())
}

func TestTaskCancellationFlag(t *testing.T) {
	task := NewResearchTask(uuid.New())
	assert.False(t, task.CancelRequested())

	task.RequestCancel()
	assert.True(t, task.CancelRequested())
}

func TestTaskStatusSnapshot(t *testing.T) {
	task := NewResearchTask(uuid.New())

	task.UpdateStatus(StatusInProgress, "market_context", 0, "Research started")
	status := task.Status()
	assert.Equal(t, task.ID, status.TaskID)
	assert.Equal(t, StatusInProgress, status.Status)
	require.NotNil(t, status.StartedAt)
	assert.Nil(t, status.CompletedAt)
	assert.False(t, task.Terminal())

	task.UpdateStatus(StatusCompleted, "strategic_assessment", 100, "Research completed")
	status = task.Status()
	assert.Equal(t, float64(100), status.Progress)
	require.NotNil(t, status.CompletedAt)
	assert.True(t, task.Terminal())
}
