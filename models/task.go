package models

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// ResearchTask is the scheduler's runtime handle for executing a session's
// workflow once. Task identity is distinct from session identity: a session
// that reaches a terminal state may be re-enqueued as a new task.
type ResearchTask struct {
	ID        uuid.UUID
	SessionID uuid.UUID
	CreatedAt time.Time

	mu        sync.RWMutex
	cancelled bool
	status    TaskStatus
}

// TaskStatus is a snapshot of a task's execution, mirrored from the session
// so pollers never touch the session store.
type TaskStatus struct {
	TaskID      uuid.UUID     `json:"task_id"`
	SessionID   uuid.UUID     `json:"session_id"`
	Status      SessionStatus `json:"status"`
	Phase       string        `json:"phase"`
	Progress    float64       `json:"progress"`
	LastMessage string        `json:"last_message"`
	CreatedAt   time.Time     `json:"created_at"`
	StartedAt   *time.Time    `json:"started_at,omitempty"`
	CompletedAt *time.Time    `json:"completed_at,omitempty"`
}

// NewResearchTask creates a queued task for a session.
func NewResearchTask(sessionID uuid.UUID) *ResearchTask {
	now := time.Now().UTC()
	return &ResearchTask{
		ID:        uuid.New(),
		SessionID: sessionID,
		CreatedAt: now,
		status: TaskStatus{
			TaskID:    uuid.Nil, // filled below once ID exists
			SessionID: sessionID,
			Status:    StatusPending,
			CreatedAt: now,
		},
	}
}

// RequestCancel sets the cooperative cancellation flag. The running phase, if
// any, is allowed to finish; the flag is observed at the next phase boundary.
func (t *ResearchTask) RequestCancel() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.cancelled = true
}

// CancelRequested reports whether cancellation has been requested.
func (t *ResearchTask) CancelRequested() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.cancelled
}

// UpdateStatus overwrites the task's status snapshot.
func (t *ResearchTask) UpdateStatus(status SessionStatus, phase string, progress float64, message string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.status.TaskID = t.ID
	t.status.Status = status
	t.status.Phase = phase
	t.status.Progress = progress
	t.status.LastMessage = message

	now := time.Now().UTC()
	if status == StatusInProgress && t.status.StartedAt == nil {
		t.status.StartedAt = &now
	}
	if status.Terminal() && t.status.CompletedAt == nil {
		t.status.CompletedAt = &now
	}
}

// Status returns a copy of the current status snapshot.
func (t *ResearchTask) Status() TaskStatus {
	t.mu.RLock()
	defer t.mu.RUnlock()

	snapshot := t.status
	snapshot.TaskID = t.ID
	return snapshot
}

// Terminal reports whether the task has reached a terminal status.
func (t *ResearchTask) Terminal() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.status.Status.Terminal()
}
