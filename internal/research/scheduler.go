package research

import (
	"context"
	"sync"

	"ideascope/internal"
	"ideascope/internal/api"
	"ideascope/internal/errors"
	"ideascope/models"
	"ideascope/ports"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Scheduler accepts workflow-start requests and runs the strategy state
// machine on a bounded pool of workers. It enforces at-most-one concurrent
// execution per session: status and progress of a session are mutated only by
// the single worker holding its task.
type Scheduler struct {
	runner   *StrategyRunner
	sessions ports.SessionRepository
	hub      *api.ProgressHub
	logger   *internal.Logger

	queue   chan *models.ResearchTask
	workers int
	group   *errgroup.Group

	mu        sync.Mutex
	tasks     map[uuid.UUID]*models.ResearchTask
	bySession map[uuid.UUID]*models.ResearchTask
}

// NewScheduler creates a scheduler with the given pool size and queue bound.
func NewScheduler(runner *StrategyRunner, sessions ports.SessionRepository, hub *api.ProgressHub, workers, queueSize int) *Scheduler {
	return &Scheduler{
		runner:    runner,
		sessions:  sessions,
		hub:       hub,
		logger:    internal.NewDefaultLogger(),
		queue:     make(chan *models.ResearchTask, queueSize),
		workers:   workers,
		tasks:     make(map[uuid.UUID]*models.ResearchTask),
		bySession: make(map[uuid.UUID]*models.ResearchTask),
	}
}

// Start launches the worker pool. Workers run until ctx is cancelled; tasks
// already started run their current phase to completion.
func (s *Scheduler) Start(ctx context.Context) {
	s.group, ctx = errgroup.WithContext(ctx)
	for i := 0; i < s.workers; i++ {
		worker := i
		s.group.Go(func() error {
			s.logger.Debug("Worker %d started", worker)
			for {
				select {
				case <-ctx.Done():
					s.logger.Debug("Worker %d stopping", worker)
					return nil
				case task := <-s.queue:
					s.process(ctx, task)
				}
			}
		})
	}
}

// Stop waits for the workers to exit after their context is cancelled.
func (s *Scheduler) Stop() {
	if s.group != nil {
		_ = s.group.Wait()
	}
}

// Enqueue creates a task for a session and queues it FIFO. It rejects with
// SESSION_ALREADY_RUNNING when the session has a non-terminal task
// outstanding. A session whose previous task reached a terminal state may be
// re-enqueued; it gets a fresh task id.
func (s *Scheduler) Enqueue(ctx context.Context, sessionID uuid.UUID) (*models.ResearchTask, error) {
	session, err := s.sessions.LoadSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	if existing, ok := s.bySession[sessionID]; ok && !existing.Terminal() {
		s.mu.Unlock()
		return nil, errors.SessionAlreadyRunning(sessionID.String())
	}

	task := models.NewResearchTask(sessionID)
	task.UpdateStatus(models.StatusPending, "", 0, "Queued")
	s.tasks[task.ID] = task
	s.bySession[sessionID] = task
	s.mu.Unlock()

	select {
	case s.queue <- task:
	default:
		s.mu.Lock()
		delete(s.tasks, task.ID)
		delete(s.bySession, sessionID)
		s.mu.Unlock()
		return nil, errors.New(errors.CodeInternalError, "research queue is full")
	}

	s.logger.Info("Enqueued task %s for session %s (%s)", task.ID, sessionID, session.Approach)
	return task, nil
}

// RunningTask returns the session's outstanding non-terminal task, if any.
func (s *Scheduler) RunningTask(sessionID uuid.UUID) (*models.ResearchTask, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	task, ok := s.bySession[sessionID]
	if !ok || task.Terminal() {
		return nil, false
	}
	return task, true
}

// GetStatus returns the status snapshot for a task.
func (s *Scheduler) GetStatus(taskID uuid.UUID) (models.TaskStatus, error) {
	s.mu.Lock()
	task, ok := s.tasks[taskID]
	s.mu.Unlock()
	if !ok {
		return models.TaskStatus{}, errors.NotFound("task")
	}
	return task.Status(), nil
}

// Cancel requests cooperative cancellation of a task. A phase already in
// flight finishes; the state machine stops at the next phase boundary.
func (s *Scheduler) Cancel(taskID uuid.UUID) error {
	s.mu.Lock()
	task, ok := s.tasks[taskID]
	s.mu.Unlock()
	if !ok {
		return errors.NotFound("task")
	}
	if task.Terminal() {
		return nil
	}
	task.RequestCancel()
	s.logger.Info("Cancellation requested for task %s", taskID)
	return nil
}

// process runs one task's workflow to a terminal status.
func (s *Scheduler) process(ctx context.Context, task *models.ResearchTask) {
	session, err := s.sessions.LoadSession(ctx, task.SessionID)
	if err != nil {
		s.logger.Error("Task %s: failed to load session %s: %v", task.ID, task.SessionID, err)
		task.UpdateStatus(models.StatusFailed, "", 0, "session not found")
		return
	}

	// A task cancelled while still queued never starts the workflow.
	if task.CancelRequested() {
		session.Cancel()
		if err := s.sessions.SaveSession(ctx, session); err != nil {
			s.logger.Error("Task %s: failed to persist cancellation: %v", task.ID, err)
		}
		s.publish(task, session.Status, session.CurrentPhase, session.Progress, "Research cancelled")
		return
	}

	s.logger.Info("Worker picked up task %s (session %s)", task.ID, task.SessionID)

	s.runner.Run(ctx, task, session, func(status models.SessionStatus, phase string, progress float64, message string) {
		s.publish(task, status, phase, progress, message)
	})
}

// publish mirrors a transition into the task snapshot and fans it out to the
// session and task groups.
func (s *Scheduler) publish(task *models.ResearchTask, status models.SessionStatus, phase string, progress float64, message string) {
	task.UpdateStatus(status, phase, progress, message)
	if s.hub != nil {
		s.hub.Publish(api.ProgressEvent{
			SessionID: task.SessionID,
			TaskID:    task.ID,
			Status:    string(status),
			Phase:     phase,
			Progress:  progress,
			Message:   message,
		})
	}
}
