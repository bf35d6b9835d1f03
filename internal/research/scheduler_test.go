package research

import (
	"context"
	"testing"
	"time"

	"ideascope/internal/api"
	"ideascope/internal/errors"
	"ideascope/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestScheduler(t *testing.T, gen *stubGenerator, workers int) (*Scheduler, *memSessionRepo, *memResearchRepo, *api.ProgressHub) {
	t.Helper()
	sessions := newMemSessionRepo()
	research := &memResearchRepo{}
	runner := NewStrategyRunner(NewPhaseExecutor(gen), sessions, research)
	hub := api.NewProgressHub()
	sched := NewScheduler(runner, sessions, hub, workers, 8)

	ctx, cancel := context.WithCancel(context.Background())
	sched.Start(ctx)
	t.Cleanup(func() {
		cancel()
		sched.Stop()
	})
	return sched, sessions, research, hub
}

func createSession(t *testing.T, sessions *memSessionRepo, approach models.Approach) *models.ResearchSession {
	t.Helper()
	session := models.NewResearchSession(uuid.New(), "Cat and Mouse Game", "A mobile game for cats.", approach)
	require.NoError(t, sessions.CreateSession(context.Background(), session))
	return session
}

func waitForTerminal(t *testing.T, sched *Scheduler, taskID uuid.UUID) models.TaskStatus {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		status, err := sched.GetStatus(taskID)
		require.NoError(t, err)
		if status.Status.Terminal() {
			return status
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("task %s did not reach a terminal status", taskID)
	return models.TaskStatus{}
}

func TestSchedulerRunsSessionToCompletion(t *testing.T) {
	gen := &stubGenerator{}
	sched, sessions, research, hub := newTestScheduler(t, gen, 2)
	session := createSession(t, sessions, models.ApproachQuickValidation)

	events, leave := hub.Subscribe(api.SessionGroup(session.ID))
	defer leave()

	task, err := sched.Enqueue(context.Background(), session.ID)
	require.NoError(t, err)

	status := waitForTerminal(t, sched, task.ID)
	assert.Equal(t, models.StatusCompleted, status.Status)
	assert.Equal(t, float64(100), status.Progress)

	stored := sessions.stored(session.ID)
	assert.Equal(t, models.StatusCompleted, stored.Status)

	insights, err := research.ListInsights(context.Background(), session.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, insights)
	options, err := research.ListOptions(context.Background(), session.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, options)

	// The session group received the terminal event.
	sawCompleted := false
	timeout := time.After(2 * time.Second)
	for !sawCompleted {
		select {
		case ev := <-events:
			if ev.Status == string(models.StatusCompleted) {
				sawCompleted = true
				assert.Equal(t, task.ID, ev.TaskID)
				assert.Equal(t, float64(100), ev.Progress)
			}
		case <-timeout:
			t.Fatal("no completion event on the session group")
		}
	}
}

func TestEnqueueRejectsSecondTaskWhileRunning(t *testing.T) {
	release := make(chan struct{})
	gen := &stubGenerator{}
	gen.respond = func(call int, prompt string) (string, error) {
		<-release
		return cannedResponse(prompt), nil
	}
	sched, sessions, _, _ := newTestScheduler(t, gen, 1)
	session := createSession(t, sessions, models.ApproachQuickValidation)

	first, err := sched.Enqueue(context.Background(), session.ID)
	require.NoError(t, err)

	_, err = sched.Enqueue(context.Background(), session.ID)
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.CodeSessionRunning))

	close(release)
	waitForTerminal(t, sched, first.ID)
}

func TestEnqueueAfterTerminalGetsFreshTask(t *testing.T) {
	gen := &stubGenerator{}
	sched, sessions, _, _ := newTestScheduler(t, gen, 1)
	session := createSession(t, sessions, models.ApproachQuickValidation)

	first, err := sched.Enqueue(context.Background(), session.ID)
	require.NoError(t, err)
	waitForTerminal(t, sched, first.ID)

	second, err := sched.Enqueue(context.Background(), session.ID)
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, session.ID, second.SessionID)

	waitForTerminal(t, sched, second.ID)
	// The first task's snapshot is still queryable under its own id.
	firstStatus, err := sched.GetStatus(first.ID)
	require.NoError(t, err)
	assert.True(t, firstStatus.Status.Terminal())
}

func TestGetStatusUnknownTask(t *testing.T) {
	gen := &stubGenerator{}
	sched, _, _, _ := newTestScheduler(t, gen, 1)

	_, err := sched.GetStatus(uuid.New())
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.CodeNotFound))
}

func TestCancelUnknownTask(t *testing.T) {
	gen := &stubGenerator{}
	sched, _, _, _ := newTestScheduler(t, gen, 1)

	err := sched.Cancel(uuid.New())
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.CodeNotFound))
}

func TestCancelQueuedTaskNeverStarts(t *testing.T) {
	release := make(chan struct{})
	gen := &stubGenerator{}
	gen.respond = func(call int, prompt string) (string, error) {
		<-release
		return cannedResponse(prompt), nil
	}
	// One worker: the second task waits in the queue behind the first.
	sched, sessions, _, _ := newTestScheduler(t, gen, 1)
	blocker := createSession(t, sessions, models.ApproachQuickValidation)
	queued := createSession(t, sessions, models.ApproachQuickValidation)

	blockerTask, err := sched.Enqueue(context.Background(), blocker.ID)
	require.NoError(t, err)
	queuedTask, err := sched.Enqueue(context.Background(), queued.ID)
	require.NoError(t, err)

	require.NoError(t, sched.Cancel(queuedTask.ID))
	close(release)

	waitForTerminal(t, sched, blockerTask.ID)
	status := waitForTerminal(t, sched, queuedTask.ID)
	assert.Equal(t, models.StatusCancelled, status.Status)

	stored := sessions.stored(queued.ID)
	assert.Equal(t, models.StatusCancelled, stored.Status)
	assert.Equal(t, float64(0), stored.Progress)
}

func TestRunningTask(t *testing.T) {
	release := make(chan struct{})
	gen := &stubGenerator{}
	gen.respond = func(call int, prompt string) (string, error) {
		<-release
		return cannedResponse(prompt), nil
	}
	sched, sessions, _, _ := newTestScheduler(t, gen, 1)
	session := createSession(t, sessions, models.ApproachQuickValidation)

	_, running := sched.RunningTask(session.ID)
	assert.False(t, running)

	task, err := sched.Enqueue(context.Background(), session.ID)
	require.NoError(t, err)

	live, running := sched.RunningTask(session.ID)
	require.True(t, running)
	assert.Equal(t, task.ID, live.ID)

	close(release)
	waitForTerminal(t, sched, task.ID)

	_, running = sched.RunningTask(session.ID)
	assert.False(t, running)
}

func TestEnqueueUnknownSession(t *testing.T) {
	gen := &stubGenerator{}
	sched, _, _, _ := newTestScheduler(t, gen, 1)

	_, err := sched.Enqueue(context.Background(), uuid.New())
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.CodeNotFound))
}
