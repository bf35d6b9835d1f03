package research

import (
	"context"
	"math"

	"ideascope/internal"
	"ideascope/internal/errors"
	"ideascope/models"
	"ideascope/ports"

	"github.com/montanaflynn/stats"
)

// ProgressFn receives every state-machine transition: status, current phase,
// progress percentage and a human-readable message.
type ProgressFn func(status models.SessionStatus, phase string, progress float64, message string)

// StrategyRunner owns a session's phase sequence, progress and terminal
// outcome. Phases run strictly in sequence; each phase's prompt depends on
// the previous phase's output.
type StrategyRunner struct {
	executor *PhaseExecutor
	sessions ports.SessionRepository
	research ports.ResearchRepository
	logger   *internal.Logger
}

// NewStrategyRunner creates a runner over the phase executor and stores.
func NewStrategyRunner(executor *PhaseExecutor, sessions ports.SessionRepository, research ports.ResearchRepository) *StrategyRunner {
	return &StrategyRunner{
		executor: executor,
		sessions: sessions,
		research: research,
		logger:   internal.NewDefaultLogger(),
	}
}

// Run drives a session from Pending to a terminal status. The session is
// persisted after every transition. Cancellation is cooperative: the flag is
// observed at phase boundaries only, never mid-phase, so progress never
// regresses below the last completed checkpoint.
func (r *StrategyRunner) Run(ctx context.Context, task *models.ResearchTask, session *models.ResearchSession, notify ProgressFn) {
	phases := PhasesFor(session.Approach)
	total := len(phases)

	session.Start(string(phases[0]))
	r.persist(ctx, session)
	notify(session.Status, session.CurrentPhase, session.Progress, "Research started")

	accumulated := &PhaseResult{}

	for k, phase := range phases {
		if task.CancelRequested() {
			session.Cancel()
			r.persist(ctx, session)
			r.logger.Info("Session %s cancelled at %.0f%% before phase %s", session.ID, session.Progress, phase)
			notify(session.Status, session.CurrentPhase, session.Progress, "Research cancelled")
			return
		}

		session.Advance(string(phase), session.Progress)
		r.persist(ctx, session)
		notify(session.Status, session.CurrentPhase, session.Progress, "Running "+string(phase))

		result, err := r.runPhaseWithRetry(ctx, session, phase, accumulated)
		if err != nil {
			session.Fail(err.Error())
			r.persist(ctx, session)
			r.logger.Error("Session %s failed in phase %s: %v", session.ID, phase, err)
			notify(session.Status, session.CurrentPhase, session.Progress, err.Error())
			return
		}

		// Insights and options accumulated before a later failure are kept;
		// partial results are never discarded.
		r.persistResults(ctx, result)
		accumulated.Insights = append(accumulated.Insights, result.Insights...)
		accumulated.Options = append(accumulated.Options, result.Options...)

		progress := progressAfter(k+1, total)
		session.Advance(string(phase), progress)
		r.persist(ctx, session)
		notify(session.Status, session.CurrentPhase, session.Progress, "Completed "+string(phase))
	}

	session.Complete(confidenceOf(accumulated.Insights))
	r.persist(ctx, session)
	r.logger.Info("Session %s completed: %d insights, %d options",
		session.ID, len(accumulated.Insights), len(accumulated.Options))
	notify(session.Status, session.CurrentPhase, session.Progress, "Research completed")
}

// runPhaseWithRetry retries a phase exactly once on a parse error. Provider
// exhaustion is terminal immediately: the selector already rotated through
// every fallback candidate.
func (r *StrategyRunner) runPhaseWithRetry(ctx context.Context, session *models.ResearchSession, phase Phase, prior *PhaseResult) (*PhaseResult, error) {
	result, err := r.executor.RunPhase(ctx, session, phase, prior)
	if err == nil {
		return result, nil
	}
	if !errors.HasCode(err, errors.CodePhaseParse) {
		return nil, err
	}

	r.logger.Warn("Phase %s returned unparsable output for session %s, retrying once: %v", phase, session.ID, err)
	return r.executor.RunPhase(ctx, session, phase, prior)
}

// progressAfter returns the progress checkpoint once completed of total
// phases are done: round(100*k/N).
func progressAfter(completed, total int) float64 {
	return math.Round(100 * float64(completed) / float64(total))
}

// confidenceOf aggregates insight confidence scores into the session-level
// analysis confidence.
func confidenceOf(insights []models.Insight) float64 {
	if len(insights) == 0 {
		return 0
	}
	scores := make([]float64, 0, len(insights))
	for _, in := range insights {
		scores = append(scores, in.ConfidenceScore)
	}
	mean, err := stats.Mean(scores)
	if err != nil {
		return 0
	}
	return mean
}

func (r *StrategyRunner) persist(ctx context.Context, session *models.ResearchSession) {
	if err := r.sessions.SaveSession(ctx, session); err != nil {
		r.logger.Error("Failed to persist session %s: %v", session.ID, err)
	}
}

func (r *StrategyRunner) persistResults(ctx context.Context, result *PhaseResult) {
	for i := range result.Insights {
		if err := r.research.SaveInsight(ctx, &result.Insights[i]); err != nil {
			r.logger.Error("Failed to persist insight %s: %v", result.Insights[i].ID, err)
		}
	}
	for i := range result.Options {
		if err := r.research.SaveOption(ctx, &result.Options[i]); err != nil {
			r.logger.Error("Failed to persist option %s: %v", result.Options[i].ID, err)
		}
	}
}
