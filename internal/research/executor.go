package research

import (
	"context"
	"log"
	"time"

	"ideascope/ai"
	"ideascope/internal/errors"
	"ideascope/models"

	"github.com/google/uuid"
	"github.com/montanaflynn/stats"
)

// generator is the slice of the provider selector the executor needs.
type generator interface {
	GenerateWithFallback(ctx context.Context, prompt string, opts models.GenerateOptions, kinds []models.ProviderKind) (string, models.ProviderKind, error)
}

// allKinds is the candidate order handed to the selector; the selector
// filters it down to configured providers by priority.
var allKinds = []models.ProviderKind{
	models.KindOpenAI,
	models.KindAnthropic,
	models.KindGemini,
	models.KindAzure,
	models.KindCustom,
}

// PhaseResult is the structured output of one phase.
type PhaseResult struct {
	Insights []models.Insight
	Options  []models.Option
	RawText  string
	UsedKind models.ProviderKind
}

// PhaseExecutor runs one analysis phase through the provider selector and
// parses the response into typed insight/option records.
type PhaseExecutor struct {
	selector generator
	opts     models.GenerateOptions
}

// NewPhaseExecutor creates a phase executor over the provider selector.
func NewPhaseExecutor(selector generator) *PhaseExecutor {
	return &PhaseExecutor{
		selector: selector,
		opts:     models.DefaultGenerateOptions(),
	}
}

// Typed payloads the model is asked to produce, one shape per phase family.
type insightPayload struct {
	Category   string  `json:"category"`
	Title      string  `json:"title"`
	Content    string  `json:"content"`
	Confidence float64 `json:"confidence"`
}

type analysisPayload struct {
	Insights []insightPayload `json:"insights"`
}

type optionPayload struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Approach    string  `json:"approach"`
	Feasibility float64 `json:"feasibility"`
	Impact      float64 `json:"impact"`
	Risk        float64 `json:"risk"`
}

type synthesisPayload struct {
	Summary    string   `json:"summary"`
	NextSteps  []string `json:"next_steps"`
	Confidence float64  `json:"confidence"`
}

// RunPhase executes one phase for a session. The strategic assessment phase
// issues one call per requested option; every other phase issues exactly one.
// A response that cannot be parsed raises a phase parse error naming the
// phase with a truncated sample of the offending output.
func (e *PhaseExecutor) RunPhase(ctx context.Context, session *models.ResearchSession, phase Phase, prior *PhaseResult) (*PhaseResult, error) {
	if phase == PhaseStrategicAssessment {
		return e.runStrategicAssessment(ctx, session, prior)
	}
	return e.runAnalysis(ctx, session, phase, prior)
}

func (e *PhaseExecutor) runAnalysis(ctx context.Context, session *models.ResearchSession, phase Phase, prior *PhaseResult) (*PhaseResult, error) {
	req := PhaseRequest{
		Phase:           phase,
		IdeaTitle:       session.IdeaTitle,
		IdeaDescription: session.IdeaDescription,
		PriorInsights:   prior.Insights,
		PriorOptions:    prior.Options,
	}

	opts := e.opts
	opts.System = req.System()
	raw, usedKind, err := e.selector.GenerateWithFallback(ctx, req.Prompt(), opts, allKinds)
	if err != nil {
		return nil, err
	}

	result := &PhaseResult{RawText: raw, UsedKind: usedKind}

	if phase == PhaseSynthesis {
		var payload synthesisPayload
		if err := ai.DecodeInto(raw, &payload); err != nil || payload.Summary == "" {
			return nil, errors.PhaseParseError(string(phase), ai.TruncateSample(raw, 160), err)
		}
		content := payload.Summary
		for _, step := range payload.NextSteps {
			content += "\n- " + step
		}
		result.Insights = append(result.Insights, models.NewInsight(
			session.ID, string(phase), categoryFor(phase), "Launch Recommendation", content, payload.Confidence))
		return result, nil
	}

	var payload analysisPayload
	if err := ai.DecodeInto(raw, &payload); err != nil {
		return nil, errors.PhaseParseError(string(phase), ai.TruncateSample(raw, 160), err)
	}
	if len(payload.Insights) == 0 {
		return nil, errors.PhaseParseError(string(phase), ai.TruncateSample(raw, 160), nil)
	}

	for _, in := range payload.Insights {
		category := in.Category
		if category == "" {
			category = categoryFor(phase)
		}
		result.Insights = append(result.Insights, models.NewInsight(
			session.ID, string(phase), category, in.Title, in.Content, in.Confidence))
	}

	log.Printf("[PhaseExecutor] Phase %s produced %d insights via %s", phase, len(result.Insights), usedKind)
	return result, nil
}

// runStrategicAssessment requests N distinct strategic options, one call per
// option so each gets its own strategic angle.
func (e *PhaseExecutor) runStrategicAssessment(ctx context.Context, session *models.ResearchSession, prior *PhaseResult) (*PhaseResult, error) {
	count := OptionCountFor(session.Approach)
	result := &PhaseResult{}

	for i := 0; i < count; i++ {
		req := PhaseRequest{
			Phase:           PhaseStrategicAssessment,
			IdeaTitle:       session.IdeaTitle,
			IdeaDescription: session.IdeaDescription,
			PriorInsights:   prior.Insights,
			PriorOptions:    append(prior.Options, result.Options...),
			OptionIndex:     i,
			OptionCount:     count,
		}

		opts := e.opts
		opts.System = req.System()
		raw, usedKind, err := e.selector.GenerateWithFallback(ctx, req.Prompt(), opts, allKinds)
		if err != nil {
			return nil, err
		}

		var payload optionPayload
		if err := ai.DecodeInto(raw, &payload); err != nil || payload.Title == "" {
			return nil, errors.PhaseParseError(string(PhaseStrategicAssessment), ai.TruncateSample(raw, 160), err)
		}

		result.Options = append(result.Options, buildOption(session, payload, i == 0))
		result.RawText = raw
		result.UsedKind = usedKind
	}

	log.Printf("[PhaseExecutor] Strategic assessment produced %d options for session %s", count, session.ID)
	return result, nil
}

func buildOption(session *models.ResearchSession, payload optionPayload, recommended bool) models.Option {
	feasibility := models.ClampScore(payload.Feasibility)
	impact := models.ClampScore(payload.Impact)
	risk := models.ClampScore(payload.Risk)

	// Overall score averages the upside dimensions with inverted risk.
	overall, err := stats.Mean([]float64{feasibility, impact, 10 - risk})
	if err != nil {
		overall = 0
	}

	return models.Option{
		ID:               uuid.New(),
		SessionID:        session.ID,
		Title:            payload.Title,
		Description:      payload.Description,
		Approach:         payload.Approach,
		FeasibilityScore: feasibility,
		ImpactScore:      impact,
		RiskScore:        risk,
		OverallScore:     overall,
		IsRecommended:    recommended,
		CreatedAt:        time.Now().UTC(),
	}
}
