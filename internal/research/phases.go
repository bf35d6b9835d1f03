package research

import (
	"fmt"
	"strings"

	"ideascope/models"
)

// Phase is one bounded step of the research workflow.
type Phase string

const (
	PhaseMarketContext           Phase = "market_context"
	PhaseCompetitiveIntelligence Phase = "competitive_intelligence"
	PhaseCustomerUnderstanding   Phase = "customer_understanding"
	PhaseStrategicAssessment     Phase = "strategic_assessment"
	PhaseSynthesis               Phase = "synthesis"
)

// PhasesFor returns the fixed phase sequence for an approach. Each phase
// contributes an equal quantum of progress.
func PhasesFor(approach models.Approach) []Phase {
	switch approach {
	case models.ApproachQuickValidation:
		return []Phase{PhaseMarketContext, PhaseStrategicAssessment}
	case models.ApproachLaunchStrategy:
		return []Phase{
			PhaseMarketContext,
			PhaseCompetitiveIntelligence,
			PhaseCustomerUnderstanding,
			PhaseStrategicAssessment,
			PhaseSynthesis,
		}
	default: // market deep-dive
		return []Phase{
			PhaseMarketContext,
			PhaseCompetitiveIntelligence,
			PhaseCustomerUnderstanding,
			PhaseStrategicAssessment,
		}
	}
}

// OptionCountFor returns how many distinct strategic options the strategic
// assessment phase requests for an approach.
func OptionCountFor(approach models.Approach) int {
	switch approach {
	case models.ApproachQuickValidation:
		return 2
	case models.ApproachLaunchStrategy:
		return 5
	default:
		return 3
	}
}

// PhaseRequest carries everything one phase call needs. One typed request per
// phase rather than a parameter bag: required fields are visible at compile
// time.
type PhaseRequest struct {
	Phase           Phase
	IdeaTitle       string
	IdeaDescription string
	// Context from earlier phases; grows monotonically across the workflow.
	PriorInsights []models.Insight
	PriorOptions  []models.Option
	// OptionIndex/OptionCount select one strategic option out of N on the
	// strategic assessment phase; zero-valued elsewhere.
	OptionIndex int
	OptionCount int
}

// strategicAngles seed distinct strategic options so N calls do not converge
// on the same recommendation.
var strategicAngles = []string{
	"niche market domination",
	"challenging the market leader",
	"innovation leadership",
	"cost leadership",
	"differentiation",
}

const analysisFormat = `Respond with JSON only, in this exact shape:
{"insights": [{"category": "...", "title": "...", "content": "...", "confidence": 0.0}]}
Confidence is your certainty in the insight, between 0 and 1.`

const optionFormat = `Respond with JSON only, in this exact shape:
{"title": "...", "description": "...", "approach": "...",
 "feasibility": 0.0, "impact": 0.0, "risk": 0.0}
Scores are between 0 and 10.`

const synthesisFormat = `Respond with JSON only, in this exact shape:
{"summary": "...", "next_steps": ["..."], "confidence": 0.0}`

// Prompt renders the phase's prompt template.
func (r PhaseRequest) Prompt() string {
	var b strings.Builder

	fmt.Fprintf(&b, "Business idea: %s\n%s\n\n", r.IdeaTitle, r.IdeaDescription)
	if ctx := r.contextBlock(); ctx != "" {
		b.WriteString(ctx)
	}

	switch r.Phase {
	case PhaseMarketContext:
		b.WriteString("Analyze the market context for this idea: market size, growth, ")
		b.WriteString("maturity stage and the key trends that shape the opportunity.\n\n")
		b.WriteString(analysisFormat)
	case PhaseCompetitiveIntelligence:
		b.WriteString("Analyze the competitive landscape: competitive density, barriers ")
		b.WriteString("to entry and realistic angles of differentiation.\n\n")
		b.WriteString(analysisFormat)
	case PhaseCustomerUnderstanding:
		b.WriteString("Analyze the customers: primary segments, their pain points and ")
		b.WriteString("the value propositions that would resonate with each.\n\n")
		b.WriteString(analysisFormat)
	case PhaseStrategicAssessment:
		angle := strategicAngles[r.OptionIndex%len(strategicAngles)]
		fmt.Fprintf(&b, "Propose strategic option %d of %d, focused on %s. ",
			r.OptionIndex+1, r.OptionCount, angle)
		b.WriteString("Ground it in the analysis above and score it honestly.\n\n")
		b.WriteString(optionFormat)
	case PhaseSynthesis:
		b.WriteString("Synthesize the full analysis into a launch recommendation: an ")
		b.WriteString("executive summary and the concrete next steps, in order.\n\n")
		b.WriteString(synthesisFormat)
	}

	return b.String()
}

// System returns the system message for the phase call.
func (r PhaseRequest) System() string {
	return "You are a business research analyst. You produce rigorous, structured market and strategy analysis as JSON."
}

// contextBlock serializes prior phase outputs for inclusion in the prompt.
func (r PhaseRequest) contextBlock() string {
	if len(r.PriorInsights) == 0 && len(r.PriorOptions) == 0 {
		return ""
	}

	var b strings.Builder
	if len(r.PriorInsights) > 0 {
		b.WriteString("Findings so far:\n")
		for _, in := range r.PriorInsights {
			fmt.Fprintf(&b, "- [%s] %s: %s\n", in.Phase, in.Title, in.Content)
		}
	}
	if len(r.PriorOptions) > 0 {
		b.WriteString("Strategic options so far:\n")
		for _, op := range r.PriorOptions {
			fmt.Fprintf(&b, "- %s (overall %.1f/10): %s\n", op.Title, op.OverallScore, op.Description)
		}
	}
	b.WriteString("\n")
	return b.String()
}

// categoryFor maps an analysis phase to the default insight category used
// when the model omits one.
func categoryFor(phase Phase) string {
	switch phase {
	case PhaseMarketContext:
		return "Market Research"
	case PhaseCompetitiveIntelligence:
		return "Competitive Analysis"
	case PhaseCustomerUnderstanding:
		return "Customer Research"
	case PhaseSynthesis:
		return "Synthesis"
	}
	return "Analysis"
}
