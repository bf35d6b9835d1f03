package research

import (
	"strings"
	"testing"

	"ideascope/models"

	"github.com/stretchr/testify/assert"
)

func TestPhasesFor(t *testing.T) {
	tests := []struct {
		approach models.Approach
		phases   []Phase
	}{
		{models.ApproachQuickValidation, []Phase{PhaseMarketContext, PhaseStrategicAssessment}},
		{models.ApproachMarketDeepDive, []Phase{
			PhaseMarketContext, PhaseCompetitiveIntelligence,
			PhaseCustomerUnderstanding, PhaseStrategicAssessment,
		}},
		{models.ApproachLaunchStrategy, []Phase{
			PhaseMarketContext, PhaseCompetitiveIntelligence,
			PhaseCustomerUnderstanding, PhaseStrategicAssessment, PhaseSynthesis,
		}},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.phases, PhasesFor(tt.approach), "approach %s", tt.approach)
	}
}

func TestOptionCountFor(t *testing.T) {
	assert.Equal(t, 2, OptionCountFor(models.ApproachQuickValidation))
	assert.Equal(t, 3, OptionCountFor(models.ApproachMarketDeepDive))
	assert.Equal(t, 5, OptionCountFor(models.ApproachLaunchStrategy))
}

func TestPromptCarriesIdeaAndPriorFindings(t *testing.T) {
	req := PhaseRequest{
		Phase:           PhaseCompetitiveIntelligence,
		IdeaTitle:       "Cat and Mouse Game",
		IdeaDescription: "A mobile game for cats.",
		PriorInsights: []models.Insight{
			{Phase: string(PhaseMarketContext), Title: "Large TAM", Content: "Pet tech is growing."},
		},
	}

	prompt := req.Prompt()
	assert.Contains(t, prompt, "Cat and Mouse Game")
	assert.Contains(t, prompt, "A mobile game for cats.")
	assert.Contains(t, prompt, "Large TAM")
	assert.Contains(t, prompt, "JSON")
}

func TestStrategicPromptsUseDistinctAngles(t *testing.T) {
	prompts := make([]string, 0, 3)
	for i := 0; i < 3; i++ {
		req := PhaseRequest{
			Phase:       PhaseStrategicAssessment,
			IdeaTitle:   "Idea",
			OptionIndex: i,
			OptionCount: 3,
		}
		prompts = append(prompts, req.Prompt())
	}

	// Each option call leads with its own angle, so calls cannot converge on
	// one recommendation.
	for i := 0; i < len(prompts); i++ {
		for j := i + 1; j < len(prompts); j++ {
			assert.NotEqual(t, prompts[i], prompts[j])
		}
	}
	assert.True(t, strings.Contains(prompts[0], "option 1 of 3"))
}

func TestContextBlockEmptyOnFirstPhase(t *testing.T) {
	req := PhaseRequest{Phase: PhaseMarketContext, IdeaTitle: "Idea"}
	assert.Empty(t, req.contextBlock())
}
