package research

import "ideascope/models"

// ApproachInfo describes one selectable research approach for the UI.
type ApproachInfo struct {
	Approach    models.Approach `json:"approach"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Duration    string          `json:"duration"`
	Complexity  string          `json:"complexity"`
	Phases      []Phase         `json:"phases"`
	BestFor     []string        `json:"best_for"`
}

// Approaches returns the catalog of supported approaches, cheapest first.
func Approaches() []ApproachInfo {
	return []ApproachInfo{
		{
			Approach:    models.ApproachQuickValidation,
			Title:       "Quick Validation",
			Description: "Fast go/no-go assessment of market viability and strategic fit.",
			Duration:    "~15 minutes",
			Complexity:  "low",
			Phases:      PhasesFor(models.ApproachQuickValidation),
			BestFor: []string{
				"Early-stage ideas needing a sanity check",
				"Choosing between several candidate ideas",
			},
		},
		{
			Approach:    models.ApproachMarketDeepDive,
			Title:       "Market Deep-Dive",
			Description: "Comprehensive market, competitor and customer analysis with scored strategic options.",
			Duration:    "~45 minutes",
			Complexity:  "medium",
			Phases:      PhasesFor(models.ApproachMarketDeepDive),
			BestFor: []string{
				"Ideas that passed initial validation",
				"Preparing an investor or stakeholder pitch",
			},
		},
		{
			Approach:    models.ApproachLaunchStrategy,
			Title:       "Launch Strategy",
			Description: "Full analysis plus a synthesized launch plan combining all research phases.",
			Duration:    "~90 minutes",
			Complexity:  "high",
			Phases:      PhasesFor(models.ApproachLaunchStrategy),
			BestFor: []string{
				"Committed ideas moving toward execution",
				"Teams planning go-to-market sequencing",
			},
		},
	}
}
