package pipeline

import "github.com/nichelab/niche-cli/internal/model"

// Context is the shared state that flows through the stages. Each stage
// reads the fields populated by its predecessors and fills in its own.
type Context struct {
	// Profile is the raw founder input, normalized before the first stage.
	Profile model.FounderProfile

	// Summary is written by the profile analyst.
	Summary *Summary

	// Candidates are written by the market hunter and annotated in place by
	// the fit evaluator.
	Candidates []Candidate

	// Selected holds the fit evaluator's top picks, in recommendation order.
	Selected []Candidate

	// Roadmap is written by the roadmap architect.
	Roadmap *model.Roadmap

	// Tools are written by the tooling advisor.
	Tools []model.ToolRecommendation

	// Trace records one entry per executed stage, success or failure.
	Trace []model.TraceEntry
}

// Summary is the profile analyst's structured read of the founder. The first
// five fields flow into the report; the rest feed downstream prompts only.
type Summary struct {
	BackgroundSummary     string
	KeyStrengths          []string
	NotableSkills         []string
	ConstraintsSummary    string
	IdealFounderArchetype string
	UniqueAdvantages      []string
	AreasToDevelop        []string
}

// Candidate is a niche proposed by the market hunter. The fit evaluator
// annotates it with score data; FitScore stays nil for candidates the
// evaluator never matched by name.
type Candidate struct {
	Name                  string
	Description           string
	ProblemStatement      string
	TargetAudience        string
	WhyFitsFounder        string
	MarketOpportunity     string
	CompetitionLevel      string
	CofounderSkillsNeeded []string
	ImprovementAreas      []string

	FitScore           *int
	ScoreJustification string
	KeyGaps            []string
}
