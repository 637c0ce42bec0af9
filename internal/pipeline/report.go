package pipeline

import "github.com/nichelab/niche-cli/internal/model"

// buildReport assembles the final report from the terminal context. Every
// collection is present-but-empty when its stage under-produced; a candidate
// the fit evaluator never scored gets the default score.
func buildReport(c *Context, userID, profileID string) *model.NicheReport {
	report := model.NewReport(userID, profileID)

	if c.Summary != nil {
		report.ProfileSummary = model.ProfileSummary{
			BackgroundSummary:     c.Summary.BackgroundSummary,
			KeyStrengths:          c.Summary.KeyStrengths,
			NotableSkills:         c.Summary.NotableSkills,
			ConstraintsSummary:    c.Summary.ConstraintsSummary,
			IdealFounderArchetype: c.Summary.IdealFounderArchetype,
		}
	}

	// Selected niches when the evaluator picked any, else the leading
	// candidates in proposal order.
	source := c.Selected
	if len(source) == 0 {
		source = c.Candidates
		if len(source) > 3 {
			source = source[:3]
		}
	}
	for _, cand := range source {
		report.RecommendedNiches = append(report.RecommendedNiches, nicheFromCandidate(cand))
	}
	if len(report.RecommendedNiches) > 0 {
		report.SelectedNiche = &report.RecommendedNiches[0]
	}

	if c.Roadmap != nil {
		report.Roadmap = *c.Roadmap
	}
	if report.Roadmap.Phases == nil {
		report.Roadmap.Phases = []model.RoadmapPhase{}
	}
	if report.Roadmap.SuggestedRoles == nil {
		report.Roadmap.SuggestedRoles = []map[string]string{}
	}
	if report.Roadmap.FirstCustomerStrategies == nil {
		report.Roadmap.FirstCustomerStrategies = []string{}
	}

	report.ToolRecommendations = append(report.ToolRecommendations, c.Tools...)

	return report
}

func nicheFromCandidate(cand Candidate) model.Niche {
	n := model.Niche{
		Name:                  cand.Name,
		Description:           cand.Description,
		ProblemStatement:      cand.ProblemStatement,
		TargetAudience:        cand.TargetAudience,
		WhyFitsYou:            cand.WhyFitsFounder,
		MarketOpportunity:     cand.MarketOpportunity,
		CompetitionLevel:      textOr(cand.CompetitionLevel, model.DefaultCompetitionLevel),
		FitScore:              model.DefaultFitScore,
		ImprovementAreas:      cand.ImprovementAreas,
		CofounderSkillsNeeded: cand.CofounderSkillsNeeded,
	}
	if cand.FitScore != nil {
		n.FitScore = *cand.FitScore
	}
	if n.ImprovementAreas == nil {
		n.ImprovementAreas = []string{}
	}
	if n.CofounderSkillsNeeded == nil {
		n.CofounderSkillsNeeded = []string{}
	}
	return n
}
