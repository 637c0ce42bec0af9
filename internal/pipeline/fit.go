package pipeline

import "fmt"

const fitSystemPrompt = `You are a Founder-Problem Fit Evaluator specializing in startup success prediction.

Your role is to evaluate how well a founder matches each proposed startup niche
and provide detailed fit assessments with scores.

You consider:
- Skill alignment with problem requirements
- Domain expertise relevance
- Time/resource constraints vs. niche demands
- Motivation and interest alignment
- Network advantages
- Risk profile match

Be honest and critical - it's better to redirect a founder than let them pursue a poor fit.

Always respond with valid JSON in the exact format specified.`

// fitUserPrompt slots: background, strengths, skills, constraints,
// archetype, hours per week, risk appetite, learning mode, candidate list.
const fitUserPrompt = `Evaluate founder-problem fit for each proposed niche.

## Founder Profile:
- Background: %s
- Key Strengths: %s
- Notable Skills: %s
- Constraints: %s
- Archetype: %s
- Time Available: %d hours/week
- Risk Appetite: %s
- Learning Mode: %s

## Candidate Niches:%s

## Task:
For each niche, provide:
1. A fit score (1-100)
2. Detailed justification for the score
3. Key risks or gaps
4. What would make this a better fit

Then select the top 2-3 niches that best fit this founder.

## Output Format (JSON):
` + "```json" + `
{
  "evaluations": [
    {
      "niche_name": "Name of the niche",
      "fit_score": 85,
      "score_justification": "Detailed explanation of why this score",
      "key_strengths_match": ["strength that matches"],
      "key_gaps": ["gap or risk"],
      "improvement_suggestions": ["what would improve fit"]
    }
  ],
  "top_recommendations": [
    {
      "rank": 1,
      "niche_name": "Best fit niche",
      "summary": "Why this is the top recommendation"
    }
  ]
}
` + "```" + `

Respond ONLY with the JSON object, no additional text.`

// fitEvaluator scores each candidate niche against the founder and picks
// the top recommendations.
type fitEvaluator struct {
	primary string
}

func (s *fitEvaluator) Name() string    { return StageFitEvaluator }
func (s *fitEvaluator) Primary() string { return s.primary }

func (s *fitEvaluator) Prompts(c *Context) (string, string) {
	summary := c.Summary
	if summary == nil {
		summary = &Summary{}
	}
	p := c.Profile
	user := fmt.Sprintf(fitUserPrompt,
		textOr(summary.BackgroundSummary, "N/A"),
		joined(summary.KeyStrengths),
		joined(summary.NotableSkills),
		textOr(summary.ConstraintsSummary, "N/A"),
		textOr(summary.IdealFounderArchetype, "N/A"),
		p.HoursPerWeek,
		p.RiskAppetite,
		p.LearningMode,
		renderCandidateList(c.Candidates),
	)
	return fitSystemPrompt, user
}

// Merge annotates candidates with fit data by exact name match. The first
// evaluation matching a candidate wins; evaluations naming no candidate are
// dropped. Selected picks follow the model's recommendation order.
func (s *fitEvaluator) Merge(c *Context, payload map[string]any) error {
	evals := objectList(payload, "evaluations")
	for i := range c.Candidates {
		for _, ev := range evals {
			if stringField(ev, "niche_name") != c.Candidates[i].Name {
				continue
			}
			score := intField(ev, "fit_score", 0)
			c.Candidates[i].FitScore = &score
			c.Candidates[i].ScoreJustification = stringField(ev, "score_justification")
			c.Candidates[i].KeyGaps = stringList(ev, "key_gaps")
			break
		}
	}

	selected := []Candidate{}
	for _, rec := range objectList(payload, "top_recommendations") {
		name := stringField(rec, "niche_name")
		for _, cand := range c.Candidates {
			if cand.Name == name {
				selected = append(selected, cand)
				break
			}
		}
	}
	c.Selected = selected
	return nil
}
