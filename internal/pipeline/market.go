package pipeline

import "fmt"

const marketSystemPrompt = `You are a Market & Problem Hunter specializing in startup opportunity identification.

Your role is to identify 3-7 specific problem spaces where a founder could build
a successful startup based on their unique background and skills.

You focus on:
- B2B / developer tools / clear pain points where possible
- Problems with real market demand
- Niches where the founder has unfair advantages
- Avoiding generic suggestions like "build an app"

Think step-by-step and justify each recommendation.

Always respond with valid JSON in the exact format specified.`

// marketUserPrompt slots: background, strengths, skills, constraints,
// archetype, advantages, excited domains, target roles, risk appetite,
// hours per week.
const marketUserPrompt = `Based on this founder profile, identify 4-6 promising startup niches.

## Founder Profile Summary:
- Background: %s
- Key Strengths: %s
- Notable Skills: %s
- Constraints: %s
- Archetype: %s
- Unique Advantages: %s

## Their Interests:
- Excited Domains: %s
- Target Roles: %s
- Risk Appetite: %s
- Time Available: %d hours/week

## Task:
Propose 4-6 specific problem spaces/niches where this founder could succeed.

For each niche:
1. Be specific (not "AI startup" but "AI-powered code review for security vulnerabilities")
2. Explain why their background gives them an edge
3. Identify the target audience
4. Assess competition level
5. Suggest complementary cofounder skills that would increase chances
6. Identify improvement areas the founder could work on

## Output Format (JSON):
` + "```json" + `
{
  "niches": [
    {
      "name": "Niche name",
      "description": "What the startup would do",
      "problem_statement": "The specific problem being solved",
      "target_audience": "Who would buy this",
      "why_fits_founder": "Why this founder is well-positioned",
      "market_opportunity": "Size and growth potential",
      "competition_level": "low/medium/high",
      "cofounder_skills_needed": ["skill1", "skill2"],
      "improvement_areas": ["area1", "area2"]
    }
  ]
}
` + "```" + `

Respond ONLY with the JSON object, no additional text.`

// marketHunter proposes candidate niches matched to the analyst's summary.
type marketHunter struct {
	primary string
}

func (s *marketHunter) Name() string    { return StageMarketHunter }
func (s *marketHunter) Primary() string { return s.primary }

func (s *marketHunter) Prompts(c *Context) (string, string) {
	summary := c.Summary
	if summary == nil {
		summary = &Summary{}
	}
	p := c.Profile
	user := fmt.Sprintf(marketUserPrompt,
		textOr(summary.BackgroundSummary, "N/A"),
		joined(summary.KeyStrengths),
		joined(summary.NotableSkills),
		textOr(summary.ConstraintsSummary, "N/A"),
		textOr(summary.IdealFounderArchetype, "N/A"),
		joined(summary.UniqueAdvantages),
		joined(p.ExcitedDomains),
		joined(p.TargetRoles),
		p.RiskAppetite,
		p.HoursPerWeek,
	)
	return marketSystemPrompt, user
}

func (s *marketHunter) Merge(c *Context, payload map[string]any) error {
	items := objectList(payload, "niches")
	candidates := make([]Candidate, 0, len(items))
	for _, item := range items {
		candidates = append(candidates, Candidate{
			Name:                  stringField(item, "name"),
			Description:           stringField(item, "description"),
			ProblemStatement:      stringField(item, "problem_statement"),
			TargetAudience:        stringField(item, "target_audience"),
			WhyFitsFounder:        stringField(item, "why_fits_founder"),
			MarketOpportunity:     stringField(item, "market_opportunity"),
			CompetitionLevel:      stringField(item, "competition_level"),
			CofounderSkillsNeeded: stringList(item, "cofounder_skills_needed"),
			ImprovementAreas:      stringList(item, "improvement_areas"),
		})
	}
	c.Candidates = candidates
	return nil
}
