package pipeline

import "fmt"

const profileSystemPrompt = `You are a Profile & Strengths Analyst specializing in founder assessment.

Your role is to analyze a founder's background, skills, and constraints to create
a comprehensive profile summary that will help identify their ideal startup niche.

You think step-by-step and produce structured, actionable insights.

Always respond with valid JSON in the exact format specified.`

// profileUserPrompt slots: education, current role, years, tech skills,
// domain skills, soft skills, projects, excited domains, hours, runway,
// location, risk appetite, target roles, portfolio, github, network,
// learning mode.
const profileUserPrompt = `Analyze this founder profile and create a comprehensive summary.

## Profile Data:
- Education: %s
- Current Role: %s
- Years of Experience: %d
- Technical Skills: %s
- Domain Skills: %s
- Soft Skills: %s
- Previous Projects: %s
- Excited Domains: %s
- Hours per Week Available: %d
- Runway (months): %d
- Location: %s
- Risk Appetite: %s
- Target Roles: %s
- Portfolio: %s
- GitHub: %s
- Network Strength: %s
- Learning Mode: %s

## Task:
Analyze this profile and identify:
1. Key strengths that give them a competitive edge
2. Notable skills that could translate to startup success
3. Constraints that should influence niche selection
4. What founder archetype they fit (technical founder, domain expert, generalist, etc.)

## Output Format (JSON):
` + "```json" + `
{
  "background_summary": "2-3 sentence summary of their professional background",
  "key_strengths": ["strength1", "strength2", "strength3"],
  "notable_skills": ["skill1", "skill2", "skill3"],
  "constraints_summary": "Summary of time, financial, and other constraints",
  "ideal_founder_archetype": "The founder archetype they most closely match",
  "unique_advantages": ["advantage1", "advantage2"],
  "areas_to_develop": ["area1", "area2"]
}
` + "```" + `

Respond ONLY with the JSON object, no additional text.`

// profileAnalyst condenses the raw founder profile into the structured
// summary every later stage builds on.
type profileAnalyst struct {
	primary string
}

func (s *profileAnalyst) Name() string    { return StageProfileAnalyst }
func (s *profileAnalyst) Primary() string { return s.primary }

func (s *profileAnalyst) Prompts(c *Context) (string, string) {
	p := c.Profile
	user := fmt.Sprintf(profileUserPrompt,
		textOr(p.Education, "Not specified"),
		textOr(p.CurrentRole, "Not specified"),
		p.YearsExperience,
		joined(p.TechSkills),
		joined(p.DomainSkills),
		joined(p.SoftSkills),
		textOr(p.PreviousProjects, "None"),
		joined(p.ExcitedDomains),
		p.HoursPerWeek,
		p.RunwayMonths,
		textOr(p.Location, "Not specified"),
		p.RiskAppetite,
		joined(p.TargetRoles),
		textOr(p.ExistingPortfolio, "None"),
		textOr(p.GithubURL, "None"),
		p.NetworkStrength,
		p.LearningMode,
	)
	return profileSystemPrompt, user
}

func (s *profileAnalyst) Merge(c *Context, payload map[string]any) error {
	c.Summary = &Summary{
		BackgroundSummary:     stringField(payload, "background_summary"),
		KeyStrengths:          stringList(payload, "key_strengths"),
		NotableSkills:         stringList(payload, "notable_skills"),
		ConstraintsSummary:    stringField(payload, "constraints_summary"),
		IdealFounderArchetype: stringField(payload, "ideal_founder_archetype"),
		UniqueAdvantages:      stringList(payload, "unique_advantages"),
		AreasToDevelop:        stringList(payload, "areas_to_develop"),
	}
	return nil
}
