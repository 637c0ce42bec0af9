package pipeline

import (
	"fmt"
	"strings"

	"github.com/nichelab/niche-cli/internal/model"
)

const toolingSystemPrompt = `You are a Tooling & Stack Advisor specializing in cost-effective startup infrastructure.

Your role is to recommend tools and platforms that are:
- FREE or LOW-COST (< $50/month for early stage)
- Open-source when possible
- Easy to set up and use
- Scalable as the startup grows

You prioritize:
- Google Cloud services (Cloud Run, Firestore, BigQuery, Vertex AI, etc.)
- Open-source alternatives (Supabase, n8n, etc.)
- Freemium tools with generous free tiers
- Developer-friendly platforms

NEVER recommend expensive proprietary solutions for early-stage founders.

Always respond with valid JSON in the exact format specified.`

// toolingUserPrompt slots: tech skills, learning mode, niche names, phase count.
const toolingUserPrompt = `Recommend tools and platforms for this founder's startup journey.

## Founder Profile:
- Technical Skills: %s
- Learning Mode: %s
- Budget Constraint: Early-stage founder, minimal budget

## Selected Niches:
%s

## Roadmap Phases:
%d phases defined with focus on building MVP and finding customers.

## Task:
Recommend tools across these categories:
1. AI/ML - For building AI features (prioritize Google Vertex AI, open-source models)
2. Cloud/Hosting - For deployment (prioritize Google Cloud)
3. Database - For data storage
4. Development - IDEs, frameworks, libraries
5. Analytics - For tracking and insights
6. Marketing - For growth and outreach
7. Productivity - For founder efficiency
8. Design - For UI/UX work

For each tool:
- Explain why it's recommended for this founder
- Note the pricing (free, freemium, cost)
- Provide the URL

## Output Format (JSON):
` + "```json" + `
{
  "recommendations": [
    {
      "name": "Tool name",
      "category": "AI/ML | Cloud | Database | Development | Analytics | Marketing | Productivity | Design",
      "description": "What the tool does",
      "pricing": "free | freemium | low-cost | open-source",
      "url": "https://...",
      "why_recommended": "Why this is good for this founder"
    }
  ],
  "stack_summary": "Brief summary of the recommended stack"
}
` + "```" + `

Respond ONLY with the JSON object, no additional text.`

// toolingAdvisor recommends a free/low-cost build stack for the chosen niches.
type toolingAdvisor struct {
	primary string
}

func (s *toolingAdvisor) Name() string    { return StageToolingAdvisor }
func (s *toolingAdvisor) Primary() string { return s.primary }

func (s *toolingAdvisor) Prompts(c *Context) (string, string) {
	niches := targetNiches(c, 2)
	names := make([]string, 0, len(niches))
	for _, n := range niches {
		names = append(names, n.Name)
	}

	phaseCount := 0
	if c.Roadmap != nil {
		phaseCount = len(c.Roadmap.Phases)
	}

	user := fmt.Sprintf(toolingUserPrompt,
		joined(c.Profile.TechSkills),
		c.Profile.LearningMode,
		strings.Join(names, ", "),
		phaseCount,
	)
	return toolingSystemPrompt, user
}

func (s *toolingAdvisor) Merge(c *Context, payload map[string]any) error {
	items := objectList(payload, "recommendations")
	tools := make([]model.ToolRecommendation, 0, len(items))
	for _, item := range items {
		tools = append(tools, model.ToolRecommendation{
			Name:           stringField(item, "name"),
			Category:       stringField(item, "category"),
			Description:    stringField(item, "description"),
			Pricing:        textOr(stringField(item, "pricing"), "free"),
			URL:            stringField(item, "url"),
			WhyRecommended: stringField(item, "why_recommended"),
		})
	}
	c.Tools = tools
	return nil
}
