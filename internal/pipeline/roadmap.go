package pipeline

import (
	"fmt"

	"github.com/nichelab/niche-cli/internal/model"
)

const roadmapSystemPrompt = `You are a Roadmap Architect specializing in founder journey planning.

Your role is to create actionable, time-bound roadmaps that help founders:
- Acquire necessary skills (using FREE or LOW-COST resources)
- Build relevant side projects or MVPs
- Develop their portfolio and content
- Find their first customers

You focus on:
- Concrete, measurable actions
- Realistic timelines based on available hours
- Free/low-cost resources (YouTube, docs, MOOCs, OSS repos)
- Progressive skill building
- Early validation strategies

Always respond with valid JSON in the exact format specified.`

// roadmapUserPrompt slots: background, strengths, areas to develop, hours,
// risk appetite, learning mode, network strength, selected niche list.
const roadmapUserPrompt = `Create a detailed 12-month roadmap for this founder.

## Founder Profile:
- Background: %s
- Key Strengths: %s
- Areas to Develop: %s
- Time Available: %d hours/week
- Risk Appetite: %s
- Learning Mode: %s
- Network Strength: %s

## Selected Niches:%s

## Task:
Create a phased roadmap broken into:
1. Phase 1 (0-3 months): Foundation & Validation
2. Phase 2 (3-6 months): Building & Learning
3. Phase 3 (6-12 months): Launch & Scale

For each phase include:
- Clear goals
- Specific actions (with time estimates)
- FREE or LOW-COST resources (include URLs where possible)
- Milestones to track progress
- Deliverables

Also suggest:
- Roles/jobs that would align with their niche journey
- Strategies for finding first customers

## Output Format (JSON):
` + "```json" + `
{
  "phases": [
    {
      "phase_name": "0-3 months: Foundation & Validation",
      "goals": ["goal1", "goal2"],
      "actions": [
        "Action 1 (X hours/week)",
        "Action 2 (X hours/week)"
      ],
      "resources": [
        {"name": "Resource name", "url": "https://...", "type": "free"}
      ],
      "milestones": ["milestone1", "milestone2"],
      "deliverables": ["deliverable1", "deliverable2"]
    }
  ],
  "suggested_roles": [
    {
      "role": "Job title",
      "company_type": "Type of company to target",
      "why": "Why this role helps the founder journey",
      "duration": "Recommended time in role"
    }
  ],
  "first_customer_strategies": [
    "Strategy 1: Description",
    "Strategy 2: Description"
  ]
}
` + "```" + `

Respond ONLY with the JSON object, no additional text.`

// roadmapArchitect plans the three-phase founder journey for the top niches.
type roadmapArchitect struct {
	primary string
}

func (s *roadmapArchitect) Name() string    { return StageRoadmapArchitect }
func (s *roadmapArchitect) Primary() string { return s.primary }

func (s *roadmapArchitect) Prompts(c *Context) (string, string) {
	summary := c.Summary
	if summary == nil {
		summary = &Summary{}
	}
	p := c.Profile
	user := fmt.Sprintf(roadmapUserPrompt,
		textOr(summary.BackgroundSummary, "N/A"),
		joined(summary.KeyStrengths),
		joined(summary.AreasToDevelop),
		p.HoursPerWeek,
		p.RiskAppetite,
		p.LearningMode,
		p.NetworkStrength,
		renderSelectedNiches(targetNiches(c, 2)),
	)
	return roadmapSystemPrompt, user
}

func (s *roadmapArchitect) Merge(c *Context, payload map[string]any) error {
	phases := objectList(payload, "phases")
	roadmap := &model.Roadmap{
		Phases:                  make([]model.RoadmapPhase, 0, len(phases)),
		SuggestedRoles:          stringMapList(payload, "suggested_roles"),
		FirstCustomerStrategies: stringList(payload, "first_customer_strategies"),
	}
	for _, ph := range phases {
		roadmap.Phases = append(roadmap.Phases, model.RoadmapPhase{
			PhaseName:    stringField(ph, "phase_name"),
			Goals:        stringList(ph, "goals"),
			Actions:      stringList(ph, "actions"),
			Resources:    stringMapList(ph, "resources"),
			Milestones:   stringList(ph, "milestones"),
			Deliverables: stringList(ph, "deliverables"),
		})
	}
	c.Roadmap = roadmap
	return nil
}
