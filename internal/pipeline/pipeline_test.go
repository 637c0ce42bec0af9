package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nichelab/niche-cli/internal/extract"
	"github.com/nichelab/niche-cli/internal/llm"
	"github.com/nichelab/niche-cli/internal/model"
)

// step is one scripted generator response: text on success, err on failure.
type step struct {
	text string
	err  error
}

// scriptedGen replays a fixed sequence of stage responses and records every
// request it saw, one per stage in execution order.
type scriptedGen struct {
	steps []step
	reqs  []llm.Request
}

func (g *scriptedGen) Generate(_ context.Context, req llm.Request) (*llm.Response, error) {
	i := len(g.reqs)
	g.reqs = append(g.reqs, req)
	if i >= len(g.steps) {
		return nil, fmt.Errorf("unexpected generate call %d", i+1)
	}
	if g.steps[i].err != nil {
		return nil, g.steps[i].err
	}
	return &llm.Response{Text: g.steps[i].text, Model: "gemini/gemini-2.0-flash"}, nil
}

const analystResponse = "```json\n" + `{
  "background_summary": "Backend engineer with six years building data infrastructure for logistics companies.",
  "key_strengths": ["distributed systems", "data modeling", "shipping under constraints"],
  "notable_skills": ["Go", "Postgres", "event pipelines"],
  "constraints_summary": "10 hours/week alongside a day job, 8 months of runway.",
  "ideal_founder_archetype": "technical founder",
  "unique_advantages": ["deep logistics domain exposure"],
  "areas_to_develop": ["sales", "pricing"]
}` + "\n```"

const hunterResponse = `{
  "niches": [
    {
      "name": "Freight Exception Tracker",
      "description": "Monitors shipments and surfaces exceptions before customers notice.",
      "problem_statement": "Shippers learn about delayed freight from angry customers.",
      "target_audience": "Mid-size freight brokers",
      "why_fits_founder": "Built exactly this class of event pipeline at a logistics company.",
      "market_opportunity": "Brokers churn customers over visibility gaps.",
      "competition_level": "medium",
      "cofounder_skills_needed": ["enterprise sales"],
      "improvement_areas": ["pricing strategy"]
    },
    {
      "name": "Warehouse Slotting Optimizer",
      "description": "Recommends bin placement from pick history.",
      "problem_statement": "Manual slotting wastes picker hours.",
      "target_audience": "3PL warehouse managers",
      "why_fits_founder": "Domain exposure to warehouse data models.",
      "market_opportunity": "Labor is the top 3PL cost line.",
      "competition_level": "low",
      "cofounder_skills_needed": ["operations"],
      "improvement_areas": ["warehouse floor experience"]
    },
    {
      "name": "Customs Paperwork Copilot",
      "description": "Drafts customs filings from shipment data.",
      "problem_statement": "Brokers re-key the same data into filings.",
      "target_audience": "Customs brokers",
      "why_fits_founder": "Has parsed messy logistics documents before.",
      "market_opportunity": "Every cross-border shipment needs filings.",
      "competition_level": "high",
      "cofounder_skills_needed": ["customs compliance"],
      "improvement_areas": ["regulatory depth"]
    },
    {
      "name": "Fleet Maintenance Scheduler",
      "description": "Predictive maintenance windows for small fleets.",
      "problem_statement": "Small fleets run trucks to failure.",
      "target_audience": "Fleet owners under 50 trucks",
      "why_fits_founder": "Telemetry pipelines are familiar ground.",
      "market_opportunity": "Downtime costs dwarf software spend.",
      "competition_level": "medium",
      "cofounder_skills_needed": ["fleet operations"],
      "improvement_areas": ["hardware integrations"]
    }
  ]
}`

// fitResponse scores three of the four candidates and recommends two. The
// second recommendation was never scored, so its fit score stays unset.
const fitResponse = `{
  "evaluations": [
    {
      "niche_name": "Freight Exception Tracker",
      "fit_score": 84,
      "score_justification": "Direct overlap with prior pipeline work.",
      "key_strengths_match": ["distributed systems"],
      "key_gaps": ["no broker relationships"],
      "improvement_suggestions": ["interview five brokers"]
    },
    {
      "niche_name": "Warehouse Slotting Optimizer",
      "fit_score": 71,
      "score_justification": "Good data fit, weaker domain access.",
      "key_gaps": ["no warehouse floor time"]
    },
    {
      "niche_name": "Fleet Maintenance Scheduler",
      "fit_score": 58,
      "score_justification": "Telemetry fit but crowded space.",
      "key_gaps": ["hardware"]
    }
  ],
  "top_recommendations": [
    {"rank": 1, "niche_name": "Freight Exception Tracker", "summary": "Strongest unfair advantage."},
    {"rank": 2, "niche_name": "Customs Paperwork Copilot", "summary": "Underserved despite competition."}
  ]
}`

const roadmapResponse = `{
  "phases": [
    {
      "phase_name": "Phase 1: Validation (Months 1-2)",
      "goals": ["Confirm brokers feel the exception pain"],
      "actions": ["Interview 15 freight brokers", "Shadow a dispatch desk"],
      "resources": [{"name": "The Mom Test", "url": "https://momtestbook.com", "type": "book"}],
      "milestones": ["10 interviews complete"],
      "deliverables": ["Problem brief"]
    },
    {
      "phase_name": "Phase 2: MVP (Months 3-4)",
      "goals": ["Ship a tracker one broker uses daily"],
      "actions": ["Build carrier EDI ingest", "Deploy exception dashboard"],
      "resources": [{"name": "project44 docs", "url": "https://developers.project44.com", "type": "documentation"}],
      "milestones": ["First daily active broker"],
      "deliverables": ["Hosted MVP"]
    },
    {
      "phase_name": "Phase 3: First Customers (Months 5-6)",
      "goals": ["Three paying brokers"],
      "actions": ["Run paid pilots", "Publish case study"],
      "resources": [{"name": "FreightWaves", "url": "https://freightwaves.com", "type": "community"}],
      "milestones": ["First invoice paid"],
      "deliverables": ["Pricing page"]
    }
  ],
  "suggested_roles": [
    {"role": "Solutions engineer", "company_type": "freight visibility vendor", "why": "Learn broker workflows from inside", "duration": "6 months"}
  ],
  "first_customer_strategies": ["Work a broker's exception queue by hand for two weeks"]
}`

const toolingResponse = `{
  "tools": [
    {
      "name": "Supabase",
      "category": "backend",
      "description": "Hosted Postgres with auth and realtime.",
      "pricing": "freemium",
      "url": "https://supabase.com",
      "why_recommended": "Fastest path to a multi-tenant backend."
    },
    {
      "name": "Retool",
      "category": "internal tools",
      "description": "Drag-and-drop operational dashboards.",
      "pricing": "freemium",
      "why_recommended": "Broker-facing exception views without frontend work."
    },
    {
      "name": "Plausible",
      "category": "analytics",
      "description": "Lightweight product analytics.",
      "why_recommended": "Enough signal without a data team."
    }
  ]
}`

func testProfile() model.FounderProfile {
	return model.FounderProfile{
		Education:        "BSc Computer Science",
		CurrentRole:      "Senior Backend Engineer",
		YearsExperience:  6,
		TechSkills:       []string{"Go", "Postgres", "Kafka"},
		DomainSkills:     []string{"logistics", "supply chain"},
		SoftSkills:       []string{"writing"},
		PreviousProjects: "Internal shipment tracking platform",
		ExcitedDomains:   []string{"logistics", "devtools"},
		HoursPerWeek:     10,
		RunwayMonths:     8,
		Location:         "Rotterdam",
		RiskAppetite:     "medium",
		TargetRoles:      []string{"technical founder"},
		NetworkStrength:  "moderate",
		LearningMode:     "build-first",
	}
}

func happyPathSteps() []step {
	return []step{
		{text: analystResponse},
		{text: hunterResponse},
		{text: fitResponse},
		{text: roadmapResponse},
		{text: toolingResponse},
	}
}

func TestRun_HappyPath(t *testing.T) {
	gen := &scriptedGen{steps: happyPathSteps()}
	p := New(gen, nil)

	res, err := p.Run(context.Background(), testProfile(), "user-1", "profile-1")
	require.NoError(t, err)
	require.NotNil(t, res.Report)

	report := res.Report
	assert.Equal(t, "user-1", report.UserID)
	assert.Equal(t, "profile-1", report.ProfileID)
	assert.NotEmpty(t, report.ID)
	assert.Equal(t, model.ReportStatusCompleted, report.Status)

	// Summary fields flow through from the analyst stage.
	assert.Contains(t, report.ProfileSummary.BackgroundSummary, "Backend engineer")
	assert.Equal(t, "technical founder", report.ProfileSummary.IdealFounderArchetype)
	assert.Len(t, report.ProfileSummary.KeyStrengths, 3)

	// The evaluator picked two niches; the report carries them in
	// recommendation order with the first as the selected niche.
	require.Len(t, report.RecommendedNiches, 2)
	assert.Equal(t, "Freight Exception Tracker", report.RecommendedNiches[0].Name)
	assert.Equal(t, 84, report.RecommendedNiches[0].FitScore)
	assert.Equal(t, "Customs Paperwork Copilot", report.RecommendedNiches[1].Name)
	require.NotNil(t, report.SelectedNiche)
	assert.Equal(t, "Freight Exception Tracker", report.SelectedNiche.Name)

	// The second pick never got an evaluation, so it carries the default.
	assert.Equal(t, model.DefaultFitScore, report.RecommendedNiches[1].FitScore)

	require.Len(t, report.Roadmap.Phases, 3)
	assert.Equal(t, "Phase 1: Validation (Months 1-2)", report.Roadmap.Phases[0].PhaseName)
	assert.NotEmpty(t, report.Roadmap.Phases[0].Resources)
	assert.Equal(t, "book", report.Roadmap.Phases[0].Resources[0]["type"])
	assert.Len(t, report.Roadmap.SuggestedRoles, 1)
	assert.Len(t, report.Roadmap.FirstCustomerStrategies, 1)

	require.Len(t, report.ToolRecommendations, 3)
	assert.Equal(t, "freemium", report.ToolRecommendations[0].Pricing)
	// A tool with no pricing falls back to free.
	assert.Equal(t, "free", report.ToolRecommendations[2].Pricing)

	// One trace entry per stage, in order, all successful.
	require.Len(t, res.Trace, 5)
	wantStages := []string{
		StageProfileAnalyst, StageMarketHunter, StageFitEvaluator,
		StageRoadmapArchitect, StageToolingAdvisor,
	}
	for i, entry := range res.Trace {
		assert.Equal(t, wantStages[i], entry.Stage)
		assert.Equal(t, model.StageStatusSuccess, entry.Status)
		assert.Positive(t, entry.PromptLength)
		assert.Positive(t, entry.ResponseLength)
		assert.Empty(t, entry.Error)
	}

	// Profile data reaches the first prompt.
	require.Len(t, gen.reqs, 5)
	assert.Contains(t, gen.reqs[0].Prompt, "Hours per Week Available: 10")
	assert.Contains(t, gen.reqs[0].Prompt, "Senior Backend Engineer")
	// Downstream prompts consume upstream output.
	assert.Contains(t, gen.reqs[2].Prompt, "Freight Exception Tracker")
	assert.Contains(t, gen.reqs[3].Prompt, "Fit Score: 84")
}

func TestRun_StageModelsPinPrimaries(t *testing.T) {
	gen := &scriptedGen{steps: happyPathSteps()}
	p := New(gen, map[string]string{
		StageFitEvaluator: "anthropic/claude-sonnet-4-5-20250929",
	})

	_, err := p.Run(context.Background(), testProfile(), "user-1", "profile-1")
	require.NoError(t, err)

	require.Len(t, gen.reqs, 5)
	assert.Empty(t, gen.reqs[0].Primary)
	assert.Empty(t, gen.reqs[1].Primary)
	assert.Equal(t, "anthropic/claude-sonnet-4-5-20250929", gen.reqs[2].Primary)
	assert.Empty(t, gen.reqs[3].Primary)
}

func TestRun_SecondStageExhaustionAborts(t *testing.T) {
	exhausted := &llm.ExhaustedError{
		Attempts: []llm.Attempt{
			{Model: "gemini/gemini-2.0-flash", Err: errors.New("429")},
			{Model: "groq/llama-3.3-70b-versatile", Err: errors.New("503")},
		},
		LastErr: errors.New("503"),
	}
	gen := &scriptedGen{steps: []step{
		{text: analystResponse},
		{err: exhausted},
	}}
	p := New(gen, nil)

	res, err := p.Run(context.Background(), testProfile(), "user-1", "profile-1")
	require.Error(t, err)

	var stageErr *StageError
	require.True(t, errors.As(err, &stageErr))
	assert.Equal(t, StageMarketHunter, stageErr.Stage)

	var exhaustedErr *llm.ExhaustedError
	assert.True(t, errors.As(err, &exhaustedErr))

	// No report, and only the stages that actually ran are traced.
	assert.Nil(t, res.Report)
	require.Len(t, res.Trace, 2)
	assert.Equal(t, model.StageStatusSuccess, res.Trace[0].Status)
	assert.Equal(t, model.StageStatusError, res.Trace[1].Status)
	assert.Contains(t, res.Trace[1].Error, "fallback models failed")

	// The run stopped at the failure: stages three through five never ran.
	assert.Len(t, gen.reqs, 2)
}

func TestRun_MalformedFirstStageResponse(t *testing.T) {
	gen := &scriptedGen{steps: []step{
		{text: "I could not produce JSON for this founder, sorry."},
	}}
	p := New(gen, nil)

	res, err := p.Run(context.Background(), testProfile(), "user-1", "profile-1")
	require.Error(t, err)

	var stageErr *StageError
	require.True(t, errors.As(err, &stageErr))
	assert.Equal(t, StageProfileAnalyst, stageErr.Stage)

	var unparsable *extract.UnparsableError
	require.True(t, errors.As(err, &unparsable))
	assert.Contains(t, unparsable.Snippet, "could not produce JSON")

	assert.Nil(t, res.Report)
	require.Len(t, res.Trace, 1)
	assert.Equal(t, model.StageStatusError, res.Trace[0].Status)
	assert.Len(t, gen.reqs, 1)
}

func TestRun_NormalizesProfileBeforeFirstPrompt(t *testing.T) {
	profile := testProfile()
	profile.RiskAppetite = ""
	profile.NetworkStrength = ""
	profile.LearningMode = ""

	gen := &scriptedGen{steps: happyPathSteps()}
	p := New(gen, nil)

	_, err := p.Run(context.Background(), profile, "user-1", "profile-1")
	require.NoError(t, err)

	assert.Contains(t, gen.reqs[0].Prompt, "Risk Appetite: medium")
	assert.Contains(t, gen.reqs[0].Prompt, "Network Strength: moderate")
	assert.Contains(t, gen.reqs[0].Prompt, "Learning Mode: build-first")
}

func TestRun_EmptySelectionFallsBackToCandidates(t *testing.T) {
	// An evaluator that scores but recommends nothing still yields a report
	// built from the leading candidates.
	noPicks := strings.Replace(fitResponse,
		`"top_recommendations": [
    {"rank": 1, "niche_name": "Freight Exception Tracker", "summary": "Strongest unfair advantage."},
    {"rank": 2, "niche_name": "Customs Paperwork Copilot", "summary": "Underserved despite competition."}
  ]`,
		`"top_recommendations": []`, 1)

	steps := happyPathSteps()
	steps[2] = step{text: noPicks}
	gen := &scriptedGen{steps: steps}
	p := New(gen, nil)

	res, err := p.Run(context.Background(), testProfile(), "user-1", "profile-1")
	require.NoError(t, err)

	require.Len(t, res.Report.RecommendedNiches, 3)
	assert.Equal(t, "Freight Exception Tracker", res.Report.RecommendedNiches[0].Name)
	assert.Equal(t, "Warehouse Slotting Optimizer", res.Report.RecommendedNiches[1].Name)
	assert.Equal(t, "Customs Paperwork Copilot", res.Report.RecommendedNiches[2].Name)
}
