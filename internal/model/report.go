package model

import (
	"time"

	"github.com/google/uuid"
)

// ReportStatus represents the lifecycle state of a discovery report.
type ReportStatus string

const (
	ReportStatusPending    ReportStatus = "pending"
	ReportStatusProcessing ReportStatus = "processing"
	ReportStatusCompleted  ReportStatus = "completed"
	ReportStatusFailed     ReportStatus = "failed"
)

// Default values applied during report assembly when a stage under-produced.
const (
	DefaultFitScore         = 50
	DefaultCompetitionLevel = "medium"
)

// ProfileSummary is the condensed founder assessment produced by the first
// pipeline stage.
type ProfileSummary struct {
	BackgroundSummary     string   `json:"background_summary"`
	KeyStrengths          []string `json:"key_strengths"`
	NotableSkills         []string `json:"notable_skills"`
	ConstraintsSummary    string   `json:"constraints_summary"`
	IdealFounderArchetype string   `json:"ideal_founder_archetype"`
}

// Niche is one recommended startup problem space.
type Niche struct {
	Name                  string   `json:"name"`
	Description           string   `json:"description"`
	ProblemStatement      string   `json:"problem_statement"`
	TargetAudience        string   `json:"target_audience"`
	WhyFitsYou            string   `json:"why_fits_you"`
	MarketOpportunity     string   `json:"market_opportunity"`
	CompetitionLevel      string   `json:"competition_level"` // low, medium, high
	FitScore              int      `json:"fit_score"`         // 1-100
	ImprovementAreas      []string `json:"improvement_areas"`
	CofounderSkillsNeeded []string `json:"cofounder_skills_needed"`
}

// RoadmapPhase is one time-boxed phase of the founder roadmap.
type RoadmapPhase struct {
	PhaseName    string              `json:"phase_name"`
	Goals        []string            `json:"goals"`
	Actions      []string            `json:"actions"`
	Resources    []map[string]string `json:"resources"` // {"name": ..., "url": ..., "type": ...}
	Milestones   []string            `json:"milestones"`
	Deliverables []string            `json:"deliverables"`
}

// Roadmap is the phased founder journey plan.
type Roadmap struct {
	Phases                  []RoadmapPhase      `json:"phases"`
	SuggestedRoles          []map[string]string `json:"suggested_roles"` // {"role": ..., "company_type": ..., "why": ..., "duration": ...}
	FirstCustomerStrategies []string            `json:"first_customer_strategies"`
}

// ToolRecommendation is one tool or platform suggestion.
type ToolRecommendation struct {
	Name           string `json:"name"`
	Category       string `json:"category"`
	Description    string `json:"description"`
	Pricing        string `json:"pricing"` // free, freemium, low-cost, open-source
	URL            string `json:"url,omitempty"`
	WhyRecommended string `json:"why_recommended"`
}

// NicheReport is the complete artifact assembled from a successful pipeline
// run. Collections are always present, defaulting to empty rather than null.
type NicheReport struct {
	ID        string `json:"id"`
	UserID    string `json:"user_id"`
	ProfileID string `json:"profile_id"`

	ProfileSummary      ProfileSummary       `json:"profile_summary"`
	RecommendedNiches   []Niche              `json:"recommended_niches"`
	SelectedNiche       *Niche               `json:"selected_niche,omitempty"`
	Roadmap             Roadmap              `json:"roadmap"`
	ToolRecommendations []ToolRecommendation `json:"tool_recommendations"`

	CreatedAt time.Time    `json:"created_at"`
	Status    ReportStatus `json:"status"`

	MilestonesCompleted []string `json:"milestones_completed"`
}

// NewReport creates an empty report shell with a fresh id and timestamp.
func NewReport(userID, profileID string) *NicheReport {
	return &NicheReport{
		ID:                  uuid.New().String(),
		UserID:              userID,
		ProfileID:           profileID,
		RecommendedNiches:   []Niche{},
		ToolRecommendations: []ToolRecommendation{},
		MilestonesCompleted: []string{},
		CreatedAt:           time.Now().UTC(),
		Status:              ReportStatusCompleted,
	}
}

// ReportSummary is the listing row for a stored report.
type ReportSummary struct {
	ID        string       `json:"id"`
	TopNiche  string       `json:"top_niche"`
	FitScore  int          `json:"fit_score"`
	CreatedAt time.Time    `json:"created_at"`
	Status    ReportStatus `json:"status"`
}

// Summarize derives the listing row from a full report. Reports with no
// recommended niches summarize as "Unknown" with a zero score.
func (r *NicheReport) Summarize() ReportSummary {
	s := ReportSummary{
		ID:        r.ID,
		TopNiche:  "Unknown",
		CreatedAt: r.CreatedAt,
		Status:    r.Status,
	}
	if len(r.RecommendedNiches) > 0 {
		s.TopNiche = r.RecommendedNiches[0].Name
		s.FitScore = r.RecommendedNiches[0].FitScore
	}
	return s
}
