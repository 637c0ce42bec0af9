// Package model defines the domain types shared across the discovery pipeline,
// stores, and API surfaces.
package model

import (
	"time"

	"github.com/google/uuid"
)

// FounderProfile is the raw input record describing the founder being
// analyzed. It is immutable for the life of a pipeline run.
type FounderProfile struct {
	ID     string `json:"id,omitempty"`
	UserID string `json:"user_id,omitempty"`

	Education         string   `json:"education"`
	CurrentRole       string   `json:"current_role"`
	YearsExperience   int      `json:"years_experience"`
	TechSkills        []string `json:"tech_skills"`
	DomainSkills      []string `json:"domain_skills"`
	SoftSkills        []string `json:"soft_skills"`
	PreviousProjects  string   `json:"previous_projects"`
	ExcitedDomains    []string `json:"excited_domains"`
	HoursPerWeek      int      `json:"hours_per_week"`
	RunwayMonths      int      `json:"runway_months"`
	Location          string   `json:"location"`
	RiskAppetite      string   `json:"risk_appetite"`
	TargetRoles       []string `json:"target_roles"`
	ExistingPortfolio string   `json:"existing_portfolio"`
	GithubURL         string   `json:"github_url"`
	NetworkStrength   string   `json:"network_strength"`
	LearningMode      string   `json:"learning_mode"`

	CreatedAt time.Time `json:"created_at,omitempty"`
	UpdatedAt time.Time `json:"updated_at,omitempty"`
}

// Normalize fills the free-text enum fields with their documented defaults
// so prompts never render empty slots.
func (p *FounderProfile) Normalize() {
	if p.RiskAppetite == "" {
		p.RiskAppetite = "medium"
	}
	if p.NetworkStrength == "" {
		p.NetworkStrength = "moderate"
	}
	if p.LearningMode == "" {
		p.LearningMode = "build-first"
	}
}

// NewProfileID returns a fresh profile identifier.
func NewProfileID() string {
	return uuid.New().String()
}
