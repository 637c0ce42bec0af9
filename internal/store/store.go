// Package store persists founder profiles and discovery reports. Two
// backends implement the same interface: SQLite for single-machine use and
// Postgres for shared deployments.
package store

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/nichelab/niche-cli/internal/model"
)

// ErrNotFound reports that the targeted record does not exist. Mutating
// operations wrap it; lookups return (nil, nil) for absence instead.
var ErrNotFound = eris.New("store: not found")

// Store defines the persistence interface for profiles and reports.
// Profiles upsert by user: each user holds at most one. Reports accumulate,
// one per pipeline run.
type Store interface {
	// Profiles
	SaveProfile(ctx context.Context, profile *model.FounderProfile) error
	GetProfile(ctx context.Context, profileID string) (*model.FounderProfile, error)
	LatestProfile(ctx context.Context, userID string) (*model.FounderProfile, error)

	// Reports
	SaveReport(ctx context.Context, report *model.NicheReport) error
	GetReport(ctx context.Context, reportID string) (*model.NicheReport, error)
	ListReports(ctx context.Context, userID string, limit int) ([]model.ReportSummary, error)
	DeleteReport(ctx context.Context, reportID string) error
	UpdateMilestones(ctx context.Context, reportID string, milestones []string) error

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
