// Package pipeline runs the staged niche discovery flow: profile analysis,
// market hunting, fit evaluation, roadmap planning, and tooling advice, each
// stage one LLM round-trip whose output feeds the next.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/nichelab/niche-cli/internal/llm"
	"github.com/nichelab/niche-cli/internal/model"
)

// Generator runs one prompt through the model fallback chain.
type Generator interface {
	Generate(ctx context.Context, req llm.Request) (*llm.Response, error)
}

// Pipeline executes the five discovery stages in order against one profile.
type Pipeline struct {
	gen    Generator
	stages []Stage
}

// New assembles the standard five-stage pipeline. stageModels optionally
// pins a preferred head model per stage name; missing entries run the
// chain as configured.
func New(gen Generator, stageModels map[string]string) *Pipeline {
	return &Pipeline{
		gen: gen,
		stages: []Stage{
			&profileAnalyst{primary: stageModels[StageProfileAnalyst]},
			&marketHunter{primary: stageModels[StageMarketHunter]},
			&fitEvaluator{primary: stageModels[StageFitEvaluator]},
			&roadmapArchitect{primary: stageModels[StageRoadmapArchitect]},
			&toolingAdvisor{primary: stageModels[StageToolingAdvisor]},
		},
	}
}

// Result bundles the assembled report with the per-stage execution trace.
type Result struct {
	Report *model.NicheReport
	Trace  []model.TraceEntry
}

// StageError reports which stage aborted a run.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("pipeline: stage %s failed: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// Run executes all stages in order and assembles the final report. The
// first stage failure aborts the run: no partial report is produced, and
// the returned Result carries only the trace collected so far, alongside
// a StageError naming the failed stage.
func (p *Pipeline) Run(ctx context.Context, profile model.FounderProfile, userID, profileID string) (*Result, error) {
	profile.Normalize()
	c := &Context{Profile: profile}

	log := zap.L().With(zap.String("user_id", userID), zap.String("profile_id", profileID))
	log.Info("pipeline: starting discovery")
	start := time.Now()

	for _, s := range p.stages {
		if err := p.runStage(ctx, s, c); err != nil {
			return &Result{Trace: c.Trace}, &StageError{Stage: s.Name(), Err: err}
		}
	}

	report := buildReport(c, userID, profileID)
	log.Info("pipeline: discovery complete",
		zap.String("report_id", report.ID),
		zap.Duration("elapsed", time.Since(start)),
		zap.Int("niches", len(report.RecommendedNiches)),
	)

	return &Result{Report: report, Trace: c.Trace}, nil
}
