package pipeline

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/nichelab/niche-cli/internal/extract"
	"github.com/nichelab/niche-cli/internal/llm"
	"github.com/nichelab/niche-cli/internal/model"
)

// Stage names, in execution order. They key the per-stage model overrides
// in config and identify stages in traces and errors.
const (
	StageProfileAnalyst   = "profile_analyst"
	StageMarketHunter     = "market_hunter"
	StageFitEvaluator     = "fit_evaluator"
	StageRoadmapArchitect = "roadmap_architect"
	StageToolingAdvisor   = "tooling_advisor"
)

// Stage is one step of the discovery pipeline: it renders prompts from the
// accumulated context and folds the model's JSON payload back in.
type Stage interface {
	// Name identifies the stage in traces, logs, and errors.
	Name() string
	// Primary returns the preferred head model for this stage, or "" to run
	// the fallback chain as configured.
	Primary() string
	// Prompts renders the system and user prompts from the context.
	Prompts(c *Context) (system, user string)
	// Merge folds an extracted payload into the context.
	Merge(c *Context, payload map[string]any) error
}

// runStage executes one stage end to end: prompt, completion, extraction,
// merge. A trace entry is appended to the context whether the stage
// succeeded or failed, before any error propagates.
func (p *Pipeline) runStage(ctx context.Context, s Stage, c *Context) error {
	system, user := s.Prompts(c)

	entry := model.TraceEntry{
		Stage:        s.Name(),
		StartedAt:    time.Now().UTC(),
		PromptLength: len(user),
	}

	log := zap.L().With(zap.String("stage", s.Name()))
	log.Info("pipeline: stage starting", zap.Int("prompt_length", entry.PromptLength))

	resp, err := p.gen.Generate(ctx, llm.Request{
		Primary: s.Primary(),
		System:  system,
		Prompt:  user,
	})
	if err == nil {
		entry.ResponseLength = len(resp.Text)
		var payload map[string]any
		if payload, err = extract.Object(resp.Text); err == nil {
			err = s.Merge(c, payload)
		}
	}

	entry.EndedAt = time.Now().UTC()
	entry.Duration = entry.EndedAt.Sub(entry.StartedAt).Milliseconds()

	if err != nil {
		entry.Status = model.StageStatusError
		entry.Error = err.Error()
		c.Trace = append(c.Trace, entry)
		log.Error("pipeline: stage failed",
			zap.Int64("duration_ms", entry.Duration),
			zap.Error(err),
		)
		return err
	}

	entry.Status = model.StageStatusSuccess
	c.Trace = append(c.Trace, entry)
	log.Info("pipeline: stage complete",
		zap.Int64("duration_ms", entry.Duration),
		zap.Int("response_length", entry.ResponseLength),
		zap.String("model", resp.Model),
	)
	return nil
}
