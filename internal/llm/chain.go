package llm

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/nichelab/niche-cli/internal/config"
)

// Chain tries models in priority order, returning the first success. Every
// failure advances to the next model; no model is ever retried within one
// call.
type Chain struct {
	completer Completer
	models    []string
	timeout   time.Duration
}

// NewChain creates a Chain over the given completer. models is the ordered
// fallback list; timeout bounds each individual attempt (0 = no per-attempt
// bound).
func NewChain(completer Completer, models []string, timeout time.Duration) *Chain {
	return &Chain{
		completer: completer,
		models:    models,
		timeout:   timeout,
	}
}

// NewChainFromConfig resolves the model list (chains-file preset when
// configured, inline list otherwise) and the per-attempt timeout from cfg.
func NewChainFromConfig(completer Completer, cfg *config.Config) (*Chain, error) {
	models := cfg.LLM.Chain
	if cfg.LLM.ChainsFile != "" {
		presets, err := LoadChains(cfg.LLM.ChainsFile)
		if err != nil {
			return nil, err
		}
		models, err = presets.Select(cfg.LLM.ChainName)
		if err != nil {
			return nil, err
		}
	}
	return NewChain(completer, models, time.Duration(cfg.LLM.RequestTimeoutSecs)*time.Second), nil
}

// Models returns the configured fallback order.
func (c *Chain) Models() []string {
	return c.models
}

// Generate runs the request down the fallback chain and returns the first
// successful response. When req.Primary is set it replaces the head of the
// chain; the shared tail is always inherited. On exhaustion the returned
// error is an *ExhaustedError carrying one Attempt per model tried.
func (c *Chain) Generate(ctx context.Context, req Request) (*Response, error) {
	models := c.models
	if req.Primary != "" {
		if len(models) > 0 {
			models = append([]string{req.Primary}, models[1:]...)
		} else {
			models = []string{req.Primary}
		}
	}
	if len(models) == 0 {
		return nil, eris.New("llm: no models configured")
	}

	var attempts []Attempt
	var lastErr error
	for _, model := range models {
		attemptReq := req
		attemptReq.Model = model
		attemptReq.Primary = ""

		resp, err := c.attempt(ctx, attemptReq)
		if err == nil {
			zap.L().Debug("llm: completion succeeded",
				zap.String("model", model),
				zap.Int("attempts", len(attempts)+1),
				zap.Int64("input_tokens", resp.Usage.InputTokens),
				zap.Int64("output_tokens", resp.Usage.OutputTokens),
			)
			return resp, nil
		}

		zap.L().Warn("llm: model failed, trying next",
			zap.String("model", model),
			zap.Error(err),
		)
		attempts = append(attempts, Attempt{Model: model, Err: err})
		lastErr = err

		if ctx.Err() != nil {
			return nil, eris.Wrap(ctx.Err(), "llm: chain canceled")
		}
	}

	return nil, &ExhaustedError{Attempts: attempts, LastErr: lastErr}
}

// attempt performs one completion call under the per-attempt timeout.
func (c *Chain) attempt(ctx context.Context, req Request) (*Response, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	return c.completer.Complete(ctx, req)
}
