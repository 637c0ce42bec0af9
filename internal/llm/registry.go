package llm

import (
	"context"
	"errors"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/nichelab/niche-cli/internal/config"
	"github.com/nichelab/niche-cli/pkg/anthropic"
	"github.com/nichelab/niche-cli/pkg/openai"
)

// Registry routes provider-prefixed model ids to configured backends.
type Registry struct {
	backends map[string]Completer
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{backends: make(map[string]Completer)}
}

// Register binds a provider prefix to a backend.
func (r *Registry) Register(provider string, c Completer) {
	r.backends[provider] = c
}

// Complete routes the request to the backend owning the model's provider
// prefix. A prefix that routes nowhere is a configuration fault, reported as
// a ProtocolError so the chain can advance past it.
func (r *Registry) Complete(ctx context.Context, req Request) (*Response, error) {
	provider, model := SplitModelID(req.Model)
	backend, ok := r.backends[provider]
	if !ok {
		return nil, NewProtocolError(eris.Errorf("llm: unknown provider %q in model id %q", provider, req.Model))
	}
	req.Model = model
	return backend.Complete(ctx, req)
}

var _ Completer = (*Registry)(nil)

// NewRegistryFromConfig builds a registry with the standard provider set:
// the OpenAI-compatible backends (gemini, openrouter, groq) and the
// Anthropic SDK backend.
func NewRegistryFromConfig(cfg *config.Config) *Registry {
	r := NewRegistry()
	r.Register("gemini", newOpenAIBackend(cfg.Gemini, cfg.LLM.MaxTokens))
	r.Register("openrouter", newOpenAIBackend(cfg.OpenRouter, cfg.LLM.MaxTokens))
	r.Register("groq", newOpenAIBackend(cfg.Groq, cfg.LLM.MaxTokens))
	r.Register("anthropic", &anthropicBackend{
		client:    anthropic.NewClient(cfg.Anthropic.Key),
		maxTokens: int64(cfg.LLM.MaxTokens),
	})
	return r
}

func newOpenAIBackend(pc config.ProviderConfig, maxTokens int) Completer {
	opts := []openai.Option{openai.WithBaseURL(pc.BaseURL)}
	if pc.RPS > 0 {
		opts = append(opts, openai.WithRateLimit(pc.RPS))
	}
	return &openAIBackend{
		client:    openai.NewClient(pc.Key, opts...),
		maxTokens: maxTokens,
	}
}

// openAIBackend adapts pkg/openai to the Completer interface.
type openAIBackend struct {
	client    openai.Client
	maxTokens int
}

func (b *openAIBackend) Complete(ctx context.Context, req Request) (*Response, error) {
	msgs := make([]openai.Message, 0, 2)
	if req.System != "" {
		msgs = append(msgs, openai.Message{Role: "system", Content: req.System})
	}
	msgs = append(msgs, openai.Message{Role: "user", Content: req.Prompt})

	chatReq := openai.ChatCompletionRequest{
		Model:    req.Model,
		Messages: msgs,
	}
	if b.maxTokens > 0 {
		mt := b.maxTokens
		chatReq.MaxTokens = &mt
	}

	resp, err := b.client.ChatCompletion(ctx, chatReq)
	if err != nil {
		return nil, classifyOpenAI(err)
	}
	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		return nil, NewProtocolError(eris.New("llm: empty completion text"))
	}
	return &Response{
		Text:  text,
		Model: req.Model,
		Usage: Usage{
			InputTokens:  int64(resp.Usage.PromptTokens),
			OutputTokens: int64(resp.Usage.CompletionTokens),
		},
	}, nil
}

func classifyOpenAI(err error) error {
	var se *openai.StatusError
	if errors.As(err, &se) {
		return classifyStatus(err, se.StatusCode)
	}
	if errors.Is(err, openai.ErrNoChoices) {
		return NewProtocolError(err)
	}
	return NewTransientError(err, 0)
}

// anthropicBackend adapts pkg/anthropic to the Completer interface.
type anthropicBackend struct {
	client    anthropic.Client
	maxTokens int64
}

func (b *anthropicBackend) Complete(ctx context.Context, req Request) (*Response, error) {
	msgReq := anthropic.MessageRequest{
		Model:     req.Model,
		MaxTokens: b.maxTokens,
		Messages:  []anthropic.Message{{Role: "user", Content: req.Prompt}},
	}
	if req.System != "" {
		msgReq.System = anthropic.BuildCachedSystemBlocks(req.System)
	}

	resp, err := b.client.CreateMessage(ctx, msgReq)
	if err != nil {
		return nil, classifyAnthropic(err)
	}
	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		return nil, NewProtocolError(eris.New("llm: empty completion text"))
	}
	return &Response{
		Text:  text,
		Model: req.Model,
		Usage: Usage{
			InputTokens:  resp.Usage.InputTokens,
			OutputTokens: resp.Usage.OutputTokens,
		},
	}, nil
}

func classifyAnthropic(err error) error {
	var se *anthropic.StatusError
	if errors.As(err, &se) {
		return classifyStatus(err, se.StatusCode)
	}
	return NewTransientError(err, 0)
}
