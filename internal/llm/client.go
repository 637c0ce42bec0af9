// Package llm routes completion requests to heterogeneous LLM providers and
// runs them through an ordered fallback chain.
package llm

import (
	"context"
	"strings"
)

// Request is a single completion request. Model carries the
// provider-prefixed model id; the chain fills it in per attempt. Primary,
// when set, replaces the head of the fallback chain for this call only.
type Request struct {
	Model   string
	Primary string
	System  string
	Prompt  string
}

// Usage reports provider token consumption when available.
type Usage struct {
	InputTokens  int64
	OutputTokens int64
}

// Response is the raw completion result.
type Response struct {
	Text  string
	Model string
	Usage Usage
}

// Completer executes exactly one completion call against one model. One
// invocation means one outbound network call, whatever the outcome.
type Completer interface {
	Complete(ctx context.Context, req Request) (*Response, error)
}

// SplitModelID splits a provider-prefixed model id on the first slash. The
// remainder may itself contain slashes
// (e.g. "openrouter/openai/gpt-oss-20b" → "openrouter", "openai/gpt-oss-20b").
func SplitModelID(id string) (provider, model string) {
	i := strings.Index(id, "/")
	if i < 0 {
		return "", id
	}
	return id[:i], id[i+1:]
}
