// Package extract recovers structured JSON payloads from raw LLM completion
// text, which routinely wraps the object in markdown fences or surrounds it
// with prose.
package extract

import (
	"encoding/json"
	"strings"
)

// snippetLen caps how much of the raw response an UnparsableError carries.
const snippetLen = 200

// UnparsableError reports that no JSON object could be recovered from a
// model response. Snippet holds the start of the offending text for logs.
type UnparsableError struct {
	Snippet string
}

func (e *UnparsableError) Error() string {
	return "extract: could not parse JSON from response: " + e.Snippet
}

// Object extracts a single JSON object from raw model output. Candidate
// regions are tried in order of reliability: a ```json fence, any ``` fence,
// the whole trimmed text, and finally the first balanced {...} region. A
// candidate that fails to parse falls through to the next; if none parses,
// Object returns an *UnparsableError.
func Object(raw string) (map[string]any, error) {
	text := strings.TrimSpace(raw)

	for _, candidate := range candidates(text) {
		payload := map[string]any{}
		if err := json.Unmarshal([]byte(candidate), &payload); err == nil {
			return payload, nil
		}
	}

	snippet := text
	if len(snippet) > snippetLen {
		snippet = snippet[:snippetLen]
	}
	return nil, &UnparsableError{Snippet: snippet}
}

func candidates(text string) []string {
	out := make([]string, 0, 4)
	if block, ok := fencedBlock(text, "```json"); ok {
		out = append(out, block)
	}
	if block, ok := fencedBlock(text, "```"); ok {
		out = append(out, block)
	}
	out = append(out, text)
	if obj, ok := balancedObject(text); ok {
		out = append(out, obj)
	}
	return out
}

// fencedBlock returns the contents of the first markdown fence opened by
// marker. The fence may appear anywhere in the text, not just at the start.
func fencedBlock(text, marker string) (string, bool) {
	start := strings.Index(text, marker)
	if start < 0 {
		return "", false
	}
	rest := text[start+len(marker):]
	end := strings.Index(rest, "```")
	if end < 0 {
		return "", false
	}
	return strings.TrimSpace(rest[:end]), true
}

// balancedObject scans for the first balanced top-level {...} region. The
// scan tracks string and escape state so that braces inside quoted values
// do not throw off the depth count, which matters for responses where the
// object is followed by prose containing stray braces.
func balancedObject(text string) (string, bool) {
	depth := 0
	start := -1
	inString := false
	escaped := false

	for i, r := range text {
		if inString {
			switch {
			case escaped:
				escaped = false
			case r == '\\':
				escaped = true
			case r == '"':
				inString = false
			}
			continue
		}
		switch r {
		case '"':
			inString = true
		case '{':
			if depth == 0 {
				start = i
			}
			depth++
		case '}':
			if depth == 0 {
				continue
			}
			depth--
			if depth == 0 {
				return strings.TrimSpace(text[start : i+1]), true
			}
		}
	}
	return "", false
}
