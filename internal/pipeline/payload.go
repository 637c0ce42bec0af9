package pipeline

import (
	"strconv"
	"strings"
)

// Helpers for reading the loosely typed payloads the extractor returns.
// Models drift on field types, so coercion is deliberately forgiving:
// a missing or mistyped field yields the zero value, never an error.

func stringField(m map[string]any, key string) string {
	if s, ok := m[key].(string); ok {
		return strings.TrimSpace(s)
	}
	return ""
}

// intField reads a numeric field, tolerating the float64 that encoding/json
// produces as well as numbers the model quoted as strings.
func intField(m map[string]any, key string, fallback int) int {
	switch v := m[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	case string:
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return n
		}
	}
	return fallback
}

func stringList(m map[string]any, key string) []string {
	items, ok := m[key].([]any)
	if !ok {
		return []string{}
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func objectList(m map[string]any, key string) []map[string]any {
	items, ok := m[key].([]any)
	if !ok {
		return nil
	}
	out := make([]map[string]any, 0, len(items))
	for _, item := range items {
		if obj, ok := item.(map[string]any); ok {
			out = append(out, obj)
		}
	}
	return out
}

// stringMapList flattens a list of objects into string-to-string maps,
// dropping any non-string values. Used for roadmap resources and roles.
func stringMapList(m map[string]any, key string) []map[string]string {
	items := objectList(m, key)
	out := make([]map[string]string, 0, len(items))
	for _, item := range items {
		entry := make(map[string]string, len(item))
		for k, v := range item {
			if s, ok := v.(string); ok {
				entry[k] = s
			}
		}
		out = append(out, entry)
	}
	return out
}
