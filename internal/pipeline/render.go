package pipeline

import (
	"fmt"
	"strconv"
	"strings"
)

// Prompt rendering helpers. Empty profile fields render as explicit
// placeholders so the model never sees a dangling label.

func textOr(s, fallback string) string {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return s
}

func joined(items []string) string {
	return strings.Join(items, ", ")
}

// renderCandidateList numbers each candidate with the fields the fit
// evaluator needs to judge it.
func renderCandidateList(cands []Candidate) string {
	var b strings.Builder
	for i, c := range cands {
		fmt.Fprintf(&b, "\n%d. %s\n   - Problem: %s\n   - Target: %s\n   - Why fits: %s",
			i+1, c.Name, c.ProblemStatement, c.TargetAudience, c.WhyFitsFounder)
	}
	return b.String()
}

// renderSelectedNiches summarizes the niches a roadmap is being planned for,
// including the fit score when the evaluator produced one.
func renderSelectedNiches(cands []Candidate) string {
	var b strings.Builder
	for _, c := range cands {
		score := "N/A"
		if c.FitScore != nil {
			score = strconv.Itoa(*c.FitScore)
		}
		fmt.Fprintf(&b, "\n- %s: %s\n  Target: %s\n  Fit Score: %s",
			c.Name, c.ProblemStatement, c.TargetAudience, score)
	}
	return b.String()
}

// targetNiches returns the niches downstream stages should plan against:
// the evaluator's picks when present, otherwise the first candidates.
func targetNiches(c *Context, limit int) []Candidate {
	source := c.Selected
	if len(source) == 0 {
		source = c.Candidates
	}
	if len(source) > limit {
		source = source[:limit]
	}
	return source
}
