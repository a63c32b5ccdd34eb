// Package match implements the step matcher: classifying a source
// comment's text against a spec step's text as Exact, Fuzzy, Mismatch, or
// NotFound.
package match

import (
	"strings"

	"specindex/internal/steps"
)

// Kind classifies the relationship between a source comment and its
// matched spec step.
type Kind string

const (
	Exact    Kind = "exact"
	Fuzzy    Kind = "fuzzy"
	Mismatch Kind = "mismatch"
	NotFound Kind = "not_found"
)

// DefaultThreshold is the default Jaro-Winkler similarity cutoff.
const DefaultThreshold = 0.85

// Result is the outcome of classifying one source comment.
type Result struct {
	Kind         Kind
	ExpectedText string // the spec step's stripped text, for Mismatch hover/diagnostics
}

// Classify runs the six-rule classification against one step. step is nil
// when the comment's step number cannot be found in the spec algorithm
// tree at all.
func Classify(commentText string, step *steps.Step, threshold float64) Result {
	if step == nil {
		return Result{Kind: NotFound}
	}
	c := Normalize(commentText)
	s := Normalize(step.Text)

	if c == "" {
		return Result{Kind: Exact}
	}
	if s == "" {
		return Result{Kind: Mismatch, ExpectedText: step.Text}
	}
	if c == s {
		return Result{Kind: Exact}
	}
	if strings.Contains(s, c) || strings.Contains(c, s) {
		return Result{Kind: Fuzzy, ExpectedText: step.Text}
	}
	if jaroWinkler(c, s) >= threshold {
		return Result{Kind: Fuzzy, ExpectedText: step.Text}
	}
	return Result{Kind: Mismatch, ExpectedText: step.Text}
}

var trailingPunct = " \t\n\r.,:;!?"

// Normalize strips markdown inline formatting, collapses whitespace,
// lowercases, and trims trailing sentence punctuation.
func Normalize(s string) string {
	s = steps.StripInlineMarkdown(s)
	s = strings.Join(strings.Fields(s), " ")
	s = strings.ToLower(s)
	s = strings.TrimRight(s, trailingPunct)
	return s
}
