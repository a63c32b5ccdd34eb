package scan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"specindex/internal/config"
)

func testSpecs() []config.SpecEntry {
	return []config.SpecEntry{
		{Name: "HTML", BaseURL: "https://html.spec.whatwg.org"},
		{Name: "DOM", BaseURL: "https://dom.spec.whatwg.org"},
	}
}

func TestScanURLs(t *testing.T) {
	src := "// see https://dom.spec.whatwg.org/#dom-document for reference\nfunc f() {}\n"
	s := NewScanner(testSpecs())
	matches := s.ScanURLs(src)
	require.Len(t, matches, 1)
	assert.Equal(t, "DOM", matches[0].Spec)
	assert.Equal(t, "dom-document", matches[0].Anchor)
}

func TestScanStepsAcceptsStepPrefixAndMultiPart(t *testing.T) {
	src := "// Step 1. Let x be 1\n// 2.1 Let y be 2\n// 5 foo\n"
	steps := ScanSteps(src)
	require.Len(t, steps, 2, "expected 2 accepted step headers")
	assert.Equal(t, "Let x be 1", steps[0].Text)
	require.Len(t, steps[1].Number, 2)
	assert.Equal(t, 2, steps[1].Number[0])
	assert.Equal(t, 1, steps[1].Number[1])
}

func TestScanStepsContinuation(t *testing.T) {
	src := "// Step 1. Let x be 1,\n// continued here\nfunc f() {}\n"
	steps := ScanSteps(src)
	require.Len(t, steps, 1)
	assert.Equal(t, "Let x be 1, continued here", steps[0].Text)
	assert.Equal(t, 1, steps[0].EndLine)
}

func TestBuildScopesOrphansBeforeFirstURL(t *testing.T) {
	urls := []URLMatch{{Line: 2, Spec: "DOM", Anchor: "x"}}
	stepMatches := []StepMatch{{Line: 0}, {Line: 3}}
	scopes := BuildScopes(urls, stepMatches)
	require.Len(t, scopes, 1)
	require.Len(t, scopes[0].Steps, 1, "expected only the step after the URL to be scoped")
	assert.Equal(t, 3, scopes[0].Steps[0].Line)
}
