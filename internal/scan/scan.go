// Package scan implements the document scanner: a regex URL scan and a
// line-oriented step-comment scan over arbitrary source-code text, plus the
// scope-building pass that pairs each step comment with its nearest
// preceding URL reference.
package scan

import (
	"regexp"
	"strconv"
	"strings"

	"specindex/internal/config"
)

// URLMatch is one recognized spec URL reference in source text.
type URLMatch struct {
	Line, ColStart, ColEnd int
	Spec, Anchor, URL      string
}

// StepMatch is one recognized step-comment header, plus any continuation
// lines folded into its text.
type StepMatch struct {
	Line, ColStart, ColEnd int
	EndLine                int
	Number                 []int
	Text                   string
}

// Scope pairs a URL match with the step comments that follow it, up to the
// next URL match.
type Scope struct {
	URL   URLMatch
	Steps []StepMatch
}

// Scanner holds the startup-built URL regex for a fixed set of configured
// specs.
type Scanner struct {
	urlRe *regexp.Regexp
	specs []config.SpecEntry
}

// NewScanner builds the URL-matching regex from the configured spec base
// URLs, escaped and joined by '|'.
func NewScanner(specs []config.SpecEntry) *Scanner {
	alts := make([]string, len(specs))
	for i, s := range specs {
		alts[i] = regexp.QuoteMeta(strings.TrimRight(s.BaseURL, "/"))
	}
	pattern := `(?:` + strings.Join(alts, "|") + `)(?:/[^\s#"')<>]*)?#[A-Za-z0-9_:.\-]+`
	return &Scanner{urlRe: regexp.MustCompile(pattern), specs: specs}
}

// ScanURLs finds every recognized spec URL in text, per line and column.
func (s *Scanner) ScanURLs(text string) []URLMatch {
	var out []URLMatch
	for lineNo, line := range strings.Split(text, "\n") {
		for _, loc := range s.urlRe.FindAllStringIndex(line, -1) {
			url := line[loc[0]:loc[1]]
			frag := strings.Index(url, "#")
			if frag < 0 {
				continue
			}
			base := url[:frag]
			specName := s.specFor(base)
			if specName == "" {
				continue
			}
			out = append(out, URLMatch{
				Line: lineNo, ColStart: loc[0], ColEnd: loc[1],
				Spec: specName, Anchor: url[frag+1:], URL: url,
			})
		}
	}
	return out
}

func (s *Scanner) specFor(urlPrefix string) string {
	for _, spec := range s.specs {
		if strings.HasPrefix(urlPrefix, strings.TrimRight(spec.BaseURL, "/")) {
			return spec.Name
		}
	}
	return ""
}

var commentLeaders = []*regexp.Regexp{
	regexp.MustCompile(`^\s*//\s?`),
	regexp.MustCompile(`^\s*#\s?`),
	regexp.MustCompile(`^\s*;+\s?`),
	regexp.MustCompile(`^\s*/\*+\s?`),
	regexp.MustCompile(`^\s*\*\s?`),
}

// stripLeader removes a comment leader from a line, if present, returning
// the remainder and its column offset.
func stripLeader(line string) (body string, col int, ok bool) {
	for _, re := range commentLeaders {
		if loc := re.FindStringIndex(line); loc != nil {
			return line[loc[1]:], loc[1], true
		}
	}
	return "", 0, false
}

var stepHeaderRe = regexp.MustCompile(`^(Step\s+)?(\d+(?:\.\d+)*)(\.)?(?:\s+(.*))?$`)

// ScanSteps finds every step-comment header in text and folds in its
// continuation lines.
func ScanSteps(text string) []StepMatch {
	lines := strings.Split(text, "\n")
	var out []StepMatch
	i := 0
	for i < len(lines) {
		body, col, ok := stripLeader(lines[i])
		if !ok {
			i++
			continue
		}
		m := stepHeaderRe.FindStringSubmatch(strings.TrimRight(body, " \t"))
		if m == nil || !acceptStepHeader(m) {
			i++
			continue
		}
		sm := StepMatch{
			Line: i, ColStart: col, ColEnd: col + len(body),
			EndLine: i, Number: parseNumber(m[2]), Text: strings.TrimSpace(m[4]),
		}
		i++
		for i < len(lines) {
			nextBody, _, nextOK := stripLeader(lines[i])
			if !nextOK {
				break
			}
			if nm := stepHeaderRe.FindStringSubmatch(strings.TrimRight(nextBody, " \t")); nm != nil && acceptStepHeader(nm) {
				break
			}
			trimmed := strings.TrimSpace(nextBody)
			if trimmed == "" {
				break
			}
			if sm.Text == "" {
				sm.Text = trimmed
			} else {
				sm.Text += " " + trimmed
			}
			sm.EndLine = i
			i++
		}
		out = append(out, sm)
	}
	return out
}

// acceptStepHeader implements the "bare '5 foo' is not a step" rule:
// require a Step prefix, a multi-part number, or a trailing dot.
func acceptStepHeader(m []string) bool {
	hasStepPrefix := m[1] != ""
	isMultiPart := strings.Contains(m[2], ".")
	hasTrailingDot := m[3] == "."
	return hasStepPrefix || isMultiPart || hasTrailingDot
}

func parseNumber(raw string) []int {
	parts := strings.Split(raw, ".")
	nums := make([]int, len(parts))
	for i, p := range parts {
		n, _ := strconv.Atoi(p)
		nums[i] = n
	}
	return nums
}

// BuildScopes pairs each step match with the most recent URL match at or
// before its line; steps before the first URL match are orphaned and
// omitted.
func BuildScopes(urls []URLMatch, stepMatches []StepMatch) []Scope {
	if len(urls) == 0 {
		return nil
	}
	scopes := make([]Scope, len(urls))
	for i, u := range urls {
		scopes[i].URL = u
	}
	for _, sm := range stepMatches {
		owner := -1
		for i, u := range urls {
			if u.Line <= sm.Line {
				owner = i
			} else {
				break
			}
		}
		if owner < 0 {
			continue
		}
		scopes[owner].Steps = append(scopes[owner].Steps, sm)
	}
	return scopes
}
