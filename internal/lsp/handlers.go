package lsp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"specindex/internal/coverage"
	"specindex/internal/match"
)

// hoverTimeout bounds a hover request's lazy section lookup, which may
// trigger a network-backed spec fetch through the query-result cache.
const hoverTimeout = 10 * time.Second

type textDocumentPositionParams struct {
	TextDocument struct {
		URI string `json:"uri"`
	} `json:"textDocument"`
	Position position `json:"position"`
}

func (s *Server) getDocument(uri string) *document {
	s.docsMu.Lock()
	defer s.docsMu.Unlock()
	return s.docs[uri]
}

// handleHover builds a markdown card for whichever of a URL match or a step
// comment the position falls within.
func (s *Server) handleHover(req request) *response {
	var p textDocumentPositionParams
	if err := json.Unmarshal(req.Params, &p); err != nil {
		return &response{JSONRPC: "2.0", ID: req.ID, Result: nil}
	}
	d := s.getDocument(p.TextDocument.URI)
	if d == nil {
		return &response{JSONRPC: "2.0", ID: req.ID, Result: nil}
	}

	d.mu.Lock()
	scopes := d.scopes
	validations := d.validations
	d.mu.Unlock()

	for _, sc := range scopes {
		if withinLineRange(p.Position, sc.URL.Line, sc.URL.Line, sc.URL.ColStart, sc.URL.ColEnd) {
			ctx, cancel := context.WithTimeout(context.Background(), hoverTimeout)
			qr, err := s.lookup(ctx, sc.URL.Spec+"#"+sc.URL.Anchor)
			cancel()
			if err != nil {
				return &response{JSONRPC: "2.0", ID: req.ID, Result: nil}
			}
			return hoverResponse(req.ID, sectionCard(qr.Spec, qr.Section.Anchor, string(qr.Section.Kind), qr.Section.Title, qr.Section.Content))
		}
	}

	for i, sc := range scopes {
		for j, sm := range sc.Steps {
			if withinLineRange(p.Position, sm.Line, sm.EndLine, sm.ColStart, sm.ColEnd) {
				return hoverResponse(req.ID, validationCard(validations[i].results[j]))
			}
		}
	}

	return &response{JSONRPC: "2.0", ID: req.ID, Result: nil}
}

func withinLineRange(pos position, startLine, endLine, colStart, colEnd int) bool {
	if pos.Line < startLine || pos.Line > endLine {
		return false
	}
	if pos.Line == startLine && pos.Character < colStart {
		return false
	}
	if pos.Line == endLine && endLine == startLine && pos.Character > colEnd {
		return false
	}
	return true
}

func hoverResponse(id interface{}, markdown string) *response {
	return &response{
		JSONRPC: "2.0",
		ID:      id,
		Result: map[string]interface{}{
			"contents": map[string]string{
				"kind":  "markdown",
				"value": markdown,
			},
		},
	}
}

// sectionCard renders the hover body for a resolved spec section: title or
// anchor as heading, kind and qualified anchor on one line, then content.
func sectionCard(spec, anchor, kind, title, content string) string {
	heading := title
	if heading == "" {
		heading = anchor
	}
	var b strings.Builder
	fmt.Fprintf(&b, "## %s\n\n", heading)
	fmt.Fprintf(&b, "*%s* — `%s#%s`\n\n", kind, spec, anchor)
	b.WriteString(content)
	return b.String()
}

// validationCard renders the hover body for a step comment's match outcome.
func validationCard(res match.Result) string {
	switch res.Kind {
	case match.Exact:
		return "✓ exact match"
	case match.Fuzzy:
		return "≈ fuzzy match\n\nSpec step: " + res.ExpectedText
	case match.Mismatch:
		return "⚠ mismatch\n\nExpected: " + res.ExpectedText
	case match.NotFound:
		return "⚠ step not found in spec"
	default:
		return ""
	}
}

type inlayHintParams struct {
	TextDocument struct {
		URI string `json:"uri"`
	} `json:"textDocument"`
	Range lspRange `json:"range"`
}

type inlayHint struct {
	Position position `json:"position"`
	Label    string   `json:"label"`
	Tooltip  string   `json:"tooltip,omitempty"`
}

// handleInlayHint returns one hint per validation overlapping range, placed
// at the step's end column.
func (s *Server) handleInlayHint(req request) *response {
	var p inlayHintParams
	if err := json.Unmarshal(req.Params, &p); err != nil {
		return &response{JSONRPC: "2.0", ID: req.ID, Result: []inlayHint{}}
	}
	d := s.getDocument(p.TextDocument.URI)
	if d == nil {
		return &response{JSONRPC: "2.0", ID: req.ID, Result: []inlayHint{}}
	}

	d.mu.Lock()
	scopes := d.scopes
	validations := d.validations
	d.mu.Unlock()

	hints := []inlayHint{}
	for i, sc := range scopes {
		for j, sm := range sc.Steps {
			if sm.Line < p.Range.Start.Line || sm.Line > p.Range.End.Line {
				continue
			}
			res := validations[i].results[j]
			label := " ✓"
			if res.Kind != match.Exact && res.Kind != match.Fuzzy {
				label = " ⚠"
			}
			hints = append(hints, inlayHint{
				Position: position{Line: sm.Line, Character: sm.ColEnd},
				Label:    label,
				Tooltip:  validationCard(res),
			})
		}
	}
	return &response{JSONRPC: "2.0", ID: req.ID, Result: hints}
}

type codeLensParams struct {
	TextDocument struct {
		URI string `json:"uri"`
	} `json:"textDocument"`
}

type command struct {
	Title     string        `json:"title"`
	Command   string        `json:"command"`
	Arguments []interface{} `json:"arguments,omitempty"`
}

type codeLens struct {
	Range   lspRange `json:"range"`
	Command command  `json:"command"`
}

// showCoverageCommandFmt is the custom command name carried in code-lens
// Command objects. The %s placeholder is the CLI binary name.
const showCoverageCommandFmt = "%s.showCoverage"

// handleCodeLens returns one lens per URL match at its line, titled with
// the match's coverage summary.
func (s *Server) handleCodeLens(req request) *response {
	var p codeLensParams
	if err := json.Unmarshal(req.Params, &p); err != nil {
		return &response{JSONRPC: "2.0", ID: req.ID, Result: []codeLens{}}
	}
	d := s.getDocument(p.TextDocument.URI)
	if d == nil {
		return &response{JSONRPC: "2.0", ID: req.ID, Result: []codeLens{}}
	}

	d.mu.Lock()
	scopes := d.scopes
	covs := d.coverages
	d.mu.Unlock()

	lenses := []codeLens{}
	for i, sc := range scopes {
		cov := covs[i]
		lenses = append(lenses, codeLens{
			Range: lspRange{
				Start: position{Line: sc.URL.Line, Character: sc.URL.ColStart},
				End:   position{Line: sc.URL.Line, Character: sc.URL.ColEnd},
			},
			Command: command{
				Title:     cov.Summary(),
				Command:   fmt.Sprintf(showCoverageCommandFmt, "specindex"),
				Arguments: []interface{}{cov.Anchor, cov.Total, missingLabelsAsAny(cov)},
			},
		})
	}
	return &response{JSONRPC: "2.0", ID: req.ID, Result: lenses}
}

func missingLabelsAsAny(cov coverage.Result) []string {
	return cov.MissingLabels()
}
