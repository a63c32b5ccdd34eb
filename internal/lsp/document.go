package lsp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"specindex/internal/coverage"
	"specindex/internal/logging"
	"specindex/internal/match"
	"specindex/internal/query"
	"specindex/internal/scan"
	"specindex/internal/steps"
)

// analyzeTimeout bounds one didChange analysis run, including any lazy
// spec fetch the query-result cache triggers.
const analyzeTimeout = 30 * time.Second

// scopeValidation is the per-scope outcome of validate_doc: the spec step
// tree looked up for the scope's URL anchor, and one match.Result per
// step comment in the scope, aligned with scope.Steps.
type scopeValidation struct {
	scope   scan.Scope
	tree    []*steps.Step
	results []match.Result
}

// document holds one open file's latest text plus the cached outputs of
// the per-document analysis pipeline: URL matches, scopes, step
// validations, and coverage, all keyed by the document's current version.
type document struct {
	mu      sync.Mutex
	uri     string
	version int
	text    string

	urlMatches  []scan.URLMatch
	scopes      []scan.Scope
	validations []scopeValidation
	coverages   []coverage.Result

	timer *time.Timer
}

type didOpenParams struct {
	TextDocument struct {
		URI     string `json:"uri"`
		Version int    `json:"version"`
		Text    string `json:"text"`
	} `json:"textDocument"`
}

func (s *Server) handleDidOpen(req request) {
	var p didOpenParams
	if err := json.Unmarshal(req.Params, &p); err != nil {
		return
	}
	s.docsMu.Lock()
	d := &document{uri: p.TextDocument.URI, version: p.TextDocument.Version, text: p.TextDocument.Text}
	s.docs[d.uri] = d
	s.docsMu.Unlock()

	s.scheduleAnalysis(d)
}

type didChangeParams struct {
	TextDocument struct {
		URI     string `json:"uri"`
		Version int    `json:"version"`
	} `json:"textDocument"`
	ContentChanges []struct {
		Text string `json:"text"`
	} `json:"contentChanges"`
}

// handleDidChange records the new text immediately and (re)schedules
// analysis after the debounce window; a newer change within the window
// cancels the pending run by replacing its timer.
func (s *Server) handleDidChange(req request) {
	var p didChangeParams
	if err := json.Unmarshal(req.Params, &p); err != nil {
		return
	}
	if len(p.ContentChanges) == 0 {
		return
	}

	s.docsMu.Lock()
	d, ok := s.docs[p.TextDocument.URI]
	if !ok {
		d = &document{uri: p.TextDocument.URI}
		s.docs[d.uri] = d
	}
	s.docsMu.Unlock()

	d.mu.Lock()
	d.text = p.ContentChanges[0].Text
	d.version = p.TextDocument.Version
	if d.timer != nil {
		d.timer.Stop()
	}
	d.mu.Unlock()

	s.scheduleAnalysis(d)
}

type didCloseParams struct {
	TextDocument struct {
		URI string `json:"uri"`
	} `json:"textDocument"`
}

// handleDidClose clears all per-URI caches and publishes an empty
// diagnostic set.
func (s *Server) handleDidClose(req request) {
	var p didCloseParams
	if err := json.Unmarshal(req.Params, &p); err != nil {
		return
	}
	s.docsMu.Lock()
	if d, ok := s.docs[p.TextDocument.URI]; ok {
		d.mu.Lock()
		if d.timer != nil {
			d.timer.Stop()
		}
		d.mu.Unlock()
	}
	delete(s.docs, p.TextDocument.URI)
	s.docsMu.Unlock()

	s.publish(p.TextDocument.URI, nil)
}

// scheduleAnalysis arms the debounce timer for d, capturing d's version at
// schedule time so a stale run (superseded by a newer didChange) is
// detected and dropped rather than publishing out-of-order diagnostics.
func (s *Server) scheduleAnalysis(d *document) {
	d.mu.Lock()
	version := d.version
	uri := d.uri
	d.timer = time.AfterFunc(s.debounce, func() {
		s.analyze(uri, version)
	})
	d.mu.Unlock()
}

// analyze runs the per-document pipeline (scan_doc, validate_doc,
// coverage_doc) and publishes diagnostics, unless a newer version has
// since arrived for this document.
func (s *Server) analyze(uri string, version int) {
	s.docsMu.Lock()
	d, ok := s.docs[uri]
	s.docsMu.Unlock()
	if !ok {
		return
	}

	d.mu.Lock()
	if d.version != version {
		d.mu.Unlock()
		return
	}
	text := d.text
	d.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), analyzeTimeout)
	defer cancel()

	urlMatches := s.scanner.ScanURLs(text)
	stepMatches := scan.ScanSteps(text)
	scopes := scan.BuildScopes(urlMatches, stepMatches)

	validations := make([]scopeValidation, len(scopes))
	coverages := make([]coverage.Result, len(scopes))
	for i, sc := range scopes {
		validations[i] = s.validateScope(ctx, sc)
		coverages[i] = coverage.Compute(sc.URL.Anchor, validations[i].tree, toValidations(sc, validations[i].results))
	}

	d.mu.Lock()
	if d.version != version {
		// Superseded while we were computing; drop this stale result.
		d.mu.Unlock()
		return
	}
	d.urlMatches = urlMatches
	d.scopes = scopes
	d.validations = validations
	d.coverages = coverages
	d.mu.Unlock()

	s.publish(uri, buildDiagnostics(scopes, validations))
}

// validateScope implements validate_doc for one scope: look up the spec
// section for the scope's URL (via the query-result cache, lazily invoking
// the fetch orchestrator and index store), parse its content into a step
// tree, and classify every step comment in the scope against it.
func (s *Server) validateScope(ctx context.Context, sc scan.Scope) scopeValidation {
	qr, err := s.lookup(ctx, sc.URL.Spec+"#"+sc.URL.Anchor)
	if err != nil {
		logging.LSP("skipping validation for %s#%s: %v", sc.URL.Spec, sc.URL.Anchor, err)
		tree := []*steps.Step(nil)
		results := make([]match.Result, len(sc.Steps))
		for i := range results {
			results[i] = match.Classify(sc.Steps[i].Text, nil, s.threshold)
		}
		return scopeValidation{scope: sc, tree: tree, results: results}
	}

	tree := steps.Parse(qr.Section.Content)
	results := make([]match.Result, len(sc.Steps))
	for i, sm := range sc.Steps {
		found := steps.FindStep(tree, sm.Number)
		results[i] = match.Classify(sm.Text, found, s.threshold)
	}
	return scopeValidation{scope: sc, tree: tree, results: results}
}

// lookup resolves a spec#anchor reference through the server's unversioned
// query-result cache: it has no versioning of its own, since spec content
// only changes via the fetch orchestrator.
func (s *Server) lookup(ctx context.Context, ref string) (query.QueryResult, error) {
	s.cacheMu.Lock()
	if qr, ok := s.cache[ref]; ok {
		s.cacheMu.Unlock()
		return qr, nil
	}
	s.cacheMu.Unlock()

	qr, err := s.svc.Query(ctx, ref)
	if err != nil {
		return query.QueryResult{}, err
	}

	s.cacheMu.Lock()
	s.cache[ref] = qr
	s.cacheMu.Unlock()
	return qr, nil
}

func toValidations(sc scan.Scope, results []match.Result) []coverage.Validation {
	out := make([]coverage.Validation, len(sc.Steps))
	for i, sm := range sc.Steps {
		out[i] = coverage.Validation{Number: sm.Number, Result: results[i]}
	}
	return out
}

func buildDiagnostics(scopes []scan.Scope, validations []scopeValidation) []diagnostic {
	var out []diagnostic
	for i, sc := range scopes {
		for j, sm := range sc.Steps {
			res := validations[i].results[j]
			if res.Kind == match.Exact || res.Kind == match.Fuzzy {
				continue
			}
			d := diagnostic{
				Range: lspRange{
					Start: position{Line: sm.Line, Character: sm.ColStart},
					End:   position{Line: sm.Line, Character: sm.ColEnd},
				},
				Severity: severityWarning,
				Source:   "specindex",
				Message:  diagnosticMessage(res),
			}
			if res.Kind == match.Mismatch && res.ExpectedText != "" {
				d.RelatedInformation = []relatedInformation{{Message: "expected: " + res.ExpectedText}}
			}
			out = append(out, d)
		}
	}
	return out
}

func diagnosticMessage(res match.Result) string {
	switch res.Kind {
	case match.Mismatch:
		return fmt.Sprintf("step comment does not match spec step %s", strings.TrimSpace(res.ExpectedText))
	case match.NotFound:
		return "step number not found in spec algorithm"
	default:
		return "step comment does not match spec"
	}
}
