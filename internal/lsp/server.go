package lsp

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"

	"specindex/internal/logging"
	"specindex/internal/match"
	"specindex/internal/query"
	"specindex/internal/scan"
)

// SectionLookup is the narrow surface the LSP backend needs from the query
// layer, which lazily invokes the fetch orchestrator and index store behind
// the query-result cache. Satisfied by *query.Service.
type SectionLookup interface {
	Query(ctx context.Context, ref string) (query.QueryResult, error)
}

// Server is the per-process LSP backend state: one scanner shared across
// documents, a per-URI document table, and an unversioned query-result
// cache keyed by (spec, anchor).
type Server struct {
	svc       SectionLookup
	scanner   *scan.Scanner
	threshold float64
	debounce  time.Duration

	// sessionID correlates every log line this process emits back to one
	// editor session, since a user may have several specindex lsp
	// processes running (one per workspace) writing into the same
	// category log file concurrently.
	sessionID string

	out *writer // set by ServeStdio; nil when handleRequest is driven directly in tests

	docsMu sync.Mutex
	docs   map[string]*document

	cacheMu sync.Mutex
	cache   map[string]query.QueryResult

	shutdownRequested bool
}

// NewServer builds a Server. specs feeds the document scanner's URL
// alternation regex; threshold is overridden by
// initializationOptions.fuzzyThreshold when the client supplies it, while
// debounce stays as given here.
func NewServer(svc SectionLookup, scanner *scan.Scanner, threshold float64, debounce time.Duration) *Server {
	if threshold <= 0 {
		threshold = match.DefaultThreshold
	}
	return &Server{
		svc:       svc,
		scanner:   scanner,
		threshold: threshold,
		debounce:  debounce,
		sessionID: uuid.NewString(),
		docs:      make(map[string]*document),
		cache:     make(map[string]query.QueryResult),
	}
}

// position and lspRange mirror the LSP wire types (zero-based line/char).
type position struct {
	Line      int `json:"line"`
	Character int `json:"character"`
}

type lspRange struct {
	Start position `json:"start"`
	End   position `json:"end"`
}

type diagnosticSeverity int

const (
	severityError   diagnosticSeverity = 1
	severityWarning diagnosticSeverity = 2
)

type diagnostic struct {
	Range              lspRange              `json:"range"`
	Severity           diagnosticSeverity    `json:"severity"`
	Message            string                `json:"message"`
	Source             string                `json:"source"`
	RelatedInformation []relatedInformation  `json:"relatedInformation,omitempty"`
}

type relatedInformation struct {
	Message string `json:"message"`
}

// handleRequest dispatches one JSON-RPC request to its handler, returning
// nil for methods that produce no reply (notifications, or requests this
// server intentionally answers with nothing).
func (s *Server) handleRequest(req request) *response {
	switch req.Method {
	case "initialize":
		return s.handleInitialize(req)
	case "initialized":
		return nil
	case "textDocument/didOpen":
		s.handleDidOpen(req)
		return nil
	case "textDocument/didChange":
		s.handleDidChange(req)
		return nil
	case "textDocument/didClose":
		s.handleDidClose(req)
		return nil
	case "textDocument/hover":
		return s.handleHover(req)
	case "textDocument/inlayHint":
		return s.handleInlayHint(req)
	case "textDocument/codeLens":
		return s.handleCodeLens(req)
	case "shutdown":
		s.shutdownRequested = true
		return &response{JSONRPC: "2.0", ID: req.ID, Result: nil}
	case "exit":
		return nil
	default:
		logging.LSPDebug("unhandled method %s", req.Method)
		return nil
	}
}

type initializeParams struct {
	InitializationOptions struct {
		FuzzyThreshold *float64 `json:"fuzzyThreshold"`
	} `json:"initializationOptions"`
}

func (s *Server) handleInitialize(req request) *response {
	var params initializeParams
	json.Unmarshal(req.Params, &params)
	if params.InitializationOptions.FuzzyThreshold != nil {
		s.threshold = *params.InitializationOptions.FuzzyThreshold
	}
	logging.LSP("session %s initialized (fuzzyThreshold=%v)", s.sessionID, s.threshold)
	return &response{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"capabilities": map[string]interface{}{
				"textDocumentSync": 1, // full sync
				"hoverProvider":    true,
				"inlayHintProvider": map[string]interface{}{
					"resolveProvider": false,
				},
				"codeLensProvider": map[string]interface{}{
					"resolveProvider": false,
				},
			},
		},
	}
}
