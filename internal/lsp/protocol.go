// Package lsp implements the LSP backend: a single-threaded-per-document,
// cooperative JSON-RPC server over stdio that
// annotates source code referencing spec URLs and algorithm steps with
// hover cards, inlay hints, diagnostics, and code lenses.
//
// The wire loop follows a Content-Length-framed JSON-RPC ServeStdio/
// handleRequest read loop, carrying definitions/references-style requests
// over to spec URL/step validations.
package lsp

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
)

// request is an incoming JSON-RPC call or notification.
type request struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      interface{}     `json:"id,omitempty"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params"`
}

func (r request) isNotification() bool { return r.ID == nil }

// response is an outgoing JSON-RPC reply to a request with an ID.
type response struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      interface{} `json:"id"`
	Result  interface{} `json:"result,omitempty"`
	Error   *rpcError   `json:"error,omitempty"`
}

// notification is an outgoing server-initiated message with no ID, e.g.
// textDocument/publishDiagnostics.
type notification struct {
	JSONRPC string      `json:"jsonrpc"`
	Method  string      `json:"method"`
	Params  interface{} `json:"params"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// writer serializes Content-Length-framed JSON-RPC messages to stdout; the
// protocol requires exactly one writer active at a time.
type writer struct {
	mu sync.Mutex
	w  io.Writer
}

func (w *writer) send(msg interface{}) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	_, err = fmt.Fprintf(w.w, "Content-Length: %d\r\n\r\n%s", len(body), body)
	return err
}

// ServeStdio runs the server's read loop against r, writing framed
// responses and notifications to w, until r is exhausted or returns an
// error other than io.EOF.
func (s *Server) ServeStdio(r io.Reader, w io.Writer) error {
	s.out = &writer{w: w}
	reader := bufio.NewReader(r)

	for {
		req, err := readMessage(reader)
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}
		if req == nil {
			continue
		}

		resp := s.handleRequest(*req)
		if resp == nil || req.isNotification() {
			continue
		}
		if err := s.out.send(resp); err != nil {
			return err
		}
	}
}

// readMessage reads one Content-Length-framed JSON-RPC message. A nil
// request with a nil error means the frame was malformed and should be
// skipped.
func readMessage(reader *bufio.Reader) (*request, error) {
	var contentLength = -1
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			return nil, err
		}
		line = strings.TrimRight(line, "\r\n")
		if line == "" {
			break
		}
		if strings.HasPrefix(line, "Content-Length:") {
			n, err := strconv.Atoi(strings.TrimSpace(strings.TrimPrefix(line, "Content-Length:")))
			if err == nil {
				contentLength = n
			}
		}
	}
	if contentLength < 0 {
		return nil, nil
	}

	body := make([]byte, contentLength)
	if _, err := io.ReadFull(reader, body); err != nil {
		return nil, err
	}

	var req request
	if err := json.Unmarshal(body, &req); err != nil {
		return nil, nil
	}
	return &req, nil
}

func (s *Server) publish(uri string, diagnostics []diagnostic) {
	if s.out == nil {
		return
	}
	s.out.send(notification{
		JSONRPC: "2.0",
		Method:  "textDocument/publishDiagnostics",
		Params: publishDiagnosticsParams{
			URI:         uri,
			Diagnostics: diagnostics,
		},
	})
}

type publishDiagnosticsParams struct {
	URI         string       `json:"uri"`
	Diagnostics []diagnostic `json:"diagnostics"`
}
