// Package mcp exposes the document index to MCP clients over stdio
// (newline-delimited JSON-RPC 2.0).
package mcp

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	hebrew "github.com/sameertanveer602-cmyk/Hebrew"
)

// Index is the part of the engine the tools call into.
type Index interface {
	Search(ctx context.Context, query string, topK int) (hebrew.SearchResult, error)
	Retrieve(ctx context.Context, query string, topK int) ([]hebrew.RetrievedChunk, error)
	Len() int
	ProviderName() string
}

// Server answers MCP requests against one Index.
type Server struct {
	index   Index
	name    string
	version string
	logger  *slog.Logger

	reader io.Reader
	writer io.Writer
	mu     sync.Mutex // serialises writes
}

// Option configures a Server.
type Option func(*Server)

// WithIO replaces stdin and stdout.
func WithIO(r io.Reader, w io.Writer) Option {
	return func(s *Server) { s.reader, s.writer = r, w }
}

// WithVersion sets the version reported in serverInfo.
func WithVersion(v string) Option {
	return func(s *Server) { s.version = v }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// New creates a server named "hebrag" reading from stdin.
func New(idx Index, opts ...Option) *Server {
	s := &Server{
		index:   idx,
		name:    "hebrag",
		version: "dev",
		logger:  nopLogger,
		reader:  os.Stdin,
		writer:  os.Stdout,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Serve handles requests until the reader is exhausted or ctx is done.
func (s *Server) Serve(ctx context.Context) error {
	scanner := bufio.NewScanner(s.reader)
	scanner.Buffer(make([]byte, 0, 64*1024), 10*1024*1024)

	for scanner.Scan() {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		if line[0] == '[' {
			s.handleBatch(ctx, line)
			continue
		}
		if resp := s.handle(ctx, line); resp != nil {
			s.write(resp)
		}
	}
	return scanner.Err()
}

func (s *Server) handleBatch(ctx context.Context, line []byte) {
	var raws []json.RawMessage
	if err := json.Unmarshal(line, &raws); err != nil || len(raws) == 0 {
		s.write(&response{JSONRPC: "2.0", ID: json.RawMessage("null"),
			Error: &rpcError{Code: codeInvalidRequest, Message: "invalid batch"}})
		return
	}
	var out []*response
	for _, raw := range raws {
		if resp := s.handle(ctx, raw); resp != nil {
			out = append(out, resp)
		}
	}
	if len(out) > 0 {
		s.write(out)
	}
}

// handle returns nil for notifications.
func (s *Server) handle(ctx context.Context, raw []byte) *response {
	var req request
	if err := json.Unmarshal(raw, &req); err != nil {
		return &response{JSONRPC: "2.0", ID: json.RawMessage("null"),
			Error: &rpcError{Code: codeParseError, Message: "parse error"}}
	}
	if req.isNotification() {
		s.logger.Debug("mcp notification", "method", req.Method)
		return nil
	}

	result, rerr := s.dispatch(ctx, req)
	resp := &response{JSONRPC: "2.0", ID: req.ID}
	if rerr != nil {
		resp.Error = rerr
	} else {
		resp.Result = result
	}
	return resp
}

func (s *Server) dispatch(ctx context.Context, req request) (any, *rpcError) {
	switch req.Method {
	case "initialize":
		return initializeResult{
			ProtocolVersion: protocolVersion,
			Capabilities:    capabilities{Tools: &struct{}{}, Resources: &struct{}{}},
			ServerInfo:      serverInfo{Name: s.name, Version: s.version},
		}, nil
	case "ping":
		return struct{}{}, nil
	case "tools/list":
		return map[string]any{"tools": tools}, nil
	case "tools/call":
		var p callParams
		if err := json.Unmarshal(req.Params, &p); err != nil {
			return nil, &rpcError{Code: codeInvalidParams, Message: "invalid params"}
		}
		s.logger.Info("mcp tool call", "tool", p.Name)
		return s.call(ctx, p.Name, p.Arguments), nil
	case "resources/list":
		return map[string]any{"resources": []Resource{indexResource}}, nil
	case "resources/read":
		var p readParams
		if err := json.Unmarshal(req.Params, &p); err != nil {
			return nil, &rpcError{Code: codeInvalidParams, Message: "invalid params"}
		}
		if p.URI != indexResource.URI {
			return nil, &rpcError{Code: codeInvalidParams, Message: fmt.Sprintf("unknown resource: %s", p.URI)}
		}
		rc, err := s.readIndex()
		if err != nil {
			s.logger.Error("mcp read resource", "uri", p.URI, "error", err)
			return nil, &rpcError{Code: codeInternalError, Message: err.Error()}
		}
		return map[string]any{"contents": []resourceContents{rc}}, nil
	default:
		return nil, &rpcError{Code: codeMethodNotFound, Message: fmt.Sprintf("method not found: %s", req.Method)}
	}
}

func (s *Server) write(v any) {
	data, err := json.Marshal(v)
	if err != nil {
		s.logger.Error("mcp marshal response", "error", err)
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	data = append(data, '\n')
	if _, err := s.writer.Write(data); err != nil {
		s.logger.Error("mcp write response", "error", err)
	}
}

// trimQuery returns the trimmed query argument or an error result.
func trimQuery(q string) (string, *CallResult) {
	q = strings.TrimSpace(q)
	if q == "" {
		r := errorResult("query is required")
		return "", &r
	}
	return q, nil
}

var nopLogger = slog.New(discardHandler{})

type discardHandler struct{}

func (discardHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (discardHandler) Handle(context.Context, slog.Record) error { return nil }
func (d discardHandler) WithAttrs([]slog.Attr) slog.Handler      { return d }
func (d discardHandler) WithGroup(string) slog.Handler            { return d }
