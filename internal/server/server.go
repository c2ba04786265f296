// Package server exposes the engine over a JSON HTTP API.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"

	hebrew "github.com/sameertanveer602-cmyk/Hebrew"
	"github.com/sameertanveer602-cmyk/Hebrew/engine"
	"github.com/sameertanveer602-cmyk/Hebrew/ingest"
	"github.com/sameertanveer602-cmyk/Hebrew/ingest/web"
	"github.com/sameertanveer602-cmyk/Hebrew/observer"
)

const (
	maxJSONBytes   = 8 << 20
	maxUploadBytes = 64 << 20
)

// Server serialises ingestion against queries: uploads take the write
// lock, searches share the read lock.
type Server struct {
	mu        sync.RWMutex
	engine    *engine.Engine
	sessions  hebrew.SessionStore
	fetcher   *web.Fetcher
	inst      *observer.Instruments
	indexPath string
	logger    *slog.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithSessions sets the chat history store. Without one, /chat answers
// but keeps no history beyond the current exchange.
func WithSessions(s hebrew.SessionStore) Option {
	return func(srv *Server) { srv.sessions = s }
}

// WithIndexPath makes the server save the index under base after every
// successful ingest.
func WithIndexPath(base string) Option {
	return func(srv *Server) { srv.indexPath = base }
}

// WithFetcher replaces the page fetcher used by /upload-url.
func WithFetcher(f *web.Fetcher) Option {
	return func(srv *Server) { srv.fetcher = f }
}

// WithInstruments records ingest metrics.
func WithInstruments(inst *observer.Instruments) Option {
	return func(srv *Server) { srv.inst = inst }
}

// WithLogger sets the structured logger. Defaults to a no-op logger.
func WithLogger(l *slog.Logger) Option {
	return func(srv *Server) { srv.logger = l }
}

// New creates a server around e.
func New(e *engine.Engine, opts ...Option) *Server {
	s := &Server{engine: e, logger: nopLogger}
	for _, opt := range opts {
		opt(s)
	}
	if s.fetcher == nil {
		s.fetcher = web.New(web.WithLogger(s.logger))
	}
	return s
}

// Handler returns the routed API with permissive CORS.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /upload", s.handleUpload)
	mux.HandleFunc("POST /upload-file", s.handleUploadFile)
	mux.HandleFunc("POST /upload-url", s.handleUploadURL)
	mux.HandleFunc("POST /search", s.handleSearch)
	mux.HandleFunc("POST /chat", s.handleChat)
	mux.HandleFunc("GET /health", s.handleHealth)
	return cors(mux)
}

type uploadMetadata struct {
	DocID   string   `json:"doc_id"`
	Chapter string   `json:"chapter,omitempty"`
	Section string   `json:"section,omitempty"`
	Tags    []string `json:"tags,omitempty"`
}

type uploadRequest struct {
	Filename     string          `json:"filename"`
	Content      string          `json:"content"`
	Metadata     *uploadMetadata `json:"metadata"`
	ChunkSize    *int            `json:"chunk_size"`
	ChunkOverlap *int            `json:"chunk_overlap"`
}

type uploadURLRequest struct {
	URL          string `json:"url"`
	DocID        string `json:"doc_id"`
	ChunkSize    *int   `json:"chunk_size"`
	ChunkOverlap *int   `json:"chunk_overlap"`
}

type uploadResponse struct {
	Status      string `json:"status"`
	TotalChunks int    `json:"total_chunks"`
	DocID       string `json:"doc_id"`
	Warning     string `json:"warning,omitempty"`
}

type searchRequest struct {
	Query          string `json:"query"`
	TopK           int    `json:"top_k"`
	IncludeSources *bool  `json:"include_sources"`
}

type chatRequest struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
	TopK      int    `json:"top_k"`
}

type chatResponse struct {
	SessionID string                  `json:"session_id"`
	Answer    string                  `json:"answer"`
	History   []hebrew.Message        `json:"history"`
	Sources   []hebrew.RetrievedChunk `json:"sources"`
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	var req uploadRequest
	if !decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Content) == "" {
		writeError(w, http.StatusBadRequest, "content is required")
		return
	}

	docID := hebrew.NewID()
	meta := map[string]any{}
	if req.Filename != "" {
		meta["filename"] = req.Filename
	}
	if m := req.Metadata; m != nil {
		if m.DocID != "" {
			docID = m.DocID
		}
		if m.Chapter != "" {
			meta["chapter"] = m.Chapter
		}
		if m.Section != "" {
			meta["section"] = m.Section
		}
		if len(m.Tags) > 0 {
			meta["tags"] = m.Tags
		}
	}
	size, overlap := window(req.ChunkSize, req.ChunkOverlap)

	s.ingest(w, r.Context(), docID, "text", func(ctx context.Context) (int, error) {
		return s.engine.AddText(ctx, req.Content, docID, meta, size, overlap)
	})
}

func (s *Server) handleUploadFile(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "multipart field \"file\" is required")
		return
	}
	defer file.Close()

	name := filepath.Base(header.Filename)
	if !strings.EqualFold(filepath.Ext(name), ".pdf") {
		writeError(w, http.StatusBadRequest, "Only PDF files are supported.")
		return
	}

	tmp, err := os.CreateTemp("", "hebrag-upload-*.pdf")
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	defer os.Remove(tmp.Name())
	_, err = io.Copy(tmp, file)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "store upload: "+err.Error())
		return
	}

	s.ingest(w, r.Context(), name, "pdf", func(ctx context.Context) (int, error) {
		return s.engine.AddDocument(ctx, tmp.Name(), name)
	})
}

func (s *Server) handleUploadURL(w http.ResponseWriter, r *http.Request) {
	var req uploadURLRequest
	if !decode(w, r, &req) {
		return
	}
	if req.URL == "" {
		writeError(w, http.StatusBadRequest, "url is required")
		return
	}
	page, err := s.fetcher.Fetch(r.Context(), req.URL)
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	if page.Text == "" {
		writeError(w, http.StatusUnprocessableEntity, "page has no readable text")
		return
	}

	docID := req.DocID
	if docID == "" {
		docID = req.URL
	}
	meta := map[string]any{"url": req.URL}
	if page.Title != "" {
		meta["title"] = page.Title
	}
	size, overlap := window(req.ChunkSize, req.ChunkOverlap)

	s.ingest(w, r.Context(), docID, "web", func(ctx context.Context) (int, error) {
		return s.engine.AddLogicalText(ctx, page.Text, docID, meta, size, overlap)
	})
}

// ingest runs add under the write lock, saves the index and writes the
// upload response. A failed save does not undo the add: the response
// still reports success and carries a warning.
func (s *Server) ingest(w http.ResponseWriter, ctx context.Context, docID, source string, add func(context.Context) (int, error)) {
	s.mu.Lock()
	n, err := add(ctx)
	var saveErr error
	if err == nil && s.indexPath != "" {
		saveErr = s.engine.Save(s.indexPath)
	}
	s.mu.Unlock()

	if err != nil {
		s.logger.Error("ingest failed", "doc_id", docID, "source", source, "error", err)
		writeError(w, ingestStatus(err), err.Error())
		return
	}
	if s.inst != nil {
		s.inst.RecordIngest(ctx, docID, source, n)
	}
	resp := uploadResponse{Status: "success", TotalChunks: n, DocID: docID}
	if saveErr != nil {
		s.logger.Warn("index not saved", "doc_id", docID, "path", s.indexPath, "error", saveErr)
		resp.Warning = "chunks indexed but not saved: " + saveErr.Error()
	}
	writeJSON(w, http.StatusOK, resp)
}

func ingestStatus(err error) int {
	if errors.Is(err, ingest.ErrChunkConfig) || errors.Is(err, ingest.ErrEmptyDocument) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if !decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		writeError(w, http.StatusBadRequest, "query is required")
		return
	}

	s.mu.RLock()
	res, err := s.engine.Search(r.Context(), req.Query, req.TopK)
	s.mu.RUnlock()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if req.IncludeSources != nil && !*req.IncludeSources {
		res.Sources = []hebrew.RetrievedChunk{}
	}
	if res.Sources == nil {
		res.Sources = []hebrew.RetrievedChunk{}
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if !decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		writeError(w, http.StatusBadRequest, "message is required")
		return
	}
	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = hebrew.NewID()
	}

	s.mu.RLock()
	res, err := s.engine.Search(r.Context(), req.Message, req.TopK)
	s.mu.RUnlock()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	history, err := s.record(r.Context(), sessionID, req.Message, res.Answer)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if res.Sources == nil {
		res.Sources = []hebrew.RetrievedChunk{}
	}
	writeJSON(w, http.StatusOK, chatResponse{
		SessionID: sessionID,
		Answer:    res.Answer,
		History:   history,
		Sources:   res.Sources,
	})
}

// record appends one exchange to the session and returns its history.
func (s *Server) record(ctx context.Context, sessionID, question, answer string) ([]hebrew.Message, error) {
	if s.sessions == nil {
		return []hebrew.Message{
			{SessionID: sessionID, Role: hebrew.RoleUser, Content: question},
			{SessionID: sessionID, Role: hebrew.RoleAssistant, Content: answer},
		}, nil
	}
	if err := s.sessions.Append(ctx, sessionID, hebrew.RoleUser, question); err != nil {
		return nil, fmt.Errorf("save history: %w", err)
	}
	if err := s.sessions.Append(ctx, sessionID, hebrew.RoleAssistant, answer); err != nil {
		return nil, fmt.Errorf("save history: %w", err)
	}
	return s.sessions.History(ctx, sessionID)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.mu.RLock()
	chunks := s.engine.Len()
	s.mu.RUnlock()
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"provider": s.engine.ProviderName(),
		"chunks":   chunks,
	})
}

// window applies the text upload defaults of 500 and 50.
func window(size, overlap *int) (int, int) {
	s, o := ingest.DefaultTextChunkSize, ingest.DefaultTextChunkOverlap
	if size != nil {
		s = *size
	}
	if overlap != nil {
		o = *overlap
	}
	return s, o
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxJSONBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read request body")
		return false
	}
	if err := json.Unmarshal(body, v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return false
	}
	return true
}

func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		http.Error(w, "marshal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(data)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}

var nopLogger = slog.New(discardHandler{})

type discardHandler struct{}

func (discardHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (discardHandler) Handle(context.Context, slog.Record) error { return nil }
func (d discardHandler) WithAttrs([]slog.Attr) slog.Handler      { return d }
func (d discardHandler) WithGroup(string) slog.Handler            { return d }
