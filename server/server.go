// Package server provides a local HTTP server for browsing converted Copilot
// chat sessions.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/sonnes/copilotmd/core"
	htmlrender "github.com/sonnes/copilotmd/render/html"
	jsonrender "github.com/sonnes/copilotmd/render/json"
	"github.com/sonnes/copilotmd/render/markdown"
)

const shutdownTimeout = 5 * time.Second

// Server serves chat logs as HTML pages, raw Markdown and JSON.
type Server struct {
	markdown *markdown.Renderer
	html     *htmlrender.Renderer
	json     *jsonrender.Renderer
	mux      *http.ServeMux

	mu      sync.RWMutex
	byID    map[string]*core.ChatLog
	entries []core.ManifestEntry
}

// New builds a Server over logs. m controls the Markdown conversion; nil
// uses the defaults.
func New(logs []*core.ChatLog, m *markdown.Renderer) *Server {
	if m == nil {
		m = markdown.New()
	}
	s := &Server{
		markdown: m,
		html:     htmlrender.New(m),
		json:     &jsonrender.Renderer{Indent: true, Markdown: m},
		mux:      http.NewServeMux(),
	}
	s.Update(logs)

	s.mux.HandleFunc("GET /{$}", s.handleIndex)
	s.mux.HandleFunc("GET /session/{id}", s.handleSession)
	s.mux.HandleFunc("GET /session/{id}/markdown", s.handleMarkdown)
	s.mux.HandleFunc("GET /session/{id}/json", s.handleJSON)
	return s
}

// Update replaces the served sessions. It is safe to call while serving.
func (s *Server) Update(logs []*core.ChatLog) {
	byID := make(map[string]*core.ChatLog, len(logs))
	entries := make([]core.ManifestEntry, 0, len(logs))
	for _, l := range logs {
		if l.SessionID == "" {
			continue
		}
		byID[l.SessionID] = l
		entries = append(entries, core.NewManifestEntry(l, "/session/"+l.SessionID))
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].CreatedAt.After(entries[j].CreatedAt)
	})

	s.mu.Lock()
	s.byID = byID
	s.entries = entries
	s.mu.Unlock()
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	}
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	entries := s.entries
	s.mu.RUnlock()

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.html.RenderIndex(w, entries); err != nil {
		log.Error("render index", "err", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	chatLog, ok := s.lookup(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.html.Render(w, chatLog); err != nil {
		log.Error("render session", "session_id", chatLog.SessionID, "err", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
}

func (s *Server) handleMarkdown(w http.ResponseWriter, r *http.Request) {
	chatLog, ok := s.lookup(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	if err := s.markdown.Render(w, chatLog); err != nil {
		log.Error("render markdown", "session_id", chatLog.SessionID, "err", err)
	}
}

func (s *Server) handleJSON(w http.ResponseWriter, r *http.Request) {
	chatLog, ok := s.lookup(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err := s.json.Render(w, chatLog); err != nil {
		log.Error("render json", "session_id", chatLog.SessionID, "err", err)
	}
}

func (s *Server) lookup(w http.ResponseWriter, r *http.Request) (*core.ChatLog, bool) {
	id := r.PathValue("id")
	s.mu.RLock()
	chatLog, ok := s.byID[id]
	s.mu.RUnlock()
	if !ok {
		http.NotFound(w, r)
		return nil, false
	}
	log.Debug("serve session", "session_id", id, "path", r.URL.Path)
	return chatLog, true
}
