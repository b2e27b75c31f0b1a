// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package server exposes resolution sessions over HTTP. A client posts its
// reference lines, answers candidate selections one at a time and finally
// fetches the rendered document. Sessions live in memory only.
package server

import (
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/pdiddy/citeformat/internal/pipeline"
	"github.com/pdiddy/citeformat/pkg/types"
)

const (
	// maxBodyBytes caps request bodies.
	maxBodyBytes = 1 << 20

	// DefaultSessionTTL is how long a session survives without requests.
	DefaultSessionTTL = time.Hour
)

// Server holds dependencies for HTTP handlers.
type Server struct {
	resolver pipeline.Resolver
	output   types.OutputConfig
	router   *chi.Mux
	logger   *slog.Logger
	now      func() time.Time
	ttl      time.Duration

	mu       sync.Mutex
	sessions map[uuid.UUID]*session
}

// session serialises access to one pipeline.Session.
type session struct {
	mu sync.Mutex
	s  *pipeline.Session

	// used is guarded by Server.mu.
	used time.Time
}

// Option configures a Server.
type Option func(*Server)

// WithClock sets the time source for document stamps and session expiry.
func WithClock(now func() time.Time) Option {
	return func(s *Server) { s.now = now }
}

// WithSessionTTL drops sessions idle for longer than ttl. Non-positive
// values keep DefaultSessionTTL.
func WithSessionTTL(ttl time.Duration) Option {
	return func(s *Server) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// New creates a server with all routes configured. output supplies the
// default style and document format.
func New(resolver pipeline.Resolver, output types.OutputConfig, logger *slog.Logger, opts ...Option) *Server {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	s := &Server{
		resolver: resolver,
		output:   output,
		router:   chi.NewRouter(),
		logger:   logger,
		now:      time.Now,
		ttl:      DefaultSessionTTL,
		sessions: make(map[uuid.UUID]*session),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Recoverer)

	s.router.Get("/health", s.handleHealth)
	s.router.Route("/v1", func(r chi.Router) {
		r.Get("/styles", s.handleStyles)
		r.Route("/sessions", func(r chi.Router) {
			r.Post("/", s.handleCreateSession)
			r.Get("/{id}", s.handleGetSession)
			r.Delete("/{id}", s.handleDeleteSession)
			r.Post("/{id}/selection", s.handleSelection)
			r.Get("/{id}/document", s.handleDocument)
		})
	})

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// add registers ps and drops every expired session.
func (s *Server) add(ps *pipeline.Session) *session {
	now := s.now()
	sess := &session{s: ps, used: now}
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, old := range s.sessions {
		if s.expired(old, now) {
			delete(s.sessions, id)
			s.logger.Debug("session expired", "session", id)
		}
	}
	s.sessions[ps.ID] = sess
	return sess
}

func (s *Server) expired(sess *session, now time.Time) bool {
	return now.Sub(sess.used) > s.ttl
}

func (s *Server) lookup(r *http.Request) (*session, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		return nil, false
	}
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, false
	}
	if s.expired(sess, now) {
		delete(s.sessions, id)
		return nil, false
	}
	sess.used = now
	return sess, true
}

func (s *Server) remove(r *http.Request) bool {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[id]; !ok {
		return false
	}
	delete(s.sessions, id)
	return true
}
