// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/pdiddy/citeformat/internal/crossref"
	"github.com/pdiddy/citeformat/internal/format"
	"github.com/pdiddy/citeformat/internal/pipeline"
	"github.com/pdiddy/citeformat/internal/render"
	"github.com/pdiddy/citeformat/pkg/types"
)

// StyleInfo is one entry of the style menu.
type StyleInfo struct {
	Number int    `json:"number"`
	Key    string `json:"key"`
	Name   string `json:"name"`
}

// CreateSessionRequest starts a session. Text is split into lines the same
// way a reference file is; Lines are appended after it.
type CreateSessionRequest struct {
	Text  string   `json:"text,omitempty"`
	Lines []string `json:"lines,omitempty"`
	Style string   `json:"style,omitempty"`
}

// SelectionRequest answers a pending line. Index is the candidate number
// shown in the pending line, starting at 1. PendingID, when set, must match
// the pending line's id.
type SelectionRequest struct {
	Index     int       `json:"index,omitempty"`
	Skip      bool      `json:"skip,omitempty"`
	PendingID uuid.UUID `json:"pending_id"`
}

// SessionState is the JSON view of a session.
type SessionState struct {
	ID         uuid.UUID             `json:"id"`
	Style      string                `json:"style"`
	Total      int                   `json:"total"`
	Done       bool                  `json:"done"`
	Entries    []types.CitationEntry `json:"entries"`
	Unresolved []types.Unresolved    `json:"unresolved"`
	Pending    *pipeline.Pending     `json:"pending,omitempty"`
	Error      string                `json:"error,omitempty"`
}

func stateOf(ps *pipeline.Session) SessionState {
	list := ps.Result()
	st := SessionState{
		ID:         ps.ID,
		Style:      list.Style,
		Total:      ps.Len(),
		Done:       ps.Done(),
		Entries:    list.Entries,
		Unresolved: list.Unresolved,
		Pending:    ps.Pending(),
	}
	if st.Entries == nil {
		st.Entries = []types.CitationEntry{}
	}
	if st.Unresolved == nil {
		st.Unresolved = []types.Unresolved{}
	}
	return st
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"}, s.logger)
}

func (s *Server) handleStyles(w http.ResponseWriter, _ *http.Request) {
	styles := format.Styles()
	out := make([]StyleInfo, len(styles))
	for i, st := range styles {
		out[i] = StyleInfo{Number: i + 1, Key: st.Key, Name: st.Name}
	}
	writeJSON(w, http.StatusOK, out, s.logger)
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req CreateSessionRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), s.logger)
		return
	}

	name := req.Style
	if name == "" {
		name = s.output.Style
	}
	style, ok := format.Lookup(name)
	if !ok {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown style %q", name), s.logger)
		return
	}

	text := req.Text
	if len(req.Lines) > 0 {
		text = strings.Join(append([]string{text}, req.Lines...), "\n")
	}
	in := pipeline.SplitLines(text)
	if len(in.Lines) == 0 {
		writeError(w, http.StatusBadRequest, "no reference lines", s.logger)
		return
	}

	sess := s.add(pipeline.NewSession(s.resolver, style, in))
	sess.mu.Lock()
	defer sess.mu.Unlock()
	s.logger.Info("session created", "session", sess.s.ID, "lines", len(in.Lines), "style", style.Key)

	writeJSON(w, http.StatusCreated, s.step(r.Context(), sess.s), s.logger)
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(r)
	if !ok {
		writeError(w, http.StatusNotFound, "session not found", s.logger)
		return
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()

	// A session interrupted by a transport failure picks up where it stopped.
	writeJSON(w, http.StatusOK, s.step(r.Context(), sess.s), s.logger)
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if !s.remove(r) {
		writeError(w, http.StatusNotFound, "session not found", s.logger)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSelection(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(r)
	if !ok {
		writeError(w, http.StatusNotFound, "session not found", s.logger)
		return
	}

	var req SelectionRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), s.logger)
		return
	}
	if !req.Skip && req.Index < 1 {
		writeError(w, http.StatusBadRequest, "index must be at least 1, or skip must be true", s.logger)
		return
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	p := sess.s.Pending()
	if p == nil {
		writeError(w, http.StatusConflict, pipeline.ErrNothingPending.Error(), s.logger)
		return
	}
	if req.PendingID != uuid.Nil && req.PendingID != p.ID {
		writeError(w, http.StatusConflict, "selection is for a different pending line", s.logger)
		return
	}

	sel := crossref.Skip()
	if !req.Skip {
		sel = crossref.Pick(req.Index - 1)
	}
	if err := sess.s.Resume(r.Context(), sel); err != nil {
		switch {
		case errors.Is(err, crossref.ErrInvalidSelection):
			writeError(w, http.StatusUnprocessableEntity, err.Error(), s.logger)
		default:
			writeError(w, http.StatusBadGateway, err.Error(), s.logger)
		}
		return
	}

	writeJSON(w, http.StatusOK, s.step(r.Context(), sess.s), s.logger)
}

func (s *Server) handleDocument(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(r)
	if !ok {
		writeError(w, http.StatusNotFound, "session not found", s.logger)
		return
	}

	query := r.URL.Query()
	outFormat := types.OutputFormat(query.Get("format"))
	if outFormat == "" {
		outFormat = s.output.Format
	}
	renderer, err := render.For(outFormat)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), s.logger)
		return
	}

	sess.mu.Lock()
	if !sess.s.Done() {
		sess.mu.Unlock()
		writeError(w, http.StatusConflict, "session has unfinished lines", s.logger)
		return
	}
	list := sess.s.Result()
	sess.mu.Unlock()

	if name := query.Get("style"); name != "" {
		style, ok := format.Lookup(name)
		if !ok {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown style %q", name), s.logger)
			return
		}
		list = pipeline.Restyle(list, style)
	}

	doc := render.Document{
		Style:     list.Style,
		Entries:   list.Entries,
		Highlight: highlightParams(query["highlight"]),
		Generated: s.now(),
	}

	var buf bytes.Buffer
	if err := renderer.Render(&buf, doc); err != nil {
		s.logger.Error("render failed", "format", outFormat, "error", err)
		writeError(w, http.StatusInternalServerError, "rendering failed", s.logger)
		return
	}
	w.Header().Set("Content-Type", contentType(outFormat))
	if _, err := buf.WriteTo(w); err != nil {
		s.logger.Warn("writing document", "error", err)
	}
}

// step runs the session until the next pending line or the end and
// reports where it stopped. A resolver failure is carried in the state;
// the failed line stays next in line.
func (s *Server) step(ctx context.Context, ps *pipeline.Session) SessionState {
	_, err := ps.Advance(ctx)
	st := stateOf(ps)
	if err != nil {
		s.logger.Warn("session stalled", "session", ps.ID, "error", err)
		st.Error = err.Error()
	}
	return st
}

func decode(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

// highlightParams accepts repeated and comma-separated highlight values.
func highlightParams(values []string) []string {
	var out []string
	for _, v := range values {
		for _, q := range strings.Split(v, ",") {
			if q = strings.TrimSpace(q); q != "" {
				out = append(out, q)
			}
		}
	}
	return out
}

func contentType(f types.OutputFormat) string {
	switch f {
	case types.OutputMarkdown:
		return "text/markdown; charset=utf-8"
	case types.OutputHTML:
		return "text/html; charset=utf-8"
	case types.OutputPDF:
		return "application/pdf"
	case types.OutputCSL:
		return "application/yaml"
	default:
		return "text/plain; charset=utf-8"
	}
}
