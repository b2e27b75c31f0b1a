// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline drives reference lines through classification,
// resolution and formatting. A Session processes lines strictly in input
// order and suspends whenever a line has several candidates; the caller
// answers with a selection and the session carries on from that line.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/pdiddy/citeformat/internal/classify"
	"github.com/pdiddy/citeformat/internal/crossref"
	"github.com/pdiddy/citeformat/internal/format"
	"github.com/pdiddy/citeformat/pkg/types"
)

// ErrNothingPending is returned by Resume when no line awaits a selection.
var ErrNothingPending = errors.New("pipeline: no selection pending")

// Resolver resolves one query, possibly in two steps. *crossref.Client
// implements it.
type Resolver interface {
	Resolve(ctx context.Context, q types.QueryDescriptor) (crossref.Resolution, error)
	Select(ctx context.Context, res crossref.Resolution, sel crossref.Selection) (crossref.Resolution, error)
}

// Pending describes a line waiting for the caller to choose a candidate.
type Pending struct {
	ID         uuid.UUID             `json:"id"`
	Line       string                `json:"line"`
	Kind       string                `json:"kind"`
	Query      types.QueryDescriptor `json:"query"`
	Candidates []Candidate           `json:"candidates"`
}

// Candidate is a one-line summary of a search result for prompts.
type Candidate struct {
	Number  int     `json:"number"`
	Authors string  `json:"authors"`
	Year    string  `json:"year"`
	Title   string  `json:"title"`
	Journal string  `json:"journal"`
	Score   float64 `json:"score"`
	DOI     string  `json:"doi"`
}

// Option configures a Session.
type Option func(*Session)

// WithProgress sets where per-line progress is written.
func WithProgress(w io.Writer) Option {
	return func(s *Session) { s.progress = w }
}

// Session is the resolution state for one input file. It is not safe for
// concurrent use.
type Session struct {
	ID uuid.UUID

	resolver Resolver
	style    format.Style
	lines    []string
	next     int
	pending  *suspended
	seen     map[string]string
	list     types.ReferenceList
	progress io.Writer
}

type suspended struct {
	info Pending
	res  crossref.Resolution
}

// NewSession prepares a session over in. Lines already removed as
// duplicates are reported up front.
func NewSession(resolver Resolver, style format.Style, in Input, opts ...Option) *Session {
	s := &Session{
		ID:       uuid.New(),
		resolver: resolver,
		style:    style,
		lines:    in.Lines,
		seen:     make(map[string]string),
		list:     types.ReferenceList{Style: style.Name},
		progress: io.Discard,
	}
	for _, opt := range opts {
		opt(s)
	}
	for _, d := range in.Duplicates {
		s.list.Unresolved = append(s.list.Unresolved, types.Unresolved{Line: d, Reason: types.ReasonDuplicate})
	}
	return s
}

// Style returns the session's citation style.
func (s *Session) Style() format.Style { return s.style }

// Len returns the number of lines to process.
func (s *Session) Len() int { return len(s.lines) }

// Pending returns the line awaiting a selection, or nil.
func (s *Session) Pending() *Pending {
	if s.pending == nil {
		return nil
	}
	p := s.pending.info
	return &p
}

// Done reports whether every line has been processed.
func (s *Session) Done() bool {
	return s.pending == nil && s.next >= len(s.lines)
}

// Result returns the reference list built so far.
func (s *Session) Result() types.ReferenceList {
	out := s.list
	out.Entries = append([]types.CitationEntry(nil), s.list.Entries...)
	out.Unresolved = append([]types.Unresolved(nil), s.list.Unresolved...)
	return out
}

// Advance processes lines until one needs a selection or input runs out.
// It returns the pending line, or nil when the session is done. While a
// selection is pending Advance returns it again without doing any work.
// A cancelled context stops before the current line is consumed.
func (s *Session) Advance(ctx context.Context) (*Pending, error) {
	if s.pending != nil {
		return s.Pending(), nil
	}
	for s.next < len(s.lines) {
		line := s.lines[s.next]
		q := classify.Classify(line)
		fmt.Fprintf(s.progress, "→ [%-30s] %s\n", q.Kind, truncate(line, 60))

		res, err := s.resolver.Resolve(ctx, q)
		if err != nil {
			return nil, fmt.Errorf("resolving %q: %w", line, err)
		}
		s.next++

		if res.Status == crossref.StatusNeedsSelection {
			s.pending = &suspended{
				res: res,
				info: Pending{
					ID:         uuid.New(),
					Line:       line,
					Kind:       q.Kind.Label(),
					Query:      q,
					Candidates: Summarize(res.Candidates),
				},
			}
			return s.Pending(), nil
		}
		s.record(line, res)
	}
	return nil, nil
}

// Resume applies sel to the pending line. An invalid selection leaves the
// line pending.
func (s *Session) Resume(ctx context.Context, sel crossref.Selection) error {
	if s.pending == nil {
		return ErrNothingPending
	}
	res, err := s.resolver.Select(ctx, s.pending.res, sel)
	if err != nil {
		return err
	}
	line := s.pending.info.Line
	s.pending = nil
	s.record(line, res)
	return nil
}

// record files a finished line. Only resolved lines whose DOI has not been
// seen take the next ordinal.
func (s *Session) record(line string, res crossref.Resolution) {
	if res.Status != crossref.StatusResolved || res.Record == nil {
		reason := res.Reason
		if reason == "" {
			reason = types.ReasonNotRetrieved
		}
		fmt.Fprintf(s.progress, "  [%s] %s\n", reason, line)
		s.list.Unresolved = append(s.list.Unresolved, types.Unresolved{Line: line, Reason: reason})
		return
	}

	if key := strings.ToLower(strings.TrimSpace(res.DOI)); key != "" {
		if first, ok := s.seen[key]; ok {
			fmt.Fprintf(s.progress, "  [duplicate of %q] %s\n", truncate(first, 40), line)
			s.list.Unresolved = append(s.list.Unresolved, types.Unresolved{Line: line, Reason: types.ReasonDuplicate})
			return
		}
		s.seen[key] = line
	}

	ordinal := len(s.list.Entries) + 1
	s.list.Entries = append(s.list.Entries, format.Entry(s.style, res.Record, res.DOI, ordinal, line))
}

// Chooser answers pending selections, typically by prompting a person.
type Chooser interface {
	Choose(ctx context.Context, p Pending) (crossref.Selection, error)
}

// ChooserFunc adapts a function to Chooser.
type ChooserFunc func(ctx context.Context, p Pending) (crossref.Selection, error)

// Choose implements Chooser.
func (f ChooserFunc) Choose(ctx context.Context, p Pending) (crossref.Selection, error) {
	return f(ctx, p)
}

// SkipAll skips every ambiguous line.
var SkipAll = ChooserFunc(func(context.Context, Pending) (crossref.Selection, error) {
	return crossref.Skip(), nil
})

// Run drives the session to completion, asking chooser about each
// ambiguous line, and prints a summary.
func (s *Session) Run(ctx context.Context, chooser Chooser) (types.ReferenceList, error) {
	n := len(s.lines)
	fmt.Fprintf(s.progress, "Processing %d %s...\n\n", n, plural(n, "entry", "entries"))
	for {
		p, err := s.Advance(ctx)
		if err != nil {
			return s.Result(), err
		}
		if p == nil {
			break
		}
		sel, err := chooser.Choose(ctx, *p)
		if err != nil {
			return s.Result(), fmt.Errorf("choosing candidate for %q: %w", p.Line, err)
		}
		if err := s.Resume(ctx, sel); err != nil {
			return s.Result(), err
		}
	}

	out := s.Result()
	fmt.Fprintf(s.progress, "\nSummary: %d formatted, %d unresolved (total: %d)\n",
		len(out.Entries), len(out.Unresolved), len(out.Entries)+len(out.Unresolved))
	return out, nil
}

// Restyle re-formats every entry of list in style, keeping ordinals.
func Restyle(list types.ReferenceList, style format.Style) types.ReferenceList {
	out := types.ReferenceList{
		Style:      style.Name,
		Entries:    make([]types.CitationEntry, len(list.Entries)),
		Unresolved: list.Unresolved,
	}
	for i, e := range list.Entries {
		out.Entries[i] = format.Entry(style, &e.Record, e.DOI, e.Ordinal, e.Line)
	}
	return out
}

// Summarize condenses candidates for display, numbered from 1.
func Summarize(recs []types.Record) []Candidate {
	out := make([]Candidate, len(recs))
	for i, r := range recs {
		authors := "?"
		if len(r.Author) > 0 {
			authors = r.Author[0].DisplayFamily()
			if len(r.Author) > 1 {
				authors += " et al."
			}
		}
		var year string
		if y := r.YearNumber(); y != 0 {
			year = fmt.Sprint(y)
		}
		title, journal := "?", "?"
		if len(r.Title) > 0 && r.Title[0] != "" {
			title = truncate(r.Title[0], 80)
		}
		if len(r.ContainerTitle) > 0 && r.ContainerTitle[0] != "" {
			journal = truncate(r.ContainerTitle[0], 40)
		}
		doi := r.DOI
		if doi == "" {
			doi = "unknown"
		}
		out[i] = Candidate{
			Number:  i + 1,
			Authors: authors,
			Year:    year,
			Title:   title,
			Journal: journal,
			Score:   r.Score,
			DOI:     doi,
		}
	}
	return out
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
