// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package crossref

import (
	"context"
	"fmt"

	"github.com/pdiddy/citeformat/pkg/types"
)

// Status is the outcome of a resolution step.
type Status int

const (
	StatusUnresolved Status = iota
	StatusResolved
	StatusNeedsSelection
)

func (s Status) String() string {
	switch s {
	case StatusResolved:
		return "resolved"
	case StatusNeedsSelection:
		return "needs_selection"
	default:
		return "unresolved"
	}
}

// Resolution is the result of Resolve or Select. A resolved result carries
// the record and its canonical DOI; an unresolved one carries the reason;
// a pending one carries the candidates awaiting a Selection.
type Resolution struct {
	Status     Status
	Query      types.QueryDescriptor
	Record     *types.Record
	DOI        string
	Candidates []types.Record
	Reason     types.Reason
}

// Selection is the caller's answer to a pending resolution.
type Selection struct {
	index int
	skip  bool
}

// Pick selects the candidate at zero-based index i.
func Pick(i int) Selection { return Selection{index: i} }

// Skip abandons the line.
func Skip() Selection { return Selection{skip: true} }

// IsSkip reports whether the selection abandons the line.
func (s Selection) IsSkip() bool { return s.skip }

// Index returns the zero-based candidate index.
func (s Selection) Index() int { return s.index }

func unresolved(q types.QueryDescriptor, reason types.Reason) Resolution {
	return Resolution{Status: StatusUnresolved, Query: q, Reason: reason}
}

// Resolve turns q into a record. DOIs are looked up exactly. Fuzzy queries
// are searched: no candidates leaves the line unresolved, a single candidate
// is accepted, several suspend the line with StatusNeedsSelection until
// Select is called. Only context cancellation is returned as an error.
func (c *Client) Resolve(ctx context.Context, q types.QueryDescriptor) (Resolution, error) {
	if q.IsDOI() {
		rec, doi, err := c.LookupDOI(ctx, q.DOI)
		if err != nil {
			if ctx.Err() != nil {
				return Resolution{}, ctx.Err()
			}
			return unresolved(q, types.ReasonNotRetrieved), nil
		}
		return Resolution{Status: StatusResolved, Query: q, Record: rec, DOI: doi}, nil
	}

	candidates, err := c.Search(ctx, q)
	if err != nil {
		if ctx.Err() != nil {
			return Resolution{}, ctx.Err()
		}
		return unresolved(q, types.ReasonNotRetrieved), nil
	}

	switch len(candidates) {
	case 0:
		c.logger.Info("no results", "query", q.Raw)
		return unresolved(q, types.ReasonNoResults), nil
	case 1:
		return c.accept(ctx, q, candidates[0])
	default:
		return Resolution{Status: StatusNeedsSelection, Query: q, Candidates: candidates}, nil
	}
}

// Select resumes a pending resolution. Skip leaves the line unresolved
// without any request; Pick re-fetches the chosen candidate's full record,
// falling back to the candidate itself when the lookup fails.
func (c *Client) Select(ctx context.Context, res Resolution, sel Selection) (Resolution, error) {
	if res.Status != StatusNeedsSelection {
		return Resolution{}, fmt.Errorf("%w: nothing pending", ErrInvalidSelection)
	}
	if sel.IsSkip() {
		return unresolved(res.Query, types.ReasonSkipped), nil
	}
	if sel.index < 0 || sel.index >= len(res.Candidates) {
		return Resolution{}, fmt.Errorf("%w: %d not in 1-%d", ErrInvalidSelection, sel.index+1, len(res.Candidates))
	}
	return c.accept(ctx, res.Query, res.Candidates[sel.index])
}

// accept upgrades a search candidate to a full record.
func (c *Client) accept(ctx context.Context, q types.QueryDescriptor, cand types.Record) (Resolution, error) {
	if cand.DOI == "" {
		return Resolution{Status: StatusResolved, Query: q, Record: &cand}, nil
	}

	rec, doi, err := c.LookupDOI(ctx, cand.DOI)
	if err != nil {
		if ctx.Err() != nil {
			return Resolution{}, ctx.Err()
		}
		rec, doi = &cand, cand.DOI
	}
	return Resolution{Status: StatusResolved, Query: q, Record: rec, DOI: doi}, nil
}
