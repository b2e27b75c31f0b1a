// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the citeformat pipeline:
// the query a reference line classifies into, the CrossRef record it resolves
// to, the formatted citation entries and the configuration of each component.
package types

import "strings"

// QueryKind classifies a raw reference line.
type QueryKind int

const (
	KindTitleOnly QueryKind = iota
	KindDOI
	KindTitleYear
	KindAuthorJournalYear
	KindTitleJournalYear
	KindAuthorTitleJournalYear
)

func (k QueryKind) String() string {
	switch k {
	case KindDOI:
		return "doi"
	case KindTitleYear:
		return "title_year"
	case KindAuthorJournalYear:
		return "author_journal_year"
	case KindTitleJournalYear:
		return "title_journal_year"
	case KindAuthorTitleJournalYear:
		return "author_title_journal_year"
	default:
		return "title_only"
	}
}

// Label returns the kind in human-readable form ("title year").
func (k QueryKind) Label() string {
	return strings.ReplaceAll(k.String(), "_", " ")
}

// MarshalText encodes the kind by name so JSON payloads carry "title_year"
// rather than an ordinal.
func (k QueryKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// QueryDescriptor is the structured form of one input line. When Kind is
// KindDOI only DOI is set; for every other kind DOI is empty.
type QueryDescriptor struct {
	Kind    QueryKind `json:"kind"`
	DOI     string    `json:"doi,omitempty"`
	Title   string    `json:"title,omitempty"`
	Author  string    `json:"author,omitempty"`
	Journal string    `json:"journal,omitempty"`
	Year    string    `json:"year,omitempty"`

	// Raw is the original line, used for free-text fallback queries.
	Raw string `json:"raw"`
}

// IsDOI reports whether the descriptor is an exact identifier lookup.
func (q QueryDescriptor) IsDOI() bool {
	return q.Kind == KindDOI
}
