// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package format renders resolved records as citation strings in ten
// styles. Output uses lightweight markup: *italic* for journal names and
// **bold** where a style calls for it. Formatters are pure and never fail;
// missing fields degrade to "Unknown", "Untitled" or "n.d.".
package format

import (
	"strconv"
	"strings"

	"github.com/pdiddy/citeformat/pkg/types"
)

// Formatter renders one record. doi is the canonical identifier used for
// the permanent link; ordinal is the entry number.
type Formatter func(rec *types.Record, doi string, ordinal int) string

// Style is a named formatter.
type Style struct {
	Key    string    `json:"key"`
	Name   string    `json:"name"`
	Format Formatter `json:"-"`
}

var styles = []Style{
	{Key: "plain", Name: "Plain summary", Format: Plain},
	{Key: "apa", Name: "APA 7th", Format: APA},
	{Key: "mla", Name: "MLA 9th", Format: MLA},
	{Key: "chicago", Name: "Chicago 17th (author-date)", Format: Chicago},
	{Key: "vancouver", Name: "Vancouver / ICMJE", Format: Vancouver},
	{Key: "harvard", Name: "Harvard", Format: Harvard},
	{Key: "ieee", Name: "IEEE", Format: IEEE},
	{Key: "ama", Name: "AMA (American Medical Association)", Format: AMA},
	{Key: "acs", Name: "ACS (American Chemical Society)", Format: ACS},
	{Key: "nature", Name: "Nature", Format: Nature},
}

// Styles returns every style in menu order.
func Styles() []Style {
	return append([]Style(nil), styles...)
}

// Lookup finds a style by key (case-insensitive) or by its 1-based menu
// number.
func Lookup(name string) (Style, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	if n, err := strconv.Atoi(name); err == nil {
		if n >= 1 && n <= len(styles) {
			return styles[n-1], true
		}
		return Style{}, false
	}
	for _, s := range styles {
		if s.Key == name {
			return s, true
		}
	}
	return Style{}, false
}

// Entry formats rec with style and keeps the author list for highlighting.
func Entry(style Style, rec *types.Record, doi string, ordinal int, line string) types.CitationEntry {
	return types.CitationEntry{
		Ordinal: ordinal,
		Text:    style.Format(rec, doi, ordinal),
		Authors: rec.Author,
		DOI:     doi,
		Line:    line,
		Record:  *rec,
	}
}

func lastNames(authors []types.Author) []string {
	names := make([]string, len(authors))
	for i, a := range authors {
		names[i] = a.DisplayFamily()
	}
	return names
}

func namesLastFirst(authors []types.Author) []string {
	names := make([]string, len(authors))
	for i, a := range authors {
		names[i] = a.LastFirst()
	}
	return names
}

func namesFirstLast(authors []types.Author) []string {
	names := make([]string, len(authors))
	for i, a := range authors {
		names[i] = a.FirstLast()
	}
	return names
}

// listUpTo joins names with ", " when there are at most limit of them;
// otherwise it keeps the first limit and appends etAl.
func listUpTo(names []string, limit int, etAl string) string {
	switch {
	case len(names) == 0:
		return types.UnknownAuthor
	case len(names) <= limit:
		return strings.Join(names, ", ")
	default:
		return strings.Join(names[:limit], ", ") + etAl
	}
}

func link(doi string) string {
	return "https://doi.org/" + doi
}
