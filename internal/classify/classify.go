// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package classify turns one free-form reference line into a structured
// query. Lines are either a DOI (bare or behind a resolver URL) or up to four
// pipe-separated fields in loose author | title | journal | year order.
package classify

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/pdiddy/citeformat/pkg/types"
)

// doiPattern matches "10.1038/nature12345", optionally behind a doi.org
// resolver URL or a "doi:" prefix.
var doiPattern = regexp.MustCompile(`(?i)^(?:https?://(?:dx\.)?doi\.org/|doi:\s*)?(10\.\d{4,9}/\S+)$`)

// resolverPrefix matches the prefixes BareDOI strips.
var resolverPrefix = regexp.MustCompile(`(?i)^(?:https?://(?:dx\.)?doi\.org/|doi:\s*)`)

// yearPattern matches a standalone year in 1900-2099.
var yearPattern = regexp.MustCompile(`\b(?:19|20)\d{2}\b`)

// maxYearField is the longest field that is treated as nothing but a year.
const maxYearField = 6

// journalHints are venue and publisher fragments that mark a field as a
// journal name.
var journalHints = []string{
	"nature", "science", "cell", "lancet", "nejm", "jama", "pnas", "plos",
	"ieee", "acm", "neurips", "nips", "icml", "iclr", "cvpr", "aaai",
	"emnlp", "acl", "naacl", "arxiv", "biorxiv", "medrxiv", "annals",
	"journal", "letters", "review", "proceedings", "transactions",
	"frontiers", "nature medicine", "nature methods", "nature communications",
}

// BareDOI strips any resolver URL or "doi:" prefix from s.
func BareDOI(s string) string {
	s = strings.TrimSpace(s)
	return resolverPrefix.ReplaceAllString(s, "")
}

// LooksLikeJournal reports whether text reads as a venue: it contains a known
// hint, or it is short (at most 3 words and 40 characters).
func LooksLikeJournal(text string) bool {
	lower := strings.ToLower(text)
	for _, hint := range journalHints {
		if strings.Contains(lower, hint) {
			return true
		}
	}
	return len(strings.Fields(text)) <= 3 && utf8.RuneCountInString(text) <= 40
}

// LooksLikeAuthor reports whether text reads as a person's name: no digits,
// at most 3 tokens, each at least 2 characters long.
func LooksLikeAuthor(text string) bool {
	if strings.IndexFunc(text, unicode.IsDigit) >= 0 {
		return false
	}
	words := strings.Fields(text)
	if len(words) > 3 {
		return false
	}
	for _, w := range words {
		if utf8.RuneCountInString(w) < 2 {
			return false
		}
	}
	return true
}

// Classify parses line into a query descriptor. It never fails: a line that
// fits no richer shape becomes a title-only query.
func Classify(line string) types.QueryDescriptor {
	line = strings.TrimSpace(line)

	if m := doiPattern.FindStringSubmatch(line); m != nil {
		return types.QueryDescriptor{Kind: types.KindDOI, DOI: m[1], Raw: line}
	}

	parts, year := splitFields(line)
	q := types.QueryDescriptor{Year: year, Raw: line}

	switch len(parts) {
	case 0:
		return types.QueryDescriptor{Kind: types.KindTitleOnly, Title: line, Raw: line}

	case 1:
		q.Kind = types.KindTitleOnly
		if year != "" {
			q.Kind = types.KindTitleYear
		}
		q.Title = parts[0]

	case 2:
		a, b := parts[0], parts[1]
		switch {
		case LooksLikeAuthor(a) && LooksLikeJournal(b):
			q.Kind = types.KindAuthorJournalYear
			q.Author, q.Journal = a, b
		case LooksLikeJournal(b):
			q.Kind = types.KindTitleJournalYear
			q.Title, q.Journal = a, b
		default:
			q.Kind = types.KindTitleYear
			q.Title = a
			if year == "" {
				q.Journal = b
			}
		}

	case 3:
		a, b, c := parts[0], parts[1], parts[2]
		switch {
		case LooksLikeAuthor(a) && LooksLikeJournal(c):
			q.Kind = types.KindAuthorTitleJournalYear
			q.Author, q.Title, q.Journal = a, b, c
		case LooksLikeAuthor(a) && LooksLikeJournal(b):
			q.Kind = types.KindAuthorJournalYear
			q.Author, q.Journal = a, b
		default:
			q.Kind = types.KindTitleJournalYear
			q.Title, q.Journal = a, b
		}

	default:
		q.Kind = types.KindAuthorTitleJournalYear
		q.Author = parts[0]
		q.Journal = parts[len(parts)-1]
		q.Title = strings.Join(parts[1:len(parts)-1], " ")
	}

	return q
}

// splitFields splits line on "|" and pulls the year out of the fields.
// A short field holding a year is consumed whole; a longer one loses only
// its year tokens. When several fields carry a year the last one wins.
func splitFields(line string) ([]string, string) {
	var (
		parts []string
		year  string
	)
	for _, p := range strings.Split(line, "|") {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}

		found := yearPattern.FindString(p)
		if found == "" {
			parts = append(parts, p)
			continue
		}

		year = found
		if utf8.RuneCountInString(p) <= maxYearField {
			continue
		}

		rest := yearPattern.ReplaceAllString(p, "")
		rest = strings.Join(strings.Fields(rest), " ")
		rest = strings.Trim(rest, " ,")
		if rest != "" {
			parts = append(parts, rest)
		}
	}
	return parts, year
}
