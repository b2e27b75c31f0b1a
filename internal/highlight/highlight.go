// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package highlight marks an author's name wherever it appears in formatted
// citations. A free-text query ("doe", "J. A. Doe", "jon") is matched against
// the author records behind each citation; every rendering a matching author
// could take in a citation string becomes a target, and targets are wrapped
// in a tag pair without touching URLs, markup tags or text that is already
// wrapped.
package highlight

import (
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"mvdan.cc/xurls/v2"

	"github.com/pdiddy/citeformat/pkg/types"
)

// Tags is an open/close pair used to mark a target.
type Tags struct {
	Open  string
	Close string
}

// Tag pairs for each output dialect.
var (
	Markdown = Tags{Open: "**", Close: "**"}
	HTML     = Tags{Open: "<strong>", Close: "</strong>"}
	PDF      = Tags{Open: "<b>", Close: "</b>"}
)

var (
	urlPattern = xurls.Strict()
	tagPattern = regexp.MustCompile(`<[^<>]*>`)
)

// Matches reports whether query names author. Comparison is
// case-insensitive against the full and partial name forms a person would
// type; a prefix of the family name, a substring of it (three or more
// characters) or the first given name (three or more characters) also
// match. Organisations are matched on their display name.
func Matches(author types.Author, query string) bool {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return false
	}

	family := strings.ToLower(strings.TrimSpace(author.Family))
	if family == "" {
		family = strings.ToLower(strings.TrimSpace(author.Name))
	}
	given := strings.ToLower(strings.TrimSpace(author.Given))
	parts := strings.Fields(given)

	var firstGiven string
	if len(parts) > 0 {
		firstGiven = parts[0]
	}
	var initials strings.Builder
	for _, p := range parts {
		r, _ := utf8.DecodeRuneInString(p)
		initials.WriteRune(r)
	}
	ini := initials.String()
	n := utf8.RuneCountInString(q)

	switch {
	case q == family,
		q == given,
		q == strings.TrimSpace(given+" "+family),
		q == family+", "+given,
		q == strings.TrimSpace(firstGiven+" "+family),
		q == strings.TrimSpace(family+", "+firstGiven),
		q == family+" "+ini,
		q == ini+" "+family,
		q == family+", "+ini:
		return true
	case strings.HasPrefix(family, q):
		return true
	case n >= 3 && strings.Contains(family, q):
		return true
	case n >= 3 && q == firstGiven:
		return true
	}
	return false
}

// Variants returns every form author's name can take in a formatted
// citation, longest first. Organisations yield their display name only.
func Variants(author types.Author) []string {
	family := strings.TrimSpace(author.Family)
	given := strings.TrimSpace(author.Given)
	if family == "" {
		if name := strings.TrimSpace(author.Name); name != "" {
			return []string{name}
		}
		return nil
	}

	var variants []string
	if parts := strings.Fields(given); len(parts) > 0 {
		dotted := make([]string, len(parts))
		for i, p := range parts {
			r, _ := utf8.DecodeRuneInString(p)
			dotted[i] = string(r) + "."
		}
		initialsDot := strings.Join(dotted, "")
		initialsDotSp := strings.Join(dotted, " ")
		firstInit := dotted[0]

		variants = dedupe([]string{
			given + " " + family,
			family + ", " + given,
			family + " " + given,
			family + ", " + initialsDot,
			family + ", " + initialsDotSp,
			family + ", " + firstInit,
			family + " " + initialsDot,
			family + " " + firstInit,
			initialsDot + " " + family,
			initialsDotSp + " " + family,
			firstInit + " " + family,
		})
	}

	covered := false
	for _, v := range variants {
		if strings.EqualFold(v, family) {
			covered = true
			break
		}
	}
	if !covered {
		variants = append(variants, family)
	}

	longestFirst(variants)
	return variants
}

// Targets collects the variants of every author, across all author lists,
// that any query matches. Targets are unique by lowercase form and ordered
// longest first. Blank queries are ignored.
func Targets(authorLists [][]types.Author, queries []string) []string {
	var (
		order []string
		byKey = make(map[string]string)
	)
	for _, authors := range authorLists {
		for _, a := range authors {
			for _, q := range queries {
				if !Matches(a, q) {
					continue
				}
				for _, v := range Variants(a) {
					key := strings.ToLower(v)
					if _, ok := byKey[key]; !ok {
						order = append(order, key)
					}
					byKey[key] = v
				}
			}
		}
	}

	targets := make([]string, len(order))
	for i, key := range order {
		targets[i] = byKey[key]
	}
	longestFirst(targets)
	return targets
}

// Highlighter applies a fixed target list to many strings.
type Highlighter struct {
	targets  []string
	patterns []*regexp.Regexp
}

// Compile prepares targets for repeated use. Order is preserved; callers
// pass targets longest first.
func Compile(targets []string) *Highlighter {
	h := &Highlighter{}
	for _, t := range targets {
		if t == "" {
			continue
		}
		h.targets = append(h.targets, t)
		h.patterns = append(h.patterns, regexp.MustCompile(`(?i)`+regexp.QuoteMeta(t)))
	}
	return h
}

// Empty reports whether there is nothing to highlight.
func (h *Highlighter) Empty() bool {
	return h == nil || len(h.patterns) == 0
}

// Apply wraps each occurrence of every target with tags. An occurrence
// counts only when it is not preceded by a letter, period or apostrophe and
// not followed by a letter. Occurrences inside a URL, inside a markup tag or
// already between an open and close tag are left alone, so applying the same
// targets twice changes nothing.
func (h *Highlighter) Apply(text string, tags Tags) string {
	if h.Empty() || tags.Open == "" {
		return text
	}
	for _, re := range h.patterns {
		text = wrapAll(text, re, tags)
	}
	return text
}

// Apply is a convenience for a single string.
func Apply(text string, targets []string, tags Tags) string {
	return Compile(targets).Apply(text, tags)
}

func wrapAll(text string, re *regexp.Regexp, tags Tags) string {
	protected := protectedSpans(text)

	var b strings.Builder
	last := 0
	for i := 0; i <= len(text); {
		loc := re.FindStringIndex(text[i:])
		if loc == nil {
			break
		}
		start, end := i+loc[0], i+loc[1]
		if end == start {
			break
		}
		if !bounded(text, start, end) || within(protected, start, end) || inside(text[:start], tags) {
			_, size := utf8.DecodeRuneInString(text[start:])
			i = start + size
			continue
		}
		b.WriteString(text[last:start])
		b.WriteString(tags.Open)
		b.WriteString(text[start:end])
		b.WriteString(tags.Close)
		last, i = end, end
	}
	if last == 0 {
		return text
	}
	b.WriteString(text[last:])
	return b.String()
}

// apostropheEntities are the escaped forms an apostrophe takes in HTML and
// PDF markup.
var apostropheEntities = []string{"&#39;", "&#x27;", "&apos;"}

func bounded(text string, start, end int) bool {
	if start > 0 {
		r, _ := utf8.DecodeLastRuneInString(text[:start])
		if unicode.IsLetter(r) || r == '.' || r == '\'' {
			return false
		}
		if r == ';' && endsWithApostrophe(text[:start]) {
			return false
		}
	}
	if end < len(text) {
		r, _ := utf8.DecodeRuneInString(text[end:])
		if unicode.IsLetter(r) {
			return false
		}
	}
	return true
}

func endsWithApostrophe(before string) bool {
	for _, e := range apostropheEntities {
		if len(before) >= len(e) && strings.EqualFold(before[len(before)-len(e):], e) {
			return true
		}
	}
	return false
}

// inside reports whether before leaves an open tag unclosed. Symmetric
// pairs such as "**" are open after an odd number of occurrences.
func inside(before string, tags Tags) bool {
	if tags.Open == tags.Close {
		return strings.Count(before, tags.Open)%2 == 1
	}
	return strings.Count(before, tags.Open) > strings.Count(before, tags.Close)
}

type span struct{ start, end int }

func protectedSpans(text string) []span {
	var spans []span
	for _, loc := range urlPattern.FindAllStringIndex(text, -1) {
		spans = append(spans, span{loc[0], loc[1]})
	}
	for _, loc := range tagPattern.FindAllStringIndex(text, -1) {
		spans = append(spans, span{loc[0], loc[1]})
	}
	return spans
}

func within(spans []span, start, end int) bool {
	for _, s := range spans {
		if start < s.end && end > s.start {
			return true
		}
	}
	return false
}

func dedupe(values []string) []string {
	seen := make(map[string]bool, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		key := strings.ToLower(v)
		if v == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, v)
	}
	return out
}

func longestFirst(values []string) {
	sort.SliceStable(values, func(i, j int) bool {
		return utf8.RuneCountInString(values[i]) > utf8.RuneCountInString(values[j])
	})
}
