// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package render

import (
	"html"
	"regexp"
	"strings"

	"golang.org/x/text/encoding/charmap"
	"mvdan.cc/xurls/v2"
)

// linkColor is the anchor colour used by the HTML stylesheet and the PDF.
const linkColor = "#1a5276"

var (
	boldPattern   = regexp.MustCompile(`\*\*(.*?)\*\*`)
	italicPattern = regexp.MustCompile(`\*(.*?)\*`)
	urlPattern    = xurls.Strict()
)

// StripMarkup removes **bold** and *italic* markers, keeping the inner text.
// Bold is handled first so "**" is never read as two italics.
func StripMarkup(text string) string {
	text = boldPattern.ReplaceAllString(text, "${1}")
	return italicPattern.ReplaceAllString(text, "${1}")
}

// HTMLMarkup escapes text, converts the markers to <strong> and <em>, then
// turns bare URLs into anchors. Escaping comes first so the generated tags
// are not escaped themselves.
func HTMLMarkup(text string) string {
	text = html.EscapeString(text)
	text = boldPattern.ReplaceAllString(text, "<strong>${1}</strong>")
	text = italicPattern.ReplaceAllString(text, "<em>${1}</em>")
	return linkify(text, func(u string) string {
		return `<a href="` + u + `">` + u + `</a>`
	})
}

// PDFMarkup is HTMLMarkup for the PDF writer's inline tags: <b>, <i> and
// coloured anchors. Callers sanitize with PDFSafe first.
func PDFMarkup(text string) string {
	text = html.EscapeString(text)
	text = boldPattern.ReplaceAllString(text, "<b>${1}</b>")
	text = italicPattern.ReplaceAllString(text, "<i>${1}</i>")
	return linkify(text, func(u string) string {
		return `<a href="` + u + `" color="` + linkColor + `">` + u + `</a>`
	})
}

var pdfReplacer = strings.NewReplacer(
	"—", "--",
	"–", "-",
	"‘", "'",
	"’", "'",
	"“", `"`,
	"”", `"`,
	"…", "...",
	"→", "->",
	"─", "-",
	"━", "-",
	"·", ".",
	"×", "x",
	"•", "-",
	"α", "alpha",
	"β", "beta",
	"μ", "mu",
)

// PDFSafe replaces common typographic characters with ASCII and drops
// anything else outside Latin-1, which is all the core PDF fonts cover.
func PDFSafe(text string) string {
	text = pdfReplacer.Replace(text)
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		if _, ok := charmap.ISO8859_1.EncodeRune(r); ok {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// linkify wraps every URL in text with anchor, leaving trailing sentence
// punctuation outside the link.
func linkify(text string, anchor func(string) string) string {
	locs := urlPattern.FindAllStringIndex(text, -1)
	if len(locs) == 0 {
		return text
	}
	var b strings.Builder
	last := 0
	for _, loc := range locs {
		u := trimTrailing(text[loc[0]:loc[1]])
		b.WriteString(text[last:loc[0]])
		b.WriteString(anchor(u))
		last = loc[0] + len(u)
	}
	b.WriteString(text[last:])
	return b.String()
}

// trimTrailing drops trailing punctuation from a URL. Closing brackets are
// dropped only when they are unbalanced, so DOIs such as
// 10.1002/(SICI)1097-4571(199806) keep their final parenthesis.
func trimTrailing(u string) string {
	for len(u) > 0 {
		switch c := u[len(u)-1]; c {
		case '.', ',', ':', ';', '!', '?':
		case ')':
			if strings.Count(u, "(") >= strings.Count(u, ")") {
				return u
			}
		case ']':
			if strings.Count(u, "[") >= strings.Count(u, "]") {
				return u
			}
		default:
			return u
		}
		u = u[:len(u)-1]
	}
	return u
}
