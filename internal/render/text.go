// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package render

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/pdiddy/citeformat/internal/format"
	"github.com/pdiddy/citeformat/internal/highlight"
)

var rule = strings.Repeat("─", 60)

// Console prints the list as plain text with markup removed. Highlighting
// does not apply.
type Console struct{}

// Render implements Renderer.
func (Console) Render(w io.Writer, doc Document) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "\n%s\n  References  [%s]\n%s\n\n", rule, doc.Style, rule)
	for _, e := range doc.Entries {
		fmt.Fprintln(bw, StripMarkup(e.Text))
	}
	fmt.Fprintln(bw)
	return bw.Flush()
}

// Markdown writes the markup unchanged, with highlighted names in bold.
type Markdown struct{}

// Render implements Renderer.
func (Markdown) Render(w io.Writer, doc Document) error {
	h := highlight.Compile(doc.Targets())
	lines := []string{
		"# References",
		"",
		fmt.Sprintf("*Citation style: %s — generated %s*", doc.Style, doc.stamp()),
		"",
	}
	for _, e := range doc.Entries {
		lines = append(lines, h.Apply(e.Text, highlight.Markdown), "")
	}
	_, err := io.WriteString(w, strings.Join(lines, "\n"))
	return err
}

// CSL exports the resolved records as CSL-YAML.
type CSL struct{}

// Render implements Renderer.
func (CSL) Render(w io.Writer, doc Document) error {
	return format.WriteCSL(doc.Entries, w)
}
