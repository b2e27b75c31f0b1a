// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package render turns a formatted reference list into a console listing,
// a Markdown, HTML or PDF document, or a CSL-YAML export. Citation text
// carries *italic* and **bold** markers and bare URLs; each renderer
// interprets exactly those and applies author highlighting in its own tag
// dialect.
package render

import (
	"fmt"
	"io"
	"time"

	"github.com/pdiddy/citeformat/internal/highlight"
	"github.com/pdiddy/citeformat/pkg/types"
)

// timestampLayout is the "generated" stamp in document headers.
const timestampLayout = "2006-01-02 15:04"

// Document is everything a renderer needs.
type Document struct {
	// Style is the display name of the citation style, e.g. "APA 7th".
	Style     string
	Entries   []types.CitationEntry
	Highlight []string
	Generated time.Time
}

// Targets returns the highlight targets for the document's author lists.
func (d Document) Targets() []string {
	if len(d.Highlight) == 0 {
		return nil
	}
	lists := make([][]types.Author, len(d.Entries))
	for i, e := range d.Entries {
		lists[i] = e.Authors
	}
	return highlight.Targets(lists, d.Highlight)
}

func (d Document) stamp() string {
	t := d.Generated
	if t.IsZero() {
		t = time.Now()
	}
	return t.Format(timestampLayout)
}

// Renderer writes a document to w.
type Renderer interface {
	Render(w io.Writer, doc Document) error
}

// For returns the renderer for format.
func For(format types.OutputFormat) (Renderer, error) {
	switch format {
	case types.OutputConsole, "":
		return Console{}, nil
	case types.OutputMarkdown:
		return Markdown{}, nil
	case types.OutputHTML:
		return HTML{}, nil
	case types.OutputPDF:
		return PDF{}, nil
	case types.OutputCSL:
		return CSL{}, nil
	default:
		return nil, fmt.Errorf("unknown output format %q", format)
	}
}
