// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package render

import (
	"html"
	"html/template"
	"io"

	"github.com/pdiddy/citeformat/internal/highlight"
)

// Entries already carry their ordinal, so the list is unstyled.
var pageTemplate = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <title>References &mdash; {{.Style}}</title>
  <style>
    body {
      font-family: Georgia, "Times New Roman", serif;
      font-size: 14px;
      line-height: 1.8;
      max-width: 860px;
      margin: 40px auto;
      padding: 0 24px;
      color: #1a1a1a;
      background: #fafafa;
    }
    h1 {
      font-size: 1.5em;
      border-bottom: 2px solid #333;
      padding-bottom: 6px;
      margin-bottom: 4px;
    }
    .meta {
      color: #666;
      font-size: 0.85em;
      margin-bottom: 28px;
      font-style: italic;
    }
    li {
      margin-bottom: 10px;
    }
    a {
      color: #1a5276;
    }
    em { font-style: italic; }
    strong { font-weight: bold; }
  </style>
</head>
<body>
  <h1>References</h1>
  <p class="meta">Citation style: {{.Style}} &mdash; generated {{.Generated}}</p>
  <ul style="list-style:none; padding-left:0;">
{{- range .Items}}
    <li>{{.}}</li>
{{- end}}
  </ul>
</body>
</html>
`))

type htmlPage struct {
	Style     string
	Generated string
	Items     []template.HTML
}

// HTML writes a standalone page. Entries are escaped and converted to tags
// before highlighting, so targets are matched in their escaped form.
type HTML struct{}

// Render implements Renderer.
func (HTML) Render(w io.Writer, doc Document) error {
	targets := doc.Targets()
	for i, t := range targets {
		targets[i] = html.EscapeString(t)
	}
	h := highlight.Compile(targets)

	page := htmlPage{Style: doc.Style, Generated: doc.stamp()}
	for _, e := range doc.Entries {
		item := h.Apply(HTMLMarkup(e.Text), highlight.HTML)
		page.Items = append(page.Items, template.HTML(item))
	}
	return pageTemplate.Execute(w, page)
}
