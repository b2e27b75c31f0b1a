// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package render

import (
	"fmt"
	"html"
	"io"
	"strings"

	"github.com/go-pdf/fpdf"

	"github.com/pdiddy/citeformat/internal/highlight"
)

// Page geometry in millimetres and type sizes in points.
const (
	pdfMargin     = 25.0
	pdfIndent     = 6.35
	pdfTitleSize  = 16.0
	pdfMetaSize   = 9.0
	pdfEntrySize  = 11.0
	pdfEntryLine  = 5.6
	pdfEntryAfter = 2.8
)

// PDF writes an A4 document using the core Times and Helvetica fonts.
// Entries are reduced to Latin-1, converted to <b>/<i>/<a> tags, then
// highlighted with <b>.
type PDF struct{}

// Render implements Renderer.
func (PDF) Render(w io.Writer, doc Document) error {
	targets := doc.Targets()
	for i, t := range targets {
		targets[i] = html.EscapeString(PDFSafe(t))
	}
	h := highlight.Compile(targets)

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(pdfMargin, pdfMargin, pdfMargin)
	pdf.SetAutoPageBreak(true, pdfMargin)
	pdf.SetTitle("References", false)
	pdf.SetCreator("citeformat", false)
	if !doc.Generated.IsZero() {
		pdf.SetCreationDate(doc.Generated)
	}
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", pdfTitleSize)
	pdf.SetTextColor(26, 26, 26)
	pdf.CellFormat(0, 9, "References", "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "I", pdfMetaSize)
	pdf.SetTextColor(102, 102, 102)
	meta := fmt.Sprintf("Citation style: %s -- generated %s", PDFSafe(doc.Style), doc.stamp())
	pdf.CellFormat(0, 6, tr(meta), "", 1, "L", false, 0, "")

	pageW, _ := pdf.GetPageSize()
	y := pdf.GetY() + 2
	pdf.SetDrawColor(170, 170, 170)
	pdf.SetLineWidth(0.2)
	pdf.Line(pdfMargin, y, pageW-pdfMargin, y)
	pdf.SetY(y + 5)

	// Hanging indent: wrapped lines return to the indented margin.
	pdf.SetLeftMargin(pdfMargin + pdfIndent)
	for _, e := range doc.Entries {
		marked := h.Apply(PDFMarkup(PDFSafe(e.Text)), highlight.PDF)
		pdf.SetX(pdfMargin)
		writeMarked(pdf, tr, marked)
		pdf.Ln(pdfEntryLine + pdfEntryAfter)
	}
	return pdf.Output(w)
}

// writeMarked writes text containing <b>, <i> and <a href> tags.
func writeMarked(pdf *fpdf.Fpdf, tr func(string) string, marked string) {
	var (
		bold, italic int
		href         string
	)
	setStyle := func() {
		style := ""
		if bold > 0 {
			style += "B"
		}
		if italic > 0 {
			style += "I"
		}
		pdf.SetFont("Times", style, pdfEntrySize)
		if href != "" {
			pdf.SetTextColor(26, 82, 118)
		} else {
			pdf.SetTextColor(26, 26, 26)
		}
	}
	setStyle()

	for _, seg := range fpdf.HTMLBasicTokenize(marked) {
		switch seg.Cat {
		case 'T':
			text := tr(html.UnescapeString(seg.Str))
			if href != "" {
				pdf.WriteLinkString(pdfEntryLine, text, href)
			} else {
				pdf.Write(pdfEntryLine, text)
			}
		case 'O':
			switch strings.ToLower(seg.Str) {
			case "b", "strong":
				bold++
			case "i", "em":
				italic++
			case "a":
				href = html.UnescapeString(seg.Attr["href"])
			}
			setStyle()
		case 'C':
			switch strings.ToLower(seg.Str) {
			case "b", "strong":
				bold = max(bold-1, 0)
			case "i", "em":
				italic = max(italic-1, 0)
			case "a":
				href = ""
			}
			setStyle()
		}
	}
}
