// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package format

import (
	"io"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/citeformat/pkg/types"
)

// CSLItem is a bibliographic entry in CSL-YAML form, consumable by Pandoc
// and reference managers.
type CSLItem struct {
	ID             string    `yaml:"id"`
	Type           string    `yaml:"type"`
	Title          string    `yaml:"title"`
	Author         []CSLName `yaml:"author,omitempty"`
	ContainerTitle string    `yaml:"container-title,omitempty"`
	Publisher      string    `yaml:"publisher,omitempty"`
	Volume         string    `yaml:"volume,omitempty"`
	Issue          string    `yaml:"issue,omitempty"`
	Page           string    `yaml:"page,omitempty"`
	Issued         *CSLDate  `yaml:"issued,omitempty"`
	DOI            string    `yaml:"DOI,omitempty"`
}

// CSLName is a person's name in CSL format. Organisations use Literal.
type CSLName struct {
	Family  string `yaml:"family,omitempty"`
	Given   string `yaml:"given,omitempty"`
	Literal string `yaml:"literal,omitempty"`
}

// CSLDate is a date in CSL date-parts form.
type CSLDate struct {
	DateParts [][]int `yaml:"date-parts"`
}

// WriteCSL writes the resolved entries as a CSL-YAML list to w.
func WriteCSL(entries []types.CitationEntry, w io.Writer) error {
	items := make([]CSLItem, len(entries))
	for i, e := range entries {
		items[i] = ToCSLItem(&e.Record, e.DOI)
	}
	enc := yaml.NewEncoder(w)
	defer enc.Close()
	return enc.Encode(items)
}

// ToCSLItem converts a record to a CSL item keyed by its DOI.
func ToCSLItem(rec *types.Record, doi string) CSLItem {
	if doi == "" {
		doi = rec.DOI
	}
	typ := rec.Type
	if typ == "" || typ == "journal-article" {
		typ = "article-journal"
	}
	item := CSLItem{
		ID:             doi,
		Type:           typ,
		Title:          rec.PrimaryTitle(),
		ContainerTitle: rec.Journal(),
		Publisher:      rec.Publisher,
		Volume:         rec.Volume,
		Issue:          rec.Issue,
		Page:           rec.Page,
		DOI:            doi,
	}
	for _, a := range rec.Author {
		item.Author = append(item.Author, toCSLName(a))
	}
	if y := rec.YearNumber(); y != 0 {
		item.Issued = &CSLDate{DateParts: [][]int{{y}}}
	}
	return item
}

func toCSLName(a types.Author) CSLName {
	if a.Family == "" {
		return CSLName{Literal: a.Name}
	}
	return CSLName{Family: a.Family, Given: a.Given}
}
