// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// Reason explains why an input line produced no citation.
type Reason string

const (
	ReasonNotRetrieved Reason = "not retrieved"
	ReasonNoResults    Reason = "no results"
	ReasonDuplicate    Reason = "duplicate"
	ReasonSkipped      Reason = "skipped"
)

// CitationEntry is one formatted reference. Text carries the lightweight
// markup (*italic*, **bold**); Authors is kept so highlighting does not have
// to re-parse the text.
type CitationEntry struct {
	Ordinal int      `json:"ordinal"`
	Text    string   `json:"text"`
	Authors []Author `json:"authors,omitempty"`
	DOI     string   `json:"doi"`
	Line    string   `json:"line"`
	Record  Record   `json:"-"`
}

// Unresolved is an input line that did not become a citation.
type Unresolved struct {
	Line   string `json:"line"`
	Reason Reason `json:"reason"`
}

// ReferenceList is the result of processing one input file.
type ReferenceList struct {
	Style      string          `json:"style"`
	Entries    []CitationEntry `json:"entries"`
	Unresolved []Unresolved    `json:"unresolved,omitempty"`
}

// AuthorLists returns the author list of every entry, in order.
func (l ReferenceList) AuthorLists() [][]Author {
	lists := make([][]Author, 0, len(l.Entries))
	for _, e := range l.Entries {
		lists = append(lists, e.Authors)
	}
	return lists
}
