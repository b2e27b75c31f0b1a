// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"strconv"
	"strings"
)

// Placeholders used when a record lacks a field.
const (
	NoDate        = "n.d."
	UntitledWork  = "Untitled"
	UnknownAuthor = "Unknown"
	unknownFamily = "?"
)

// DateParts mirrors the CrossRef date structure: [[year, month, day]].
// Null members decode as zero.
type DateParts struct {
	DateParts [][]int `json:"date-parts"`
}

// year returns the leading year, or 0 when absent.
func (d *DateParts) year() int {
	if d == nil || len(d.DateParts) == 0 || len(d.DateParts[0]) == 0 {
		return 0
	}
	return d.DateParts[0][0]
}

// Author is one contributor as CrossRef reports it. Organisations and
// consortia carry only Name.
type Author struct {
	Family string `json:"family,omitempty"`
	Given  string `json:"given,omitempty"`
	Name   string `json:"name,omitempty"`
	ORCID  string `json:"ORCID,omitempty"`
}

// GivenParts splits the given name on whitespace.
func (a Author) GivenParts() []string {
	return strings.Fields(a.Given)
}

// DisplayFamily returns the family name, falling back to the display name
// and then to "?".
func (a Author) DisplayFamily() string {
	if a.Family != "" {
		return a.Family
	}
	if a.Name != "" {
		return a.Name
	}
	return unknownFamily
}

// Initials returns each given-name token's first letter followed by a
// period, run together: "Geoffrey E" yields "G.E.".
func (a Author) Initials() string {
	parts := a.GivenParts()
	initials := make([]string, 0, len(parts))
	for _, p := range parts {
		r := []rune(p)
		initials = append(initials, string(r[0])+".")
	}
	return strings.Join(initials, "")
}

// LastFirst renders "Family, Initials", or just the family when there are
// no initials.
func (a Author) LastFirst() string {
	return strings.Trim(a.DisplayFamily()+", "+a.Initials(), ", ")
}

// FirstLast renders "Initials Family".
func (a Author) FirstLast() string {
	return strings.TrimSpace(a.Initials() + " " + a.DisplayFamily())
}

// Record is a CrossRef work. Search results carry only the selected
// fields; exact lookups carry the full record.
type Record struct {
	DOI             string     `json:"DOI,omitempty"`
	Title           []string   `json:"title,omitempty"`
	Author          []Author   `json:"author,omitempty"`
	ContainerTitle  []string   `json:"container-title,omitempty"`
	Publisher       string     `json:"publisher,omitempty"`
	Volume          string     `json:"volume,omitempty"`
	Issue           string     `json:"issue,omitempty"`
	Page            string     `json:"page,omitempty"`
	Type            string     `json:"type,omitempty"`
	Published       *DateParts `json:"published,omitempty"`
	PublishedPrint  *DateParts `json:"published-print,omitempty"`
	PublishedOnline *DateParts `json:"published-online,omitempty"`
	Issued          *DateParts `json:"issued,omitempty"`
	Score           float64    `json:"score,omitempty"`
}

// YearNumber returns the first populated year in the order published,
// published-print, published-online, issued. Zero means none.
func (r *Record) YearNumber() int {
	for _, d := range []*DateParts{r.Published, r.PublishedPrint, r.PublishedOnline, r.Issued} {
		if y := d.year(); y != 0 {
			return y
		}
	}
	return 0
}

// Year returns the display year, or "n.d." when the record has none.
func (r *Record) Year() string {
	if y := r.YearNumber(); y != 0 {
		return strconv.Itoa(y)
	}
	return NoDate
}

// Journal returns the first container title, else the publisher.
func (r *Record) Journal() string {
	if len(r.ContainerTitle) > 0 && r.ContainerTitle[0] != "" {
		return r.ContainerTitle[0]
	}
	return r.Publisher
}

// PrimaryTitle returns the first title, else "Untitled".
func (r *Record) PrimaryTitle() string {
	if len(r.Title) > 0 && r.Title[0] != "" {
		return r.Title[0]
	}
	return UntitledWork
}
