// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package format

import (
	"fmt"
	"strings"

	"github.com/pdiddy/citeformat/pkg/types"
)

// Plain: "1. Smith et al.. Nature. 2015. https://doi.org/10.1/x."
func Plain(rec *types.Record, doi string, ordinal int) string {
	names := lastNames(rec.Author)
	var authors string
	switch len(names) {
	case 0:
		authors = types.UnknownAuthor
	case 1:
		authors = names[0]
	case 2:
		authors = names[0] + " and " + names[1]
	default:
		authors = names[0] + " et al."
	}
	return fmt.Sprintf("%d. %s. %s. %s. %s.", ordinal, authors, rec.Journal(), rec.Year(), link(doi))
}

// APA 7th. Up to 20 authors are listed with a final "&"; longer lists keep
// the first 19, an ellipsis and the last author.
func APA(rec *types.Record, doi string, ordinal int) string {
	names := namesLastFirst(rec.Author)
	var authors string
	switch {
	case len(names) == 0:
		authors = types.UnknownAuthor
	case len(names) == 1:
		authors = names[0]
	case len(names) <= 20:
		authors = strings.Join(names[:len(names)-1], ", ") + ", & " + names[len(names)-1]
	default:
		authors = strings.Join(names[:19], ", ") + ", ... " + names[len(names)-1]
	}

	source := rec.Journal()
	if rec.Volume != "" {
		source += ", " + rec.Volume
	}
	if rec.Issue != "" {
		source += "(" + rec.Issue + ")"
	}
	if rec.Page != "" {
		source += ", " + rec.Page
	}
	return fmt.Sprintf("%d. %s (%s). %s. %s. %s", ordinal, authors, rec.Year(), rec.PrimaryTitle(), source, link(doi))
}

// MLA 9th. The first author is "Family, Given"; a second author is written
// "Initials Family"; three or more collapse to "et al.".
func MLA(rec *types.Record, doi string, ordinal int) string {
	var authors string
	if len(rec.Author) == 0 {
		authors = types.UnknownAuthor
	} else {
		first := rec.Author[0]
		authors = strings.Trim(first.DisplayFamily()+", "+first.Given, ", ")
		switch {
		case len(rec.Author) == 2:
			second := rec.Author[1]
			authors += ", and " + strings.TrimSpace(second.Initials()+" "+second.DisplayFamily())
		case len(rec.Author) > 2:
			authors += ", et al."
		}
	}

	parts := []string{rec.Journal()}
	if rec.Volume != "" {
		parts = append(parts, "vol. "+rec.Volume)
	}
	if rec.Issue != "" {
		parts = append(parts, "no. "+rec.Issue)
	}
	parts = append(parts, rec.Year())
	if rec.Page != "" {
		parts = append(parts, "pp. "+rec.Page)
	}
	return fmt.Sprintf("%d. %s. \"%s.\" %s, %s.", ordinal, authors, rec.PrimaryTitle(), strings.Join(parts, ", "), link(doi))
}

// Chicago 17th author-date. Up to three authors with a serial "and"; four
// or more become "First, et al.".
func Chicago(rec *types.Record, doi string, ordinal int) string {
	names := namesLastFirst(rec.Author)
	var authors string
	switch {
	case len(names) == 0:
		authors = types.UnknownAuthor
	case len(names) == 1:
		authors = names[0]
	case len(names) <= 3:
		authors = strings.Join(names[:len(names)-1], ", ") + ", and " + names[len(names)-1]
	default:
		authors = names[0] + ", et al."
	}

	source := rec.Journal()
	if rec.Volume != "" {
		source += " " + rec.Volume
	}
	if rec.Issue != "" {
		source += " (" + rec.Issue + ")"
	}
	if rec.Page != "" {
		source += ": " + rec.Page
	}
	return fmt.Sprintf("%d. %s. %s. \"%s.\" %s. %s.", ordinal, authors, rec.Year(), rec.PrimaryTitle(), source, link(doi))
}

// Vancouver / ICMJE. Six authors are listed in full; more become six and
// "et al.".
func Vancouver(rec *types.Record, doi string, ordinal int) string {
	authors := listUpTo(namesLastFirst(rec.Author), 6, ", et al.")

	source := rec.Journal() + ". " + rec.Year()
	if rec.Volume != "" {
		source += ";" + rec.Volume
	}
	if rec.Issue != "" {
		source += "(" + rec.Issue + ")"
	}
	if rec.Page != "" {
		source += ":" + rec.Page
	}
	return fmt.Sprintf("%d. %s. %s. %s. %s.", ordinal, authors, rec.PrimaryTitle(), source, link(doi))
}

// Harvard. Up to three authors joined with "and"; four or more become
// "First et al.". The journal is italic.
func Harvard(rec *types.Record, doi string, ordinal int) string {
	names := namesLastFirst(rec.Author)
	var authors string
	switch {
	case len(names) == 0:
		authors = types.UnknownAuthor
	case len(names) == 1:
		authors = names[0]
	case len(names) <= 3:
		authors = strings.Join(names[:len(names)-1], ", ") + " and " + names[len(names)-1]
	default:
		authors = names[0] + " et al."
	}

	source := "*" + rec.Journal() + "*"
	if rec.Volume != "" {
		source += ", " + rec.Volume
	}
	if rec.Issue != "" {
		source += "(" + rec.Issue + ")"
	}
	if rec.Page != "" {
		source += ", pp. " + rec.Page
	}
	return fmt.Sprintf("%d. %s (%s) '%s', %s. doi: %s.", ordinal, authors, rec.Year(), rec.PrimaryTitle(), source, link(doi))
}

// IEEE. Bracketed ordinal, initials before the family name, six authors
// before "et al.".
func IEEE(rec *types.Record, doi string, ordinal int) string {
	authors := listUpTo(namesFirstLast(rec.Author), 6, " et al.")

	source := "*" + rec.Journal() + "*"
	if rec.Volume != "" {
		source += ", vol. " + rec.Volume
	}
	if rec.Issue != "" {
		source += ", no. " + rec.Issue
	}
	if rec.Page != "" {
		source += ", pp. " + rec.Page
	}
	return fmt.Sprintf("[%d] %s, \"%s,\" %s, %s, doi: %s.", ordinal, authors, rec.PrimaryTitle(), source, rec.Year(), link(doi))
}

// AMA. Six authors before "et al."; issue and pages are only printed
// alongside a volume.
func AMA(rec *types.Record, doi string, ordinal int) string {
	authors := listUpTo(namesLastFirst(rec.Author), 6, ", et al.")

	source := rec.Journal() + ". " + rec.Year()
	if rec.Volume != "" {
		source += ";" + rec.Volume
		if rec.Issue != "" {
			source += "(" + rec.Issue + ")"
		}
		if rec.Page != "" {
			source += ":" + rec.Page
		}
	}
	return fmt.Sprintf("%d. %s. %s. %s. doi:%s", ordinal, authors, rec.PrimaryTitle(), source, link(doi))
}

// ACS. Every author, semicolon-separated. With a volume the year is bold
// and the volume italic.
func ACS(rec *types.Record, doi string, ordinal int) string {
	names := namesLastFirst(rec.Author)
	authors := types.UnknownAuthor
	if len(names) > 0 {
		authors = strings.Join(names, "; ")
	}

	source := "*" + rec.Journal() + "*"
	if rec.Volume != "" {
		source += " **" + rec.Year() + "**, *" + rec.Volume + "*"
		if rec.Issue != "" {
			source += " (" + rec.Issue + ")"
		}
		if rec.Page != "" {
			source += ", " + rec.Page
		}
	} else {
		source += " " + rec.Year()
	}
	return fmt.Sprintf("%d. %s. %s. %s. %s.", ordinal, authors, rec.PrimaryTitle(), source, link(doi))
}

// Nature. Five authors before "et al."; bold volume, year last.
func Nature(rec *types.Record, doi string, ordinal int) string {
	authors := listUpTo(namesFirstLast(rec.Author), 5, " et al.")

	source := "*" + rec.Journal() + "*"
	if rec.Volume != "" {
		source += " **" + rec.Volume + "**"
	}
	if rec.Page != "" {
		source += ", " + rec.Page
	}
	return fmt.Sprintf("%d. %s. %s. %s (%s). %s", ordinal, authors, rec.PrimaryTitle(), source, rec.Year(), link(doi))
}
