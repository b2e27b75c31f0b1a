// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package crossref

import (
	"fmt"

	"github.com/pdiddy/citeformat/pkg/types"
)

// BuildQuery maps the populated descriptor fields onto CrossRef's
// field-scoped query parameters. A year becomes a single-year date filter.
// With no fields at all the raw line is sent as a bibliographic query.
func BuildQuery(q types.QueryDescriptor) map[string]string {
	params := make(map[string]string)
	if q.Title != "" {
		params["query.title"] = q.Title
	}
	if q.Author != "" {
		params["query.author"] = q.Author
	}
	if q.Journal != "" {
		params["query.container-title"] = q.Journal
	}
	if q.Year != "" {
		params["filter"] = fmt.Sprintf("from-pub-date:%s,until-pub-date:%s", q.Year, q.Year)
	}
	if len(params) == 0 {
		params["query.bibliographic"] = q.Raw
	}
	return params
}
