// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/pdiddy/citeformat/internal/crossref"
	"github.com/pdiddy/citeformat/internal/pipeline"
)

// promptChooser asks on out and reads the answer from in. It repeats the
// question until the answer is a candidate number or "s".
type promptChooser struct {
	in  *bufio.Reader
	out io.Writer
}

func (c *promptChooser) Choose(ctx context.Context, p pipeline.Pending) (crossref.Selection, error) {
	fmt.Fprintf(c.out, "\n  Query : %s\n", p.Line)
	fmt.Fprintf(c.out, "  Detected as: %s\n", p.Kind)
	fmt.Fprintf(c.out, "  Top candidates:\n\n")
	for _, cand := range p.Candidates {
		fmt.Fprintf(c.out, "    [%d] %s (%s). %s\n", cand.Number, cand.Authors, cand.Year, cand.Title)
		fmt.Fprintf(c.out, "        %s | Score: %.1f | doi:%s\n\n", cand.Journal, cand.Score, cand.DOI)
	}
	fmt.Fprintf(c.out, "    [s] Skip this entry\n")

	n := len(p.Candidates)
	for {
		if err := ctx.Err(); err != nil {
			return crossref.Selection{}, err
		}
		fmt.Fprintf(c.out, "  Pick 1–%d or s to skip: ", n)
		line, err := c.in.ReadString('\n')
		answer := strings.ToLower(strings.TrimSpace(line))
		if err != nil && answer == "" {
			if errors.Is(err, io.EOF) {
				return crossref.Skip(), nil
			}
			return crossref.Selection{}, err
		}

		if answer == "s" {
			return crossref.Skip(), nil
		}
		if i, convErr := strconv.Atoi(answer); convErr == nil && i >= 1 && i <= n {
			return crossref.Pick(i - 1), nil
		}
		fmt.Fprintf(c.out, "  Please enter a number between 1 and %d, or 's'.\n", n)
	}
}
