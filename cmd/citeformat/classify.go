// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/citeformat/internal/classify"
	"github.com/pdiddy/citeformat/pkg/types"
)

var classifyCmd = &cobra.Command{
	Use:         "classify [line...]",
	Annotations: offline,
	Short:       "Show how reference lines are interpreted",
	Long: `Classify prints the detected kind and fields of each line without
contacting CrossRef. Useful for checking why a line resolves badly.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		asJSON, _ := cmd.Flags().GetBool("json")
		queries := make([]types.QueryDescriptor, len(args))
		for i, line := range args {
			queries[i] = classify.Classify(line)
		}
		if asJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(queries)
		}
		for _, q := range queries {
			printQuery(os.Stdout, q)
		}
		return nil
	},
}

func init() {
	classifyCmd.Flags().Bool("json", false, "output descriptors as JSON")

	rootCmd.AddCommand(classifyCmd)
}

func printQuery(w io.Writer, q types.QueryDescriptor) {
	fmt.Fprintf(w, "%s\n  kind: %s\n", q.Raw, q.Kind)
	for _, f := range []struct{ name, value string }{
		{"doi", q.DOI},
		{"author", q.Author},
		{"title", q.Title},
		{"journal", q.Journal},
		{"year", q.Year},
	} {
		if f.value != "" {
			fmt.Fprintf(w, "  %s: %s\n", f.name, f.value)
		}
	}
}
