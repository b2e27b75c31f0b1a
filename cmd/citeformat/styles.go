// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pdiddy/citeformat/internal/format"
)

var stylesCmd = &cobra.Command{
	Use:         "styles",
	Short:       "List the available citation styles",
	Annotations: offline,
	Run: func(cmd *cobra.Command, args []string) {
		for i, s := range format.Styles() {
			fmt.Printf("  [%2d] %-10s %s\n", i+1, s.Key, s.Name)
		}
	},
}

func init() {
	rootCmd.AddCommand(stylesCmd)
}
