package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:         "version",
	Short:       "Print the version of citeformat",
	Annotations: offline,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("citeformat %s\n", version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
