// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/citeformat/internal/cache"
	"github.com/pdiddy/citeformat/internal/format"
	"github.com/pdiddy/citeformat/internal/pipeline"
	"github.com/pdiddy/citeformat/internal/render"
	"github.com/pdiddy/citeformat/pkg/types"
)

var formatCmd = &cobra.Command{
	Use:   "format [file]",
	Short: "Resolve a reference file and write the formatted list",
	Long: `Format reads one reference per line from file (or stdin when file is
omitted or "-"), resolves every line against CrossRef and renders the
numbered list in the chosen style.

Ambiguous lines prompt for a choice among the top candidates unless
--non-interactive is set, in which case they are skipped. Lines that could
not be resolved are listed on stderr with the reason.

Rich formats are written to <input>_references.<ext> unless --out is given;
console output goes to stdout.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runFormat,
}

func init() {
	formatCmd.Flags().StringP("style", "s", "", "citation style key or menu number (see 'citeformat styles')")
	formatCmd.Flags().StringP("output", "o", "", "output format: console, markdown, html, pdf, csl")
	formatCmd.Flags().String("out", "", "output file (default <input>_references.<ext>)")
	formatCmd.Flags().StringArray("highlight", nil, "author name to set in bold (repeatable)")
	formatCmd.Flags().Bool("non-interactive", false, "skip ambiguous lines instead of prompting")

	_ = viper.BindPFlag("output.style", formatCmd.Flags().Lookup("style"))
	_ = viper.BindPFlag("output.format", formatCmd.Flags().Lookup("output"))

	rootCmd.AddCommand(formatCmd)
}

func runFormat(cmd *cobra.Command, args []string) error {
	inputPath := "-"
	if len(args) == 1 {
		inputPath = args[0]
	}
	outPath, _ := cmd.Flags().GetString("out")
	highlights, _ := cmd.Flags().GetStringArray("highlight")
	nonInteractive, _ := cmd.Flags().GetBool("non-interactive")

	in, err := readInput(inputPath)
	if err != nil {
		return err
	}
	if len(in.Lines) == 0 {
		fmt.Fprintln(os.Stderr, "No entries found. Exiting.")
		return nil
	}

	style, ok := format.Lookup(cfg.Output.Style)
	if !ok {
		return fmt.Errorf("unknown citation style %q", cfg.Output.Style)
	}
	renderer, err := render.For(cfg.Output.Format)
	if err != nil {
		return err
	}

	var chooser pipeline.Chooser = pipeline.SkipAll
	if !nonInteractive {
		if inputPath == "-" {
			fmt.Fprintln(os.Stderr, "Reading references from stdin; ambiguous lines will be skipped.")
		} else {
			chooser = &promptChooser{in: bufio.NewReader(os.Stdin), out: os.Stderr}
		}
	}

	client, counting, backend := openClient()
	defer backend.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	session := pipeline.NewSession(client, style, in, pipeline.WithProgress(os.Stderr))
	list, err := session.Run(ctx, chooser)
	if err != nil {
		return err
	}

	reportUnresolved(os.Stderr, list.Unresolved)
	if _, isNop := backend.(cache.Nop); !isNop {
		hits, misses := counting.Stats()
		fmt.Fprintf(os.Stderr, "Cache: %d hits, %d misses\n", hits, misses)
	}

	doc := render.Document{
		Style:     list.Style,
		Entries:   list.Entries,
		Highlight: highlights,
		Generated: time.Now(),
	}

	if outPath == "" && cfg.Output.Format != types.OutputConsole {
		outPath = defaultOutputPath(inputPath, cfg.Output.Format)
	}
	if outPath == "" {
		return renderer.Render(os.Stdout, doc)
	}
	if err := writeDocument(outPath, renderer, doc); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "Written to %s\n", outPath)
	return nil
}

func readInput(path string) (pipeline.Input, error) {
	if path == "-" {
		return pipeline.ParseLines(os.Stdin)
	}
	f, err := os.Open(path)
	if err != nil {
		return pipeline.Input{}, fmt.Errorf("opening input: %w", err)
	}
	defer f.Close()
	return pipeline.ParseLines(f)
}

func writeDocument(path string, r render.Renderer, doc render.Document) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := r.Render(f, doc); err != nil {
		f.Close()
		return fmt.Errorf("rendering %s: %w", path, err)
	}
	return f.Close()
}

// defaultOutputPath names the output after the input file:
// refs.txt becomes refs_references.md.
func defaultOutputPath(inputPath string, f types.OutputFormat) string {
	base := "references"
	if inputPath != "-" {
		name := filepath.Base(inputPath)
		base = strings.TrimSuffix(name, filepath.Ext(name)) + "_references"
	}
	return base + f.Extension()
}

func reportUnresolved(w io.Writer, unresolved []types.Unresolved) {
	if len(unresolved) == 0 {
		return
	}
	fmt.Fprintf(w, "\nUnresolved (%d):\n", len(unresolved))
	for _, u := range unresolved {
		fmt.Fprintf(w, "  [%s] %s\n", u.Reason, u.Line)
	}
}
