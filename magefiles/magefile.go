//go:build mage

// Package main contains Mage build targets for citeformat developer tooling.
package main

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

const (
	binDir  = "bin"
	binName = "citeformat"
	cmdPkg  = "./cmd/citeformat"

	demoInput = "testdata/refs.txt"
	demoDir   = "output"
)

// Build compiles the CLI binary into bin/.
func Build() error {
	if err := os.MkdirAll(binDir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", binDir, err)
	}
	out := filepath.Join(binDir, binName)
	if err := sh.RunV("go", "build", "-o", out, cmdPkg); err != nil {
		return fmt.Errorf("go build: %w", err)
	}
	fmt.Printf("Built %s\n", out)
	return nil
}

// Test runs the unit tests.
func Test() error {
	return sh.RunV("go", "test", "./...")
}

// Demo formats the sample reference file in every rich format. Ambiguous
// lines are skipped; it needs network access to CrossRef.
func Demo() error {
	mg.Deps(Build)
	if err := os.MkdirAll(demoDir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", demoDir, err)
	}
	bin := filepath.Join(binDir, binName)
	for _, f := range []struct{ format, ext string }{
		{"markdown", ".md"},
		{"html", ".html"},
		{"pdf", ".pdf"},
		{"csl", ".yaml"},
	} {
		out := filepath.Join(demoDir, "refs_references"+f.ext)
		if err := sh.RunV(bin, "format", demoInput,
			"--non-interactive",
			"--style", "apa",
			"--output", f.format,
			"--out", out,
			"--highlight", "hinton",
		); err != nil {
			return fmt.Errorf("demo %s: %w", f.format, err)
		}
	}
	return nil
}

// Clean removes build and demo output.
func Clean() error {
	for _, dir := range []string{binDir, demoDir} {
		if err := sh.Rm(dir); err != nil {
			return err
		}
	}
	return nil
}

// Stats prints project metrics: Go production/test lines and Markdown word count.
func Stats() error {
	var prod, tests, words int
	err := walkProject(func(path string, data []byte) {
		switch {
		case strings.HasSuffix(path, "_test.go"):
			tests += countLines(data)
		case filepath.Ext(path) == ".go":
			prod += countLines(data)
		case filepath.Ext(path) == ".md":
			words += len(strings.Fields(string(data)))
		}
	})
	if err != nil {
		return err
	}

	fmt.Printf("Lines of code (Go, production): %d\n", prod)
	fmt.Printf("Lines of code (Go, tests):      %d\n", tests)
	fmt.Printf("Words (documentation):           %d\n", words)
	return nil
}

// walkProject calls fn for every file in the module, skipping hidden and
// underscore-prefixed directories and build output.
func walkProject(fn func(path string, data []byte)) error {
	return filepath.WalkDir(".", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			name := d.Name()
			if path != "." && (strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_") || name == binDir || name == demoDir) {
				return filepath.SkipDir
			}
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}
		fn(path, data)
		return nil
	})
}

// countLines counts non-blank lines.
func countLines(data []byte) int {
	n := 0
	for _, line := range strings.Split(string(data), "\n") {
		if strings.TrimSpace(line) != "" {
			n++
		}
	}
	return n
}
