// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Input is a parsed reference file.
type Input struct {
	Lines      []string
	Duplicates []string
}

var (
	resolverURL = regexp.MustCompile(`https?://(?:dx\.)?doi\.org/`)
	separators  = regexp.MustCompile(`[|.,;:\-]`)
)

// ParseLines reads one reference per line. Blank lines and lines starting
// with "#" are ignored; a line whose NormalizeKey matches an earlier line is
// reported in Duplicates instead of Lines.
func ParseLines(r io.Reader) (Input, error) {
	var (
		in   Input
		seen = make(map[string]bool)
	)
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key := NormalizeKey(line)
		if seen[key] {
			in.Duplicates = append(in.Duplicates, line)
			continue
		}
		seen[key] = true
		in.Lines = append(in.Lines, line)
	}
	if err := sc.Err(); err != nil {
		return in, fmt.Errorf("reading references: %w", err)
	}
	return in, nil
}

// SplitLines is ParseLines over a string.
func SplitLines(text string) Input {
	in, _ := ParseLines(strings.NewReader(text))
	return in
}

// NormalizeKey reduces a line to a comparison key: NFKC, lowercase,
// resolver prefix removed, separators turned into spaces, remaining
// punctuation dropped and whitespace collapsed.
func NormalizeKey(line string) string {
	line = strings.ToLower(norm.NFKC.String(strings.TrimSpace(line)))
	line = resolverURL.ReplaceAllString(line, "")
	line = separators.ReplaceAllString(line, " ")
	line = strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) || r == '_' {
			return r
		}
		return -1
	}, line)
	return strings.Join(strings.Fields(line), " ")
}
