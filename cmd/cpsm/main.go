// Command cpsm ranks newline-separated candidates from stdin against a
// fuzzy path query.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/tkonolige/cpsm/internal/constants"
	"github.com/tkonolige/cpsm/pkg/ctrlp"
	"github.com/tkonolige/cpsm/pkg/models"
)

func main() {
	limit := flag.Int("limit", constants.DefaultLimit, "maximum number of results (0 = unlimited)")
	mmode := flag.String("mmode", "full-line", "match mode: full-line, filename-only, first-non-tab, until-last-tab")
	ispath := flag.Bool("ispath", true, "treat candidates as paths")
	crfile := flag.String("crfile", "", "path of the currently open file, for proximity scoring")
	highlight := flag.String("highlight", "", "highlight mode: none, basic, detailed")
	matchCrfile := flag.Bool("match-crfile", true, "allow the crfile itself to match")
	threads := flag.Int("threads", 0, "maximum worker count (0 = one per CPU)")
	invertDelim := flag.String("invert-delim", "", "single-character query inverting delimiter")
	unicodeMode := flag.Bool("unicode", false, "decode candidates and query as UTF-8")
	jsonOutput := flag.Bool("json", false, "output results as JSON")
	flag.Parse()

	if flag.NArg() == 0 {
		fmt.Println("usage: cpsm [flags] <query>")
		fmt.Println("\nCandidates are read from stdin, one per line.")
		fmt.Println("\nExamples:")
		fmt.Println("  find . -type f | cpsm 'srcmain'")
		fmt.Println("  git ls-files | cpsm -limit 20 -crfile src/app.go 'handler'")
		fmt.Println("  git ls-files | cpsm -highlight detailed -json 'foo/bar'")
		return
	}
	query := strings.Join(flag.Args(), " ")

	matchMode, err := models.ParseMatchMode(*mmode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid match mode: %v\n", err)
		os.Exit(1)
	}
	highlightMode, err := models.ParseHighlightMode(*highlight)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid highlight mode: %v\n", err)
		os.Exit(1)
	}

	opts := models.Options{
		Limit:                   *limit,
		MatchMode:               matchMode,
		IsPath:                  *ispath,
		CurFile:                 *crfile,
		HighlightMode:           highlightMode,
		MatchCurFile:            *matchCrfile,
		MaxThreads:              *threads,
		QueryInvertingDelimiter: *invertDelim,
		Unicode:                 *unicodeMode,
	}

	src := newLineSource(os.Stdin)
	result, err := ctrlp.Match(context.Background(), src, []byte(query), opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "match failed: %v\n", err)
		os.Exit(1)
	}

	if *jsonOutput {
		outputJSON(result)
	} else {
		outputText(result)
	}
}

// lineSource feeds stdin lines to the matcher. The handle of each
// candidate is its line as a string.
type lineSource struct {
	scanner *bufio.Scanner
}

func newLineSource(r io.Reader) *lineSource {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	return &lineSource{scanner: scanner}
}

// Next returns the next candidate line, or io.EOF at end of input.
func (s *lineSource) Next() ([]byte, any, error) {
	if !s.scanner.Scan() {
		if err := s.scanner.Err(); err != nil {
			return nil, nil, err
		}
		return nil, nil, io.EOF
	}
	line := append([]byte(nil), s.scanner.Bytes()...)
	return line, string(line), nil
}

func outputText(result *models.Result) {
	if len(result.Matches) == 0 {
		fmt.Println("No matches found")
		return
	}
	for _, m := range result.Matches {
		fmt.Println(m.Handle.(string))
	}
}

func outputJSON(result *models.Result) {
	type jsonOutput struct {
		Matches []string `json:"matches"`
		Regexes []string `json:"regexes,omitempty"`
	}
	out := jsonOutput{
		Matches: make([]string, 0, len(result.Matches)),
		Regexes: result.Regexes,
	}
	for _, m := range result.Matches {
		out.Matches = append(out.Matches, m.Handle.(string))
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to marshal JSON: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(string(data))
}
