// texp-check: Syntax checker for texp documents and code files.
//
// Every block of a document is parsed but not executed, so macros are not
// expanded and no output is written. Files ending in .texp are parsed as a
// whole, the way -i reads them.
//
// Usage:
//
//	texp-check FILE [FILE...]
//	texp-check --dir DIR
package main

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"nickandperla.net/texp/internal/engine"
	"nickandperla.net/texp/internal/script"
)

// checkResult holds the outcome of checking a single file.
type checkResult struct {
	path   string
	errors []string
}

// checkFile parses the blocks of path and returns their syntax errors.
func checkFile(path string) checkResult {
	content, err := os.ReadFile(path)
	if err != nil {
		return checkResult{
			path:   path,
			errors: []string{fmt.Sprintf("read error: %v", err)},
		}
	}

	c := script.NewChecker()
	e, err := engine.New(c, engine.WithQuiet(), engine.WithVerbose(0),
		engine.WithAbort(-1), engine.WithLog(io.Discard))
	if err != nil {
		return checkResult{path: path, errors: []string{err.Error()}}
	}

	if strings.HasSuffix(path, ".texp") {
		err = e.ExecSource(path, string(content))
	} else {
		_, err = e.Process(path, strings.NewReader(string(content)))
	}
	errs := c.Errors
	if err != nil {
		// unclosed arguments and blocks end the scan
		errs = append(errs, err.Error())
	}
	return checkResult{path: path, errors: errs}
}

// findFiles recursively finds all .tex and .texp files under dir.
func findFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		switch filepath.Ext(d.Name()) {
		case ".tex", ".texp":
			files = append(files, path)
		}
		return nil
	})
	sort.Strings(files)
	return files, err
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	if len(args) < 1 {
		fmt.Fprintln(stderr, "Usage: texp-check [--dir DIR] FILE [FILE...]")
		return 1
	}

	var files []string
	for i := 0; i < len(args); i++ {
		if args[i] == "--dir" {
			if i+1 >= len(args) {
				fmt.Fprintln(stderr, "Error: --dir requires an argument")
				return 1
			}
			i++
			found, err := findFiles(args[i])
			if err != nil {
				fmt.Fprintf(stderr, "Error scanning directory %s: %v\n", args[i], err)
				return 1
			}
			files = append(files, found...)
		} else {
			files = append(files, args[i])
		}
	}

	if len(files) == 0 {
		fmt.Fprintln(stderr, "No .tex or .texp files found")
		return 1
	}

	passed := 0
	failed := 0
	for _, f := range files {
		result := checkFile(f)
		if len(result.errors) > 0 {
			failed++
			fmt.Fprintf(stdout, "FAIL %s\n", f)
			for _, e := range result.errors {
				fmt.Fprintf(stdout, "     %s\n", e)
			}
		} else {
			passed++
			fmt.Fprintf(stdout, "OK   %s\n", f)
		}
	}

	fmt.Fprintf(stdout, "\n--- Summary ---\n")
	fmt.Fprintf(stdout, "Passed: %d\n", passed)
	fmt.Fprintf(stdout, "Failed: %d\n", failed)
	fmt.Fprintf(stdout, "Total:  %d\n", len(files))

	if failed > 0 {
		return 1
	}
	return 0
}
