package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/peterh/liner"
	"nickandperla.net/texp/pkg/texp"
)

const (
	historyFile = ".texp_history"
	promptMain  = "texp> "
	promptCont  = "...   "
)

func printBanner(w io.Writer) {
	fmt.Fprintf(w, "texp %.2f interactive session (Ctrl+D to exit)\n", texp.Version)
	fmt.Fprintln(w, "Lines are expanded as soon as they are complete; %@ lines define macros.")
	fmt.Fprintln(w)
}

// runREPL feeds typed lines through one session and prints each expanded
// line as soon as it is complete.
func runREPL(runtime *texp.Runtime, stdout, stderr io.Writer) error {
	printBanner(stdout)

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	home, _ := os.UserHomeDir()
	histPath := filepath.Join(home, historyFile)
	if f, err := os.Open(histPath); err == nil {
		_, _ = ln.ReadHistory(f)
		_ = f.Close()
	}
	defer func() {
		if f, err := os.Create(histPath); err == nil {
			_, _ = ln.WriteHistory(f)
			_ = f.Close()
		}
	}()

	e := runtime.Engine()
	s := runtime.NewSession("stdin")
	for {
		prompt := promptMain
		if s.Pending() {
			prompt = promptCont
		}
		line, err := ln.Prompt(prompt)
		if errors.Is(err, io.EOF) || errors.Is(err, liner.ErrPromptAborted) {
			fmt.Fprintln(stdout)
			break
		}
		if err != nil {
			return err
		}
		ln.AppendHistory(line)

		lines, err := s.Feed(line + "\n")
		if werr := e.WriteLines(lines); werr != nil {
			return werr
		}
		if err != nil {
			// the session state is unusable after a fatal error
			fmt.Fprintf(stderr, "Error: %v\n", err)
			s = runtime.NewSession("stdin")
		}
	}

	lines, err := s.Close()
	if werr := e.WriteLines(lines); werr != nil {
		return werr
	}
	if err != nil {
		return err
	}
	return runtime.Finish()
}
