// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

package engine

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"nickandperla.net/texp/internal/macro"
)

// Exec submits one block of code to the evaluator. A failure is logged
// together with the block and always terminates the run.
func (e *Engine) Exec(src string) error {
	if e.verbose >= 3 {
		trace := ">>> " + strings.ReplaceAll(src, "\n", "\n>>> ")
		fmt.Fprintln(e.log.Writer(), trace)
	}
	if e.eval == nil {
		return fmt.Errorf("%w: no evaluator configured", ErrBlockFailed)
	}
	if err := e.eval.Exec(e, src); err != nil {
		if errors.Is(err, ErrVersionMismatch) {
			e.log.Print(err)
			return err
		}
		e.log.Print(err)
		e.log.Block("code block", src)
		return fmt.Errorf("%w: %w", ErrBlockFailed, err)
	}
	return nil
}

// ExecExpression runs a single line of code after block-line rewriting.
func (e *Engine) ExecExpression(src string) error {
	return e.Exec(Fixup(src))
}

// ExecFile runs a whole file as one block, rewriting every line.
func (e *Engine) ExecFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading include file: %w", err)
	}
	return e.ExecSource(path, string(data))
}

// ExecSource runs src as one block, rewriting every line. name is used in
// diagnostics.
func (e *Engine) ExecSource(name, src string) error {
	var sb strings.Builder
	for _, line := range strings.SplitAfter(src, "\n") {
		sb.WriteString(Fixup(line))
	}
	e.log.SetLocation(name, 0)
	return e.Exec(sb.String())
}

// Process scans one document and returns its output lines.
func (e *Engine) Process(name string, r io.Reader) ([]string, error) {
	s := e.NewSession(name)
	br := bufio.NewReader(r)
	var out []string
	for {
		line, err := br.ReadString('\n')
		if line != "" {
			lines, ferr := s.Feed(line)
			out = append(out, lines...)
			if ferr != nil {
				return out, ferr
			}
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return out, fmt.Errorf("reading %s: %w", name, err)
		}
	}
	lines, err := s.Close()
	return append(out, lines...), err
}

// Input is a named document that can be opened once per pass.
type Input struct {
	Name string
	Open func() (io.ReadCloser, error)
}

// FileInput returns the input for the file at path.
func FileInput(path string) Input {
	return Input{Name: path, Open: func() (io.ReadCloser, error) {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("opening input: %w", err)
		}
		return f, nil
	}}
}

// ReaderInput returns an input that reads r on the first open and replays
// the same bytes on every later one.
func ReaderInput(name string, r io.Reader) Input {
	var data []byte
	var read bool
	return Input{Name: name, Open: func() (io.ReadCloser, error) {
		if !read {
			b, err := io.ReadAll(r)
			if err != nil {
				return nil, fmt.Errorf("reading %s: %w", name, err)
			}
			data, read = b, true
		}
		return io.NopCloser(bytes.NewReader(data)), nil
	}}
}

// input resolves a path; "-" is the engine's standard input, shared by
// every occurrence and every pass.
func (e *Engine) input(path string) Input {
	if path != "-" {
		return FileInput(path)
	}
	if e.stdinInput == nil {
		in := ReaderInput("stdin", e.stdin)
		e.stdinInput = &in
	}
	return *e.stdinInput
}

// ProcessFile scans a file; "-" reads standard input.
func (e *Engine) ProcessFile(path string) ([]string, error) {
	return e.processInput(e.input(path))
}

func (e *Engine) processInput(in Input) ([]string, error) {
	rc, err := in.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return e.Process(in.Name, rc)
}

// Run processes every input file and writes the output. In two-pass mode
// all files are first processed with their output discarded.
func (e *Engine) Run(paths []string) error {
	inputs := make([]Input, len(paths))
	for i, p := range paths {
		inputs[i] = e.input(p)
	}
	return e.RunInputs(inputs)
}

// RunInputs is Run for arbitrary inputs. Two-pass mode opens every input
// twice.
func (e *Engine) RunInputs(inputs []Input) error {
	if e.twoPass {
		e.pass = 1
		for _, in := range inputs {
			if _, err := e.processInput(in); err != nil {
				return err
			}
		}
		e.pass = 2
	}
	for _, in := range inputs {
		lines, err := e.processInput(in)
		if err != nil {
			return err
		}
		if err := e.WriteLines(lines); err != nil {
			return err
		}
	}
	e.Report()
	return nil
}

// Report writes the macro listing to the log when show-macros is on.
func (e *Engine) Report() {
	if e.showMacros {
		e.ShowMacros(e.log.Writer())
	}
}

// WriteLines writes output lines unless output is disabled.
func (e *Engine) WriteLines(lines []string) error {
	if !e.output {
		return nil
	}
	for _, l := range lines {
		if _, err := io.WriteString(e.out, l); err != nil {
			return fmt.Errorf("writing output: %w", err)
		}
	}
	return nil
}

// ShowMacros lists the entries of the primary table, then the user entries
// of every other prefix. Entries never invoked are marked.
func (e *Engine) ShowMacros(w io.Writer) {
	root := e.registry.Root()
	var globalHidden, userHidden, global, user []string
	for _, class := range []macro.Class{macro.Hidden, macro.User} {
		for _, ent := range root.Entries(class) {
			name := ent.Name
			if class == macro.User && e.usage[name] == 0 {
				name += " (unused)"
			}
			switch {
			case class == macro.Hidden && ent.Builtin:
				globalHidden = append(globalHidden, name)
			case class == macro.Hidden:
				userHidden = append(userHidden, name)
			case ent.Builtin:
				global = append(global, name)
			default:
				user = append(user, name)
			}
		}
	}
	fmt.Fprintln(w, "Global (hidden):", strings.Join(globalHidden, ", "))
	fmt.Fprintln(w, "User (hidden):", strings.Join(userHidden, ", "))
	fmt.Fprintln(w, "Global:", strings.Join(global, ", "))
	fmt.Fprintln(w, "User:", strings.Join(user, ", "))

	for _, p := range e.registry.Prefixes()[1:] {
		var names []string
		for _, ent := range e.registry.Table(p).Entries(macro.User) {
			names = append(names, ent.Name)
		}
		sort.Strings(names)
		fmt.Fprintf(w, "Scope %c: %s\n", p, strings.Join(names, ", "))
	}
}
