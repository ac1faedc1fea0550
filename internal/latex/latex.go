// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

// Package latex implements structural-command mode: the primary prefix
// becomes a backslash and \newcommand, \input, \begin, \end, \usepackage
// and \documentclass are understood.
package latex

import (
	"fmt"
	"path/filepath"
	"strings"

	"nickandperla.net/texp/internal/engine"
)

// Prefix is the primary prefix in structural-command mode.
const Prefix = '\\'

// Enable switches e to structural-command mode. It is safe to call more
// than once.
func Enable(e *engine.Engine) error {
	reg := e.Registry()
	if reg.Primary() == Prefix && reg.Root().Has("newcommand") {
		return nil
	}
	reg.SetPrimary(Prefix)

	root := reg.Root()
	commands := []struct {
		name string
		fn   func(*engine.Engine, *engine.Call) (engine.Outcome, error)
	}{
		{"newcommand", defineCommand(false)},
		{"newcommand*", defineCommand(false)},
		{"renewcommand", defineCommand(true)},
		{"renewcommand*", defineCommand(true)},
		{"input", input},
		{"usepackage", usePackage},
		{"documentclass", documentClass},
		{"begin", begin},
		{"end", end},
	}
	for _, c := range commands {
		if err := root.Provide(c.name, &engine.Native{Name: c.name, Fn: c.fn}); err != nil {
			return fmt.Errorf("registering %s: %w", c.name, err)
		}
	}
	return nil
}

func defineCommand(redefine bool) func(*engine.Engine, *engine.Call) (engine.Outcome, error) {
	return func(e *engine.Engine, c *engine.Call) (engine.Outcome, error) {
		if len(c.Args) == 0 || len(c.Args) > 2 {
			return engine.Outcome{}, engine.ArityError("\\%s takes a name and an optional body, got %d args", c.Name, len(c.Args))
		}
		name := c.Args[0]
		key := strings.TrimPrefix(name, string(Prefix))
		t := e.Table()

		old, exists := t.Get(key)
		if exists && engine.IsIgnore(old) {
			e.Logf(3, `Ignoring \%s{%s}`, c.Name, name)
			return engine.Outcome{}, engine.ErrSkip
		}

		var body *string
		if len(c.Args) == 2 {
			body = &c.Args[1]
		}
		cmd := NewCommand(name, body)
		if !redefine && exists && e.Pass() != 2 {
			e.Logf(2, "Redefining %s", name)
		}
		if err := t.Set(key, cmd); err != nil {
			return engine.Outcome{}, err
		}
		if !cmd.Finished {
			return engine.Text(name), nil
		}
		return engine.NoValue(), nil
	}
}

// InputPath returns the file \input{name} refers to.
func InputPath(name string) string {
	if filepath.Ext(name) != "" {
		return name
	}
	return name + ".tex"
}

// input processes the named file with the current tables. The result is
// escaped so the already expanded text is not expanded again.
func input(e *engine.Engine, c *engine.Call) (engine.Outcome, error) {
	if len(c.Args) != 1 {
		return engine.Outcome{}, engine.ArityError("\\input takes one argument, got %d", len(c.Args))
	}
	mark := e.Logger().Save()
	lines, err := e.ProcessFile(InputPath(c.Args[0]))
	e.Logger().Restore(mark)
	if err != nil {
		return engine.Outcome{}, err
	}
	if n := len(lines); n > 0 {
		lines[n-1] = strings.TrimSpace(lines[n-1])
	}
	var sb strings.Builder
	for _, l := range lines {
		sb.WriteString(e.Escape(l))
	}
	return engine.Text(sb.String()), nil
}

func splitList(s string) []string {
	if s == "" {
		return []string{}
	}
	return strings.Split(s, ",")
}

func usePackage(e *engine.Engine, c *engine.Call) (engine.Outcome, error) {
	if len(c.Args) == 0 {
		return engine.Outcome{}, engine.ArityError("\\usepackage needs a package name")
	}
	var opts []string
	if c.Optional != nil {
		opts = splitList(*c.Optional)
	}
	for _, name := range splitList(c.Args[0]) {
		e.Document().Packages[strings.TrimSpace(name)] = opts
	}
	return engine.Outcome{}, engine.ErrSkip
}

func documentClass(e *engine.Engine, c *engine.Call) (engine.Outcome, error) {
	if len(c.Args) == 0 {
		return engine.Outcome{}, engine.ArityError("\\documentclass needs a class name")
	}
	doc := e.Document()
	doc.Class = c.Args[0]
	doc.ClassOptions = nil
	if c.Optional != nil {
		doc.ClassOptions = splitList(*c.Optional)
	}
	return engine.Outcome{}, engine.ErrSkip
}

func begin(e *engine.Engine, c *engine.Call) (engine.Outcome, error) {
	if len(c.Args) == 0 {
		return engine.Outcome{}, engine.ArityError("\\begin needs an environment name")
	}
	e.Document().Begin(c.Args[0])
	return engine.Outcome{}, engine.ErrSkip
}

// end pops the environment stack. A mismatch is reported but the command
// is left in place like every other structural command.
func end(e *engine.Engine, c *engine.Call) (engine.Outcome, error) {
	if len(c.Args) != 1 {
		return engine.Outcome{}, engine.ArityError("\\end takes one argument, got %d", len(c.Args))
	}
	expected, ok := e.Document().End()
	switch {
	case !ok:
		e.Log(fmt.Errorf("%w: \\end{%s} without \\begin", engine.ErrEnvironmentMismatch, c.Args[0]))
	case expected != c.Args[0]:
		e.Log(fmt.Errorf(`%w: expected "\end{%s}", not "%s"`, engine.ErrEnvironmentMismatch, expected, c.Args[0]))
	}
	return engine.Outcome{}, engine.ErrSkip
}

// Ignore binds each name so that its invocations are left unexpanded.
func Ignore(e *engine.Engine, names ...string) error {
	for _, n := range names {
		if err := e.Table().Set(n, engine.Ignore{}); err != nil {
			return err
		}
	}
	return nil
}

var _ engine.Callable = (*Command)(nil)
