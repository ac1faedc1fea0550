// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

package latex

import (
	"fmt"
	"strconv"
	"strings"

	"nickandperla.net/texp/internal/engine"
	"nickandperla.net/texp/internal/macro"
)

// PrintSpec selects a command whose arguments are printed: cmd, cmd:n or
// cmd:n:format, with n counted from 1.
type PrintSpec struct {
	Command string
	Index   int // 0-based; -1 prints all arguments
	Format  string
}

// ParsePrintSpec parses a print-mode specification.
func ParsePrintSpec(s string) (PrintSpec, error) {
	parts := strings.SplitN(s, ":", 3)
	spec := PrintSpec{Command: parts[0], Index: -1, Format: "%s"}
	if spec.Command == "" {
		return spec, fmt.Errorf("print spec %q: missing command", s)
	}
	if len(parts) > 1 {
		n, err := strconv.Atoi(parts[1])
		if err != nil || n < 1 {
			return spec, fmt.Errorf("print spec %q: invalid argument number %q", s, parts[1])
		}
		spec.Index = n - 1
	}
	if len(parts) > 2 {
		spec.Format = parts[2]
	}
	return spec, nil
}

// Printer writes the arguments of each invocation to standard output and
// then chains to the previous definition, if any.
type Printer struct {
	Spec  PrintSpec
	Chain macro.Value
}

func (p *Printer) String() string {
	return "<printer " + p.Spec.Command + ">"
}

// Call implements engine.Callable.
func (p *Printer) Call(e *engine.Engine, c *engine.Call) (engine.Outcome, error) {
	var line string
	if p.Spec.Index < 0 {
		line = strings.Join(c.Args, "|")
	} else {
		if p.Spec.Index >= len(c.Args) {
			return engine.Outcome{}, engine.ArityError("%s: no argument %d to print", c.Name, p.Spec.Index+1)
		}
		s, err := macro.Format(p.Spec.Format, []string{c.Args[p.Spec.Index]}, nil)
		if err != nil {
			return engine.Outcome{}, fmt.Errorf("print format for %s: %w", c.Name, err)
		}
		line = s
	}
	fmt.Fprintln(e.Stdout(), line)

	if p.Chain != nil {
		return e.Invoke(p.Chain, c)
	}
	return engine.NoValue(), nil
}

// SetPrintMode enables structural-command mode, wraps the command named by
// spec in a Printer and turns document output off.
func SetPrintMode(e *engine.Engine, spec PrintSpec) error {
	if err := Enable(e); err != nil {
		return err
	}
	t := e.Table()
	prev, _ := t.Get(spec.Command)
	if err := t.Provide(spec.Command, &Printer{Spec: spec, Chain: prev}); err != nil {
		return err
	}
	e.SetOutputEnabled(false)
	return nil
}
