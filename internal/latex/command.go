// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

package latex

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"nickandperla.net/texp/internal/engine"
	"nickandperla.net/texp/internal/macro"
)

var paramRef = regexp.MustCompile(`#([0-9])`)

// Command is a command defined with \newcommand. Because the arity and the
// default value come between the name and the body, a definition may take
// up to three invocations to complete:
//
//	\newcommand{\x}{text}           newcommand(\x, text)  finished
//	\newcommand{\x}[2]{text}        newcommand(\x) -> \x  x(text, 2) finished
//	\newcommand{\x}[3][+]{text}     newcommand(\x) -> \x  x(3) -> \x  x(text, +) finished
//
// Each unfinished stage returns the command name, which the expansion loop
// splices back in front of the remaining arguments.
type Command struct {
	Name       string // including the leading backslash
	Definition string // stored as a template with %(n)s placeholders
	NArgs      int
	HasOpt     bool
	Default    string
	Finished   bool
}

// NewCommand starts a definition. The command is finished immediately when
// the body is given together with the name.
func NewCommand(name string, body *string) *Command {
	c := &Command{Name: name}
	if body != nil {
		c.setDefinition(*body)
		c.NArgs = 0
		c.Finished = true
	}
	return c
}

func (c *Command) String() string {
	if !c.Finished {
		return fmt.Sprintf("<unfinished %s>", c.Name)
	}
	return fmt.Sprintf("<command %s[%d]>", c.Name, c.NArgs)
}

func (c *Command) setDefinition(body string) {
	body = strings.ReplaceAll(body, "%", "%%")
	c.Definition = paramRef.ReplaceAllString(body, "%(${1})s")
}

func (c *Command) setArity(s string) error {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 0 || n > 9 {
		return engine.ArityError("%s: invalid number of arguments %q", c.Name, s)
	}
	c.NArgs = n
	return nil
}

// Advance feeds the arguments of one invocation to an unfinished
// definition. It returns the text to splice back: the command name while
// more stages are expected, otherwise nothing.
func (c *Command) Advance(args []string) (engine.Outcome, error) {
	switch {
	case len(args) == 1:
		if err := c.setArity(args[0]); err != nil {
			return engine.Outcome{}, err
		}
		c.HasOpt = true
		return engine.Text(c.Name), nil
	case len(args) == 2:
		if c.HasOpt {
			c.Default = args[1]
		} else if err := c.setArity(args[1]); err != nil {
			return engine.Outcome{}, err
		}
		c.setDefinition(args[0])
		c.Finished = true
		return engine.NoValue(), nil
	}
	return engine.Outcome{}, engine.ArityError("%s: incomplete definition with %d arguments", c.Name, len(args))
}

// Expand formats a finished command. With an optional argument declared,
// the last supplied argument is the optional one unless exactly NArgs-1
// arguments were given, in which case the default fills the first slot.
func (c *Command) Expand(args []string) (string, error) {
	if c.HasOpt {
		shifted := make([]string, 0, len(args)+1)
		if len(args) == c.NArgs-1 {
			shifted = append(shifted, c.Default)
			shifted = append(shifted, args...)
		} else if len(args) > 0 {
			shifted = append(shifted, args[len(args)-1])
			shifted = append(shifted, args[:len(args)-1]...)
		}
		args = shifted
	}
	if len(args) < c.NArgs {
		return "", engine.ArityError("%s called with only %d args", c.Name, len(args))
	}
	for _, extra := range args[c.NArgs:] {
		if extra != "" {
			return "", engine.ArityError("%s called with extra arg %q", c.Name, extra)
		}
	}

	named := make(map[string]string, c.NArgs)
	for i := 0; i < c.NArgs; i++ {
		named[strconv.Itoa(i+1)] = args[i]
	}
	out, err := macro.Format(c.Definition, nil, named)
	if err != nil {
		return "", engine.ArityError("%s: %v", c.Name, err)
	}
	return out, nil
}

// Call implements engine.Callable.
func (c *Command) Call(e *engine.Engine, call *engine.Call) (engine.Outcome, error) {
	if !c.Finished {
		return c.Advance(call.Args)
	}
	out, err := c.Expand(call.Args)
	if err != nil {
		return engine.Outcome{}, err
	}
	return engine.Text(out), nil
}
