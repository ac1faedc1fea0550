// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

package engine

import "nickandperla.net/texp/internal/macro"

// Match is the context triple of an invocation: text preceding the match
// on the current output line, the matched source span, and the rest of
// the line after the arguments.
type Match struct {
	Before string
	Source string
	After  string
}

// Part returns element i of the triple (0 before, 1 source, 2 after).
func (m Match) Part(i int) string {
	switch i {
	case 0:
		return m.Before
	case 1:
		return m.Source
	case 2:
		return m.After
	}
	return ""
}

// Call is one resolved invocation handed to a macro value.
type Call struct {
	Prefix   rune
	Name     string
	Args     []string // positional arguments; an optional argument is appended last
	Optional *string  // the leading bracketed argument, if any
	Match    Match
}

// Outcome is the result of invoking a macro value.
type Outcome struct {
	Text    string
	NoValue bool
}

// Text returns an Outcome carrying s.
func Text(s string) Outcome { return Outcome{Text: s} }

// NoValue returns an Outcome signalling that nothing was produced.
func NoValue() Outcome { return Outcome{NoValue: true} }

// Callable is a macro value implemented in Go.
type Callable interface {
	macro.Value
	Call(e *Engine, c *Call) (Outcome, error)
}

// Native adapts a function to Callable.
type Native struct {
	Name string
	Fn   func(e *Engine, c *Call) (Outcome, error)
}

func (n *Native) String() string { return "<native " + n.Name + ">" }

// Call implements Callable.
func (n *Native) Call(e *Engine, c *Call) (Outcome, error) { return n.Fn(e, c) }

// Ignore is bound to names that must be left unexpanded.
type Ignore struct{}

func (Ignore) String() string { return "<ignore>" }

// Call implements Callable.
func (Ignore) Call(*Engine, *Call) (Outcome, error) { return Outcome{}, ErrSkip }

// IsIgnore reports whether v is the ignore entry.
func IsIgnore(v macro.Value) bool {
	switch v.(type) {
	case Ignore, *Ignore:
		return true
	}
	return false
}

// Evaluator executes blocks of definition code and invokes the macro values
// those blocks create.
type Evaluator interface {
	// Install registers the evaluator's internal entries in a new table.
	Install(t *macro.Table) error
	// Exec runs one block submission.
	Exec(e *Engine, src string) error
	// Invoke calls a value that is neither a Template nor a Callable.
	Invoke(e *Engine, v macro.Value, c *Call) (Outcome, error)
}
