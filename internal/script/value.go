// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

// Package script implements the block language: a small indentation
// structured language whose top-level bindings live in the macro tables.
package script

import (
	"fmt"
	"strconv"

	"nickandperla.net/texp/internal/expr"
	"nickandperla.net/texp/internal/macro"
)

// Str is a string value.
type Str string

func (s Str) String() string { return string(s) }

// Num is a numeric value.
type Num float64

func (n Num) String() string { return strconv.FormatFloat(float64(n), 'g', -1, 64) }

// Bool is a truth value.
type Bool bool

func (b Bool) String() string {
	if b {
		return "True"
	}
	return "False"
}

// NoneType is the type of None.
type NoneType struct{}

func (NoneType) String() string { return "None" }

// None is the absent value.
var None = NoneType{}

// Function is a function defined in a block.
type Function struct {
	Def      *expr.Def
	Defaults []macro.Value // evaluated when the def statement runs
	closure  *frame
}

func (f *Function) String() string { return "<function " + f.Def.Name + ">" }

// Builtin is a function implemented in Go.
type Builtin struct {
	Name string
	Fn   func(in *Interp, args []macro.Value) (macro.Value, error)
}

func (b *Builtin) String() string { return "<builtin " + b.Name + ">" }

// TableRef is the value of get_scope(): an indexable handle on a table.
type TableRef struct {
	Prefix rune
	Table  *macro.Table
}

func (t *TableRef) String() string { return fmt.Sprintf("<scope %c>", t.Prefix) }

// ScopeContext is the value of _scope(p), usable in a with statement.
type ScopeContext struct {
	Prefix rune
}

func (s ScopeContext) String() string { return fmt.Sprintf("<scope context %c>", s.Prefix) }

// text returns the string form of a value, treating templates as strings.
func text(v macro.Value) string {
	if t, ok := macro.IsTemplate(v); ok {
		return t
	}
	return v.String()
}

// fromTable converts a stored value to its script form.
func fromTable(v macro.Value) macro.Value {
	if t, ok := macro.IsTemplate(v); ok {
		return Str(t)
	}
	return v
}

// toTable converts a script value to its stored form: strings become
// templates.
func toTable(v macro.Value) macro.Value {
	if s, ok := v.(Str); ok {
		return macro.NewTemplate(string(s))
	}
	return v
}

func truthy(v macro.Value) bool {
	switch x := v.(type) {
	case NoneType:
		return false
	case Bool:
		return bool(x)
	case Str:
		return x != ""
	case Num:
		return x != 0
	case macro.Template:
		return x.Text != ""
	}
	return v != nil
}

func equal(a, b macro.Value) bool {
	a, b = fromTable(a), fromTable(b)
	switch x := a.(type) {
	case Str:
		y, ok := b.(Str)
		return ok && x == y
	case Num:
		y, ok := b.(Num)
		return ok && x == y
	case Bool:
		y, ok := b.(Bool)
		return ok && x == y
	case NoneType:
		_, ok := b.(NoneType)
		return ok
	}
	return a == b
}
