// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

// Package expr defines the syntax tree of the block language.
package expr

import (
	"fmt"
	"strings"

	"nickandperla.net/texp/internal/token"
)

// Expr is the interface all expression nodes implement.
type Expr interface {
	// String returns a source-like representation of the expression.
	String() string
}

// Stmt is the interface all statement nodes implement.
type Stmt interface {
	String() string
	// Pos returns the line the statement starts on.
	Pos() int
}

// Name is a reference to a local or a table entry.
type Name struct {
	Name string
}

func (n Name) String() string { return n.Name }

// Str is a string literal.
type Str struct {
	Value string
}

func (s Str) String() string { return fmt.Sprintf("%q", s.Value) }

// Num is a numeric literal.
type Num struct {
	Text string
}

func (n Num) String() string { return n.Text }

// Const is None, True or False.
type Const struct {
	Kind token.Token
}

func (c Const) String() string { return c.Kind.String() }

// Call is a function call.
type Call struct {
	Fn   Expr
	Args []Expr
}

func (c Call) String() string {
	args := make([]string, len(c.Args))
	for i, a := range c.Args {
		args[i] = a.String()
	}
	return c.Fn.String() + "(" + strings.Join(args, ", ") + ")"
}

// Index is a subscript expression x[key].
type Index struct {
	X   Expr
	Key Expr
}

func (i Index) String() string { return i.X.String() + "[" + i.Key.String() + "]" }

// Binary is a binary operation (+, ==, !=, and, or).
type Binary struct {
	Op   token.Token
	X, Y Expr
}

func (b Binary) String() string {
	return "(" + b.X.String() + " " + b.Op.String() + " " + b.Y.String() + ")"
}

// Not is logical negation.
type Not struct {
	X Expr
}

func (n Not) String() string { return "not " + n.X.String() }

// Param is one function parameter with an optional default.
type Param struct {
	Name    string
	Default Expr // nil if required
}

// Def is a function definition, possibly decorated.
type Def struct {
	Line       int
	Name       string
	Params     []Param
	Body       []Stmt
	Decorators []Expr // outermost first
}

func (d *Def) Pos() int { return d.Line }

// HasParam reports whether name is one of the parameters.
func (d *Def) HasParam(name string) bool {
	for _, p := range d.Params {
		if p.Name == name {
			return true
		}
	}
	return false
}

func (d *Def) String() string {
	var sb strings.Builder
	for _, dec := range d.Decorators {
		sb.WriteString("@" + dec.String() + "\n")
	}
	params := make([]string, len(d.Params))
	for i, p := range d.Params {
		params[i] = p.Name
		if p.Default != nil {
			params[i] += "=" + p.Default.String()
		}
	}
	fmt.Fprintf(&sb, "def %s(%s): ...", d.Name, strings.Join(params, ", "))
	return sb.String()
}

// Return returns from a function; Value is nil for a bare return.
type Return struct {
	Line  int
	Value Expr
}

func (r *Return) Pos() int { return r.Line }

func (r *Return) String() string {
	if r.Value == nil {
		return "return"
	}
	return "return " + r.Value.String()
}

// Assign binds a name or an index target.
type Assign struct {
	Line   int
	Target Expr // Name or Index
	Value  Expr
}

func (a *Assign) Pos() int { return a.Line }

func (a *Assign) String() string { return a.Target.String() + " = " + a.Value.String() }

// If is a conditional; elif chains are nested in Else.
type If struct {
	Line int
	Cond Expr
	Then []Stmt
	Else []Stmt
}

func (i *If) Pos() int { return i.Line }

func (i *If) String() string { return "if " + i.Cond.String() + ": ..." }

// With runs Body inside the context produced by Ctx.
type With struct {
	Line int
	Ctx  Expr
	Body []Stmt
}

func (w *With) Pos() int { return w.Line }

func (w *With) String() string { return "with " + w.Ctx.String() + ": ..." }

// Pass does nothing.
type Pass struct {
	Line int
}

func (p *Pass) Pos() int { return p.Line }

func (p *Pass) String() string { return "pass" }

// ExprStmt evaluates an expression for its side effects.
type ExprStmt struct {
	Line int
	X    Expr
}

func (e *ExprStmt) Pos() int { return e.Line }

func (e *ExprStmt) String() string { return e.X.String() }
