// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

package script

import (
	"errors"
	"fmt"
	"sort"
	"strconv"

	"nickandperla.net/texp/internal/engine"
	"nickandperla.net/texp/internal/expr"
	"nickandperla.net/texp/internal/macro"
	"nickandperla.net/texp/internal/token"
)

// MaxDepth limits nested function calls.
const MaxDepth = 500

// ErrName is returned when a name is neither a local nor a table entry.
var ErrName = errors.New("name is not defined")

// frame holds the locals of one function call.
type frame struct {
	vars   map[string]macro.Value
	parent *frame
}

func (f *frame) lookup(name string) (macro.Value, bool) {
	for ; f != nil; f = f.parent {
		if v, ok := f.vars[name]; ok {
			return v, true
		}
	}
	return nil, false
}

// Interp executes blocks and calls the functions they define. It
// implements engine.Evaluator.
type Interp struct {
	e     *engine.Engine
	frame *frame // nil at top level
	depth int
}

// New creates an interpreter.
func New() *Interp {
	return &Interp{}
}

var _ engine.Evaluator = (*Interp)(nil)

// Engine returns the engine of the current call.
func (in *Interp) Engine() *engine.Engine {
	return in.e
}

// Exec implements engine.Evaluator.
func (in *Interp) Exec(e *engine.Engine, src string) error {
	stmts, err := Parse(src)
	if err != nil {
		return err
	}
	in.e = e
	saved := in.frame
	in.frame = nil
	defer func() { in.frame = saved }()

	returned, _, err := in.execBlock(stmts)
	if err != nil {
		return err
	}
	if returned {
		return fmt.Errorf("'return' outside function")
	}
	return nil
}

// Invoke implements engine.Evaluator.
func (in *Interp) Invoke(e *engine.Engine, v macro.Value, c *engine.Call) (engine.Outcome, error) {
	in.e = e
	args := make([]macro.Value, len(c.Args))
	for i, a := range c.Args {
		args[i] = Str(a)
	}
	res, err := in.call(v, args, c.Name)
	if err != nil {
		return engine.Outcome{}, err
	}
	return outcome(res), nil
}

func outcome(v macro.Value) engine.Outcome {
	switch x := v.(type) {
	case NoneType:
		return engine.NoValue()
	case nil:
		return engine.NoValue()
	case Str:
		return engine.Text(string(x))
	}
	return engine.Text(text(v))
}

// lookup resolves a name: locals first, then the active table.
func (in *Interp) lookup(name string) (macro.Value, error) {
	if v, ok := in.frame.lookup(name); ok {
		return v, nil
	}
	if v, ok := in.e.Table().Get(name); ok {
		return fromTable(v), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrName, name)
}

func (in *Interp) execBlock(stmts []expr.Stmt) (returned bool, val macro.Value, err error) {
	for _, st := range stmts {
		returned, val, err = in.exec(st)
		if err != nil || returned {
			return returned, val, err
		}
	}
	return false, nil, nil
}

func atLine(line int, err error) error {
	var le *lineError
	if errors.As(err, &le) || errors.Is(err, engine.ErrSkip) {
		return err
	}
	return &lineError{Line: line, Err: err}
}

// lineError attaches the block line to an error raised while executing it.
type lineError struct {
	Line int
	Err  error
}

func (e *lineError) Error() string { return fmt.Sprintf("line %d: %v", e.Line, e.Err) }

func (e *lineError) Unwrap() error { return e.Err }

func (in *Interp) exec(st expr.Stmt) (bool, macro.Value, error) {
	switch s := st.(type) {
	case *expr.Pass:
		return false, nil, nil

	case *expr.ExprStmt:
		if _, err := in.eval(s.X); err != nil {
			return false, nil, atLine(s.Line, err)
		}
		return false, nil, nil

	case *expr.Return:
		if s.Value == nil {
			return true, None, nil
		}
		v, err := in.eval(s.Value)
		if err != nil {
			return false, nil, atLine(s.Line, err)
		}
		return true, v, nil

	case *expr.Assign:
		v, err := in.eval(s.Value)
		if err != nil {
			return false, nil, atLine(s.Line, err)
		}
		if err := in.assign(s.Target, v); err != nil {
			return false, nil, atLine(s.Line, err)
		}
		return false, nil, nil

	case *expr.Def:
		fn, err := in.define(s)
		if err != nil {
			return false, nil, atLine(s.Line, err)
		}
		if err := in.bind(s.Name, fn); err != nil {
			return false, nil, atLine(s.Line, err)
		}
		return false, nil, nil

	case *expr.If:
		cond, err := in.eval(s.Cond)
		if err != nil {
			return false, nil, atLine(s.Line, err)
		}
		if truthy(cond) {
			return in.execBlock(s.Then)
		}
		return in.execBlock(s.Else)

	case *expr.With:
		ctx, err := in.eval(s.Ctx)
		if err != nil {
			return false, nil, atLine(s.Line, err)
		}
		sc, ok := ctx.(ScopeContext)
		if !ok {
			return false, nil, atLine(s.Line, fmt.Errorf("%s cannot be used in a with statement", ctx))
		}
		var returned bool
		var val macro.Value
		err = in.e.Registry().WithScope(sc.Prefix, func() error {
			var err error
			returned, val, err = in.execBlock(s.Body)
			return err
		})
		return returned, val, err
	}
	return false, nil, fmt.Errorf("unknown statement %T", st)
}

// bind assigns a plain name: a local inside a function, otherwise an entry
// of the active table.
func (in *Interp) bind(name string, v macro.Value) error {
	if in.frame != nil {
		in.frame.vars[name] = v
		return nil
	}
	return in.e.Table().Set(name, toTable(v))
}

func (in *Interp) assign(target expr.Expr, v macro.Value) error {
	switch t := target.(type) {
	case expr.Name:
		return in.bind(t.Name, v)
	case expr.Index:
		x, err := in.eval(t.X)
		if err != nil {
			return err
		}
		key, err := in.eval(t.Key)
		if err != nil {
			return err
		}
		ref, ok := x.(*TableRef)
		if !ok {
			return fmt.Errorf("%s does not support item assignment", x)
		}
		return ref.Table.Set(text(key), toTable(v))
	}
	return fmt.Errorf("cannot assign to %s", target)
}

func (in *Interp) define(d *expr.Def) (macro.Value, error) {
	fn := &Function{Def: d, closure: in.frame}
	for _, p := range d.Params {
		if p.Default == nil {
			fn.Defaults = append(fn.Defaults, nil)
			continue
		}
		v, err := in.eval(p.Default)
		if err != nil {
			return nil, err
		}
		fn.Defaults = append(fn.Defaults, v)
	}

	var v macro.Value = fn
	for i := len(d.Decorators) - 1; i >= 0; i-- {
		dec, err := in.eval(d.Decorators[i])
		if err != nil {
			return nil, err
		}
		if v, err = in.call(dec, []macro.Value{v}, d.Decorators[i].String()); err != nil {
			return nil, err
		}
	}
	return v, nil
}

func (in *Interp) eval(x expr.Expr) (macro.Value, error) {
	switch n := x.(type) {
	case expr.Str:
		return Str(n.Value), nil
	case expr.Num:
		f, err := strconv.ParseFloat(n.Text, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid number %q", n.Text)
		}
		return Num(f), nil
	case expr.Const:
		switch n.Kind {
		case token.TRUE:
			return Bool(true), nil
		case token.FALSE:
			return Bool(false), nil
		}
		return None, nil
	case expr.Name:
		return in.lookup(n.Name)
	case expr.Not:
		v, err := in.eval(n.X)
		if err != nil {
			return nil, err
		}
		return Bool(!truthy(v)), nil
	case expr.Binary:
		return in.binary(n)
	case expr.Index:
		return in.index(n)
	case expr.Call:
		fn, err := in.eval(n.Fn)
		if err != nil {
			return nil, err
		}
		args := make([]macro.Value, len(n.Args))
		for i, a := range n.Args {
			if args[i], err = in.eval(a); err != nil {
				return nil, err
			}
		}
		return in.call(fn, args, n.Fn.String())
	}
	return nil, fmt.Errorf("unknown expression %T", x)
}

func (in *Interp) binary(b expr.Binary) (macro.Value, error) {
	x, err := in.eval(b.X)
	if err != nil {
		return nil, err
	}
	switch b.Op {
	case token.AND:
		if !truthy(x) {
			return x, nil
		}
		return in.eval(b.Y)
	case token.OR:
		if truthy(x) {
			return x, nil
		}
		return in.eval(b.Y)
	}
	y, err := in.eval(b.Y)
	if err != nil {
		return nil, err
	}
	switch b.Op {
	case token.EQ:
		return Bool(equal(x, y)), nil
	case token.NE:
		return Bool(!equal(x, y)), nil
	case token.PLUS:
		x, y = fromTable(x), fromTable(y)
		if xs, ok := x.(Str); ok {
			if ys, ok := y.(Str); ok {
				return xs + ys, nil
			}
		}
		if xn, ok := x.(Num); ok {
			if yn, ok := y.(Num); ok {
				return xn + yn, nil
			}
		}
		return nil, fmt.Errorf("unsupported operand types for +: %s and %s", typeName(x), typeName(y))
	}
	return nil, fmt.Errorf("unknown operator %s", b.Op)
}

func (in *Interp) index(n expr.Index) (macro.Value, error) {
	x, err := in.eval(n.X)
	if err != nil {
		return nil, err
	}
	key, err := in.eval(n.Key)
	if err != nil {
		return nil, err
	}
	switch c := fromTable(x).(type) {
	case *TableRef:
		v, ok := c.Table.Get(text(key))
		if !ok {
			return nil, &engine.NotFoundError{Name: text(key)}
		}
		return fromTable(v), nil
	case Str:
		i, ok := key.(Num)
		r := []rune(string(c))
		if !ok || Num(int(i)) != i {
			return nil, fmt.Errorf("string index must be an integer")
		}
		idx := int(i)
		if idx < 0 {
			idx += len(r)
		}
		if idx < 0 || idx >= len(r) {
			return nil, fmt.Errorf("string index out of range")
		}
		return Str(r[idx]), nil
	}
	return nil, fmt.Errorf("%s is not subscriptable", typeName(x))
}

// call invokes a callable value with already evaluated arguments.
func (in *Interp) call(fn macro.Value, args []macro.Value, name string) (macro.Value, error) {
	switch f := fn.(type) {
	case *Function:
		return in.callFunction(f, args)
	case *Builtin:
		return f.Fn(in, args)
	case Str:
		return formatTemplate(string(f), args)
	case macro.Template:
		return formatTemplate(f.Text, args)
	case engine.Ignore:
		return ignore(args)
	case engine.Callable:
		c := &engine.Call{Name: name, Args: textArgs(args), Match: in.e.Match()}
		out, err := in.e.Invoke(f, c)
		if err != nil {
			return nil, err
		}
		if out.NoValue {
			return None, nil
		}
		return Str(out.Text), nil
	}
	return nil, fmt.Errorf("%s object is not callable", typeName(fn))
}

func formatTemplate(tmpl string, args []macro.Value) (macro.Value, error) {
	s, err := macro.Format(tmpl, textArgs(args), nil)
	if err != nil {
		if errors.Is(err, macro.ErrArgCount) {
			return nil, engine.ArityError("%v", err)
		}
		return nil, err
	}
	return Str(s), nil
}

func textArgs(args []macro.Value) []string {
	out := make([]string, len(args))
	for i, a := range args {
		out[i] = text(a)
	}
	return out
}

func (in *Interp) callFunction(f *Function, args []macro.Value) (macro.Value, error) {
	return in.callFunctionKw(f, args, nil)
}

// callFunctionKw binds args positionally and kw by parameter name.
func (in *Interp) callFunctionKw(f *Function, args []macro.Value, kw map[string]macro.Value) (macro.Value, error) {
	d := f.Def
	if len(args) > len(d.Params) {
		return nil, engine.ArityError("%s() takes %d positional arguments but %d were given", d.Name, len(d.Params), len(args))
	}
	fr := &frame{vars: make(map[string]macro.Value, len(d.Params)), parent: f.closure}
	used := 0
	for i, p := range d.Params {
		v, named := kw[p.Name]
		if named {
			used++
		}
		switch {
		case i < len(args) && named:
			return nil, engine.ArityError("%s() got multiple values for argument %q", d.Name, p.Name)
		case i < len(args):
			fr.vars[p.Name] = args[i]
		case named:
			fr.vars[p.Name] = v
		case f.Defaults[i] != nil:
			fr.vars[p.Name] = f.Defaults[i]
		default:
			return nil, engine.ArityError("%s() missing required argument %q", d.Name, p.Name)
		}
	}
	if used < len(kw) {
		keys := make([]string, 0, len(kw))
		for k := range kw {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if !d.HasParam(k) {
				return nil, engine.ArityError("%s() got an unexpected keyword argument %q", d.Name, k)
			}
		}
	}

	if in.depth >= MaxDepth {
		return nil, fmt.Errorf("maximum call depth exceeded in %s()", d.Name)
	}
	in.depth++
	saved := in.frame
	in.frame = fr
	defer func() {
		in.frame = saved
		in.depth--
	}()

	_, v, err := in.execBlock(d.Body)
	if err != nil {
		return nil, err
	}
	if v == nil {
		return None, nil
	}
	return v, nil
}

func typeName(v macro.Value) string {
	switch v.(type) {
	case Str, macro.Template:
		return "str"
	case Num:
		return "number"
	case Bool:
		return "bool"
	case NoneType:
		return "NoneType"
	case *Function, *Builtin:
		return "function"
	case *TableRef:
		return "scope"
	}
	return fmt.Sprintf("%T", v)
}
