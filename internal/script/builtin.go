// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

package script

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"nickandperla.net/texp/internal/engine"
	"nickandperla.net/texp/internal/latex"
	"nickandperla.net/texp/internal/macro"
)

var (
	formatRef = regexp.MustCompile(`#\(([^)]+)\)`)
	// an invocation whose name is directly followed by a bracket
	optionalRef = regexp.MustCompile(`^.[` + macro.NameChars + `]*\s*\[`)
)

// Install implements engine.Evaluator by registering the builtin entries.
func (in *Interp) Install(t *macro.Table) error {
	for _, b := range in.builtins() {
		if err := t.Builtin(b.Name, b); err != nil {
			return fmt.Errorf("installing %s: %w", b.Name, err)
		}
	}
	return t.Builtin("_ignore", engine.Ignore{})
}

func (in *Interp) builtins() []*Builtin {
	return []*Builtin{
		{Name: "_format", Fn: builtinFormat},
		{Name: "_output", Fn: builtinOutput},
		{Name: "_print", Fn: builtinPrint},
		{Name: "_log", Fn: builtinLog},
		{Name: "_scope", Fn: builtinScope},
		{Name: "get_scope", Fn: builtinGetScope},
		{Name: "current_match", Fn: builtinCurrentMatch},
		{Name: "is_sentence_start", Fn: builtinIsSentenceStart},
		{Name: "upcase_at_start", Fn: builtinUpcaseAtStart},
		{Name: "ensure_math", Fn: builtinEnsureMath},
		{Name: "expect_version", Fn: builtinExpectVersion},
		{Name: "current_pass", Fn: builtinCurrentPass},
		{Name: "usage_count", Fn: builtinUsageCount},
		{Name: "_escape", Fn: builtinEscape},
		{Name: "_eval", Fn: builtinEval},
		{Name: "opt_kwargs", Fn: builtinOptKwargs},
	}
}

func arity(name string, args []macro.Value, min, max int) error {
	if len(args) < min || len(args) > max {
		if min == max {
			return engine.ArityError("%s() takes %d arguments, got %d", name, min, len(args))
		}
		return engine.ArityError("%s() takes %d to %d arguments, got %d", name, min, max, len(args))
	}
	return nil
}

func joined(args []macro.Value) string {
	return strings.Join(textArgs(args), " ")
}

// builtinFormat replaces #(name) with the value name is bound to.
func builtinFormat(in *Interp, args []macro.Value) (macro.Value, error) {
	if err := arity("_format", args, 1, 1); err != nil {
		return nil, err
	}
	var ferr error
	out := formatRef.ReplaceAllStringFunc(text(args[0]), func(m string) string {
		name := formatRef.FindStringSubmatch(m)[1]
		v, err := in.lookup(name)
		if err != nil {
			if ferr == nil {
				ferr = err
			}
			return m
		}
		return text(v)
	})
	if ferr != nil {
		return nil, ferr
	}
	return Str(out), nil
}

func builtinOutput(in *Interp, args []macro.Value) (macro.Value, error) {
	if err := arity("_output", args, 1, 1); err != nil {
		return nil, err
	}
	in.e.Output(text(args[0]))
	return None, nil
}

func builtinPrint(in *Interp, args []macro.Value) (macro.Value, error) {
	fmt.Fprintln(in.e.Stdout(), joined(args))
	return None, nil
}

func builtinLog(in *Interp, args []macro.Value) (macro.Value, error) {
	in.e.Log(joined(args))
	return None, nil
}

func callable(v macro.Value) bool {
	switch v.(type) {
	case *Function, *Builtin, engine.Callable:
		return true
	}
	return false
}

// ignore implements calls of the ignore entry from code. Given a function
// it returns a wrapper that runs the function and then leaves the
// invocation unexpanded.
func ignore(args []macro.Value) (macro.Value, error) {
	if len(args) == 1 && callable(args[0]) {
		f := args[0]
		return &Builtin{Name: "_ignore(" + f.String() + ")", Fn: func(in *Interp, args []macro.Value) (macro.Value, error) {
			if _, err := in.call(f, args, f.String()); err != nil {
				return nil, err
			}
			return nil, engine.ErrSkip
		}}, nil
	}
	return nil, engine.ErrSkip
}

func prefixArg(name string, v macro.Value) (rune, error) {
	s := text(v)
	r, n := utf8.DecodeRuneInString(s)
	if n == 0 || n != len(s) {
		return 0, fmt.Errorf("%s(): prefix must be a single character, got %q", name, s)
	}
	return r, nil
}

func builtinScope(in *Interp, args []macro.Value) (macro.Value, error) {
	if err := arity("_scope", args, 1, 1); err != nil {
		return nil, err
	}
	p, err := prefixArg("_scope", args[0])
	if err != nil {
		return nil, err
	}
	return ScopeContext{Prefix: p}, nil
}

func builtinGetScope(in *Interp, args []macro.Value) (macro.Value, error) {
	if err := arity("get_scope", args, 0, 1); err != nil {
		return nil, err
	}
	if len(args) == 0 || !truthy(args[0]) {
		return &TableRef{Prefix: in.e.Registry().Primary(), Table: in.e.Table()}, nil
	}
	p, err := prefixArg("get_scope", args[0])
	if err != nil {
		return nil, err
	}
	return &TableRef{Prefix: p, Table: in.e.TableFor(p)}, nil
}

func builtinCurrentMatch(in *Interp, args []macro.Value) (macro.Value, error) {
	if err := arity("current_match", args, 0, 1); err != nil {
		return nil, err
	}
	idx := 1
	if len(args) == 1 {
		n, ok := args[0].(Num)
		if !ok || n < 0 || n > 2 {
			return nil, fmt.Errorf("current_match(): index must be 0, 1 or 2")
		}
		idx = int(n)
	}
	return Str(in.e.Match().Part(idx)), nil
}

func builtinIsSentenceStart(in *Interp, args []macro.Value) (macro.Value, error) {
	if err := arity("is_sentence_start", args, 0, 0); err != nil {
		return nil, err
	}
	return Bool(latex.IsSentenceStart(in.e)), nil
}

// wrap returns a builtin that produces the text of f (a function, or a
// template formatted with the call arguments) and post-processes it.
func wrap(name string, f macro.Value, post func(e *engine.Engine, s string) string) *Builtin {
	return &Builtin{Name: name + "(" + f.String() + ")", Fn: func(in *Interp, args []macro.Value) (macro.Value, error) {
		var res macro.Value
		var err error
		if s, ok := fromTable(f).(Str); ok {
			res, err = formatTemplate(string(s), args)
		} else {
			res, err = in.call(f, args, f.String())
		}
		if err != nil {
			return nil, err
		}
		s, ok := res.(Str)
		if !ok || s == "" {
			return res, nil
		}
		return Str(post(in.e, string(s))), nil
	}}
}

func builtinUpcaseAtStart(in *Interp, args []macro.Value) (macro.Value, error) {
	if err := arity("upcase_at_start", args, 1, 1); err != nil {
		return nil, err
	}
	return wrap("upcase_at_start", args[0], latex.UpcaseAtStart), nil
}

func builtinEnsureMath(in *Interp, args []macro.Value) (macro.Value, error) {
	if err := arity("ensure_math", args, 1, 1); err != nil {
		return nil, err
	}
	return wrap("ensure_math", args[0], latex.EnsureMath), nil
}

func builtinExpectVersion(in *Interp, args []macro.Value) (macro.Value, error) {
	if err := arity("expect_version", args, 1, 1); err != nil {
		return nil, err
	}
	var v float64
	switch x := args[0].(type) {
	case Num:
		v = float64(x)
	default:
		f, err := strconv.ParseFloat(text(x), 64)
		if err != nil {
			return nil, fmt.Errorf("expect_version(): invalid version %q", text(x))
		}
		v = f
	}
	return None, in.e.ExpectVersion(v)
}

func builtinCurrentPass(in *Interp, args []macro.Value) (macro.Value, error) {
	if err := arity("current_pass", args, 0, 0); err != nil {
		return nil, err
	}
	return Str(strconv.Itoa(in.e.Pass())), nil
}

func builtinUsageCount(in *Interp, args []macro.Value) (macro.Value, error) {
	if err := arity("usage_count", args, 1, 1); err != nil {
		return nil, err
	}
	return Num(in.e.Usage()[text(args[0])]), nil
}

// builtinEscape protects every macro prefix in its argument from further
// expansion.
func builtinEscape(in *Interp, args []macro.Value) (macro.Value, error) {
	if err := arity("_escape", args, 1, 1); err != nil {
		return nil, err
	}
	return Str(in.e.Escape(text(args[0]))), nil
}

// builtinEval evaluates an expression given as text. Any failure leaves
// the invocation unexpanded.
func builtinEval(in *Interp, args []macro.Value) (macro.Value, error) {
	if err := arity("_eval", args, 1, 1); err != nil {
		return nil, err
	}
	x, err := ParseExpr(text(args[0]))
	if err != nil {
		return nil, engine.ErrSkip
	}
	v, err := in.eval(x)
	if err != nil {
		return nil, engine.ErrSkip
	}
	return Str(text(v)), nil
}

// splitKwargs parses "key=val,flag" into keyword arguments; a bare key
// maps to the empty string.
func splitKwargs(s string) map[string]macro.Value {
	kw := make(map[string]macro.Value)
	for _, item := range strings.Split(s, ",") {
		k, v, _ := strings.Cut(item, "=")
		kw[k] = Str(v)
	}
	return kw
}

// builtinOptKwargs wraps f so that an optional argument written as
// [key=val,...] is passed as keyword arguments instead of positionally.
func builtinOptKwargs(in *Interp, args []macro.Value) (macro.Value, error) {
	if err := arity("opt_kwargs", args, 1, 1); err != nil {
		return nil, err
	}
	f, ok := fromTable(args[0]).(*Function)
	if !ok {
		return nil, fmt.Errorf("opt_kwargs(): expected a function, got %s", typeName(args[0]))
	}
	return &Builtin{Name: "opt_kwargs(" + f.String() + ")", Fn: func(in *Interp, args []macro.Value) (macro.Value, error) {
		if len(args) == 0 || !optionalRef.MatchString(in.e.Match().Source) {
			return in.callFunction(f, args)
		}
		last := len(args) - 1
		return in.callFunctionKw(f, args[:last], splitKwargs(text(args[last])))
	}}, nil
}
