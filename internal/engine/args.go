// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

package engine

import (
	"fmt"
	"strings"
)

// ArgQuote is the delimiter blocks use for raw string literals. Arguments
// are passed to code as literals, so they must not contain it.
const ArgQuote = `"""`

// consumeArg extracts one delimited argument from the start of s. Both
// brace and bracket characters count towards the nesting depth. ok is false
// when s ends before the depth returns to zero.
func consumeArg(s string) (arg, rest string, ok bool, err error) {
	depth := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '{', '[':
			depth++
		case '}', ']':
			depth--
		}
		if depth == 0 {
			arg = s[1:i]
			if strings.Contains(arg, ArgQuote) {
				return "", "", false, fmt.Errorf("%w: argument %q contains %s", ErrInvalidArgument, arg, ArgQuote)
			}
			return arg, s[i+1:], true, nil
		}
	}
	return "", s, false, nil
}

func skipSpaces(s string) string {
	return strings.TrimLeft(s, " ")
}

// consumeArgs extracts as many arguments as follow a macro name: one
// optional bracketed argument if it comes first, then any number of braced
// arguments, spaces allowed in between. The optional argument is also
// appended as the last positional argument. complete is false when the
// text ends inside an argument.
func consumeArgs(s string) (args []string, opt *string, rest string, complete bool, err error) {
	rest = s
	if t := skipSpaces(rest); strings.HasPrefix(t, "[") {
		a, r, ok, err := consumeArg(t)
		if err != nil || !ok {
			return nil, nil, s, false, err
		}
		opt, rest = &a, r
	}
	for {
		t := skipSpaces(rest)
		if !strings.HasPrefix(t, "{") {
			break
		}
		a, r, ok, err := consumeArg(t)
		if err != nil || !ok {
			return nil, nil, s, false, err
		}
		args = append(args, a)
		rest = r
	}
	if opt != nil {
		args = append(args, *opt)
	}
	return args, opt, rest, true, nil
}
