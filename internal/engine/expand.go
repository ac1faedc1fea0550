// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

package engine

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"nickandperla.net/texp/internal/macro"
)

// pattern returns the regexp matching a prefix, a (possibly empty) name
// and the character terminating the name.
func (e *Engine) pattern() *regexp.Regexp {
	prefixes := e.registry.Prefixes()
	key := string(prefixes)
	if re, ok := e.patterns[key]; ok {
		return re
	}
	var sb strings.Builder
	sb.WriteByte('[')
	for _, p := range prefixes {
		fmt.Fprintf(&sb, `\x{%x}`, p)
	}
	sb.WriteString("]([" + macro.NameChars + "]*)[^" + macro.NameChars + "]")
	re := regexp.MustCompile(sb.String())
	e.patterns[key] = re
	return re
}

// hasPrefix reports whether s contains any registered prefix.
func (e *Engine) hasPrefix(s string) bool {
	return strings.ContainsFunc(s, func(r rune) bool {
		return e.registry.Index(r) >= 0
	})
}

// Invoke calls a macro value: templates are formatted, Go callables are
// called directly and everything else goes to the evaluator.
func (e *Engine) Invoke(v macro.Value, c *Call) (Outcome, error) {
	if text, ok := macro.IsTemplate(v); ok {
		s, err := macro.Format(text, c.Args, nil)
		if err != nil {
			return Outcome{}, formatError(err)
		}
		return Text(s), nil
	}
	if f, ok := v.(Callable); ok {
		return f.Call(e, c)
	}
	if e.eval == nil {
		return Outcome{}, fmt.Errorf("%w: %s is bound to %s, which cannot be called", ErrEvaluation, c.Name, v)
	}
	return e.eval.Invoke(e, v, c)
}

// resolve looks the invocation up in the table of its own prefix and
// produces the replacement text. It returns the name that was actually
// called, which differs from c.Name when the fallback entry was used.
func (e *Engine) resolve(c *Call) (string, string, error) {
	restore := e.registry.Activate(c.Prefix)
	defer restore()
	e.match = c.Match

	name := c.Name
	t := e.registry.Active()
	v, ok := t.Get(name)
	if !ok {
		m, found := t.Get(MissingName)
		if !found {
			return "", name, &NotFoundError{Name: name}
		}
		v = m
		c.Args = append([]string{name}, c.Args...)
		name = MissingName
	}
	e.usage[name]++

	var result string
	out, err := e.Invoke(v, c)
	switch {
	case errors.Is(err, ErrSkip):
		result = e.escapeFirst(c.Match.Source)
	case err != nil:
		return "", name, err
	case out.NoValue || out.Text == "":
		result = Dummy
	default:
		result = out.Text
	}
	if len(e.pending) > 0 {
		result = e.popPending() + result
	}
	return result, name, nil
}

// expand runs the expansion loop over one text line until no invocation is
// left, then unescapes it. more is true when an argument is still open at
// the end of the line; l is then returned unchanged for collection.
func (s *Session) expand(l string) (out string, more bool, err error) {
	e := s.e
	for n := 1; ; n++ {
		loc := e.pattern().FindStringSubmatchIndex(l)
		if loc == nil {
			break
		}
		start, nameEnd := loc[0], loc[3]
		name := l[loc[2]:nameEnd]
		before := l[:start]
		prefix, _ := utf8.DecodeRuneInString(l[start:])

		if e.maxExpansions > 0 && n > e.maxExpansions {
			return "", false, s.expansionError(l, start, loc[1]-start, name, SeverityFatal,
				fmt.Errorf("%w: more than %d substitutions on one line", ErrExpansionLimit, e.maxExpansions))
		}

		args, opt, after, complete, err := consumeArgs(l[nameEnd:])
		if err != nil {
			return "", false, s.expansionError(l, start, nameEnd-start, name, SeverityFatal, err)
		}
		if !complete {
			return l, true, nil
		}
		span := l[start : len(l)-len(after)]

		c := &Call{
			Prefix:   prefix,
			Name:     name,
			Args:     args,
			Optional: opt,
			Match:    Match{Before: s.last + e.unescape(before, false), Source: span, After: after},
		}
		result, called, err := e.resolve(c)
		if e.verbose >= 3 && err == nil {
			s.trace(l, start, len(span), c, result)
		}
		if err != nil {
			sev := SeverityOf(err, called)
			xe := s.expansionError(l, start, len(span), called, sev, err)
			if e.verbose >= int(sev) {
				s.report(xe, c)
			}
			if sev == SeverityFatal || e.abort >= int(sev) {
				return "", false, xe
			}
			result = e.escapeFirst(span)
		}

		if strings.Contains(result, span) && !e.warned[span] {
			e.warned[span] = true
			e.Logf(1, "warning: %q expands to text containing itself", span)
		}
		l = before + result + after
	}
	return e.Unescape(l), false, nil
}

func (s *Session) expansionError(l string, start, span int, name string, sev Severity, err error) *ExpansionError {
	return &ExpansionError{
		File:     s.name,
		Line:     s.lno,
		Text:     l,
		Start:    start,
		Span:     span,
		Name:     name,
		Severity: sev,
		Err:      err,
	}
}

func (s *Session) report(xe *ExpansionError, c *Call) {
	line, caret := xe.Caret()
	log := s.e.log
	log.Print(line)
	log.Print(caret)
	log.Print("!!!", c.Match.Source)
	if len(c.Args) > 0 {
		log.Print("!!!", quoteArgs(c.Args))
	}
	log.Printf("!!! %v (%s)", xe.Err, xe.Severity)
}

func (s *Session) trace(l string, start, span int, c *Call, result string) {
	log := s.e.log
	log.Print(strings.ReplaceAll(strings.TrimRight(l, " \t\r\n"), "\n", "~"))
	log.Print(strings.Repeat(" ", start) + strings.Repeat("^", span))
	log.Printf(">>> %s(%s) ==> %q", c.Name, quoteArgs(c.Args), result)
}

func quoteArgs(args []string) string {
	q := make([]string, len(args))
	for i, a := range args {
		q[i] = fmt.Sprintf("%q", a)
	}
	return strings.Join(q, ", ")
}
