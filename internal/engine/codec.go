// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

package engine

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	dummyQ       = regexp.QuoteMeta(Dummy)
	dummyAtStart = regexp.MustCompile(`^(\s*(` + dummyQ + `\s*)+\n)+`)
	dummyInside  = regexp.MustCompile(`\n(\s*(` + dummyQ + `\s*)+\n)+`)
	dummyAtEnd   = regexp.MustCompile(`(\n\s*(` + dummyQ + `\s*)+)+$`)
)

// EscapeToken returns the token that hides the prefix at index i.
func EscapeToken(i int) string {
	return "{" + strings.Repeat("_", i+1) + "}"
}

// Escape replaces every registered prefix character with its escape token.
func (e *Engine) Escape(s string) string {
	for i, p := range e.registry.Prefixes() {
		s = strings.ReplaceAll(s, string(p), EscapeToken(i))
	}
	return s
}

// escapeFirst escapes the leading prefix of a matched span so the loop does
// not pick it up again.
func (e *Engine) escapeFirst(span string) string {
	_, n := utf8.DecodeRuneInString(span)
	return e.Escape(span[:n]) + span[n:]
}

// Unescape restores escaped prefixes and removes the dummy markers left by
// macros that produced nothing.
func (e *Engine) Unescape(s string) string {
	return e.unescape(s, e.verbose >= 3)
}

func (e *Engine) unescape(s string, trace bool) string {
	prefixes := e.registry.Prefixes()
	for i := len(prefixes) - 1; i >= 0; i-- {
		s = strings.ReplaceAll(s, EscapeToken(i), string(prefixes[i]))
	}
	if !strings.Contains(s, Dummy) {
		return s
	}
	before := s
	s = collapseDummies(s)
	if trace {
		e.log.Printf("%q ==> %q", before, s)
	}
	return s
}

// collapseDummies removes runs of dummy markers without adding or removing
// blank lines that were present before expansion.
func collapseDummies(s string) string {
	s = dummyAtStart.ReplaceAllString(s, "")
	s = dummyInside.ReplaceAllString(s, "\n")
	s = dummyAtEnd.ReplaceAllString(s, "\n")
	return strings.ReplaceAll(s, Dummy, "")
}
