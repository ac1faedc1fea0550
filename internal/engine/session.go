// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

package engine

import (
	"fmt"
	"regexp"
	"strings"
)

// continuation matches an unescaped comment character.
var continuation = regexp.MustCompile(`[^\\]%`)

// Session holds the scanner state for one input document. Lines are fed one
// at a time; each call returns the output lines that became final.
type Session struct {
	e    *Engine
	name string
	lno  int

	block     strings.Builder // block code waiting to be executed
	wrapped   bool            // inside a wrapped block
	collected string          // text carried over to the next line
	last      string          // last line emitted
	closed    bool
}

// NewSession starts scanning a document called name (used in diagnostics).
func (e *Engine) NewSession(name string) *Session {
	return &Session{e: e, name: name}
}

// Name returns the document name.
func (s *Session) Name() string { return s.name }

// Line returns the number of the last line fed.
func (s *Session) Line() int { return s.lno }

// Pending reports whether the session holds an unfinished block or
// unfinished text.
func (s *Session) Pending() bool {
	return s.wrapped || s.block.Len() > 0 || s.collected != ""
}

// commentIndex returns the position of a comment or line continuation.
func commentIndex(l string) (int, bool) {
	if strings.HasPrefix(l, "%") {
		return 0, true
	}
	if loc := continuation.FindStringIndex(l); loc != nil {
		return loc[0] + 1, true
	}
	return 0, false
}

func unbalanced(l string) bool {
	return strings.Count(l, "{") > strings.Count(l, "}") ||
		strings.Count(l, "[") > strings.Count(l, "]")
}

// Feed processes one physical line, including its trailing newline.
func (s *Session) Feed(l string) ([]string, error) {
	if s.closed {
		return nil, fmt.Errorf("%s: session already closed", s.name)
	}
	e := s.e
	s.lno++
	e.log.SetLocation(s.name, s.lno)
	bp := e.blockPrefix

	var out []string
	emit := func(line string) {
		out = append(out, line)
		s.last = line
	}

	if strings.HasPrefix(l, "{"+bp) {
		s.wrapped = true
		return nil, nil
	}
	if s.wrapped {
		if !strings.HasPrefix(l, "}"+bp) {
			s.addBlockLine(l, emit)
			return out, nil
		}
		s.wrapped = false
		if err := s.flushBlock(); err != nil {
			return out, err
		}
		l = e.popPending()
	}

	if strings.HasPrefix(l, bp) {
		s.addBlockLine(l[len(bp):], emit)
		return out, nil
	}
	if s.block.Len() > 0 {
		if err := s.flushBlock(); err != nil {
			return out, err
		}
		s.collected = e.popPending()
	}

	if s.collected != "" {
		l = s.collected + l
		s.collected = ""
	}

	if e.hasPrefix(l) {
		if strings.Contains(l, "%") {
			if idx, ok := commentIndex(l); ok {
				s.collected = l[:idx]
				return out, nil
			}
		}
		if unbalanced(l) {
			s.collected = l
			return out, nil
		}
		expanded, more, err := s.expand(l)
		if err != nil {
			return out, err
		}
		if more {
			s.collected = expanded
			return out, nil
		}
		l = expanded
	}

	if l != "" {
		emit(l)
	}
	return out, nil
}

// Close flushes the session with a final empty line. Unfinished blocks and
// unbalanced arguments left at that point are fatal.
func (s *Session) Close() ([]string, error) {
	out, err := s.Feed("")
	s.closed = true
	if err != nil {
		return out, err
	}
	if s.wrapped {
		return out, fmt.Errorf("%s: %w", s.name, ErrUnclosedBlock)
	}
	if s.collected != "" {
		return out, fmt.Errorf("%s:%d: %w: %q", s.name, s.lno, ErrUnclosedArgument,
			strings.TrimRight(s.collected, "\n"))
	}
	return out, nil
}

func (s *Session) addBlockLine(l string, emit func(string)) {
	fixed := Fixup(l)
	s.block.WriteString(fixed)
	if !s.e.showBlocks {
		return
	}
	if fixed == l {
		emit(s.e.blockPrefix + l)
	} else {
		emit("%-" + l)
		emit("%+" + fixed)
	}
}

func (s *Session) flushBlock() error {
	src := s.block.String()
	s.block.Reset()
	return s.e.Exec(src)
}
