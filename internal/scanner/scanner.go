// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

// Package scanner provides a streaming, indentation-aware lexer for the
// block language.
package scanner

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"unicode"

	"nickandperla.net/texp/internal/token"
)

// Scanner tokenizes block code rune-by-rune. Leading whitespace of each
// logical line is turned into INDENT and DEDENT tokens; newlines inside
// brackets do not end a line.
type Scanner struct {
	reader    *bufio.Reader
	buf       strings.Builder
	peeked    *Item
	pending   []*Item
	line      int // Current line number (1-based)
	indents   []int
	depth     int // bracket nesting
	lineStart bool
	last      token.Token
	done      bool
}

// Item represents a scanned token with its value.
type Item struct {
	Token token.Token
	Value string
	Line  int // Line number where this token started
}

func (it *Item) String() string {
	switch it.Token {
	case token.NAME, token.NUMBER:
		return it.Value
	case token.STRING:
		return fmt.Sprintf("%q", it.Value)
	}
	return it.Token.String()
}

// New creates a new Scanner from an io.Reader.
func New(r io.Reader) *Scanner {
	return &Scanner{
		reader:    bufio.NewReader(r),
		line:      1,
		indents:   []int{0},
		lineStart: true,
		last:      token.NEWLINE,
	}
}

// NewFromString creates a new Scanner from a string.
func NewFromString(s string) *Scanner {
	return New(strings.NewReader(s))
}

// Line returns the current line number (1-based).
func (s *Scanner) Line() int {
	return s.line
}

// Peek returns the next item without consuming it.
func (s *Scanner) Peek() (*Item, error) {
	if s.peeked != nil {
		return s.peeked, nil
	}
	item, err := s.Next()
	if err != nil {
		return nil, err
	}
	s.peeked = item
	return item, nil
}

// Next returns the next token from the input.
func (s *Scanner) Next() (*Item, error) {
	if s.peeked != nil {
		item := s.peeked
		s.peeked = nil
		return item, nil
	}
	item, err := s.next()
	if err != nil {
		return nil, err
	}
	s.last = item.Token
	return item, nil
}

func (s *Scanner) emit(t token.Token, v string, line int) *Item {
	return &Item{Token: t, Value: v, Line: line}
}

func (s *Scanner) errorf(format string, args ...any) error {
	return fmt.Errorf("line %d: %s", s.line, fmt.Sprintf(format, args...))
}

func (s *Scanner) next() (*Item, error) {
	if len(s.pending) > 0 {
		item := s.pending[0]
		s.pending = s.pending[1:]
		return item, nil
	}
	if s.done {
		return s.emit(token.EOF, "", s.line), nil
	}
	if s.lineStart && s.depth == 0 {
		if err := s.indentation(); err != nil {
			return nil, err
		}
		if len(s.pending) > 0 {
			return s.next()
		}
	}

	for {
		r, _, err := s.reader.ReadRune()
		if err == io.EOF {
			return s.finish(), nil
		}
		if err != nil {
			return nil, err
		}

		switch {
		case r == ' ' || r == '\t' || r == '\r':
			continue
		case r == '\\':
			// explicit line continuation
			if n, _, err := s.reader.ReadRune(); err == nil && n == '\n' {
				s.line++
				continue
			}
			return nil, s.errorf("unexpected '\\'")
		case r == '\n':
			s.line++
			if s.depth > 0 {
				continue
			}
			s.lineStart = true
			return s.emit(token.NEWLINE, "", s.line-1), nil
		case r == '#':
			s.skipComment()
			continue
		case r == '_' || unicode.IsLetter(r):
			return s.scanName(r)
		case unicode.IsDigit(r):
			return s.scanNumber(r), nil
		case r == '"' || r == '\'':
			v, err := s.scanString(r, false)
			if err != nil {
				return nil, err
			}
			return s.emit(token.STRING, v, s.line), nil
		}
		return s.scanOperator(r)
	}
}

// finish emits the closing NEWLINE and DEDENT tokens at end of input.
func (s *Scanner) finish() *Item {
	s.done = true
	if s.last != token.NEWLINE && s.last != token.DEDENT && s.last != token.INDENT {
		s.pending = append(s.pending, s.emit(token.NEWLINE, "", s.line))
	}
	for len(s.indents) > 1 {
		s.indents = s.indents[:len(s.indents)-1]
		s.pending = append(s.pending, s.emit(token.DEDENT, "", s.line))
	}
	s.pending = append(s.pending, s.emit(token.EOF, "", s.line))
	item := s.pending[0]
	s.pending = s.pending[1:]
	return item
}

// indentation measures the leading whitespace of the next non-blank line
// and queues INDENT or DEDENT tokens.
func (s *Scanner) indentation() error {
	for {
		width := 0
		var r rune
		var err error
		for {
			r, _, err = s.reader.ReadRune()
			if err != nil {
				break
			}
			if r == ' ' {
				width++
			} else if r == '\t' {
				width = (width/8 + 1) * 8
			} else {
				break
			}
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		switch r {
		case '\r':
			continue
		case '\n':
			s.line++
			continue
		case '#':
			s.skipComment()
			continue
		}
		s.reader.UnreadRune()
		s.lineStart = false

		top := s.indents[len(s.indents)-1]
		switch {
		case width > top:
			s.indents = append(s.indents, width)
			s.pending = append(s.pending, s.emit(token.INDENT, "", s.line))
		case width < top:
			for width < s.indents[len(s.indents)-1] {
				s.indents = s.indents[:len(s.indents)-1]
				s.pending = append(s.pending, s.emit(token.DEDENT, "", s.line))
			}
			if width != s.indents[len(s.indents)-1] {
				return s.errorf("unindent does not match any outer indentation level")
			}
		}
		return nil
	}
}

func (s *Scanner) skipComment() {
	for {
		r, _, err := s.reader.ReadRune()
		if err != nil {
			return
		}
		if r == '\n' {
			s.reader.UnreadRune()
			return
		}
	}
}

// isIdentChar returns true if the rune is valid in an identifier (letter, digit, underscore).
func isIdentChar(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_'
}

func (s *Scanner) scanName(first rune) (*Item, error) {
	s.buf.Reset()
	s.buf.WriteRune(first)
	for {
		r, _, err := s.reader.ReadRune()
		if err != nil {
			break
		}
		if !isIdentChar(r) {
			s.reader.UnreadRune()
			break
		}
		s.buf.WriteRune(r)
	}
	name := s.buf.String()

	// raw string prefix
	if name == "r" || name == "R" {
		if q, _, err := s.reader.ReadRune(); err == nil {
			if q == '"' || q == '\'' {
				v, err := s.scanString(q, true)
				if err != nil {
					return nil, err
				}
				return s.emit(token.STRING, v, s.line), nil
			}
			s.reader.UnreadRune()
		}
	}
	return s.emit(token.Lookup(name), name, s.line), nil
}

func (s *Scanner) scanNumber(first rune) *Item {
	s.buf.Reset()
	s.buf.WriteRune(first)
	for {
		r, _, err := s.reader.ReadRune()
		if err != nil {
			break
		}
		if !unicode.IsDigit(r) && r != '.' {
			s.reader.UnreadRune()
			break
		}
		s.buf.WriteRune(r)
	}
	return s.emit(token.NUMBER, s.buf.String(), s.line)
}

// scanString scans a string literal whose opening quote has been read.
// Triple-quoted strings are always raw and may span lines.
func (s *Scanner) scanString(quote rune, raw bool) (string, error) {
	start := s.line
	if s.consume(quote) {
		if !s.consume(quote) {
			return "", nil // empty string
		}
		return s.scanTriple(quote, start)
	}

	s.buf.Reset()
	for {
		r, _, err := s.reader.ReadRune()
		if err != nil || r == '\n' {
			return "", fmt.Errorf("line %d: unterminated string", start)
		}
		if r == quote {
			return s.buf.String(), nil
		}
		if r == '\\' && !raw {
			n, _, err := s.reader.ReadRune()
			if err != nil {
				return "", fmt.Errorf("line %d: unterminated string", start)
			}
			switch n {
			case 'n':
				s.buf.WriteRune('\n')
			case 't':
				s.buf.WriteRune('\t')
			case '\\', '"', '\'':
				s.buf.WriteRune(n)
			default:
				s.buf.WriteRune('\\')
				s.buf.WriteRune(n)
			}
			continue
		}
		if r == '\\' && raw {
			// a raw string may still contain an escaped quote
			s.buf.WriteRune(r)
			if s.consume(quote) {
				s.buf.WriteRune(quote)
			}
			continue
		}
		s.buf.WriteRune(r)
	}
}

func (s *Scanner) scanTriple(quote rune, start int) (string, error) {
	s.buf.Reset()
	run := 0
	for {
		r, _, err := s.reader.ReadRune()
		if err != nil {
			return "", fmt.Errorf("line %d: unterminated triple-quoted string", start)
		}
		if r == '\n' {
			s.line++
		}
		if r == quote {
			run++
			if run == 3 {
				v := s.buf.String()
				return v[:len(v)-2], nil
			}
		} else {
			run = 0
		}
		s.buf.WriteRune(r)
	}
}

// consume reads r if it is the next rune.
func (s *Scanner) consume(r rune) bool {
	n, _, err := s.reader.ReadRune()
	if err != nil {
		return false
	}
	if n != r {
		s.reader.UnreadRune()
		return false
	}
	return true
}

func (s *Scanner) scanOperator(r rune) (*Item, error) {
	switch r {
	case '=':
		if s.consume('=') {
			return s.emit(token.EQ, "==", s.line), nil
		}
		return s.emit(token.ASSIGN, "=", s.line), nil
	case '!':
		if s.consume('=') {
			return s.emit(token.NE, "!=", s.line), nil
		}
	case '(', '[':
		s.depth++
	case ')', ']':
		if s.depth > 0 {
			s.depth--
		}
	}
	if t := token.Delimiter(r); t != token.EOF {
		return s.emit(t, string(r), s.line), nil
	}
	return nil, s.errorf("unexpected character %q", r)
}
