// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

package engine

import (
	"fmt"
	"io"
	"os"
	"strings"
)

// Logger writes diagnostics prefixed with the source location. The first
// message for a location carries "file line:", later ones an aligned blank
// prefix so that multi-line reports read as one block.
type Logger struct {
	w     io.Writer
	first string
	cont  string
	prev  string
}

// NewLogger creates a logger writing to w (os.Stderr if nil).
func NewLogger(w io.Writer) *Logger {
	if w == nil {
		w = os.Stderr
	}
	return &Logger{w: w}
}

// Writer returns the underlying writer.
func (l *Logger) Writer() io.Writer {
	return l.w
}

// SetLocation sets the location used by subsequent messages.
func (l *Logger) SetLocation(file string, line int) {
	l.first = fmt.Sprintf("%s %d:", file, line)
	l.cont = strings.Repeat(" ", len(l.first)-1) + ":"
}

// Mark is a saved location.
type Mark struct{ first, cont string }

// Save returns the current location so it can be restored after a nested
// document has been processed.
func (l *Logger) Save() Mark { return Mark{l.first, l.cont} }

// Restore resets the location to m.
func (l *Logger) Restore(m Mark) { l.first, l.cont = m.first, m.cont }

// Location returns the current "file line:" prefix.
func (l *Logger) Location() string {
	return l.first
}

func (l *Logger) prefix() string {
	if l.first == "" {
		return ""
	}
	if l.first != l.prev {
		l.prev = l.first
		return l.first + " "
	}
	return l.cont + " "
}

// Print writes the operands separated by spaces, like fmt.Println.
func (l *Logger) Print(args ...any) {
	msg := fmt.Sprintln(args...)
	fmt.Fprint(l.w, l.prefix()+msg)
}

// Printf writes a formatted message followed by a newline.
func (l *Logger) Printf(format string, args ...any) {
	fmt.Fprintf(l.w, "%s"+format+"\n", append([]any{l.prefix()}, args...)...)
}

// Block writes a block of code with a header and footer.
func (l *Logger) Block(title, src string) {
	fmt.Fprintf(l.w, "------ %s: -------\n%s", title, src)
	if !strings.HasSuffix(src, "\n") {
		fmt.Fprintln(l.w)
	}
	fmt.Fprintln(l.w, "--------------------------")
}
