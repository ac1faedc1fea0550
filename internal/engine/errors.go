// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

package engine

import (
	"errors"
	"fmt"
	"strings"

	"nickandperla.net/texp/internal/macro"
)

// Severity ranks errors raised while resolving one invocation. An error is
// reported when the verbosity is at least its severity and aborts the run
// when the abort threshold is at least its severity.
type Severity int

const (
	// SeverityFatal errors always abort.
	SeverityFatal Severity = 0
	// SeverityError covers every evaluation failure except a missing name.
	SeverityError Severity = 1
	// SeverityNotFound is the severity of an unresolved macro name.
	SeverityNotFound Severity = 2
)

func (s Severity) String() string {
	switch s {
	case SeverityFatal:
		return "fatal"
	case SeverityError:
		return "error"
	case SeverityNotFound:
		return "not-found"
	}
	return fmt.Sprintf("severity(%d)", int(s))
}

// ErrSkip asks the expansion loop to leave the current invocation in place.
var ErrSkip = errors.New("skip expansion")

var (
	ErrNameNotFound        = errors.New("name not found")
	ErrArity               = errors.New("wrong number of arguments")
	ErrEvaluation          = errors.New("evaluation failed")
	ErrUnclosedArgument    = errors.New("unclosed argument at end of input")
	ErrUnclosedBlock       = errors.New("unclosed block at end of input")
	ErrInvalidArgument     = errors.New("invalid argument")
	ErrEnvironmentMismatch = errors.New("environment mismatch")
	ErrVersionMismatch     = errors.New("version mismatch")
	ErrExpansionLimit      = errors.New("expansion limit exceeded")
	ErrBlockFailed         = errors.New("block execution failed")
)

// ExpansionError describes a failed invocation.
type ExpansionError struct {
	File     string
	Line     int
	Text     string // the line being expanded
	Start    int    // byte offset of the match in Text
	Span     int    // length of the matched invocation
	Name     string
	Severity Severity
	Err      error
}

func (e *ExpansionError) Error() string {
	return fmt.Sprintf("%s:%d: %s: %v", e.File, e.Line, e.Name, e.Err)
}

func (e *ExpansionError) Unwrap() error { return e.Err }

// Caret returns the source line and a caret span under the match.
func (e *ExpansionError) Caret() (string, string) {
	line := strings.ReplaceAll(strings.TrimRight(e.Text, " \t\r\n"), "\n", "~")
	return line, strings.Repeat(" ", e.Start) + strings.Repeat("^", e.Span)
}

// IsFatal reports whether err always terminates the run.
func IsFatal(err error) bool {
	return errors.Is(err, ErrUnclosedArgument) ||
		errors.Is(err, ErrUnclosedBlock) ||
		errors.Is(err, ErrInvalidArgument) ||
		errors.Is(err, ErrVersionMismatch) ||
		errors.Is(err, ErrExpansionLimit) ||
		errors.Is(err, ErrBlockFailed)
}

// SeverityOf classifies an error raised while resolving name.
func SeverityOf(err error, name string) Severity {
	if IsFatal(err) {
		return SeverityFatal
	}
	var nf *NotFoundError
	if errors.As(err, &nf) && nf.Name == name {
		return SeverityNotFound
	}
	return SeverityError
}

// NotFoundError reports a name missing from the active table.
type NotFoundError struct {
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%v: %q", ErrNameNotFound, e.Name)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNameNotFound }

// ArityError builds an ErrArity error.
func ArityError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrArity, fmt.Sprintf(format, args...))
}

func formatError(err error) error {
	if errors.Is(err, macro.ErrArgCount) {
		return fmt.Errorf("%w: %v", ErrArity, err)
	}
	return fmt.Errorf("%w: %v", ErrEvaluation, err)
}
