// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

// Package engine implements the macro-expansion preprocessor: the block
// scanner, the argument consumer, the expansion loop, the escape codec and
// the scope controller.
package engine

import (
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"nickandperla.net/texp/internal/macro"
)

// Version is the engine version checked by expect_version.
const Version = 2.00

// Defaults, matching the plain-macro mode.
const (
	DefaultBlockPrefix   = "%@"
	DefaultPrefix        = '@'
	DefaultVerbose       = 2
	DefaultAbort         = 1
	DefaultMaxExpansions = 10000
	Dummy                = "{^}"
	MissingName          = "__missing__"
)

// Engine is the state threaded through one run: the prefix registry, the
// pending-output queue, usage counters, document state and configuration.
type Engine struct {
	eval     Evaluator
	registry *macro.Registry
	log      *Logger

	out    io.Writer
	stdout io.Writer
	stdin  io.Reader
	// "-" input, created on first use
	stdinInput *Input

	verbose       int
	abort         int
	output        bool
	showBlocks    bool
	showMacros    bool
	twoPass       bool
	pass          int
	blockPrefix   string
	prefix        rune
	maxExpansions int

	pending  []string
	usage    map[string]int
	match    Match
	warned   map[string]bool
	doc      *Document
	patterns map[string]*regexp.Regexp
}

// Option configures an Engine.
type Option func(*Engine)

// WithOutput sets the writer expanded text goes to.
func WithOutput(w io.Writer) Option {
	return func(e *Engine) { e.out = w }
}

// WithStdin sets the reader behind the "-" input path.
func WithStdin(r io.Reader) Option {
	return func(e *Engine) { e.stdin = r }
}

// WithLog sets the diagnostics writer.
func WithLog(w io.Writer) Option {
	return func(e *Engine) { e.log = NewLogger(w) }
}

// WithStdout sets the writer used by print mode.
func WithStdout(w io.Writer) Option {
	return func(e *Engine) { e.stdout = w }
}

// WithVerbose sets the verbosity level (0-3).
func WithVerbose(level int) Option {
	return func(e *Engine) { e.verbose = level }
}

// WithAbort sets the highest severity that aborts the run.
func WithAbort(level int) Option {
	return func(e *Engine) { e.abort = level }
}

// WithQuiet suppresses all text output.
func WithQuiet() Option {
	return func(e *Engine) { e.output = false }
}

// WithShowBlocks keeps executed block lines in the output, commented out.
func WithShowBlocks() Option {
	return func(e *Engine) { e.showBlocks = true }
}

// WithShowMacros lists the defined macros after the run.
func WithShowMacros() Option {
	return func(e *Engine) { e.showMacros = true }
}

// WithTwoPass runs every document twice.
func WithTwoPass() Option {
	return func(e *Engine) { e.twoPass = true }
}

// WithBlockPrefix sets the token that starts a block line.
func WithBlockPrefix(p string) Option {
	return func(e *Engine) { e.blockPrefix = p }
}

// WithPrefix sets the primary macro prefix.
func WithPrefix(p rune) Option {
	return func(e *Engine) { e.prefix = p }
}

// WithMaxExpansions caps the number of substitutions on a single line.
func WithMaxExpansions(n int) Option {
	return func(e *Engine) { e.maxExpansions = n }
}

// New creates an Engine. The evaluator installs its internal entries into
// the root table; ev may be nil when only templates and Go callables are used.
func New(ev Evaluator, opts ...Option) (*Engine, error) {
	e := &Engine{
		eval:          ev,
		out:           os.Stdout,
		stdout:        os.Stdout,
		stdin:         os.Stdin,
		log:           NewLogger(os.Stderr),
		verbose:       DefaultVerbose,
		abort:         DefaultAbort,
		output:        true,
		blockPrefix:   DefaultBlockPrefix,
		prefix:        DefaultPrefix,
		maxExpansions: DefaultMaxExpansions,
		usage:         make(map[string]int),
		warned:        make(map[string]bool),
		doc:           NewDocument(),
		patterns:      make(map[string]*regexp.Regexp),
	}
	for _, opt := range opts {
		opt(e)
	}

	root, err := macro.NewTable()
	if err != nil {
		return nil, err
	}
	if ev != nil {
		if err := ev.Install(root); err != nil {
			return nil, fmt.Errorf("installing evaluator builtins: %w", err)
		}
	}
	e.registry = macro.NewRegistry(e.prefix, root)
	return e, nil
}

// Registry returns the prefix registry.
func (e *Engine) Registry() *macro.Registry {
	return e.registry
}

// Table returns the active macro table.
func (e *Engine) Table() *macro.Table {
	return e.registry.Active()
}

// TableFor returns the table of prefix p, registering p if needed.
func (e *Engine) TableFor(p rune) *macro.Table {
	return e.registry.Table(p)
}

// Evaluator returns the block evaluator.
func (e *Engine) Evaluator() Evaluator {
	return e.eval
}

// Logger returns the diagnostics logger.
func (e *Engine) Logger() *Logger {
	return e.log
}

// Log writes a diagnostic unconditionally.
func (e *Engine) Log(args ...any) {
	e.log.Print(args...)
}

// Logf writes a diagnostic when the verbosity is at least level.
func (e *Engine) Logf(level int, format string, args ...any) {
	if e.verbose >= level {
		e.log.Printf(format, args...)
	}
}

// Verbose returns the verbosity level.
func (e *Engine) Verbose() int { return e.verbose }

// SetVerbose changes the verbosity level.
func (e *Engine) SetVerbose(level int) { e.verbose = level }

// Abort returns the abort threshold.
func (e *Engine) Abort() int { return e.abort }

// SetAbort changes the abort threshold.
func (e *Engine) SetAbort(level int) { e.abort = level }

// SetOutputEnabled turns document output on or off.
func (e *Engine) SetOutputEnabled(on bool) { e.output = on }

// OutputEnabled reports whether expanded text is written.
func (e *Engine) OutputEnabled() bool { return e.output }

// SetOutput changes the document output writer.
func (e *Engine) SetOutput(w io.Writer) { e.out = w }

// Stdout returns the writer used by print mode.
func (e *Engine) Stdout() io.Writer { return e.stdout }

// BlockPrefix returns the token that starts a block line.
func (e *Engine) BlockPrefix() string { return e.blockPrefix }

// Pass returns 0 in single-pass mode, otherwise the current pass (1 or 2).
func (e *Engine) Pass() int { return e.pass }

// TwoPass reports whether two-pass mode is on.
func (e *Engine) TwoPass() bool { return e.twoPass }

// Document returns the structural-command state.
func (e *Engine) Document() *Document { return e.doc }

// Match returns the context triple of the invocation being resolved.
func (e *Engine) Match() Match { return e.match }

// Usage returns the invocation counters.
func (e *Engine) Usage() map[string]int { return e.usage }

// Output queues a line of pending output for the current invocation or block.
func (e *Engine) Output(s string) {
	e.pending = append(e.pending, s)
}

// popPending flushes the pending-output queue. A non-empty result always
// ends with a newline.
func (e *Engine) popPending() string {
	if len(e.pending) == 0 {
		return ""
	}
	out := strings.Join(e.pending, "\n") + "\n"
	e.pending = nil
	return out
}

// ExpectVersion fails when the engine is older than required and warns
// when its major version is newer.
func (e *Engine) ExpectVersion(required float64) error {
	if Version < required {
		return fmt.Errorf("%w: texp v%.2f is too old; %.2f required", ErrVersionMismatch, Version, required)
	}
	if int(Version) > int(required) {
		e.Logf(1, "texp v%.2f may be too new; expected version %.2f", Version, required)
	}
	return nil
}
