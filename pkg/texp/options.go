// Package texp provides the public API for the texp preprocessor.
package texp

import (
	"io"

	"nickandperla.net/texp/internal/engine"
	"nickandperla.net/texp/internal/store"
)

// Option configures a Runtime.
type Option func(*Runtime)

// Store interface for custom macro libraries.
type Store = store.Store

// WithSQLiteStore configures a SQLite macro library at the given path.
func WithSQLiteStore(path string) Option {
	return func(r *Runtime) {
		s, err := store.NewSQLite(path)
		if err != nil {
			r.fail(err)
			return
		}
		r.store = s
	}
}

// WithMemoryStore configures an in-memory macro library (for testing).
func WithMemoryStore() Option {
	return func(r *Runtime) {
		r.store = store.NewMemory()
	}
}

// WithStore configures a custom macro library.
func WithStore(s Store) Option {
	return func(r *Runtime) {
		r.store = s
	}
}

// WithSave writes user templates and usage counts back to the library
// after Run.
func WithSave() Option {
	return func(r *Runtime) {
		r.save = true
	}
}

// WithOutput sets the io.Writer for the expanded document.
func WithOutput(w io.Writer) Option {
	return func(r *Runtime) {
		r.engineOpts = append(r.engineOpts, engine.WithOutput(w))
	}
}

// WithLog sets the io.Writer for diagnostics.
func WithLog(w io.Writer) Option {
	return func(r *Runtime) {
		r.engineOpts = append(r.engineOpts, engine.WithLog(w))
	}
}

// WithStdout sets the io.Writer for print mode and _print.
func WithStdout(w io.Writer) Option {
	return func(r *Runtime) {
		r.engineOpts = append(r.engineOpts, engine.WithStdout(w))
	}
}

// WithStdin sets the reader used for the "-" input path.
func WithStdin(rd io.Reader) Option {
	return func(r *Runtime) {
		r.engineOpts = append(r.engineOpts, engine.WithStdin(rd))
	}
}

// WithVerbose sets the verbosity level.
func WithVerbose(level int) Option {
	return func(r *Runtime) {
		r.engineOpts = append(r.engineOpts, engine.WithVerbose(level))
	}
}

// WithAbort sets the abort threshold.
func WithAbort(level int) Option {
	return func(r *Runtime) {
		r.engineOpts = append(r.engineOpts, engine.WithAbort(level))
	}
}

// WithQuiet disables document output.
func WithQuiet() Option {
	return func(r *Runtime) {
		r.engineOpts = append(r.engineOpts, engine.WithQuiet())
	}
}

// WithShowBlocks keeps executed code lines in the output, commented out.
func WithShowBlocks() Option {
	return func(r *Runtime) {
		r.engineOpts = append(r.engineOpts, engine.WithShowBlocks())
	}
}

// WithShowMacros lists the defined macros after Run.
func WithShowMacros() Option {
	return func(r *Runtime) {
		r.engineOpts = append(r.engineOpts, engine.WithShowMacros())
	}
}

// WithTwoPass processes the input twice, discarding the first output.
func WithTwoPass() Option {
	return func(r *Runtime) {
		r.engineOpts = append(r.engineOpts, engine.WithTwoPass())
	}
}

// WithMaxExpansions limits substitutions on one line; 0 disables the limit.
func WithMaxExpansions(n int) Option {
	return func(r *Runtime) {
		r.engineOpts = append(r.engineOpts, engine.WithMaxExpansions(n))
	}
}

// WithBlockPrefix sets the marker of code lines.
func WithBlockPrefix(p string) Option {
	return func(r *Runtime) {
		r.engineOpts = append(r.engineOpts, engine.WithBlockPrefix(p))
	}
}

// WithPrelude sets a custom prelude source to be run on startup.
// If not set, the embedded default prelude is used.
func WithPrelude(source string) Option {
	return func(r *Runtime) {
		r.prelude = source
	}
}

// WithNoStdlib disables running the prelude.
func WithNoStdlib() Option {
	return func(r *Runtime) {
		r.noStdlib = true
	}
}

// The options below are applied in the order they are given, after the
// prelude, so that later ones see what earlier ones defined.

// WithLatex switches to structural-command mode.
func WithLatex() Option {
	return func(r *Runtime) {
		r.actions = append(r.actions, action{kind: actLatex})
	}
}

// WithInclude executes a code file.
func WithInclude(path string) Option {
	return func(r *Runtime) {
		r.actions = append(r.actions, action{kind: actInclude, arg: path})
	}
}

// WithExpression executes one line of code.
func WithExpression(code string) Option {
	return func(r *Runtime) {
		r.actions = append(r.actions, action{kind: actExpression, arg: code})
	}
}

// WithPrint enables print mode for a cmd[:n[:format]] specification.
func WithPrint(spec string) Option {
	return func(r *Runtime) {
		r.actions = append(r.actions, action{kind: actPrint, arg: spec})
	}
}

// WithIgnore leaves invocations of the named macros unexpanded.
func WithIgnore(names ...string) Option {
	return func(r *Runtime) {
		for _, n := range names {
			r.actions = append(r.actions, action{kind: actIgnore, arg: n})
		}
	}
}
