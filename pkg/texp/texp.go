// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

package texp

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"nickandperla.net/texp/internal/engine"
	"nickandperla.net/texp/internal/latex"
	"nickandperla.net/texp/internal/macro"
	"nickandperla.net/texp/internal/script"
	"nickandperla.net/texp/internal/stdlib"
	"nickandperla.net/texp/internal/store"
)

// Version is the preprocessor version.
const Version = engine.Version

// PreludeKey is the library metadata key whose value replaces the default
// prelude.
const PreludeKey = "prelude"

type actionKind int

const (
	actLatex actionKind = iota
	actInclude
	actExpression
	actPrint
	actIgnore
)

type action struct {
	kind actionKind
	arg  string
}

// Runtime is a configured preprocessor: an engine, the block-language
// interpreter and an optional macro library.
type Runtime struct {
	engine     *engine.Engine
	interp     *script.Interp
	store      store.Store
	save       bool
	prelude    string // Custom prelude source (if empty, uses stdlib.Prelude)
	noStdlib   bool
	engineOpts []engine.Option
	actions    []action
	err        error
}

func (r *Runtime) fail(err error) {
	if r.err == nil {
		r.err = err
	}
}

// New creates a runtime with the given options. The prelude runs first,
// then the ordered options, then the macro library is loaded.
func New(opts ...Option) (*Runtime, error) {
	r := &Runtime{}
	for _, opt := range opts {
		opt(r)
	}
	if r.err != nil {
		r.Close()
		return nil, r.err
	}

	r.interp = script.New()
	e, err := engine.New(r.interp, r.engineOpts...)
	if err != nil {
		r.Close()
		return nil, err
	}
	r.engine = e

	if err := r.setup(); err != nil {
		r.Close()
		return nil, err
	}
	return r, nil
}

func (r *Runtime) setup() error {
	if !r.noStdlib {
		if err := r.runPrelude(); err != nil {
			return fmt.Errorf("prelude: %w", err)
		}
	}
	for _, a := range r.actions {
		if err := r.apply(a); err != nil {
			return err
		}
	}
	if r.store != nil {
		n, err := store.Load(r.store, r.engine.Registry())
		if err != nil {
			return fmt.Errorf("loading macro library: %w", err)
		}
		r.engine.Logf(3, "loaded %d macros from the library", n)
	}
	return nil
}

func (r *Runtime) runPrelude() error {
	src := r.prelude
	if src == "" {
		src = stdlib.Prelude
	}
	// Check for database override
	if ms, ok := r.store.(store.MetadataStore); ok {
		v, err := ms.GetMetadata(PreludeKey)
		if err != nil {
			return err
		}
		if v != "" {
			src = v
		}
	}
	if err := r.engine.ExecSource("prelude", src); err != nil {
		return err
	}
	// prelude definitions are listed as global macros
	t := r.engine.Table()
	for _, ent := range t.Entries(macro.User) {
		if err := t.Provide(ent.Name, ent.Value); err != nil {
			return err
		}
	}
	return nil
}

func (r *Runtime) apply(a action) error {
	e := r.engine
	switch a.kind {
	case actLatex:
		return latex.Enable(e)
	case actInclude:
		return e.ExecFile(a.arg)
	case actExpression:
		e.Logger().SetLocation("expression", 0)
		return e.ExecExpression(a.arg)
	case actPrint:
		spec, err := latex.ParsePrintSpec(a.arg)
		if err != nil {
			return err
		}
		return latex.SetPrintMode(e, spec)
	case actIgnore:
		return latex.Ignore(e, a.arg)
	}
	return fmt.Errorf("unknown action %d", a.kind)
}

// Engine returns the underlying engine.
func (r *Runtime) Engine() *engine.Engine {
	return r.engine
}

// Exec executes one line of code.
func (r *Runtime) Exec(code string) error {
	return r.engine.ExecExpression(code)
}

// Run processes the input files ("-" is standard input), writes the output
// and, if configured, saves the macro library.
func (r *Runtime) Run(paths []string) error {
	if err := r.engine.Run(paths); err != nil {
		return err
	}
	if r.save {
		return r.Save()
	}
	return nil
}

// RunReader is Run for one document read from rd, such as piped standard
// input. The document is read once and replayed for each pass.
func (r *Runtime) RunReader(name string, rd io.Reader) error {
	in := engine.ReaderInput(name, rd)
	if err := r.engine.RunInputs([]engine.Input{in}); err != nil {
		return err
	}
	if r.save {
		return r.Save()
	}
	return nil
}

// Finish ends an interactive run: it lists the macros when configured and
// saves the library when WithSave was given.
func (r *Runtime) Finish() error {
	r.engine.Report()
	if r.save {
		return r.Save()
	}
	return nil
}

// ProcessString expands a whole document held in memory and returns the
// output.
func (r *Runtime) ProcessString(name, src string) (string, error) {
	lines, err := r.engine.Process(name, strings.NewReader(src))
	return strings.Join(lines, ""), err
}

// NewSession starts a line-by-line session, as used interactively.
func (r *Runtime) NewSession(name string) *engine.Session {
	return r.engine.NewSession(name)
}

// Save writes user templates and usage counts to the macro library.
func (r *Runtime) Save() error {
	if r.store == nil {
		return errors.New("no macro library configured")
	}
	n, err := store.Save(r.store, r.engine.Registry(), r.engine.Usage())
	if err != nil {
		return fmt.Errorf("saving macro library: %w", err)
	}
	if ms, ok := r.store.(store.MetadataStore); ok {
		if err := ms.SetMetadata("texp_version", fmt.Sprintf("%.2f", Version)); err != nil {
			return err
		}
	}
	r.engine.Logf(3, "saved %d macros to the library", n)
	return nil
}

// Close releases resources.
func (r *Runtime) Close() error {
	if r.store != nil {
		return r.store.Close()
	}
	return nil
}
