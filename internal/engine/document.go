// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

package engine

// Document tracks the structural commands seen so far: the document class,
// loaded packages and the stack of open environments.
type Document struct {
	Class        string
	ClassOptions []string
	Packages     map[string][]string
	envs         []string
}

// NewDocument creates empty document state.
func NewDocument() *Document {
	return &Document{Packages: make(map[string][]string)}
}

// Begin opens an environment.
func (d *Document) Begin(name string) {
	d.envs = append(d.envs, name)
}

// End closes the innermost environment and returns its name. ok is false
// when no environment was open.
func (d *Document) End() (name string, ok bool) {
	if len(d.envs) == 0 {
		return "", false
	}
	name = d.envs[len(d.envs)-1]
	d.envs = d.envs[:len(d.envs)-1]
	return name, true
}

// Environments returns the open environments, outermost first.
func (d *Document) Environments() []string {
	out := make([]string, len(d.envs))
	copy(out, d.envs)
	return out
}

// InEnvironment reports whether any open environment is one of names.
func (d *Document) InEnvironment(names ...string) bool {
	for i := len(d.envs) - 1; i >= 0; i-- {
		for _, n := range names {
			if d.envs[i] == n {
				return true
			}
		}
	}
	return false
}
