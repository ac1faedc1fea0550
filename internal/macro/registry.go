// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

package macro

// Registry maps prefix characters to their tables. Index 0 of the prefix
// list is the primary prefix; its table is the root table every other
// table is seeded from.
type Registry struct {
	prefixes []rune
	root     *Table
	active   *Table
	tables   map[rune]*Table
}

// NewRegistry creates a registry with root bound to the primary prefix.
func NewRegistry(primary rune, root *Table) *Registry {
	return &Registry{
		prefixes: []rune{primary},
		root:     root,
		active:   root,
		tables:   map[rune]*Table{primary: root},
	}
}

// Prefixes returns the registered prefixes, primary first.
func (r *Registry) Prefixes() []rune {
	out := make([]rune, len(r.prefixes))
	copy(out, r.prefixes)
	return out
}

// Primary returns the primary prefix.
func (r *Registry) Primary() rune {
	return r.prefixes[0]
}

// Index returns the position of p in the prefix list, or -1.
func (r *Registry) Index(p rune) int {
	for i, q := range r.prefixes {
		if q == p {
			return i
		}
	}
	return -1
}

// SetPrimary rebinds the root table to a new primary prefix.
func (r *Registry) SetPrimary(p rune) {
	old := r.prefixes[0]
	if old == p {
		return
	}
	delete(r.tables, old)
	if i := r.Index(p); i > 0 {
		r.prefixes = append(r.prefixes[:i], r.prefixes[i+1:]...)
	}
	r.prefixes[0] = p
	r.tables[p] = r.root
}

// Root returns the table of the primary prefix.
func (r *Registry) Root() *Table {
	return r.root
}

// Active returns the table lookups currently go to.
func (r *Registry) Active() *Table {
	return r.active
}

// Table returns the table for prefix p, registering p and seeding a fresh
// table with the active table's hidden entries on first use. Hidden entries
// are re-synchronised from the active table on every access.
func (r *Registry) Table(p rune) *Table {
	t, ok := r.tables[p]
	if !ok {
		t = r.active.Clone()
		t.removeUser()
		r.tables[p] = t
		if r.Index(p) < 0 {
			r.prefixes = append(r.prefixes, p)
		}
	}
	if t != r.active {
		t.copyHidden(r.active)
	}
	return t
}

// Activate makes the table of p the active one until restore is called.
func (r *Registry) Activate(p rune) (restore func()) {
	prev := r.active
	r.active = r.Table(p)
	return func() { r.active = prev }
}

// WithScope runs fn with the user entries of p's table visible in the
// active table. Definitions made by fn end up in p's table; the active
// table's own user entries are restored afterwards, also when fn fails.
func (r *Registry) WithScope(p rune, fn func() error) error {
	running := r.active
	target := r.Table(p)
	if running == target {
		return fn()
	}
	saved := running.Clone()
	running.removeUser()
	running.copyUser(target)
	defer func() {
		target.removeUser()
		target.copyUser(running)
		running.removeUser()
		running.copyUser(saved)
	}()
	return fn()
}
