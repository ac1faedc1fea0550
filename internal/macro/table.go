// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

package macro

import (
	"fmt"
	"sort"
	"strings"
)

// HiddenMarker is the character every internal entry name contains and no
// user entry name may contain.
const HiddenMarker = "_"

// NameChars is the regexp character class of names that can be invoked from text.
const NameChars = "a-zA-Z0-9*"

// Class distinguishes user-visible entries from internal ones.
type Class int

const (
	// User entries are private to one table.
	User Class = iota
	// Hidden entries are shared between all tables of a registry.
	Hidden
)

func (c Class) String() string {
	if c == Hidden {
		return "hidden"
	}
	return "user"
}

// Entry is one binding in a Table.
type Entry struct {
	Name    string
	Value   Value
	Class   Class
	Builtin bool // registered at construction rather than by a document
}

// Table is the namespace of macros for one prefix.
type Table struct {
	entries map[string]Entry
}

// NewTable creates a table seeded with the given builtin (hidden) entries.
func NewTable(builtins ...Entry) (*Table, error) {
	t := &Table{entries: make(map[string]Entry)}
	for _, b := range builtins {
		if err := t.Builtin(b.Name, b.Value); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// ValidateName checks a name against the classification rules.
func ValidateName(name string, class Class) error {
	if name == "" {
		return fmt.Errorf("empty macro name")
	}
	hidden := strings.Contains(name, HiddenMarker)
	switch {
	case class == Hidden && !hidden:
		return fmt.Errorf("internal entry %q must contain %q", name, HiddenMarker)
	case class == User && hidden:
		return fmt.Errorf("macro name %q must not contain %q", name, HiddenMarker)
	}
	return nil
}

// ClassOf returns the class a name belongs to.
func ClassOf(name string) Class {
	if strings.Contains(name, HiddenMarker) {
		return Hidden
	}
	return User
}

// Builtin registers an internal entry.
func (t *Table) Builtin(name string, v Value) error {
	if err := ValidateName(name, Hidden); err != nil {
		return err
	}
	t.entries[name] = Entry{Name: name, Value: v, Class: Hidden, Builtin: true}
	return nil
}

// Provide binds a program-supplied entry of either class, marking it as
// builtin so listings can tell it apart from document definitions.
func (t *Table) Provide(name string, v Value) error {
	class := ClassOf(name)
	if err := ValidateName(name, class); err != nil {
		return err
	}
	t.entries[name] = Entry{Name: name, Value: v, Class: class, Builtin: true}
	return nil
}

// Lookup returns the full entry for name.
func (t *Table) Lookup(name string) (Entry, bool) {
	e, ok := t.entries[name]
	return e, ok
}

// Define binds a user macro.
func (t *Table) Define(name string, v Value) error {
	if err := ValidateName(name, User); err != nil {
		return err
	}
	t.entries[name] = Entry{Name: name, Value: v, Class: User}
	return nil
}

// DefineHidden binds an internal entry created by a document.
func (t *Table) DefineHidden(name string, v Value) error {
	if err := ValidateName(name, Hidden); err != nil {
		return err
	}
	t.entries[name] = Entry{Name: name, Value: v, Class: Hidden}
	return nil
}

// Set binds name, classifying it by the hidden marker.
func (t *Table) Set(name string, v Value) error {
	if ClassOf(name) == Hidden {
		return t.DefineHidden(name, v)
	}
	return t.Define(name, v)
}

// Get retrieves a value by name.
func (t *Table) Get(name string) (Value, bool) {
	e, ok := t.entries[name]
	if !ok {
		return nil, false
	}
	return e.Value, true
}

// Has returns true if the name exists in the table.
func (t *Table) Has(name string) bool {
	_, ok := t.entries[name]
	return ok
}

// Delete removes an entry.
func (t *Table) Delete(name string) {
	delete(t.entries, name)
}

// Len returns the number of entries of the given class.
func (t *Table) Len(class Class) int {
	n := 0
	for _, e := range t.entries {
		if e.Class == class {
			n++
		}
	}
	return n
}

// Entries returns the entries of the given class sorted by name.
func (t *Table) Entries(class Class) []Entry {
	var out []Entry
	for _, e := range t.entries {
		if e.Class == class {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Clone creates a shallow copy of the table.
func (t *Table) Clone() *Table {
	clone := &Table{entries: make(map[string]Entry, len(t.entries))}
	for k, v := range t.entries {
		clone.entries[k] = v
	}
	return clone
}

func (t *Table) removeUser() {
	for k, e := range t.entries {
		if e.Class == User {
			delete(t.entries, k)
		}
	}
}

func (t *Table) copyUser(from *Table) {
	for k, e := range from.entries {
		if e.Class == User {
			t.entries[k] = e
		}
	}
}

func (t *Table) copyHidden(from *Table) {
	for k, e := range from.entries {
		if e.Class == Hidden {
			t.entries[k] = e
		}
	}
}
