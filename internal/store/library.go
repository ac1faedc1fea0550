// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

package store

import (
	"fmt"

	"nickandperla.net/texp/internal/macro"
)

// Load defines every stored template in the table of its prefix and
// returns the number of definitions loaded.
func Load(s Store, r *macro.Registry) (int, error) {
	entries, err := s.List(0)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, e := range entries {
		if err := r.Table(e.Prefix).Define(e.Name, macro.NewTemplate(e.Body)); err != nil {
			return n, fmt.Errorf("loading %c%s: %w", e.Prefix, e.Name, err)
		}
		n++
	}
	return n, nil
}

// Save writes the user template definitions of every table back to s.
// usage holds the resolution counts of the run; they are added to the
// stored counts. Functions and program-supplied entries are not saved.
func Save(s Store, r *macro.Registry, usage map[string]int) (int, error) {
	n := 0
	for _, p := range r.Prefixes() {
		for _, ent := range r.Table(p).Entries(macro.User) {
			body, ok := macro.IsTemplate(ent.Value)
			if !ok || ent.Builtin {
				continue
			}
			e := Entry{Prefix: p, Name: ent.Name, Body: body, Uses: usage[ent.Name]}
			old, err := s.Get(p, ent.Name)
			if err != nil {
				return n, err
			}
			if old != nil {
				e.Uses += old.Uses
			}
			if err := s.Put(e); err != nil {
				return n, fmt.Errorf("saving %c%s: %w", p, ent.Name, err)
			}
			n++
		}
	}
	return n, nil
}
