// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

// Package macro defines macro values, macro tables and the prefix registry.
package macro

// Value is anything a macro name can be bound to.
type Value interface {
	// String returns a short description used in listings and traces.
	String() string
}

// Template is a literal expansion template. Placeholders use %s (sequential),
// %(n)s (positional, 1-based) and %% for a literal percent sign.
type Template struct {
	Text string
}

func (t Template) String() string { return t.Text }

// NewTemplate creates a Template value.
func NewTemplate(text string) Template {
	return Template{Text: text}
}

// IsTemplate reports whether v is a literal template, returning its text.
func IsTemplate(v Value) (string, bool) {
	switch t := v.(type) {
	case Template:
		return t.Text, true
	case *Template:
		return t.Text, true
	}
	return "", false
}
