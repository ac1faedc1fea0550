// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

// Package store provides persistence for macro libraries.
package store

// Entry is one stored template definition.
type Entry struct {
	Prefix rune
	Name   string
	Body   string
	Uses   int // accumulated usage count over all saved runs
}

// Store is the interface for macro library persistence.
type Store interface {
	// Get retrieves a definition. Returns nil if not found.
	Get(prefix rune, name string) (*Entry, error)
	// Put stores a definition, overwriting the body and usage count.
	Put(e Entry) error
	// Delete removes a definition.
	Delete(prefix rune, name string) error
	// List returns the definitions of prefix sorted by name, or every
	// definition when prefix is 0.
	List(prefix rune) ([]Entry, error)
	// Close releases resources.
	Close() error
}

// VersionEntry represents a single version of a stored definition.
type VersionEntry struct {
	Version int
	Body    string
	Ts      string
}

// HistoryStore extends Store with version history queries.
type HistoryStore interface {
	GetHistory(prefix rune, name string, limit int) ([]VersionEntry, error)
}

// MetadataStore is implemented by stores that keep key/value metadata.
type MetadataStore interface {
	GetMetadata(key string) (string, error)
	SetMetadata(key, value string) error
}
