package store

import (
	"sort"
	"sync"
	"time"
)

type key struct {
	prefix rune
	name   string
}

// Memory is an in-memory store for testing.
type Memory struct {
	mu       sync.RWMutex
	data     map[key]Entry
	history  map[key][]VersionEntry
	metadata map[string]string
}

// NewMemory creates a new in-memory store.
func NewMemory() *Memory {
	return &Memory{
		data:     make(map[key]Entry),
		history:  make(map[key][]VersionEntry),
		metadata: make(map[string]string),
	}
}

// Get retrieves a definition.
func (m *Memory) Get(prefix rune, name string) (*Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if e, ok := m.data[key{prefix, name}]; ok {
		return &e, nil
	}
	return nil, nil
}

// Put stores a definition. A changed body is recorded as a new version.
func (m *Memory) Put(e Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := key{e.Prefix, e.Name}
	h := m.history[k]
	if len(h) == 0 || h[len(h)-1].Body != e.Body {
		m.history[k] = append(h, VersionEntry{
			Version: len(h) + 1,
			Body:    e.Body,
			Ts:      time.Now().UTC().Format(time.DateTime),
		})
	}
	m.data[k] = e
	return nil
}

// Delete removes a definition and all its versions.
func (m *Memory) Delete(prefix rune, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key{prefix, name})
	delete(m.history, key{prefix, name})
	return nil
}

// List returns the definitions of prefix, or all of them for prefix 0.
func (m *Memory) List(prefix rune) ([]Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []Entry
	for k, e := range m.data {
		if prefix == 0 || k.prefix == prefix {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Prefix != out[j].Prefix {
			return out[i].Prefix < out[j].Prefix
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

// GetHistory returns the versions of a definition, newest first. A limit of
// 0 returns all of them.
func (m *Memory) GetHistory(prefix rune, name string, limit int) ([]VersionEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	h := m.history[key{prefix, name}]
	var out []VersionEntry
	for i := len(h) - 1; i >= 0; i-- {
		if limit > 0 && len(out) == limit {
			break
		}
		out = append(out, h[i])
	}
	return out, nil
}

// Close is a no-op for memory store.
func (m *Memory) Close() error {
	return nil
}

// GetMetadata retrieves a metadata value by key.
func (m *Memory) GetMetadata(key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.metadata[key], nil
}

// SetMetadata stores a metadata value by key.
func (m *Memory) SetMetadata(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.metadata[key] = value
	return nil
}
