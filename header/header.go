// Copyright 2025 The Rivaas Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package header implements a case-insensitive, multi-valued header map.
//
// RFC 7230 §3.2 requires header field names to be treated case-insensitively
// while preserving the ability to carry multiple values for the same name
// (e.g. multiple Set-Cookie or Vary entries). Map satisfies both: lookups
// normalize on the lower-cased name, but iteration and output preserve the
// original casing and insertion order of every value.
package header

import "strings"

// entry is one (original-case name, value) pair.
type entry struct {
	name  string
	value string
}

// Map is a case-insensitive, multi-valued header collection.
//
// The zero value is ready to use. Map is not safe for concurrent use by
// multiple goroutines without external synchronization; a Request's headers
// are read-only after construction and a Response's headers are owned by a
// single in-flight decision-machine run, so no locking is needed internally.
type Map struct {
	entries []entry
	index   map[string][]int // lower(name) -> indices into entries
}

// New returns an empty Map.
func New() *Map {
	return &Map{}
}

// lower normalizes a header name for lookup.
func lower(name string) string {
	return strings.ToLower(name)
}

func (m *Map) ensureIndex() {
	if m.index == nil {
		m.index = make(map[string][]int)
	}
}

// Add appends a value for name, preserving any existing values under the
// same (case-insensitive) name.
func (m *Map) Add(name, value string) {
	m.ensureIndex()
	key := lower(name)
	m.entries = append(m.entries, entry{name: name, value: value})
	m.index[key] = append(m.index[key], len(m.entries)-1)
}

// Set replaces all existing values for name with a single value.
func (m *Map) Set(name, value string) {
	m.Del(name)
	m.Add(name, value)
}

// Get returns the first value for name, or "" if absent.
func (m *Map) Get(name string) string {
	idx, ok := m.index[lower(name)]
	if !ok || len(idx) == 0 {
		return ""
	}
	return m.entries[idx[0]].value
}

// GetAll returns every value for name in insertion order, or nil if absent.
func (m *Map) GetAll(name string) []string {
	idx, ok := m.index[lower(name)]
	if !ok {
		return nil
	}
	out := make([]string, len(idx))
	for i, e := range idx {
		out[i] = m.entries[e].value
	}
	return out
}

// Has reports whether name has at least one value, case-insensitively.
func (m *Map) Has(name string) bool {
	idx, ok := m.index[lower(name)]
	return ok && len(idx) > 0
}

// Del removes every value for name.
func (m *Map) Del(name string) {
	key := lower(name)
	idx, ok := m.index[key]
	if !ok {
		return
	}
	dead := make(map[int]struct{}, len(idx))
	for _, i := range idx {
		dead[i] = struct{}{}
	}
	kept := m.entries[:0]
	for i, e := range m.entries {
		if _, skip := dead[i]; skip {
			continue
		}
		kept = append(kept, e)
	}
	m.entries = kept
	delete(m.index, key)
	m.reindex()
}

// reindex rebuilds the lookup index after a structural mutation (Del).
func (m *Map) reindex() {
	m.index = make(map[string][]int, len(m.entries))
	for i, e := range m.entries {
		key := lower(e.name)
		m.index[key] = append(m.index[key], i)
	}
}

// Names returns every distinct original-case header name that was used on
// first insertion, in first-seen order.
func (m *Map) Names() []string {
	seen := make(map[string]struct{}, len(m.entries))
	names := make([]string, 0, len(m.entries))
	for _, e := range m.entries {
		key := lower(e.name)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		names = append(names, e.name)
	}
	return names
}

// Len returns the number of distinct header names.
func (m *Map) Len() int {
	return len(m.Names())
}

// Clone returns a deep copy of m.
func (m *Map) Clone() *Map {
	if m == nil {
		return New()
	}
	out := &Map{entries: make([]entry, len(m.entries))}
	copy(out.entries, m.entries)
	out.reindex()
	return out
}

// Equal compares two maps by lowercased key sets and per-key ordered values,
// per spec.md §4.1.
func (m *Map) Equal(other *Map) bool {
	if m == nil || other == nil {
		return m == other
	}
	a, b := m.index, other.index
	if len(a) != len(b) {
		return false
	}
	for key := range a {
		av := m.GetAll(key)
		bv := other.GetAll(key)
		if len(av) != len(bv) {
			return false
		}
		for i := range av {
			if av[i] != bv[i] {
				return false
			}
		}
	}
	return true
}

// Range calls fn for every (name, value) pair in insertion order, preserving
// original casing. fn returning false stops iteration early.
func (m *Map) Range(fn func(name, value string) bool) {
	for _, e := range m.entries {
		if !fn(e.name, e.value) {
			return
		}
	}
}
