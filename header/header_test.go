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

package header

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMap_CaseInsensitiveLookup(t *testing.T) {
	t.Parallel()

	m := New()
	m.Set("Content-Type", "application/json")

	assert.Equal(t, "application/json", m.Get("content-type"))
	assert.Equal(t, "application/json", m.Get("CONTENT-TYPE"))
	assert.True(t, m.Has("Content-Type"))
	assert.True(t, m.Has("content-type"))
}

func TestMap_AddPreservesMultipleValues(t *testing.T) {
	t.Parallel()

	m := New()
	m.Add("Set-Cookie", "a=1")
	m.Add("Set-Cookie", "b=2")

	assert.Equal(t, []string{"a=1", "b=2"}, m.GetAll("Set-Cookie"))
	assert.Equal(t, "a=1", m.Get("set-cookie"), "Get returns the first value")
}

func TestMap_SetReplacesExistingValues(t *testing.T) {
	t.Parallel()

	m := New()
	m.Add("Accept", "text/html")
	m.Add("Accept", "application/json")
	m.Set("Accept", "application/xml")

	assert.Equal(t, []string{"application/xml"}, m.GetAll("Accept"))
}

func TestMap_Del(t *testing.T) {
	t.Parallel()

	m := New()
	m.Add("X-Trace", "1")
	m.Add("X-Trace", "2")
	m.Del("x-trace")

	assert.False(t, m.Has("X-Trace"))
	assert.Nil(t, m.GetAll("X-Trace"))
}

func TestMap_NamesPreservesFirstSeenCasingAndOrder(t *testing.T) {
	t.Parallel()

	m := New()
	m.Add("X-B", "1")
	m.Add("X-A", "1")
	m.Add("x-b", "2") // same key, different casing — should not add a new name

	assert.Equal(t, []string{"X-B", "X-A"}, m.Names())
	assert.Equal(t, 2, m.Len())
}

func TestMap_Clone(t *testing.T) {
	t.Parallel()

	m := New()
	m.Add("X-Trace", "1")
	clone := m.Clone()
	clone.Add("X-Trace", "2")

	assert.Equal(t, []string{"1"}, m.GetAll("X-Trace"), "original is unaffected by mutations on the clone")
	assert.Equal(t, []string{"1", "2"}, clone.GetAll("X-Trace"))
}

func TestMap_Equal(t *testing.T) {
	t.Parallel()

	a := New()
	a.Add("Accept", "application/json")
	b := New()
	b.Add("accept", "application/json")

	assert.True(t, a.Equal(b))

	c := New()
	c.Add("Accept", "application/xml")
	assert.False(t, a.Equal(c))
}

func TestMap_EqualNilReceivers(t *testing.T) {
	t.Parallel()

	var a, b *Map
	assert.True(t, a.Equal(b))

	c := New()
	assert.False(t, a.Equal(c))
}

func TestMap_Range(t *testing.T) {
	t.Parallel()

	m := New()
	m.Add("A", "1")
	m.Add("B", "2")
	m.Add("A", "3")

	var got []string
	m.Range(func(name, value string) bool {
		got = append(got, name+"="+value)
		return true
	})

	assert.Equal(t, []string{"A=1", "B=2", "A=3"}, got)
}

func TestMap_RangeStopsEarly(t *testing.T) {
	t.Parallel()

	m := New()
	m.Add("A", "1")
	m.Add("B", "2")

	var seen int
	m.Range(func(name, value string) bool {
		seen++
		return false
	})

	assert.Equal(t, 1, seen)
}
