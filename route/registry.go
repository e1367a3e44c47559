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

package route

import (
	"fmt"
	"sort"
	"sync"

	"github.com/rivaas-dev/restmachine/rmerrors"
)

// Match is the result of a successful Registry.Match call.
type Match struct {
	Route      *Route
	PathParams map[string]string
}

// Registry stores routes keyed by (method, normalized template) and matches
// incoming requests against them (spec.md §4.3).
type Registry struct {
	mu       sync.RWMutex
	routes   []*Route
	byMethod map[string][]*Route
	keys     map[string]struct{} // "METHOD templateKey" uniqueness set
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		byMethod: make(map[string][]*Route),
		keys:     make(map[string]struct{}),
	}
}

// Add registers r. It returns ErrDuplicateRoute if (method, normalized
// template) was already registered (spec.md §3.3).
func (reg *Registry) Add(r *Route) error {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	key := r.Method + " " + r.Template.Key()
	if _, exists := reg.keys[key]; exists {
		return fmt.Errorf("restmachine: route %s %s: %w", r.Method, r.Template.Raw, rmerrors.ErrDuplicateRoute)
	}
	reg.keys[key] = struct{}{}
	reg.routes = append(reg.routes, r)
	reg.byMethod[r.Method] = append(reg.byMethod[r.Method], r)
	return nil
}

// MatchResult is the outcome of Registry.Match.
type MatchResult struct {
	Found          bool
	Match          Match
	AllowedMethods []string // populated when the path matches but the method doesn't
}

// Match finds the route bound to (method, path). If no route matches method
// but at least one route matches path under a different method, Found is
// false and AllowedMethods carries the "method-not-allowed" signal of
// spec.md §4.3.
func (reg *Registry) Match(method, path string) MatchResult {
	reg.mu.RLock()
	defer reg.mu.RUnlock()

	for _, r := range reg.byMethod[method] {
		if params, ok := r.Template.Match(path); ok {
			return MatchResult{Found: true, Match: Match{Route: r, PathParams: params}}
		}
	}

	allowedSet := make(map[string]struct{})
	for _, r := range reg.routes {
		if r.Method == method {
			continue
		}
		if _, ok := r.Template.Match(path); ok {
			allowedSet[r.Method] = struct{}{}
		}
	}
	if len(allowedSet) == 0 {
		return MatchResult{Found: false}
	}
	allowed := make([]string, 0, len(allowedSet))
	for m := range allowedSet {
		allowed = append(allowed, m)
	}
	sort.Strings(allowed)
	return MatchResult{Found: false, AllowedMethods: allowed}
}

// Routes returns every registered route, for introspection
// (SPEC_FULL.md §5 "Route introspection").
func (reg *Registry) Routes() []*Route {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	out := make([]*Route, len(reg.routes))
	copy(out, reg.routes)
	return out
}

// ByName finds a route registered under name, for reverse routing
// (SPEC_FULL.md §5 "Named routes").
func (reg *Registry) ByName(name string) (*Route, bool) {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	for _, r := range reg.routes {
		if r.Name == name {
			return r, true
		}
	}
	return nil, false
}
