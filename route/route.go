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

// Package route holds the route model and registry described in spec.md
// §3.1 ("Route") and §4.3: path templates, per-route decision-callback and
// renderer/parser bindings, and the capability flags (§3.2) that let the
// decision machine skip irrelevant states.
package route

import (
	"github.com/rivaas-dev/restmachine/container"
	"github.com/rivaas-dev/restmachine/negotiate"
)

// Capabilities are pre-computed at registration (spec.md §3.2) so the
// decision machine visits only the nodes a route actually needs.
type Capabilities struct {
	NeedsAuthorization         bool
	NeedsForbiddenCheck        bool
	NeedsServiceAvailableCheck bool
	NeedsMalformedCheck        bool
	NeedsConditional           bool
	HasValidators              bool
	ContentTypesProvided       []string
	ContentTypesAccepted       []string
}

// Route is a registered (method, path-template) pair together with every
// decision callback, renderer, parser, and validator the registration API
// bound to it (spec.md §3.1).
type Route struct {
	Method   string
	Template *Template
	Name     string // for reverse routing (SPEC_FULL.md §5)

	// HandlerDep names the REQUEST-scoped dependency the handler itself was
	// registered under (spec.md §4.6 node 15 "invoke the handler via the DI
	// container").
	HandlerDep string

	// DecisionDeps maps a decision kind to the name of the dependency that
	// answers it for this route. Kinds not present here are skipped by the
	// machine via Capabilities.
	DecisionDeps map[container.Kind]string

	// Validators lists validator dependency names in declaration order
	// (spec.md §4.6 node 14 "resolve each validator in declaration order").
	Validators []string

	Renderers []negotiate.Renderer
	Parsers   []negotiate.Parser

	Capabilities Capabilities
}

// New constructs a Route with no bindings and zero capability flags. Call
// Freeze after every local registration helper (decision callback, renderer,
// parser, validator) has been applied, since capabilities are derived from
// the route's final shape.
func New(method string, tmpl *Template) *Route {
	return &Route{
		Method:       method,
		Template:     tmpl,
		DecisionDeps: make(map[container.Kind]string),
	}
}

// BindDecision registers dep as the resolver for kind on this route.
func (r *Route) BindDecision(kind container.Kind, dep string) {
	r.DecisionDeps[kind] = dep
}

// AddValidator appends a validator dependency name.
func (r *Route) AddValidator(dep string) {
	r.Validators = append(r.Validators, dep)
}

// AddRenderer registers a renderer for this route.
func (r *Route) AddRenderer(rnd negotiate.Renderer) {
	r.Renderers = append(r.Renderers, rnd)
}

// AddParser registers a parser for this route.
func (r *Route) AddParser(p negotiate.Parser) {
	r.Parsers = append(r.Parsers, p)
}

// Freeze computes Capabilities from the route's current bindings. The
// Application calls this once per route at the end of registration
// (spec.md §4.3 "Registration-time work").
func (r *Route) Freeze() {
	_, hasETag := r.DecisionDeps[container.KindETagProvider]
	_, hasLastModified := r.DecisionDeps[container.KindLastModifiedHook]
	_, hasAuth := r.DecisionDeps[container.KindAuthorization]
	_, hasForbidden := r.DecisionDeps[container.KindForbidden]
	_, hasServiceAvail := r.DecisionDeps[container.KindServiceAvailability]
	_, hasMalformed := r.DecisionDeps[container.KindMalformed]

	var provided []string
	for _, rnd := range r.Renderers {
		provided = append(provided, rnd.MediaType)
	}
	var accepted []string
	for _, p := range r.Parsers {
		accepted = append(accepted, p.MediaType)
	}

	r.Capabilities = Capabilities{
		NeedsAuthorization:         hasAuth,
		NeedsForbiddenCheck:        hasForbidden,
		NeedsServiceAvailableCheck: hasServiceAvail,
		NeedsMalformedCheck:        hasMalformed,
		NeedsConditional:           hasETag || hasLastModified,
		HasValidators:              len(r.Validators) > 0,
		ContentTypesProvided:       provided,
		ContentTypesAccepted:       accepted,
	}
}
