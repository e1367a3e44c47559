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

package restmachine

import (
	"fmt"

	"github.com/rivaas-dev/restmachine/container"
	"github.com/rivaas-dev/restmachine/negotiate"
	"github.com/rivaas-dev/restmachine/route"
)

// RouteBuilder accumulates a route's decision callbacks, validators,
// renderers, and parsers before Handle registers the route (spec.md §4.7
// "registration API"). Every binding method registers a new REQUEST-scoped
// dependency under a name you choose and wires it to the matching decision
// node in one call — the pytest-fixture-by-name model of spec.md §4.2
// applied to route registration itself.
type RouteBuilder struct {
	app   *Application
	route *route.Route
	err   error
}

// Route starts building a route bound to method and path. path is a
// template as described by spec.md §4.3 ("/users/{id}").
func (a *Application) Route(method, path string) *RouteBuilder {
	tmpl, err := route.Compile(path)
	if err != nil {
		return &RouteBuilder{app: a, err: err}
	}
	return &RouteBuilder{app: a, route: route.New(method, tmpl)}
}

// GET, POST, PUT, PATCH, DELETE, OPTIONS, and HEAD are Route convenience
// wrappers for the corresponding HTTP method.
func (a *Application) GET(path string) *RouteBuilder     { return a.Route("GET", path) }
func (a *Application) POST(path string) *RouteBuilder    { return a.Route("POST", path) }
func (a *Application) PUT(path string) *RouteBuilder     { return a.Route("PUT", path) }
func (a *Application) PATCH(path string) *RouteBuilder   { return a.Route("PATCH", path) }
func (a *Application) DELETE(path string) *RouteBuilder  { return a.Route("DELETE", path) }
func (a *Application) OPTIONS(path string) *RouteBuilder { return a.Route("OPTIONS", path) }
func (a *Application) HEAD(path string) *RouteBuilder    { return a.Route("HEAD", path) }

// Named registers name for reverse routing via Application.URLFor.
func (b *RouteBuilder) Named(name string) *RouteBuilder {
	if b.err == nil {
		b.route.Name = name
	}
	return b
}

func (b *RouteBuilder) bind(name string, scope container.Scope, params []string, fn any, kind container.Kind) *RouteBuilder {
	if b.err != nil {
		return b
	}
	if err := b.app.container.Register(container.Dependency{Name: name, Scope: scope, Params: params, Fn: fn, Kind: kind}); err != nil {
		b.err = err
		return b
	}
	switch kind {
	case container.KindValidator:
		b.route.AddValidator(name)
	default:
		b.route.BindDecision(kind, name)
	}
	return b
}

// ServiceAvailable binds a REQUEST-scoped decision callback answering
// "may this request proceed at all" (fn returns bool, or (bool, error)).
func (b *RouteBuilder) ServiceAvailable(name string, params []string, fn any) *RouteBuilder {
	return b.bind(name, container.Request, params, fn, container.KindServiceAvailability)
}

// Malformed binds a decision callback reporting whether the request is
// malformed (true rejects with 400).
func (b *RouteBuilder) Malformed(name string, params []string, fn any) *RouteBuilder {
	return b.bind(name, container.Request, params, fn, container.KindMalformed)
}

// Authorized binds a decision callback reporting whether the request is
// authorized (false rejects with 401).
func (b *RouteBuilder) Authorized(name string, params []string, fn any) *RouteBuilder {
	return b.bind(name, container.Request, params, fn, container.KindAuthorization)
}

// Forbidden binds a decision callback reporting whether the authenticated
// caller is forbidden from this resource (true rejects with 403).
func (b *RouteBuilder) Forbidden(name string, params []string, fn any) *RouteBuilder {
	return b.bind(name, container.Request, params, fn, container.KindForbidden)
}

// ResourceExists binds a decision callback reporting whether the target
// resource currently exists.
func (b *RouteBuilder) ResourceExists(name string, params []string, fn any) *RouteBuilder {
	return b.bind(name, container.Request, params, fn, container.KindResourceExistence)
}

// ETag binds a callback returning the resource's current entity-tag (fn
// returns string), consumed by the conditional-request evaluator and set as
// the ETag header on every response the route renders successfully, as well
// as on its 304 and 412 short-circuits.
func (b *RouteBuilder) ETag(name string, params []string, fn any) *RouteBuilder {
	return b.bind(name, container.Request, params, fn, container.KindETagProvider)
}

// LastModified binds a callback returning the resource's current
// modification time (fn returns time.Time).
func (b *RouteBuilder) LastModified(name string, params []string, fn any) *RouteBuilder {
	return b.bind(name, container.Request, params, fn, container.KindLastModifiedHook)
}

// Validator appends a validator dependency, resolved in declaration order
// after content negotiation and before the handler (spec.md §4.6 node 14).
func (b *RouteBuilder) Validator(name string, params []string, fn any) *RouteBuilder {
	return b.bind(name, container.Request, params, fn, container.KindValidator)
}

// Renderer adds a renderer this route offers in addition to the
// Application's defaults.
func (b *RouteBuilder) Renderer(r negotiate.Renderer) *RouteBuilder {
	if b.err == nil {
		b.route.AddRenderer(r)
	}
	return b
}

// Parser adds a parser this route accepts in addition to the Application's
// defaults.
func (b *RouteBuilder) Parser(p negotiate.Parser) *RouteBuilder {
	if b.err == nil {
		b.route.AddParser(p)
	}
	return b
}

// Handle registers the handler dependency and adds the finished route to
// the Application's registry. fn's return value is whatever the handler
// wants rendered — see HandlerReturn for overriding status or headers.
func (b *RouteBuilder) Handle(params []string, fn any) error {
	if b.err != nil {
		return b.err
	}
	depName := fmt.Sprintf("%s %s#handler", b.route.Method, b.route.Template.Raw)
	if err := b.app.container.Register(container.Dependency{Name: depName, Scope: container.Request, Params: params, Fn: fn, Kind: container.KindValue}); err != nil {
		return err
	}
	b.route.HandlerDep = depName
	b.route.Freeze()
	if err := b.app.registry.Add(b.route); err != nil {
		return err
	}

	b.app.emit(DiagRouteRegistered, "route registered", map[string]any{
		"method": b.route.Method,
		"path":   b.route.Template.Raw,
	})
	if len(b.route.Renderers) == 0 && len(b.app.defaultRenderers) == 0 {
		b.app.emit(DiagRouteNoRenderer, "route has no renderer available", map[string]any{
			"method": b.route.Method,
			"path":   b.route.Template.Raw,
		})
	}
	return nil
}

// Group returns a route group rooted at prefix (SPEC_FULL.md §5 "Route
// groups with shared decision callbacks"): every route added through the
// group inherits its decision-callback bindings and extra renderers/
// parsers, without introducing a middleware chain alongside the DI-resolved
// decision-node model spec.md §4.6 already mandates.
func (a *Application) Group(prefix string) *Group {
	return &Group{
		app:          a,
		prefix:       prefix,
		decisionDeps: make(map[container.Kind]string),
	}
}

// Group is a prefix plus a set of inherited bindings, applied to every
// route registered through it.
type Group struct {
	app          *Application
	prefix       string
	decisionDeps map[container.Kind]string
	renderers    []negotiate.Renderer
	parsers      []negotiate.Parser
}

// Route starts a route under the group's prefix, pre-bound with the
// group's inherited decision callbacks and extra renderers/parsers.
func (g *Group) Route(method, path string) *RouteBuilder {
	b := g.app.Route(method, g.prefix+path)
	if b.err != nil {
		return b
	}
	for kind, name := range g.decisionDeps {
		b.route.BindDecision(kind, name)
	}
	for _, r := range g.renderers {
		b.route.AddRenderer(r)
	}
	for _, p := range g.parsers {
		b.route.AddParser(p)
	}
	return b
}

func (g *Group) GET(path string) *RouteBuilder     { return g.Route("GET", path) }
func (g *Group) POST(path string) *RouteBuilder    { return g.Route("POST", path) }
func (g *Group) PUT(path string) *RouteBuilder     { return g.Route("PUT", path) }
func (g *Group) PATCH(path string) *RouteBuilder   { return g.Route("PATCH", path) }
func (g *Group) DELETE(path string) *RouteBuilder  { return g.Route("DELETE", path) }
func (g *Group) OPTIONS(path string) *RouteBuilder { return g.Route("OPTIONS", path) }
func (g *Group) HEAD(path string) *RouteBuilder    { return g.Route("HEAD", path) }

// Authorized registers an Authorized binding every route in the group
// inherits. name must already be registered as a dependency (e.g. via
// Application.Dependency, or shared across groups by registering it once
// up front).
func (g *Group) Authorized(name string) *Group {
	g.decisionDeps[container.KindAuthorization] = name
	return g
}

// Forbidden registers a Forbidden binding inherited by the group's routes.
func (g *Group) Forbidden(name string) *Group {
	g.decisionDeps[container.KindForbidden] = name
	return g
}

// ServiceAvailable registers a ServiceAvailable binding inherited by the
// group's routes.
func (g *Group) ServiceAvailable(name string) *Group {
	g.decisionDeps[container.KindServiceAvailability] = name
	return g
}

// Renderer adds a renderer inherited by every route in the group.
func (g *Group) Renderer(r negotiate.Renderer) *Group {
	g.renderers = append(g.renderers, r)
	return g
}

// Parser adds a parser inherited by every route in the group.
func (g *Group) Parser(p negotiate.Parser) *Group {
	g.parsers = append(g.parsers, p)
	return g
}
